package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/scriba/internal/documents"
	"github.com/ternarybob/scriba/internal/models"
)

const (
	optionFrom = "from"
	optionTo   = "to"
	optionArgs = "args"
)

// Formats pandoc is allowed to read and write, keyed by canonical name.
// The output set is the input set plus the write-only formats.
var pandocInputFormats = map[string]bool{
	documents.FormatDOCX.Name:     true,
	documents.FormatEPUB.Name:     true,
	documents.FormatHTML.Name:     true,
	documents.FormatLaTeX.Name:    true,
	documents.FormatMarkdown.Name: true,
	documents.FormatODT.Name:      true,
	documents.FormatRST.Name:      true,
}

var pandocOutputFormats = map[string]bool{
	documents.FormatAsciiDoc.Name: true,
	documents.FormatDocBook4.Name: true,
	documents.FormatDocBook5.Name: true,
	documents.FormatDOCX.Name:     true,
	documents.FormatEPUB.Name:     true,
	documents.FormatHTML.Name:     true,
	documents.FormatLaTeX.Name:    true,
	documents.FormatMarkdown.Name: true,
	documents.FormatODT.Name:      true,
	documents.FormatRST.Name:      true,
	documents.FormatRTF.Name:      true,
}

// pandocStep converts between document formats through the pandoc binary
type pandocStep struct {
	transformerStep
	env    *Env
	args   string
	output documents.FileFormat
}

func newPandocStep(step models.Step, env *Env) (Step, error) {
	from, ok := documents.LookupFormat(step.Option(optionFrom, ""))
	if !ok || !pandocInputFormats[from.Name] {
		return nil, fmt.Errorf("pandoc cannot read format %q", step.Option(optionFrom, ""))
	}
	to, ok := documents.LookupFormat(step.Option(optionTo, ""))
	if !ok || !pandocOutputFormats[to.Name] {
		return nil, fmt.Errorf("pandoc cannot write format %q", step.Option(optionTo, ""))
	}
	return &pandocStep{
		transformerStep: transformerStep{name: StepPandoc, input: from},
		env:             env,
		args:            step.Option(optionArgs, ""),
		output:          to,
	}, nil
}

func (s *pandocStep) OutputFormat() *documents.FileFormat {
	format := s.output
	return &format
}

func (s *pandocStep) ExecuteFollow(ctx context.Context, doc *documents.DocumentFile) (*documents.DocumentFile, error) {
	if err := s.checkInput(doc); err != nil {
		return nil, err
	}
	data, err := s.env.Pandoc.Convert(ctx, s.env.Workspace.Dir, s.args, s.input.Name, s.output.Name, doc.Data)
	if err != nil {
		return nil, err
	}
	return documents.NewDocumentFile(s.output, data), nil
}
