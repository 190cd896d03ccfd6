package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/scriba/internal/conversion"
	"github.com/ternarybob/scriba/internal/documents"
	"github.com/ternarybob/scriba/internal/models"
)

// rdfFormats are the graph syntaxes rdflib-convert accepts on either side
var rdfFormats = map[string]bool{
	documents.FormatRDFXML.Name:   true,
	documents.FormatN3.Name:       true,
	documents.FormatNTriples.Name: true,
	documents.FormatTurtle.Name:   true,
	documents.FormatTriG.Name:     true,
	documents.FormatJSONLD.Name:   true,
}

// rdfStep re-serializes an RDF graph between syntaxes, fully in process
type rdfStep struct {
	transformerStep
	output documents.FileFormat
}

func newRDFStep(step models.Step, env *Env) (Step, error) {
	from, ok := documents.LookupFormat(step.Option(optionFrom, ""))
	if !ok || !rdfFormats[from.Name] {
		return nil, fmt.Errorf("rdflib-convert cannot read format %q", step.Option(optionFrom, ""))
	}
	to, ok := documents.LookupFormat(step.Option(optionTo, ""))
	if !ok || !rdfFormats[to.Name] {
		return nil, fmt.Errorf("rdflib-convert cannot write format %q", step.Option(optionTo, ""))
	}
	return &rdfStep{
		transformerStep: transformerStep{name: StepRDF, input: from},
		output:          to,
	}, nil
}

func (s *rdfStep) OutputFormat() *documents.FileFormat {
	format := s.output
	return &format
}

func (s *rdfStep) ExecuteFollow(ctx context.Context, doc *documents.DocumentFile) (*documents.DocumentFile, error) {
	if err := s.checkInput(doc); err != nil {
		return nil, err
	}
	data, err := conversion.ConvertGraph(s.input, s.output, doc.Data)
	if err != nil {
		return nil, err
	}
	return documents.NewDocumentFile(s.output, data), nil
}
