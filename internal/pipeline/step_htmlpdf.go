package pipeline

import (
	"context"

	"github.com/ternarybob/scriba/internal/documents"
	"github.com/ternarybob/scriba/internal/models"
)

// wkhtmltopdfStep renders HTML into PDF through the wkhtmltopdf binary
type wkhtmltopdfStep struct {
	transformerStep
	env  *Env
	args string
}

func newWkHtmlToPdfStep(step models.Step, env *Env) (Step, error) {
	return &wkhtmltopdfStep{
		transformerStep: transformerStep{name: StepWkHtmlToPdf, input: documents.FormatHTML},
		env:             env,
		args:            step.Option(optionArgs, ""),
	}, nil
}

func (s *wkhtmltopdfStep) OutputFormat() *documents.FileFormat {
	format := documents.FormatPDF
	return &format
}

func (s *wkhtmltopdfStep) ExecuteFollow(ctx context.Context, doc *documents.DocumentFile) (*documents.DocumentFile, error) {
	if err := s.checkInput(doc); err != nil {
		return nil, err
	}
	data, err := s.env.WkHtmlToPdf.Convert(ctx, s.env.Workspace.Dir, s.args, doc.Data)
	if err != nil {
		return nil, err
	}
	return documents.NewDocumentFile(documents.FormatPDF, data), nil
}

// princeStep renders HTML into PDF through the Prince binary
type princeStep struct {
	transformerStep
	env  *Env
	args string
}

func newPrinceStep(step models.Step, env *Env) (Step, error) {
	return &princeStep{
		transformerStep: transformerStep{name: StepPrince, input: documents.FormatHTML},
		env:             env,
		args:            step.Option(optionArgs, ""),
	}, nil
}

func (s *princeStep) OutputFormat() *documents.FileFormat {
	format := documents.FormatPDF
	return &format
}

func (s *princeStep) ExecuteFollow(ctx context.Context, doc *documents.DocumentFile) (*documents.DocumentFile, error) {
	if err := s.checkInput(doc); err != nil {
		return nil, err
	}
	data, err := s.env.Prince.Convert(ctx, s.env.Workspace.Dir, s.args, doc.Data)
	if err != nil {
		return nil, err
	}
	return documents.NewDocumentFile(documents.FormatPDF, data), nil
}
