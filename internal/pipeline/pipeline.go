package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/scriba/internal/documents"
	"github.com/ternarybob/scriba/internal/models"
)

// Recognized step names. The registry is closed: formats naming anything
// else fail preparation.
const (
	StepJSON        = "json"
	StepJinja       = "jinja"
	StepPandoc      = "pandoc"
	StepWkHtmlToPdf = "wkhtmltopdf"
	StepPrince      = "prince"
	StepRDF         = "rdflib-convert"
)

type stepBuilder func(step models.Step, env *Env) (Step, error)

var registry = map[string]stepBuilder{
	StepJSON:        newJSONStep,
	StepJinja:       newJinjaStep,
	StepPandoc:      newPandocStep,
	StepWkHtmlToPdf: newWkHtmlToPdfStep,
	StepPrince:      newPrinceStep,
	StepRDF:         newRDFStep,
}

// Pipeline is a prepared format: one concrete step per descriptor, ready
// to execute against a document context
type Pipeline struct {
	steps []Step
}

// Build instantiates the step chain of a format. Empty step lists,
// unknown step names and failing step constructions all reject the
// format as malformed.
func Build(format *models.Format, env *Env) (*Pipeline, error) {
	if len(format.Steps) == 0 {
		return nil, fmt.Errorf("format %q has no steps", format.Name)
	}
	steps := make([]Step, 0, len(format.Steps))
	for _, descriptor := range format.Steps {
		build, ok := registry[descriptor.Name]
		if !ok {
			return nil, fmt.Errorf("%w %q in format %q", ErrUnknownStep, descriptor.Name, format.Name)
		}
		step, err := build(descriptor, env)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare step %q of format %q: %w", descriptor.Name, format.Name, err)
		}
		steps = append(steps, step)
	}
	return &Pipeline{steps: steps}, nil
}

// OutputFormat is the statically known final output of the chain, used
// for policy checks before any rendering happens
func (p *Pipeline) OutputFormat() *documents.FileFormat {
	for i := len(p.steps) - 1; i >= 0; i-- {
		if format := p.steps[i].OutputFormat(); format != nil {
			return format
		}
	}
	return nil
}

// Execute feeds the document context to the first step and threads the
// artifact through the rest of the chain
func (p *Pipeline) Execute(ctx context.Context, docContext map[string]interface{}) (*documents.DocumentFile, error) {
	doc, err := p.steps[0].ExecuteFirst(ctx, docContext)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", p.steps[0].Name(), err)
	}
	for _, step := range p.steps[1:] {
		doc, err = step.ExecuteFollow(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name(), err)
		}
	}
	return doc, nil
}
