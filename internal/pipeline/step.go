package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/conversion"
	"github.com/ternarybob/scriba/internal/documents"
	"github.com/ternarybob/scriba/internal/templates"
)

var (
	// ErrStepInvariant marks a step invoked in the wrong pipeline role or
	// fed an input format it does not accept
	ErrStepInvariant = errors.New("step invariant violated")
	// ErrUnknownStep marks a format referencing a step name outside the
	// closed registry
	ErrUnknownStep = errors.New("unknown step name")
)

// Step is one stage of a format pipeline. A producer implements
// ExecuteFirst and rejects ExecuteFollow; a transformer does the reverse.
type Step interface {
	Name() string
	// OutputFormat is the statically known output of the step, used for
	// pre-render policy checks
	OutputFormat() *documents.FileFormat
	ExecuteFirst(ctx context.Context, docContext map[string]interface{}) (*documents.DocumentFile, error)
	ExecuteFollow(ctx context.Context, doc *documents.DocumentFile) (*documents.DocumentFile, error)
}

// Env carries what step builders and executions need: the per-job
// workspace plus the process-wide converter drivers
type Env struct {
	Workspace   *templates.Workspace
	Config      *common.Config
	Logger      arbor.ILogger
	Pandoc      *conversion.Pandoc
	WkHtmlToPdf *conversion.WkHtmlToPdf
	Prince      *conversion.Prince
}

// producerStep implements the follow-position rejection shared by all
// producers
type producerStep struct {
	name string
}

func (s producerStep) Name() string {
	return s.name
}

func (s producerStep) ExecuteFollow(ctx context.Context, doc *documents.DocumentFile) (*documents.DocumentFile, error) {
	return nil, fmt.Errorf("step %q cannot process other files: %w", s.name, ErrStepInvariant)
}

// transformerStep implements the first-position rejection and the seam
// format check shared by all transformers
type transformerStep struct {
	name  string
	input documents.FileFormat
}

func (s transformerStep) Name() string {
	return s.name
}

func (s transformerStep) ExecuteFirst(ctx context.Context, docContext map[string]interface{}) (*documents.DocumentFile, error) {
	return nil, fmt.Errorf("step %q cannot be first: %w", s.name, ErrStepInvariant)
}

func (s transformerStep) checkInput(doc *documents.DocumentFile) error {
	if doc.Format.Name != s.input.Name {
		return fmt.Errorf("step %q expects %s input but received %s: %w",
			s.name, s.input.Name, doc.Format.Name, ErrStepInvariant)
	}
	return nil
}
