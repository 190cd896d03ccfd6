package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/scriba/internal/documents"
	"github.com/ternarybob/scriba/internal/models"
)

// jsonStep emits the raw document context as pretty-printed JSON
type jsonStep struct {
	producerStep
}

func newJSONStep(step models.Step, env *Env) (Step, error) {
	return &jsonStep{producerStep{name: StepJSON}}, nil
}

func (s *jsonStep) OutputFormat() *documents.FileFormat {
	format := documents.FormatJSON
	return &format
}

func (s *jsonStep) ExecuteFirst(ctx context.Context, docContext map[string]interface{}) (*documents.DocumentFile, error) {
	data, err := marshalContext(docContext)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document context: %w", err)
	}
	return documents.NewDocumentFile(documents.FormatJSON, data), nil
}

// marshalContext produces the canonical context bytes: 2-space indent,
// keys sorted, no HTML escaping, no trailing newline. Decoding and
// re-encoding the output reproduces it byte for byte.
func marshalContext(docContext map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(docContext); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
