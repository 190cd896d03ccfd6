package conversion

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
)

// Pandoc drives the pandoc binary for document-to-document conversions
type Pandoc struct {
	*driver
}

// NewPandoc builds the pandoc driver from the externals.pandoc section
func NewPandoc(config common.ExternalConfig, logger arbor.ILogger) (*Pandoc, error) {
	d, err := newDriver("pandoc", config, logger)
	if err != nil {
		return nil, err
	}
	return &Pandoc{driver: d}, nil
}

// Convert turns input from one pandoc format into another. from and to
// are pandoc reader/writer names; stepArgs come from the template's step
// options.
func (p *Pandoc) Convert(ctx context.Context, workdir, stepArgs, from, to string, input []byte) ([]byte, error) {
	argv, err := p.argv(stepArgs, "-f", from, "-t", to, "-o", "-")
	if err != nil {
		return nil, err
	}
	return p.run(ctx, workdir, argv, input)
}
