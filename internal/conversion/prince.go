package conversion

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
)

// Prince drives the Prince binary, the alternative HTML to PDF converter
type Prince struct {
	*driver
}

// NewPrince builds the driver from the externals.prince section
func NewPrince(config common.ExternalConfig, logger arbor.ILogger) (*Prince, error) {
	d, err := newDriver("prince", config, logger)
	if err != nil {
		return nil, err
	}
	return &Prince{driver: d}, nil
}

// Convert renders HTML bytes into a PDF
func (p *Prince) Convert(ctx context.Context, workdir, stepArgs string, input []byte) ([]byte, error) {
	argv, err := p.argv(stepArgs, "-", "-o", "-")
	if err != nil {
		return nil, err
	}
	return p.run(ctx, workdir, argv, input)
}
