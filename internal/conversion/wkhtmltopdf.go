package conversion

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
)

// WkHtmlToPdf drives the wkhtmltopdf binary for HTML to PDF conversion
type WkHtmlToPdf struct {
	*driver
}

// NewWkHtmlToPdf builds the driver from the externals.wkhtmltopdf section
func NewWkHtmlToPdf(config common.ExternalConfig, logger arbor.ILogger) (*WkHtmlToPdf, error) {
	d, err := newDriver("wkhtmltopdf", config, logger)
	if err != nil {
		return nil, err
	}
	return &WkHtmlToPdf{driver: d}, nil
}

// Convert renders HTML bytes into a PDF. Local file access is disabled
// except for the job workspace, so templates can only reference their own
// materialized assets.
func (w *WkHtmlToPdf) Convert(ctx context.Context, workdir, stepArgs string, input []byte) ([]byte, error) {
	argv, err := w.argv(stepArgs,
		"--disable-local-file-access", "--allow", workdir,
		"--quiet", "--encoding", "utf-8", "-", "-")
	if err != nil {
		return nil, err
	}
	return w.run(ctx, workdir, argv, input)
}
