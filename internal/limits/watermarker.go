package limits

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/interfaces"
)

// Watermarker stamps an image onto every page of a PDF with pdfcpu.
// pdfcpu works on files, so each call round-trips through a temp
// directory.
type Watermarker struct {
	tempDir string
	logger  arbor.ILogger

	mu        sync.Mutex
	validated map[string]bool
	sequence  int
}

var _ interfaces.Watermarker = (*Watermarker)(nil)

// NewWatermarker validates defaultImage (when configured) so a broken
// path fails at startup instead of on the first PDF job.
func NewWatermarker(defaultImage string, logger arbor.ILogger) (*Watermarker, error) {
	tempDir := filepath.Join(os.TempDir(), "scriba-watermark")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create watermark temp directory: %w", err)
	}

	w := &Watermarker{
		tempDir:   tempDir,
		logger:    logger,
		validated: make(map[string]bool),
	}
	if defaultImage != "" {
		if err := w.checkImage(defaultImage); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Stamp places the image top-center on every page, offset topOffset
// points down from the page top
func (w *Watermarker) Stamp(pdf []byte, imagePath string, topOffset float64) ([]byte, error) {
	if err := w.checkImage(imagePath); err != nil {
		return nil, err
	}

	inFile, outFile := w.tempFiles()
	if err := os.WriteFile(inFile, pdf, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(inFile)
	defer os.Remove(outFile)

	conf := model.NewDefaultConfiguration()
	conf.Unit = types.POINTS
	desc := fmt.Sprintf("pos:tc, off:0 %s, rot:0",
		strconv.FormatFloat(-topOffset, 'f', -1, 64))

	if err := api.AddImageWatermarksFile(inFile, outFile, nil, true, imagePath, desc, conf); err != nil {
		return nil, fmt.Errorf("failed to watermark PDF: %w", err)
	}

	stamped, err := os.ReadFile(outFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read watermarked PDF: %w", err)
	}

	w.logger.Debug().
		Str("image", imagePath).
		Int("input_bytes", len(pdf)).
		Int("output_bytes", len(stamped)).
		Msg("Stamped watermark onto PDF")

	return stamped, nil
}

// checkImage stats each stamp image once per process
func (w *Watermarker) checkImage(imagePath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.validated[imagePath] {
		return nil
	}
	info, err := os.Stat(imagePath)
	if err != nil {
		return fmt.Errorf("watermark image %s is not readable: %w", imagePath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("watermark image %s is a directory", imagePath)
	}
	w.validated[imagePath] = true
	return nil
}

func (w *Watermarker) tempFiles() (string, string) {
	w.mu.Lock()
	w.sequence++
	n := w.sequence
	w.mu.Unlock()
	prefix := fmt.Sprintf("stamp_%d_%d", os.Getpid(), n)
	return filepath.Join(w.tempDir, prefix+"_in.pdf"),
		filepath.Join(w.tempDir, prefix+"_out.pdf")
}
