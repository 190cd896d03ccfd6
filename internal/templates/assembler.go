package templates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/interfaces"
	"github.com/ternarybob/scriba/internal/models"
	"github.com/ternarybob/scriba/internal/storage"
)

// Assembler materializes template composites into per-job workspace
// directories under the worker's working directory
type Assembler struct {
	workdir     string
	storage     interfaces.ObjectStorage
	multiTenant bool
	logger      arbor.ILogger
}

// NewAssembler creates the assembler rooted at workdir
func NewAssembler(workdir string, objectStorage interfaces.ObjectStorage, multiTenant bool, logger arbor.ILogger) *Assembler {
	return &Assembler{
		workdir:     workdir,
		storage:     objectStorage,
		multiTenant: multiTenant,
		logger:      logger,
	}
}

// Assemble lays the template out on disk: text files are written as UTF-8,
// binary assets are fetched from object storage. A stale directory from a
// previous run is removed first. A missing asset is logged and skipped so
// one lost upload does not block every document of the template.
func (a *Assembler) Assemble(ctx context.Context, composite *models.TemplateComposite, appUUID string) (*Workspace, error) {
	template := composite.Template
	dir := filepath.Join(a.workdir, sanitizeTemplateID(template.ID))

	if _, err := os.Stat(dir); err == nil {
		a.logger.Debug().Str("dir", dir).Msg("Removing stale template workspace")
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to remove stale workspace %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}

	for _, file := range composite.Files {
		target := filepath.Join(dir, filepath.FromSlash(file.FileName))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", file.FileName, err)
		}
		if err := os.WriteFile(target, []byte(file.Content), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write template file %s: %w", file.FileName, err)
		}
	}

	assets := make(map[string]models.TemplateAsset, len(composite.Assets))
	for _, asset := range composite.Assets {
		key := storage.TemplateAssetKey(a.multiTenant, appUUID, template.ID, asset.UUID)
		target := filepath.Join(dir, filepath.FromSlash(asset.FileName))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for asset %s: %w", asset.FileName, err)
		}
		found, err := a.storage.DownloadFile(ctx, key, target)
		if err != nil {
			return nil, fmt.Errorf("failed to download asset %s: %w", asset.FileName, err)
		}
		if !found {
			a.logger.Warn().
				Str("template_id", template.ID).
				Str("asset", asset.FileName).
				Str("key", key).
				Msg("Template asset missing in object storage, skipping")
			continue
		}
		assets[asset.FileName] = asset
	}

	a.logger.Debug().
		Str("template_id", template.ID).
		Str("dir", dir).
		Int("files", len(composite.Files)).
		Int("assets", len(assets)).
		Msg("Template workspace assembled")

	return &Workspace{
		Dir:    dir,
		assets: assets,
		logger: a.logger,
	}, nil
}

// sanitizeTemplateID makes a composite template id usable as a directory
// name (the ':' separators are not portable across filesystems)
func sanitizeTemplateID(templateID string) string {
	return strings.ReplaceAll(templateID, ":", "_")
}
