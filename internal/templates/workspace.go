package templates

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/models"
)

// Workspace is the materialized template directory of one job. Steps reach
// into it through the two template-visible lookups, FetchAsset and
// AssetPath; the coordinator removes it when the job terminates.
type Workspace struct {
	Dir string

	assets map[string]models.TemplateAsset
	logger arbor.ILogger
}

// FetchAsset loads an asset's bytes from the workspace, nil when the
// template has no asset of that name or its download was skipped
func (w *Workspace) FetchAsset(fileName string) *Asset {
	asset, ok := w.assets[fileName]
	if !ok {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(w.Dir, filepath.FromSlash(asset.FileName)))
	if err != nil {
		w.logger.Warn().Str("asset", fileName).Err(err).Msg("Failed to read asset from workspace")
		return nil
	}
	return &Asset{
		FileName:    asset.FileName,
		ContentType: asset.ContentType,
		Data:        data,
	}
}

// AssetPath returns the on-disk path of a workspace file for converters
// that resolve references themselves (wkhtmltopdf with the workspace
// whitelisted)
func (w *Workspace) AssetPath(fileName string) string {
	return filepath.Join(w.Dir, filepath.FromSlash(fileName))
}

// Remove deletes the workspace directory
func (w *Workspace) Remove() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("failed to remove workspace %s: %w", w.Dir, err)
	}
	return nil
}
