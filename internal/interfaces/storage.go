package interfaces

import "context"

// ObjectStorage persists rendered documents and serves template assets
type ObjectStorage interface {
	// EnsureBucket creates the configured bucket when it does not exist yet
	EnsureBucket(ctx context.Context) error
	// StoreDocument uploads rendered bytes under documents/<fileName>,
	// prefixed with the tenant UUID in multi-tenant mode
	StoreDocument(ctx context.Context, appUUID, fileName, contentType string, data []byte) error
	// DownloadFile fetches an object into localPath. A missing key returns
	// (false, nil); every other failure is an error.
	DownloadFile(ctx context.Context, key, localPath string) (bool, error)
}

// Watermarker stamps an image onto every page of a PDF
type Watermarker interface {
	Stamp(pdf []byte, imagePath string, topOffset float64) ([]byte, error)
}
