package documents

// DocumentFile is an in-memory artifact moving through a pipeline
type DocumentFile struct {
	Format FileFormat
	Data   []byte
}

// NewDocumentFile wraps rendered bytes with their format
func NewDocumentFile(format FileFormat, data []byte) *DocumentFile {
	return &DocumentFile{Format: format, Data: data}
}

// ByteSize returns the artifact size in bytes
func (f *DocumentFile) ByteSize() int64 {
	return int64(len(f.Data))
}

// ContentType returns the MIME type of the artifact
func (f *DocumentFile) ContentType() string {
	return f.Format.ContentType
}
