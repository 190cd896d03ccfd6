package models

import "time"

// DocumentState tracks a document through the generation lifecycle
type DocumentState string

const (
	// DocumentStateQueued means the document waits for a worker
	DocumentStateQueued DocumentState = "QueuedDocumentState"
	// DocumentStateProcessing means a worker picked the document up
	DocumentStateProcessing DocumentState = "InProgressDocumentState"
	// DocumentStateFailed is terminal, worker_log carries the reason
	DocumentStateFailed DocumentState = "ErrorDocumentState"
	// DocumentStateFinished is terminal, the artifact is in object storage
	DocumentStateFinished DocumentState = "DoneDocumentState"
)

// NullAppUUID marks single-tenant rows in every tenant-scoped table
const NullAppUUID = "00000000-0000-0000-0000-000000000000"

// Document is one row of the document table
type Document struct {
	UUID        string        `json:"uuid"`
	Name        string        `json:"name"`         // Display name chosen by the author
	State       DocumentState `json:"state"`        // Lifecycle state, see DocumentState
	TemplateID  string        `json:"template_id"`  // Composite "org:template:version" identifier
	FormatUUID  string        `json:"format_uuid"`  // Selects one of the template's formats
	CreatorUUID *string       `json:"creator_uuid"` // Author, nullable for system documents
	AppUUID     string        `json:"app_uuid"`     // Tenant, NullAppUUID in single-tenant mode
	RetrievedAt *time.Time    `json:"retrieved_at"` // Set when a worker picks the job up
	FinishedAt  *time.Time    `json:"finished_at"`  // Set on the terminal FINISHED transition
	CreatedAt   time.Time     `json:"created_at"`
	FileName    *string       `json:"file_name"`    // Stored object name, set on FINISHED
	ContentType *string       `json:"content_type"` // MIME type of the artifact
	FileSize    *int64        `json:"file_size"`    // Artifact size in bytes
	WorkerLog   *string       `json:"worker_log"`   // Human-readable processing log
}
