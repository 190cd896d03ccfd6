package models

import "time"

// Job is one row of the document_queue table
type Job struct {
	ID              int64                  `json:"id"`
	DocumentUUID    string                 `json:"document_uuid"`
	DocumentContext map[string]interface{} `json:"document_context"` // Render context handed to the pipeline
	CreatedBy       *string                `json:"created_by"`
	CreatedAt       time.Time              `json:"created_at"`
	AppUUID         string                 `json:"app_uuid"` // Tenant, NullAppUUID in single-tenant mode
}
