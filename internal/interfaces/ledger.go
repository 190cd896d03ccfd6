package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/scriba/internal/models"
)

// Ledger is the Postgres-backed job queue and document store.
//
// Queue operations (SelectNextJob, DeleteJob, the document state updates
// and Commit/Rollback) share one explicit transaction per job so that the
// queue row lock is held until the document reaches a terminal state.
// UpdateDocumentRetrieved runs in autocommit and is visible immediately.
type Ledger interface {
	Listen(ctx context.Context) error
	WaitForNotification(ctx context.Context, timeout time.Duration) error
	SelectNextJob(ctx context.Context) (*models.Job, error)
	DeleteJob(ctx context.Context, jobID int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	FetchDocument(ctx context.Context, documentUUID, appUUID string) (*models.Document, error)
	FetchTemplate(ctx context.Context, templateID, appUUID string) (*models.Template, error)
	FetchTemplateFiles(ctx context.Context, templateID, appUUID string) ([]models.TemplateFile, error)
	FetchTemplateAssets(ctx context.Context, templateID, appUUID string) ([]models.TemplateAsset, error)
	FetchAppConfig(ctx context.Context, appUUID string) (*models.AppConfig, error)
	FetchAppLimits(ctx context.Context, appUUID string) (*models.AppLimits, error)
	UsedStorageBytes(ctx context.Context, appUUID string) (int64, error)

	UpdateDocumentRetrieved(ctx context.Context, documentUUID string, retrievedAt time.Time) error
	UpdateDocumentState(ctx context.Context, documentUUID string, state models.DocumentState, workerLog string) error
	UpdateDocumentFinished(ctx context.Context, documentUUID string, finishedAt time.Time, fileName, contentType string, fileSize int64, workerLog string) error

	Close()
}
