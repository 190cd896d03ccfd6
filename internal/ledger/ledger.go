package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/interfaces"
	"github.com/ternarybob/scriba/internal/models"
)

// NotificationChannel carries job-ready hints from the enqueuing service
const NotificationChannel = "document_queue_channel"

const (
	sqlListen = `LISTEN ` + NotificationChannel

	// The skip-locked read is what keeps concurrent workers off each
	// other's jobs: the row lock is held by the query transaction until
	// the document reaches a terminal state and the row is deleted.
	sqlSelectJob = `SELECT id, document_uuid, document_context, created_by, created_at, app_uuid
		FROM document_queue ORDER BY id LIMIT 1 FOR UPDATE SKIP LOCKED`
	sqlDeleteJob = `DELETE FROM document_queue WHERE id = $1`

	sqlSelectDocument = `SELECT uuid, name, state, template_id, format_uuid, creator_uuid, app_uuid,
		retrieved_at, finished_at, created_at, file_name, content_type, file_size, worker_log
		FROM document WHERE uuid = $1 AND app_uuid = $2 LIMIT 1`
	sqlUpdateDocumentState     = `UPDATE document SET state = $1, worker_log = $2 WHERE uuid = $3`
	sqlUpdateDocumentRetrieved = `UPDATE document SET retrieved_at = $1, state = $2 WHERE uuid = $3`
	sqlUpdateDocumentFinished  = `UPDATE document SET finished_at = $1, state = $2, file_name = $3,
		content_type = $4, file_size = $5, worker_log = $6 WHERE uuid = $7`
	sqlUsedStorage = `SELECT COALESCE(SUM(file_size), 0) FROM document
		WHERE app_uuid = $1 AND file_size IS NOT NULL`

	sqlSelectTemplate = `SELECT id, organization_id, template_id, version, name, metamodel_version, formats
		FROM template WHERE id = $1 AND app_uuid = $2 LIMIT 1`
	sqlSelectTemplateFiles = `SELECT template_id, uuid, file_name, content
		FROM template_file WHERE template_id = $1 AND app_uuid = $2`
	sqlSelectTemplateAssets = `SELECT template_id, uuid, file_name, content_type
		FROM template_asset WHERE template_id = $1 AND app_uuid = $2`

	sqlSelectAppConfig = `SELECT uuid, pdf_enabled, job_timeout, pdf_watermark, pdf_watermark_top
		FROM app_config WHERE uuid = $1 LIMIT 1`
	sqlSelectAppLimits = `SELECT uuid, storage FROM app_limit WHERE uuid = $1 LIMIT 1`
)

// Ledger owns the two long-lived Postgres connections: query (explicit
// transactions, holds the queue row lock) and queue (autocommit, carries
// LISTEN and the immediately visible retrieved-state update).
type Ledger struct {
	query  *connection
	queue  *connection
	logger arbor.ILogger

	tx pgx.Tx
	// listenConn is the queue connection that issued LISTEN. The queue
	// connection can be silently re-dialed by any autocommit operation,
	// so the subscription is tied to the connection identity, not a flag.
	listenConn *pgx.Conn
}

var _ interfaces.Ledger = (*Ledger)(nil)

// New prepares both ledger connections
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*Ledger, error) {
	ledger := &Ledger{
		query:  newConnection("query", config.Database.ConnectionString, config.Database.ConnectTimeout(), logger),
		queue:  newConnection("queue", config.Database.ConnectionString, config.Database.ConnectTimeout(), logger),
		logger: logger,
	}
	if _, err := ledger.query.ensure(ctx); err != nil {
		return nil, err
	}
	if _, err := ledger.queue.ensure(ctx); err != nil {
		return nil, err
	}
	return ledger, nil
}

// begin lazily opens the query-side transaction
func (l *Ledger) begin(ctx context.Context) (pgx.Tx, error) {
	if l.tx != nil {
		return l.tx, nil
	}
	conn, err := l.query.ensure(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := conn.Begin(ctx)
	if err != nil {
		l.query.reset(ctx)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	l.tx = tx
	return l.tx, nil
}

// resetQuery rolls the current transaction back and drops the query
// connection so the next attempt starts from a fresh dial
func (l *Ledger) resetQuery(ctx context.Context) {
	if l.tx != nil {
		_ = l.tx.Rollback(ctx)
		l.tx = nil
	}
	l.query.reset(ctx)
}

// runQuery is one attempt of a query-side operation. A failing attempt
// discards the transaction and its connection: retrying into a cached
// broken transaction would fail identically three times.
func (l *Ledger) runQuery(ctx context.Context, op func(tx pgx.Tx) error) error {
	tx, err := l.begin(ctx)
	if err != nil {
		return err
	}
	if err := op(tx); err != nil {
		l.resetQuery(ctx)
		return err
	}
	return nil
}

// withQueryRetry wraps runQuery in the query retry class
func (l *Ledger) withQueryRetry(ctx context.Context, label string, op func(tx pgx.Tx) error) error {
	return common.Retry(l.logger, label, common.QueryRetryBase, common.QueryRetryTries, func() error {
		return l.runQuery(ctx, op)
	})
}

// Commit ends the current query transaction; a no-op without one
func (l *Ledger) Commit(ctx context.Context) error {
	if l.tx == nil {
		return nil
	}
	err := l.tx.Commit(ctx)
	l.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback discards the current query transaction; a no-op without one
func (l *Ledger) Rollback(ctx context.Context) error {
	if l.tx == nil {
		return nil
	}
	err := l.tx.Rollback(ctx)
	l.tx = nil
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// Listen subscribes the queue connection to the notification channel.
// Safe to call every loop iteration: LISTEN is only re-issued when the
// connection was re-dialed since the last subscription.
func (l *Ledger) Listen(ctx context.Context) error {
	conn, err := l.queue.ensure(ctx)
	if err != nil {
		return err
	}
	if conn == l.listenConn && !conn.IsClosed() {
		return nil
	}
	if _, err := conn.Exec(ctx, sqlListen); err != nil {
		l.listenConn = nil
		l.queue.reset(ctx)
		return fmt.Errorf("failed to listen on %s: %w", NotificationChannel, err)
	}
	l.listenConn = conn
	l.logger.Info().Str("channel", NotificationChannel).Msg("Listening for queue notifications")
	return nil
}

// WaitForNotification blocks on the queue connection until a notification
// arrives or the timeout elapses. Both outcomes return nil; the caller
// re-drains either way. A broken connection returns an error.
func (l *Ledger) WaitForNotification(ctx context.Context, timeout time.Duration) error {
	conn, err := l.queue.ensure(ctx)
	if err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	notification, err := conn.WaitForNotification(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		l.listenConn = nil
		l.queue.reset(ctx)
		return fmt.Errorf("queue connection lost while waiting: %w", err)
	}

	l.logger.Debug().
		Str("channel", notification.Channel).
		Str("payload", notification.Payload).
		Msg("Queue notification received")
	return nil
}

// SelectNextJob locks and returns the next queue row, nil when the queue
// is empty. The lock lives until Commit or Rollback.
func (l *Ledger) SelectNextJob(ctx context.Context) (*models.Job, error) {
	var job *models.Job
	err := l.withQueryRetry(ctx, "select next job", func(tx pgx.Tx) error {
		var (
			j          models.Job
			contextRaw []byte
		)
		err := tx.QueryRow(ctx, sqlSelectJob).Scan(
			&j.ID, &j.DocumentUUID, &contextRaw, &j.CreatedBy, &j.CreatedAt, &j.AppUUID)
		if errors.Is(err, pgx.ErrNoRows) {
			job = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to select next job: %w", err)
		}
		if len(contextRaw) > 0 {
			if err := json.Unmarshal(contextRaw, &j.DocumentContext); err != nil {
				return fmt.Errorf("failed to parse document context of job %d: %w", j.ID, err)
			}
		}
		job = &j
		return nil
	})
	return job, err
}

// DeleteJob removes a processed queue row inside the job transaction
func (l *Ledger) DeleteJob(ctx context.Context, jobID int64) error {
	return l.withQueryRetry(ctx, "delete job", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, sqlDeleteJob, jobID); err != nil {
			return fmt.Errorf("failed to delete job %d: %w", jobID, err)
		}
		return nil
	})
}

// FetchDocument returns the document row, nil when no row matches
func (l *Ledger) FetchDocument(ctx context.Context, documentUUID, appUUID string) (*models.Document, error) {
	var document *models.Document
	err := l.withQueryRetry(ctx, "fetch document", func(tx pgx.Tx) error {
		var d models.Document
		err := tx.QueryRow(ctx, sqlSelectDocument, documentUUID, appUUID).Scan(
			&d.UUID, &d.Name, &d.State, &d.TemplateID, &d.FormatUUID, &d.CreatorUUID, &d.AppUUID,
			&d.RetrievedAt, &d.FinishedAt, &d.CreatedAt, &d.FileName, &d.ContentType, &d.FileSize, &d.WorkerLog)
		if errors.Is(err, pgx.ErrNoRows) {
			document = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to fetch document %s: %w", documentUUID, err)
		}
		document = &d
		return nil
	})
	return document, err
}

// FetchTemplate returns the template row with parsed formats, nil when absent
func (l *Ledger) FetchTemplate(ctx context.Context, templateID, appUUID string) (*models.Template, error) {
	var template *models.Template
	err := l.withQueryRetry(ctx, "fetch template", func(tx pgx.Tx) error {
		var (
			t          models.Template
			formatsRaw []byte
		)
		err := tx.QueryRow(ctx, sqlSelectTemplate, templateID, appUUID).Scan(
			&t.ID, &t.OrganizationID, &t.TemplateID, &t.Version, &t.Name, &t.MetamodelVersion, &formatsRaw)
		if errors.Is(err, pgx.ErrNoRows) {
			template = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to fetch template %s: %w", templateID, err)
		}
		formats, err := models.ParseFormats(formatsRaw)
		if err != nil {
			return fmt.Errorf("template %s: %w", templateID, err)
		}
		t.Formats = formats
		template = &t
		return nil
	})
	return template, err
}

// FetchTemplateFiles returns all text files of a template
func (l *Ledger) FetchTemplateFiles(ctx context.Context, templateID, appUUID string) ([]models.TemplateFile, error) {
	var files []models.TemplateFile
	err := l.withQueryRetry(ctx, "fetch template files", func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sqlSelectTemplateFiles, templateID, appUUID)
		if err != nil {
			return fmt.Errorf("failed to fetch files of template %s: %w", templateID, err)
		}
		defer rows.Close()

		files = files[:0]
		for rows.Next() {
			var f models.TemplateFile
			if err := rows.Scan(&f.TemplateID, &f.UUID, &f.FileName, &f.Content); err != nil {
				return fmt.Errorf("failed to scan template file: %w", err)
			}
			files = append(files, f)
		}
		return rows.Err()
	})
	return files, err
}

// FetchTemplateAssets returns all binary asset rows of a template
func (l *Ledger) FetchTemplateAssets(ctx context.Context, templateID, appUUID string) ([]models.TemplateAsset, error) {
	var assets []models.TemplateAsset
	err := l.withQueryRetry(ctx, "fetch template assets", func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sqlSelectTemplateAssets, templateID, appUUID)
		if err != nil {
			return fmt.Errorf("failed to fetch assets of template %s: %w", templateID, err)
		}
		defer rows.Close()

		assets = assets[:0]
		for rows.Next() {
			var a models.TemplateAsset
			if err := rows.Scan(&a.TemplateID, &a.UUID, &a.FileName, &a.ContentType); err != nil {
				return fmt.Errorf("failed to scan template asset: %w", err)
			}
			assets = append(assets, a)
		}
		return rows.Err()
	})
	return assets, err
}

// FetchAppConfig returns the tenant policy row, nil when the tenant has none
func (l *Ledger) FetchAppConfig(ctx context.Context, appUUID string) (*models.AppConfig, error) {
	var appConfig *models.AppConfig
	err := l.withQueryRetry(ctx, "fetch app config", func(tx pgx.Tx) error {
		var c models.AppConfig
		err := tx.QueryRow(ctx, sqlSelectAppConfig, appUUID).Scan(
			&c.UUID, &c.PDFEnabled, &c.JobTimeout, &c.PDFWatermark, &c.PDFWatermarkTop)
		if errors.Is(err, pgx.ErrNoRows) {
			appConfig = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to fetch app config %s: %w", appUUID, err)
		}
		appConfig = &c
		return nil
	})
	return appConfig, err
}

// FetchAppLimits returns the tenant storage budget row, nil when absent
func (l *Ledger) FetchAppLimits(ctx context.Context, appUUID string) (*models.AppLimits, error) {
	var appLimits *models.AppLimits
	err := l.withQueryRetry(ctx, "fetch app limits", func(tx pgx.Tx) error {
		var lim models.AppLimits
		err := tx.QueryRow(ctx, sqlSelectAppLimits, appUUID).Scan(&lim.UUID, &lim.Storage)
		if errors.Is(err, pgx.ErrNoRows) {
			appLimits = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to fetch app limits %s: %w", appUUID, err)
		}
		appLimits = &lim
		return nil
	})
	return appLimits, err
}

// UsedStorageBytes sums the stored document sizes of one tenant
func (l *Ledger) UsedStorageBytes(ctx context.Context, appUUID string) (int64, error) {
	var used int64
	err := l.withQueryRetry(ctx, "used storage", func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, sqlUsedStorage, appUUID).Scan(&used); err != nil {
			return fmt.Errorf("failed to sum used storage of %s: %w", appUUID, err)
		}
		return nil
	})
	return used, err
}

// UpdateDocumentRetrieved marks the document picked up. It runs on the
// autocommit queue connection so the PROCESSING state is visible to other
// readers while the job transaction is still open.
func (l *Ledger) UpdateDocumentRetrieved(ctx context.Context, documentUUID string, retrievedAt time.Time) error {
	return common.Retry(l.logger, "update document retrieved", common.QueryRetryBase, common.QueryRetryTries, func() error {
		conn, err := l.queue.ensure(ctx)
		if err != nil {
			return err
		}
		tag, err := conn.Exec(ctx, sqlUpdateDocumentRetrieved, retrievedAt, models.DocumentStateProcessing, documentUUID)
		if err != nil {
			// Drop the connection so the retry re-dials; Listen notices
			// the new connection and re-subscribes
			l.queue.reset(ctx)
			return fmt.Errorf("failed to mark document %s retrieved: %w", documentUUID, err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("document %s not updated to retrieved", documentUUID)
		}
		return nil
	})
}

// UpdateDocumentState sets the document state and worker log
func (l *Ledger) UpdateDocumentState(ctx context.Context, documentUUID string, state models.DocumentState, workerLog string) error {
	return l.withQueryRetry(ctx, "update document state", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sqlUpdateDocumentState, state, workerLog, documentUUID)
		if err != nil {
			return fmt.Errorf("failed to update state of document %s: %w", documentUUID, err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("document %s not updated to %s", documentUUID, state)
		}
		return nil
	})
}

// UpdateDocumentFinished records the terminal FINISHED row
func (l *Ledger) UpdateDocumentFinished(ctx context.Context, documentUUID string, finishedAt time.Time,
	fileName, contentType string, fileSize int64, workerLog string) error {
	return l.withQueryRetry(ctx, "update document finished", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sqlUpdateDocumentFinished,
			finishedAt, models.DocumentStateFinished, fileName, contentType, fileSize, workerLog, documentUUID)
		if err != nil {
			return fmt.Errorf("failed to finish document %s: %w", documentUUID, err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("document %s not updated to finished", documentUUID)
		}
		return nil
	})
}

// Close releases both connections
func (l *Ledger) Close() {
	ctx := context.Background()
	if l.tx != nil {
		_ = l.tx.Rollback(ctx)
		l.tx = nil
	}
	l.query.close(ctx)
	l.queue.close(ctx)
}
