package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/conversion"
	"github.com/ternarybob/scriba/internal/documents"
	"github.com/ternarybob/scriba/internal/interfaces"
	"github.com/ternarybob/scriba/internal/limits"
	"github.com/ternarybob/scriba/internal/models"
	"github.com/ternarybob/scriba/internal/pipeline"
	"github.com/ternarybob/scriba/internal/templates"
)

// Coordinator drives one job through the document state machine. Every
// failure between pickup and the terminal update routes the document to
// FAILED with a structured message; the queue row is handled by the
// listener regardless of the outcome.
type Coordinator struct {
	ledger      interfaces.Ledger
	storage     interfaces.ObjectStorage
	assembler   *templates.Assembler
	watermarker interfaces.Watermarker
	pandoc      *conversion.Pandoc
	wkhtmltopdf *conversion.WkHtmlToPdf
	prince      *conversion.Prince
	config      *common.Config
	logger      arbor.ILogger
}

// NewCoordinator wires the process-wide collaborators for job processing
func NewCoordinator(ledger interfaces.Ledger, storage interfaces.ObjectStorage, assembler *templates.Assembler,
	watermarker interfaces.Watermarker, pandoc *conversion.Pandoc, wkhtmltopdf *conversion.WkHtmlToPdf,
	prince *conversion.Prince, config *common.Config, logger arbor.ILogger) *Coordinator {
	return &Coordinator{
		ledger:      ledger,
		storage:     storage,
		assembler:   assembler,
		watermarker: watermarker,
		pandoc:      pandoc,
		wkhtmltopdf: wkhtmltopdf,
		prince:      prince,
		config:      config,
		logger:      logger,
	}
}

// preparation is the per-job state assembled before rendering starts
type preparation struct {
	pipeline  *pipeline.Pipeline
	workspace *templates.Workspace
}

// ProcessJob runs the state machine for one dequeued job. It never
// returns an error: per-job failures end in the document row, not in the
// queue loop.
func (c *Coordinator) ProcessJob(ctx context.Context, job *models.Job) {
	log := c.logger.WithCorrelationId(uuid.NewString())
	report := &workerLog{}

	log.Info().
		Int64("job_id", job.ID).
		Str("document_uuid", job.DocumentUUID).
		Str("app_uuid", job.AppUUID).
		Msg("Processing job")

	document, err := c.ledger.FetchDocument(ctx, job.DocumentUUID, job.AppUUID)
	if err != nil {
		// Without a readable document row there is nothing to mark FAILED
		log.Error().Err(err).Str("document_uuid", job.DocumentUUID).Msg("Failed to fetch document for job")
		return
	}
	if document == nil {
		log.Warn().Str("document_uuid", job.DocumentUUID).Msg("Job references a missing document, dropping")
		return
	}
	if document.State == models.DocumentStateFinished {
		// A second delivery of the same document is a no-op: the artifact
		// is already in object storage
		log.Info().Str("document_uuid", document.UUID).Msg("Document already finished, nothing to do")
		return
	}

	report.add("job %d picked up for document %s", job.ID, document.UUID)

	if err := c.process(ctx, job, document, log, report); err != nil {
		c.fail(ctx, document, err, log, report)
		return
	}

	log.Info().Str("document_uuid", document.UUID).Msg("Document finished")
}

func (c *Coordinator) process(ctx context.Context, job *models.Job, document *models.Document,
	log arbor.ILogger, report *workerLog) error {

	if err := c.ledger.UpdateDocumentRetrieved(ctx, document.UUID, time.Now().UTC()); err != nil {
		return jobErrorf(err, "failed to mark document as being processed")
	}
	report.add("document state set to processing")

	appConfig, appLimits, err := c.tenantPolicy(ctx, document.AppUUID)
	if err != nil {
		return err
	}

	jobCtx, cancel := c.jobContext(ctx, appConfig)
	defer cancel()

	var workspace *templates.Workspace
	defer func() {
		if workspace == nil {
			return
		}
		if err := workspace.Remove(); err != nil {
			log.Warn().Err(err).Msg("Failed to remove job workspace")
		}
	}()

	prep, err := c.prepareTemplate(jobCtx, document, log, report)
	if prep != nil {
		workspace = prep.workspace
	}
	if err != nil {
		return limits.TimeoutFailure(err)
	}

	if err := limits.CheckFormatAllowed(appConfig, prep.pipeline.OutputFormat()); err != nil {
		return err
	}

	final, err := c.buildDocument(jobCtx, job, document, prep, appConfig, appLimits, report)
	if err != nil {
		return limits.TimeoutFailure(err)
	}

	if err := c.storeDocument(jobCtx, document, final, report); err != nil {
		return limits.TimeoutFailure(err)
	}

	return c.finalize(ctx, document, final, report)
}

// tenantPolicy loads the per-tenant config and limits rows, falling back
// to the defaults when the tenant has none
func (c *Coordinator) tenantPolicy(ctx context.Context, appUUID string) (*models.AppConfig, *models.AppLimits, error) {
	appConfig, err := c.ledger.FetchAppConfig(ctx, appUUID)
	if err != nil {
		return nil, nil, jobErrorf(err, "failed to load app configuration")
	}
	if appConfig == nil {
		appConfig = models.DefaultAppConfig(appUUID)
	}

	appLimits, err := c.ledger.FetchAppLimits(ctx, appUUID)
	if err != nil {
		return nil, nil, jobErrorf(err, "failed to load app limits")
	}
	if appLimits == nil {
		appLimits = models.DefaultAppLimits(appUUID)
	}
	return appConfig, appLimits, nil
}

// jobContext derives the wall-clock deadline: the tenant override wins
// over the worker default, zero means unlimited
func (c *Coordinator) jobContext(ctx context.Context, appConfig *models.AppConfig) (context.Context, context.CancelFunc) {
	timeout := c.config.Experimental.JobTimeoutDuration()
	if appConfig.JobTimeout != nil {
		timeout = appConfig.JobTimeoutDuration()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// prepareTemplate materializes the template and builds the step pipeline.
// The workspace is returned even on error so the caller can clean it up.
func (c *Coordinator) prepareTemplate(ctx context.Context, document *models.Document,
	log arbor.ILogger, report *workerLog) (*preparation, error) {

	template, err := c.ledger.FetchTemplate(ctx, document.TemplateID, document.AppUUID)
	if err != nil {
		return nil, jobErrorf(err, "failed to load template %s", document.TemplateID)
	}
	if template == nil {
		return nil, jobErrorf(nil, "template %s not found", document.TemplateID)
	}

	files, err := c.ledger.FetchTemplateFiles(ctx, document.TemplateID, document.AppUUID)
	if err != nil {
		return nil, jobErrorf(err, "failed to load files of template %s", document.TemplateID)
	}
	assets, err := c.ledger.FetchTemplateAssets(ctx, document.TemplateID, document.AppUUID)
	if err != nil {
		return nil, jobErrorf(err, "failed to load assets of template %s", document.TemplateID)
	}

	composite := &models.TemplateComposite{Template: template, Files: files, Assets: assets}
	workspace, err := c.assembler.Assemble(ctx, composite, document.AppUUID)
	if err != nil {
		return nil, jobErrorf(err, "failed to materialize template %s", document.TemplateID)
	}
	report.add("template %s assembled with %d files and %d assets", template.ID, len(files), len(assets))

	prep := &preparation{workspace: workspace}

	format := template.FindFormat(document.FormatUUID)
	if format == nil {
		return prep, jobErrorf(nil, "format %s not found on template %s", document.FormatUUID, document.TemplateID)
	}

	prep.pipeline, err = pipeline.Build(format, &pipeline.Env{
		Workspace:   workspace,
		Config:      c.config,
		Logger:      log,
		Pandoc:      c.pandoc,
		WkHtmlToPdf: c.wkhtmltopdf,
		Prince:      c.prince,
	})
	if err != nil {
		return prep, jobErrorf(err, "failed to prepare format %q", format.Name)
	}
	report.add("format %q prepared with %d steps", format.Name, len(format.Steps))

	return prep, nil
}

// buildDocument renders the pipeline, enforces the post-render limits and
// stamps the watermark onto PDF output
func (c *Coordinator) buildDocument(ctx context.Context, job *models.Job, document *models.Document,
	prep *preparation, appConfig *models.AppConfig, appLimits *models.AppLimits,
	report *workerLog) (*documents.DocumentFile, error) {

	final, err := prep.pipeline.Execute(ctx, job.DocumentContext)
	if err != nil {
		return nil, err
	}
	report.add("pipeline produced %d bytes of %s", final.ByteSize(), final.Format.Name)

	if err := limits.CheckDocumentSize(final.ByteSize()); err != nil {
		return nil, err
	}
	used, err := c.ledger.UsedStorageBytes(ctx, document.AppUUID)
	if err != nil {
		return nil, jobErrorf(err, "failed to determine used storage")
	}
	if err := limits.CheckTenantStorage(appLimits, used, final.ByteSize()); err != nil {
		return nil, err
	}

	if final.Format.Name == documents.FormatPDF.Name {
		image, top := c.watermarkPolicy(appConfig)
		if image != "" {
			stamped, err := c.watermarker.Stamp(final.Data, image, top)
			if err != nil {
				return nil, jobErrorf(err, "failed to watermark the document")
			}
			final = documents.NewDocumentFile(final.Format, stamped)
			report.add("watermark stamped onto %d pages worth of output", len(stamped))
		}
	}

	return final, nil
}

// watermarkPolicy resolves the stamp image and offset: tenant rows
// override the experimental worker defaults field by field
func (c *Coordinator) watermarkPolicy(appConfig *models.AppConfig) (string, float64) {
	image := c.config.Experimental.PDFWatermark
	top := c.config.Experimental.PDFWatermarkTop
	if appConfig.PDFWatermark != nil {
		image = *appConfig.PDFWatermark
	}
	if appConfig.PDFWatermarkTop != nil {
		top = *appConfig.PDFWatermarkTop
	}
	return image, top
}

// storeDocument uploads the artifact under documents/<uuid>
func (c *Coordinator) storeDocument(ctx context.Context, document *models.Document,
	final *documents.DocumentFile, report *workerLog) error {

	if err := c.storage.EnsureBucket(ctx); err != nil {
		return jobErrorf(err, "failed to prepare object storage")
	}
	if err := c.storage.StoreDocument(ctx, document.AppUUID, document.UUID, final.ContentType(), final.Data); err != nil {
		return jobErrorf(err, "failed to store the document")
	}
	report.add("document stored (%d bytes, %s)", final.ByteSize(), final.ContentType())
	return nil
}

// finalize derives the display file name and records the terminal
// FINISHED row
func (c *Coordinator) finalize(ctx context.Context, document *models.Document,
	final *documents.DocumentFile, report *workerLog) error {

	fileName := documents.FileName(c.config.Documents.Naming.Strategy, document.Name, document.UUID, final.Format)
	report.add("document finished as %s", fileName)

	err := c.ledger.UpdateDocumentFinished(ctx, document.UUID, time.Now().UTC(),
		fileName, final.ContentType(), final.ByteSize(), report.String())
	if err != nil {
		return jobErrorf(err, "failed to record the finished document")
	}
	return nil
}

// fail routes the document to FAILED. A failure of even that update is
// logged and swallowed so the listener still deletes the queue row.
func (c *Coordinator) fail(ctx context.Context, document *models.Document, jobErr error,
	log arbor.ILogger, report *workerLog) {

	message := dbMessage(jobErr)
	report.add("failed: %s", message)

	log.Error().
		Err(jobErr).
		Str("document_uuid", document.UUID).
		Msg(fmt.Sprintf("Document generation failed: %s", message))

	if err := c.ledger.UpdateDocumentState(ctx, document.UUID, models.DocumentStateFailed, report.String()); err != nil {
		log.Error().Err(err).Str("document_uuid", document.UUID).Msg("Failed to record the FAILED state")
	}
}
