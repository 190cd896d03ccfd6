package limits

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/scriba/internal/documents"
	"github.com/ternarybob/scriba/internal/models"
)

// MaxDocumentBytes caps a single rendered document regardless of the
// tenant's storage budget.
const MaxDocumentBytes = 100 << 20 // 100 MiB

// Reason identifies which policy rejected the document
type Reason string

const (
	ReasonFormatNotAllowed Reason = "format-not-allowed"
	ReasonDocumentSize     Reason = "document-size"
	ReasonTenantStorage    Reason = "tenant-storage"
	ReasonTimeout          Reason = "timeout"
)

// LimitError reports a policy violation. The message is user-facing and
// ends up in the document row's worker log.
type LimitError struct {
	Reason  Reason
	Message string
}

func (e *LimitError) Error() string {
	return e.Message
}

// IsLimitError extracts a LimitError from an error chain
func IsLimitError(err error) (*LimitError, bool) {
	var limitErr *LimitError
	if errors.As(err, &limitErr) {
		return limitErr, true
	}
	return nil, false
}

// CheckFormatAllowed rejects PDF output when the tenant's app config
// forbids it. Runs before any rendering happens.
func CheckFormatAllowed(appConfig *models.AppConfig, output *documents.FileFormat) error {
	if output == nil {
		return nil
	}
	if output.Name == documents.FormatPDF.Name && !appConfig.PDFEnabled {
		return &LimitError{
			Reason:  ReasonFormatNotAllowed,
			Message: "PDF output is not enabled for this app",
		}
	}
	return nil
}

// CheckDocumentSize rejects documents over the per-document cap
func CheckDocumentSize(byteSize int64) error {
	if byteSize > MaxDocumentBytes {
		return &LimitError{
			Reason:  ReasonDocumentSize,
			Message: fmt.Sprintf("document size %d exceeds the per-document limit of %d bytes", byteSize, int64(MaxDocumentBytes)),
		}
	}
	return nil
}

// CheckTenantStorage rejects documents that would push the tenant's
// stored bytes past its budget. A nil budget is unlimited.
func CheckTenantStorage(appLimits *models.AppLimits, usedBytes, byteSize int64) error {
	if appLimits.Storage == nil {
		return nil
	}
	if usedBytes+byteSize > *appLimits.Storage {
		return &LimitError{
			Reason:  ReasonTenantStorage,
			Message: fmt.Sprintf("per-app storage limit exceeded: %d bytes used, %d requested, %d allowed", usedBytes, byteSize, *appLimits.Storage),
		}
	}
	return nil
}

// TimeoutFailure converts a job deadline expiry into the canonical
// timeout violation. Other errors pass through unchanged.
func TimeoutFailure(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &LimitError{
			Reason:  ReasonTimeout,
			Message: "document generation exceeded the configured job timeout",
		}
	}
	return err
}
