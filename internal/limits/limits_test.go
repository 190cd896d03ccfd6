package limits

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/scriba/internal/documents"
	"github.com/ternarybob/scriba/internal/models"
)

func TestCheckFormatAllowed(t *testing.T) {
	pdf := documents.FormatPDF
	html := documents.FormatHTML

	enabled := models.DefaultAppConfig(models.NullAppUUID)
	assert.NoError(t, CheckFormatAllowed(enabled, &pdf))

	disabled := &models.AppConfig{UUID: "a1", PDFEnabled: false}
	err := CheckFormatAllowed(disabled, &pdf)
	require.Error(t, err)
	limitErr, ok := IsLimitError(err)
	require.True(t, ok)
	assert.Equal(t, ReasonFormatNotAllowed, limitErr.Reason)

	assert.NoError(t, CheckFormatAllowed(disabled, &html))
	assert.NoError(t, CheckFormatAllowed(disabled, nil), "unknown output format is not gated")
}

func TestCheckDocumentSize(t *testing.T) {
	assert.NoError(t, CheckDocumentSize(0))
	assert.NoError(t, CheckDocumentSize(MaxDocumentBytes))

	err := CheckDocumentSize(MaxDocumentBytes + 1)
	require.Error(t, err)
	limitErr, ok := IsLimitError(err)
	require.True(t, ok)
	assert.Equal(t, ReasonDocumentSize, limitErr.Reason)
}

func TestCheckTenantStorage(t *testing.T) {
	unlimited := models.DefaultAppLimits("a1")
	assert.NoError(t, CheckTenantStorage(unlimited, 1<<40, 1<<40))

	budget := int64(100)
	capped := &models.AppLimits{UUID: "a1", Storage: &budget}

	// 90 used + 10 requested fits exactly
	assert.NoError(t, CheckTenantStorage(capped, 90, 10))

	err := CheckTenantStorage(capped, 90, 50)
	require.Error(t, err)
	limitErr, ok := IsLimitError(err)
	require.True(t, ok)
	assert.Equal(t, ReasonTenantStorage, limitErr.Reason)
	assert.Contains(t, limitErr.Message, "storage limit")
}

func TestTimeoutFailure(t *testing.T) {
	err := TimeoutFailure(context.DeadlineExceeded)
	limitErr, ok := IsLimitError(err)
	require.True(t, ok)
	assert.Equal(t, ReasonTimeout, limitErr.Reason)

	// Wrapped deadline errors convert too
	wrapped := TimeoutFailure(errors.Join(errors.New("pandoc"), context.DeadlineExceeded))
	_, ok = IsLimitError(wrapped)
	assert.True(t, ok)

	other := errors.New("connection refused")
	assert.Same(t, other, TimeoutFailure(other))
}
