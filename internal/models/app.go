package models

import "time"

// AppConfig is the per-tenant policy row, overriding experimental defaults
type AppConfig struct {
	UUID            string   `json:"uuid"`
	PDFEnabled      bool     `json:"pdf_enabled"`       // Gate for PDF output formats
	JobTimeout      *int     `json:"job_timeout"`       // Seconds, nil = fall back to config
	PDFWatermark    *string  `json:"pdf_watermark"`     // Stamp image path, nil = fall back to config
	PDFWatermarkTop *float64 `json:"pdf_watermark_top"` // Points from the page top
}

// AppLimits caps a tenant's stored bytes
type AppLimits struct {
	UUID    string `json:"uuid"`
	Storage *int64 `json:"storage"` // Budget in bytes, nil = unlimited
}

// DefaultAppConfig applies when the tenant has no app_config row
func DefaultAppConfig(appUUID string) *AppConfig {
	return &AppConfig{UUID: appUUID, PDFEnabled: true}
}

// DefaultAppLimits applies when the tenant has no app_limit row
func DefaultAppLimits(appUUID string) *AppLimits {
	return &AppLimits{UUID: appUUID}
}

// JobTimeoutDuration returns the tenant override, 0 when unset
func (c *AppConfig) JobTimeoutDuration() time.Duration {
	if c.JobTimeout == nil {
		return 0
	}
	return time.Duration(*c.JobTimeout) * time.Second
}
