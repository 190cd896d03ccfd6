package models

import (
	"encoding/json"
	"fmt"
)

// Template is one row of the template table
type Template struct {
	ID               string   `json:"id"` // Composite "org:template:version" identifier
	OrganizationID   string   `json:"organization_id"`
	TemplateID       string   `json:"template_id"` // Short name within the organization
	Version          string   `json:"version"`
	Name             string   `json:"name"`
	MetamodelVersion int      `json:"metamodel_version"`
	Formats          []Format `json:"formats"`
}

// TemplateFile is a text file belonging to a template
type TemplateFile struct {
	TemplateID string `json:"template_id"`
	UUID       string `json:"uuid"`
	FileName   string `json:"file_name"` // Relative path inside the workspace
	Content    string `json:"content"`   // UTF-8 text
}

// TemplateAsset is a binary file stored in object storage
type TemplateAsset struct {
	TemplateID  string `json:"template_id"`
	UUID        string `json:"uuid"` // Object key component under templates/<id>/
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// TemplateComposite bundles a template row with its files and assets
type TemplateComposite struct {
	Template *Template
	Files    []TemplateFile
	Assets   []TemplateAsset
}

// FindFormat returns the template format with the given UUID, nil if absent
func (t *Template) FindFormat(formatUUID string) *Format {
	for i := range t.Formats {
		if t.Formats[i].UUID == formatUUID {
			return &t.Formats[i]
		}
	}
	return nil
}

// ParseFormats decodes the template.formats JSONB column
func ParseFormats(data []byte) ([]Format, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var formats []Format
	if err := json.Unmarshal(data, &formats); err != nil {
		return nil, fmt.Errorf("failed to parse template formats: %w", err)
	}
	return formats, nil
}
