package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/ternarybob/scriba/internal/documents"
	"github.com/ternarybob/scriba/internal/filters"
	"github.com/ternarybob/scriba/internal/models"
)

const (
	optionTemplate    = "template"
	optionContentType = "content-type"
	optionExtension   = "extension"
)

// jinjaStep renders the root template file from the workspace with the
// document context and the asset helpers bound
type jinjaStep struct {
	producerStep
	env      *Env
	template *pongo2.Template
	output   documents.FileFormat
}

func newJinjaStep(step models.Step, env *Env) (Step, error) {
	rootFile := step.Option(optionTemplate, "")
	if rootFile == "" {
		return nil, fmt.Errorf("jinja step requires the %q option", optionTemplate)
	}
	contentType := step.Option(optionContentType, documents.FormatHTML.ContentType)
	extension := step.Option(optionExtension, documents.FormatHTML.Extension)

	filters.RegisterAll()

	// Template lookups stay inside the workspace directory
	loader, err := pongo2.NewLocalFileSystemLoader(env.Workspace.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace loader: %w", err)
	}
	template, err := pongo2.NewSet("workspace", loader).FromFile(rootFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %q: %w", rootFile, err)
	}

	return &jinjaStep{
		producerStep: producerStep{name: StepJinja},
		env:          env,
		template:     template,
		output:       resolveOutputFormat(contentType, extension),
	}, nil
}

func (s *jinjaStep) OutputFormat() *documents.FileFormat {
	format := s.output
	return &format
}

func (s *jinjaStep) ExecuteFirst(ctx context.Context, docContext map[string]interface{}) (*documents.DocumentFile, error) {
	rendered, err := s.template.ExecuteBytes(pongo2.Context{
		"ctx":        docContext,
		"assets":     s.env.Workspace.FetchAsset,
		"asset_path": s.env.Workspace.AssetPath,
		"find_reply": filters.FindReply,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return documents.NewDocumentFile(s.output, rendered), nil
}

// resolveOutputFormat maps the declared content type back onto the known
// format table so downstream seam checks compare canonical names; an
// unknown combination becomes an ad-hoc format
func resolveOutputFormat(contentType, extension string) documents.FileFormat {
	if format, ok := documents.LookupFormatByContentType(contentType); ok {
		return format
	}
	if format, ok := documents.LookupFormat(extension); ok && format.ContentType == contentType {
		return format
	}
	return documents.FileFormat{
		Name:        strings.ToLower(strings.TrimSpace(extension)),
		ContentType: contentType,
		Extension:   extension,
	}
}
