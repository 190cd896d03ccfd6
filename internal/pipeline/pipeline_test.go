package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/conversion"
	"github.com/ternarybob/scriba/internal/documents"
	"github.com/ternarybob/scriba/internal/models"
	"github.com/ternarybob/scriba/internal/templates"
)

type nopStorage struct{}

func (nopStorage) EnsureBucket(ctx context.Context) error {
	return nil
}

func (nopStorage) StoreDocument(ctx context.Context, appUUID, fileName, contentType string, data []byte) error {
	return nil
}

func (nopStorage) DownloadFile(ctx context.Context, key, localPath string) (bool, error) {
	return false, nil
}

// testEnv materializes a workspace with the given text files and wires
// the default converter drivers
func testEnv(t *testing.T, files map[string]string) *Env {
	t.Helper()

	composite := &models.TemplateComposite{Template: &models.Template{ID: "org:test:1.0.0"}}
	for name, content := range files {
		composite.Files = append(composite.Files, models.TemplateFile{FileName: name, Content: content})
	}

	logger := common.GetLogger()
	assembler := templates.NewAssembler(t.TempDir(), nopStorage{}, false, logger)
	workspace, err := assembler.Assemble(context.Background(), composite, models.NullAppUUID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = workspace.Remove() })

	config := common.NewDefaultConfig()
	pandoc, err := conversion.NewPandoc(config.Externals.Pandoc, logger)
	require.NoError(t, err)
	wkhtmltopdf, err := conversion.NewWkHtmlToPdf(config.Externals.Wkhtmltopdf, logger)
	require.NoError(t, err)
	prince, err := conversion.NewPrince(config.Externals.Prince, logger)
	require.NoError(t, err)

	return &Env{
		Workspace:   workspace,
		Config:      config,
		Logger:      logger,
		Pandoc:      pandoc,
		WkHtmlToPdf: wkhtmltopdf,
		Prince:      prince,
	}
}

func TestJSONStepCanonicalBytes(t *testing.T) {
	env := testEnv(t, nil)
	pipe, err := Build(&models.Format{
		UUID:  "f1",
		Name:  "json export",
		Steps: []models.Step{{Name: StepJSON}},
	}, env)
	require.NoError(t, err)

	doc, err := pipe.Execute(context.Background(), map[string]interface{}{"b": 2, "a": 1})
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}", string(doc.Data))
	assert.Equal(t, "application/json", doc.ContentType())
	assert.Equal(t, "json", doc.Format.Extension)

	// Decode and re-encode reproduces the stored bytes
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(doc.Data, &decoded))
	again, err := marshalContext(decoded)
	require.NoError(t, err)
	assert.Equal(t, doc.Data, again)
}

func TestJSONStepKeepsHTMLUnescaped(t *testing.T) {
	env := testEnv(t, nil)
	pipe, err := Build(&models.Format{Steps: []models.Step{{Name: StepJSON}}}, env)
	require.NoError(t, err)

	doc, err := pipe.Execute(context.Background(), map[string]interface{}{"html": "<b>&</b>"})
	require.NoError(t, err)
	assert.Contains(t, string(doc.Data), "<b>&</b>")
}

func TestJinjaStepRendersWithContext(t *testing.T) {
	env := testEnv(t, map[string]string{
		"main.html.j2": "<h1>{{ ctx.name }}</h1>",
	})
	pipe, err := Build(&models.Format{
		Steps: []models.Step{{Name: StepJinja, Options: map[string]string{"template": "main.html.j2"}}},
	}, env)
	require.NoError(t, err)

	doc, err := pipe.Execute(context.Background(), map[string]interface{}{"name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Alice</h1>", string(doc.Data))
	assert.Equal(t, documents.FormatHTML, doc.Format)
}

func TestJinjaStepAssetHelpers(t *testing.T) {
	env := testEnv(t, map[string]string{
		"main.html.j2": `<img src="{{ asset_path("logo.png") }}"/>`,
	})
	pipe, err := Build(&models.Format{
		Steps: []models.Step{{Name: StepJinja, Options: map[string]string{"template": "main.html.j2"}}},
	}, env)
	require.NoError(t, err)

	doc, err := pipe.Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	assert.Contains(t, string(doc.Data), env.Workspace.AssetPath("logo.png"))
}

func TestJinjaStepResolvesDeclaredFormat(t *testing.T) {
	env := testEnv(t, map[string]string{"m.md.j2": "# {{ ctx.title }}"})
	pipe, err := Build(&models.Format{
		Steps: []models.Step{{
			Name: StepJinja,
			Options: map[string]string{
				"template":     "m.md.j2",
				"extension":    "md",
				"content-type": "text/markdown",
			},
		}},
	}, env)
	require.NoError(t, err)

	// text/markdown resolves onto the canonical markdown entry so a
	// following pandoc step accepts the seam
	output := pipe.OutputFormat()
	require.NotNil(t, output)
	assert.Equal(t, documents.FormatMarkdown, *output)
}

func TestJinjaStepRequiresTemplateOption(t *testing.T) {
	env := testEnv(t, nil)
	_, err := Build(&models.Format{Steps: []models.Step{{Name: StepJinja}}}, env)
	assert.Error(t, err)
}

func TestJinjaStepMissingRootFile(t *testing.T) {
	env := testEnv(t, nil)
	_, err := Build(&models.Format{
		Steps: []models.Step{{Name: StepJinja, Options: map[string]string{"template": "nope.j2"}}},
	}, env)
	assert.Error(t, err)
}

func TestBuildRejectsUnknownStep(t *testing.T) {
	env := testEnv(t, nil)
	_, err := Build(&models.Format{Name: "broken", Steps: []models.Step{{Name: "imagemagick"}}}, env)
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestBuildRejectsEmptyFormat(t *testing.T) {
	env := testEnv(t, nil)
	_, err := Build(&models.Format{Name: "empty"}, env)
	assert.Error(t, err)
}

func TestProducerRejectsFollowPosition(t *testing.T) {
	env := testEnv(t, nil)
	step, err := newJSONStep(models.Step{Name: StepJSON}, env)
	require.NoError(t, err)

	_, err = step.ExecuteFollow(context.Background(), documents.NewDocumentFile(documents.FormatHTML, nil))
	assert.ErrorIs(t, err, ErrStepInvariant)
}

func TestTransformersRejectFirstPosition(t *testing.T) {
	env := testEnv(t, nil)
	steps := []models.Step{
		{Name: StepPandoc, Options: map[string]string{"from": "markdown", "to": "docx"}},
		{Name: StepWkHtmlToPdf},
		{Name: StepPrince},
		{Name: StepRDF, Options: map[string]string{"from": "nt", "to": "ttl"}},
	}
	for _, descriptor := range steps {
		step, err := registry[descriptor.Name](descriptor, env)
		require.NoError(t, err, descriptor.Name)

		_, err = step.ExecuteFirst(context.Background(), map[string]interface{}{})
		assert.ErrorIs(t, err, ErrStepInvariant, descriptor.Name)
	}
}

func TestTransformerChecksSeamFormat(t *testing.T) {
	env := testEnv(t, nil)
	step, err := newRDFStep(models.Step{
		Name:    StepRDF,
		Options: map[string]string{"from": "nt", "to": "ttl"},
	}, env)
	require.NoError(t, err)

	_, err = step.ExecuteFollow(context.Background(), documents.NewDocumentFile(documents.FormatHTML, nil))
	assert.ErrorIs(t, err, ErrStepInvariant)
}

func TestPandocStepValidatesFormats(t *testing.T) {
	env := testEnv(t, nil)

	_, err := newPandocStep(models.Step{
		Name:    StepPandoc,
		Options: map[string]string{"from": "pdf", "to": "docx"},
	}, env)
	assert.Error(t, err, "pdf is not a pandoc input")

	_, err = newPandocStep(models.Step{
		Name:    StepPandoc,
		Options: map[string]string{"from": "markdown", "to": "pptx"},
	}, env)
	assert.Error(t, err, "pptx is not a pandoc output")

	_, err = newPandocStep(models.Step{
		Name:    StepPandoc,
		Options: map[string]string{"from": "markdown", "to": "asciidoc"},
	}, env)
	assert.NoError(t, err, "asciidoc is a write-only pandoc format")
}

func TestRDFStepAcceptsAliases(t *testing.T) {
	env := testEnv(t, nil)
	step, err := newRDFStep(models.Step{
		Name:    StepRDF,
		Options: map[string]string{"from": "n-triples", "to": "json-ld"},
	}, env)
	require.NoError(t, err)
	assert.Equal(t, documents.FormatJSONLD, *step.OutputFormat())
}

func TestPipelineJinjaToRDF(t *testing.T) {
	env := testEnv(t, map[string]string{
		"graph.nt.j2": `<http://example.com/{{ ctx.id }}> <http://purl.org/dc/terms/title> "{{ ctx.title }}" .` + "\n",
	})
	pipe, err := Build(&models.Format{
		Name: "turtle export",
		Steps: []models.Step{
			{Name: StepJinja, Options: map[string]string{
				"template":     "graph.nt.j2",
				"extension":    "nt",
				"content-type": "application/n-triples",
			}},
			{Name: StepRDF, Options: map[string]string{"from": "nt", "to": "ttl"}},
		},
	}, env)
	require.NoError(t, err)

	doc, err := pipe.Execute(context.Background(), map[string]interface{}{"id": "doc1", "title": "Report"})
	require.NoError(t, err)
	assert.Equal(t, documents.FormatTurtle, doc.Format)
	assert.Contains(t, string(doc.Data), "http://example.com/doc1")
}

func TestPipelineOutputFormat(t *testing.T) {
	env := testEnv(t, map[string]string{"main.html.j2": "<p/>"})
	pipe, err := Build(&models.Format{
		Steps: []models.Step{
			{Name: StepJinja, Options: map[string]string{"template": "main.html.j2"}},
			{Name: StepWkHtmlToPdf},
		},
	}, env)
	require.NoError(t, err)

	output := pipe.OutputFormat()
	require.NotNil(t, output)
	assert.Equal(t, documents.FormatPDF, *output)
}
