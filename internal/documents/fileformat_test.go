package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupFormat(t *testing.T) {
	tests := []struct {
		name string
		want FileFormat
	}{
		{"json", FormatJSON},
		{"html", FormatHTML},
		{"pdf", FormatPDF},
		{"docx", FormatDOCX},
		{"markdown", FormatMarkdown},
		{"odt", FormatODT},
		{"rst", FormatRST},
		{"latex", FormatLaTeX},
		{"epub", FormatEPUB},
		{"docbook4", FormatDocBook4},
		{"docbook5", FormatDocBook5},
		{"pptx", FormatPPTX},
		{"rtf", FormatRTF},
		{"asciidoc", FormatAsciiDoc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LookupFormat(tt.name)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupFormatRDFAliases(t *testing.T) {
	tests := []struct {
		alias string
		want  FileFormat
	}{
		{"rdf", FormatRDFXML},
		{"rdf/xml", FormatRDFXML},
		{"rdfxml", FormatRDFXML},
		{"RDF/XML", FormatRDFXML},
		{"nt", FormatNTriples},
		{"ntriples", FormatNTriples},
		{"n-triples", FormatNTriples},
		{"ttl", FormatTurtle},
		{"turtle", FormatTurtle},
		{"n3", FormatN3},
		{"trig", FormatTriG},
		{"jsonld", FormatJSONLD},
		{"json-ld", FormatJSONLD},
	}
	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			got, ok := LookupFormat(tt.alias)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupFormatUnknown(t *testing.T) {
	_, ok := LookupFormat("wordperfect")
	assert.False(t, ok)

	_, ok = LookupFormat("")
	assert.False(t, ok)
}

func TestDocumentFile(t *testing.T) {
	file := NewDocumentFile(FormatMarkdown, []byte("# Title"))
	assert.Equal(t, int64(7), file.ByteSize())
	assert.Equal(t, "text/markdown", file.ContentType())
}
