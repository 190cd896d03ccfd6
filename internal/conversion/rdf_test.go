package conversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/scriba/internal/documents"
)

const sampleNTriples = `<http://example.com/doc/1> <http://purl.org/dc/terms/title> "Quarterly Report" .
<http://example.com/doc/1> <http://purl.org/dc/terms/creator> <http://example.com/person/alice> .
`

func TestConvertGraphNTriplesToTurtle(t *testing.T) {
	out, err := ConvertGraph(documents.FormatNTriples, documents.FormatTurtle, []byte(sampleNTriples))
	require.NoError(t, err)
	// The Turtle body is the canonical N-Triples serialization
	assert.Contains(t, string(out), "<http://purl.org/dc/terms/title>")
	assert.Contains(t, string(out), `"Quarterly Report"`)
}

func TestConvertGraphTurtleRoundTrip(t *testing.T) {
	turtle, err := ConvertGraph(documents.FormatNTriples, documents.FormatTurtle, []byte(sampleNTriples))
	require.NoError(t, err)

	back, err := ConvertGraph(documents.FormatTurtle, documents.FormatNTriples, turtle)
	require.NoError(t, err)

	first, err := decodeGraph(documents.FormatNTriples, []byte(sampleNTriples))
	require.NoError(t, err)
	second, err := decodeGraph(documents.FormatNTriples, back)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
}

func TestConvertGraphToJSONLDAndBack(t *testing.T) {
	jsonld, err := ConvertGraph(documents.FormatNTriples, documents.FormatJSONLD, []byte(sampleNTriples))
	require.NoError(t, err)
	assert.Contains(t, string(jsonld), "http://example.com/doc/1")

	back, err := ConvertGraph(documents.FormatJSONLD, documents.FormatNTriples, jsonld)
	require.NoError(t, err)

	original, err := decodeGraph(documents.FormatNTriples, []byte(sampleNTriples))
	require.NoError(t, err)
	converted, err := decodeGraph(documents.FormatNTriples, back)
	require.NoError(t, err)
	assert.ElementsMatch(t, original, converted)
}

func TestConvertGraphToRDFXML(t *testing.T) {
	out, err := ConvertGraph(documents.FormatNTriples, documents.FormatRDFXML, []byte(sampleNTriples))
	require.NoError(t, err)

	xml := string(out)
	assert.Contains(t, xml, `<rdf:RDF`)
	assert.Contains(t, xml, `rdf:about="http://example.com/doc/1"`)
	assert.Contains(t, xml, "Quarterly Report")
	assert.Contains(t, xml, `rdf:resource="http://example.com/person/alice"`)

	// The emitted RDF/XML parses back into the same graph
	back, err := decodeGraph(documents.FormatRDFXML, out)
	require.NoError(t, err)
	original, err := decodeGraph(documents.FormatNTriples, []byte(sampleNTriples))
	require.NoError(t, err)
	assert.ElementsMatch(t, original, back)
}

func TestConvertGraphRejectsNonRDFFormats(t *testing.T) {
	_, err := ConvertGraph(documents.FormatHTML, documents.FormatNTriples, nil)
	assert.Error(t, err)

	_, err = ConvertGraph(documents.FormatNTriples, documents.FormatPDF, []byte(sampleNTriples))
	assert.Error(t, err)
}
