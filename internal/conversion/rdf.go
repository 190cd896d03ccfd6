package conversion

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/knakk/rdf"
	"github.com/piprate/json-gold/ld"

	"github.com/ternarybob/scriba/internal/documents"
)

// In-process RDF graph conversion: decode the source syntax into triples,
// re-encode in the target syntax. No subprocess involved.

const nquadsMime = "application/n-quads"

// ConvertGraph parses input bytes tagged with the source format and
// serializes the graph in the target format. Formats are the canonical
// RDF entries of the FileFormat table (nt, ttl, n3, trig, rdf, jsonld).
func ConvertGraph(from, to documents.FileFormat, input []byte) ([]byte, error) {
	triples, err := decodeGraph(from, input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s input: %w", from.Name, err)
	}
	output, err := encodeGraph(to, triples)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize graph as %s: %w", to.Name, err)
	}
	return output, nil
}

func decodeGraph(format documents.FileFormat, input []byte) ([]rdf.Triple, error) {
	switch format.Name {
	case documents.FormatNTriples.Name:
		return rdf.NewTripleDecoder(bytes.NewReader(input), rdf.NTriples).DecodeAll()
	case documents.FormatTurtle.Name, documents.FormatN3.Name, documents.FormatTriG.Name:
		// N3 and default-graph TriG documents are valid Turtle, which is
		// the only shape the pipeline produces
		return rdf.NewTripleDecoder(bytes.NewReader(input), rdf.Turtle).DecodeAll()
	case documents.FormatRDFXML.Name:
		return rdf.NewTripleDecoder(bytes.NewReader(input), rdf.RDFXML).DecodeAll()
	case documents.FormatJSONLD.Name:
		return decodeJSONLD(input)
	}
	return nil, fmt.Errorf("unsupported RDF source format %q", format.Name)
}

func encodeGraph(format documents.FileFormat, triples []rdf.Triple) ([]byte, error) {
	switch format.Name {
	case documents.FormatNTriples.Name, documents.FormatTurtle.Name,
		documents.FormatN3.Name, documents.FormatTriG.Name:
		// An N-Triples body is valid Turtle, N3 and TriG
		return encodeNTriples(triples)
	case documents.FormatRDFXML.Name:
		return encodeRDFXML(triples)
	case documents.FormatJSONLD.Name:
		return encodeJSONLD(triples)
	}
	return nil, fmt.Errorf("unsupported RDF target format %q", format.Name)
}

func encodeNTriples(triples []rdf.Triple) ([]byte, error) {
	var buf bytes.Buffer
	enc := rdf.NewTripleEncoder(&buf, rdf.NTriples)
	for _, triple := range triples {
		if err := enc.Encode(triple); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeJSONLD(input []byte) ([]rdf.Triple, error) {
	var document interface{}
	if err := json.Unmarshal(input, &document); err != nil {
		return nil, err
	}

	options := ld.NewJsonLdOptions("")
	options.Format = nquadsMime
	dataset, err := ld.NewJsonLdProcessor().ToRDF(document, options)
	if err != nil {
		return nil, err
	}
	nquads, ok := dataset.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected JSON-LD dataset type %T", dataset)
	}
	// Default-graph quads are syntactically N-Triples
	return rdf.NewTripleDecoder(bytes.NewReader([]byte(nquads)), rdf.NTriples).DecodeAll()
}

func encodeJSONLD(triples []rdf.Triple) ([]byte, error) {
	ntriples, err := encodeNTriples(triples)
	if err != nil {
		return nil, err
	}

	options := ld.NewJsonLdOptions("")
	options.Format = nquadsMime
	document, err := ld.NewJsonLdProcessor().FromRDF(string(ntriples), options)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(document, "", "  ")
}
