package conversion

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/knakk/rdf"
)

// Minimal RDF/XML serializer. knakk/rdf only decodes RDF/XML and the rest
// of the ecosystem serializes other syntaxes, so the writer emits the
// plain rdf:Description form: one element per subject, one property
// element per triple.

const (
	rdfNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	xsdString     = "http://www.w3.org/2001/XMLSchema#string"
	rdfLangString = rdfNamespace + "langString"
)

func encodeRDFXML(triples []rdf.Triple) ([]byte, error) {
	subjects, order := groupBySubject(triples)
	namespaces, prefixes := collectNamespaces(triples)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<rdf:RDF xmlns:rdf="` + rdfNamespace + `"`)
	for _, ns := range namespaces {
		fmt.Fprintf(&buf, "\n         xmlns:%s=%q", prefixes[ns], ns)
	}
	buf.WriteString(">\n")

	for _, key := range order {
		group := subjects[key]
		openDescription(&buf, group[0].Subj)
		for _, triple := range group {
			if err := writeProperty(&buf, triple, prefixes); err != nil {
				return nil, err
			}
		}
		buf.WriteString("  </rdf:Description>\n")
	}

	buf.WriteString("</rdf:RDF>\n")
	return buf.Bytes(), nil
}

func groupBySubject(triples []rdf.Triple) (map[string][]rdf.Triple, []string) {
	groups := make(map[string][]rdf.Triple)
	var order []string
	for _, triple := range triples {
		key := triple.Subj.Serialize(rdf.NTriples)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], triple)
	}
	return groups, order
}

// collectNamespaces assigns a generated prefix to every predicate namespace
func collectNamespaces(triples []rdf.Triple) ([]string, map[string]string) {
	prefixes := make(map[string]string)
	var namespaces []string
	for _, triple := range triples {
		ns, _ := splitIRI(iriValue(triple.Pred))
		if ns == rdfNamespace {
			continue
		}
		if _, seen := prefixes[ns]; !seen {
			prefixes[ns] = fmt.Sprintf("ns%d", len(prefixes))
			namespaces = append(namespaces, ns)
		}
	}
	return namespaces, prefixes
}

func openDescription(buf *bytes.Buffer, subject rdf.Subject) {
	if subject.Type() == rdf.TermBlank {
		fmt.Fprintf(buf, "  <rdf:Description rdf:nodeID=%q>\n", blankID(subject))
		return
	}
	fmt.Fprintf(buf, "  <rdf:Description rdf:about=%q>\n", xmlEscape(iriValue(subject)))
}

func writeProperty(buf *bytes.Buffer, triple rdf.Triple, prefixes map[string]string) error {
	ns, local := splitIRI(iriValue(triple.Pred))
	if local == "" {
		return fmt.Errorf("cannot split predicate IRI %q into namespace and local name", iriValue(triple.Pred))
	}
	name := prefixes[ns] + ":" + local
	if ns == rdfNamespace {
		name = "rdf:" + local
	}

	switch object := triple.Obj.(type) {
	case rdf.Literal:
		attrs := ""
		if object.Lang() != "" {
			attrs = fmt.Sprintf(" xml:lang=%q", object.Lang())
		} else if dt := iriValue(object.DataType); dt != "" && dt != xsdString && dt != rdfLangString {
			attrs = fmt.Sprintf(" rdf:datatype=%q", xmlEscape(dt))
		}
		fmt.Fprintf(buf, "    <%s%s>%s</%s>\n", name, attrs, xmlEscape(object.String()), name)
	case rdf.IRI:
		fmt.Fprintf(buf, "    <%s rdf:resource=%q/>\n", name, xmlEscape(iriValue(object)))
	case rdf.Blank:
		fmt.Fprintf(buf, "    <%s rdf:nodeID=%q/>\n", name, blankID(object))
	default:
		return fmt.Errorf("unsupported object term %T", triple.Obj)
	}
	return nil
}

// splitIRI separates an IRI into namespace and local name at the last
// '#' or '/'
func splitIRI(iri string) (string, string) {
	if idx := strings.LastIndex(iri, "#"); idx >= 0 {
		return iri[:idx+1], iri[idx+1:]
	}
	if idx := strings.LastIndex(iri, "/"); idx >= 0 {
		return iri[:idx+1], iri[idx+1:]
	}
	return "", iri
}

// iriValue strips the N-Triples angle brackets off a serialized IRI term
func iriValue(term rdf.Term) string {
	s := term.Serialize(rdf.NTriples)
	return strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
}

// blankID strips the N-Triples "_:" marker off a blank node label
func blankID(term rdf.Term) string {
	return strings.TrimPrefix(term.Serialize(rdf.NTriples), "_:")
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
