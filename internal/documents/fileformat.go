package documents

import "strings"

// FileFormat identifies one of the closed set of file types a pipeline
// can produce or consume
type FileFormat struct {
	Name        string `json:"name"`         // Canonical identifier, e.g. "html"
	ContentType string `json:"content_type"` // MIME type written to storage
	Extension   string `json:"extension"`    // File extension without the dot
}

var (
	FormatJSON     = FileFormat{Name: "json", ContentType: "application/json", Extension: "json"}
	FormatHTML     = FileFormat{Name: "html", ContentType: "text/html", Extension: "html"}
	FormatPDF      = FileFormat{Name: "pdf", ContentType: "application/pdf", Extension: "pdf"}
	FormatDOCX     = FileFormat{Name: "docx", ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Extension: "docx"}
	FormatMarkdown = FileFormat{Name: "markdown", ContentType: "text/markdown", Extension: "md"}
	FormatODT      = FileFormat{Name: "odt", ContentType: "application/vnd.oasis.opendocument.text", Extension: "odt"}
	FormatRST      = FileFormat{Name: "rst", ContentType: "text/x-rst", Extension: "rst"}
	FormatLaTeX    = FileFormat{Name: "latex", ContentType: "application/x-tex", Extension: "tex"}
	FormatEPUB     = FileFormat{Name: "epub", ContentType: "application/epub+zip", Extension: "epub"}
	FormatDocBook4 = FileFormat{Name: "docbook4", ContentType: "application/docbook+xml", Extension: "dbk"}
	FormatDocBook5 = FileFormat{Name: "docbook5", ContentType: "application/docbook+xml", Extension: "dbk"}
	FormatPPTX     = FileFormat{Name: "pptx", ContentType: "application/vnd.openxmlformats-officedocument.presentationml.presentation", Extension: "pptx"}
	FormatRTF      = FileFormat{Name: "rtf", ContentType: "application/rtf", Extension: "rtf"}
	FormatAsciiDoc = FileFormat{Name: "asciidoc", ContentType: "text/asciidoc", Extension: "adoc"}
	FormatRDFXML   = FileFormat{Name: "rdf", ContentType: "application/rdf+xml", Extension: "rdf"}
	FormatN3       = FileFormat{Name: "n3", ContentType: "text/n3", Extension: "n3"}
	FormatNTriples = FileFormat{Name: "nt", ContentType: "application/n-triples", Extension: "nt"}
	FormatTurtle   = FileFormat{Name: "ttl", ContentType: "text/turtle", Extension: "ttl"}
	FormatTriG     = FileFormat{Name: "trig", ContentType: "application/trig", Extension: "trig"}
	FormatJSONLD   = FileFormat{Name: "jsonld", ContentType: "application/ld+json", Extension: "jsonld"}
)

// knownFormats maps canonical names and accepted aliases to formats
var knownFormats = map[string]FileFormat{
	"json":      FormatJSON,
	"html":      FormatHTML,
	"pdf":       FormatPDF,
	"docx":      FormatDOCX,
	"markdown":  FormatMarkdown,
	"odt":       FormatODT,
	"rst":       FormatRST,
	"latex":     FormatLaTeX,
	"epub":      FormatEPUB,
	"docbook4":  FormatDocBook4,
	"docbook5":  FormatDocBook5,
	"pptx":      FormatPPTX,
	"rtf":       FormatRTF,
	"asciidoc":  FormatAsciiDoc,
	"rdf":       FormatRDFXML,
	"rdf/xml":   FormatRDFXML,
	"rdfxml":    FormatRDFXML,
	"n3":        FormatN3,
	"nt":        FormatNTriples,
	"ntriples":  FormatNTriples,
	"n-triples": FormatNTriples,
	"ttl":       FormatTurtle,
	"turtle":    FormatTurtle,
	"trig":      FormatTriG,
	"jsonld":    FormatJSONLD,
	"json-ld":   FormatJSONLD,
}

// canonicalFormats keeps the table order for content-type resolution;
// docbook4 wins over docbook5 for their shared MIME type
var canonicalFormats = []FileFormat{
	FormatJSON, FormatHTML, FormatPDF, FormatDOCX, FormatMarkdown, FormatODT,
	FormatRST, FormatLaTeX, FormatEPUB, FormatDocBook4, FormatDocBook5,
	FormatPPTX, FormatRTF, FormatAsciiDoc, FormatRDFXML, FormatN3,
	FormatNTriples, FormatTurtle, FormatTriG, FormatJSONLD,
}

// LookupFormat resolves a format name or alias, case-insensitively
func LookupFormat(name string) (FileFormat, bool) {
	format, ok := knownFormats[strings.ToLower(strings.TrimSpace(name))]
	return format, ok
}

// LookupFormatByContentType resolves the first table entry with the given
// MIME type
func LookupFormatByContentType(contentType string) (FileFormat, bool) {
	want := strings.ToLower(strings.TrimSpace(contentType))
	for _, format := range canonicalFormats {
		if format.ContentType == want {
			return format, true
		}
	}
	return FileFormat{}, false
}
