package templates

import "encoding/base64"

// Asset is a resolved template asset with its bytes loaded from the
// workspace, ready for data-URI embedding inside templates
type Asset struct {
	FileName    string
	ContentType string
	Data        []byte
}

// DataURI returns the base64 data-URI view of the asset, the form
// templates embed into HTML (src attributes and CSS urls)
func (a *Asset) DataURI() string {
	return "data:" + a.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}
