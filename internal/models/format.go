package models

// Format describes one renderable output of a template
type Format struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Steps []Step `json:"steps"` // Executed first to last
}

// Step is one stage of a format's rendering pipeline
type Step struct {
	Name    string            `json:"name"`
	Options map[string]string `json:"options"`
}

// Option returns a step option with a default for absent keys
func (s *Step) Option(key, fallback string) string {
	if s.Options == nil {
		return fallback
	}
	if value, ok := s.Options[key]; ok {
		return value
	}
	return fallback
}
