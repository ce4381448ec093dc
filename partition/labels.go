package partition

import "datasetprep/config"

// LabelMapper maps a source class to the label directory it is split into.
// With no positive class every class keeps its own name; otherwise the
// positive class keeps its name and every other class collapses into Other,
// or config.DefaultOtherLabel when Other is empty.
type LabelMapper struct {
	Positive string
	Other    string
}

// Label returns the target label for class
func (m LabelMapper) Label(class string) string {
	if m.Positive == "" || class == m.Positive {
		return class
	}
	if m.Other == "" {
		return config.DefaultOtherLabel
	}
	return m.Other
}
