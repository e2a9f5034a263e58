package models

// Label marks whether a sample is authentic or synthetic.
type Label string

const (
	LabelOriginal  Label = "original"
	LabelGenerated Label = "generated"
)

// MissingFoundation is the sentinel used when a corpus row has no
// foundation value.
const MissingFoundation = "<missing>"

// NormalizeLabel maps any unrecognized or empty value to LabelGenerated.
func NormalizeLabel(raw string) Label {
	switch Label(raw) {
	case LabelOriginal, LabelGenerated:
		return Label(raw)
	default:
		return LabelGenerated
	}
}

// Sample is one row of the content pool. The ID is the 0-based row index
// assigned at load time and is stable for the process lifetime.
type Sample struct {
	ID          int               `json:"id"`
	Foundation  string            `json:"foundation"`
	Label       Label             `json:"label"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Scenario    string            `json:"scenario"`
	Meta        map[string]string `json:"meta"`
}
