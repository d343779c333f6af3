package scoring

import "fmt"

// Scoring is one grade of an item's rubric.
type Scoring struct {
	Grade       string   `yaml:"grade" json:"grade"`
	Description string   `yaml:"description" json:"description"`
	Score       *float64 `yaml:"score" json:"score,omitempty"`
}

// GeneratePreset builds a fresh rubric for the given scale and item type.
//
// The result always replaces an item's rubric wholesale. When the scale has
// no preset for the item type, the grades are returned with empty
// descriptions and a zero score.
func GeneratePreset(id ScaleID, itemType ItemType) ([]Scoring, error) {
	scale, ok := lookupScale(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScale, id)
	}

	if preset, ok := scale.Presets[itemType]; ok && len(preset) > 0 {
		out := make([]Scoring, len(preset))
		for i, p := range preset {
			out[i] = Scoring{
				Grade:       p.Grade,
				Description: p.Description,
				Score:       copyScore(p.Score),
			}
		}
		return out, nil
	}

	out := make([]Scoring, len(scale.Grades))
	for i, g := range scale.Grades {
		out[i] = Scoring{Grade: g, Score: floatPtr(0)}
	}
	return out, nil
}

// DetectScale infers which scale a rubric was generated from by comparing
// its length and first grade label. Hand-edited rubrics may match nothing.
func DetectScale(rubric []Scoring) (ScaleID, bool) {
	if len(rubric) == 0 {
		return "", false
	}
	for _, s := range scales {
		if len(s.Grades) == len(rubric) && s.Grades[0] == rubric[0].Grade {
			return s.ID, true
		}
	}
	return "", false
}

// ScaleOrDefault is DetectScale with the DefaultScale fallback.
func ScaleOrDefault(rubric []Scoring) (ScaleID, bool) {
	if id, ok := DetectScale(rubric); ok {
		return id, true
	}
	return DefaultScale, false
}

func copyScore(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return floatPtr(*p)
}

func floatPtr(v float64) *float64 { return &v }
