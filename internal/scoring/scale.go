// Package scoring aggregates evaluation answers into total scores and
// generates grading rubrics for the fixed set of scoring scales.
package scoring

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScaleID identifies one of the fixed scoring scales.
type ScaleID string

const (
	Scale5Grade   ScaleID = "5grade"
	Scale5Point   ScaleID = "5point"
	Scale10Point  ScaleID = "10point"
	Scale100Point ScaleID = "100point"
	Scale3Level   ScaleID = "3level"
	ScaleLikert5  ScaleID = "likert5"
)

// DefaultScale is used whenever an item's rubric cannot be matched to a scale.
const DefaultScale = Scale5Grade

// ItemType distinguishes quantitative (target-based) from qualitative items.
type ItemType string

const (
	Quantitative ItemType = "정량"
	Qualitative  ItemType = "정성"
)

var (
	ErrUnknownScale    = errors.New("unknown scoring scale")
	ErrUnknownItemType = errors.New("unknown item type")
)

// ParseItemType accepts the stored labels as well as their English names.
func ParseItemType(s string) (ItemType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Quantitative), "quantitative":
		return Quantitative, nil
	case string(Qualitative), "qualitative":
		return Qualitative, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownItemType, s)
}

// ParseScaleID validates a scale identifier.
func ParseScaleID(s string) (ScaleID, error) {
	id := ScaleID(strings.TrimSpace(s))
	if _, ok := scaleIndex[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownScale, s)
	}
	return id, nil
}

// Scale describes a scoring scale and its preset rubrics per item type.
type Scale struct {
	ID      ScaleID                `yaml:"id" json:"id"`
	Name    string                 `yaml:"name" json:"name"`
	Grades  []string               `yaml:"grades" json:"grades"`
	Presets map[ItemType][]Scoring `yaml:"presets" json:"-"`
}

//go:embed presets.yaml
var presetsYAML []byte

var (
	scales     []Scale
	scaleIndex map[ScaleID]int
)

func init() {
	var doc struct {
		Scales []Scale `yaml:"scales"`
	}
	if err := yaml.Unmarshal(presetsYAML, &doc); err != nil {
		panic(fmt.Sprintf("scoring: parse presets: %v", err))
	}
	scales = doc.Scales
	scaleIndex = make(map[ScaleID]int, len(scales))
	for i, s := range scales {
		scaleIndex[s.ID] = i
	}
}

// Scales returns the scale definitions in display order.
func Scales() []Scale {
	out := make([]Scale, len(scales))
	for i, s := range scales {
		out[i] = Scale{
			ID:     s.ID,
			Name:   s.Name,
			Grades: append([]string(nil), s.Grades...),
		}
	}
	return out
}

func lookupScale(id ScaleID) (Scale, bool) {
	i, ok := scaleIndex[id]
	if !ok {
		return Scale{}, false
	}
	return scales[i], true
}
