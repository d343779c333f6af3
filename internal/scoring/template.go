package scoring

import (
	"errors"
	"fmt"
)

// ErrInvalidItem reports an item that cannot be saved into a template.
var ErrInvalidItem = errors.New("invalid evaluation item")

// Item is one scored line of an evaluation template.
type Item struct {
	ID      int       `json:"id"`
	Title   string    `json:"title,omitempty"`
	Type    ItemType  `json:"type"`
	Weight  int       `json:"weight"`
	Scoring []Scoring `json:"scoring"`
}

// UsesWeights reports whether any item carries a positive weight.
func UsesWeights(items []Item) bool {
	for _, it := range items {
		if it.Weight > 0 {
			return true
		}
	}
	return false
}

// WeightSum adds up all item weights.
func WeightSum(items []Item) int {
	var sum int
	for _, it := range items {
		sum += it.Weight
	}
	return sum
}

// CheckWeights returns a human-readable warning when a weighted template
// does not add up to 100. An empty string means the weights are consistent.
func CheckWeights(items []Item) string {
	if !UsesWeights(items) {
		return ""
	}
	if sum := WeightSum(items); sum != 100 {
		return fmt.Sprintf("item weights sum to %d, expected 100", sum)
	}
	return ""
}

// ValidateItem checks the structural rules of a single item.
func ValidateItem(it Item) error {
	if it.Type != Quantitative && it.Type != Qualitative {
		return fmt.Errorf("%w: item %d: %w", ErrInvalidItem, it.ID, ErrUnknownItemType)
	}
	if it.Weight < 0 || it.Weight > 100 {
		return fmt.Errorf("%w: item %d: weight %d out of range 0-100", ErrInvalidItem, it.ID, it.Weight)
	}
	seen := make(map[string]struct{}, len(it.Scoring))
	for _, s := range it.Scoring {
		if _, dup := seen[s.Grade]; dup {
			return fmt.Errorf("%w: item %d: duplicate grade %q", ErrInvalidItem, it.ID, s.Grade)
		}
		seen[s.Grade] = struct{}{}
	}
	return nil
}

// ValidateItems validates every item and checks that ids are unique.
func ValidateItems(items []Item) error {
	ids := make(map[int]struct{}, len(items))
	for _, it := range items {
		if _, dup := ids[it.ID]; dup {
			return fmt.Errorf("%w: duplicate item id %d", ErrInvalidItem, it.ID)
		}
		ids[it.ID] = struct{}{}
		if err := ValidateItem(it); err != nil {
			return err
		}
	}
	return nil
}

// ReapplyPresets regenerates every item's rubric from the given scale.
// Items are returned as copies; the input slice is left untouched.
func ReapplyPresets(items []Item, id ScaleID) ([]Item, error) {
	out := make([]Item, len(items))
	for i, it := range items {
		rubric, err := GeneratePreset(id, it.Type)
		if err != nil {
			return nil, err
		}
		it.Scoring = rubric
		out[i] = it
	}
	return out, nil
}

// CompleteItem regenerates an item's rubric from the scale it currently
// appears to use. The boolean is false when the rubric matched no scale and
// DefaultScale was used instead.
func CompleteItem(it Item) (Item, bool, error) {
	id, recognized := ScaleOrDefault(it.Scoring)
	rubric, err := GeneratePreset(id, it.Type)
	if err != nil {
		return Item{}, false, err
	}
	it.Scoring = rubric
	return it, recognized, nil
}

// ScoreFor returns the score attached to a grade label in the rubric.
func ScoreFor(rubric []Scoring, grade string) (float64, bool) {
	for _, s := range rubric {
		if s.Grade == grade && s.Score != nil {
			return *s.Score, true
		}
	}
	return 0, false
}
