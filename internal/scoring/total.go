package scoring

import "math"

// ScoreInput is a single answer's contribution to a total.
type ScoreInput struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight,omitempty"`
}

// ComputeTotalScore aggregates answers into one score rounded to a tenth.
//
// If any weight is positive the result is the weight-normalized sum,
// otherwise the plain mean. Non-finite scores and weights contribute zero.
func ComputeTotalScore(inputs []ScoreInput) float64 {
	if len(inputs) == 0 {
		return 0
	}

	weighted := false
	var totalWeight float64
	for _, in := range inputs {
		w := finite(in.Weight)
		if w > 0 {
			weighted = true
		}
		totalWeight += w
	}

	if !weighted {
		var sum float64
		for _, in := range inputs {
			sum += finite(in.Score)
		}
		return roundTenth(sum / float64(len(inputs)))
	}

	if totalWeight == 0 {
		totalWeight = 1
	}
	var total float64
	for _, in := range inputs {
		total += finite(in.Score) * finite(in.Weight) / totalWeight
	}
	return roundTenth(total)
}

// roundTenth rounds half-up at the first decimal.
func roundTenth(v float64) float64 {
	r := math.Floor(v*10+0.5) / 10
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
