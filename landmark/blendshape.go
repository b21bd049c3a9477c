package landmark

import (
	"sort"
	"strings"
)

// Category is one blendshape coefficient for a face: how strongly the named
// expression unit is activated, from 0 to 1.
type Category struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Blendshapes are the blendshape coefficients of one detected face, in
// model output order.
type Blendshapes []Category

// TopN returns the n highest scoring categories in descending score order.
// n <= 0 or n larger than the slice returns everything, sorted.
func (b Blendshapes) TopN(n int) Blendshapes {
	out := make(Blendshapes, len(b))
	copy(out, b)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Postprocessor defines a function that filters/modifies an incoming slice
// of blendshape categories.
type Postprocessor func(Blendshapes) Blendshapes

// NewScoreFilter returns a function that filters out categories below a
// certain confidence score.
func NewScoreFilter(conf float64) Postprocessor {
	return func(in Blendshapes) Blendshapes {
		out := make(Blendshapes, 0, len(in))
		for _, c := range in {
			if c.Score >= conf {
				out = append(out, c)
			}
		}
		return out
	}
}

// NewLabelFilter returns a function that filters out categories without one
// of the chosen labels. Does not filter when input is empty.
func NewLabelFilter(labels map[string]interface{}) Postprocessor {
	return func(in Blendshapes) Blendshapes {
		if len(labels) < 1 {
			return in
		}
		out := make(Blendshapes, 0, len(in))
		for _, c := range in {
			if _, ok := labels[strings.ToLower(c.Label)]; ok {
				out = append(out, c)
			}
		}
		return out
	}
}

// NewLabelConfidenceFilter returns a function that filters out categories
// based on a per-label confidence map. Does not filter when input is empty.
func NewLabelConfidenceFilter(labels map[string]float64) Postprocessor {
	// ensure all the label names are lower case
	theLabels := make(map[string]float64)
	for name, conf := range labels {
		theLabels[strings.ToLower(name)] = conf
	}
	return func(in Blendshapes) Blendshapes {
		if len(theLabels) < 1 {
			return in
		}
		out := make(Blendshapes, 0, len(in))
		for _, c := range in {
			if conf, ok := theLabels[strings.ToLower(c.Label)]; ok {
				if c.Score >= conf {
					out = append(out, c)
				}
			}
		}
		return out
	}
}
