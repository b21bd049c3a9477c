// Package facemesh decodes face mesh model outputs into landmark results.
// It understands the canonical mesh topology: up to N faces, each with 478
// three-coordinate landmarks and a presence score, optionally joined by 52
// blendshape coefficients and a 4x4 facial transformation matrix per face.
package facemesh

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/edgevision/facemark/facelandmarker"
	"github.com/edgevision/facemark/landmark"
	"github.com/edgevision/facemark/ml"
)

const (
	pointsPerFace = landmark.NumMeshPoints
	floatsPerFace = 3 * pointsPerFace
	matrixSize    = 16
)

// DecodeError means the model's output tensors could not be interpreted as
// face mesh output.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "cannot decode face mesh output: " + e.Reason
}

// Params control how raw output tensors turn into a result.
type Params struct {
	// InputWidth and InputHeight are the model input size, used to
	// normalize landmarks that a model emits in pixel units.
	InputWidth  int
	InputHeight int
	// NumFaces caps how many faces the result may contain.
	NumFaces int
	// MinPresence filters out faces whose presence score is below it.
	MinPresence float64
	// WantBlendshapes and WantMatrixes request the optional per face
	// outputs when the model provides them.
	WantBlendshapes bool
	WantMatrixes    bool
	// BlendshapeLabels overrides the canonical blendshape label list.
	BlendshapeLabels []string
}

// Decode interprets the output tensors of one inference call. Tensors are
// matched by name first and by shape when names don't help, the way models
// in the wild actually vary.
func Decode(outputs ml.Tensors, p Params) (*facelandmarker.Result, error) {
	if len(outputs) == 0 {
		return nil, &DecodeError{Reason: "no output tensors"}
	}
	claimed := map[string]bool{}

	lmName, lmTensor := findTensor(outputs, claimed, meshSizeMatcher, "landmark", "mesh")
	if lmTensor == nil {
		return nil, &DecodeError{Reason: "no landmark tensor among outputs [" +
			strings.Join(ml.TensorNames(outputs), ", ") + "]"}
	}
	claimed[lmName] = true
	lms, err := ml.ConvertToFloat64Slice(lmTensor.Data())
	if err != nil {
		return nil, &DecodeError{Reason: err.Error()}
	}
	if len(lms) == 0 || len(lms)%floatsPerFace != 0 {
		return nil, &DecodeError{Reason: "landmark tensor has " + strconv.Itoa(len(lms)) +
			" values, not a multiple of " + strconv.Itoa(floatsPerFace)}
	}
	numFaces := len(lms) / floatsPerFace

	scores := make([]float64, numFaces)
	for i := range scores {
		scores[i] = 1.0
	}
	scoreName, scoreTensor := findTensor(outputs, claimed, sizeMatcher(numFaces), "presence", "score", "conf")
	if scoreTensor != nil {
		claimed[scoreName] = true
		raw, err := ml.ConvertToFloat64Slice(scoreTensor.Data())
		if err != nil {
			return nil, &DecodeError{Reason: err.Error()}
		}
		if len(raw) == numFaces {
			scores = sanitizeScores(raw)
		}
	}

	var shapes []float64
	if p.WantBlendshapes {
		bsName, bsTensor := findTensor(outputs, claimed, sizeMatcher(numFaces*landmark.NumBlendshapes), "blendshape")
		if bsTensor != nil {
			claimed[bsName] = true
			raw, err := ml.ConvertToFloat64Slice(bsTensor.Data())
			if err != nil {
				return nil, &DecodeError{Reason: err.Error()}
			}
			if len(raw) == numFaces*landmark.NumBlendshapes {
				shapes = raw
			}
		}
	}

	var matrixes []float64
	if p.WantMatrixes {
		mName, mTensor := findTensor(outputs, claimed, sizeMatcher(numFaces*matrixSize), "matrix", "transform", "geometry")
		if mTensor != nil {
			claimed[mName] = true
			raw, err := ml.ConvertToFloat64Slice(mTensor.Data())
			if err != nil {
				return nil, &DecodeError{Reason: err.Error()}
			}
			if len(raw) == numFaces*matrixSize {
				matrixes = raw
			}
		}
	}

	normX, normY := normalizers(lms, p.InputWidth, p.InputHeight)

	result := &facelandmarker.Result{FaceLandmarks: []landmark.Set{}}
	if shapes != nil {
		result.FaceBlendshapes = []landmark.Blendshapes{}
	}
	if matrixes != nil {
		result.FacialTransformationMatrixes = []*mat.Dense{}
	}
	for i := 0; i < numFaces && len(result.FaceLandmarks) < p.NumFaces; i++ {
		if scores[i] < p.MinPresence {
			continue
		}
		set := make(landmark.Set, 0, pointsPerFace)
		base := i * floatsPerFace
		for j := 0; j < pointsPerFace; j++ {
			set = append(set, landmark.Point{
				X:        lms[base+3*j] / normX,
				Y:        lms[base+3*j+1] / normY,
				Z:        lms[base+3*j+2] / normX,
				Presence: scores[i],
			})
		}
		result.FaceLandmarks = append(result.FaceLandmarks, set)
		if shapes != nil {
			result.FaceBlendshapes = append(result.FaceBlendshapes,
				decodeBlendshapes(shapes[i*landmark.NumBlendshapes:(i+1)*landmark.NumBlendshapes], p.BlendshapeLabels))
		}
		if matrixes != nil {
			result.FacialTransformationMatrixes = append(result.FacialTransformationMatrixes,
				mat.NewDense(4, 4, matrixes[i*matrixSize:(i+1)*matrixSize]))
		}
	}
	return result, nil
}

// findTensor looks for an output tensor by name substring, falling back to
// the first unclaimed tensor the shape matcher accepts.
func findTensor(
	outputs ml.Tensors, claimed map[string]bool, match func(*tensor.Dense) bool, keys ...string,
) (string, *tensor.Dense) {
	for name, t := range outputs {
		if claimed[name] {
			continue
		}
		lower := strings.ToLower(name)
		for _, key := range keys {
			if strings.Contains(lower, key) {
				return name, t
			}
		}
	}
	for name, t := range outputs {
		if claimed[name] {
			continue
		}
		if match(t) {
			return name, t
		}
	}
	return "", nil
}

func meshSizeMatcher(t *tensor.Dense) bool {
	n := t.DataSize()
	return n > 0 && n%floatsPerFace == 0
}

func sizeMatcher(want int) func(*tensor.Dense) bool {
	return func(t *tensor.Dense) bool {
		return t.DataSize() == want
	}
}

// sanitizeScores turns raw presence outputs into confidences. Each face's
// score is an independent binary confidence, so out of range values get a
// sigmoid rather than a softmax across faces.
func sanitizeScores(in []float64) []float64 {
	for _, s := range in {
		if s < 0 || s > 1 {
			return ml.Sigmoid(in)
		}
	}
	return in
}

// normalizers decides whether the landmark tensor is already normalized or
// in model input pixel units.
func normalizers(lms []float64, inputWidth, inputHeight int) (float64, float64) {
	maxAbs := 0.0
	for i := 0; i < len(lms); i += 3 {
		for _, v := range []float64{lms[i], lms[i+1]} {
			if v < 0 {
				v = -v
			}
			if v > maxAbs {
				maxAbs = v
			}
		}
	}
	if maxAbs > 2 && inputWidth > 0 && inputHeight > 0 { // pixel units
		return float64(inputWidth), float64(inputHeight)
	}
	return 1, 1
}

// decodeBlendshapes labels one face's coefficients. Each coefficient is an
// independent activation, so sanitization is per value, never a softmax.
func decodeBlendshapes(raw []float64, labels []string) landmark.Blendshapes {
	if labels == nil && len(raw) == landmark.NumBlendshapes {
		labels = landmark.BlendshapeLabels
	}
	scores := sanitizeScores(raw)
	out := make(landmark.Blendshapes, 0, len(scores))
	for i, s := range scores {
		label := strconv.Itoa(i)
		if i < len(labels) {
			label = labels[i]
		}
		out = append(out, landmark.Category{Index: i, Label: label, Score: s})
	}
	return out
}
