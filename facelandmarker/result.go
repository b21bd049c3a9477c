package facelandmarker

import (
	"gonum.org/v1/gonum/mat"

	"github.com/edgevision/facemark/landmark"
)

// Result holds everything detected in one image or frame. The optional
// slices are only populated when the corresponding option requested them
// and are index aligned with FaceLandmarks.
type Result struct {
	// FaceLandmarks holds one landmark set per detected face. It is empty,
	// not nil, when no face was found.
	FaceLandmarks []landmark.Set `json:"face_landmarks"`
	// FaceBlendshapes holds blendshape coefficients per face.
	FaceBlendshapes []landmark.Blendshapes `json:"face_blendshapes,omitempty"`
	// FacialTransformationMatrixes holds a 4x4 transformation matrix per
	// face, mapping the canonical face model into the detected pose.
	FacialTransformationMatrixes []*mat.Dense `json:"-"`
}
