package landmark

// NumMeshPoints is the number of points in the canonical face mesh: 468
// surface points plus 10 iris points.
const NumMeshPoints = 478

// Canonical face mesh indices for commonly referenced points. Sides are the
// subject's, matching the blendshape label convention.
const (
	LandmarkNoseTip         = 1
	LandmarkForehead        = 10
	LandmarkUpperLip        = 13
	LandmarkLowerLip        = 14
	LandmarkRightEyeOuter   = 33
	LandmarkMouthRight      = 61
	LandmarkRightEyeInner   = 133
	LandmarkChin            = 152
	LandmarkLeftEyeOuter    = 263
	LandmarkMouthLeft       = 291
	LandmarkLeftEyeInner    = 362
	LandmarkRightIrisCenter = 468
	LandmarkLeftIrisCenter  = 473
)

// NumBlendshapes is the number of categories emitted by the canonical
// blendshape head.
const NumBlendshapes = 52

// BlendshapeLabels are the canonical blendshape category names in model
// output order, used when a model ships no label file.
var BlendshapeLabels = []string{
	"_neutral",
	"browDownLeft",
	"browDownRight",
	"browInnerUp",
	"browOuterUpLeft",
	"browOuterUpRight",
	"cheekPuff",
	"cheekSquintLeft",
	"cheekSquintRight",
	"eyeBlinkLeft",
	"eyeBlinkRight",
	"eyeLookDownLeft",
	"eyeLookDownRight",
	"eyeLookInLeft",
	"eyeLookInRight",
	"eyeLookOutLeft",
	"eyeLookOutRight",
	"eyeLookUpLeft",
	"eyeLookUpRight",
	"eyeSquintLeft",
	"eyeSquintRight",
	"eyeWideLeft",
	"eyeWideRight",
	"jawForward",
	"jawLeft",
	"jawOpen",
	"jawRight",
	"mouthClose",
	"mouthDimpleLeft",
	"mouthDimpleRight",
	"mouthFrownLeft",
	"mouthFrownRight",
	"mouthFunnel",
	"mouthLeft",
	"mouthLowerDownLeft",
	"mouthLowerDownRight",
	"mouthPressLeft",
	"mouthPressRight",
	"mouthPucker",
	"mouthRight",
	"mouthRollLower",
	"mouthRollUpper",
	"mouthShrugLower",
	"mouthShrugUpper",
	"mouthSmileLeft",
	"mouthSmileRight",
	"mouthStretchLeft",
	"mouthStretchRight",
	"mouthUpperUpLeft",
	"mouthUpperUpRight",
	"noseSneerLeft",
	"noseSneerRight",
}
