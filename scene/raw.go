package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

type NodeKind int

const (
	KindTransform NodeKind = iota
	KindPolyMesh
	KindCamera
	KindCurves
	KindPoints
	KindNurbsSurface
	KindOther
)

func (k NodeKind) String() string {
	switch k {
	case KindTransform:
		return "Transform"
	case KindPolyMesh:
		return "PolyMesh"
	case KindCamera:
		return "Camera"
	case KindCurves:
		return "Curves"
	case KindPoints:
		return "Points"
	case KindNurbsSurface:
		return "NurbsSurface"
	default:
		return "Other"
	}
}

// IsShape reports whether nodes of this kind carry exportable shape data.
// Curves, points and nurbs are recognized but not converted, same as the
// source tools that only bake transform/mesh/camera streams.
func (k NodeKind) IsShape() bool {
	return k == KindPolyMesh || k == KindCamera
}

// TransformSample is one local transform sample, column-vector convention
// (v' = M * v). Readers are responsible for transposing row-major sources.
type TransformSample struct {
	Time   float64
	Matrix mgl64.Mat4
}

// MeshSample is one baked geometry sample. FaceIndices is the flattened
// per-polygon vertex index list, FaceCounts the vertex count of each polygon.
type MeshSample struct {
	Time        float64
	Positions   [][3]float32
	Normals     [][3]float32
	FaceIndices []int32
	FaceCounts  []int32
}

// RawMeshData holds the full per-sample history of one mesh shape.
// UV coordinates are convention-free and stored once.
type RawMeshData struct {
	Samples []MeshSample
	UVs     [][2]float32
}

type CameraSample struct {
	Time               float64
	FocalLength        float64 // mm
	HorizontalAperture float64 // cm
	VerticalAperture   float64 // cm
}

// RawNode is a node of the source tree as handed over by a SourceReader.
// The parent exclusively owns its children; sample payloads are opaque to
// the walker except for counting.
type RawNode struct {
	Name     string
	Kind     NodeKind
	Children []*RawNode

	Transform []TransformSample
	Mesh      *RawMeshData
	Camera    []CameraSample
}

func (n *RawNode) SampleCount() int {
	switch n.Kind {
	case KindTransform:
		return len(n.Transform)
	case KindPolyMesh:
		if n.Mesh == nil {
			return 0
		}
		return len(n.Mesh.Samples)
	case KindCamera:
		return len(n.Camera)
	}
	return 0
}

// TransformAt returns the local matrix at the given time, holding the
// nearest earlier sample. Identity for shapes and empty streams.
func (n *RawNode) TransformAt(t float64) mgl64.Mat4 {
	if len(n.Transform) == 0 {
		return mgl64.Ident4()
	}
	best := n.Transform[0].Matrix
	for i := range n.Transform {
		if n.Transform[i].Time > t {
			break
		}
		best = n.Transform[i].Matrix
	}
	return best
}
