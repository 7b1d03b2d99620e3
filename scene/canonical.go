package scene

type Role int

const (
	RoleCamera Role = iota
	RoleMesh
	RoleLocator
)

func (r Role) String() string {
	switch r {
	case RoleCamera:
		return "Camera"
	case RoleMesh:
		return "Mesh"
	default:
		return "Locator"
	}
}

type AnimationCategory int

const (
	CategoryStatic AnimationCategory = iota
	CategoryTransformOnly
	CategoryVertexDeforming
)

func (c AnimationCategory) String() string {
	switch c {
	case CategoryStatic:
		return "Static"
	case CategoryTransformOnly:
		return "TransformOnly"
	default:
		return "VertexDeforming"
	}
}

// TopologyVariance tracks vertex count and face connectivity across samples,
// independent of position motion: Constant when connectivity never changes,
// Homogeneous when it changes in count only, Heterogeneous when faces are
// rewired.
type TopologyVariance int

const (
	TopologyConstant TopologyVariance = iota
	TopologyHomogeneous
	TopologyHeterogeneous
)

func (v TopologyVariance) String() string {
	switch v {
	case TopologyConstant:
		return "Constant"
	case TopologyHomogeneous:
		return "Homogeneous"
	default:
		return "Heterogeneous"
	}
}

// ShapeData is the normalized geometry stream of a Mesh node. Constant
// geometry is stored as a single sample; SampleAt clamps so every transform
// sample maps to a defined shape sample.
type ShapeData struct {
	Variance TopologyVariance
	Samples  []MeshSample
	UVs      [][2]float32
}

func (sd *ShapeData) SampleAt(i int) *MeshSample {
	if i >= len(sd.Samples) {
		i = len(sd.Samples) - 1
	}
	if i < 0 {
		i = 0
	}
	return &sd.Samples[i]
}

// CanonicalNode is the immutable normalized output unit. All samples are in
// the canonical axis convention (Y-up, right-handed, centimeters).
type CanonicalNode struct {
	Identity       string
	ParentIdentity string // non-owning back reference, "" for roots
	SourcePath     string

	Role     Role
	Category AnimationCategory // meaningful for RoleMesh only

	Transform []TransformSample // non-empty, monotonically increasing time
	Shape     *ShapeData        // RoleMesh only
	Camera    []CameraSample    // RoleCamera only
}

// StaticTransform reports whether the node carries no transform animation.
func (n *CanonicalNode) StaticTransform() bool {
	return len(n.Transform) == 1
}

// Metadata is scene-level information a SourceReader extracts from the
// source file. Resolution falls back to HD when the source does not carry
// render settings.
type Metadata struct {
	Name        string
	SourceFile  string
	Width       int
	Height      int
	FootagePath string
}

// Scene is the canonical, format-agnostic representation every exporter
// consumes. It is built once per conversion and never mutated afterwards.
type Scene struct {
	Name        string
	SourceFile  string
	FPS         float64
	FrameCount  int
	Width       int
	Height      int
	FootagePath string

	Nodes []*CanonicalNode
}

func (s *Scene) NodeByIdentity(identity string) *CanonicalNode {
	for _, n := range s.Nodes {
		if n.Identity == identity {
			return n
		}
	}
	return nil
}

func (s *Scene) NodesByRole(role Role) []*CanonicalNode {
	nodes := make([]*CanonicalNode, 0)
	for _, n := range s.Nodes {
		if n.Role == role {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
