package classifier

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/mogaika/scene_cache_converter/config"
	"github.com/mogaika/scene_cache_converter/scene"
)

// Result of classifying one mesh's sample history.
type Result struct {
	Category scene.AnimationCategory
	Variance scene.TopologyVariance

	// RigidMotion maps sample-0 geometry onto each later sample when the
	// whole vertex set moves as one rigid body (identity at index 0).
	// Present only for CategoryTransformOnly recovered from vertex data;
	// the builder composes it onto the node transform stream so the motion
	// survives dropping the per-frame vertices.
	RigidMotion []scene.TransformSample
}

type Classifier struct {
	Tolerance float64

	log *logrus.Entry
}

func NewClassifier() *Classifier {
	return &Classifier{
		Tolerance: config.Current().Tolerance,
		log:       logrus.WithField("module", "classifier"),
	}
}

// Classify is deterministic: same sample history, same answer. It never
// downgrades genuine deformation; when in doubt the answer is
// VertexDeforming, which every exporter must then honor or explicitly skip.
func (c *Classifier) Classify(mesh *scene.RawMeshData) Result {
	if mesh == nil || len(mesh.Samples) <= 1 {
		return Result{Category: scene.CategoryStatic, Variance: scene.TopologyConstant}
	}

	variance := topologyVariance(mesh.Samples)
	if variance != scene.TopologyConstant {
		return Result{Category: scene.CategoryVertexDeforming, Variance: variance}
	}
	if !positionsMove(mesh.Samples) {
		return Result{Category: scene.CategoryStatic, Variance: variance}
	}

	// connectivity is constant and positions move; either the whole set
	// moves rigidly (baked transform) or it genuinely deforms
	ref := mesh.Samples[0]
	eps := c.Tolerance * math.Max(1.0, boundingDiagonal(ref.Positions))

	motion := make([]scene.TransformSample, len(mesh.Samples))
	motion[0] = scene.TransformSample{Time: ref.Time, Matrix: mgl64.Ident4()}

	for i := 1; i < len(mesh.Samples); i++ {
		m, ok := fitRigid(ref.Positions, mesh.Samples[i].Positions, eps)
		if !ok {
			return Result{Category: scene.CategoryVertexDeforming, Variance: variance}
		}
		motion[i] = scene.TransformSample{Time: mesh.Samples[i].Time, Matrix: m}
	}

	c.log.Debugf("Recovered rigid motion over %d samples", len(motion))
	return Result{
		Category:    scene.CategoryTransformOnly,
		Variance:    variance,
		RigidMotion: motion,
	}
}

// topologyVariance compares every sample's counts and connectivity against
// the first, ignoring positions entirely: Constant when nothing changes,
// Homogeneous when the arrays only grow or shrink, Heterogeneous when any
// face is rewired.
func topologyVariance(samples []scene.MeshSample) scene.TopologyVariance {
	ref := samples[0]
	countsChange := false
	for i := 1; i < len(samples); i++ {
		s := samples[i]
		if !int32Prefix(s.FaceCounts, ref.FaceCounts) ||
			!int32Prefix(s.FaceIndices, ref.FaceIndices) {
			return scene.TopologyHeterogeneous
		}
		if len(s.Positions) != len(ref.Positions) ||
			len(s.FaceIndices) != len(ref.FaceIndices) ||
			len(s.FaceCounts) != len(ref.FaceCounts) {
			countsChange = true
		}
	}
	if countsChange {
		return scene.TopologyHomogeneous
	}
	return scene.TopologyConstant
}

// int32Prefix reports whether the shorter of a and b is a prefix of the
// longer.
func int32Prefix(a, b []int32) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func positionsMove(samples []scene.MeshSample) bool {
	ref := samples[0]
	for i := 1; i < len(samples); i++ {
		for v := range samples[i].Positions {
			if samples[i].Positions[v] != ref.Positions[v] {
				return true
			}
		}
	}
	return false
}

func boundingDiagonal(positions [][3]float32) float64 {
	if len(positions) == 0 {
		return 0
	}
	min := positions[0]
	max := positions[0]
	for _, p := range positions {
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	d := mgl64.Vec3{
		float64(max[0] - min[0]),
		float64(max[1] - min[1]),
		float64(max[2] - min[2])}
	return d.Len()
}

// fitRigid solves the least-squares linear map A taking centered ref points
// onto centered cur points, then accepts it only if A is a rotation+scale
// (orthogonal columns) and every vertex lands within eps. Degenerate vertex
// sets (points/lines/planes) only get a translation-only attempt.
func fitRigid(ref, cur [][3]float32, eps float64) (mgl64.Mat4, bool) {
	if len(ref) != len(cur) || len(ref) == 0 {
		return mgl64.Mat4{}, false
	}

	refC := centroid(ref)
	curC := centroid(cur)

	var cov, sqr mgl64.Mat3 // cov = Σ q·pᵀ, sqr = Σ p·pᵀ (centered)
	for v := range ref {
		p := vec3(ref[v]).Sub(refC)
		q := vec3(cur[v]).Sub(curC)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				cov[j*3+i] += q[i] * p[j]
				sqr[j*3+i] += p[i] * p[j]
			}
		}
	}

	if math.Abs(sqr.Det()) < 1e-12 {
		return fitTranslation(ref, cur, eps)
	}

	a := cov.Mul3(sqr.Inv())
	if !columnsOrthogonal(a) {
		return mgl64.Mat4{}, false
	}

	for v := range ref {
		p := vec3(ref[v]).Sub(refC)
		q := vec3(cur[v]).Sub(curC)
		if a.Mul3x1(p).Sub(q).Len() > eps {
			return mgl64.Mat4{}, false
		}
	}

	m := a.Mat4()
	t := curC.Sub(a.Mul3x1(refC))
	m.SetCol(3, mgl64.Vec4{t[0], t[1], t[2], 1})
	return m, true
}

func fitTranslation(ref, cur [][3]float32, eps float64) (mgl64.Mat4, bool) {
	d := centroid(cur).Sub(centroid(ref))
	for v := range ref {
		if vec3(ref[v]).Add(d).Sub(vec3(cur[v])).Len() > eps {
			return mgl64.Mat4{}, false
		}
	}
	return mgl64.Translate3D(d[0], d[1], d[2]), true
}

func columnsOrthogonal(a mgl64.Mat3) bool {
	const cosTolerance = 1e-4
	cols := [3]mgl64.Vec3{a.Col(0), a.Col(1), a.Col(2)}
	for i := 0; i < 3; i++ {
		if cols[i].Len() < 1e-12 {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			dot := math.Abs(cols[i].Dot(cols[j])) / (cols[i].Len() * cols[j].Len())
			if dot > cosTolerance {
				return false
			}
		}
	}
	return true
}

func centroid(points [][3]float32) mgl64.Vec3 {
	var c mgl64.Vec3
	for _, p := range points {
		c = c.Add(vec3(p))
	}
	return c.Mul(1.0 / float64(len(points)))
}

func vec3(p [3]float32) mgl64.Vec3 {
	return mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
}
