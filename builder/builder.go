package builder

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/mogaika/scene_cache_converter/classifier"
	"github.com/mogaika/scene_cache_converter/config"
	"github.com/mogaika/scene_cache_converter/scene"
	"github.com/mogaika/scene_cache_converter/utils"
	"github.com/mogaika/scene_cache_converter/walker"
)

// Builder assembles walker discoveries, classification results and
// normalized samples into the immutable canonical scene. One builder per
// conversion job; discard after the exporters finish.
type Builder struct {
	// TargetFPS / TargetFrameCount override the source time sampling; zero
	// values defer to the descriptor.
	TargetFPS        float64
	TargetFrameCount int

	walker     *walker.Walker
	classifier *classifier.Classifier
	names      utils.RandomNameGenerator
	identities map[string]int
	emitted    map[*scene.RawNode]string
	parents    map[*scene.RawNode]*scene.RawNode
	log        *logrus.Entry
}

func NewBuilder() *Builder {
	return &Builder{
		walker:     walker.NewWalker(),
		classifier: classifier.NewClassifier(),
		log:        logrus.WithField("module", "builder"),
	}
}

// Build runs the full normalization pipeline over one raw tree. The only
// fatal condition is a malformed hierarchy; everything else degrades with a
// log record.
func (b *Builder) Build(root *scene.RawNode, conv scene.AxisConvention,
	sampling scene.TimeSampling, meta scene.Metadata) (*scene.Scene, error) {

	if root == nil {
		return nil, scene.MalformedHierarchyf("empty raw tree")
	}
	if err := b.checkHierarchy(root); err != nil {
		return nil, err
	}

	fps := b.TargetFPS
	if fps <= 0 {
		fps = sampling.FPS
	}
	if fps <= 0 {
		fps = config.Current().DefaultFPS
	}
	frameCount := b.TargetFrameCount
	if frameCount <= 0 {
		frameCount = sampling.FrameCount()
	}
	frameTimes := scene.FrameTimes(fps, frameCount)
	basis := scene.NewBasis(conv, scene.CanonicalConvention())

	b.identities = make(map[string]int)
	b.emitted = make(map[*scene.RawNode]string)

	out := &scene.Scene{
		Name:        meta.Name,
		SourceFile:  meta.SourceFile,
		FPS:         fps,
		FrameCount:  frameCount,
		Width:       meta.Width,
		Height:      meta.Height,
		FootagePath: meta.FootagePath,
	}
	if out.Width <= 0 || out.Height <= 0 {
		out.Width, out.Height = 1920, 1080
	}

	for _, discovery := range b.walker.Walk(root) {
		if discovery.Role == scene.RoleMesh &&
			(discovery.Shape.Mesh == nil || len(discovery.Shape.Mesh.Samples) == 0) {
			b.log.Warnf("Dropping mesh %q: no geometry samples", discovery.Shape.Name)
			continue
		}
		node := b.buildNode(discovery, basis, frameTimes)
		out.Nodes = append(out.Nodes, node)
	}

	b.log.Infof("Built canonical scene %q: %d nodes, %d frames @ %g fps",
		out.Name, len(out.Nodes), frameCount, fps)
	return out, nil
}

func (b *Builder) buildNode(d walker.Discovery, basis scene.Basis, frameTimes []float64) *scene.CanonicalNode {
	node := &scene.CanonicalNode{
		Identity:       b.uniqueIdentity(d.Identity),
		ParentIdentity: b.parentIdentity(d.Transform),
		SourcePath:     b.sourcePath(d.Transform),
		Role:           d.Role,
	}
	b.emitted[d.Transform] = node.Identity
	if d.Shape != nil {
		b.emitted[d.Shape] = node.Identity
	}

	var result classifier.Result
	if d.Role == scene.RoleMesh {
		result = b.classifier.Classify(d.Shape.Mesh)
		node.Category = result.Category
		node.Shape = b.buildShape(d.Shape.Mesh, result, basis, frameTimes)
	}

	node.Transform = b.buildTransform(d.Transform, d.Intermediates, result.RigidMotion, basis, frameTimes)

	if d.Role == scene.RoleCamera {
		node.Camera = resampleCamera(d.Shape.Camera, frameTimes)
	}
	return node
}

// buildTransform accumulates the world transform over the ancestor chain and
// the folded wrapper intermediates at every frame, composes recovered rigid
// vertex motion on top, normalizes the basis, and collapses a motionless
// stream to a single sample.
func (b *Builder) buildTransform(n *scene.RawNode, intermediates []*scene.RawNode,
	rigid []scene.TransformSample, basis scene.Basis, frameTimes []float64) []scene.TransformSample {

	chain := append(b.ancestorChain(n), intermediates...)

	samples := make([]scene.TransformSample, len(frameTimes))
	static := true
	for f, t := range frameTimes {
		world := mgl64.Ident4()
		for _, link := range chain {
			world = world.Mul4(sampleTransformAt(link, t))
		}
		if rigid != nil {
			world = world.Mul4(sampleRigidAt(rigid, t))
		}
		samples[f] = scene.TransformSample{Time: t, Matrix: basis.Matrix(world)}
		if f > 0 && !samples[f].Matrix.ApproxEqualThreshold(samples[0].Matrix, config.Current().Tolerance) {
			static = false
		}
	}

	if static {
		return samples[:1]
	}
	return samples
}

func (b *Builder) buildShape(mesh *scene.RawMeshData, result classifier.Result,
	basis scene.Basis, frameTimes []float64) *scene.ShapeData {

	sd := &scene.ShapeData{Variance: result.Variance, UVs: mesh.UVs}

	if result.Category == scene.CategoryVertexDeforming {
		sd.Samples = make([]scene.MeshSample, len(frameTimes))
		for f, t := range frameTimes {
			sample := basis.MeshSample(*sampleMeshAt(mesh.Samples, t))
			sample.Time = t
			sd.Samples[f] = sample
		}
		return sd
	}

	// constant relative to the transform: store the reference sample once,
	// SampleAt clamps for every frame
	sample := basis.MeshSample(mesh.Samples[0])
	if len(frameTimes) > 0 {
		sample.Time = frameTimes[0]
	}
	sd.Samples = []scene.MeshSample{sample}
	return sd
}

func (b *Builder) uniqueIdentity(base string) string {
	if base == "" {
		base = b.names.RandomName()
	}
	n := b.identities[base]
	b.identities[base] = n + 1
	if n == 0 {
		return base
	}
	b.log.Warnf("Identity collision on %q, renaming duplicate", base)
	return fmt.Sprintf("%s_%d", base, n)
}

func (b *Builder) parentIdentity(n *scene.RawNode) string {
	for p := b.parents[n]; p != nil; p = b.parents[p] {
		if identity, ok := b.emitted[p]; ok {
			return identity
		}
	}
	return ""
}

func (b *Builder) sourcePath(n *scene.RawNode) string {
	path := ""
	for ; n != nil; n = b.parents[n] {
		if n.Name == "" || n.Name == "ABC" || n.Name == "/" {
			continue
		}
		path = "/" + n.Name + path
	}
	return path
}

// ancestorChain returns root-first transform ancestors of n, including n.
// Single-sample organizational ancestors still contribute their static
// offset matrices, same as world-matrix accumulation in the source tools.
func (b *Builder) ancestorChain(n *scene.RawNode) []*scene.RawNode {
	chain := make([]*scene.RawNode, 0, 4)
	for ; n != nil; n = b.parents[n] {
		if n.Kind == scene.KindTransform {
			chain = append(chain, n)
		}
	}
	// reverse to root-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// checkHierarchy builds the parent map and rejects trees where any node is
// reachable twice: either a real cycle or broken child ownership, both fatal
// input corruption.
func (b *Builder) checkHierarchy(root *scene.RawNode) error {
	b.parents = make(map[*scene.RawNode]*scene.RawNode)

	type frame struct{ node, parent *scene.RawNode }
	stack := []frame{{root, nil}}
	seen := map[*scene.RawNode]bool{}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[f.node] {
			return scene.MalformedHierarchyf("node %q is reachable twice (cycle or shared child)", f.node.Name)
		}
		seen[f.node] = true
		b.parents[f.node] = f.parent

		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.node})
		}
	}
	return nil
}

// sampleTransformAt interpolates a node's local transform stream, holding
// outside the sampled range.
func sampleTransformAt(n *scene.RawNode, t float64) mgl64.Mat4 {
	return sampleRigidAt(n.Transform, t)
}

func sampleRigidAt(samples []scene.TransformSample, t float64) mgl64.Mat4 {
	if len(samples) == 0 {
		return mgl64.Ident4()
	}
	if t <= samples[0].Time {
		return samples[0].Matrix
	}
	last := samples[len(samples)-1]
	if t >= last.Time {
		return last.Matrix
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Time >= t {
			prev := samples[i-1]
			span := samples[i].Time - prev.Time
			if span <= 0 {
				return samples[i].Matrix
			}
			return utils.LerpMat4(prev.Matrix, samples[i].Matrix, (t-prev.Time)/span)
		}
	}
	return last.Matrix
}

// sampleMeshAt holds the nearest earlier geometry sample; caches are never
// interpolated across topology.
func sampleMeshAt(samples []scene.MeshSample, t float64) *scene.MeshSample {
	best := 0
	for i := range samples {
		if samples[i].Time > t {
			break
		}
		best = i
	}
	return &samples[best]
}

func resampleCamera(samples []scene.CameraSample, frameTimes []float64) []scene.CameraSample {
	out := make([]scene.CameraSample, len(frameTimes))
	for f, t := range frameTimes {
		out[f] = cameraAt(samples, t)
		out[f].Time = t
	}
	return out
}

func cameraAt(samples []scene.CameraSample, t float64) scene.CameraSample {
	if len(samples) == 0 {
		// sane 35mm default on a standard film back
		return scene.CameraSample{FocalLength: 35, HorizontalAperture: 3.6, VerticalAperture: 2.4}
	}
	if t <= samples[0].Time {
		return samples[0]
	}
	last := samples[len(samples)-1]
	if t >= last.Time {
		return last
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Time >= t {
			prev := samples[i-1]
			span := samples[i].Time - prev.Time
			if span <= 0 {
				return samples[i]
			}
			f := (t - prev.Time) / span
			return scene.CameraSample{
				FocalLength:        prev.FocalLength + (samples[i].FocalLength-prev.FocalLength)*f,
				HorizontalAperture: prev.HorizontalAperture + (samples[i].HorizontalAperture-prev.HorizontalAperture)*f,
				VerticalAperture:   prev.VerticalAperture + (samples[i].VerticalAperture-prev.VerticalAperture)*f,
			}
		}
	}
	return last
}
