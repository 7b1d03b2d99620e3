package usdexport

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/scene_cache_converter/config"
	"github.com/mogaika/scene_cache_converter/exporter"
	"github.com/mogaika/scene_cache_converter/scene"
)

// Exporter writes a self-contained usda stage. All animation categories are
// representable: transforms as xformOp timeSamples, deformation as points
// timeSamples on the mesh prim.
type Exporter struct{}

func (e *Exporter) Name() string          { return "usd" }
func (e *Exporter) FileExtension() string { return ".usda" }

func (e *Exporter) SupportedCategories() []scene.AnimationCategory {
	return []scene.AnimationCategory{
		scene.CategoryStatic,
		scene.CategoryTransformOnly,
		scene.CategoryVertexDeforming,
	}
}

func (e *Exporter) Export(s *scene.Scene, plan *exporter.Plan, sink exporter.OutputSink) error {
	out, err := sink.Create(exporter.OutputName(s, e))
	if err != nil {
		return err
	}
	defer out.Close()

	u := &usdWriter{out: out, scene: s}
	u.w(`#usda 1.0`)
	u.w(`(`)
	u.w(`    defaultPrim = "World"`)
	u.w(`    upAxis = "Y"`)
	u.w(`    metersPerUnit = 0.01`)
	u.w(`    timeCodesPerSecond = %g`, s.FPS)
	u.w(`    startTimeCode = 1`)
	u.w(`    endTimeCode = %d`, s.FrameCount)
	u.w(`)`)
	u.w(``)
	u.w(`def Xform "World"`)
	u.w(`{`)
	u.indent++
	for _, n := range plan.Included(s) {
		u.writeNode(n)
	}
	u.indent--
	u.w(`}`)
	return nil
}

type usdWriter struct {
	out    io.Writer
	scene  *scene.Scene
	indent int
}

func (u *usdWriter) w(format string, args ...interface{}) {
	for i := 0; i < u.indent; i++ {
		u.out.Write([]byte("    "))
	}
	u.out.Write(([]byte)(fmt.Sprintf(format+"\n", args...)))
}

// writeNode emits one prim. The canonical transforms are world matrices, so
// every prim sits flat under /World and the source nesting survives only in
// the kind-neutral display name.
func (u *usdWriter) writeNode(n *scene.CanonicalNode) {
	name := config.EncodeNodeName(n.Identity)

	prim := "Xform"
	switch n.Role {
	case scene.RoleMesh:
		prim = "Mesh"
	case scene.RoleCamera:
		prim = "Camera"
	}

	u.w(`def %s "%s" (`, prim, name)
	u.w(`    customData = { string sourcePath = "%s" }`, n.SourcePath)
	u.w(`)`)
	u.w(`{`)
	u.indent++

	u.writeTransform(n)
	switch n.Role {
	case scene.RoleMesh:
		u.writeMesh(n)
	case scene.RoleCamera:
		u.writeCamera(n)
	}

	u.indent--
	u.w(`}`)
}

func (u *usdWriter) writeTransform(n *scene.CanonicalNode) {
	if n.StaticTransform() {
		u.w(`matrix4d xformOp:transform = %s`, usdMatrix(n.Transform[0].Matrix))
	} else {
		u.w(`matrix4d xformOp:transform.timeSamples = {`)
		for f, ts := range n.Transform {
			u.w(`    %d: %s,`, f+1, usdMatrix(ts.Matrix))
		}
		u.w(`}`)
	}
	u.w(`uniform token[] xformOpOrder = ["xformOp:transform"]`)
}

func (u *usdWriter) writeMesh(n *scene.CanonicalNode) {
	ref := n.Shape.SampleAt(0)

	u.w(`int[] faceVertexCounts = %s`, usdInts(ref.FaceCounts))
	u.w(`int[] faceVertexIndices = %s`, usdInts(ref.FaceIndices))

	if n.Category == scene.CategoryVertexDeforming {
		u.w(`point3f[] points.timeSamples = {`)
		for f := 0; f < u.scene.FrameCount; f++ {
			u.w(`    %d: %s,`, f+1, usdPoints(n.Shape.SampleAt(f).Positions))
		}
		u.w(`}`)
	} else {
		u.w(`point3f[] points = %s`, usdPoints(ref.Positions))
	}

	if len(ref.Normals) > 0 {
		u.w(`normal3f[] normals = %s (`, usdPoints(ref.Normals))
		u.w(`    interpolation = "vertex"`)
		u.w(`)`)
	}
	if len(n.Shape.UVs) > 0 {
		u.w(`texCoord2f[] primvars:st = %s (`, usdUVs(n.Shape.UVs))
		u.w(`    interpolation = "vertex"`)
		u.w(`)`)
	}
	u.w(`uniform token subdivisionScheme = "none"`)
}

func (u *usdWriter) writeCamera(n *scene.CanonicalNode) {
	static := len(n.Camera) > 0
	for _, cs := range n.Camera {
		first := n.Camera[0]
		if cs.FocalLength != first.FocalLength ||
			cs.HorizontalAperture != first.HorizontalAperture ||
			cs.VerticalAperture != first.VerticalAperture {
			static = false
			break
		}
	}
	if static {
		cs := n.Camera[0]
		u.w(`float focalLength = %g`, cs.FocalLength)
		u.w(`float horizontalAperture = %g`, cs.HorizontalAperture*10)
		u.w(`float verticalAperture = %g`, cs.VerticalAperture*10)
		return
	}
	u.w(`float focalLength.timeSamples = {`)
	for f, cs := range n.Camera {
		u.w(`    %d: %g,`, f+1, cs.FocalLength)
	}
	u.w(`}`)
	u.w(`float horizontalAperture.timeSamples = {`)
	for f, cs := range n.Camera {
		u.w(`    %d: %g,`, f+1, cs.HorizontalAperture*10)
	}
	u.w(`}`)
	u.w(`float verticalAperture.timeSamples = {`)
	for f, cs := range n.Camera {
		u.w(`    %d: %g,`, f+1, cs.VerticalAperture*10)
	}
	u.w(`}`)
}

// usdMatrix prints row-vector convention, the transpose of the column-vector
// matrices the canonical scene stores.
func usdMatrix(m mgl64.Mat4) string {
	row := func(i int) string {
		c := m.Col(i)
		return fmt.Sprintf("(%g, %g, %g, %g)", c[0], c[1], c[2], c[3])
	}
	return fmt.Sprintf("( %s, %s, %s, %s )", row(0), row(1), row(2), row(3))
}

func usdInts(vals []int32) string {
	s := "["
	for i, v := range vals {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d", v)
	}
	return s + "]"
}

func usdPoints(points [][3]float32) string {
	s := "["
	for i, p := range points {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("(%g, %g, %g)", p[0], p[1], p[2])
	}
	return s + "]"
}

func usdUVs(uvs [][2]float32) string {
	s := "["
	for i, uv := range uvs {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("(%g, %g)", uv[0], uv[1])
	}
	return s + "]"
}

func init() {
	exporter.SetHandler("usd", &Exporter{})
}
