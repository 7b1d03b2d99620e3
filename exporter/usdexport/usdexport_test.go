package usdexport

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/scene_cache_converter/exporter"
	"github.com/mogaika/scene_cache_converter/scene"
)

func export(t *testing.T, s *scene.Scene) string {
	t.Helper()
	sink := &exporter.MemorySink{}
	e := &Exporter{}
	if err := e.Export(s, exporter.PlanFor(s, e), sink); err != nil {
		t.Fatal(err)
	}
	out := sink.File(exporter.OutputName(s, e))
	if out == nil {
		t.Fatalf("stage missing; files: %v", sink.Names())
	}
	return string(out)
}

func triShape() *scene.ShapeData {
	return &scene.ShapeData{
		Samples: []scene.MeshSample{{
			Time:        1.0 / 24.0,
			Positions:   [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			FaceIndices: []int32{0, 1, 2},
			FaceCounts:  []int32{3},
		}},
	}
}

func TestStageHeader(t *testing.T) {
	s := &scene.Scene{Name: "unit", FPS: 25, FrameCount: 48}
	out := export(t, s)

	for _, want := range []string{
		"#usda 1.0",
		`upAxis = "Y"`,
		"metersPerUnit = 0.01",
		"timeCodesPerSecond = 25",
		"startTimeCode = 1",
		"endTimeCode = 48",
		`def Xform "World"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stage misses %q:\n%s", want, out)
		}
	}
}

func TestStaticMeshPrim(t *testing.T) {
	s := &scene.Scene{Name: "unit", FPS: 24, FrameCount: 1,
		Nodes: []*scene.CanonicalNode{{
			Identity:   "Box01Shape",
			SourcePath: "/Box01",
			Role:       scene.RoleMesh,
			Category:   scene.CategoryStatic,
			Transform:  []scene.TransformSample{{Time: 1.0 / 24.0, Matrix: mgl64.Translate3D(1, 2, 3)}},
			Shape:      triShape(),
		}}}
	out := export(t, s)

	if !strings.Contains(out, `def Mesh "Box01Shape"`) {
		t.Errorf("mesh prim missing:\n%s", out)
	}
	if !strings.Contains(out, `string sourcePath = "/Box01"`) {
		t.Errorf("source path custom data missing:\n%s", out)
	}
	// row-vector convention puts the translation in the fourth row
	if !strings.Contains(out, "(1, 2, 3, 1) )") {
		t.Errorf("translation row missing:\n%s", out)
	}
	if !strings.Contains(out, "int[] faceVertexCounts = [3]") ||
		!strings.Contains(out, "int[] faceVertexIndices = [0, 1, 2]") {
		t.Errorf("topology missing:\n%s", out)
	}
	if !strings.Contains(out, "point3f[] points = [(0, 0, 0), (1, 0, 0), (0, 1, 0)]") {
		t.Errorf("points missing:\n%s", out)
	}
	if !strings.Contains(out, `uniform token subdivisionScheme = "none"`) {
		t.Errorf("subdivision scheme missing:\n%s", out)
	}
	if strings.Contains(out, "timeSamples") {
		t.Errorf("static prim should not carry timeSamples:\n%s", out)
	}
}

func TestAnimatedTransformTimeSamples(t *testing.T) {
	s := &scene.Scene{Name: "unit", FPS: 24, FrameCount: 2,
		Nodes: []*scene.CanonicalNode{{
			Identity: "Tracker1",
			Role:     scene.RoleLocator,
			Transform: []scene.TransformSample{
				{Time: 1.0 / 24.0, Matrix: mgl64.Ident4()},
				{Time: 2.0 / 24.0, Matrix: mgl64.Translate3D(5, 0, 0)},
			},
		}}}
	out := export(t, s)

	if !strings.Contains(out, `def Xform "Tracker1"`) {
		t.Errorf("locator prim missing:\n%s", out)
	}
	if !strings.Contains(out, "matrix4d xformOp:transform.timeSamples = {") {
		t.Errorf("transform timeSamples missing:\n%s", out)
	}
	if !strings.Contains(out, "1: (") || !strings.Contains(out, "2: (") {
		t.Errorf("expected keys for both frames:\n%s", out)
	}
	if !strings.Contains(out, `uniform token[] xformOpOrder = ["xformOp:transform"]`) {
		t.Errorf("xformOpOrder missing:\n%s", out)
	}
}

func TestDeformingMeshPointsTimeSamples(t *testing.T) {
	shape := triShape()
	shape.Variance = scene.TopologyHomogeneous
	shape.Samples = append(shape.Samples, scene.MeshSample{
		Time:        2.0 / 24.0,
		Positions:   [][3]float32{{0, 0, 7}, {1, 0, 0}, {0, 1, 0}},
		FaceIndices: []int32{0, 1, 2},
		FaceCounts:  []int32{3},
	})
	s := &scene.Scene{Name: "unit", FPS: 24, FrameCount: 2,
		Nodes: []*scene.CanonicalNode{{
			Identity:  "FlagShape",
			Role:      scene.RoleMesh,
			Category:  scene.CategoryVertexDeforming,
			Transform: []scene.TransformSample{{Time: 1.0 / 24.0, Matrix: mgl64.Ident4()}},
			Shape:     shape,
		}}}
	out := export(t, s)

	if !strings.Contains(out, "point3f[] points.timeSamples = {") {
		t.Errorf("deforming mesh should write point timeSamples:\n%s", out)
	}
	if !strings.Contains(out, "(0, 0, 7)") {
		t.Errorf("second frame positions missing:\n%s", out)
	}
}

func TestCameraAperturesInMillimeters(t *testing.T) {
	s := &scene.Scene{Name: "unit", FPS: 24, FrameCount: 2,
		Nodes: []*scene.CanonicalNode{{
			Identity:  "Camera01Shape",
			Role:      scene.RoleCamera,
			Transform: []scene.TransformSample{{Time: 1.0 / 24.0, Matrix: mgl64.Ident4()}},
			Camera: []scene.CameraSample{
				{Time: 1.0 / 24.0, FocalLength: 35, HorizontalAperture: 3.6, VerticalAperture: 2.4},
				{Time: 2.0 / 24.0, FocalLength: 35, HorizontalAperture: 3.6, VerticalAperture: 2.4},
			},
		}}}
	out := export(t, s)

	if !strings.Contains(out, `def Camera "Camera01Shape"`) {
		t.Errorf("camera prim missing:\n%s", out)
	}
	if !strings.Contains(out, "float focalLength = 35") {
		t.Errorf("focal length missing:\n%s", out)
	}
	if !strings.Contains(out, "float horizontalAperture = 36") ||
		!strings.Contains(out, "float verticalAperture = 24") {
		t.Errorf("apertures should convert cm to mm:\n%s", out)
	}
}

func TestAnimatedLensTimeSamples(t *testing.T) {
	s := &scene.Scene{Name: "unit", FPS: 24, FrameCount: 2,
		Nodes: []*scene.CanonicalNode{{
			Identity:  "Camera01Shape",
			Role:      scene.RoleCamera,
			Transform: []scene.TransformSample{{Time: 1.0 / 24.0, Matrix: mgl64.Ident4()}},
			Camera: []scene.CameraSample{
				{Time: 1.0 / 24.0, FocalLength: 35, HorizontalAperture: 3.6, VerticalAperture: 2.4},
				{Time: 2.0 / 24.0, FocalLength: 50, HorizontalAperture: 3.6, VerticalAperture: 2.4},
			},
		}}}
	out := export(t, s)

	if !strings.Contains(out, "float focalLength.timeSamples = {") {
		t.Errorf("zoom should write focal timeSamples:\n%s", out)
	}
	if !strings.Contains(out, "2: 50,") {
		t.Errorf("second frame focal missing:\n%s", out)
	}
}
