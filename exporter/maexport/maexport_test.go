package maexport

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
		t.Fatalf("scene file missing; files: %v", sink.Names())
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
		UVs: [][2]float32{{0, 0}, {1, 0}, {0, 1}},
	}
}

func TestHeaderAndTimeUnit(t *testing.T) {
	out := export(t, &scene.Scene{Name: "unit", FPS: 25, FrameCount: 48})

	for _, want := range []string{
		"//Maya ASCII 2020 scene",
		`requires maya "2020";`,
		"currentUnit -l centimeter -a degree -t pal;",
		"playbackOptions -min 1 -max 48 -ast 1 -aet 48;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("header misses %q:\n%s", want, out)
		}
	}
}

func TestUnknownFPSFallsBackToFilm(t *testing.T) {
	out := export(t, &scene.Scene{Name: "unit", FPS: 23.976, FrameCount: 1})
	if !strings.Contains(out, "-t film;") {
		t.Errorf("expected film time unit fallback:\n%s", out)
	}
}

func TestStaticMeshNode(t *testing.T) {
	s := &scene.Scene{Name: "unit", FPS: 24, FrameCount: 1,
		Nodes: []*scene.CanonicalNode{{
			Identity:  "Box01Shape",
			Role:      scene.RoleMesh,
			Category:  scene.CategoryStatic,
			Transform: []scene.TransformSample{{Time: 1.0 / 24.0, Matrix: mgl64.Translate3D(1, 2, 3)}},
			Shape:     triShape(),
		}}}
	out := export(t, s)

	if !strings.Contains(out, `createNode transform -n "Box01Shape";`) {
		t.Errorf("transform node missing:\n%s", out)
	}
	if !strings.Contains(out, `setAttr ".t" -type "double3" 1.000000 2.000000 3.000000;`) {
		t.Errorf("translation missing:\n%s", out)
	}
	if !strings.Contains(out, `createNode mesh -n "Box01ShapeShape" -p "Box01Shape";`) {
		t.Errorf("mesh shape missing:\n%s", out)
	}
	if !strings.Contains(out, `.vt[0:2]`) {
		t.Errorf("vertex block missing:\n%s", out)
	}
	if !strings.Contains(out, "f 3 0 1 2") {
		t.Errorf("face entry missing:\n%s", out)
	}
	if !strings.Contains(out, `.uvst[0].uvsp[0:2]`) {
		t.Errorf("uv set missing:\n%s", out)
	}
	if strings.Contains(out, "animCurve") {
		t.Errorf("static node should not emit anim curves:\n%s", out)
	}
}

func TestAnimatedTransformCurves(t *testing.T) {
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

	if !strings.Contains(out, `createNode animCurveTL -n "Tracker1_translateX";`) {
		t.Errorf("translateX curve missing:\n%s", out)
	}
	if !strings.Contains(out, `createNode animCurveTA -n "Tracker1_rotateZ";`) {
		t.Errorf("rotateZ curve missing:\n%s", out)
	}
	if !strings.Contains(out, `createNode animCurveTU -n "Tracker1_scaleY";`) {
		t.Errorf("scaleY curve missing:\n%s", out)
	}
	if !strings.Contains(out, `connectAttr "Tracker1_translateX.o" "Tracker1.tx";`) {
		t.Errorf("curve not connected:\n%s", out)
	}
	// frame/value pairs on the frame grid
	if !strings.Contains(out, " 1 0.000000 2 5.000000;") {
		t.Errorf("translateX keys missing:\n%s", out)
	}
}

func TestCameraAperturesInInches(t *testing.T) {
	s := &scene.Scene{Name: "unit", FPS: 24, FrameCount: 1,
		Nodes: []*scene.CanonicalNode{{
			Identity:  "Camera01Shape",
			Role:      scene.RoleCamera,
			Transform: []scene.TransformSample{{Time: 1.0 / 24.0, Matrix: mgl64.Ident4()}},
			Camera: []scene.CameraSample{
				{Time: 1.0 / 24.0, FocalLength: 35, HorizontalAperture: 2.54, VerticalAperture: 1.27}},
		}}}
	out := export(t, s)

	if !strings.Contains(out, `createNode camera -n "Camera01ShapeShape" -p "Camera01Shape";`) {
		t.Errorf("camera shape missing:\n%s", out)
	}
	if !strings.Contains(out, `setAttr ".fl" 35.000000;`) {
		t.Errorf("focal length missing:\n%s", out)
	}
	if !strings.Contains(out, `setAttr ".cap" -type "double2" 1.000000 0.500000;`) {
		t.Errorf("apertures should convert cm to inches:\n%s", out)
	}
}

func TestZoomWritesFocalCurve(t *testing.T) {
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

	if !strings.Contains(out, `createNode animCurveTU -n "Camera01Shape_focalLength";`) {
		t.Errorf("focal curve missing:\n%s", out)
	}
	if !strings.Contains(out, `connectAttr "Camera01Shape_focalLength.o" "Camera01ShapeShape.fl";`) {
		t.Errorf("focal curve not connected:\n%s", out)
	}
	if !strings.Contains(out, " 1 35.000000 2 50.000000;") {
		t.Errorf("focal keys missing:\n%s", out)
	}
}

func TestDeformingMeshFallsBackToRestPose(t *testing.T) {
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

	e := &Exporter{}
	plan := exporter.PlanFor(s, e)
	if plan.Of(s.Nodes[0]) != exporter.DispositionStaticFallback {
		t.Fatalf("disposition=%v; expected StaticFallback", plan.Of(s.Nodes[0]))
	}

	out := export(t, s)
	if !strings.Contains(out, `createNode mesh -n "FlagShapeShape"`) {
		t.Errorf("fallback mesh missing:\n%s", out)
	}
	// rest pose only, second sample stays out
	if strings.Contains(out, "7.000000") {
		t.Errorf("deformed frame leaked into rest pose:\n%s", out)
	}
}
