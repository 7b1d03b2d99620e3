package fbxexport

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mogaika/fbx"

	"github.com/mogaika/scene_cache_converter/exporter"
	"github.com/mogaika/scene_cache_converter/scene"
)

func quadNode(identity string) *scene.CanonicalNode {
	return &scene.CanonicalNode{
		Identity: identity,
		Role:     scene.RoleMesh,
		Category: scene.CategoryStatic,
		Transform: []scene.TransformSample{
			{Time: 1.0 / 24.0, Matrix: mgl64.Translate3D(1, 2, 3)}},
		Shape: &scene.ShapeData{
			Samples: []scene.MeshSample{{
				Time:        1.0 / 24.0,
				Positions:   [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
				FaceIndices: []int32{0, 1, 2, 3},
				FaceCounts:  []int32{4},
			}},
		},
	}
}

func findObject(f *FBXBuilder, name string) *fbx.Node {
	for _, object := range f.objects.Nodes {
		if object.Name == name {
			return object
		}
	}
	return nil
}

func findObjects(f *FBXBuilder, name string) []*fbx.Node {
	out := make([]*fbx.Node, 0)
	for _, object := range f.objects.Nodes {
		if object.Name == name {
			out = append(out, object)
		}
	}
	return out
}

func propValues(properties70 *fbx.Node, name string) []interface{} {
	for _, p := range properties70.GetNodes("P") {
		if p.Properties[0].(string) == name {
			return p.Properties[4:]
		}
	}
	return nil
}

func TestBinaryMagic(t *testing.T) {
	s := &scene.Scene{Name: "unit", FPS: 24, FrameCount: 1, SourceFile: "shot.abc",
		Nodes: []*scene.CanonicalNode{quadNode("Box01Shape")}}

	sink := &exporter.MemorySink{}
	e := &Exporter{}
	if err := e.Export(s, exporter.PlanFor(s, e), sink); err != nil {
		t.Fatal(err)
	}
	out := sink.File("unit.fbx")
	if out == nil {
		t.Fatalf("output missing; files: %v", sink.Names())
	}
	if !strings.HasPrefix(string(out), "Kaydara FBX Binary") {
		t.Errorf("output is not binary fbx: % x", out[:24])
	}
}

func TestModelCarriesLocalTransform(t *testing.T) {
	f := NewFBXBuilder("shot.abc")
	exportModel(f, quadNode("Box01Shape"))

	model := findObject(f, "Model")
	if model == nil {
		t.Fatal("Model object missing")
	}
	if name := model.Properties[1].(string); !strings.HasPrefix(name, "Box01Shape") {
		t.Errorf("model name=%q", name)
	}
	if class := model.Properties[2].(string); class != "Mesh" {
		t.Errorf("model class=%q; expected Mesh", class)
	}

	translation := propValues(model.GetNode("Properties70"), "Lcl Translation")
	if len(translation) != 3 ||
		translation[0].(float64) != 1 || translation[1].(float64) != 2 || translation[2].(float64) != 3 {
		t.Errorf("Lcl Translation=%v; expected (1, 2, 3)", translation)
	}
}

func TestPolygonLastIndexIsInverted(t *testing.T) {
	f := NewFBXBuilder("shot.abc")
	exportGeometry(f, quadNode("Box01Shape"))

	geometry := findObject(f, "Geometry")
	if geometry == nil {
		t.Fatal("Geometry object missing")
	}
	indexes := geometry.GetNode("PolygonVertexIndex").Properties[0].([]int32)
	want := []int32{0, 1, 2, -4}
	if len(indexes) != len(want) {
		t.Fatalf("indexes=%v; expected %v", indexes, want)
	}
	for i := range want {
		if indexes[i] != want[i] {
			t.Fatalf("indexes=%v; expected %v", indexes, want)
		}
	}

	vertices := geometry.GetNode("Vertices").Properties[0].([]float64)
	if len(vertices) != 12 {
		t.Errorf("vertex floats=%d; expected 12", len(vertices))
	}
}

func TestTransformCurvesPerChannel(t *testing.T) {
	s := &scene.Scene{Name: "unit", FPS: 24, FrameCount: 2}
	n := &scene.CanonicalNode{
		Identity: "Tracker1",
		Role:     scene.RoleLocator,
		Transform: []scene.TransformSample{
			{Time: 1.0 / 24.0, Matrix: mgl64.Ident4()},
			{Time: 2.0 / 24.0, Matrix: mgl64.Translate3D(5, 0, 0)},
		},
	}

	f := NewFBXBuilder("shot.abc")
	anim := newAnimStack(f, s)
	modelId := exportModel(f, n)
	anim.addTransformCurves(n, modelId)

	if len(findObjects(f, "AnimationCurveNode")) != 3 {
		t.Errorf("expected one curve node per T/R/S channel")
	}
	curves := findObjects(f, "AnimationCurve")
	if len(curves) != 9 {
		t.Fatalf("expected 9 axis curves, got %d", len(curves))
	}

	for _, curve := range curves {
		times := curve.GetNode("KeyTime").Properties[0].([]int64)
		values := curve.GetNode("KeyValueFloat").Properties[0].([]float32)
		if len(times) != 2 || len(values) != 2 {
			t.Fatalf("curve keys %d/%d; expected 2/2", len(times), len(values))
		}
		if times[1] <= times[0] {
			t.Errorf("key times not increasing: %v", times)
		}
	}

	// the translate X curve must reach 5 on the second key
	foundTX := false
	for _, curve := range curves {
		values := curve.GetNode("KeyValueFloat").Properties[0].([]float32)
		if values[0] == 0 && values[1] == 5 {
			foundTX = true
		}
	}
	if !foundTX {
		t.Errorf("no curve carries the x translation keys")
	}
}

func TestAnimStackStopTime(t *testing.T) {
	f := NewFBXBuilder("shot.abc")
	newAnimStack(f, &scene.Scene{Name: "unit", FPS: 24, FrameCount: 48})

	stack := findObject(f, "AnimationStack")
	if stack == nil {
		t.Fatal("AnimationStack missing")
	}
	stop := propValues(stack.GetNode("Properties70"), "LocalStop")
	want := int64(2 * FBX_KTIME)
	if len(stop) != 1 || stop[0].(int64) != want {
		t.Errorf("LocalStop=%v; expected %d ticks for 2 seconds", stop, want)
	}
}
