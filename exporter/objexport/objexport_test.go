package objexport

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/scene_cache_converter/exporter"
	"github.com/mogaika/scene_cache_converter/scene"
)

func quadSample(t float64) scene.MeshSample {
	return scene.MeshSample{
		Time:        t,
		Positions:   [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Normals:     [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		FaceIndices: []int32{0, 1, 2, 3},
		FaceCounts:  []int32{4},
	}
}

func staticNode(identity string, world mgl64.Mat4) *scene.CanonicalNode {
	return &scene.CanonicalNode{
		Identity: identity,
		Role:     scene.RoleMesh,
		Category: scene.CategoryStatic,
		Transform: []scene.TransformSample{{Time: 1.0 / 24.0, Matrix: world}},
		Shape: &scene.ShapeData{
			Samples: []scene.MeshSample{quadSample(1.0 / 24.0)},
			UVs:     [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		},
	}
}

func export(t *testing.T, s *scene.Scene) *exporter.MemorySink {
	t.Helper()
	sink := &exporter.MemorySink{}
	e := &Exporter{}
	if err := e.Export(s, exporter.PlanFor(s, e), sink); err != nil {
		t.Fatal(err)
	}
	return sink
}

func TestStaticMeshBakesWorldTransform(t *testing.T) {
	s := &scene.Scene{Name: "unit", FrameCount: 1,
		Nodes: []*scene.CanonicalNode{staticNode("Box01Shape", mgl64.Translate3D(10, 0, 0))}}

	sink := export(t, s)
	out := string(sink.File("unit.obj"))
	if out == "" {
		t.Fatalf("main obj missing; files: %v", sink.Names())
	}
	if !strings.Contains(out, "o Box01Shape\n") {
		t.Errorf("object line missing:\n%s", out)
	}
	if !strings.Contains(out, "v 10.000000 0.000000 0.000000\n") {
		t.Errorf("world transform not baked into vertices:\n%s", out)
	}
	// translation must not touch normals
	if !strings.Contains(out, "vn 0.000000 0.000000 1.000000\n") {
		t.Errorf("normal changed under translation:\n%s", out)
	}
	if !strings.Contains(out, "f 1/1/1 2/2/2 3/3/3 4/4/4\n") {
		t.Errorf("quad face missing:\n%s", out)
	}
	// a static mesh gets no per-frame sequence
	if len(sink.Names()) != 1 {
		t.Errorf("unexpected side files: %v", sink.Names())
	}
}

func TestUVsFlippedVertically(t *testing.T) {
	s := &scene.Scene{Name: "unit", FrameCount: 1,
		Nodes: []*scene.CanonicalNode{staticNode("Box01Shape", mgl64.Ident4())}}

	out := string(export(t, s).File("unit.obj"))
	if !strings.Contains(out, "vt 1.000000 -1.000000\n") {
		t.Errorf("v coordinate should be flipped:\n%s", out)
	}
}

func TestSecondMeshOffsetsIndices(t *testing.T) {
	s := &scene.Scene{Name: "unit", FrameCount: 1,
		Nodes: []*scene.CanonicalNode{
			staticNode("AShape", mgl64.Ident4()),
			staticNode("BShape", mgl64.Ident4()),
		}}

	out := string(export(t, s).File("unit.obj"))
	if !strings.Contains(out, "o BShape\n") {
		t.Fatalf("second object missing:\n%s", out)
	}
	if !strings.Contains(out, "f 5/5/5 6/6/6 7/7/7 8/8/8\n") {
		t.Errorf("second mesh should continue global indices:\n%s", out)
	}
}

func TestDeformingMeshWritesFrameSequence(t *testing.T) {
	n := &scene.CanonicalNode{
		Identity: "FlagShape",
		Role:     scene.RoleMesh,
		Category: scene.CategoryVertexDeforming,
		Transform: []scene.TransformSample{{Time: 1.0 / 24.0, Matrix: mgl64.Ident4()}},
		Shape: &scene.ShapeData{
			Variance: scene.TopologyHomogeneous,
			Samples: []scene.MeshSample{
				quadSample(1.0 / 24.0), quadSample(2.0 / 24.0), quadSample(3.0 / 24.0)},
		},
	}
	s := &scene.Scene{Name: "unit", FrameCount: 3, Nodes: []*scene.CanonicalNode{n}}

	sink := export(t, s)
	for f := 1; f <= 3; f++ {
		name := fmt.Sprintf("FlagShape_obj/FlagShape.%04d.obj", f)
		if sink.File(name) == nil {
			t.Errorf("sequence file %q missing; files: %v", name, sink.Names())
		}
	}
}
