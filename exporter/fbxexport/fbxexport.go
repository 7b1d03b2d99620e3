package fbxexport

import (
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/scene_cache_converter/exporter"
	"github.com/mogaika/scene_cache_converter/scene"
	"github.com/mogaika/scene_cache_converter/utils"
)

// Exporter writes binary FBX 7.4. Transform animation becomes anim stack /
// layer / curve-node objects keyed on the frame grid; vertex deformation has
// no sensible mapping without skin weights and is skipped by plan.
type Exporter struct{}

func (e *Exporter) Name() string          { return "fbx" }
func (e *Exporter) FileExtension() string { return ".fbx" }

func (e *Exporter) SupportedCategories() []scene.AnimationCategory {
	return []scene.AnimationCategory{
		scene.CategoryStatic,
		scene.CategoryTransformOnly,
	}
}

func (e *Exporter) Export(s *scene.Scene, plan *exporter.Plan, sink exporter.OutputSink) error {
	out, err := sink.Create(exporter.OutputName(s, e))
	if err != nil {
		return err
	}
	defer out.Close()

	f := NewFBXBuilder(s.SourceFile)
	anim := newAnimStack(f, s)

	for _, n := range plan.Included(s) {
		modelId := exportModel(f, n)
		if !n.StaticTransform() && plan.Of(n) == exporter.DispositionNative {
			anim.addTransformCurves(n, modelId)
		}
	}

	return f.Write(out)
}

// rawNode builds fbx records bfbx73 has no builder for, mainly the
// animation object family.
func rawNode(name string, props ...interface{}) *fbx.Node {
	return &fbx.Node{Name: name, Properties: props}
}

func exportModel(f *FBXBuilder, n *scene.CanonicalNode) int64 {
	t, r, sc := utils.DecomposeMat4(n.Transform[0].Matrix, utils.RotationMaya)

	class := "Null"
	switch n.Role {
	case scene.RoleMesh:
		class = "Mesh"
	case scene.RoleCamera:
		class = "Camera"
	}

	modelId := f.GenerateId()
	model := bfbx73.Model(modelId, n.Identity+"\x00\x01Model", class).AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", t[0], t[1], t[2]),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", r[0], r[1], r[2]),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", sc[0], sc[1], sc[2]),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
	f.AddObjects(model)
	f.AddConnections(bfbx73.C("OO", modelId, 0))

	switch n.Role {
	case scene.RoleMesh:
		geometryId := exportGeometry(f, n)
		f.AddConnections(bfbx73.C("OO", geometryId, modelId))
	case scene.RoleCamera:
		attrId := exportCameraAttribute(f, n)
		f.AddConnections(bfbx73.C("OO", attrId, modelId))
	case scene.RoleLocator:
		attrId := f.GenerateId()
		f.AddObjects(bfbx73.NodeAttribute(attrId, n.Identity+"\x00\x01NodeAttribute", "Null").AddNodes(
			bfbx73.TypeFlags("Null"),
		))
		f.AddConnections(bfbx73.C("OO", attrId, modelId))
	}
	return modelId
}

func exportGeometry(f *FBXBuilder, n *scene.CanonicalNode) int64 {
	sample := n.Shape.SampleAt(0)

	vertices := make([]float64, 0, len(sample.Positions)*3)
	for _, p := range sample.Positions {
		vertices = append(vertices, float64(p[0]), float64(p[1]), float64(p[2]))
	}

	// last index of every polygon is bit-inverted to mark the face end
	indexes := make([]int32, 0, len(sample.FaceIndices))
	cursor := 0
	for _, count := range sample.FaceCounts {
		for k := 0; k < int(count); k++ {
			idx := sample.FaceIndices[cursor+k]
			if k == int(count)-1 {
				idx = -(idx + 1)
			}
			indexes = append(indexes, idx)
		}
		cursor += int(count)
	}

	geometryId := f.GenerateId()
	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)
	geometry := bfbx73.Geometry(geometryId, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		geometryLayer,
	)

	if len(sample.Normals) == len(sample.Positions) && len(sample.Normals) > 0 {
		normals := make([]float64, 0, len(sample.Normals)*3)
		for _, nv := range sample.Normals {
			normals = append(normals, float64(nv[0]), float64(nv[1]), float64(nv[2]))
		}
		geometry.AddNode(
			bfbx73.LayerElementNormal(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByVertice"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Normals(normals),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementNormal"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	if len(n.Shape.UVs) == len(sample.Positions) && len(n.Shape.UVs) > 0 {
		uv := make([]float64, 0, len(n.Shape.UVs)*2)
		for _, st := range n.Shape.UVs {
			uv = append(uv, float64(st[0]), float64(-st[1]))
		}
		geometry.AddNode(
			bfbx73.LayerElementUV(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByVertice"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.UV(uv),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementUV"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	f.AddObjects(geometry)
	return geometryId
}

func exportCameraAttribute(f *FBXBuilder, n *scene.CanonicalNode) int64 {
	cs := scene.CameraSample{FocalLength: 35, HorizontalAperture: 3.6, VerticalAperture: 2.4}
	if len(n.Camera) > 0 {
		cs = n.Camera[0]
	}

	attrId := f.GenerateId()
	f.AddObjects(bfbx73.NodeAttribute(attrId, n.Identity+"\x00\x01NodeAttribute", "Camera").AddNodes(
		bfbx73.TypeFlags("Camera"),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("FocalLength", "Number", "", "A", cs.FocalLength),
			// film back stored in inches
			bfbx73.P("FilmWidth", "Number", "", "A", cs.HorizontalAperture/2.54),
			bfbx73.P("FilmHeight", "Number", "", "A", cs.VerticalAperture/2.54),
			bfbx73.P("ApertureMode", "enum", "", "", int32(2)),
		),
	))
	return attrId
}

// animStack owns the single take every animated node keys into.
type animStack struct {
	f       *FBXBuilder
	layerId int64
}

func newAnimStack(f *FBXBuilder, s *scene.Scene) *animStack {
	stop := int64(float64(s.FrameCount) / s.FPS * float64(FBX_KTIME))

	stackId := f.GenerateId()
	layerId := f.GenerateId()

	f.AddObjects(
		rawNode("AnimationStack", stackId, "Take 001\x00\x01AnimStack", "").AddNodes(
			bfbx73.Properties70().AddNodes(
				bfbx73.P("LocalStop", "KTime", "Time", "", stop),
				bfbx73.P("ReferenceStop", "KTime", "Time", "", stop),
			),
		),
		rawNode("AnimationLayer", layerId, "BaseLayer\x00\x01AnimLayer", ""),
	)
	f.AddConnections(bfbx73.C("OO", layerId, stackId))

	return &animStack{f: f, layerId: layerId}
}

func (a *animStack) addTransformCurves(n *scene.CanonicalNode, modelId int64) {
	times := make([]int64, len(n.Transform))
	channels := [3][3][]float32{}
	for c := 0; c < 3; c++ {
		for axis := 0; axis < 3; axis++ {
			channels[c][axis] = make([]float32, len(n.Transform))
		}
	}

	for i, ts := range n.Transform {
		times[i] = int64(ts.Time * float64(FBX_KTIME))
		t, r, sc := utils.DecomposeMat4(ts.Matrix, utils.RotationMaya)
		trs := [3][3]float64{{t[0], t[1], t[2]}, {r[0], r[1], r[2]}, {sc[0], sc[1], sc[2]}}
		for c := 0; c < 3; c++ {
			for axis := 0; axis < 3; axis++ {
				channels[c][axis][i] = float32(trs[c][axis])
			}
		}
	}

	names := [3]string{"T", "R", "S"}
	targets := [3]string{"Lcl Translation", "Lcl Rotation", "Lcl Scaling"}
	axes := [3]string{"d|X", "d|Y", "d|Z"}

	for c := 0; c < 3; c++ {
		curveNodeId := a.f.GenerateId()
		a.f.AddObjects(
			rawNode("AnimationCurveNode", curveNodeId, names[c]+"\x00\x01AnimCurveNode", "").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("d|X", "Number", "", "A", float64(channels[c][0][0])),
					bfbx73.P("d|Y", "Number", "", "A", float64(channels[c][1][0])),
					bfbx73.P("d|Z", "Number", "", "A", float64(channels[c][2][0])),
				),
			),
		)
		a.f.AddConnections(
			bfbx73.C("OO", curveNodeId, a.layerId),
			rawNode("C", "OP", curveNodeId, modelId, targets[c]),
		)

		for axis := 0; axis < 3; axis++ {
			curveId := a.f.GenerateId()
			a.f.AddObjects(
				rawNode("AnimationCurve", curveId, "\x00\x01AnimCurve", "").AddNodes(
					rawNode("Default", float64(channels[c][axis][0])),
					rawNode("KeyVer", int32(4008)),
					rawNode("KeyTime", times),
					rawNode("KeyValueFloat", channels[c][axis]),
					rawNode("KeyAttrFlags", []int32{24836}),
					rawNode("KeyAttrDataFloat", []float32{0, 0, 0, 0}),
					rawNode("KeyAttrRefCount", []int32{int32(len(times))}),
				),
			)
			a.f.AddConnections(rawNode("C", "OP", curveId, curveNodeId, axes[axis]))
		}
	}
}

func init() {
	exporter.SetHandler("fbx", &Exporter{})
}
