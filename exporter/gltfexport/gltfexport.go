package gltfexport

import (
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/scene_cache_converter/exporter"
	"github.com/mogaika/scene_cache_converter/scene"
	"github.com/mogaika/scene_cache_converter/utils"
)

// Exporter writes binary glTF 2.0. One gltf node per canonical node;
// TransformOnly motion becomes TRS animation channels sampled on the frame
// grid. Morph-target baking of deforming caches is not attempted, those
// nodes arrive planned as static fallback.
type Exporter struct{}

func (e *Exporter) Name() string          { return "gltf" }
func (e *Exporter) FileExtension() string { return ".glb" }

func (e *Exporter) SupportedCategories() []scene.AnimationCategory {
	return []scene.AnimationCategory{
		scene.CategoryStatic,
		scene.CategoryTransformOnly,
	}
}

func (e *Exporter) FallbackStatic() bool { return true }

func (e *Exporter) Export(s *scene.Scene, plan *exporter.Plan, sink exporter.OutputSink) error {
	out, err := sink.Create(exporter.OutputName(s, e))
	if err != nil {
		return err
	}
	defer out.Close()

	doc := gltf.NewDocument()
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:        "default",
		DoubleSided: true,
	})

	animation := &gltf.Animation{Name: "Take 001"}

	for _, n := range plan.Included(s) {
		nodeIndex := uint32(len(doc.Nodes))
		gltfNode := &gltf.Node{Name: n.Identity}

		if n.Role == scene.RoleMesh {
			gltfNode.Mesh = gltf.Index(exportMesh(doc, n))
		}

		if !n.StaticTransform() && plan.Of(n) == exporter.DispositionNative {
			t, q, sc := utils.DecomposeTRS(n.Transform[0].Matrix)
			gltfNode.Translation = [3]float32{float32(t[0]), float32(t[1]), float32(t[2])}
			gltfNode.Rotation = [4]float32{float32(q.X()), float32(q.Y()), float32(q.Z()), float32(q.W)}
			gltfNode.Scale = [3]float32{float32(sc[0]), float32(sc[1]), float32(sc[2])}
			addTransformChannels(doc, animation, nodeIndex, n)
		} else {
			m := n.Transform[0].Matrix
			for i := 0; i < 16; i++ {
				gltfNode.Matrix[i] = float32(m[i])
			}
		}

		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, nodeIndex)
		doc.Nodes = append(doc.Nodes, gltfNode)
	}

	if len(animation.Channels) > 0 {
		doc.Animations = append(doc.Animations, animation)
	}

	encoder := gltf.NewEncoder(out)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

func exportMesh(doc *gltf.Document, n *scene.CanonicalNode) uint32 {
	sample := n.Shape.SampleAt(0)

	attributes := make(map[string]uint32)
	attributes["POSITION"] = modeler.WritePosition(doc, sample.Positions)
	if len(sample.Normals) == len(sample.Positions) && len(sample.Normals) > 0 {
		attributes["NORMAL"] = modeler.WriteNormal(doc, sample.Normals)
	}
	if len(n.Shape.UVs) == len(sample.Positions) && len(n.Shape.UVs) > 0 {
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, n.Shape.UVs)
	}

	indicesAccessor := modeler.WriteIndices(doc, triangulate(sample))

	gltfMesh := &gltf.Mesh{
		Name: n.Identity,
		Primitives: []*gltf.Primitive{
			{
				Indices:    gltf.Index(indicesAccessor),
				Attributes: attributes,
				Material:   gltf.Index(0),
			},
		},
	}
	doc.Meshes = append(doc.Meshes, gltfMesh)
	return uint32(len(doc.Meshes) - 1)
}

// triangulate fans every n-gon around its first corner; glTF primitives only
// carry triangles.
func triangulate(sample *scene.MeshSample) []uint32 {
	indices := make([]uint32, 0, len(sample.FaceIndices))
	cursor := 0
	for _, count := range sample.FaceCounts {
		for k := 1; k+1 < int(count); k++ {
			indices = append(indices,
				uint32(sample.FaceIndices[cursor]),
				uint32(sample.FaceIndices[cursor+k]),
				uint32(sample.FaceIndices[cursor+k+1]))
		}
		cursor += int(count)
	}
	return indices
}

func addTransformChannels(doc *gltf.Document, animation *gltf.Animation, nodeIndex uint32, n *scene.CanonicalNode) {
	times := make([]float32, len(n.Transform))
	translations := make([][3]float32, len(n.Transform))
	rotations := make([][4]float32, len(n.Transform))
	scales := make([][3]float32, len(n.Transform))

	for i, ts := range n.Transform {
		times[i] = float32(ts.Time)
		t, q, sc := utils.DecomposeTRS(ts.Matrix)
		translations[i] = [3]float32{float32(t[0]), float32(t[1]), float32(t[2])}
		rotations[i] = [4]float32{float32(q.X()), float32(q.Y()), float32(q.Z()), float32(q.W)}
		scales[i] = [3]float32{float32(sc[0]), float32(sc[1]), float32(sc[2])}
	}

	input := writeTimesAccessor(doc, times)

	addChannel := func(path gltf.TRSProperty, output uint32) {
		sampler := &gltf.AnimationSampler{
			Input:         gltf.Index(input),
			Output:        gltf.Index(output),
			Interpolation: gltf.InterpolationLinear,
		}
		animation.Samplers = append(animation.Samplers, sampler)
		animation.Channels = append(animation.Channels, &gltf.Channel{
			Sampler: gltf.Index(uint32(len(animation.Samplers) - 1)),
			Target: gltf.ChannelTarget{
				Node: gltf.Index(nodeIndex),
				Path: path,
			},
		})
	}

	addChannel(gltf.TRSTranslation, modeler.WritePosition(doc, translations))
	addChannel(gltf.TRSRotation, modeler.WriteTangent(doc, rotations))
	addChannel(gltf.TRSScale, modeler.WritePosition(doc, scales))
}

// writeTimesAccessor stores the key times as a scalar float accessor with
// the min/max bounds animation samplers require on their input. The modeler
// helpers only cover mesh attributes, so this one is written by hand.
func writeTimesAccessor(doc *gltf.Document, times []float32) uint32 {
	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	}
	buffer := doc.Buffers[len(doc.Buffers)-1]

	for len(buffer.Data)%4 != 0 {
		buffer.Data = append(buffer.Data, 0)
	}
	offset := uint32(len(buffer.Data))
	for _, t := range times {
		bits := math.Float32bits(t)
		buffer.Data = append(buffer.Data,
			byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	buffer.ByteLength = uint32(len(buffer.Data))

	doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{
		Buffer:     uint32(len(doc.Buffers) - 1),
		ByteOffset: offset,
		ByteLength: uint32(len(times) * 4),
	})
	accessor := &gltf.Accessor{
		BufferView:    gltf.Index(uint32(len(doc.BufferViews) - 1)),
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorScalar,
		Count:         uint32(len(times)),
	}
	if len(times) > 0 {
		accessor.Min = []float32{times[0]}
		accessor.Max = []float32{times[len(times)-1]}
	}
	doc.Accessors = append(doc.Accessors, accessor)
	return uint32(len(doc.Accessors) - 1)
}

func init() {
	exporter.SetHandler("gltf", &Exporter{})
}
