package jsondump

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/scene_cache_converter/readers"
	"github.com/mogaika/scene_cache_converter/scene"
)

// Reader for the JSON scene-dump interchange format produced by DCC-side
// dump scripts. Matrices arrive flattened row-major, the way the scripting
// APIs hand them out; reading that layout column-major is exactly the
// transpose into the column-vector convention, so no extra shuffle is needed.

type dumpFile struct {
	Name        string        `json:"name"`
	FPS         float64       `json:"fps"`
	FrameCount  int           `json:"frameCount"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	FootagePath string        `json:"footagePath"`
	Axis        dumpAxis      `json:"axis"`
	Sampling    *dumpSampling `json:"sampling"`
	Root        *dumpNode     `json:"root"`
}

type dumpAxis struct {
	Up          string  `json:"up"`
	RightHanded *bool   `json:"rightHanded"`
	UnitScale   float64 `json:"unitScale"`
}

type dumpSampling struct {
	Kind       string    `json:"kind"`
	FPS        float64   `json:"fps"`
	NumSamples int       `json:"numSamples"`
	Times      []float64 `json:"times"`
}

type dumpNode struct {
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	Transform []dumpTransform `json:"transform"`
	Mesh      *dumpMesh       `json:"mesh"`
	Camera    []dumpCamera    `json:"camera"`
	Children  []*dumpNode     `json:"children"`
}

type dumpTransform struct {
	Time   float64     `json:"time"`
	Matrix [16]float64 `json:"matrix"`
}

type dumpMesh struct {
	Samples []dumpMeshSample `json:"samples"`
	UVs     [][2]float32     `json:"uvs"`
}

type dumpMeshSample struct {
	Time        float64      `json:"time"`
	Positions   [][3]float32 `json:"positions"`
	Normals     [][3]float32 `json:"normals"`
	FaceIndices []int32      `json:"faceIndices"`
	FaceCounts  []int32      `json:"faceCounts"`
}

type dumpCamera struct {
	Time               float64 `json:"time"`
	FocalLength        float64 `json:"focalLength"`
	HorizontalAperture float64 `json:"horizontalAperture"`
	VerticalAperture   float64 `json:"verticalAperture"`
}

func Read(name string, r io.Reader) (*readers.Source, error) {
	var dump dumpFile
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return nil, scene.WrapKind(err, scene.ErrMalformedHierarchy,
			fmt.Sprintf("Failed to decode scene dump %q", name))
	}
	if dump.Root == nil {
		return nil, scene.MalformedHierarchyf("scene dump %q has no root node", name)
	}

	root, err := convertNode(dump.Root)
	if err != nil {
		return nil, err
	}

	src := &readers.Source{
		Root:       root,
		Convention: convertAxis(dump.Axis),
		Sampling:   convertSampling(&dump),
		Metadata: scene.Metadata{
			Name:        dump.Name,
			SourceFile:  name,
			Width:       dump.Width,
			Height:      dump.Height,
			FootagePath: dump.FootagePath,
		},
	}
	if src.Metadata.Name == "" {
		src.Metadata.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return src, nil
}

func convertAxis(a dumpAxis) scene.AxisConvention {
	conv := scene.CanonicalConvention()
	switch strings.ToUpper(a.Up) {
	case "X":
		conv.Up = scene.AxisX
	case "Z":
		conv.Up = scene.AxisZ
	}
	if a.RightHanded != nil {
		conv.RightHanded = *a.RightHanded
	}
	if a.UnitScale > 0 {
		conv.UnitScale = a.UnitScale
	}
	return conv
}

func convertSampling(dump *dumpFile) scene.TimeSampling {
	ts := scene.TimeSampling{
		Kind:       scene.SamplingUniform,
		FPS:        dump.FPS,
		NumSamples: dump.FrameCount,
	}
	if dump.Sampling == nil {
		return ts
	}
	switch strings.ToLower(dump.Sampling.Kind) {
	case "cyclic":
		ts.Kind = scene.SamplingCyclic
	case "acyclic":
		ts.Kind = scene.SamplingAcyclic
	}
	if dump.Sampling.FPS > 0 {
		ts.FPS = dump.Sampling.FPS
	}
	if dump.Sampling.NumSamples > 0 {
		ts.NumSamples = dump.Sampling.NumSamples
	}
	ts.Times = dump.Sampling.Times
	return ts
}

func convertNode(d *dumpNode) (*scene.RawNode, error) {
	kind, err := convertKind(d)
	if err != nil {
		return nil, err
	}

	n := &scene.RawNode{
		Name: d.Name,
		Kind: kind,
	}

	for _, ts := range d.Transform {
		n.Transform = append(n.Transform, scene.TransformSample{
			Time:   ts.Time,
			Matrix: mgl64.Mat4(ts.Matrix),
		})
	}

	if d.Mesh != nil {
		mesh := &scene.RawMeshData{UVs: d.Mesh.UVs}
		for _, ms := range d.Mesh.Samples {
			mesh.Samples = append(mesh.Samples, scene.MeshSample{
				Time:        ms.Time,
				Positions:   ms.Positions,
				Normals:     ms.Normals,
				FaceIndices: ms.FaceIndices,
				FaceCounts:  ms.FaceCounts,
			})
		}
		n.Mesh = mesh
	}

	for _, cs := range d.Camera {
		n.Camera = append(n.Camera, scene.CameraSample{
			Time:               cs.Time,
			FocalLength:        cs.FocalLength,
			HorizontalAperture: cs.HorizontalAperture,
			VerticalAperture:   cs.VerticalAperture,
		})
	}

	for _, child := range d.Children {
		converted, err := convertNode(child)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, converted)
	}
	return n, nil
}

func convertKind(d *dumpNode) (scene.NodeKind, error) {
	switch strings.ToLower(d.Kind) {
	case "transform", "xform", "":
		return scene.KindTransform, nil
	case "polymesh", "mesh":
		return scene.KindPolyMesh, nil
	case "camera":
		return scene.KindCamera, nil
	case "curves":
		return scene.KindCurves, nil
	case "points":
		return scene.KindPoints, nil
	case "nurbs", "nurbssurface":
		return scene.KindNurbsSurface, nil
	}
	return 0, scene.MalformedHierarchyf("node %q has unknown kind %q", d.Name, d.Kind)
}

func init() {
	readers.SetHandler(".json", Read)
	readers.SetHandler(".scenedump", Read)
}
