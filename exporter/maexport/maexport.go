package maexport

import (
	"fmt"
	"io"

	"github.com/mogaika/scene_cache_converter/config"
	"github.com/mogaika/scene_cache_converter/exporter"
	"github.com/mogaika/scene_cache_converter/scene"
	"github.com/mogaika/scene_cache_converter/utils"
)

// Exporter writes Maya ASCII. Transform animation goes through animCurveTL /
// animCurveTA / animCurveTU nodes keyed on the frame grid; deforming meshes
// fall back to their rest pose since geometry caches are a binary sidecar
// format.
type Exporter struct{}

func (e *Exporter) Name() string          { return "ma" }
func (e *Exporter) FileExtension() string { return ".ma" }

func (e *Exporter) SupportedCategories() []scene.AnimationCategory {
	return []scene.AnimationCategory{
		scene.CategoryStatic,
		scene.CategoryTransformOnly,
	}
}

func (e *Exporter) FallbackStatic() bool { return true }

// mayaTimeUnits maps the canonical frame rate onto Maya's named time units.
var mayaTimeUnits = map[float64]string{
	15: "game", 24: "film", 25: "pal", 30: "ntsc", 48: "show", 50: "palf", 60: "ntscf",
}

func (e *Exporter) Export(s *scene.Scene, plan *exporter.Plan, sink exporter.OutputSink) error {
	out, err := sink.Create(exporter.OutputName(s, e))
	if err != nil {
		return err
	}
	defer out.Close()

	m := &maWriter{out: out, scene: s}

	timeUnit, ok := mayaTimeUnits[s.FPS]
	if !ok {
		timeUnit = "film"
	}

	m.w(`//Maya ASCII 2020 scene`)
	m.w(`//Name: %s.ma`, s.Name)
	m.w(`requires maya "2020";`)
	m.w(`currentUnit -l centimeter -a degree -t %s;`, timeUnit)
	m.w(`fileInfo "application" "maya";`)
	m.w(`playbackOptions -min 1 -max %d -ast 1 -aet %d;`, s.FrameCount, s.FrameCount)

	for _, n := range plan.Included(s) {
		m.writeNode(n, plan.Of(n))
	}

	m.w(`// End of %s.ma`, s.Name)
	return nil
}

type maWriter struct {
	out   io.Writer
	scene *scene.Scene
}

func (m *maWriter) w(format string, args ...interface{}) {
	m.out.Write(([]byte)(fmt.Sprintf(format+"\n", args...)))
}

func (m *maWriter) writeNode(n *scene.CanonicalNode, disp exporter.Disposition) {
	name := config.EncodeNodeName(n.Identity)

	m.w(`createNode transform -n "%s";`, name)
	m.w(`	setAttr ".rp" -type "double3" 0 0 0;`)

	t, r, sc := utils.DecomposeMat4(n.Transform[0].Matrix, utils.RotationMaya)
	m.w(`	setAttr ".t" -type "double3" %f %f %f;`, t[0], t[1], t[2])
	m.w(`	setAttr ".r" -type "double3" %f %f %f;`, r[0], r[1], r[2])
	m.w(`	setAttr ".s" -type "double3" %f %f %f;`, sc[0], sc[1], sc[2])

	switch n.Role {
	case scene.RoleMesh:
		m.writeMesh(n, name, disp)
	case scene.RoleCamera:
		m.writeCamera(n, name)
	}

	if !n.StaticTransform() {
		m.writeTransformCurves(n, name)
	}
}

func (m *maWriter) writeMesh(n *scene.CanonicalNode, parent string, disp exporter.Disposition) {
	sample := n.Shape.SampleAt(0)

	m.w(`createNode mesh -n "%sShape" -p "%s";`, parent, parent)
	m.w(`	setAttr -k off ".v";`)

	m.w(`	setAttr -s %d ".vt[0:%d]"`, len(sample.Positions), len(sample.Positions)-1)
	for _, p := range sample.Positions {
		m.w(`		%f %f %f`, p[0], p[1], p[2])
	}
	m.w(`	;`)

	m.w(`	setAttr -s %d ".fc[0:%d]" -type "polyFaces"`, len(sample.FaceCounts), len(sample.FaceCounts)-1)
	cursor := 0
	for _, count := range sample.FaceCounts {
		line := fmt.Sprintf(`		f %d`, count)
		for k := 0; k < int(count); k++ {
			line += fmt.Sprintf(" %d", sample.FaceIndices[cursor+k])
		}
		m.w(`%s`, line)
		cursor += int(count)
	}
	m.w(`	;`)

	if len(n.Shape.UVs) > 0 {
		m.w(`	setAttr -s %d ".uvst[0].uvsp[0:%d]" -type "float2"`, len(n.Shape.UVs), len(n.Shape.UVs)-1)
		for _, uv := range n.Shape.UVs {
			m.w(`		%f %f`, uv[0], uv[1])
		}
		m.w(`	;`)
	}
}

func (m *maWriter) writeCamera(n *scene.CanonicalNode, parent string) {
	cs := scene.CameraSample{FocalLength: 35, HorizontalAperture: 3.6, VerticalAperture: 2.4}
	if len(n.Camera) > 0 {
		cs = n.Camera[0]
	}
	// Maya stores film apertures in inches
	m.w(`createNode camera -n "%sShape" -p "%s";`, parent, parent)
	m.w(`	setAttr -k off ".v";`)
	m.w(`	setAttr ".fl" %f;`, cs.FocalLength)
	m.w(`	setAttr ".cap" -type "double2" %f %f;`, cs.HorizontalAperture/2.54, cs.VerticalAperture/2.54)

	if animated, focals := cameraFocalTrack(n.Camera); animated {
		curve := config.EncodeNodeName(parent) + "_focalLength"
		m.w(`createNode animCurveTU -n "%s";`, curve)
		m.writeKeys(focals)
		m.w(`connectAttr "%s.o" "%sShape.fl";`, curve, parent)
	}
}

func cameraFocalTrack(samples []scene.CameraSample) (bool, []float64) {
	if len(samples) < 2 {
		return false, nil
	}
	animated := false
	focals := make([]float64, len(samples))
	for i, cs := range samples {
		focals[i] = cs.FocalLength
		if cs.FocalLength != samples[0].FocalLength {
			animated = true
		}
	}
	return animated, focals
}

// writeTransformCurves emits the nine TRS channels as individual anim curves
// connected to the transform, keyed per frame.
func (m *maWriter) writeTransformCurves(n *scene.CanonicalNode, name string) {
	type channel struct {
		curveType string
		suffix    string
		attr      string
		values    []float64
	}

	channels := []channel{
		{"animCurveTL", "translateX", "tx", nil}, {"animCurveTL", "translateY", "ty", nil}, {"animCurveTL", "translateZ", "tz", nil},
		{"animCurveTA", "rotateX", "rx", nil}, {"animCurveTA", "rotateY", "ry", nil}, {"animCurveTA", "rotateZ", "rz", nil},
		{"animCurveTU", "scaleX", "sx", nil}, {"animCurveTU", "scaleY", "sy", nil}, {"animCurveTU", "scaleZ", "sz", nil},
	}
	for i := range channels {
		channels[i].values = make([]float64, len(n.Transform))
	}

	for f, ts := range n.Transform {
		t, r, sc := utils.DecomposeMat4(ts.Matrix, utils.RotationMaya)
		trs := [9]float64{t[0], t[1], t[2], r[0], r[1], r[2], sc[0], sc[1], sc[2]}
		for c := range channels {
			channels[c].values[f] = trs[c]
		}
	}

	for _, ch := range channels {
		curve := name + "_" + ch.suffix
		m.w(`createNode %s -n "%s";`, ch.curveType, curve)
		m.writeKeys(ch.values)
		m.w(`connectAttr "%s.o" "%s.%s";`, curve, name, ch.attr)
	}
}

func (m *maWriter) writeKeys(values []float64) {
	m.w(`	setAttr ".tan" 2;`)
	m.w(`	setAttr -s %d ".ktv[0:%d]"`, len(values), len(values)-1)
	line := "		"
	for f, v := range values {
		line += fmt.Sprintf(" %d %f", f+1, v)
	}
	m.w(`%s;`, line)
}

func init() {
	exporter.SetHandler("ma", &Exporter{})
}
