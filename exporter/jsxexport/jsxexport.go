package jsxexport

import (
	"fmt"
	"io"
	"strings"

	"github.com/mogaika/scene_cache_converter/exporter"
	"github.com/mogaika/scene_cache_converter/scene"
	"github.com/mogaika/scene_cache_converter/utils"
)

// Exporter writes an After Effects JSX import script plus one rest-pose OBJ
// side file per mesh. AE layers only carry transform animation, so deforming
// meshes are planned out before Export runs; everything else becomes camera,
// null or footage layers keyed with setValuesAtTimes arrays.
type Exporter struct{}

func (e *Exporter) Name() string          { return "jsx" }
func (e *Exporter) FileExtension() string { return ".jsx" }

func (e *Exporter) SupportedCategories() []scene.AnimationCategory {
	return []scene.AnimationCategory{
		scene.CategoryStatic,
		scene.CategoryTransformOnly,
	}
}

// AE composition space: 10 px per canonical centimeter, Y down, origin at
// the composition center, Z toward the viewer.
const pixelsPerUnit = 10.0

func (e *Exporter) Export(s *scene.Scene, plan *exporter.Plan, sink exporter.OutputSink) error {
	out, err := sink.Create(exporter.OutputName(s, e))
	if err != nil {
		return err
	}
	defer out.Close()

	j := &jsxWriter{out: out, scene: s}

	j.writeHeader()
	j.writeHelpers()

	j.w("function SceneImportFunction() {")
	j.w("")
	j.w("app.exitAfterLaunchAndEval = false;")
	j.w("")
	j.w("app.beginUndoGroup('Scene Import');")
	j.w("")
	j.w("var comp = app.project.items.addComp('%s', %d, %d, 1.0, %f, %g);",
		s.Name, s.Width, s.Height, float64(s.FrameCount)/s.FPS, s.FPS)
	j.w("comp.displayStartFrame = 1;")
	j.w("")

	if s.FootagePath != "" {
		j.writeFootageImport()
	}

	for _, n := range plan.Included(s) {
		switch n.Role {
		case scene.RoleCamera:
			j.writeCamera(n)
		case scene.RoleMesh:
			if err := j.writeMesh(n, sink); err != nil {
				return err
			}
		case scene.RoleLocator:
			j.writeLocator(n)
		}
		j.w("")
	}

	j.writeFooter()
	return nil
}

type jsxWriter struct {
	out   io.Writer
	scene *scene.Scene
}

func (j *jsxWriter) w(format string, args ...interface{}) {
	j.out.Write(([]byte)(fmt.Sprintf(format+"\n", args...)))
}

func (j *jsxWriter) writeHeader() {
	j.w("// Auto-generated scene import script")
	j.w("// Exported from: %s", j.scene.SourceFile)
	j.w("// Y-up coordinate system, 1:1 scale")
	j.w("")
	j.w("app.activate();")
	j.w("")
}

func (j *jsxWriter) writeHelpers() {
	j.w("function findComp(nm) {")
	j.w("    var i, n, prjitm;")
	j.w("")
	j.w("    prjitm = app.project.items;")
	j.w("    n = prjitm.length;")
	j.w("    for (i = 1; i <= n; i++) {")
	j.w("        if (prjitm[i].name == nm)")
	j.w("            return prjitm[i];")
	j.w("    }")
	j.w("    return null;")
	j.w("}")
	j.w("")
	j.w("function deselectAll(items) {")
	j.w("    var i, itm;")
	j.w("")
	j.w("    for (i = 1; i <= items.length; i++) {")
	j.w("        itm = items[i];")
	j.w("        if (itm instanceof FolderItem)")
	j.w("            deselectAll(itm.items);")
	j.w("        itm.selected = false;")
	j.w("    };")
	j.w("}")
	j.w("")
}

func (j *jsxWriter) writeFootageImport() {
	j.w("// Import footage file recorded in the source metadata")
	j.w("var footagePath = '%s';", strings.ReplaceAll(j.scene.FootagePath, "\\", "/"))
	j.w("var footageFile = new File(footagePath);")
	j.w("if (footageFile.exists) {")
	j.w("    var footageImportOptions = new ImportOptions(footageFile);")
	j.w("    var footageItem = app.project.importFile(footageImportOptions);")
	j.w("    footageItem.selected = false;")
	j.w("    footageItem.name = '%s_Footage';", j.scene.Name)
	j.w("    var footageLayer = comp.layers.add(footageItem);")
	j.w("    footageLayer.name = '%s_Footage';", j.scene.Name)
	j.w("    footageLayer.moveToEnd();")
	j.w("} else {")
	j.w("    alert('Warning: Footage file not found at path: ' + footagePath);")
	j.w("}")
	j.w("")
}

func (j *jsxWriter) writeFooter() {
	j.w("// Make comp the current open composition")
	j.w("comp.selected = true;")
	j.w("deselectAll(app.project.items);")
	j.w("comp.selected = true;")
	j.w("comp.openInViewer();")
	j.w("")
	j.w("app.endUndoGroup();")
	j.w("alert('Scene import complete!');")
	j.w("")
	j.w("} // End SceneImportFunction")
	j.w("")
	j.w("SceneImportFunction();")
}

func layerVar(prefix, name string) string {
	clean := strings.ReplaceAll(strings.ReplaceAll(name, " ", "_"), "-", "_")
	return prefix + "_" + clean
}

// track is the per-frame channel data of one layer, already remapped into
// composition space.
type track struct {
	times      []float64
	pos        [][3]float64
	rot        [][3]float64
	scale      [][3]float64
	animated   bool
	frameCount int
}

func (j *jsxWriter) collectTrack(n *scene.CanonicalNode, scaleFactor float64) track {
	cx := float64(j.scene.Width) / 2
	cy := float64(j.scene.Height) / 2

	tr := track{frameCount: len(n.Transform)}
	for f, ts := range n.Transform {
		t, r, sc := utils.DecomposeMat4(ts.Matrix, utils.RotationScript)
		tr.times = append(tr.times, ts.Time)
		tr.pos = append(tr.pos, [3]float64{
			t[0]*pixelsPerUnit + cx,
			-t[1]*pixelsPerUnit + cy,
			-t[2] * pixelsPerUnit})
		tr.rot = append(tr.rot, [3]float64{-r[0], r[1], r[2]})
		tr.scale = append(tr.scale, [3]float64{sc[0] * scaleFactor, sc[1] * scaleFactor, sc[2] * scaleFactor})

		if f > 0 && (tr.pos[f] != tr.pos[0] || tr.rot[f] != tr.rot[0] || tr.scale[f] != tr.scale[0]) {
			tr.animated = true
		}
	}
	return tr
}

func (j *jsxWriter) writeTrackArrays(v string, tr track, withScale bool) {
	j.w("var timesArray = new Array();")
	j.w("var posArray = new Array();")
	j.w("var rotXArray = new Array();")
	j.w("var rotYArray = new Array();")
	j.w("var rotZArray = new Array();")
	if withScale {
		j.w("var scaleArray = new Array();")
	}
	for f := range tr.times {
		j.w("timesArray.push(%.10f);", tr.times[f])
		j.w("posArray.push([%.10f, %.10f, %.10f]);", tr.pos[f][0], tr.pos[f][1], tr.pos[f][2])
		j.w("rotXArray.push(%.10f);", tr.rot[f][0])
		j.w("rotYArray.push(%.10f);", tr.rot[f][1])
		j.w("rotZArray.push(%.10f);", tr.rot[f][2])
		if withScale {
			j.w("scaleArray.push([%.10f, %.10f, %.10f]);", tr.scale[f][0], tr.scale[f][1], tr.scale[f][2])
		}
	}
	j.w("%s.position.setValuesAtTimes(timesArray, posArray);", v)
	j.w("%s.rotationX.setValuesAtTimes(timesArray, rotXArray);", v)
	j.w("%s.rotationY.setValuesAtTimes(timesArray, rotYArray);", v)
	j.w("%s.rotationZ.setValuesAtTimes(timesArray, rotZArray);", v)
	if withScale {
		j.w("%s.scale.setValuesAtTimes(timesArray, scaleArray);", v)
	}
}

func (j *jsxWriter) writeStaticTrack(v string, tr track, withScale bool) {
	if withScale {
		j.w("%s.scale.setValue([%.10f, %.10f, %.10f]);", v, tr.scale[0][0], tr.scale[0][1], tr.scale[0][2])
	}
	j.w("%s.position.setValue([%.10f, %.10f, %.10f]);", v, tr.pos[0][0], tr.pos[0][1], tr.pos[0][2])
	j.w("%s.rotationX.setValue(%.10f);", v, tr.rot[0][0])
	j.w("%s.rotationY.setValue(%.10f);", v, tr.rot[0][1])
	j.w("%s.rotationZ.setValue(%.10f);", v, tr.rot[0][2])
}

func (j *jsxWriter) writeCamera(n *scene.CanonicalNode) {
	v := layerVar("camera", n.Identity)

	cs := scene.CameraSample{FocalLength: 35, HorizontalAperture: 3.6}
	if len(n.Camera) > 0 {
		cs = n.Camera[0]
	}
	// AE zoom in pixels from focal length over the film back width (cm to mm)
	zoom := cs.FocalLength * float64(j.scene.Width) / (cs.HorizontalAperture * 10)

	j.w("var %s = comp.layers.addCamera('%s', [0, 0]);", v, n.Identity)
	j.w("%s.autoOrient = AutoOrientType.NO_AUTO_ORIENT;", v)

	tr := j.collectTrack(n, 1.0)
	if tr.animated {
		j.writeTrackArrays(v, tr, false)
	} else if tr.frameCount > 0 {
		j.writeStaticTrack(v, tr, false)
	}
	j.w("%s.zoom.setValue(%.10f);", v, zoom)
}

func (j *jsxWriter) writeMesh(n *scene.CanonicalNode, sink exporter.OutputSink) error {
	v := layerVar("mesh", n.Identity)
	objName := n.Identity + ".obj"

	if err := writeRestPoseOBJ(sink, objName, n); err != nil {
		return err
	}

	j.w("var importOptions = new ImportOptions();")
	j.w("importOptions.file = File(new File($.fileName).parent.fsName + '/%s');", objName)
	j.w("var objFootage = app.project.importFile(importOptions);")
	j.w("objFootage.selected = false;")
	j.w("app.beginSuppressDialogs();")
	j.w("var %s = comp.layers.add(objFootage);", v)
	j.w("%s.name = '%s';", v, n.Identity)
	j.w("app.endSuppressDialogs(true);")
	j.w("%s.anchorPoint.setValue([0, 0, 0]);", v)

	// scale in percent, halved on import of world-scale OBJ vertices
	tr := j.collectTrack(n, 2.0)
	if tr.animated {
		j.writeTrackArrays(v, tr, true)
	} else if tr.frameCount > 0 {
		j.writeStaticTrack(v, tr, true)
	}
	return nil
}

func (j *jsxWriter) writeLocator(n *scene.CanonicalNode) {
	v := layerVar("locator", n.Identity)

	j.w("var %s = comp.layers.addNull();", v)
	j.w("%s.name = '%s';", v, n.Identity)
	j.w("%s.threeDLayer = true;", v)
	j.w("%s.shy = true;", v)
	j.w("%s.label = 13;", v)

	tr := j.collectTrack(n, 1.0)
	if tr.animated {
		j.writeTrackArrays(v, tr, false)
	} else if tr.frameCount > 0 {
		j.w("%s.position.setValue([%.10f, %.10f, %.10f]);", v, tr.pos[0][0], tr.pos[0][1], tr.pos[0][2])
		j.w("%s.property('Anchor Point').setValue([0.00, 0.00, 0.00]);", v)
		j.w("%s.scale.setValue([%.10f, %.10f, %.10f]);", v, tr.scale[0][0], tr.scale[0][1], tr.scale[0][2])
	}
}

// writeRestPoseOBJ emits the first geometry sample in local space; the layer
// transform carries the motion.
func writeRestPoseOBJ(sink exporter.OutputSink, name string, n *scene.CanonicalNode) error {
	out, err := sink.Create(name)
	if err != nil {
		return err
	}
	defer out.Close()

	w := func(format string, args ...interface{}) {
		out.Write(([]byte)(fmt.Sprintf(format+"\n", args...)))
	}

	sample := n.Shape.SampleAt(0)
	w("# Rest pose of %s", n.Identity)
	w("")
	for _, p := range sample.Positions {
		w("v %f %f %f", p[0], p[1], p[2])
	}
	w("")
	cursor := 0
	for _, count := range sample.FaceCounts {
		line := "f"
		for k := 0; k < int(count); k++ {
			line += fmt.Sprintf(" %d", sample.FaceIndices[cursor+k]+1)
		}
		w("%s", line)
		cursor += int(count)
	}
	return nil
}

func init() {
	exporter.SetHandler("jsx", &Exporter{})
}
