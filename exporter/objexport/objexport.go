package objexport

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/scene_cache_converter/exporter"
	"github.com/mogaika/scene_cache_converter/scene"
)

// Exporter writes Wavefront OBJ. The main file holds every mesh at the
// first frame with world transforms baked in; animated meshes additionally
// get a per-frame sequence, which is how compositing packages ingest
// deforming caches without a native cache reader.
type Exporter struct{}

func (e *Exporter) Name() string          { return "obj" }
func (e *Exporter) FileExtension() string { return ".obj" }

func (e *Exporter) SupportedCategories() []scene.AnimationCategory {
	return []scene.AnimationCategory{
		scene.CategoryStatic,
		scene.CategoryTransformOnly,
		scene.CategoryVertexDeforming,
	}
}

func (e *Exporter) Export(s *scene.Scene, plan *exporter.Plan, sink exporter.OutputSink) error {
	main, err := sink.Create(exporter.OutputName(s, e))
	if err != nil {
		return err
	}
	defer main.Close()

	w := func(format string, args ...interface{}) {
		main.Write(([]byte)(fmt.Sprintf(format+"\n", args...)))
	}
	w("# %s", s.Name)

	iV := uint32(1)
	iT := uint32(1)
	iN := uint32(1)
	for _, n := range plan.Included(s) {
		if n.Role != scene.RoleMesh {
			continue
		}
		sample := n.Shape.SampleAt(0)
		nV, nT, nN := writeMesh(w, n.Identity, sample, n.Shape.UVs, n.Transform[0].Matrix, iV, iT, iN)
		iV += nV
		iT += nT
		iN += nN

		if n.Category != scene.CategoryStatic && plan.Of(n) == exporter.DispositionNative {
			if err := e.exportSequence(s, n, sink); err != nil {
				return err
			}
		}
	}
	return nil
}

// exportSequence bakes the node's world transform into the vertices of every
// frame, one OBJ per frame, so the sequence plays back without any transform
// support on the consumer side.
func (e *Exporter) exportSequence(s *scene.Scene, n *scene.CanonicalNode, sink exporter.OutputSink) error {
	for f := 0; f < s.FrameCount; f++ {
		out, err := sink.Create(fmt.Sprintf("%s_obj/%s.%04d.obj", n.Identity, n.Identity, f+1))
		if err != nil {
			return err
		}
		if err := writeFrame(out, n, f); err != nil {
			out.Close()
			return errors.Wrapf(err, "Frame %d of %q", f+1, n.Identity)
		}
		out.Close()
	}
	return nil
}

func writeFrame(out io.Writer, n *scene.CanonicalNode, f int) error {
	w := func(format string, args ...interface{}) {
		out.Write(([]byte)(fmt.Sprintf(format+"\n", args...)))
	}
	ti := f
	if ti >= len(n.Transform) {
		ti = len(n.Transform) - 1
	}
	writeMesh(w, n.Identity, n.Shape.SampleAt(f), n.Shape.UVs, n.Transform[ti].Matrix, 1, 1, 1)
	return nil
}

func writeMesh(w func(format string, args ...interface{}), name string,
	sample *scene.MeshSample, uvs [][2]float32, world mgl64.Mat4,
	iV, iT, iN uint32) (nV, nT, nN uint32) {

	w("o %s", name)

	for _, p := range sample.Positions {
		v := world.Mul4x1(mgl64.Vec4{float64(p[0]), float64(p[1]), float64(p[2]), 1})
		w("v %f %f %f", v[0], v[1], v[2])
	}
	for _, uv := range uvs {
		w("vt %f %f", uv[0], -uv[1])
	}
	for _, normal := range sample.Normals {
		d := world.Mul4x1(mgl64.Vec4{float64(normal[0]), float64(normal[1]), float64(normal[2]), 0})
		w("vn %f %f %f", d[0], d[1], d[2])
	}

	haveUV := len(uvs) == len(sample.Positions) && len(uvs) > 0
	haveNorm := len(sample.Normals) == len(sample.Positions) && len(sample.Normals) > 0

	cursor := 0
	for _, count := range sample.FaceCounts {
		line := "f"
		for k := 0; k < int(count); k++ {
			idx := uint32(sample.FaceIndices[cursor+k])
			if haveNorm {
				if haveUV {
					line += fmt.Sprintf(" %v/%v/%v", iV+idx, iT+idx, iN+idx)
				} else {
					line += fmt.Sprintf(" %v//%v", iV+idx, iN+idx)
				}
			} else if haveUV {
				line += fmt.Sprintf(" %v/%v", iV+idx, iT+idx)
			} else {
				line += fmt.Sprintf(" %v", iV+idx)
			}
		}
		w("%s", line)
		cursor += int(count)
	}

	nV = uint32(len(sample.Positions))
	if haveUV {
		nT = uint32(len(uvs))
	}
	if haveNorm {
		nN = uint32(len(sample.Normals))
	}
	return nV, nT, nN
}

func init() {
	exporter.SetHandler("obj", &Exporter{})
}
