package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RotationMode selects the Euler decomposition convention. Motion-graphics
// script hosts and Maya disagree on extraction order, so both are supported
// and exporters pick theirs.
type RotationMode int

const (
	RotationScript RotationMode = iota
	RotationMaya
)

// DecomposeMat4 splits a column-vector transform into translation, XYZ Euler
// rotation in degrees, and per-axis scale.
func DecomposeMat4(m mgl64.Mat4, mode RotationMode) (translation, rotation, scale mgl64.Vec3) {
	translation = mgl64.Vec3{m.At(0, 3), m.At(1, 3), m.At(2, 3)}

	basis := [3]mgl64.Vec3{
		{m.At(0, 0), m.At(1, 0), m.At(2, 0)},
		{m.At(0, 1), m.At(1, 1), m.At(2, 1)},
		{m.At(0, 2), m.At(1, 2), m.At(2, 2)},
	}
	for i := range basis {
		scale[i] = basis[i].Len()
		if scale[i] > 0 {
			basis[i] = basis[i].Mul(1.0 / scale[i])
		}
	}

	// rot(i, j): component j of normalized basis vector i
	rot := func(i, j int) float64 { return basis[i][j] }

	var x, y, z float64
	if mode == RotationMaya {
		cy := math.Hypot(rot(0, 0), rot(0, 1))
		if cy > 1e-6 {
			x = math.Atan2(rot(1, 2), rot(2, 2))
			y = math.Atan2(-rot(0, 2), cy)
			z = math.Atan2(-rot(0, 1), rot(0, 0))
		} else {
			// gimbal lock
			x = math.Atan2(-rot(2, 1), rot(1, 1))
			y = math.Atan2(-rot(0, 2), cy)
		}
	} else {
		sy := math.Hypot(rot(0, 0), rot(1, 0))
		if sy > 1e-6 {
			x = math.Atan2(rot(2, 1), rot(2, 2))
			y = math.Atan2(-rot(2, 0), sy)
			z = math.Atan2(rot(1, 0), rot(0, 0))
		} else {
			x = math.Atan2(-rot(1, 2), rot(1, 1))
			y = math.Atan2(-rot(2, 0), sy)
		}
	}

	rotation = mgl64.Vec3{mgl64.RadToDeg(x), mgl64.RadToDeg(y), mgl64.RadToDeg(z)}
	return translation, rotation, scale
}

// DecomposeTRS splits a transform into translation, rotation quaternion and
// per-axis scale. A mirrored matrix keeps determinant sign on the Z scale.
func DecomposeTRS(m mgl64.Mat4) (t mgl64.Vec3, q mgl64.Quat, s mgl64.Vec3) {
	t = mgl64.Vec3{m.At(0, 3), m.At(1, 3), m.At(2, 3)}

	c0 := mgl64.Vec3{m.At(0, 0), m.At(1, 0), m.At(2, 0)}
	c1 := mgl64.Vec3{m.At(0, 1), m.At(1, 1), m.At(2, 1)}
	c2 := mgl64.Vec3{m.At(0, 2), m.At(1, 2), m.At(2, 2)}

	s = mgl64.Vec3{c0.Len(), c1.Len(), c2.Len()}
	if m.Det() < 0 {
		s[2] = -s[2]
	}

	if s[0] != 0 {
		c0 = c0.Mul(1.0 / s[0])
	}
	if s[1] != 0 {
		c1 = c1.Mul(1.0 / s[1])
	}
	if s[2] != 0 {
		c2 = c2.Mul(1.0 / s[2])
	}

	rot := mgl64.Mat4FromCols(
		c0.Vec4(0), c1.Vec4(0), c2.Vec4(0), mgl64.Vec4{0, 0, 0, 1})
	q = mgl64.Mat4ToQuat(rot)
	return t, q, s
}

func ComposeTRS(t mgl64.Vec3, q mgl64.Quat, s mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

func lerpVec3(a, b mgl64.Vec3, f float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(f))
}

// LerpMat4 interpolates two transforms through a TRS decomposition with
// quaternion slerp, for resampling transform streams onto a frame grid.
func LerpMat4(a, b mgl64.Mat4, f float64) mgl64.Mat4 {
	if f <= 0 {
		return a
	}
	if f >= 1 {
		return b
	}
	ta, qa, sa := DecomposeTRS(a)
	tb, qb, sb := DecomposeTRS(b)
	return ComposeTRS(lerpVec3(ta, tb, f), mgl64.QuatSlerp(qa, qb, f), lerpVec3(sa, sb, f))
}

func FloatArray32to64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
