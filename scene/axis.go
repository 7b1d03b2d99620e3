package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	default:
		return "Z"
	}
}

// AxisConvention describes the coordinate convention of a scene file as
// declared by its SourceReader. UnitScale is the size of one source unit in
// centimeters (1.0 for Alembic, 100.0 for a meter-based USD stage).
type AxisConvention struct {
	Up          Axis
	RightHanded bool
	UnitScale   float64
}

// CanonicalConvention is the single convention used inside CanonicalNode:
// Y-up, right-handed, centimeters. Same choice Alembic makes, so the common
// case is a no-op.
func CanonicalConvention() AxisConvention {
	return AxisConvention{Up: AxisY, RightHanded: true, UnitScale: 1.0}
}

// Basis is a change of basis between two axis conventions: a signed
// permutation of axes plus a uniform unit scale. Transforms are conjugated,
// never mutated in place, so the source transform stack order survives.
type Basis struct {
	m     mgl64.Mat3
	inv   mgl64.Mat3
	scale float64
}

// upAlignment returns the signed permutation rotating the `from` up-axis
// onto the `to` up-axis with determinant +1.
func upAlignment(from, to Axis) mgl64.Mat3 {
	if from == to {
		return mgl64.Ident3()
	}
	type pair struct{ from, to Axis }
	switch (pair{from, to}) {
	case pair{AxisZ, AxisY}: // (x, y, z) -> (x, z, -y)
		return mgl64.Mat3FromRows(
			mgl64.Vec3{1, 0, 0},
			mgl64.Vec3{0, 0, 1},
			mgl64.Vec3{0, -1, 0})
	case pair{AxisY, AxisZ}: // (x, y, z) -> (x, -z, y)
		return mgl64.Mat3FromRows(
			mgl64.Vec3{1, 0, 0},
			mgl64.Vec3{0, 0, -1},
			mgl64.Vec3{0, 1, 0})
	case pair{AxisX, AxisY}: // (x, y, z) -> (-y, x, z)
		return mgl64.Mat3FromRows(
			mgl64.Vec3{0, -1, 0},
			mgl64.Vec3{1, 0, 0},
			mgl64.Vec3{0, 0, 1})
	case pair{AxisY, AxisX}:
		return mgl64.Mat3FromRows(
			mgl64.Vec3{0, 1, 0},
			mgl64.Vec3{-1, 0, 0},
			mgl64.Vec3{0, 0, 1})
	case pair{AxisX, AxisZ}: // (x, y, z) -> (-z, y, x)
		return mgl64.Mat3FromRows(
			mgl64.Vec3{0, 0, -1},
			mgl64.Vec3{0, 1, 0},
			mgl64.Vec3{1, 0, 0})
	case pair{AxisZ, AxisX}:
		return mgl64.Mat3FromRows(
			mgl64.Vec3{0, 0, 1},
			mgl64.Vec3{0, 1, 0},
			mgl64.Vec3{-1, 0, 0})
	}
	return mgl64.Ident3()
}

func NewBasis(from, to AxisConvention) Basis {
	m := upAlignment(from.Up, to.Up)
	if from.RightHanded != to.RightHanded {
		// mirror across the plane orthogonal to the destination front axis
		flip := mgl64.Diag3(mgl64.Vec3{1, 1, -1})
		m = flip.Mul3(m)
	}

	scale := 1.0
	if from.UnitScale > 0 && to.UnitScale > 0 {
		scale = from.UnitScale / to.UnitScale
	}

	return Basis{m: m, inv: m.Inv(), scale: scale}
}

func (b Basis) Inverse() Basis {
	return Basis{m: b.inv, inv: b.m, scale: 1.0 / b.scale}
}

// Identity reports whether the change of basis is a no-op, letting callers
// skip whole-array rewrites for same-convention inputs.
func (b Basis) Identity() bool {
	return b.scale == 1.0 && b.m.ApproxEqual(mgl64.Ident3())
}

// Point remaps a position, applying the unit scale.
func (b Basis) Point(v mgl64.Vec3) mgl64.Vec3 {
	return b.m.Mul3x1(v).Mul(b.scale)
}

// Direction remaps a unit-less direction (normal, velocity direction).
func (b Basis) Direction(v mgl64.Vec3) mgl64.Vec3 {
	return b.m.Mul3x1(v)
}

func (b Basis) PointF(v [3]float32) [3]float32 {
	p := b.Point(mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
	return [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
}

func (b Basis) DirectionF(v [3]float32) [3]float32 {
	p := b.Direction(mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
	return [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
}

// Matrix conjugates a local transform: M' = B * M * B^-1, with the unit
// scale applied to the translation column only.
func (b Basis) Matrix(m mgl64.Mat4) mgl64.Mat4 {
	b4 := b.m.Mat4()
	inv4 := b.inv.Mat4()
	out := b4.Mul4(m).Mul4(inv4)
	out.SetCol(3, mgl64.Vec4{
		out.At(0, 3) * b.scale,
		out.At(1, 3) * b.scale,
		out.At(2, 3) * b.scale,
		1.0})
	return out
}

// MeshSample remaps one geometry sample into the destination convention.
// Topology and UVs are convention-free and shared, positions and normals are
// rewritten.
func (b Basis) MeshSample(in MeshSample) MeshSample {
	if b.Identity() {
		return in
	}
	out := MeshSample{
		Time:        in.Time,
		FaceIndices: in.FaceIndices,
		FaceCounts:  in.FaceCounts,
	}
	if in.Positions != nil {
		out.Positions = make([][3]float32, len(in.Positions))
		for i, p := range in.Positions {
			out.Positions[i] = b.PointF(p)
		}
	}
	if in.Normals != nil {
		out.Normals = make([][3]float32, len(in.Normals))
		for i, n := range in.Normals {
			out.Normals[i] = b.DirectionF(n)
		}
	}
	return out
}
