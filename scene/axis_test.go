package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestCanonicalConventionIsNoop(t *testing.T) {
	b := NewBasis(CanonicalConvention(), CanonicalConvention())
	if !b.Identity() {
		t.Errorf("canonical to canonical should be identity")
	}
	p := b.Point(mgl64.Vec3{1, 2, 3})
	if !p.ApproxEqual(mgl64.Vec3{1, 2, 3}) {
		t.Errorf("point changed under identity basis: %v", p)
	}
}

func TestZUpToYUpPoint(t *testing.T) {
	zup := AxisConvention{Up: AxisZ, RightHanded: true, UnitScale: 1}
	b := NewBasis(zup, CanonicalConvention())

	// the Z-up up vector must land on canonical +Y
	up := b.Point(mgl64.Vec3{0, 0, 1})
	if !up.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("up vector maps to %v; expected +Y", up)
	}

	p := b.Point(mgl64.Vec3{1, 2, 3})
	if !p.ApproxEqualThreshold(mgl64.Vec3{1, 3, -2}, 1e-9) {
		t.Errorf("point maps to %v; expected (1, 3, -2)", p)
	}
}

func TestUnitScaleAppliesToPointsNotDirections(t *testing.T) {
	meters := AxisConvention{Up: AxisY, RightHanded: true, UnitScale: 100}
	b := NewBasis(meters, CanonicalConvention())

	p := b.Point(mgl64.Vec3{1, 0, 0})
	if !p.ApproxEqual(mgl64.Vec3{100, 0, 0}) {
		t.Errorf("1 meter should become 100 cm, got %v", p)
	}
	d := b.Direction(mgl64.Vec3{1, 0, 0})
	if !d.ApproxEqual(mgl64.Vec3{1, 0, 0}) {
		t.Errorf("directions must not be scaled, got %v", d)
	}
}

func TestBasisRoundTrip(t *testing.T) {
	conventions := []AxisConvention{
		{Up: AxisZ, RightHanded: true, UnitScale: 1},
		{Up: AxisZ, RightHanded: false, UnitScale: 100},
		{Up: AxisX, RightHanded: true, UnitScale: 2.54},
	}
	for _, conv := range conventions {
		b := NewBasis(conv, CanonicalConvention())
		inv := b.Inverse()

		p := mgl64.Vec3{1.5, -2.25, 3.75}
		back := inv.Point(b.Point(p))
		if !back.ApproxEqualThreshold(p, 1e-9) {
			t.Errorf("%+v: round trip %v -> %v", conv, p, back)
		}
	}
}

func TestMatrixConjugationPreservesStackOrder(t *testing.T) {
	zup := AxisConvention{Up: AxisZ, RightHanded: true, UnitScale: 1}
	b := NewBasis(zup, CanonicalConvention())

	// a Z-up translation along source up must become a canonical +Y move
	m := mgl64.Translate3D(0, 0, 5)
	out := b.Matrix(m)
	origin := out.Mul4x1(mgl64.Vec4{0, 0, 0, 1})
	if !origin.ApproxEqualThreshold(mgl64.Vec4{0, 5, 0, 1}, 1e-9) {
		t.Errorf("translation maps to %v; expected +5 on Y", origin)
	}

	// conjugating two stacked transforms equals stacking the conjugates
	a := mgl64.Translate3D(1, 2, 3).Mul4(mgl64.HomogRotate3DZ(0.5))
	c := mgl64.Translate3D(-2, 0, 1)
	lhs := b.Matrix(a.Mul4(c))
	rhs := b.Matrix(a).Mul4(b.Matrix(c))
	if !lhs.ApproxEqualThreshold(rhs, 1e-9) {
		t.Errorf("conjugation broke composition:\n%v\nvs\n%v", lhs, rhs)
	}
}

func TestMeshSampleRemap(t *testing.T) {
	zup := AxisConvention{Up: AxisZ, RightHanded: true, UnitScale: 1}
	b := NewBasis(zup, CanonicalConvention())

	in := MeshSample{
		Positions:   [][3]float32{{1, 2, 3}},
		Normals:     [][3]float32{{0, 0, 1}},
		FaceIndices: []int32{0},
		FaceCounts:  []int32{1},
	}
	out := b.MeshSample(in)
	if out.Positions[0] != [3]float32{1, 3, -2} {
		t.Errorf("position=%v; expected (1, 3, -2)", out.Positions[0])
	}
	if out.Normals[0] != [3]float32{0, 1, 0} {
		t.Errorf("normal=%v; expected +Y", out.Normals[0])
	}
	if &out.FaceIndices[0] != &in.FaceIndices[0] {
		t.Errorf("topology should be shared, not copied")
	}
}
