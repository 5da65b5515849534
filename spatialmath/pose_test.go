package spatialmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

func TestZeroPose(t *testing.T) {
	p := NewZeroPose()
	test.That(t, p.Translation(), test.ShouldResemble, r3.Vector{})
	test.That(t, p.Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, p.EulerAngles(), test.ShouldResemble, &EulerAngles{})
	test.That(t, p.RotationMatrix(), test.ShouldResemble, NewIdentityRotationMatrix())
}

func TestNewPoseFromVector(t *testing.T) {
	translation := r3.Vector{X: 1, Y: 2, Z: 3}

	p, err := NewPoseFromVector([]float64{0, 0, math.Pi / 2}, translation)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Rotation().Formats(), test.ShouldEqual, EulerFormat)
	test.That(t, p.EulerAngles().Yaw, test.ShouldEqual, math.Pi/2)
	test.That(t, p.Translation(), test.ShouldResemble, translation)

	p, err = NewPoseFromVector([]float64{0, 1, 0, 0}, translation)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Rotation().Formats(), test.ShouldEqual, QuaternionFormat)
	test.That(t, p.Quaternion(), test.ShouldResemble, quat.Number{Imag: 1})

	for _, bad := range [][]float64{nil, {1, 0}, {1, 0, 0, 0, 0}} {
		p, err = NewPoseFromVector(bad, translation)
		test.That(t, err, test.ShouldBeError, ErrWrongSizedVector)
		test.That(t, p, test.ShouldBeNil)
	}
}

func TestNewPoseFromMatrix(t *testing.T) {
	translation := r3.Vector{X: 1, Y: 2, Z: 3}

	p, err := NewPoseFromMatrix(mat.NewDense(2, 2, []float64{1, 0, 0, 1}), translation)
	test.That(t, err, test.ShouldWrap, ErrWrongSizedMatrix)
	test.That(t, p, test.ShouldBeNil)

	_, err = NewPoseFromMatrix(mat.NewDense(4, 4, nil), translation)
	test.That(t, err, test.ShouldWrap, ErrWrongSizedMatrix)

	_, err = NewPoseFromMatrix(mat.NewDense(3, 4, nil), translation)
	test.That(t, err, test.ShouldWrap, ErrWrongSizedMatrix)

	p, err = NewPoseFromMatrix(mat.NewDense(3, 3, []float64{-1, 0, 0, 0, -1, 0, 0, 0, 1}), translation)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Rotation().Formats(), test.ShouldEqual, MatrixFormat)
	test.That(t, p.EulerAngles().Yaw, test.ShouldAlmostEqual, math.Pi)
}

func TestHomogeneousMatrix(t *testing.T) {
	p := NewPoseFromRotationMatrix(NewIdentityRotationMatrix(), r3.Vector{X: 1, Y: 2, Z: 3})
	expected := mat.NewDense(4, 4, []float64{
		1, 0, 0, 1,
		0, 1, 0, 2,
		0, 0, 1, 3,
		0, 0, 0, 1,
	})
	test.That(t, mat.Equal(p.HomogeneousMatrix(), expected), test.ShouldBeTrue)

	// no caching of its own: it follows the current state
	p.SetRotationEuler(0, 0, math.Pi/2)
	p.SetTranslationXYZ(4, 5, 6)
	h := p.HomogeneousMatrix()
	test.That(t, h.At(0, 1), test.ShouldAlmostEqual, -1)
	test.That(t, h.At(1, 0), test.ShouldAlmostEqual, 1)
	test.That(t, h.At(0, 3), test.ShouldEqual, 4)
	test.That(t, h.At(1, 3), test.ShouldEqual, 5)
	test.That(t, h.At(2, 3), test.ShouldEqual, 6)
	test.That(t, mat.Row(nil, 3, h), test.ShouldResemble, []float64{0, 0, 0, 1})
}

func TestPoseMat4(t *testing.T) {
	p := NewPoseFromEuler(&EulerAngles{Roll: -0.7, Pitch: 0.5, Yaw: 0.4}, r3.Vector{X: -4, Y: 0, Z: 9})
	pt := r3.Vector{X: 0.5, Y: -0.25, Z: 2}
	want := p.Transform(pt)
	got := p.Mat4().Mul4x1(mgl64.Vec4{pt.X, pt.Y, pt.Z, 1})
	test.That(t, got[0], test.ShouldAlmostEqual, want.X)
	test.That(t, got[1], test.ShouldAlmostEqual, want.Y)
	test.That(t, got[2], test.ShouldAlmostEqual, want.Z)
	test.That(t, got[3], test.ShouldAlmostEqual, 1)
}

func TestHalfTurnAboutZ(t *testing.T) {
	p := NewZeroPose()
	p.SetRotationEuler(0, 0, math.Pi)

	rm := p.RotationMatrix()
	expected := []float64{-1, 0, 0, 0, -1, 0, 0, 0, 1}
	for i, v := range rm.Values() {
		test.That(t, v, test.ShouldAlmostEqual, expected[i])
	}

	q := p.Quaternion()
	test.That(t, q.Real, test.ShouldAlmostEqual, 0)
	test.That(t, q.Imag, test.ShouldAlmostEqual, 0)
	test.That(t, q.Jmag, test.ShouldAlmostEqual, 0)
	test.That(t, q.Kmag, test.ShouldAlmostEqual, 1)
}

func TestPoseTranslation(t *testing.T) {
	p := NewZeroPose()
	p.SetTranslation(r3.Vector{X: 1, Y: -2, Z: 3})
	x, y, z := p.TranslationXYZ()
	test.That(t, []float64{x, y, z}, test.ShouldResemble, []float64{1, -2, 3})

	p.SetTranslationXYZ(7, 8, 9)
	test.That(t, p.Translation(), test.ShouldResemble, r3.Vector{X: 7, Y: 8, Z: 9})
}

func TestPoseSetRotation(t *testing.T) {
	ea := &EulerAngles{Roll: 0.2, Pitch: -0.4, Yaw: 1.0}
	rm := EulerAnglesToRotationMatrix(ea)
	q := RotationMatrixToQuat(rm)

	p := NewZeroPose()
	p.SetRotationQuaternion(q.Real, q.Imag, q.Jmag, q.Kmag)
	test.That(t, p.RotationMatrix().AlmostEqual(rm, floatTol), test.ShouldBeTrue)
	test.That(t, p.EulerAngles().Yaw, test.ShouldAlmostEqual, ea.Yaw)

	p.SetRotationMatrix(NewIdentityRotationMatrix())
	test.That(t, p.Rotation().Formats(), test.ShouldEqual, MatrixFormat)
	test.That(t, QuaternionAlmostEqual(p.Quaternion(), quat.Number{Real: 1}, floatTol), test.ShouldBeTrue)

	err := p.SetRotationDense(mat.NewDense(2, 3, nil))
	test.That(t, err, test.ShouldWrap, ErrWrongSizedMatrix)
	err = p.SetRotationDense(rm.Dense())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.RotationMatrix(), test.ShouldResemble, rm)
}

func TestPoseCopies(t *testing.T) {
	p := NewPoseFromEuler(&EulerAngles{Yaw: 0.5}, r3.Vector{X: 1})
	cp := p.Clone()
	cp.SetRotationEuler(0, 0, -0.5)
	cp.SetTranslationXYZ(2, 2, 2)

	test.That(t, p.EulerAngles().Yaw, test.ShouldEqual, 0.5)
	test.That(t, p.Translation(), test.ShouldResemble, r3.Vector{X: 1})

	// resolving forms on a copy does not touch the original cache
	cp = p.Clone()
	cp.Quaternion()
	test.That(t, cp.Rotation().Formats(), test.ShouldEqual, EulerFormat|QuaternionFormat|MatrixFormat)
	test.That(t, p.Rotation().Formats(), test.ShouldEqual, EulerFormat)

	other := NewZeroPose()
	other.Set(p)
	test.That(t, PoseAlmostEqual(other, p, 0), test.ShouldBeTrue)
	other.SetRotationEuler(1, 1, 1)
	test.That(t, p.EulerAngles(), test.ShouldResemble, &EulerAngles{Yaw: 0.5})

	p.Set(p)
	test.That(t, p.EulerAngles(), test.ShouldResemble, &EulerAngles{Yaw: 0.5})
	test.That(t, p.Translation(), test.ShouldResemble, r3.Vector{X: 1})

	// the rotation accessor hands out a copy
	rr := p.Rotation()
	rr.SetEuler(3, 3, 3)
	test.That(t, p.EulerAngles(), test.ShouldResemble, &EulerAngles{Yaw: 0.5})
}

func TestPoseTransform(t *testing.T) {
	p := NewPoseFromEuler(&EulerAngles{Yaw: math.Pi / 2}, r3.Vector{X: 10})
	pt := p.Transform(r3.Vector{X: 1})
	test.That(t, pt.X, test.ShouldAlmostEqual, 10)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 1)
	test.That(t, pt.Z, test.ShouldAlmostEqual, 0)
}

func TestPoseComposeInvert(t *testing.T) {
	a := NewPoseFromEuler(&EulerAngles{Roll: 0.3, Pitch: 0.1, Yaw: -1.2}, r3.Vector{X: 1, Y: 2, Z: 3})
	b := NewPoseFromEuler(&EulerAngles{Roll: -0.7, Pitch: 0.5, Yaw: 0.4}, r3.Vector{X: -4, Y: 0, Z: 9})

	pt := r3.Vector{X: 0.5, Y: -0.25, Z: 2}
	composed := a.Compose(b)
	expected := a.Transform(b.Transform(pt))
	got := composed.Transform(pt)
	test.That(t, got.X, test.ShouldAlmostEqual, expected.X)
	test.That(t, got.Y, test.ShouldAlmostEqual, expected.Y)
	test.That(t, got.Z, test.ShouldAlmostEqual, expected.Z)

	var h mat.Dense
	h.Mul(a.HomogeneousMatrix(), b.HomogeneousMatrix())
	test.That(t, mat.EqualApprox(composed.HomogeneousMatrix(), &h, floatTol), test.ShouldBeTrue)

	identity := a.Compose(a.Invert())
	test.That(t, PoseAlmostEqual(identity, NewZeroPose(), floatTol), test.ShouldBeTrue)
	identity = a.Invert().Compose(a)
	test.That(t, PoseAlmostEqual(identity, NewZeroPose(), floatTol), test.ShouldBeTrue)
}

func TestPoseInvert(t *testing.T) {
	a := NewPoseFromEuler(&EulerAngles{Roll: 0.3, Pitch: 0.1, Yaw: -1.2}, r3.Vector{X: 1, Y: 2, Z: 3})
	inv := a.Invert()

	// the inverse translation is -R^T t
	rt := a.RotationMatrix().Transpose()
	want := rt.MulVec(a.Translation()).Mul(-1)
	got := inv.Translation()
	test.That(t, got.X, test.ShouldAlmostEqual, want.X)
	test.That(t, got.Y, test.ShouldAlmostEqual, want.Y)
	test.That(t, got.Z, test.ShouldAlmostEqual, want.Z)
	test.That(t, got.X, test.ShouldAlmostEqual, 1.794, 1e-3)
	test.That(t, got.Y, test.ShouldAlmostEqual, -2.421, 1e-3)
	test.That(t, got.Z, test.ShouldAlmostEqual, -2.219, 1e-3)
	test.That(t, inv.RotationMatrix().AlmostEqual(rt, floatTol), test.ShouldBeTrue)

	for _, pt := range []r3.Vector{{}, {X: 0.5, Y: -0.25, Z: 2}, {X: -7, Y: 11, Z: 0.1}} {
		back := inv.Transform(a.Transform(pt))
		test.That(t, back.X, test.ShouldAlmostEqual, pt.X)
		test.That(t, back.Y, test.ShouldAlmostEqual, pt.Y)
		test.That(t, back.Z, test.ShouldAlmostEqual, pt.Z)
	}

	var h mat.Dense
	h.Mul(a.HomogeneousMatrix(), inv.HomogeneousMatrix())
	test.That(t, mat.EqualApprox(&h, mat.NewDiagDense(4, []float64{1, 1, 1, 1}), floatTol), test.ShouldBeTrue)
}

func TestPoseDualQuaternionRoundTrip(t *testing.T) {
	// an unnormalized quaternion still gives a unit dual quaternion
	p := NewPoseFromQuaternion(quat.Number{Real: 2, Kmag: 2}, r3.Vector{X: 1, Y: 2, Z: 3})
	dq := p.DualQuaternion()
	test.That(t, quat.Abs(dq.Real), test.ShouldAlmostEqual, 1)

	back := NewPoseFromDualQuaternion(dq)
	test.That(t, PoseAlmostEqual(back, p, floatTol), test.ShouldBeTrue)
}

func TestPoseString(t *testing.T) {
	p := NewPoseFromEuler(&EulerAngles{}, r3.Vector{X: 1, Y: 2, Z: 3})
	s := p.String()
	test.That(t, s, test.ShouldStartWith, "Translation: [1.000000 2.000000 3.000000]\nformat cache: 1\n")
	test.That(t, s, test.ShouldContainSubstring, "Quaternion:")
	test.That(t, s, test.ShouldContainSubstring, "Matrix:")
}
