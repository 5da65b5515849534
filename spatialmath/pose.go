// Package spatialmath defines spatial mathematical operations.
// Poses pair a translation with a rotation that can be read and written as euler angles, a unit
// quaternion or a rotation matrix; conversions between these forms happen on demand and are cached.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a position (translation) and orientation (rotation) in 6 degrees of freedom.
// A Pose owns its rotation; copies made with Clone or Set never share rotation state.
// The zero value is not a valid Pose, use one of the constructors.
type Pose struct {
	translation r3.Vector
	rotation    RotationRep
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose() *Pose {
	return &Pose{rotation: *NewRotationRep()}
}

// NewPoseFromEuler creates a pose from euler angles (see EulerAngles for the convention) and a translation.
// ea must not be nil.
func NewPoseFromEuler(ea *EulerAngles, translation r3.Vector) *Pose {
	p := NewZeroPose()
	p.rotation.SetEuler(ea.Roll, ea.Pitch, ea.Yaw)
	p.translation = translation
	return p
}

// NewPoseFromQuaternion creates a pose from a scalar-first quaternion and a translation.
func NewPoseFromQuaternion(q quat.Number, translation r3.Vector) *Pose {
	p := NewZeroPose()
	p.rotation.SetQuaternion(q.Real, q.Imag, q.Jmag, q.Kmag)
	p.translation = translation
	return p
}

// NewPoseFromRotationMatrix creates a pose from a rotation matrix and a translation. rm must not be nil;
// use NewPoseFromMatrix for a gonum matrix of unknown shape.
func NewPoseFromRotationMatrix(rm *RotationMatrix, translation r3.Vector) *Pose {
	p := NewZeroPose()
	p.rotation.SetMatrix(rm)
	p.translation = translation
	return p
}

// NewPoseFromVector creates a pose from a rotation given as a plain vector: three elements are read as
// roll, pitch, yaw and four as a scalar-first quaternion. Any other length is an error.
func NewPoseFromVector(rotation []float64, translation r3.Vector) (*Pose, error) {
	p := NewZeroPose()
	switch len(rotation) {
	case 3:
		p.rotation.SetEuler(rotation[0], rotation[1], rotation[2])
	case 4:
		p.rotation.SetQuaternion(rotation[0], rotation[1], rotation[2], rotation[3])
	default:
		return nil, ErrWrongSizedVector
	}
	p.translation = translation
	return p, nil
}

// NewPoseFromMatrix creates a pose from a 3x3 gonum matrix and a translation. Any other shape is an error.
func NewPoseFromMatrix(rotation mat.Matrix, translation r3.Vector) (*Pose, error) {
	rm, err := NewRotationMatrixFromDense(rotation)
	if err != nil {
		return nil, err
	}
	return NewPoseFromRotationMatrix(rm, translation), nil
}

// NewPoseFromDualQuaternion creates a pose from a unit dual quaternion whose real part is the rotation
// and whose dual part is half the translation multiplied by the rotation.
func NewPoseFromDualQuaternion(dq dualquat.Number) *Pose {
	t := quat.Scale(2, quat.Mul(dq.Dual, quat.Conj(dq.Real)))
	return NewPoseFromQuaternion(dq.Real, r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag})
}

// Clone returns a deep copy of the pose.
func (p *Pose) Clone() *Pose {
	cp := *p
	return &cp
}

// Set overwrites p with a copy of other. Setting a pose to itself does nothing.
func (p *Pose) Set(other *Pose) {
	if p == other {
		return
	}
	p.translation = other.translation
	p.rotation = other.rotation
}

// Translation returns the translation vector.
func (p *Pose) Translation() r3.Vector {
	return p.translation
}

// TranslationXYZ returns the translation as its three components.
func (p *Pose) TranslationXYZ() (x, y, z float64) {
	return p.translation.X, p.translation.Y, p.translation.Z
}

// SetTranslation replaces the translation vector.
func (p *Pose) SetTranslation(t r3.Vector) {
	p.translation = t
}

// SetTranslationXYZ replaces the translation from its three components.
func (p *Pose) SetTranslationXYZ(x, y, z float64) {
	p.translation = r3.Vector{X: x, Y: y, Z: z}
}

// RotationMatrix returns a copy of the rotation as a matrix.
func (p *Pose) RotationMatrix() *RotationMatrix {
	return p.rotation.RotationMatrix()
}

// EulerAngles returns a copy of the rotation as euler angles.
func (p *Pose) EulerAngles() *EulerAngles {
	return p.rotation.EulerAngles()
}

// Quaternion returns the rotation as a scalar-first quaternion.
func (p *Pose) Quaternion() quat.Number {
	return p.rotation.Quaternion()
}

// Rotation returns a copy of the underlying rotation cache.
func (p *Pose) Rotation() *RotationRep {
	return p.rotation.Clone()
}

// SetRotationEuler sets the rotation from euler angles in radians.
func (p *Pose) SetRotationEuler(rx, ry, rz float64) {
	p.rotation.SetEuler(rx, ry, rz)
}

// SetRotationQuaternion sets the rotation from a scalar-first quaternion.
func (p *Pose) SetRotationQuaternion(q0, q1, q2, q3 float64) {
	p.rotation.SetQuaternion(q0, q1, q2, q3)
}

// SetRotationMatrix sets the rotation from a rotation matrix, which must not be nil.
func (p *Pose) SetRotationMatrix(rm *RotationMatrix) {
	p.rotation.SetMatrix(rm)
}

// SetRotationDense sets the rotation from a gonum matrix, which must be 3x3.
func (p *Pose) SetRotationDense(m mat.Matrix) error {
	return p.rotation.SetDense(m)
}

// HomogeneousMatrix builds the 4x4 transform with the rotation matrix in the upper left block, the
// translation in the last column and (0, 0, 0, 1) as the last row. It is rebuilt on every call.
func (p *Pose) HomogeneousMatrix() *mat.Dense {
	// mathgl is column major, so its transpose is the row major backing array
	rowMajor := p.Mat4().Transpose()
	return mat.NewDense(4, 4, rowMajor[:])
}

// Mat4 is the homogeneous transform as a mathgl matrix.
func (p *Pose) Mat4() mgl64.Mat4 {
	m := p.RotationMatrix().Mat4()
	m.SetCol(3, mgl64.Vec4{p.translation.X, p.translation.Y, p.translation.Z, 1})
	return m
}

// Transform applies the pose to a point: the point is rotated and then translated.
func (p *Pose) Transform(pt r3.Vector) r3.Vector {
	return p.RotationMatrix().MulVec(pt).Add(p.translation)
}

// DualQuaternion returns the pose as a unit dual quaternion. The rotation quaternion is normalized first.
func (p *Pose) DualQuaternion() dualquat.Number {
	rot := p.Quaternion()
	if n := quat.Abs(rot); n != 0 && n != 1 {
		rot = quat.Scale(1/n, rot)
	}
	t := quat.Number{Imag: p.translation.X, Jmag: p.translation.Y, Kmag: p.translation.Z}
	return dualquat.Number{
		Real: rot,
		Dual: quat.Scale(0.5, quat.Mul(t, rot)),
	}
}

// Compose returns the pose that applies other first and then p.
func (p *Pose) Compose(other *Pose) *Pose {
	return NewPoseFromDualQuaternion(dualquat.Mul(p.DualQuaternion(), other.DualQuaternion()))
}

// Invert returns the pose that undoes p. Its rotation is the transpose of p's and its translation
// is the negated translation rotated back by that transpose.
func (p *Pose) Invert() *Pose {
	// the quaternion conjugate of a unit dual quaternion; dualquat.Inv treats the parts as commuting
	dq := p.DualQuaternion()
	return NewPoseFromDualQuaternion(dualquat.Number{Real: quat.Conj(dq.Real), Dual: quat.Conj(dq.Dual)})
}

// String prints the translation followed by a dump of the rotation cache.
func (p *Pose) String() string {
	return fmt.Sprintf("Translation: [%.6f %.6f %.6f]\n%s",
		p.translation.X, p.translation.Y, p.translation.Z, p.rotation.String())
}

// PoseAlmostEqual reports whether two poses have translations within tol of each other in every
// component and rotation matrices within tol in every element.
func PoseAlmostEqual(a, b *Pose, tol float64) bool {
	ta, tb := a.Translation(), b.Translation()
	if math.Abs(ta.X-tb.X) > tol || math.Abs(ta.Y-tb.Y) > tol || math.Abs(ta.Z-tb.Z) > tol {
		return false
	}
	return a.RotationMatrix().AlmostEqual(b.RotationMatrix(), tol)
}
