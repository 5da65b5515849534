package spatialmath

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// RotationFormat is a bit flag naming one of the cached forms of a RotationRep.
type RotationFormat uint8

// The cached forms. A RotationRep holds a set of these; the set is never empty.
const (
	EulerFormat      RotationFormat = 0x1
	QuaternionFormat RotationFormat = 0x2
	MatrixFormat     RotationFormat = 0x4
)

func (f RotationFormat) String() string {
	var names []string
	if f&EulerFormat != 0 {
		names = append(names, "euler")
	}
	if f&QuaternionFormat != 0 {
		names = append(names, "quaternion")
	}
	if f&MatrixFormat != 0 {
		names = append(names, "matrix")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// RotationRep stores one rotation in up to three forms (euler angles, quaternion, rotation matrix) and
// converts between them lazily. Only the forms in the validity set are guaranteed to describe the
// current rotation; the others are stale until they are asked for.
//
// Setting a form makes it the only valid one. Reading a form that is not valid converts it from a
// valid one and adds it to the set; reads never remove anything from the set. When a conversion has a
// choice of sources, the matrix is preferred, then euler angles, then the quaternion: euler angles and
// quaternions are always converted to each other through the matrix.
//
// A RotationRep is a plain value; assigning it copies all of its state. It is not safe for
// concurrent use, since reads may write to the cache.
type RotationRep struct {
	formats    RotationFormat
	euler      EulerAngles
	quaternion quat.Number
	matrix     RotationMatrix

	// conversions counts calls into the conversion routines.
	conversions int
}

// NewRotationRep returns the identity rotation with all three forms cached.
func NewRotationRep() *RotationRep {
	rr := &RotationRep{}
	rr.reset()
	return rr
}

func (rr *RotationRep) reset() {
	rr.formats = EulerFormat | QuaternionFormat | MatrixFormat
	rr.euler = EulerAngles{}
	rr.quaternion = quat.Number{Real: 1}
	rr.matrix = RotationMatrix{identityMatrix()}
}

// Formats returns the set of forms currently valid.
func (rr *RotationRep) Formats() RotationFormat {
	rr.checkValid("formats")
	return rr.formats
}

// Valid reports whether every form in f is currently valid.
func (rr *RotationRep) Valid(f RotationFormat) bool {
	return rr.formats&f == f
}

// Clone returns an independent copy.
func (rr *RotationRep) Clone() *RotationRep {
	cp := *rr
	return &cp
}

// SetEuler stores euler angles in radians and invalidates the other forms.
func (rr *RotationRep) SetEuler(rx, ry, rz float64) {
	rr.euler = EulerAngles{Roll: rx, Pitch: ry, Yaw: rz}
	// not |=, the other forms are stale now
	rr.formats = EulerFormat
}

// SetQuaternion stores a scalar-first quaternion and invalidates the other forms. The quaternion is
// stored as given, without normalization.
func (rr *RotationRep) SetQuaternion(q0, q1, q2, q3 float64) {
	rr.quaternion = quat.Number{Real: q0, Imag: q1, Jmag: q2, Kmag: q3}
	rr.formats = QuaternionFormat
}

// SetMatrix stores a rotation matrix and invalidates the other forms. rm must not be nil; a nil
// matrix panics without touching the cache.
func (rr *RotationRep) SetMatrix(rm *RotationMatrix) {
	rr.matrix = *rm
	rr.formats = MatrixFormat
}

// SetDense stores a gonum matrix as the rotation matrix. The matrix must be 3x3; on error the rep is
// left unchanged.
func (rr *RotationRep) SetDense(m mat.Matrix) error {
	rm, err := NewRotationMatrixFromDense(m)
	if err != nil {
		return err
	}
	rr.SetMatrix(rm)
	return nil
}

// EulerAngles returns a copy of the euler angles, converting them from the matrix (or from the
// quaternion via the matrix) if they are not cached.
func (rr *RotationRep) EulerAngles() *EulerAngles {
	rr.checkValid("euler angles")
	if !rr.Valid(EulerFormat) {
		if !rr.Valid(MatrixFormat) {
			rr.quaternionToMatrix()
		}
		rr.matrixToEuler()
	}
	ea := rr.euler
	return &ea
}

// Quaternion returns the quaternion, converting it from the matrix (or from euler angles via the
// matrix) if it is not cached.
func (rr *RotationRep) Quaternion() quat.Number {
	rr.checkValid("quaternion")
	if !rr.Valid(QuaternionFormat) {
		if !rr.Valid(MatrixFormat) {
			rr.eulerToMatrix()
		}
		rr.matrixToQuaternion()
	}
	return rr.quaternion
}

// RotationMatrix returns a copy of the rotation matrix, converting it from euler angles, or failing
// that from the quaternion, if it is not cached.
func (rr *RotationRep) RotationMatrix() *RotationMatrix {
	rr.checkValid("rotation matrix")
	if !rr.Valid(MatrixFormat) {
		if rr.Valid(EulerFormat) {
			rr.eulerToMatrix()
		} else {
			rr.quaternionToMatrix()
		}
	}
	rm := rr.matrix
	return &rm
}

// The conversion steps below each require their source form to be valid.

func (rr *RotationRep) eulerToMatrix() {
	rr.requireFormat(EulerFormat, "euler to matrix")
	rr.matrix = *EulerAnglesToRotationMatrix(&rr.euler)
	rr.formats |= MatrixFormat
	rr.conversions++
}

func (rr *RotationRep) matrixToEuler() {
	rr.requireFormat(MatrixFormat, "matrix to euler")
	rr.euler = *RotationMatrixToEulerAngles(&rr.matrix)
	rr.formats |= EulerFormat
	rr.conversions++
}

func (rr *RotationRep) matrixToQuaternion() {
	rr.requireFormat(MatrixFormat, "matrix to quaternion")
	rr.quaternion = RotationMatrixToQuat(&rr.matrix)
	rr.formats |= QuaternionFormat
	rr.conversions++
}

func (rr *RotationRep) quaternionToMatrix() {
	rr.requireFormat(QuaternionFormat, "quaternion to matrix")
	rr.matrix = *QuatToRotationMatrix(rr.quaternion)
	rr.formats |= MatrixFormat
	rr.conversions++
}

// checkValid panics if the validity set is empty. That can only happen through a bug in this file
// or a zero value RotationRep that bypassed NewRotationRep.
func (rr *RotationRep) checkValid(op string) {
	if rr.formats&(EulerFormat|QuaternionFormat|MatrixFormat) == 0 {
		panic(newNoValidFormatError(op))
	}
}

func (rr *RotationRep) requireFormat(f RotationFormat, op string) {
	if !rr.Valid(f) {
		panic(newNoValidFormatError(op))
	}
}

// String dumps the raw cache for debugging: the validity bitmask, the euler angles in degrees, the
// quaternion and the matrix rows. Stale forms are printed as they are stored.
func (rr *RotationRep) String() string {
	deg := rr.euler.Degrees()
	return fmt.Sprintf("format cache: %d\nEuler angles: [%.6f %.6f %.6f]\nQuaternion: %s\nMatrix:\n%s",
		uint8(rr.formats), deg[0], deg[1], deg[2], quatString(rr.quaternion), rr.matrix.String())
}
