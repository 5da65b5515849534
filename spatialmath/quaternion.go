package spatialmath

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

const (
	radToDeg = 180 / math.Pi
	degToRad = math.Pi / 180
)

// QuatToRotationMatrix converts a scalar-first quaternion to a rotation matrix. The quaternion does
// not need to be normalized beforehand; it is scaled by 2/|q|^2. A zero quaternion yields the identity.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	n := w*w + x*x + y*y + z*z
	var s float64
	if n > 0 {
		s = 2 / n
	}

	return &RotationMatrix{[9]float64{
		1 - s*(y*y+z*z), s * (x*y - w*z), s * (x*z + w*y),
		s * (x*y + w*z), 1 - s*(x*x+z*z), s * (y*z - w*x),
		s * (x*z - w*y), s * (y*z + w*x), 1 - s*(x*x+y*y),
	}}
}

// RotationMatrixToQuat converts an orthonormal rotation matrix to a unit quaternion using
// Shepperd's method, pivoting on the largest of the trace and the diagonal entries.
// q and -q describe the same rotation; the result is made canonical by CanonicalQuat.
func RotationMatrixToQuat(rm *RotationMatrix) quat.Number {
	r00, r11, r22 := rm.At(0, 0), rm.At(1, 1), rm.At(2, 2)
	trace := r00 + r11 + r22

	var q quat.Number
	switch {
	case trace > 0:
		s := 2 * math.Sqrt(1+trace)
		q = quat.Number{
			Real: s / 4,
			Imag: (rm.At(2, 1) - rm.At(1, 2)) / s,
			Jmag: (rm.At(0, 2) - rm.At(2, 0)) / s,
			Kmag: (rm.At(1, 0) - rm.At(0, 1)) / s,
		}
	case r00 > r11 && r00 > r22:
		s := 2 * math.Sqrt(1+r00-r11-r22)
		q = quat.Number{
			Real: (rm.At(2, 1) - rm.At(1, 2)) / s,
			Imag: s / 4,
			Jmag: (rm.At(0, 1) + rm.At(1, 0)) / s,
			Kmag: (rm.At(0, 2) + rm.At(2, 0)) / s,
		}
	case r11 > r22:
		s := 2 * math.Sqrt(1+r11-r00-r22)
		q = quat.Number{
			Real: (rm.At(0, 2) - rm.At(2, 0)) / s,
			Imag: (rm.At(0, 1) + rm.At(1, 0)) / s,
			Jmag: s / 4,
			Kmag: (rm.At(1, 2) + rm.At(2, 1)) / s,
		}
	default:
		s := 2 * math.Sqrt(1+r22-r00-r11)
		q = quat.Number{
			Real: (rm.At(1, 0) - rm.At(0, 1)) / s,
			Imag: (rm.At(0, 2) + rm.At(2, 0)) / s,
			Jmag: (rm.At(1, 2) + rm.At(2, 1)) / s,
			Kmag: s / 4,
		}
	}
	return CanonicalQuat(q)
}

// CanonicalQuat picks one of q and -q: the one with a non-negative scalar part. When the scalar part
// is exactly zero, the first non-zero vector component is made positive.
func CanonicalQuat(q quat.Number) quat.Number {
	switch {
	case q.Real < 0:
		return Flip(q)
	case q.Real > 0:
		return q
	}
	for _, v := range []float64{q.Imag, q.Jmag, q.Kmag} {
		if v < 0 {
			return Flip(q)
		}
		if v > 0 {
			return q
		}
	}
	return q
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double coverage, q == -q, and
// this function will *not* account for this. Use OrientationAlmostEqual unless you're certain this is what you want.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	return math.Abs(a.Real-b.Real) <= tol &&
		math.Abs(a.Imag-b.Imag) <= tol &&
		math.Abs(a.Jmag-b.Jmag) <= tol &&
		math.Abs(a.Kmag-b.Kmag) <= tol
}

// OrientationAlmostEqual reports whether two quaternions describe the same rotation, treating q and -q as equal.
func OrientationAlmostEqual(a, b quat.Number, tol float64) bool {
	return QuaternionAlmostEqual(a, b, tol) || QuaternionAlmostEqual(a, Flip(b), tol)
}

func quatString(q quat.Number) string {
	return fmt.Sprintf("[%.6f %.6f %.6f %.6f]", q.Real, q.Imag, q.Jmag, q.Kmag)
}
