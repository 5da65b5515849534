package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*row+col] is the element in the (row, col) position.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates a rotation matrix from a slice of 9 elements in row major order.
// The values are taken as given; no orthonormalization is performed.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Wrapf(ErrWrongSizedMatrix, "expected 9 elements, got %d", len(m))
	}
	rm := &RotationMatrix{}
	copy(rm.mat[:], m)
	return rm, nil
}

// NewRotationMatrixFromDense copies a gonum matrix into a RotationMatrix. Anything other than a 3x3
// matrix is rejected.
func NewRotationMatrixFromDense(m mat.Matrix) (*RotationMatrix, error) {
	if m == nil {
		return nil, errors.Wrap(ErrWrongSizedMatrix, "nil matrix")
	}
	rows, cols := m.Dims()
	if rows != 3 || cols != 3 {
		return nil, errors.Wrapf(ErrWrongSizedMatrix, "got %dx%d", rows, cols)
	}
	rm := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rm.mat[3*i+j] = m.At(i, j)
		}
	}
	return rm, nil
}

// NewIdentityRotationMatrix returns the 3x3 identity.
func NewIdentityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{identityMatrix()}
}

func identityMatrix() [9]float64 {
	return [9]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// At returns the element at (row, col), zero indexed.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Row returns the row of the matrix as a vector.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the column of the matrix as a vector.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[col+3], Z: rm.mat[col+6]}
}

// Values returns a copy of the elements in row major order.
func (rm *RotationMatrix) Values() []float64 {
	out := make([]float64, 9)
	copy(out, rm.mat[:])
	return out
}

// Mul returns rm * other.
func (rm *RotationMatrix) Mul(other *RotationMatrix) *RotationMatrix {
	out := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += rm.mat[3*i+k] * other.mat[3*k+j]
			}
			out.mat[3*i+j] = sum
		}
	}
	return out
}

// MulVec rotates v by the matrix.
func (rm *RotationMatrix) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{X: rm.Row(0).Dot(v), Y: rm.Row(1).Dot(v), Z: rm.Row(2).Dot(v)}
}

// Transpose returns the transpose, which is also the inverse for a proper rotation.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	out := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.mat[3*j+i] = rm.mat[3*i+j]
		}
	}
	return out
}

// Determinant of the matrix. Proper rotations have a determinant of +1.
func (rm *RotationMatrix) Determinant() float64 {
	m := rm.mat
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Dense copies the matrix into a new gonum 3x3 dense matrix.
func (rm *RotationMatrix) Dense() *mat.Dense {
	return mat.NewDense(3, 3, rm.Values())
}

// Mat4 returns the rotation embedded in a column major mathgl 4x4 matrix.
func (rm *RotationMatrix) Mat4() mgl64.Mat4 {
	m := mgl64.Ident4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rm.At(i, j))
		}
	}
	return m
}

// AlmostEqual returns whether every element of the two matrices is within tol of each other.
func (rm *RotationMatrix) AlmostEqual(other *RotationMatrix, tol float64) bool {
	for i := range rm.mat {
		if math.Abs(rm.mat[i]-other.mat[i]) > tol {
			return false
		}
	}
	return true
}

// String prints one row per line.
func (rm *RotationMatrix) String() string {
	return fmt.Sprintf("[%.6f %.6f %.6f]\n[%.6f %.6f %.6f]\n[%.6f %.6f %.6f]",
		rm.mat[0], rm.mat[1], rm.mat[2],
		rm.mat[3], rm.mat[4], rm.mat[5],
		rm.mat[6], rm.mat[7], rm.mat[8],
	)
}
