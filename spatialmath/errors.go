package spatialmath

import "github.com/pkg/errors"

var (
	// ErrWrongSizedVector is returned when a rotation vector is neither 3 (euler angles) nor 4 (quaternion) long.
	ErrWrongSizedVector = errors.New("wrong-sized vector to initialize pose")
	// ErrWrongSizedMatrix is returned when a rotation matrix is not 3x3.
	ErrWrongSizedMatrix = errors.New("wrong-sized matrix to initialize pose")
)

// newNoValidFormatError describes a rotation cache that has lost all of its forms. It is only ever
// used as a panic value.
func newNoValidFormatError(op string) error {
	return errors.Errorf("rotation %s: no valid rotation format cached", op)
}
