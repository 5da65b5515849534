package spatialmath

import (
	"fmt"
	"math"
)

// gimbalLockEpsilon is the threshold on cos(pitch) below which a rotation matrix is treated as
// being at a gimbal lock singularity.
const gimbalLockEpsilon = 1e-6

// EulerAngles are three angles in radians describing a rotation as yaw about Z, then pitch about
// the new Y, then roll about the newest X (intrinsic z-y-x Tait-Bryan angles). The equivalent
// rotation matrix is Rz(Yaw) * Ry(Pitch) * Rx(Roll). Roll, Pitch and Yaw are the rotations about
// the X, Y and Z axes respectively.
type EulerAngles struct {
	Roll  float64 `json:"roll"`  // x-axis
	Pitch float64 `json:"pitch"` // y-axis
	Yaw   float64 `json:"yaw"`   // z-axis
}

// NewEulerAnglesFromDegrees converts roll, pitch and yaw given in degrees.
func NewEulerAnglesFromDegrees(roll, pitch, yaw float64) *EulerAngles {
	return &EulerAngles{Roll: roll * degToRad, Pitch: pitch * degToRad, Yaw: yaw * degToRad}
}

// Degrees returns the angles converted to degrees in roll, pitch, yaw order.
func (ea *EulerAngles) Degrees() [3]float64 {
	return [3]float64{ea.Roll * radToDeg, ea.Pitch * radToDeg, ea.Yaw * radToDeg}
}

func (ea *EulerAngles) String() string {
	return fmt.Sprintf("[%.6f %.6f %.6f]", ea.Roll, ea.Pitch, ea.Yaw)
}

// EulerAnglesToRotationMatrix computes Rz(yaw) * Ry(pitch) * Rx(roll).
func EulerAnglesToRotationMatrix(ea *EulerAngles) *RotationMatrix {
	sr, cr := math.Sincos(ea.Roll)
	sp, cp := math.Sincos(ea.Pitch)
	sy, cy := math.Sincos(ea.Yaw)

	return &RotationMatrix{[9]float64{
		cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr,
		sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr,
		-sp, cp * sr, cp * cr,
	}}
}

// RotationMatrixToEulerAngles decomposes a rotation matrix into intrinsic z-y-x euler angles.
// Pitch is always in [-pi/2, pi/2]. At a gimbal lock (pitch of +-pi/2) yaw and roll are no longer
// independent; yaw is pinned to zero and the whole in-plane rotation is reported as roll.
func RotationMatrixToEulerAngles(rm *RotationMatrix) *EulerAngles {
	cosPitch := math.Hypot(rm.At(0, 0), rm.At(1, 0))
	if cosPitch < gimbalLockEpsilon {
		return &EulerAngles{
			Roll:  math.Atan2(-rm.At(1, 2), rm.At(1, 1)),
			Pitch: math.Atan2(-rm.At(2, 0), cosPitch),
			Yaw:   0,
		}
	}
	return &EulerAngles{
		Roll:  math.Atan2(rm.At(2, 1), rm.At(2, 2)),
		Pitch: math.Atan2(-rm.At(2, 0), cosPitch),
		Yaw:   math.Atan2(rm.At(1, 0), rm.At(0, 0)),
	}
}
