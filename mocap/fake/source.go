// Package fake implements a synthetic motion capture source.
package fake

import (
	"context"
	"math"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/bvlab/optopose/mocap"
	"github.com/bvlab/optopose/spatialmath"
)

// Source generates frames for the bodies of a config. Every body spins about Z around the origin of
// the capture volume at the configured rate, its markers laid out on a ring of the configured radius
// around the body origin. Samples are reported in each body's configured rotation format.
type Source struct {
	cfg   *mocap.Config
	clock clock.Clock

	mu     sync.Mutex
	frame  int
	closed bool
}

// NewSource returns a fake source for cfg, stamping frames with c.
func NewSource(cfg *mocap.Config, c clock.Clock) *Source {
	if c == nil {
		c = clock.New()
	}
	return &Source{cfg: cfg, clock: c}
}

// NextFrame returns the next synthetic frame. It never blocks.
func (s *Source) NextFrame(ctx context.Context) (mocap.Frame, error) {
	if err := ctx.Err(); err != nil {
		return mocap.Frame{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return mocap.Frame{}, errors.New("fake source is closed")
	}

	s.frame++
	yaw := wrapAngle(float64(s.frame) * s.cfg.Source.DegreesPerFrame * math.Pi / 180)
	frame := mocap.Frame{
		Number:  s.frame,
		Time:    s.clock.Now(),
		Markers: make([]r3.Vector, s.cfg.NumMarkers),
	}
	for i, body := range s.cfg.Bodies {
		pose := BodyPose(i, yaw)
		for m := 0; m < body.NumMarkers; m++ {
			frame.Markers[body.FirstMarker+m] = pose.Transform(ringPoint(m, body.NumMarkers, s.cfg.Source.Radius))
		}
		if body.Format == mocap.FormatUndefined {
			continue
		}
		frame.Bodies = append(frame.Bodies, mocap.BodySample{
			Name:     body.Name,
			Position: pose.Translation(),
			Format:   body.Format,
			Rotation: rotationValues(pose, body.Format),
		})
	}
	return frame, nil
}

// Close stops the source.
func (s *Source) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// BodyPose is the pose of the i-th configured body at the given yaw. Bodies are spread along X,
// 100 units apart.
func BodyPose(i int, yaw float64) *spatialmath.Pose {
	return spatialmath.NewPoseFromEuler(&spatialmath.EulerAngles{Yaw: yaw}, r3.Vector{X: 100 * float64(i)})
}

func ringPoint(m, n int, radius float64) r3.Vector {
	if n == 0 {
		return r3.Vector{}
	}
	theta := 2 * math.Pi * float64(m) / float64(n)
	return r3.Vector{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
}

func rotationValues(pose *spatialmath.Pose, format mocap.RotationFormat) []float64 {
	switch format {
	case mocap.FormatEuler:
		ea := pose.EulerAngles()
		return []float64{ea.Roll, ea.Pitch, ea.Yaw}
	case mocap.FormatQuaternion:
		q := pose.Quaternion()
		return []float64{q.Real, q.Imag, q.Jmag, q.Kmag}
	case mocap.FormatMatrix:
		return pose.RotationMatrix().Values()
	default:
		return nil
	}
}

// wrapAngle maps an angle into (-pi, pi].
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
