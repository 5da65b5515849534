// Package mocap turns motion capture samples into rigid body poses.
//
// A Source delivers frames of marker positions and per-body samples. A Tracker pulls frames from a
// Source and keeps one spatialmath.Pose per configured rigid body, and a Recorder writes frames to
// disk so that they can be replayed later.
package mocap

import (
	"context"
	"math"
	"time"

	"github.com/golang/geo/r3"
)

// MissingCoordinate is the threshold at or below which a marker coordinate is considered missing. Capture
// hardware reports occluded markers with a huge negative sentinel value.
const MissingCoordinate = -1e28

// A Source delivers motion capture frames. NextFrame blocks until a frame is available or ctx is done,
// and returns io.EOF once the source is exhausted.
type Source interface {
	NextFrame(ctx context.Context) (Frame, error)
	Close(ctx context.Context) error
}

// Frame is one sample of every marker and rigid body a source sees.
type Frame struct {
	Number  int          `json:"number"`
	Time    time.Time    `json:"time"`
	Markers []r3.Vector  `json:"markers"`
	Bodies  []BodySample `json:"bodies,omitempty"`
}

// BodySample is a rigid body as reported by a source. Rotation holds Format.Len() values: roll, pitch
// and yaw in radians, a scalar-first quaternion, or a row-major 3x3 matrix.
type BodySample struct {
	Name     string         `json:"name"`
	Position r3.Vector      `json:"position"`
	Format   RotationFormat `json:"format"`
	Rotation []float64      `json:"rotation,omitempty"`
}

// Body returns the sample for the named body, if the frame has one.
func (f *Frame) Body(name string) (BodySample, bool) {
	for _, b := range f.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return BodySample{}, false
}

// MarkerMissing reports whether a marker position is the missing sentinel or not a number.
func MarkerMissing(v r3.Vector) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || c <= MissingCoordinate {
			return true
		}
	}
	return false
}

// missingMarker is how an occluded marker is written out. NaN has no JSON encoding.
var missingMarker = r3.Vector{X: MissingCoordinate, Y: MissingCoordinate, Z: MissingCoordinate}

// withEncodableMarkers returns f with every missing marker replaced by the sentinel. The caller's
// marker slice is not modified.
func (f Frame) withEncodableMarkers() Frame {
	var markers []r3.Vector
	for i, m := range f.Markers {
		if !MarkerMissing(m) {
			continue
		}
		if markers == nil {
			markers = append([]r3.Vector(nil), f.Markers...)
		}
		markers[i] = missingMarker
	}
	if markers != nil {
		f.Markers = markers
	}
	return f
}
