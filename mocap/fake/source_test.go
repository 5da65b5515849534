package fake

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/bvlab/optopose/logging"
	"github.com/bvlab/optopose/mocap"
	"github.com/bvlab/optopose/spatialmath"
)

func fakeConfig() *mocap.Config {
	cfg := &mocap.Config{
		NumMarkers: 10,
		Bodies: []mocap.BodyConfig{
			{Name: "euler", FirstMarker: 0, NumMarkers: 3, Format: mocap.FormatEuler},
			{Name: "quat", FirstMarker: 3, NumMarkers: 3, Format: mocap.FormatQuaternion},
			{Name: "matrix", FirstMarker: 6, NumMarkers: 3, Format: mocap.FormatMatrix},
			{Name: "marker", FirstMarker: 9, NumMarkers: 1},
		},
		Source: mocap.SourceConfig{Type: mocap.SourceTypeFake, DegreesPerFrame: 90, Radius: 10},
	}
	cfg.Ensure()
	return cfg
}

func TestFakeFrames(t *testing.T) {
	ctx := context.Background()
	mockClock := clock.NewMock()
	src := NewSource(fakeConfig(), mockClock)

	frame, err := src.NextFrame(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Number, test.ShouldEqual, 1)
	test.That(t, frame.Time, test.ShouldEqual, mockClock.Now())
	test.That(t, frame.Markers, test.ShouldHaveLength, 10)
	test.That(t, frame.Bodies, test.ShouldHaveLength, 3)

	for _, sample := range frame.Bodies {
		test.That(t, sample.Rotation, test.ShouldHaveLength, sample.Format.Len())
	}

	// the first marker of the euler body sits on the ring, a quarter turn from +X
	m := frame.Markers[0]
	test.That(t, m.X, test.ShouldAlmostEqual, 0)
	test.That(t, m.Y, test.ShouldAlmostEqual, 10)

	euler, ok := frame.Body("euler")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, euler.Rotation[2], test.ShouldAlmostEqual, math.Pi/2)

	mockClock.Add(time.Second)
	frame, err = src.NextFrame(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Number, test.ShouldEqual, 2)
	q, _ := frame.Body("quat")
	// half a turn about Z
	test.That(t, math.Abs(q.Rotation[3]), test.ShouldAlmostEqual, 1)
	test.That(t, q.Position.X, test.ShouldEqual, 100)

	test.That(t, src.Close(ctx), test.ShouldBeNil)
	_, err = src.NextFrame(ctx)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFakeFeedsTracker(t *testing.T) {
	ctx := context.Background()
	cfg := fakeConfig()
	tracker, err := mocap.NewTracker(cfg, NewSource(cfg, nil), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	for i := 0; i < 3; i++ {
		_, err = tracker.Update(ctx)
		test.That(t, err, test.ShouldBeNil)
	}

	// three quarter turns: every format must agree
	expected := BodyPose(0, wrapAngle(3*math.Pi/2))
	for i, name := range []string{"euler", "quat", "matrix"} {
		pose, ok := tracker.Pose(name)
		test.That(t, ok, test.ShouldBeTrue)
		want := BodyPose(i, wrapAngle(3*math.Pi/2))
		test.That(t, spatialmath.PoseAlmostEqual(pose, want, 1e-9), test.ShouldBeTrue)
		test.That(t, pose.RotationMatrix().AlmostEqual(expected.RotationMatrix(), 1e-9), test.ShouldBeTrue)
	}

	marker, ok := tracker.Pose("marker")
	test.That(t, ok, test.ShouldBeTrue)
	// a single marker on the ring around the fourth body origin
	test.That(t, marker.Translation().Sub(r3.Vector{X: 300}).Norm(), test.ShouldAlmostEqual, 10)
	test.That(t, tracker.Close(ctx), test.ShouldBeNil)
}

func TestWrapAngle(t *testing.T) {
	test.That(t, wrapAngle(0), test.ShouldEqual, 0)
	test.That(t, wrapAngle(math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, wrapAngle(-math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, wrapAngle(3*math.Pi/2), test.ShouldAlmostEqual, -math.Pi/2)
}
