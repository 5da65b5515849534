package mocap

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/bvlab/optopose/logging"
	"github.com/bvlab/optopose/spatialmath"
)

var (
	// ErrMissingMarkers is returned when a frame does not carry every configured marker. The whole
	// frame is rejected.
	ErrMissingMarkers = errors.New("frame is missing marker elements")
	// ErrBodyFormat is returned when a body sample does not match its configured rotation format.
	ErrBodyFormat = errors.New("body sample does not match configured rotation format")
)

// Stats counts what a tracker has done.
type Stats struct {
	Frames    int
	Rejected  int
	LastFrame int
}

// A Tracker keeps the latest pose of every configured rigid body. It is safe for one goroutine to
// update it while others read poses.
type Tracker struct {
	cfg      *Config
	source   Source
	recorder *Recorder
	clock    clock.Clock
	logger   logging.Logger
	onFrame  func(frameNum int)

	mu    sync.RWMutex
	poses map[string]*spatialmath.Pose
	stats Stats
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock sets the clock used to pace Run.
func WithClock(c clock.Clock) TrackerOption {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithRecorder records every frame the tracker pulls. The tracker closes the recorder on Close.
func WithRecorder(r *Recorder) TrackerOption {
	return func(t *Tracker) {
		t.recorder = r
	}
}

// WithFrameCallback registers f to be called by Run after every applied frame, outside the lock.
func WithFrameCallback(f func(frameNum int)) TrackerOption {
	return func(t *Tracker) {
		t.onFrame = f
	}
}

// NewTracker returns a tracker for the bodies in cfg, fed by source.
func NewTracker(cfg *Config, source Source, logger logging.Logger, opts ...TrackerOption) (*Tracker, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	t := &Tracker{
		cfg:    cfg,
		source: source,
		clock:  clock.New(),
		logger: logger,
		poses:  make(map[string]*spatialmath.Pose, len(cfg.Bodies)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Update pulls one frame from the source and applies it. A frame whose marker count does not match
// the config is rejected with ErrMissingMarkers and changes nothing. Bodies that cannot be updated
// from an accepted frame keep their previous pose and their errors are returned combined.
func (t *Tracker) Update(ctx context.Context) (int, error) {
	frame, err := t.source.NextFrame(ctx)
	if err != nil {
		return -1, err
	}
	if t.recorder != nil {
		if err := t.recorder.Record(frame); err != nil {
			t.logger.CWarnw(ctx, "failed to record frame", "frame", frame.Number, "error", err)
		}
	}

	if len(frame.Markers) != t.cfg.NumMarkers {
		t.mu.Lock()
		t.stats.Rejected++
		t.mu.Unlock()
		return -1, errors.Wrapf(ErrMissingMarkers, "frame %d has %d markers, want %d",
			frame.Number, len(frame.Markers), t.cfg.NumMarkers)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	var errs error
	for i := range t.cfg.Bodies {
		body := &t.cfg.Bodies[i]
		if err := t.applyBody(body, &frame); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "frame %d, body %q", frame.Number, body.Name))
		}
	}
	t.stats.Frames++
	t.stats.LastFrame = frame.Number
	t.logger.CDebugw(ctx, "frame applied", "frame", frame.Number, "bodies", len(t.poses))
	return frame.Number, errs
}

// applyBody updates one body's pose in place. Must be called with mu held.
func (t *Tracker) applyBody(body *BodyConfig, frame *Frame) error {
	if body.Format == FormatUndefined {
		position, ok := markerCentroid(frame.Markers[body.FirstMarker : body.FirstMarker+body.NumMarkers])
		if !ok {
			// occluded; keep the last known pose
			return nil
		}
		t.pose(body.Name).SetTranslation(position)
		return nil
	}

	sample, ok := frame.Body(body.Name)
	if !ok {
		return nil
	}
	if sample.Format != body.Format {
		return errors.Wrapf(ErrBodyFormat, "got %v, want %v", sample.Format, body.Format)
	}
	if len(sample.Rotation) != body.Format.Len() {
		return errors.Wrapf(spatialmath.ErrWrongSizedVector, "%v rotation has %d values", body.Format, len(sample.Rotation))
	}

	pose := t.pose(body.Name)
	r := sample.Rotation
	switch body.Format {
	case FormatEuler:
		pose.SetRotationEuler(r[0], r[1], r[2])
	case FormatQuaternion:
		pose.SetRotationQuaternion(r[0], r[1], r[2], r[3])
	case FormatMatrix:
		rm, err := spatialmath.NewRotationMatrix(r)
		if err != nil {
			return err
		}
		pose.SetRotationMatrix(rm)
	case FormatUndefined:
	}
	pose.SetTranslation(sample.Position)
	return nil
}

// pose returns the tracked pose for name, creating it at identity. Must be called with mu held.
func (t *Tracker) pose(name string) *spatialmath.Pose {
	p, ok := t.poses[name]
	if !ok {
		p = spatialmath.NewZeroPose()
		t.poses[name] = p
	}
	return p
}

func markerCentroid(markers []r3.Vector) (r3.Vector, bool) {
	var sum r3.Vector
	for _, m := range markers {
		if MarkerMissing(m) {
			return r3.Vector{}, false
		}
		sum = sum.Add(m)
	}
	if len(markers) == 0 {
		return r3.Vector{}, false
	}
	return sum.Mul(1 / float64(len(markers))), true
}

// Pose returns a copy of the latest pose of the named body. It returns false if the body has not been
// seen yet.
func (t *Tracker) Pose(name string) (*spatialmath.Pose, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.poses[name]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Poses returns copies of the latest poses of the named bodies, or of every tracked body if no names
// are given. Bodies not seen yet are left out.
func (t *Tracker) Poses(bodyNames ...string) map[string]*spatialmath.Pose {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(bodyNames) == 0 {
		out := make(map[string]*spatialmath.Pose, len(t.poses))
		for name, p := range t.poses {
			out[name] = p.Clone()
		}
		return out
	}
	out := make(map[string]*spatialmath.Pose, len(bodyNames))
	for _, name := range bodyNames {
		if p, ok := t.poses[name]; ok {
			out[name] = p.Clone()
		}
	}
	return out
}

// Stats returns the tracker's counters.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// Period returns the time between frames at the configured frame frequency.
func (t *Tracker) Period() time.Duration {
	return time.Duration(float64(time.Second) / t.cfg.FrameFrequency)
}

// Run updates the tracker once per frame period until ctx is done, the source is exhausted or
// maxFrames frames have been applied (zero means no limit). Rejected frames and body errors are
// logged and skipped; any other source error stops the run and is returned.
func (t *Tracker) Run(ctx context.Context, maxFrames int) error {
	ticker := t.clock.Ticker(t.Period())
	defer ticker.Stop()

	applied := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frameNum, err := t.Update(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			t.logger.CInfow(ctx, "source exhausted", "frames", applied)
			return nil
		case errors.Is(err, ErrMissingMarkers):
			t.logger.CWarnw(ctx, "frame rejected", "error", err)
			continue
		case errors.Is(err, ErrBodyFormat), errors.Is(err, spatialmath.ErrWrongSizedVector),
			errors.Is(err, spatialmath.ErrWrongSizedMatrix):
			t.logger.CWarnw(ctx, "bodies skipped", "frame", frameNum, "error", err)
		case ctx.Err() != nil:
			return nil
		default:
			return err
		}

		applied++
		if t.onFrame != nil {
			t.onFrame(frameNum)
		}
		if maxFrames > 0 && applied >= maxFrames {
			return nil
		}
	}
}

// Close closes the source and the recorder, if any.
func (t *Tracker) Close(ctx context.Context) error {
	err := t.source.Close(ctx)
	if t.recorder != nil {
		err = multierr.Combine(err, t.recorder.Close())
	}
	return err
}
