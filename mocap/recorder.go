package mocap

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultRecordMaxSizeMB = 100

// Recorder appends frames as JSON lines to a file that is rotated once it grows past a size limit.
// The output can be read back with the replay source.
type Recorder struct {
	mu  sync.Mutex
	out *lumberjack.Logger
	n   int
}

// NewRecorder creates a recorder. The file is opened lazily on the first write.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.Path == "" {
		return nil, errors.New("recorder needs a path")
	}
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = defaultRecordMaxSizeMB
	}
	return &Recorder{
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		},
	}, nil
}

// Record writes one frame. Missing markers are written as MissingCoordinate.
func (r *Recorder) Record(frame Frame) error {
	line, err := json.Marshal(frame.withEncodableMarkers())
	if err != nil {
		return errors.Wrapf(err, "cannot encode frame %d", frame.Number)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.out.Write(line); err != nil {
		return errors.Wrapf(err, "cannot record frame %d", frame.Number)
	}
	r.n++
	return nil
}

// Recorded returns the number of frames written so far.
func (r *Recorder) Recorded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Close closes the current file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.Close()
}
