// Package replay implements a motion capture source that plays back a recording made by
// mocap.Recorder.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/bvlab/optopose/logging"
	"github.com/bvlab/optopose/mocap"
)

// Frames can carry many markers; allow long lines.
const maxLineSize = 16 << 20

// Source reads frames from a JSON lines file, one frame per line. Blank lines are skipped.
type Source struct {
	path   string
	loop   bool
	logger logging.Logger

	mu      sync.Mutex
	f       *os.File
	scanner *bufio.Scanner
	line    int
	frames  int
}

// NewSource opens a recording. With loop set the recording starts over when it ends, so NextFrame
// never returns io.EOF unless the recording holds no frames at all.
func NewSource(path string, loop bool, logger logging.Logger) (*Source, error) {
	s := &Source{path: path, loop: loop, logger: logger}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Source) open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.Wrapf(err, "cannot open recording %q", s.path)
	}
	s.f = f
	s.scanner = bufio.NewScanner(f)
	s.scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	s.line = 0
	return nil
}

// NextFrame returns the next recorded frame.
func (s *Source) NextFrame(ctx context.Context) (mocap.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return mocap.Frame{}, errors.New("replay source is closed")
	}

	rewound := false
	for {
		if err := ctx.Err(); err != nil {
			return mocap.Frame{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return mocap.Frame{}, errors.Wrapf(err, "%s:%d", s.path, s.line+1)
			}
			// a second EOF in a row means the file has no frames
			if !s.loop || rewound {
				return mocap.Frame{}, io.EOF
			}
			if err := s.rewind(); err != nil {
				return mocap.Frame{}, err
			}
			rewound = true
			continue
		}
		s.line++
		data := s.scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var frame mocap.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			return mocap.Frame{}, errors.Wrapf(err, "%s:%d", s.path, s.line)
		}
		s.frames++
		return frame, nil
	}
}

func (s *Source) rewind() error {
	s.logger.Debugw("rewinding recording", "path", s.path, "frames", s.frames)
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "cannot rewind %q", s.path)
	}
	s.scanner = bufio.NewScanner(s.f)
	s.scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	s.line = 0
	return nil
}

// Close closes the recording. It is safe to call more than once.
func (s *Source) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
