// Package inject provides injectable implementations of the motion capture interfaces for tests.
package inject

import (
	"context"

	"github.com/bvlab/optopose/mocap"
)

// Source is an injected motion capture source.
type Source struct {
	mocap.Source
	NextFrameFunc func(ctx context.Context) (mocap.Frame, error)
	CloseFunc     func(ctx context.Context) error
}

// NextFrame calls the injected NextFrame or the real version.
func (s *Source) NextFrame(ctx context.Context) (mocap.Frame, error) {
	if s.NextFrameFunc == nil {
		return s.Source.NextFrame(ctx)
	}
	return s.NextFrameFunc(ctx)
}

// Close calls the injected Close or the real version.
func (s *Source) Close(ctx context.Context) error {
	if s.CloseFunc == nil {
		if s.Source == nil {
			return nil
		}
		return s.Source.Close(ctx)
	}
	return s.CloseFunc(ctx)
}
