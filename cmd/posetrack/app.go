package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/bvlab/optopose/logging"
	"github.com/bvlab/optopose/mocap"
	"github.com/bvlab/optopose/mocap/fake"
	"github.com/bvlab/optopose/mocap/replay"
)

const (
	flagConfig = "config"
	flagFrames = "frames"
	flagRecord = "record"
	flagDump   = "dump"
	flagDebug  = "debug"
)

// newApp builds the command. Poses are printed to out and logs go to errOut.
func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "posetrack",
		Usage:     "track rigid body poses from a motion capture source",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagConfig,
				Aliases:  []string{"c"},
				Usage:    "load the session from `FILE`",
				Required: true,
			},
			&cli.IntFlag{
				Name:    flagFrames,
				Aliases: []string{"n"},
				Usage:   "stop after `N` frames, 0 runs until interrupted or the source ends",
			},
			&cli.StringFlag{
				Name:  flagRecord,
				Usage: "record every frame to `FILE`, overriding the config",
			},
			&cli.BoolFlag{
				Name:  flagDump,
				Usage: "print the full rotation cache of every pose",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Action: runTracker,
	}
}

func runTracker(c *cli.Context) (err error) {
	cfg, err := mocap.ReadConfig(c.String(flagConfig))
	if err != nil {
		return err
	}
	if c.Int(flagFrames) < 0 {
		return errors.Errorf("--%s cannot be negative", flagFrames)
	}

	logger := logging.NewBlankLogger("posetrack")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if cfg.LogLevel != nil {
		logger.SetLevel(*cfg.LogLevel)
	} else {
		logger.SetLevel(logging.INFO)
	}
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	logging.ReplaceGlobal(logger)
	defer goutils.UncheckedErrorFunc(logger.Sync)

	ctx := c.Context
	source, err := newSource(cfg, logger)
	if err != nil {
		return err
	}

	opts := []mocap.TrackerOption{}
	recordCfg := cfg.Record
	if path := c.String(flagRecord); path != "" {
		recordCfg = &mocap.RecorderConfig{Path: path}
	}
	if recordCfg != nil {
		recorder, err := mocap.NewRecorder(*recordCfg)
		if err != nil {
			return multierr.Combine(err, source.Close(ctx))
		}
		opts = append(opts, mocap.WithRecorder(recorder))
	}

	var tracker *mocap.Tracker
	dump := c.Bool(flagDump)
	opts = append(opts, mocap.WithFrameCallback(func(frameNum int) {
		printPoses(c.App.Writer, frameNum, tracker, dump)
	}))
	tracker, err = mocap.NewTracker(cfg, source, logger.Sublogger("tracker"), opts...)
	if err != nil {
		return multierr.Combine(err, source.Close(ctx))
	}
	defer func() {
		// the run context may already be done
		err = multierr.Combine(err, tracker.Close(context.Background()))
	}()

	logger.Infow("tracking", "bodies", len(cfg.Bodies), "source", cfg.Source.Type, "hz", cfg.FrameFrequency)
	if err := tracker.Run(ctx, c.Int(flagFrames)); err != nil {
		return err
	}
	stats := tracker.Stats()
	logger.Infow("done", "frames", stats.Frames, "rejected", stats.Rejected, "last_frame", stats.LastFrame)
	return nil
}

func newSource(cfg *mocap.Config, logger logging.Logger) (mocap.Source, error) {
	switch cfg.Source.Type {
	case mocap.SourceTypeFake:
		return fake.NewSource(cfg, nil), nil
	case mocap.SourceTypeReplay:
		src, err := replay.NewSource(cfg.Source.Path, cfg.Source.Loop, logger.Sublogger("replay"))
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, errors.Errorf("unknown source type %q", cfg.Source.Type)
	}
}

func printPoses(w io.Writer, frameNum int, tracker *mocap.Tracker, dump bool) {
	poses := tracker.Poses()
	names := make([]string, 0, len(poses))
	for name := range poses {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pose := poses[name]
		if dump {
			fmt.Fprintf(w, "frame %d %s\n%s\n", frameNum, name, pose)
			continue
		}
		x, y, z := pose.TranslationXYZ()
		deg := pose.EulerAngles().Degrees()
		fmt.Fprintf(w, "frame %d %s: xyz [%.3f %.3f %.3f] rpy [%.3f %.3f %.3f]\n",
			frameNum, name, x, y, z, deg[0], deg[1], deg[2])
	}
}
