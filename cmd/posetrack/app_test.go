package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func writeConfig(t *testing.T, dir, source string) string {
	t.Helper()
	cfg := fmt.Sprintf(`{
		"frame_frequency": 500,
		"num_markers": 4,
		"bodies": [
			{"name": "wand", "first_marker": 0, "num_markers": 3, "format": "matrix"},
			{"name": "probe", "first_marker": 3, "num_markers": 1}
		],
		"source": %s
	}`, source)
	path := filepath.Join(dir, "session.json")
	test.That(t, os.WriteFile(path, []byte(cfg), 0o600), test.ShouldBeNil)
	return path
}

func TestPosetrackFakeAndReplay(t *testing.T) {
	dir := t.TempDir()
	recording := filepath.Join(dir, "frames.jsonl")

	var out, logs bytes.Buffer
	cfgPath := writeConfig(t, dir, `{"type": "fake", "degrees_per_frame": 90, "radius": 5}`)
	err := newApp(&out, &logs).RunContext(context.Background(),
		[]string{"posetrack", "--config", cfgPath, "--frames", "3", "--record", recording})
	test.That(t, err, test.ShouldBeNil)
	live := out.String()
	test.That(t, live, test.ShouldContainSubstring, "frame 1 probe: xyz")
	test.That(t, live, test.ShouldContainSubstring, "frame 3 wand: xyz [0.000 0.000 0.000] rpy [0.000 0.000 -90.000]")
	// logs stay out of the pose output
	test.That(t, live, test.ShouldNotContainSubstring, "tracking")
	test.That(t, logs.String(), test.ShouldContainSubstring, "tracking")

	// replaying the recording reproduces the same poses
	out.Reset()
	logs.Reset()
	cfgPath = writeConfig(t, dir, fmt.Sprintf(`{"type": "replay", "path": %q}`, recording))
	err = newApp(&out, &logs).RunContext(context.Background(), []string{"posetrack", "-c", cfgPath, "--dump"})
	test.That(t, err, test.ShouldBeNil)
	replayed := out.String()
	test.That(t, replayed, test.ShouldContainSubstring, "frame 3 wand\nTranslation: [0.000000 0.000000 0.000000]\nformat cache:")
	test.That(t, logs.String(), test.ShouldContainSubstring, "source exhausted")
	test.That(t, replayed, test.ShouldNotContainSubstring, "source exhausted")
	test.That(t, strings.Count(replayed, "frame 3 probe"), test.ShouldEqual, 1)
}

func TestPosetrackErrors(t *testing.T) {
	var out bytes.Buffer
	err := newApp(&out, &out).RunContext(context.Background(), []string{"posetrack"})
	test.That(t, err, test.ShouldNotBeNil)

	dir := t.TempDir()
	err = newApp(&out, &out).RunContext(context.Background(),
		[]string{"posetrack", "--config", filepath.Join(dir, "missing.json")})
	test.That(t, err, test.ShouldNotBeNil)

	cfgPath := writeConfig(t, dir, `{"type": "replay", "path": "/nonexistent/frames.jsonl"}`)
	err = newApp(&out, &out).RunContext(context.Background(), []string{"posetrack", "--config", cfgPath})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot open recording")

	cfgPath = writeConfig(t, dir, `{"type": "fake"}`)
	err = newApp(&out, &out).RunContext(context.Background(), []string{"posetrack", "--config", cfgPath, "--frames", "-1"})
	test.That(t, err, test.ShouldNotBeNil)
}
