package mocap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/bvlab/optopose/logging"
)

// DefaultFrameFrequency is the frame rate, in Hz, used when a config does not set one.
const DefaultFrameFrequency = 120.0

// Source types a config may name.
const (
	SourceTypeFake   = "fake"
	SourceTypeReplay = "replay"
)

// Config describes a capture session: the marker layout, the rigid bodies built from it and where the
// frames come from.
type Config struct {
	FrameFrequency float64         `json:"frame_frequency,omitempty"`
	NumMarkers     int             `json:"num_markers"`
	Bodies         []BodyConfig    `json:"bodies"`
	Source         SourceConfig    `json:"source"`
	Record         *RecorderConfig `json:"record,omitempty"`
	LogLevel       *logging.Level  `json:"log_level,omitempty"`
}

// BodyConfig is a rigid body made of NumMarkers consecutive markers starting at FirstMarker (zero
// based). Format is the rotation format the source reports for it; undefined bodies are tracked
// from the centroid of their markers.
type BodyConfig struct {
	Name        string         `json:"name"`
	FirstMarker int            `json:"first_marker"`
	NumMarkers  int            `json:"num_markers"`
	Format      RotationFormat `json:"format"`
}

// SourceConfig picks and configures a Source.
type SourceConfig struct {
	Type string `json:"type"`

	// replay
	Path string `json:"path,omitempty"`
	Loop bool   `json:"loop,omitempty"`

	// fake
	DegreesPerFrame float64 `json:"degrees_per_frame,omitempty"`
	Radius          float64 `json:"radius,omitempty"`
}

// RecorderConfig sets up frame recording to a size rotated file.
type RecorderConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	Compress   bool   `json:"compress,omitempty"`
}

// ReadConfig reads a config from the given file. Environment variables in the file are expanded first.
func ReadConfig(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", filePath)
	}
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader reads a config from the given reader and specifies where, if applicable, the file the
// reader originated from. Defaults are filled in and the result is validated.
func FromReader(originalPath string, r io.Reader) (*Config, error) {
	var cfg Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", originalPath)
	}
	cfg.Ensure()
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Ensure fills in defaults for unset fields.
func (cfg *Config) Ensure() {
	if cfg.FrameFrequency == 0 {
		cfg.FrameFrequency = DefaultFrameFrequency
	}
	if cfg.Source.Type == SourceTypeFake && cfg.Source.DegreesPerFrame == 0 {
		cfg.Source.DegreesPerFrame = 1
	}
}

// Validate ensures all parts of the config are valid. path is the location of the config within any
// enclosing document and prefixes every error.
func (cfg *Config) Validate(path string) error {
	if cfg.FrameFrequency <= 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("frame_frequency must be positive, got %v", cfg.FrameFrequency))
	}
	if cfg.NumMarkers < 0 {
		return goutils.NewConfigValidationError(path, errors.New("num_markers cannot be negative"))
	}

	seen := make(map[string]struct{}, len(cfg.Bodies))
	for i, body := range cfg.Bodies {
		bodyPath := fmt.Sprintf("%s.bodies.%d", path, i)
		if err := body.Validate(bodyPath, cfg.NumMarkers); err != nil {
			return err
		}
		if _, ok := seen[body.Name]; ok {
			return goutils.NewConfigValidationError(bodyPath, errors.Errorf("duplicate body name %q", body.Name))
		}
		seen[body.Name] = struct{}{}
	}

	if err := cfg.Source.Validate(path + ".source"); err != nil {
		return err
	}
	if cfg.Record != nil && cfg.Record.Path == "" {
		return goutils.NewConfigValidationFieldRequiredError(path+".record", "path")
	}
	return nil
}

// Validate checks a body against the number of markers in the session.
func (body *BodyConfig) Validate(path string, numMarkers int) error {
	if body.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if _, ok := rotationFormatNames[body.Format]; !ok {
		return goutils.NewConfigValidationError(path, errors.Errorf("unknown rotation format %d", int(body.Format)))
	}
	if body.NumMarkers < 0 || body.FirstMarker < 0 {
		return goutils.NewConfigValidationError(path, errors.New("marker range cannot be negative"))
	}
	if body.Format == FormatUndefined && body.NumMarkers == 0 {
		return goutils.NewConfigValidationError(path,
			errors.New("a body without a rotation format needs at least one marker"))
	}
	if body.FirstMarker+body.NumMarkers > numMarkers {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("markers [%d, %d) out of range, session has %d markers",
				body.FirstMarker, body.FirstMarker+body.NumMarkers, numMarkers))
	}
	return nil
}

// Validate checks that the source type is known and has what it needs.
func (sc *SourceConfig) Validate(path string) error {
	switch sc.Type {
	case "":
		return goutils.NewConfigValidationFieldRequiredError(path, "type")
	case SourceTypeReplay:
		if sc.Path == "" {
			return goutils.NewConfigValidationFieldRequiredError(path, "path")
		}
	case SourceTypeFake:
		if sc.Radius < 0 {
			return goutils.NewConfigValidationError(path, errors.New("radius cannot be negative"))
		}
	default:
		return goutils.NewConfigValidationError(path, errors.Errorf("unknown source type %q", sc.Type))
	}
	return nil
}
