package mocap

import (
	"strings"

	"github.com/pkg/errors"
)

// RotationFormat says how a rigid body sample encodes its rotation.
type RotationFormat int

// Known rotation formats. FormatUndefined means the sample carries no rotation and the body is tracked
// from its markers alone.
const (
	FormatUndefined RotationFormat = iota
	FormatEuler
	FormatQuaternion
	FormatMatrix
)

var rotationFormatNames = map[RotationFormat]string{
	FormatUndefined:  "undefined",
	FormatEuler:      "euler",
	FormatQuaternion: "quaternion",
	FormatMatrix:     "matrix",
}

func (f RotationFormat) String() string {
	if name, ok := rotationFormatNames[f]; ok {
		return name
	}
	return "unknown"
}

// Len returns the number of values a sample in this format carries.
func (f RotationFormat) Len() int {
	switch f {
	case FormatEuler:
		return 3
	case FormatQuaternion:
		return 4
	case FormatMatrix:
		return 9
	default:
		return 0
	}
}

// ParseRotationFormat parses a format name. The empty string is FormatUndefined.
func ParseRotationFormat(s string) (RotationFormat, error) {
	if s == "" {
		return FormatUndefined, nil
	}
	for f, name := range rotationFormatNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return FormatUndefined, errors.Errorf("unknown rotation format %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f RotationFormat) MarshalText() ([]byte, error) {
	name, ok := rotationFormatNames[f]
	if !ok {
		return nil, errors.Errorf("cannot marshal rotation format %d", int(f))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *RotationFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseRotationFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
