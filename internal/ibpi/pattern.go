package ibpi

import (
	"fmt"
	"strings"
)

// Pattern is an enclosure LED state a drive bay should display.
type Pattern int

const (
	Unknown Pattern = iota
	None
	Normal
	OneshotNormal
	Degraded
	Hotspare
	Rebuild
	FailedArray
	PFA
	FailedDrive
	LocateOn
	LocateOff
	Added
	Removed
)

var names = map[Pattern]string{
	Unknown:       "unknown",
	None:          "none",
	Normal:        "normal",
	OneshotNormal: "oneshot_normal",
	Degraded:      "degraded",
	Hotspare:      "hotspare",
	Rebuild:       "rebuild",
	FailedArray:   "failed_array",
	PFA:           "pfa",
	FailedDrive:   "failure",
	LocateOn:      "locate",
	LocateOff:     "locate_off",
	Added:         "added",
	Removed:       "removed",
}

// aliases accepted by Parse in addition to the canonical names
var aliases = map[string]Pattern{
	"off":            Normal,
	"locate_on":      LocateOn,
	"ident":          LocateOn,
	"failed_drive":   FailedDrive,
	"fault":          FailedDrive,
	"hot_spare":      Hotspare,
	"ica":            FailedArray,
	"rebuild_p":      Rebuild,
	"oneshot-normal": OneshotNormal,
	"locate-off":     LocateOff,
}

func (p Pattern) String() string {
	if name, ok := names[p]; ok {
		return name
	}
	return fmt.Sprintf("pattern(%d)", int(p))
}

// Parse converts a pattern name (case-insensitive) to a Pattern.
func Parse(s string) (Pattern, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for p, name := range names {
		if name == key {
			return p, nil
		}
	}
	if p, ok := aliases[key]; ok {
		return p, nil
	}
	return Unknown, fmt.Errorf("unknown pattern %q", s)
}

// MarshalText implements encoding.TextMarshaler so patterns render by name
// in JSON output.
func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pattern) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
