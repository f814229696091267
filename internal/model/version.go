package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Version is a document version label of the form v<major>.<minor>.
type Version struct {
	Major int
	Minor int
}

// InitialVersion is the version every new document starts at.
var InitialVersion = Version{Major: 1, Minor: 0}

// ParseVersion parses labels such as "v1.0" or "v2.13".
func ParseVersion(s string) (Version, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "v")
	if !ok {
		return Version{}, fmt.Errorf("version %q: missing v prefix", s)
	}
	majStr, minStr, ok := strings.Cut(rest, ".")
	if !ok {
		return Version{}, fmt.Errorf("version %q: expected v<major>.<minor>", s)
	}
	major, err := strconv.Atoi(majStr)
	if err != nil || major < 0 {
		return Version{}, fmt.Errorf("version %q: bad major component", s)
	}
	minor, err := strconv.Atoi(minStr)
	if err != nil || minor < 0 {
		return Version{}, fmt.Errorf("version %q: bad minor component", s)
	}
	return Version{Major: major, Minor: minor}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// Next returns the version produced by one content revision.
func (v Version) Next() Version {
	return Version{Major: v.Major, Minor: v.Minor + 1}
}

// Less reports whether v sorts strictly before o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Version) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
