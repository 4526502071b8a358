package discosync

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/cockroachdb/errors"
)

// versionLayout is the date/time part of a version name: {basename}_{YYYY-MM-DD}_{HHMMSS}.
const versionLayout = "2006-01-02_150405"

// versionSuffix matches the trailing year, month, day and HHMMSS groups.
// Any single non-digit may separate the groups. The year must not be preceded
// by another digit, so five-digit years are rejected instead of truncated.
var versionSuffix = regexp.MustCompile(`(?:^|\D)(\d{4})\D(\d{2})\D(\d{2})\D(\d{6})$`)

// VersionCodec converts between a local file's modification time and the
// version name used as the remote object name.
//
// Encode and Decode use the same location, so a name produced on this host
// decodes back to the epoch it was built from.
type VersionCodec struct {
	loc *time.Location
}

// NewVersionCodec returns a codec that formats and parses wall-clock times in loc.
func NewVersionCodec(loc *time.Location) *VersionCodec {
	if loc == nil {
		loc = time.Local
	}
	return &VersionCodec{loc: loc}
}

// LocalVersionCodec returns a codec using the host's local time zone,
// matching how modification times are shown by the filesystem.
func LocalVersionCodec() *VersionCodec {
	return NewVersionCodec(time.Local)
}

// Encode derives the version name for the file at path modified at mtime
// (epoch seconds).
func (c *VersionCodec) Encode(path string, mtime int64) string {
	return filepath.Base(path) + "_" + time.Unix(mtime, 0).In(c.loc).Format(versionLayout)
}

// Decode parses a version name back into epoch seconds.
// It fails with ErrMalformedVersionName when the trailing groups are missing
// or do not form a valid calendar date and time.
func (c *VersionCodec) Decode(name string) (int64, error) {
	m := versionSuffix.FindStringSubmatch(name)
	if m == nil {
		return 0, malformedVersionName(name, "no trailing date and time groups")
	}

	stamp := fmt.Sprintf("%s-%s-%s_%s", m[1], m[2], m[3], m[4])
	t, err := time.ParseInLocation(versionLayout, stamp, c.loc)
	if err != nil {
		return 0, malformedVersionName(name, err.Error())
	}
	return t.Unix(), nil
}

// DecodeTime is Decode returning a time.Time in the codec's location.
func (c *VersionCodec) DecodeTime(name string) (time.Time, error) {
	sec, err := c.Decode(name)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).In(c.loc), nil
}

func malformedVersionName(name, reason string) error {
	return errors.Mark(
		errors.Newf("malformed version name %q: %s", name, reason),
		ErrMalformedVersionName,
	)
}
