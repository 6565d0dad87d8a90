package tekscope

import (
	"fmt"
	"time"
)

// VersionInfo identifies a build. It is a plain value: construct it once and
// pass it to whatever reports it.
type VersionInfo struct {
	Major, Minor, Patch, Semantic int
	// Release numbers tagged builds; ignored when Tag is set.
	Release int
	// Tag is empty for a release, "dev" for mainline builds and
	// "blood-<branch>" for branch builds. Untagged builds carry the
	// previous release's numbers.
	Tag  string
	Date time.Time
}

// CurrentVersion describes this build of the module.
func CurrentVersion() VersionInfo {
	return VersionInfo{
		Major:   1,
		Minor:   0,
		Patch:   0,
		Release: 1,
		Tag:     "dev",
		Date:    time.Date(2014, time.April, 7, 0, 0, 0, 0, time.UTC),
	}
}

func (v VersionInfo) base() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Semantic)
}

// String is "1.0.0.0-dev" for tagged builds and "1.0.0.0-r1" for releases.
func (v VersionInfo) String() string {
	if v.Tag != "" {
		return v.base() + "-" + v.Tag
	}
	return fmt.Sprintf("%s-r%d", v.base(), v.Release)
}

// PackageString is the form used for package archives: "1.0.0.0-x-dev" or "1.0.0.0-r1".
func (v VersionInfo) PackageString() string {
	if v.Tag != "" {
		return v.base() + "-x-" + v.Tag
	}
	return fmt.Sprintf("%s-r%d", v.base(), v.Release)
}

// DateString formats the build date as "2014 Apr 07".
func (v VersionInfo) DateString() string {
	return v.Date.Format("2006 Jan 02")
}
