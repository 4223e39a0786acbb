package comp

import "fmt"

// SupportedVersion is the only export schema version this importer reads.
// The layout changed incompatibly between versions, so newer and older
// files are both rejected.
const SupportedVersion = 3

// VersionErrorKind classifies a rejected schema version.
type VersionErrorKind int

const (
	TooNew VersionErrorKind = iota
	TooOld
	Invalid
)

func (k VersionErrorKind) String() string {
	switch k {
	case TooNew:
		return "too new"
	case TooOld:
		return "too old"
	default:
		return "invalid"
	}
}

// VersionError is returned by CheckVersion. It is a warning for the user,
// not a failure: the document is skipped before anything is imported.
type VersionError struct {
	Kind    VersionErrorKind
	Version int // 0 when absent
}

func (e *VersionError) Error() string {
	switch e.Kind {
	case TooNew:
		return fmt.Sprintf("this file is too new, update the importer (version %d, supported %d)", e.Version, SupportedVersion)
	case TooOld:
		return fmt.Sprintf("this file is too old, re-export it with a newer exporter (version %d, supported %d)", e.Version, SupportedVersion)
	default:
		return "this isn't a valid exported file in the correct format"
	}
}

// CheckVersion accepts exactly SupportedVersion.
func CheckVersion(doc *Document) error {
	if doc == nil || doc.Version == nil {
		return &VersionError{Kind: Invalid}
	}
	v := *doc.Version
	switch {
	case v > SupportedVersion:
		return &VersionError{Kind: TooNew, Version: v}
	case v < SupportedVersion:
		return &VersionError{Kind: TooOld, Version: v}
	}
	return nil
}
