// Package launch holds the public domain types of the telcat launcher.
package launch

import "fmt"

// ImageRef identifies a buildable, runnable image in the container
// runtime's local store by its (name, tag) pair. Identity is exact
// string equality on the rendered name:tag form.
type ImageRef struct {
	Name string
	Tag  string
}

// String renders the reference in the canonical name:tag form.
func (r ImageRef) String() string {
	return fmt.Sprintf("%s:%s", r.Name, r.Tag)
}

// IsZero reports whether the reference carries no name. A zero reference
// must never reach the runner.
func (r ImageRef) IsZero() bool {
	return r.Name == ""
}

// Mode selects the resolver policy for an existing image.
type Mode int

const (
	// BuildIfMissing reuses an image that already exists locally and
	// builds it only on a cold start.
	BuildIfMissing Mode = iota

	// AlwaysBuild rebuilds the image unconditionally, regardless of
	// prior existence.
	AlwaysBuild
)

func (m Mode) String() string {
	switch m {
	case BuildIfMissing:
		return "build-if-missing"
	case AlwaysBuild:
		return "always-build"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}
