// Package common holds types shared by configuration, resolvers and the
// command line front end.
package common

// Policy applied when a string key or an image cannot be resolved.
// ENUM(default, strict, lenient)
type ResolutionMode int

// Resolve maps unset mode to the production default.
func (m ResolutionMode) Resolve() ResolutionMode {
	if m == ResolutionModeDefault {
		return ResolutionModeLenient
	}
	return m
}

// Strict reports whether misses must fail loudly.
func (m ResolutionMode) Strict() bool {
	return m.Resolve() == ResolutionModeStrict
}
