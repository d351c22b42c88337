// Package misc keeps build time information about the program.
package misc

import (
	"os"
	"path/filepath"
	"strings"
)

// Set by the linker: -ldflags "-X rsrc/misc.version=... -X rsrc/misc.githash=..."
var (
	version = "dev"
	githash = "unknown"
	appname = ""
)

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns git hash the program was built from.
func GetGitHash() string {
	return githash
}

// GetAppName returns program name, either set at build time or taken from
// the executable name.
func GetAppName() string {
	if len(appname) > 0 {
		return appname
	}
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, filepath.Ext(name))
}
