package loader

import (
	"os"
	"path/filepath"
)

// Config file names.
const (
	FileName        = "config.toml"
	ProjectFileName = ".niv.toml"
	AltProjectName  = "niv.toml"
)

// Candidates returns the discovery list in precedence order: the user's
// ~/.niv file, the XDG config file, the system files and the two project
// file names in cwd. Entries whose base directory is unknown are left out.
// An empty xdg falls back to ~/.config.
func Candidates(home, xdg, cwd string) []string {
	var out []string
	if home != "" {
		out = append(out, filepath.Join(home, ".niv", FileName))
		if xdg == "" {
			xdg = filepath.Join(home, ".config")
		}
	}
	if xdg != "" {
		out = append(out, filepath.Join(xdg, "niv", FileName))
	}
	out = append(out,
		filepath.Join("/etc", "niv", FileName),
		filepath.Join("/usr", "local", "etc", "niv", FileName),
	)
	if cwd != "" {
		out = append(out,
			filepath.Join(cwd, ProjectFileName),
			filepath.Join(cwd, AltProjectName),
		)
	}
	return out
}

// DefaultCandidates returns Candidates for the current user and working
// directory.
func DefaultCandidates() []string {
	home, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()
	return Candidates(home, os.Getenv("XDG_CONFIG_HOME"), cwd)
}

// UserPath returns the file a new user config is written to.
func UserPath(home string) string {
	return filepath.Join(home, ".niv", FileName)
}
