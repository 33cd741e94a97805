package loader

import "log/slog"

// Option configures a Loader.
type Option func(*Loader)

// WithPaths replaces the discovery candidates. The first existing,
// readable path wins.
func WithPaths(paths ...string) Option {
	return func(l *Loader) {
		l.candidates = append([]string(nil), paths...)
	}
}

// WithFS sets the file system.
func WithFS(fsys FileSystem) Option {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithMissingOK makes a failed discovery succeed with built-in defaults.
func WithMissingOK(ok bool) Option {
	return func(l *Loader) {
		l.missingOK = ok
	}
}

// WithAdvanceOnError records the fingerprint of a file that failed to load,
// so CheckReload stops retrying it until it changes again. By default a
// broken file is retried on every poll.
func WithAdvanceOnError(advance bool) Option {
	return func(l *Loader) {
		l.advanceOnError = advance
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
