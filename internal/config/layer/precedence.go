package layer

// Standard priority levels for configuration layers.
// Higher values override lower values during merging. Built-in defaults
// sit below every layer and are filled in when the merged tree is mapped.
const (
	// PrioritySystem is for /etc/niv and /usr/local/etc/niv.
	PrioritySystem = 50

	// PriorityUser is for ~/.niv and the XDG config directory.
	PriorityUser = 100

	// PriorityProject is for .niv.toml or niv.toml in the working directory.
	PriorityProject = 200

	// PriorityEnv is for NIV_* environment overrides.
	PriorityEnv = 500

	// PriorityArgs is for command-line overrides.
	PriorityArgs = 600

	// PrioritySession is the highest priority for in-memory session overrides.
	PrioritySession = 1000
)

// DefaultPriority returns the default priority for a given source.
func DefaultPriority(source Source) int {
	switch source {
	case SourceSystem:
		return PrioritySystem
	case SourceUser:
		return PriorityUser
	case SourceProject:
		return PriorityProject
	case SourceEnv:
		return PriorityEnv
	case SourceArgs:
		return PriorityArgs
	case SourceSession:
		return PrioritySession
	default:
		return 0
	}
}

// StandardLayerName returns the standard name for a source.
func StandardLayerName(source Source) string {
	switch source {
	case SourceSystem:
		return "system"
	case SourceUser:
		return "user"
	case SourceProject:
		return "project"
	case SourceEnv:
		return "environment"
	case SourceArgs:
		return "arguments"
	case SourceSession:
		return "session"
	default:
		return "unknown"
	}
}
