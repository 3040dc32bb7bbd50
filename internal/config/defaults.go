package config

const (
	defaultStateDir        = "~/.local/share/moviescene"
	defaultStorePath       = "~/.local/share/moviescene/templates.db"
	defaultLogDir          = "~/.local/share/moviescene/logs"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultFrameStep       = 1.0 / 30.0
	defaultTemplateStorage = StorageEphemeral
	defaultInspectListen   = "127.0.0.1:7590"
	defaultGroupPriority   = 0
)

// Template storage policies.
const (
	StorageEphemeral  = "ephemeral"
	StoragePersistent = "persistent"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			StorePath: defaultStorePath,
			LogDir:    defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Compiler: Compiler{
			DefaultGroupPriority: defaultGroupPriority,
		},
		Evaluation: Evaluation{
			FrameStep:       defaultFrameStep,
			TemplateStorage: defaultTemplateStorage,
		},
		Inspect: Inspect{
			Listen: defaultInspectListen,
		},
	}
}
