package interfaces

// Settings represents the tool's own settings (not the installer configuration file)
type Settings struct {
	ConfigFile         string `toml:"configfile"`
	InteractiveDefault bool   `toml:"interactive_default"`
	LogLevel           string `toml:"log_level"`
	LogFormat          string `toml:"log_format"`
	Force              bool   `toml:"force"`
	BackupDir          string `toml:"backup_dir"`
	Editor             string `toml:"editor"`
	TemplateDir        string `toml:"template_dir"`
}

// SettingsManager handles settings loading and resolution
type SettingsManager interface {
	// Load loads settings from the specified path
	Load(path string) (*Settings, error)

	// Resolve applies precedence rules (flags > env > settings file > defaults)
	Resolve() (*Settings, error)

	// Validate validates the settings values
	Validate(settings *Settings) error
}

// ConfigReader is the only way installer components read the resolved configuration.
type ConfigReader interface {
	// Get returns the interpolated value of section.option
	Get(section, option string) (string, error)

	// GetBool parses section.option as a boolean
	GetBool(section, option string) (bool, error)

	// GetInt parses section.option as an integer, returning fallback[0] when
	// the option is absent or not a number and a fallback is given
	GetInt(section, option string, fallback ...int) (int, error)

	// HasOption reports whether section.option exists
	HasOption(section, option string) bool

	// HasSection reports whether section exists
	HasSection(section string) bool

	// Sections returns section names in file order
	Sections() []string
}
