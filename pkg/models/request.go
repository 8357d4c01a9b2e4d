package models

// InstallRequest represents the state of one installer invocation
type InstallRequest struct {
	Domain       string
	ConfigFile   string
	SettingsPath string

	Interactive         bool
	ForceInteractive    bool
	ForceNonInteractive bool

	StopAfterConfigCheck bool
	Upgrade              bool
	Backup               bool
	SilentBackup         bool
	RestorePath          string
	Force                bool
	Debug                bool

	// Option is the section.option queried by "config get"
	Option string
	Target string
	Editor string
}

// BackingUp reports whether any backup mode was requested
func (r *InstallRequest) BackingUp() bool {
	return r.Backup || r.SilentBackup
}

// Restoring reports whether a restore was requested
func (r *InstallRequest) Restoring() bool {
	return r.RestorePath != ""
}
