package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"mailstack-cli/internal/interfaces"
)

// Manager implements the SettingsManager interface
type Manager struct {
	v     *viper.Viper
	flags map[string]interface{} // flag values, highest precedence
}

var _ interfaces.SettingsManager = (*Manager)(nil)

// NewManager creates a new settings manager
func NewManager() *Manager {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("MAILSTACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	return &Manager{
		v:     v,
		flags: make(map[string]interface{}),
	}
}

// setDefaults sets the default settings values
func setDefaults(v *viper.Viper) {
	v.SetDefault("configfile", "installer.cfg")
	v.SetDefault("interactive_default", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("force", false)
	v.SetDefault("backup_dir", "/modoboa_backup")
	v.SetDefault("editor", defaultEditor())
	v.SetDefault("template_dir", "")
}

func defaultEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	return "vi"
}

// DefaultPath returns ~/.config/mailstack/settings.toml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(homeDir, ".config", "mailstack", "settings.toml"), nil
}

// Load loads settings from the specified path. A missing file is not an
// error: defaults and environment apply.
func (m *Manager) Load(path string) (*interfaces.Settings, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	path = expandPath(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return m.settingsFromViper(), nil
	}

	m.v.SetConfigFile(path)
	if err := m.v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read settings file %s", path)
	}

	return m.settingsFromViper(), nil
}

// SetFlag records a flag value for precedence resolution. Only flags the
// operator actually set should be recorded.
func (m *Manager) SetFlag(key string, value interface{}) {
	m.flags[key] = value
}

// Resolve applies precedence rules (flags > env > settings file > defaults)
func (m *Manager) Resolve() (*interfaces.Settings, error) {
	settings := m.settingsFromViper()
	m.applyFlagOverrides(settings)
	return settings, nil
}

func (m *Manager) applyFlagOverrides(settings *interfaces.Settings) {
	if str, ok := m.flags["configfile"].(string); ok && str != "" {
		settings.ConfigFile = expandPath(str)
	}
	if b, ok := m.flags["interactive_default"].(bool); ok {
		settings.InteractiveDefault = b
	}
	if str, ok := m.flags["log_level"].(string); ok && str != "" {
		settings.LogLevel = str
	}
	if str, ok := m.flags["log_format"].(string); ok && str != "" {
		settings.LogFormat = str
	}
	if b, ok := m.flags["force"].(bool); ok {
		settings.Force = b
	}
	if str, ok := m.flags["backup_dir"].(string); ok && str != "" {
		settings.BackupDir = expandPath(str)
	}
	if str, ok := m.flags["editor"].(string); ok && str != "" {
		settings.Editor = str
	}
	if str, ok := m.flags["template_dir"].(string); ok && str != "" {
		settings.TemplateDir = expandPath(str)
	}
}

// Validate validates the settings values
func (m *Manager) Validate(settings *interfaces.Settings) error {
	if settings == nil {
		return errors.New("settings cannot be nil")
	}

	if strings.TrimSpace(settings.ConfigFile) == "" {
		return errors.New("configfile cannot be empty")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[settings.LogLevel] {
		return errors.Newf("invalid log_level: %s (must be 'debug', 'info', 'warn' or 'error')", settings.LogLevel)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[settings.LogFormat] {
		return errors.Newf("invalid log_format: %s (must be 'console' or 'json')", settings.LogFormat)
	}

	if settings.BackupDir != "" && !filepath.IsAbs(settings.BackupDir) {
		return errors.Newf("backup_dir must be an absolute path: %s", settings.BackupDir)
	}

	if settings.TemplateDir != "" {
		info, err := os.Stat(settings.TemplateDir)
		if err != nil {
			return errors.Wrapf(err, "template_dir %s", settings.TemplateDir)
		}
		if !info.IsDir() {
			return errors.Newf("template_dir is not a directory: %s", settings.TemplateDir)
		}
	}

	return nil
}

// settingsFromViper handles env > settings file > defaults precedence
// (flags are applied separately)
func (m *Manager) settingsFromViper() *interfaces.Settings {
	return &interfaces.Settings{
		ConfigFile:         expandPath(m.v.GetString("configfile")),
		InteractiveDefault: m.v.GetBool("interactive_default"),
		LogLevel:           m.v.GetString("log_level"),
		LogFormat:          m.v.GetString("log_format"),
		Force:              m.v.GetBool("force"),
		BackupDir:          expandPath(m.v.GetString("backup_dir")),
		Editor:             m.v.GetString("editor"),
		TemplateDir:        expandPath(m.v.GetString("template_dir")),
	}
}

// expandPath expands ~ to user home directory
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(homeDir, path[2:])
}
