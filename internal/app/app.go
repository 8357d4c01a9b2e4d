package app

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"mailstack-cli/internal/config"
	"mailstack-cli/internal/interactive"
	"mailstack-cli/internal/interfaces"
	"mailstack-cli/internal/logging"
	"mailstack-cli/internal/orchestrator"
	"mailstack-cli/pkg/models"
)

// ErrOutdated is returned by Outdated when the configuration file needs a
// migration
var ErrOutdated = errors.New("configuration file is outdated")

// Env is the process environment an invocation runs against
type Env struct {
	Fs        afero.Fs
	In        io.Reader
	Out       io.Writer
	Installer interfaces.ComponentInstaller

	// Logger replaces the logger built from the settings when set
	Logger *zap.Logger
}

func defaultEnv() Env {
	return Env{Fs: afero.NewOsFs(), In: os.Stdin, Out: os.Stdout}
}

// session bundles what one command needs
type session struct {
	settings *interfaces.Settings
	orch     *orchestrator.Orchestrator
	logger   *zap.Logger
}

// Run executes the main installer flow
func Run(request *models.InstallRequest) error {
	return run(defaultEnv(), request)
}

func run(env Env, request *models.InstallRequest) error {
	s, err := newSession(env, request)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	return s.orch.Install(request)
}

// CheckConfig generates the configuration file when missing and reports
// whether an existing one is outdated
func CheckConfig(request *models.InstallRequest) error {
	return checkConfig(defaultEnv(), request)
}

func checkConfig(env Env, request *models.InstallRequest) error {
	request.StopAfterConfigCheck = true
	return run(env, request)
}

// Migrate carries the configuration file forward to the current schema
func Migrate(request *models.InstallRequest) error {
	return migrate(defaultEnv(), request)
}

func migrate(env Env, request *models.InstallRequest) error {
	s, err := newSession(env, request)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	_, err = s.orch.Migrate(request.ConfigFile)
	return err
}

// Outdated reports whether the configuration file needs a migration.
// Nothing is written. ErrOutdated is returned when it does.
func Outdated(request *models.InstallRequest) error {
	return outdated(defaultEnv(), request)
}

func outdated(env Env, request *models.InstallRequest) error {
	s, err := newSession(env, request)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	changed, err := s.orch.Outdated(request.ConfigFile)
	if err != nil {
		return err
	}
	if changed {
		return ErrOutdated
	}
	return nil
}

// ListComponents prints the components enabled in the configuration file
func ListComponents(request *models.InstallRequest) error {
	return listComponents(defaultEnv(), request)
}

func listComponents(env Env, request *models.InstallRequest) error {
	s, err := newSession(env, request)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	components, err := s.orch.Components(request)
	if err != nil {
		return err
	}
	printer := interactive.NewPrinter(env.Out)
	if len(components) == 0 {
		printer.Warning("No component enabled in %s", request.ConfigFile)
		return nil
	}
	for _, c := range components {
		printer.Plain("  - %s", c)
	}
	return nil
}

// GetValue prints one interpolated configuration value to the requested target
func GetValue(request *models.InstallRequest) error {
	return getValue(defaultEnv(), request)
}

func getValue(env Env, request *models.InstallRequest) error {
	s, err := newSession(env, request)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	return s.orch.GetValue(request)
}

// EditConfig opens the configuration file in the configured editor
func EditConfig(request *models.InstallRequest) error {
	return editConfig(defaultEnv(), request)
}

func editConfig(env Env, request *models.InstallRequest) error {
	s, err := newSession(env, request)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	return s.orch.EditConfig(request, s.settings.Editor)
}

func newSession(env Env, request *models.InstallRequest) (*session, error) {
	settings, err := loadSettings(request)
	if err != nil {
		return nil, orchestrator.NewConfigurationError("failed to load settings", err)
	}

	// Resolve request fields based on flags and settings
	applySettings(request, settings)

	logger := env.Logger
	if logger == nil {
		logger, err = logging.New(settings.LogLevel, settings.LogFormat)
		if err != nil {
			return nil, orchestrator.NewConfigurationError("failed to build logger", err)
		}
	}

	logger.Debug("settings resolved",
		zap.String("configfile", settings.ConfigFile),
		zap.Bool("interactive", request.Interactive),
		zap.Bool("force", request.Force))

	orch := orchestrator.New(orchestrator.Options{
		Fs:          env.Fs,
		In:          env.In,
		Out:         env.Out,
		Logger:      logger,
		Installer:   env.Installer,
		BackupDir:   settings.BackupDir,
		TemplateDir: settings.TemplateDir,
	})
	return &session{settings: settings, orch: orch, logger: logger}, nil
}

// loadSettings resolves the tool settings, flags first
func loadSettings(request *models.InstallRequest) (*interfaces.Settings, error) {
	manager := config.NewManager()
	if _, err := manager.Load(request.SettingsPath); err != nil {
		return nil, err
	}

	if request.ConfigFile != "" {
		manager.SetFlag("configfile", request.ConfigFile)
	}
	if request.Debug {
		manager.SetFlag("log_level", "debug")
	}
	if request.Force {
		manager.SetFlag("force", true)
	}
	if request.Editor != "" {
		manager.SetFlag("editor", request.Editor)
	}

	settings, err := manager.Resolve()
	if err != nil {
		return nil, err
	}
	if err := manager.Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// applySettings determines the final request values based on flags and settings
func applySettings(request *models.InstallRequest, settings *interfaces.Settings) {
	request.ConfigFile = settings.ConfigFile
	request.Force = request.Force || settings.Force

	// Priority: explicit flags > settings default
	switch {
	case request.ForceInteractive:
		request.Interactive = true
	case request.ForceNonInteractive:
		request.Interactive = false
	default:
		request.Interactive = settings.InteractiveDefault
	}
}
