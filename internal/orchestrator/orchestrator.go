package orchestrator

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"mailstack-cli/internal/compat"
	"mailstack-cli/internal/interactive"
	"mailstack-cli/internal/interfaces"
	"mailstack-cli/internal/migration"
	"mailstack-cli/internal/resolver"
	"mailstack-cli/internal/schema"
	"mailstack-cli/internal/store"
	"mailstack-cli/internal/template"
	"mailstack-cli/pkg/models"
)

// Options wires an orchestrator. Zero values fall back to the process
// environment.
type Options struct {
	Fs     afero.Fs
	In     io.Reader
	Out    io.Writer
	Logger *zap.Logger

	Schema        *schema.Schema
	Matrix        *compat.Matrix
	Installer     interfaces.ComponentInstaller
	OutputHandler interfaces.OutputHandler
	TemplateDir   string
	BackupDir     string
	Now           func() time.Time
}

// Orchestrator coordinates configuration checks, migrations and the
// component hand-off
type Orchestrator struct {
	schema            *schema.Schema
	matrix            *compat.Matrix
	store             *store.Store
	engine            *migration.Engine
	prompter          *interactive.Prompter
	printer           *interactive.Printer
	templateProcessor *template.Processor
	outputHandler     interfaces.OutputHandler
	installer         interfaces.ComponentInstaller
	backupDir         string
	logger            *zap.Logger
	now               func() time.Time
}

// New creates a new orchestrator with all required components
func New(opts Options) *Orchestrator {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Schema == nil {
		opts.Schema = schema.Template()
	}
	if opts.Matrix == nil {
		opts.Matrix = compat.Default()
	}
	if opts.Installer == nil {
		opts.Installer = NewPlanInstaller()
	}
	if opts.OutputHandler == nil {
		opts.OutputHandler = NewOutputHandler(opts.Out, opts.Fs)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	st := store.New(opts.Fs, opts.Logger)
	prompter := interactive.NewPrompter(opts.In, opts.Out, opts.Logger)

	return &Orchestrator{
		schema:            opts.Schema,
		matrix:            opts.Matrix,
		store:             st,
		engine:            migration.NewEngine(st, opts.Schema, opts.Logger),
		prompter:          prompter,
		printer:           prompter.Printer(),
		templateProcessor: template.NewProcessor(opts.TemplateDir),
		outputHandler:     opts.OutputHandler,
		installer:         opts.Installer,
		backupDir:         opts.BackupDir,
		logger:            opts.Logger,
		now:               opts.Now,
	}
}

// CheckResult describes the state of the configuration file after a check
type CheckResult struct {
	// Present is false when the file had to be generated for a backup
	Present   bool
	Generated bool
	Report    migration.Report
}

// Outdated reports whether an existing file differs from the schema
func (r CheckResult) Outdated() bool {
	return !r.Generated && r.Report.Changed
}

// CheckConfigFile makes sure a configuration file exists, generating one
// when it is missing. Upgrades and restores need the file used for the
// original installation, so a missing file is fatal for them.
func (o *Orchestrator) CheckConfigFile(request *models.InstallRequest) (CheckResult, error) {
	path := request.ConfigFile
	o.prompter.ConfigFile = path

	if o.store.Exists(path) {
		report, err := o.engine.Check(path)
		if err != nil {
			return CheckResult{}, Classify(err, path)
		}
		return CheckResult{Present: true, Report: report}, nil
	}

	result := CheckResult{Present: true, Generated: true}
	switch {
	case request.Upgrade:
		o.printer.Error("You cannot upgrade an existing installation without a configuration file.")
		return CheckResult{}, NewMissingConfigFileError(path, "upgrade")
	case request.Restoring():
		o.printer.Error("You cannot restore an existing installation without a %s file.", path)
		return CheckResult{}, NewMissingConfigFileError(path, "restore")
	case request.BackingUp():
		result.Present = false
		o.printer.Error("Your configuration file hasn't been found. A new one will be generated. " +
			"Please edit it with correct password for the databases!")
	}

	o.printer.Warning("Configuration file %s not found, creating new one.", path)
	if err := o.GenerateConfig(path, request.Interactive); err != nil {
		return CheckResult{}, err
	}
	return result, nil
}

// GenerateConfig resolves the schema and writes a fresh configuration file.
// Nothing is written when resolution fails.
func (o *Orchestrator) GenerateConfig(path string, interactiveMode bool) error {
	var elicitor resolver.Elicitor
	if interactiveMode {
		o.prompter.ConfigFile = path
		elicitor = o.prompter
	}

	cfg, err := resolver.New(elicitor, o.logger).Resolve(o.schema, interactiveMode)
	if err != nil {
		return Classify(err, path)
	}
	if err := o.store.Save(path, cfg); err != nil {
		return NewConfigurationError(fmt.Sprintf("failed to write %s", path), err)
	}

	o.logger.Info("configuration generated",
		zap.String("path", path),
		zap.Bool("interactive", interactiveMode),
		zap.Int("sections", len(cfg.Sections())))
	return nil
}

// Outdated prints the migration report for path and reports whether the
// file would be rewritten by a migration
func (o *Orchestrator) Outdated(path string) (bool, error) {
	report, err := o.engine.Check(path)
	if err != nil {
		return false, Classify(err, path)
	}
	if err := o.printReport(report.Data(path, "", false)); err != nil {
		return false, err
	}
	return report.Changed, nil
}

// Migrate carries the file at path forward to the current schema
func (o *Orchestrator) Migrate(path string) (migration.Report, error) {
	report, backup, err := o.engine.Apply(path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return report, Classify(err, path)
		}
		return report, NewMigrationError(path, err)
	}

	o.printDropped(report)
	if err := o.printReport(report.Data(path, backup, report.Changed)); err != nil {
		return report, err
	}
	return report, nil
}

// offerUpdate asks whether an outdated file should be migrated. It returns
// true when the file was migrated.
func (o *Orchestrator) offerUpdate(path string) (bool, error) {
	answer, err := o.prompter.Confirm(
		"It seems that your config file is outdated. Would you like to update it?", true)
	if err != nil {
		return false, err
	}
	if !answer {
		o.printer.Warning("Keeping the current configuration file %s.", path)
		return false, nil
	}

	if _, err := o.Migrate(path); err != nil {
		return false, err
	}
	o.printer.Success("Update complete")
	return true, nil
}

func (o *Orchestrator) printDropped(report migration.Report) {
	if len(report.DroppedSections) > 0 {
		o.printer.Error("Following section(s) will not be ported due to being deleted or renamed: %s",
			strings.Join(report.DroppedSections, ", "))
	}

	bySection := make(map[string][]string)
	var order []string
	for _, ref := range report.DroppedOptions {
		if _, seen := bySection[ref.Section]; !seen {
			order = append(order, ref.Section)
		}
		bySection[ref.Section] = append(bySection[ref.Section], ref.Option)
	}
	for _, section := range order {
		o.printer.Error("Following option(s) from section: %s, will not be ported due to being deleted or renamed: %s",
			section, strings.Join(bySection[section], ", "))
	}
}

func (o *Orchestrator) printReport(data interfaces.ReportData) error {
	text, err := o.templateProcessor.Render(template.ReportTemplate, data)
	if err != nil {
		return err
	}
	o.printer.Plain("%s", strings.TrimRight(text, "\n"))
	return nil
}

// Install runs the whole installer flow for request. request.Interactive
// must already be resolved.
func (o *Orchestrator) Install(request *models.InstallRequest) error {
	if err := o.validateRequest(request, true); err != nil {
		return err
	}

	o.printer.Success("Welcome to Modoboa installer!")

	result, err := o.CheckConfigFile(request)
	if err != nil {
		return err
	}
	if !result.Present {
		return &InstallerError{
			Type:     ErrMissingConfigFile,
			Message:  "No config file found.",
			Guidance: fmt.Sprintf("Edit the database passwords in %s, then run the backup again.", request.ConfigFile),
			Cause:    errors.Wrapf(store.ErrNotFound, "%s", request.ConfigFile),
		}
	}
	if result.Outdated() {
		migrated, err := o.offerUpdate(request.ConfigFile)
		if err != nil {
			return err
		}
		if migrated {
			return nil
		}
	}
	if request.StopAfterConfigCheck {
		return nil
	}

	cfg, err := o.store.Open(request.ConfigFile, request.Domain)
	if err != nil {
		return Classify(err, request.ConfigFile)
	}

	if request.BackingUp() {
		return o.backup(request, cfg)
	}

	components, err := ListComponents(cfg)
	if err != nil {
		return NewConfigurationError("invalid enabled flag", err)
	}
	hostname, err := cfg.Get("general", "hostname")
	if err != nil {
		return NewConfigurationError("general.hostname is required", err)
	}

	summary, err := o.templateProcessor.Render(template.SummaryTemplate, interfaces.SummaryData{
		Hostname:   hostname,
		Upgrade:    request.Upgrade,
		Components: components,
		Now:        o.now(),
	})
	if err != nil {
		return err
	}
	o.printer.Warning("%s", strings.TrimRight(summary, "\n"))

	if !request.Force {
		answer, err := o.prompter.Confirm("Do you confirm?", true)
		if err != nil {
			return err
		}
		if !answer {
			return nil
		}
	}

	if err := compat.CheckApps(components, cfg); err != nil {
		return Classify(err, request.ConfigFile)
	}

	extensions, err := o.extensions(cfg)
	if err != nil {
		return err
	}

	if request.Restoring() {
		o.printer.Info("Restoring from %s after installation.", request.RestorePath)
	}
	o.printer.Info("The process can be long, feel free to take a coffee and come back later ;)")
	o.printer.Info("Starting...")

	for _, component := range components {
		o.logger.Debug("installing component", zap.String("component", component), zap.Bool("upgrade", request.Upgrade))
		if err := o.installer.Install(component, cfg, request.Upgrade); err != nil {
			return errors.Wrapf(err, "installing %s", component)
		}
	}

	if p, ok := o.installer.(planner); ok {
		plan, err := o.templateProcessor.Render(template.PlanTemplate, interfaces.SummaryData{
			Hostname:   hostname,
			Upgrade:    request.Upgrade,
			Components: components,
			Plans:      p.Plans(),
			Extensions: extensions,
			Now:        o.now(),
		})
		if err != nil {
			return err
		}
		o.printer.Plain("%s", strings.TrimRight(plan, "\n"))
		return nil
	}

	o.printer.Success("Congratulations! You can enjoy Modoboa at https://%s (admin:password)", hostname)
	return nil
}

// extensions checks modoboa.extensions against the pinned release
func (o *Orchestrator) extensions(cfg interfaces.ConfigReader) ([]string, error) {
	release := compat.LatestVersion
	if cfg.HasOption("modoboa", "version") {
		v, err := cfg.Get("modoboa", "version")
		if err != nil {
			return nil, NewConfigurationError("invalid modoboa.version", err)
		}
		release = v
	}

	var requested []string
	if cfg.HasOption("modoboa", "extensions") {
		raw, err := cfg.Get("modoboa", "extensions")
		if err != nil {
			return nil, NewConfigurationError("invalid modoboa.extensions", err)
		}
		requested = strings.Fields(raw)
	}

	plan, err := o.matrix.Extensions(release, requested)
	if err != nil {
		return nil, NewConfigurationError(fmt.Sprintf("cannot plan extensions for modoboa %s", release), err)
	}
	for _, skipped := range plan.Skipped {
		o.printer.Warning("%s will not be installed: %s", skipped.Name, skipped.Reason)
	}
	return plan.Requirements, nil
}

// backup reports the destination of a backup run
func (o *Orchestrator) backup(request *models.InstallRequest, cfg interfaces.ConfigReader) error {
	dest := o.backupDir
	if cfg.HasOption("backup", "default_path") {
		value, err := cfg.Get("backup", "default_path")
		if err != nil {
			return NewConfigurationError("invalid backup.default_path", err)
		}
		if value != "" {
			dest = value
		}
	}
	if dest == "" {
		return NewValidationError("backup", dest, "no backup destination configured")
	}

	o.logger.Info("backup requested",
		zap.String("destination", dest),
		zap.Bool("silent", request.SilentBackup))
	if !request.SilentBackup {
		o.printer.Info("Backup destination: %s", dest)
	}
	return nil
}

// Components prints the components enabled in the configuration file
func (o *Orchestrator) Components(request *models.InstallRequest) ([]string, error) {
	if err := o.validateRequest(request, true); err != nil {
		return nil, err
	}
	cfg, err := o.store.Open(request.ConfigFile, request.Domain)
	if err != nil {
		return nil, Classify(err, request.ConfigFile)
	}
	components, err := ListComponents(cfg)
	if err != nil {
		return nil, NewConfigurationError("invalid enabled flag", err)
	}
	return components, nil
}

// GetValue sends the interpolated value of request.Option to request.Target
func (o *Orchestrator) GetValue(request *models.InstallRequest) error {
	if err := o.validateRequest(request, false); err != nil {
		return err
	}

	section, option, ok := strings.Cut(request.Option, ".")
	if !ok || section == "" || option == "" {
		return NewValidationError("option", request.Option, "expected section.option")
	}

	cfg, err := o.store.Open(request.ConfigFile, request.Domain)
	if err != nil {
		return Classify(err, request.ConfigFile)
	}
	if !cfg.HasOption(section, option) {
		known := cfg.Sections()
		sort.Strings(known)
		return NewValidationError("option", request.Option,
			fmt.Sprintf("not found in %s (sections: %s)", request.ConfigFile, strings.Join(known, ", ")))
	}
	value, err := cfg.Get(section, option)
	if err != nil {
		return NewConfigurationError(fmt.Sprintf("cannot interpolate %s", request.Option), err)
	}

	return o.OutputValue(value, request.Target)
}

// OutputValue handles output to a target
func (o *Orchestrator) OutputValue(value, target string) error {
	if target == "" {
		target = "stdout"
	}

	switch {
	case target == "clipboard":
		if err := o.outputHandler.WriteToClipboard(value); err != nil {
			outputErr := NewOutputError(target, err)
			if IsRecoverableError(outputErr) {
				o.printer.Warning("Warning: %s\nFalling back to stdout:", outputErr.Error())
				return o.outputHandler.WriteToStdout(value)
			}
			return outputErr
		}
		o.printer.Success("Value copied to clipboard")

	case target == "stdout":
		if err := o.outputHandler.WriteToStdout(value); err != nil {
			return NewOutputError(target, err)
		}

	case strings.HasPrefix(target, "file:"):
		filePath := strings.TrimPrefix(target, "file:")
		if err := o.outputHandler.WriteToFile(value, filePath); err != nil {
			return NewOutputError(target, err)
		}
		o.printer.Success("Value written to %s", filePath)

	default:
		return NewValidationError("target", target, "unsupported output target")
	}

	return nil
}

// EditConfig opens the configuration file in an editor, then reports
// whether the edited file is still current
func (o *Orchestrator) EditConfig(request *models.InstallRequest, settingsEditor string) error {
	path := request.ConfigFile
	if !o.store.Exists(path) {
		return Classify(errors.Wrapf(store.ErrNotFound, "%s", path), path)
	}

	editor := o.resolveEditor(request.Editor, settingsEditor)
	if err := o.outputHandler.OpenInEditor(path, editor); err != nil {
		return NewOutputError("editor", err)
	}

	_, err := o.Outdated(path)
	return err
}

// validateRequest validates the install request
func (o *Orchestrator) validateRequest(request *models.InstallRequest, needDomain bool) error {
	if request == nil {
		return NewValidationError("request", nil, "request cannot be nil")
	}

	if request.ForceInteractive && request.ForceNonInteractive {
		return NewValidationError("flags", "--interactive --yes", "mutually exclusive")
	}

	if needDomain {
		domain := strings.TrimSpace(request.Domain)
		if domain == "" {
			return NewValidationError("domain", request.Domain, "required")
		}
		if strings.ContainsAny(domain, " /@:") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
			return NewValidationError("domain", request.Domain, "not a valid domain name")
		}
	}

	if request.Target != "" && request.Target != "clipboard" && request.Target != "stdout" &&
		!strings.HasPrefix(request.Target, "file:") {
		return NewValidationError("target", request.Target, "must be 'clipboard', 'stdout', or 'file:/path'")
	}

	return nil
}

// resolveEditor resolves the editor using precedence rules
func (o *Orchestrator) resolveEditor(requestEditor, settingsEditor string) string {
	// Precedence: --editor flag > $VISUAL > $EDITOR > settings editor > vi
	if requestEditor != "" {
		return requestEditor
	}
	if visual := os.Getenv("VISUAL"); visual != "" {
		return visual
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if settingsEditor != "" {
		return settingsEditor
	}
	return "vi"
}
