package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"mailstack-cli/internal/app"
	"mailstack-cli/internal/orchestrator"
	"mailstack-cli/pkg/models"
)

// Build-time variables injected via ldflags
var (
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
	goVersion = runtime.Version()
)

// exitOutdated is the status of "config outdated" when a migration is due
const exitOutdated = 2

var rootCmd = &cobra.Command{
	Use:   "mailstack [flags] <domain>",
	Short: "Install and upgrade a complete Modoboa mail server",
	Long: `mailstack installs a Modoboa mail server for the given domain.

On first run a configuration file (installer.cfg by default) is generated from
the built-in schema, either with defaults or, with -i, by asking a few
questions. Existing files are checked against the current schema and can be
migrated, keeping every value that still applies.

Interactive mode can be controlled via settings (interactive_default), overridden
with -i (force interactive) or -y (force non-interactive).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
			versionCmd.Run(cmd, args)
			return nil
		}
		if len(args) == 0 {
			return errors.New("missing domain argument")
		}

		request, err := buildRequestFromFlags(cmd, args)
		if err != nil {
			return errors.Wrap(err, "invalid arguments")
		}

		return app.Run(request)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print detailed version information including build version, commit, date, and platform details.",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mailstack version %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built: %s\n", date)
		fmt.Fprintf(out, "  go version: %s\n", goVersion)
		fmt.Fprintf(out, "  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate, check and migrate the installer configuration file",
}

var checkCmd = &cobra.Command{
	Use:   "check <domain>",
	Short: "Generate the configuration file when missing, then stop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request, err := buildRequestFromFlags(cmd, args)
		if err != nil {
			return errors.Wrap(err, "invalid arguments")
		}
		return app.CheckConfig(request)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the configuration file to the current schema",
	Long: `Migrate compares the configuration file with the current schema. When
sections or options were added or removed, the file is backed up next to
itself (<name>_<timestamp>.old) and rewritten, keeping every existing value.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		request, err := buildRequestFromFlags(cmd, args)
		if err != nil {
			return errors.Wrap(err, "invalid arguments")
		}
		return app.Migrate(request)
	},
}

var outdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "Report whether the configuration file needs a migration",
	Long:  "Report whether the configuration file needs a migration. Exits with status 2 when it does. Nothing is written.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		request, err := buildRequestFromFlags(cmd, args)
		if err != nil {
			return errors.Wrap(err, "invalid arguments")
		}
		return app.Outdated(request)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <section.option>",
	Short: "Print a configuration value",
	Long:  "Print the interpolated value of a configuration option, e.g. 'mailstack config get modoboa.dbpassword --target clipboard'.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request, err := buildRequestFromFlags(cmd, nil)
		if err != nil {
			return errors.Wrap(err, "invalid arguments")
		}
		request.Option = strings.TrimSpace(args[0])
		return app.GetValue(request)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the configuration file in an editor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		request, err := buildRequestFromFlags(cmd, args)
		if err != nil {
			return errors.Wrap(err, "invalid arguments")
		}
		return app.EditConfig(request)
	},
}

var componentsCmd = &cobra.Command{
	Use:   "components <domain>",
	Short: "List the components enabled in the configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request, err := buildRequestFromFlags(cmd, args)
		if err != nil {
			return errors.Wrap(err, "invalid arguments")
		}
		return app.ListComponents(request)
	},
}

func init() {
	// Add subcommands
	configCmd.AddCommand(checkCmd, migrateCmd, outdatedCmd, getCmd, editCmd)
	rootCmd.AddCommand(versionCmd, configCmd, componentsCmd)

	// Global flags
	rootCmd.PersistentFlags().StringP("configfile", "c", "", "installer configuration file (default installer.cfg)")
	rootCmd.PersistentFlags().String("settings", "", "settings file path (default ~/.config/mailstack/settings.toml)")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "noninteractive mode - use defaults without prompts")
	rootCmd.PersistentFlags().BoolP("interactive", "i", false, "force interactive mode (overrides settings default)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "print version information")

	// Main command flags
	rootCmd.Flags().Bool("stop-after-configfile-check", false, "check the configuration file and stop")
	rootCmd.Flags().Bool("upgrade", false, "upgrade an existing installation")
	rootCmd.Flags().Bool("backup", false, "back up an existing installation")
	rootCmd.Flags().Bool("silent-backup", false, "back up an existing installation without prompts")
	rootCmd.Flags().String("restore", "", "restore an installation from the given backup directory")
	rootCmd.Flags().Bool("force", false, "do not ask for confirmation")

	// Command specific flags
	getCmd.Flags().StringP("target", "t", "", "output target (clipboard, stdout, file:/path)")
	getCmd.Flags().StringP("domain", "d", "", "domain used to expand %(domain)s")
	editCmd.Flags().StringP("editor", "e", "", "editor to open the configuration file in")
}

// buildRequestFromFlags constructs an InstallRequest from command flags and
// arguments. Flags a command does not define keep their zero value.
func buildRequestFromFlags(cmd *cobra.Command, args []string) (*models.InstallRequest, error) {
	request := &models.InstallRequest{}
	f := flagReader{cmd: cmd}

	if len(args) > 0 {
		request.Domain = strings.TrimSpace(args[0])
	}
	if domain := f.getString("domain"); domain != "" {
		request.Domain = domain
	}

	request.ConfigFile = f.getString("configfile")
	request.SettingsPath = f.getString("settings")

	// Handle interactive mode flags
	request.ForceNonInteractive = f.getBool("yes")
	request.ForceInteractive = f.getBool("interactive")
	if request.ForceInteractive && request.ForceNonInteractive {
		return nil, errors.New("cannot use both --interactive and --yes flags")
	}

	request.StopAfterConfigCheck = f.getBool("stop-after-configfile-check")
	request.Upgrade = f.getBool("upgrade")
	request.Backup = f.getBool("backup")
	request.SilentBackup = f.getBool("silent-backup")
	request.RestorePath = f.getString("restore")
	request.Force = f.getBool("force")
	request.Debug = f.getBool("debug")
	request.Target = f.getString("target")
	request.Editor = f.getString("editor")

	if f.err != nil {
		return nil, f.err
	}

	if request.Upgrade && request.Restoring() {
		return nil, errors.New("cannot use both --upgrade and --restore flags")
	}
	if request.Backup && request.SilentBackup {
		return nil, errors.New("cannot use both --backup and --silent-backup flags")
	}

	return request, nil
}

// flagReader reads optional flags, keeping the first type error
type flagReader struct {
	cmd *cobra.Command
	err error
}

func (f *flagReader) getString(name string) string {
	if f.cmd.Flags().Lookup(name) == nil {
		return ""
	}
	value, err := f.cmd.Flags().GetString(name)
	if err != nil && f.err == nil {
		f.err = errors.Wrapf(err, "invalid %s flag", name)
	}
	return strings.TrimSpace(value)
}

func (f *flagReader) getBool(name string) bool {
	if f.cmd.Flags().Lookup(name) == nil {
		return false
	}
	value, err := f.cmd.Flags().GetBool(name)
	if err != nil && f.err == nil {
		f.err = errors.Wrapf(err, "invalid %s flag", name)
	}
	return value
}

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrOutdated):
		return exitOutdated
	default:
		return 1
	}
}

func main() {
	// Disable usage on error to show only our custom error messages
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	err := rootCmd.Execute()
	code := exitCode(err)
	if code == 1 {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var installerErr *orchestrator.InstallerError
		if errors.As(err, &installerErr) && installerErr.Cause != nil {
			fmt.Fprintf(os.Stderr, "Cause: %v\n", installerErr.Cause)
		}
	}
	os.Exit(code)
}
