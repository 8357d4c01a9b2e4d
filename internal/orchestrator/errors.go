package orchestrator

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"mailstack-cli/internal/compat"
	"mailstack-cli/internal/interactive"
	"mailstack-cli/internal/store"
)

// Error types for different categories of failures
var (
	ErrConfigurationInvalid = errors.New("configuration error")
	ErrMissingConfigFile    = errors.New("missing configuration file")
	ErrRestrictedValue      = errors.New("restricted value")
	ErrMigrationFailed      = errors.New("migration error")
	ErrIncompatible         = errors.New("compatibility error")
	ErrOutputFailed         = errors.New("output error")
	ErrValidationFailed     = errors.New("validation error")
)

// InstallerError represents a structured error with actionable guidance
type InstallerError struct {
	Type     error
	Message  string
	Guidance string
	Cause    error
}

func (e *InstallerError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s\n\nSuggestion: %s", e.Type, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *InstallerError) Unwrap() error {
	return e.Cause
}

// Is matches the error category
func (e *InstallerError) Is(target error) bool {
	return target == e.Type
}

// Error constructors with actionable guidance

func NewConfigurationError(message string, cause error) *InstallerError {
	guidance := "Check the configuration file syntax. " +
		"Use 'mailstack config outdated' to compare it with the current schema."

	if cause != nil && strings.Contains(cause.Error(), "permission") {
		guidance = "Check file permissions. The configuration file is only readable by its owner (mode 0600)."
	}

	return &InstallerError{
		Type:     ErrConfigurationInvalid,
		Message:  message,
		Guidance: guidance,
		Cause:    cause,
	}
}

func NewMissingConfigFileError(path, operation string) *InstallerError {
	return &InstallerError{
		Type:    ErrMissingConfigFile,
		Message: fmt.Sprintf("You cannot %s an existing installation without a configuration file (%s).", operation, path),
		Guidance: fmt.Sprintf("Copy the configuration file used for the original installation to %s, "+
			"or point to it with --configfile.", path),
		Cause: errors.Wrapf(store.ErrNotFound, "%s", path),
	}
}

func NewRestrictedValueError(configFile string, cause error) *InstallerError {
	guidance := fmt.Sprintf("Run 'mailstack --stop-after-configfile-check <domain>' to generate %s, "+
		"edit the value manually, then run the installer again.", configFile)
	if hints := errors.GetAllHints(cause); len(hints) > 0 {
		guidance = hints[0]
	}
	return &InstallerError{
		Type:     ErrRestrictedValue,
		Message:  "this value cannot be set interactively",
		Guidance: guidance,
		Cause:    cause,
	}
}

func NewMigrationError(path string, cause error) *InstallerError {
	guidance := fmt.Sprintf("%s was left untouched. Check free space and permissions in its directory.", path)
	if strings.Contains(cause.Error(), "backup") {
		guidance = "The backup copy could not be written, so the file was not migrated. " +
			"Check that the directory is writable."
	}
	return &InstallerError{
		Type:     ErrMigrationFailed,
		Message:  fmt.Sprintf("failed to migrate '%s'", path),
		Guidance: guidance,
		Cause:    cause,
	}
}

func NewCompatibilityError(cause error) *InstallerError {
	return &InstallerError{
		Type:     ErrIncompatible,
		Message:  cause.Error(),
		Guidance: "Set enabled = false in the conflicting sections of the configuration file, or pick another antispam.type.",
		Cause:    cause,
	}
}

func NewOutputError(target string, cause error) *InstallerError {
	message := fmt.Sprintf("failed to output to target '%s'", target)
	guidance := "Check that the output target is valid and accessible."

	if target == "clipboard" {
		guidance = "Clipboard access failed. Ensure you're running in a graphical environment " +
			"or try using --target stdout instead."
	} else if strings.HasPrefix(target, "file:") {
		filePath := strings.TrimPrefix(target, "file:")
		guidance = fmt.Sprintf("Failed to write to file '%s'. Check that the directory exists "+
			"and you have write permissions.", filePath)
	} else if target == "editor" {
		guidance = "Editor launch failed. Check that the specified editor is installed and in PATH. " +
			"Try setting EDITOR environment variable or using --editor flag."
	}

	return &InstallerError{
		Type:     ErrOutputFailed,
		Message:  message,
		Guidance: guidance,
		Cause:    cause,
	}
}

func NewValidationError(field string, value interface{}, reason string) *InstallerError {
	message := fmt.Sprintf("validation failed for %s: %v (%s)", field, value, reason)
	guidance := "Check the input value and ensure it meets the required format."

	switch field {
	case "domain":
		guidance = "Pass the mail domain as first argument, e.g. 'mailstack example.com'."
	case "target":
		guidance = "Target must be 'clipboard', 'stdout', or 'file:/path/to/file'. " +
			"Example: --target file:/tmp/value.txt"
	case "option":
		guidance = "Options are addressed as section.option, e.g. 'modoboa.dbpassword'."
	case "flags":
		guidance = "--interactive and --yes cannot be combined."
	}

	return &InstallerError{
		Type:     ErrValidationFailed,
		Message:  message,
		Guidance: guidance,
		Cause:    nil,
	}
}

// Classify turns errors from lower layers into structured errors
func Classify(err error, configFile string) error {
	if err == nil {
		return nil
	}

	var installerErr *InstallerError
	if errors.As(err, &installerErr) {
		return installerErr
	}

	switch {
	case errors.Is(err, interactive.ErrRestrictedValue):
		return NewRestrictedValueError(configFile, err)
	case errors.Is(err, compat.ErrIncompatibleApps):
		return NewCompatibilityError(err)
	case errors.Is(err, store.ErrNotFound):
		return NewConfigurationError(fmt.Sprintf("configuration file %s not found", configFile), err)
	case errors.IsAssertionFailure(err):
		// schema bugs stay loud
		return err
	default:
		return &InstallerError{
			Type:     errors.New("unknown error"),
			Message:  err.Error(),
			Guidance: "An unexpected error occurred. Run again with --debug for details.",
			Cause:    err,
		}
	}
}

// IsRecoverableError checks if an error can be recovered from
func IsRecoverableError(err error) bool {
	var installerErr *InstallerError
	if !errors.As(err, &installerErr) {
		return false
	}

	switch installerErr.Type {
	case ErrOutputFailed:
		return strings.Contains(installerErr.Message, "clipboard")
	default:
		return false
	}
}
