package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"mailstack-cli/internal/app"
	"mailstack-cli/pkg/models"
)

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("configfile", "", "")
	cmd.Flags().String("settings", "", "")
	cmd.Flags().Bool("yes", false, "")
	cmd.Flags().Bool("interactive", false, "")
	cmd.Flags().Bool("debug", false, "")
	cmd.Flags().Bool("stop-after-configfile-check", false, "")
	cmd.Flags().Bool("upgrade", false, "")
	cmd.Flags().Bool("backup", false, "")
	cmd.Flags().Bool("silent-backup", false, "")
	cmd.Flags().String("restore", "", "")
	cmd.Flags().Bool("force", false, "")
	return cmd
}

func TestBuildRequestFromFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		flags     map[string]string
		boolFlags map[string]bool
		expected  *models.InstallRequest
		wantErr   bool
	}{
		{
			name: "domain and configfile",
			args: []string{" example.test "},
			flags: map[string]string{
				"configfile": "/etc/mailstack/installer.cfg",
			},
			expected: &models.InstallRequest{
				Domain:     "example.test",
				ConfigFile: "/etc/mailstack/installer.cfg",
			},
		},
		{
			name: "noninteractive upgrade",
			args: []string{"example.test"},
			boolFlags: map[string]bool{
				"yes":     true,
				"upgrade": true,
				"force":   true,
			},
			expected: &models.InstallRequest{
				Domain:              "example.test",
				ForceNonInteractive: true,
				Upgrade:             true,
				Force:               true,
			},
		},
		{
			name:  "restore",
			args:  []string{"example.test"},
			flags: map[string]string{"restore": "/srv/backup"},
			boolFlags: map[string]bool{
				"stop-after-configfile-check": true,
				"debug":                       true,
			},
			expected: &models.InstallRequest{
				Domain:               "example.test",
				RestorePath:          "/srv/backup",
				StopAfterConfigCheck: true,
				Debug:                true,
			},
		},
		{
			name:      "interactive and yes",
			args:      []string{"example.test"},
			boolFlags: map[string]bool{"yes": true, "interactive": true},
			wantErr:   true,
		},
		{
			name:      "upgrade and restore",
			args:      []string{"example.test"},
			flags:     map[string]string{"restore": "/srv/backup"},
			boolFlags: map[string]bool{"upgrade": true},
			wantErr:   true,
		},
		{
			name:      "both backup modes",
			args:      []string{"example.test"},
			boolFlags: map[string]bool{"backup": true, "silent-backup": true},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newFlagCommand()

			for flag, value := range tt.flags {
				if err := cmd.Flags().Set(flag, value); err != nil {
					t.Fatal(err)
				}
			}
			for flag, value := range tt.boolFlags {
				if value {
					if err := cmd.Flags().Set(flag, "true"); err != nil {
						t.Fatal(err)
					}
				}
			}

			result, err := buildRequestFromFlags(cmd, tt.args)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if *result != *tt.expected {
				t.Errorf("request = %+v, expected %+v", *result, *tt.expected)
			}
		})
	}
}

func TestBuildRequestFromFlags_CommandSpecific(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("target", "", "")
	cmd.Flags().String("domain", "", "")
	if err := cmd.Flags().Set("target", "clipboard"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("domain", "example.test"); err != nil {
		t.Fatal(err)
	}

	result, err := buildRequestFromFlags(cmd, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Target != "clipboard" || result.Domain != "example.test" {
		t.Errorf("request = %+v", *result)
	}
	if result.Upgrade || result.ConfigFile != "" {
		t.Error("undefined flags should keep their zero value")
	}
}

func TestBuildRequestFromFlags_WrongType(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().Int("upgrade", 0, "")

	if _, err := buildRequestFromFlags(cmd, nil); err == nil || !strings.Contains(err.Error(), "upgrade") {
		t.Errorf("expected a flag type error, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "outdated", err: errors.Wrap(app.ErrOutdated, "config outdated"), want: exitOutdated},
		{name: "failure", err: errors.New("boom"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"version"},
		{"components"},
		{"config", "check"},
		{"config", "migrate"},
		{"config", "outdated"},
		{"config", "get"},
		{"config", "edit"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not found: %v", path, err)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(out.String(), "mailstack version dev\n") {
		t.Errorf("version output = %q", out.String())
	}
}
