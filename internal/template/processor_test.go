package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mailstack-cli/internal/interfaces"
)

func TestProcessor_LoadTemplate(t *testing.T) {
	overrideDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(overrideDir, "summary.tmpl"), []byte("custom {{ .Hostname }}"), 0644); err != nil {
		t.Fatal(err)
	}
	brokenPath := filepath.Join(overrideDir, "broken.tmpl")
	if err := os.WriteFile(brokenPath, []byte("{{ .Hostname "), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		dir       string
		template  string
		wantError bool
	}{
		{name: "embedded report", template: ReportTemplate},
		{name: "embedded plan", template: PlanTemplate},
		{name: "case insensitive", template: "SUMMARY"},
		{name: "override directory", dir: overrideDir, template: SummaryTemplate},
		{name: "explicit path", template: filepath.Join(overrideDir, "summary.tmpl")},
		{name: "unknown name", template: "nope", wantError: true},
		{name: "missing path", template: "/does/not/exist.tmpl", wantError: true},
		{name: "parse error", template: brokenPath, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProcessor(tt.dir).LoadTemplate(tt.template)
			if (err != nil) != tt.wantError {
				t.Errorf("LoadTemplate(%q) error = %v, wantError %v", tt.template, err, tt.wantError)
			}
		})
	}

	out, err := NewProcessor(overrideDir).Render(SummaryTemplate, interfaces.SummaryData{Hostname: "mail.example.test"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "custom mail.example.test" {
		t.Errorf("override not used: %q", out)
	}
}

func TestProcessor_Report(t *testing.T) {
	processor := NewProcessor("")

	tests := []struct {
		name     string
		data     interfaces.ReportData
		contains []string
		excludes []string
	}{
		{
			name:     "up to date",
			data:     interfaces.ReportData{Path: "installer.cfg"},
			contains: []string{"installer.cfg is up to date."},
			excludes: []string{"backup"},
		},
		{
			name: "outdated",
			data: interfaces.ReportData{
				Path:            "installer.cfg",
				Changed:         true,
				DroppedSections: []string{"dummy"},
				AddedOptions:    []interfaces.OptionRef{{Section: "dovecot", Option: "radicale_auth_socket_path"}},
			},
			contains: []string{"installer.cfg is outdated.", "dropped sections: dummy", "added options:    dovecot.radicale_auth_socket_path"},
			excludes: []string{"layout differs", "backup"},
		},
		{
			name: "applied with backup",
			data: interfaces.ReportData{
				Path:    "installer.cfg",
				Backup:  "installer_20240309_140507.old",
				Applied: true,
				Changed: true,
			},
			contains: []string{"has been updated", "layout differs", "backup:           installer_20240309_140507.old"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := processor.Render(ReportTemplate, tt.data)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output %q missing %q", out, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("output %q should not contain %q", out, s)
				}
			}
		})
	}
}

func TestProcessor_SummaryAndPlan(t *testing.T) {
	processor := NewProcessor("")
	data := interfaces.SummaryData{
		Hostname:   "mail.example.test",
		Components: []string{"modoboa", "postfix", "dovecot"},
		Plans: []interfaces.ComponentPlan{
			{Name: "modoboa", User: "modoboa", Database: "modoboa", DBUser: "modoboa"},
			{Name: "postfix", ConfigDir: "/etc/postfix"},
		},
		Now: time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC),
	}

	summary, err := processor.Render(SummaryTemplate, data)
	if err != nil {
		t.Fatal(err)
	}
	want := "Your mail server mail.example.test will be installed with the following components:\nmodoboa postfix dovecot\n"
	if summary != want {
		t.Errorf("summary = %q, want %q", summary, want)
	}

	data.Upgrade = true
	summary, _ = processor.Render(SummaryTemplate, data)
	if !strings.Contains(summary, "will be upgraded") {
		t.Errorf("upgrade wording missing: %q", summary)
	}

	data.Extensions = []string{"modoboa-webmail<=1.1.5", "modoboa-contacts"}
	plan, err := processor.Render(PlanTemplate, data)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"2024-03-09 14:05:07", "- MODOBOA", "database user: modoboa", "- POSTFIX",
		"config dir:    /etc/postfix", "- EXTENSIONS\n    modoboa-webmail<=1.1.5\n    modoboa-contacts"} {
		if !strings.Contains(plan, s) {
			t.Errorf("plan %q missing %q", plan, s)
		}
	}
	if strings.Contains(plan, "system user:   \n") {
		t.Error("empty fields should be omitted")
	}
}

func TestHelpers(t *testing.T) {
	if got := truncateFunc(5, "abcdefgh"); got != "ab..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncateFunc(2, "abcdefgh"); got != "ab" {
		t.Errorf("truncate short = %q", got)
	}
	if got := maskFunc("secret"); got != "se****" {
		t.Errorf("mask = %q", got)
	}
	if got := maskFunc("ab"); got != "**" {
		t.Errorf("mask short = %q", got)
	}
	refs := []interfaces.OptionRef{{Section: "a", Option: "b"}, {Section: "c", Option: "d"}}
	if got := refsFunc(refs); got != "a.b, c.d" {
		t.Errorf("refs = %q", got)
	}
}
