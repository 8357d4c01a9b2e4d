package migration

import (
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mailstack-cli/internal/interfaces"
	"mailstack-cli/internal/resolver"
	"mailstack-cli/internal/schema"
	"mailstack-cli/internal/store"
)

const cfgPath = "/etc/mailstack/installer.cfg"

func freshTemplate(t *testing.T) *interfaces.ResolvedConfig {
	t.Helper()
	cfg, err := resolver.New(nil, nil).Resolve(schema.Template(), false)
	require.NoError(t, err)
	return cfg
}

func clone(cfg *interfaces.ResolvedConfig) *interfaces.ResolvedConfig {
	out := interfaces.NewResolvedConfig()
	for _, sec := range cfg.Sections() {
		bucket := out.AddSection(sec)
		for _, opt := range cfg.Options(sec) {
			v, _ := cfg.Get(sec, opt)
			bucket.Set(opt, v)
		}
	}
	return out
}

func without(cfg *interfaces.ResolvedConfig, section string) *interfaces.ResolvedConfig {
	out := interfaces.NewResolvedConfig()
	for _, sec := range cfg.Sections() {
		if sec == section {
			continue
		}
		for _, opt := range cfg.Options(sec) {
			v, _ := cfg.Get(sec, opt)
			out.Set(sec, opt, v)
		}
	}
	return out
}

func TestDiffAndMerge_CarryForward(t *testing.T) {
	fresh := freshTemplate(t)
	old := clone(fresh)
	old.Set("modoboa", "dbpassword", "CustomSecret42")
	old.Set("modoboa", "home_dir", "/opt/modoboa")

	report, merged := DiffAndMerge(old, fresh)

	pw, _ := merged.Get("modoboa", "dbpassword")
	assert.Equal(t, "CustomSecret42", pw)
	home, _ := merged.Get("modoboa", "home_dir")
	assert.Equal(t, "/opt/modoboa", home)
	assert.Contains(t, report.Drifted, interfaces.OptionRef{Section: "modoboa", Option: "dbpassword"})
	assert.False(t, report.Structural())
	assert.False(t, report.Changed, "same layout, nothing to rewrite")
}

func TestDiffAndMerge_DroppedSection(t *testing.T) {
	fresh := freshTemplate(t)
	old := clone(fresh)
	old.Set("dummy", "weird", "1")

	report, merged := DiffAndMerge(old, fresh)

	assert.Equal(t, []string{"dummy"}, report.DroppedSections)
	assert.True(t, report.Changed)
	assert.False(t, merged.HasSection("dummy"))
}

func TestDiffAndMerge_AddedSection(t *testing.T) {
	fresh := freshTemplate(t)
	old := without(fresh, "radicale")

	report, merged := DiffAndMerge(old, fresh)

	assert.Equal(t, []string{"radicale"}, report.AddedSections)
	assert.True(t, report.Changed)
	user, ok := merged.Get("radicale", "user")
	assert.True(t, ok)
	assert.Equal(t, "radicale", user)
	secret, _ := merged.Get("radicale", "oauth2_client_secret")
	assert.Len(t, secret, 36)
}

func TestDiffAndMerge_Options(t *testing.T) {
	fresh := interfaces.NewResolvedConfig()
	fresh.Set("postfix", "enabled", "true")
	fresh.Set("postfix", "message_size_limit", "11534336")

	old := interfaces.NewResolvedConfig()
	old.Set("postfix", "enabled", "false")
	old.Set("postfix", "legacy", "x")

	report, merged := DiffAndMerge(old, fresh)

	assert.Equal(t, []interfaces.OptionRef{{Section: "postfix", Option: "legacy"}}, report.DroppedOptions)
	assert.Equal(t, []interfaces.OptionRef{{Section: "postfix", Option: "message_size_limit"}}, report.AddedOptions)
	assert.True(t, report.Changed)
	assert.Equal(t, []string{"enabled", "message_size_limit"}, merged.Options("postfix"))
	enabled, _ := merged.Get("postfix", "enabled")
	assert.Equal(t, "false", enabled)
}

func TestDiffAndMerge_DriftWithDifferentLayout(t *testing.T) {
	fresh := interfaces.NewResolvedConfig()
	fresh.Set("nginx", "enabled", "true")
	fresh.Set("nginx", "config_dir", "/etc/nginx")

	old := interfaces.NewResolvedConfig()
	old.Set("nginx", "config_dir", "/usr/local/etc/nginx")
	old.Set("nginx", "enabled", "true")

	report, merged := DiffAndMerge(old, fresh)
	assert.False(t, report.Structural())
	assert.True(t, report.Changed)
	assert.Equal(t, []string{"enabled", "config_dir"}, merged.Options("nginx"))

	again, _ := DiffAndMerge(merged, fresh)
	assert.False(t, again.Changed)
}

func newEngine(t *testing.T) (*Engine, *store.Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	st := store.New(fs, zaptest.NewLogger(t))
	e := NewEngine(st, schema.Template(), zaptest.NewLogger(t))
	e.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	return e, st, fs
}

func countBackups(t *testing.T, fs afero.Fs) int {
	t.Helper()
	matches, err := afero.Glob(fs, "/etc/mailstack/*.old")
	require.NoError(t, err)
	return len(matches)
}

func TestEngine_ApplyTwiceIsNoOp(t *testing.T) {
	e, st, fs := newEngine(t)
	old := without(freshTemplate(t), "razor")
	old.Set("dummy", "key", "value")
	old.Set("modoboa", "dbpassword", "KeepMe123")
	require.NoError(t, st.Save(cfgPath, old))

	report, backup, err := e.Apply(cfgPath)
	require.NoError(t, err)
	assert.True(t, report.Changed)
	assert.Equal(t, "/etc/mailstack/installer_20240309_140507.old", backup)
	assert.Equal(t, 1, countBackups(t, fs))

	migrated, err := st.Load(cfgPath)
	require.NoError(t, err)
	assert.True(t, migrated.HasSection("razor"))
	assert.False(t, migrated.HasSection("dummy"))
	pw, _ := migrated.Get("modoboa", "dbpassword")
	assert.Equal(t, "KeepMe123", pw)

	before, err := afero.ReadFile(fs, cfgPath)
	require.NoError(t, err)

	e.now = func() time.Time { return time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC) }
	report, backup, err = e.Apply(cfgPath)
	require.NoError(t, err)
	assert.False(t, report.Changed)
	assert.Empty(t, backup)
	assert.Equal(t, 1, countBackups(t, fs))

	after, err := afero.ReadFile(fs, cfgPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEngine_ApplyKeepsHandEditedValues(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "double quoted", raw: `"Europe/Paris"`},
		{name: "single quoted", raw: `'Europe/Paris'`},
		{name: "hash", raw: "Europe/Paris # local"},
		{name: "semicolon and hash", raw: "p;ss#w0rd"},
		{name: "backticks", raw: "Europe`Paris`"},
		{name: "interpolation", raw: "%(x)s/zone"},
		{name: "inner quotes", raw: `"Europe" or 'Paris'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, st, fs := newEngine(t)
			require.NoError(t, st.Save(cfgPath, without(freshTemplate(t), "razor")))

			data, err := afero.ReadFile(fs, cfgPath)
			require.NoError(t, err)
			edited := strings.Replace(string(data), "timezone = Europe/Paris\n", "timezone = "+tt.raw+"\n", 1)
			require.NotEqual(t, string(data), edited)
			require.NoError(t, afero.WriteFile(fs, cfgPath, []byte(edited), store.FileMode))

			loaded, err := st.Load(cfgPath)
			require.NoError(t, err)
			tz, _ := loaded.Get("modoboa", "timezone")
			require.Equal(t, tt.raw, tz)

			report, _, err := e.Apply(cfgPath)
			require.NoError(t, err)
			assert.True(t, report.Changed)

			migrated, err := st.Load(cfgPath)
			require.NoError(t, err)
			tz, _ = migrated.Get("modoboa", "timezone")
			assert.Equal(t, tt.raw, tz)

			accessor, err := st.Open(cfgPath, "example.test")
			require.NoError(t, err)
			got, err := accessor.Get("modoboa", "timezone")
			require.NoError(t, err)
			assert.Equal(t, tt.raw, got)
		})
	}
}

func TestEngine_CheckDoesNotWrite(t *testing.T) {
	e, st, fs := newEngine(t)
	old := freshTemplate(t)
	old.Set("dummy", "key", "value")
	require.NoError(t, st.Save(cfgPath, old))
	before, _ := afero.ReadFile(fs, cfgPath)

	report, err := e.Check(cfgPath)
	require.NoError(t, err)
	assert.True(t, report.Changed)
	assert.Equal(t, []string{"dummy"}, report.DroppedSections)

	after, _ := afero.ReadFile(fs, cfgPath)
	assert.Equal(t, before, after)
	assert.Equal(t, 0, countBackups(t, fs))
}

func TestEngine_FreshFileIsCurrent(t *testing.T) {
	e, st, _ := newEngine(t)
	require.NoError(t, st.Save(cfgPath, freshTemplate(t)))

	report, err := e.Check(cfgPath)
	require.NoError(t, err)
	assert.False(t, report.Changed)
	assert.NotEmpty(t, report.Drifted, "generated secrets differ from a new resolution")
}

func TestEngine_MissingFile(t *testing.T) {
	e, _, _ := newEngine(t)
	_, err := e.Check(cfgPath)
	assert.True(t, errors.Is(err, store.ErrNotFound))
	_, _, err = e.Apply(cfgPath)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestReport_Data(t *testing.T) {
	r := Report{DroppedSections: []string{"dummy"}, Changed: true}
	data := r.Data(cfgPath, "/b.old", true)
	assert.Equal(t, cfgPath, data.Path)
	assert.Equal(t, "/b.old", data.Backup)
	assert.True(t, data.Applied)
	assert.Equal(t, []string{"dummy"}, data.DroppedSections)
}

// Any stored value survives a merge with the template, whatever its content.
func TestDiffAndMerge_CarryForward_Property(t *testing.T) {
	fresh := freshTemplate(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("shared options keep the stored value", prop.ForAll(
		func(password, hostname string) bool {
			old := clone(fresh)
			old.Set("mysql", "password", password)
			old.Set("general", "hostname", hostname)
			_, merged := DiffAndMerge(old, fresh)
			pw, _ := merged.Get("mysql", "password")
			host, _ := merged.Get("general", "hostname")
			return pw == password && host == hostname
		},
		gen.Identifier(),
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
