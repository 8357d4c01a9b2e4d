package store

import (
	"github.com/cockroachdb/errors"
	"gopkg.in/ini.v1"

	"mailstack-cli/internal/interfaces"
)

// ErrMissingOption is returned when a section or option does not exist
var ErrMissingOption = errors.New("missing configuration option")

// Accessor is the typed, read-only view installer components use. Values
// are interpolated: %(name)s expands to the sibling option of the same
// section, or to the domain given when the accessor was built.
type Accessor struct {
	file *ini.File
}

var _ interfaces.ConfigReader = (*Accessor)(nil)

// NewAccessor builds an accessor over an in-memory configuration
func NewAccessor(cfg *interfaces.ResolvedConfig, domain string) (*Accessor, error) {
	f, err := toINI(cfg)
	if err != nil {
		return nil, err
	}
	return newAccessor(f, domain), nil
}

func newAccessor(f *ini.File, domain string) *Accessor {
	if domain != "" {
		f.Section(ini.DefaultSection).Key("domain").SetValue(domain)
	}
	return &Accessor{file: f}
}

func (a *Accessor) key(section, option string) (*ini.Key, error) {
	if section == "" || section == ini.DefaultSection {
		return nil, errors.Wrapf(ErrMissingOption, "section %s", section)
	}
	sec, err := a.file.GetSection(section)
	if err != nil {
		return nil, errors.Wrapf(ErrMissingOption, "section %s", section)
	}
	key, err := sec.GetKey(option)
	if err != nil {
		return nil, errors.Wrapf(ErrMissingOption, "%s.%s", section, option)
	}
	return key, nil
}

// Get returns the interpolated value of section.option
func (a *Accessor) Get(section, option string) (string, error) {
	key, err := a.key(section, option)
	if err != nil {
		return "", err
	}
	return key.String(), nil
}

// GetBool parses section.option as a boolean (true/false, yes/no, on/off, 1/0)
func (a *Accessor) GetBool(section, option string) (bool, error) {
	key, err := a.key(section, option)
	if err != nil {
		return false, err
	}
	v, err := key.Bool()
	if err != nil {
		return false, errors.Wrapf(err, "%s.%s", section, option)
	}
	return v, nil
}

// GetInt parses section.option as an integer. When a fallback is given it
// is returned instead of an error for absent or non-numeric values.
func (a *Accessor) GetInt(section, option string, fallback ...int) (int, error) {
	key, err := a.key(section, option)
	if err == nil {
		var v int
		if v, err = key.Int(); err == nil {
			return v, nil
		}
		err = errors.Wrapf(err, "%s.%s", section, option)
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return 0, err
}

// HasOption reports whether section.option exists
func (a *Accessor) HasOption(section, option string) bool {
	_, err := a.key(section, option)
	return err == nil
}

// HasSection reports whether section exists
func (a *Accessor) HasSection(section string) bool {
	if section == "" || section == ini.DefaultSection {
		return false
	}
	_, err := a.file.GetSection(section)
	return err == nil
}

// Sections returns section names in file order
func (a *Accessor) Sections() []string {
	var out []string
	for _, name := range a.file.SectionStrings() {
		if name != ini.DefaultSection {
			out = append(out, name)
		}
	}
	return out
}
