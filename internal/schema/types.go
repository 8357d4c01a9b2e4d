// Package schema describes every option the installer configuration file may
// contain, and how each option gets its value.
package schema

// Lookup returns values already resolved earlier in schema order
type Lookup interface {
	Get(section, option string) (string, bool)
}

// ValidatorFunc checks a candidate value. It returns false and a message for
// the operator when the value is rejected.
type ValidatorFunc func(value string) (bool, string)

// Default is how an option's default value is produced. The concrete types
// are Literal, Generated and DerivedBool.
type Default interface {
	isDefault()
}

// Literal is a fixed default. It may contain %(name)s back-references to
// sibling options, interpolated when the file is read.
type Literal string

// Generated is invoked once per resolution to produce the default.
type Generated func() string

// DerivedBool defaults to "true" when every predicate holds, "false" otherwise.
type DerivedBool []string

func (Literal) isDefault()     {}
func (Generated) isDefault()   {}
func (DerivedBool) isDefault() {}

// Option describes one key of a section
type Option struct {
	Name    string
	Default Default

	// Customizable options are asked when the section is interactive
	Customizable bool
	Question     string

	// Values restricts input to an index into this list
	Values []string

	// NonInteractiveValues can only be set by editing the file by hand
	NonInteractiveValues []string

	Validators []ValidatorFunc

	// Condition narrows interactivity for this option only
	Condition []string
}

// IsNonInteractiveOnly reports whether value may only be set by hand
func (o Option) IsNonInteractiveOnly(value string) bool {
	return contains(o.NonInteractiveValues, value)
}

// IsGenerated reports whether the default comes from a generator
func (o Option) IsGenerated() bool {
	_, ok := o.Default.(Generated)
	return ok
}

// Section is a named, optionally conditional group of options
type Section struct {
	Name      string
	Condition []string
	Options   []Option
}

// Option returns the named option
func (s Section) Option(name string) (Option, bool) {
	for _, o := range s.Options {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// Schema is an ordered, checked list of sections
type Schema struct {
	sections []Section
}

// New builds a schema and checks its ordering invariants
func New(sections ...Section) (*Schema, error) {
	s := &Schema{sections: sections}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is like New but panics when the schema is inconsistent
func MustNew(sections ...Section) *Schema {
	s, err := New(sections...)
	if err != nil {
		panic(err)
	}
	return s
}

// Sections returns the sections in declaration order
func (s *Schema) Sections() []Section {
	return s.sections
}

// Section returns the named section
func (s *Schema) Section(name string) (Section, bool) {
	for _, sec := range s.sections {
		if sec.Name == name {
			return sec, true
		}
	}
	return Section{}, false
}

// Option returns section.option
func (s *Schema) Option(section, option string) (Option, bool) {
	sec, ok := s.Section(section)
	if !ok {
		return Option{}, false
	}
	return sec.Option(option)
}
