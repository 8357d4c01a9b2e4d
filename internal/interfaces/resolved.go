package interfaces

// ResolvedSection holds the ordered options of one section
type ResolvedSection struct {
	Name   string
	keys   []string
	values map[string]string
}

// Options returns option names in insertion order
func (s *ResolvedSection) Options() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Get returns the raw value of an option
func (s *ResolvedSection) Get(option string) (string, bool) {
	v, ok := s.values[option]
	return v, ok
}

// Set stores an option value, keeping the first insertion position
func (s *ResolvedSection) Set(option, value string) {
	if _, ok := s.values[option]; !ok {
		s.keys = append(s.keys, option)
	}
	s.values[option] = value
}

// ResolvedConfig maps section name to option name to raw string value,
// preserving declaration order for both levels.
type ResolvedConfig struct {
	sections []*ResolvedSection
	index    map[string]*ResolvedSection
}

// NewResolvedConfig creates an empty configuration
func NewResolvedConfig() *ResolvedConfig {
	return &ResolvedConfig{index: make(map[string]*ResolvedSection)}
}

// AddSection creates the section if needed and returns it
func (c *ResolvedConfig) AddSection(name string) *ResolvedSection {
	if s, ok := c.index[name]; ok {
		return s
	}
	s := &ResolvedSection{Name: name, values: make(map[string]string)}
	c.sections = append(c.sections, s)
	c.index[name] = s
	return s
}

// Section returns the named section or nil
func (c *ResolvedConfig) Section(name string) *ResolvedSection {
	return c.index[name]
}

// HasSection reports whether the section exists
func (c *ResolvedConfig) HasSection(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Sections returns section names in order
func (c *ResolvedConfig) Sections() []string {
	out := make([]string, 0, len(c.sections))
	for _, s := range c.sections {
		out = append(out, s.Name)
	}
	return out
}

// Get returns the raw value of section.option
func (c *ResolvedConfig) Get(section, option string) (string, bool) {
	s, ok := c.index[section]
	if !ok {
		return "", false
	}
	return s.Get(option)
}

// Set stores section.option, creating the section when missing
func (c *ResolvedConfig) Set(section, option, value string) {
	c.AddSection(section).Set(option, value)
}

// Options returns the option names of a section, or nil when absent
func (c *ResolvedConfig) Options(section string) []string {
	s, ok := c.index[section]
	if !ok {
		return nil
	}
	return s.Options()
}

// Equal reports whether both configurations hold the same sections,
// options and values in the same order.
func (c *ResolvedConfig) Equal(other *ResolvedConfig) bool {
	if other == nil || len(c.sections) != len(other.sections) {
		return false
	}
	for i, s := range c.sections {
		o := other.sections[i]
		if s.Name != o.Name || len(s.keys) != len(o.keys) {
			return false
		}
		for j, k := range s.keys {
			if o.keys[j] != k || s.values[k] != o.values[k] {
				return false
			}
		}
	}
	return true
}
