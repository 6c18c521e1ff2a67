package declaration

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Entry declares the playbooks of one scope in a declarations file. A key
// that is present with an empty list is kept as an empty marker, so that it
// is rejected like an empty marker in code.
type Entry struct {
	Setup        []string       `yaml:"setup"`
	Teardown     []string       `yaml:"teardown"`
	SkipTeardown bool           `yaml:"skip_teardown"`
	Vars         map[string]any `yaml:"vars"`
}

// Markers converts the entry to markers.
func (e Entry) Markers() []Marker {
	markers := make([]Marker, 0, 4)
	if e.Setup != nil {
		markers = append(markers, Setup(e.Setup...))
	}

	if e.Teardown != nil {
		markers = append(markers, Teardown(e.Teardown...))
	}

	if e.SkipTeardown {
		markers = append(markers, SkipTeardown())
	}

	if len(e.Vars) != 0 {
		markers = append(markers, Vars(e.Vars))
	}

	return markers
}

// File is a YAML declarations file:
//
//	tests:
//	  TestCreateUser:
//	    setup: [create_db.yml]
//	    teardown: [drop_db.yml]
//	session:
//	  setup: [provision.yml]
type File struct {
	Tests   map[string]Entry `yaml:"tests"`
	Session *Entry           `yaml:"session"`
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declarations file: %w", err)
	}

	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse declarations file '%s': %w", path, err)
	}

	return f, nil
}

func ParseFile(data []byte) (*File, error) {
	f := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil {
		return nil, err
	}

	return f, nil
}

// Markers returns the markers declared for a test. The boolean is false when
// the test has no entry.
func (f *File) Markers(test string) ([]Marker, bool) {
	if f == nil {
		return nil, false
	}

	entry, ok := f.Tests[test]
	if !ok {
		return nil, false
	}

	return entry.Markers(), true
}

// SessionMarkers returns the markers of the session-wide scope, if any.
func (f *File) SessionMarkers() ([]Marker, bool) {
	if f == nil || f.Session == nil {
		return nil, false
	}

	return f.Session.Markers(), true
}

// TestNames returns the names of all declared tests, sorted.
func (f *File) TestNames() []string {
	names := make([]string, 0, len(f.Tests))
	for name := range f.Tests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
