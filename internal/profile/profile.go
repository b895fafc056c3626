// Package profile loads named ideal-customer-profiles from YAML files.
package profile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// ErrNotFound is returned when a named profile has no file in the
// profiles directory.
var ErrNotFound = eris.New("profile: not found")

// Loader reads profiles from a directory of YAML files, one profile per
// file, named <profile>.yaml.
type Loader struct {
	dir string
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads the named profile. The file's name field is overridden by the
// file name so the two can never disagree.
func (l *Loader) Load(name string) (*model.Profile, error) {
	path := filepath.Join(l.dir, name+".yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(ErrNotFound, "profile %q (looked in %s)", name, l.dir)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "profile: read %s", path)
	}

	var p model.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrapf(err, "profile: parse %s", path)
	}
	p.Name = name
	return &p, nil
}

// List returns the names of all profiles in the directory, sorted.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "profile: read dir %s", l.dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// FromQuery builds an ad-hoc profile around filters parsed from a free-text
// query. It carries default scoring weights.
func FromQuery(query string, filters model.Filters) *model.Profile {
	return &model.Profile{
		Name:        "query",
		Description: query,
		Filters:     filters,
	}
}
