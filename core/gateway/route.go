// Package gateway holds the routing table of the API gateway.
package gateway

import (
	"io/fs"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appfs "github.com/YounesFetouaki/edu-path/fs"
)

// Route forwards every path under Prefix to Target.
// Rewrite maps anchored path patterns to replacements, `*` capturing the rest of the path as $1.
type Route struct {
	Name    string            `yaml:"name"`
	Prefix  string            `yaml:"prefix"`
	Target  string            `yaml:"target"`
	Rewrite map[string]string `yaml:"rewrite,omitempty"`
}

// Matches reports whether path is the route prefix or lies under it.
func (r Route) Matches(path string) bool {
	if !strings.HasPrefix(path, r.Prefix) {
		return false
	}
	rest := path[len(r.Prefix):]
	return rest == "" || rest[0] == '/' || rest[0] == '?'
}

type file struct {
	Routes []Route `yaml:"routes"`
}

// Table is a validated set of routes, sorted by descending prefix length. It is not modified after creation.
type Table struct {
	routes []Route
}

// LoadTable reads the route table from path, or from the embedded default when path is empty.
// overrides replace the target of the routes they name.
func LoadTable(path string, overrides map[string]string) (Table, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = fs.ReadFile(appfs.FS, appfs.GatewayRoutesFile)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Table{}, errors.Wrap(err, "reading gateway routes")
	}
	return ParseTable(data, overrides)
}

func ParseTable(data []byte, overrides map[string]string) (Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Table{}, errors.Wrap(err, "parsing gateway routes")
	}
	return NewTable(f.Routes, overrides)
}

func NewTable(routes []Route, overrides map[string]string) (Table, error) {
	if len(routes) == 0 {
		return Table{}, errors.New("gateway: no routes")
	}

	names := make(map[string]bool, len(routes))
	prefixes := make(map[string]bool, len(routes))
	result := make([]Route, 0, len(routes))

	for i, r := range routes {
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			return Table{}, errors.Errorf("gateway: route #%d has no name", i+1)
		}
		if names[r.Name] {
			return Table{}, errors.Errorf("gateway: duplicate route name %q", r.Name)
		}
		names[r.Name] = true

		if t, ok := overrides[r.Name]; ok && t != "" {
			r.Target = t
		}

		if !strings.HasPrefix(r.Prefix, "/") {
			return Table{}, errors.Errorf("gateway: route %q: prefix must start with /", r.Name)
		}
		if len(r.Prefix) > 1 {
			r.Prefix = strings.TrimRight(r.Prefix, "/")
		}
		if prefixes[r.Prefix] {
			return Table{}, errors.Errorf("gateway: duplicate prefix %q", r.Prefix)
		}
		prefixes[r.Prefix] = true

		u, err := url.Parse(r.Target)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return Table{}, errors.Errorf("gateway: route %q: invalid target %q", r.Name, r.Target)
		}

		rw := make(map[string]string, len(r.Rewrite))
		for k, v := range r.Rewrite {
			rw[k] = v
		}
		r.Rewrite = rw
		result = append(result, r)
	}

	sort.SliceStable(result, func(i, j int) bool { return len(result[i].Prefix) > len(result[j].Prefix) })
	return Table{routes: result}, nil
}

// Routes returns a copy of the routes, longest prefix first.
func (t Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Match returns the route with the longest prefix matching path.
func (t Table) Match(path string) (Route, bool) {
	for _, r := range t.routes {
		if r.Matches(path) {
			return r, true
		}
	}
	return Route{}, false
}
