package routing

import (
	"fmt"
	"strings"

	"github.com/bft-labs/labship/internal/domain"
)

// Route maps one instrument type tag to a destination sub-path.
type Route struct {
	Type    string `toml:"type"`
	SubPath string `toml:"path"`
}

// Table is the immutable routing configuration.
type Table struct {
	routes []Route
	groups []string

	// lowered copies used for matching
	lroutes []string
	lgroups []string
}

// NewTable validates routes and groups and returns a Table that owns copies
// of both slices.
func NewTable(routes []Route, groups []string) (*Table, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: routing table has no routes", domain.ErrInvalidConfig)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: routing table has no group ids", domain.ErrInvalidConfig)
	}

	t := &Table{
		routes:  make([]Route, 0, len(routes)),
		groups:  make([]string, 0, len(groups)),
		lroutes: make([]string, 0, len(routes)),
		lgroups: make([]string, 0, len(groups)),
	}
	seen := make(map[string]bool, len(routes))
	for i, r := range routes {
		tag := strings.TrimSpace(r.Type)
		if tag == "" {
			return nil, fmt.Errorf("%w: route %d has an empty type tag", domain.ErrInvalidConfig, i)
		}
		if strings.TrimSpace(r.SubPath) == "" {
			return nil, fmt.Errorf("%w: route %q has an empty path", domain.ErrInvalidConfig, tag)
		}
		l := strings.ToLower(tag)
		if seen[l] {
			return nil, fmt.Errorf("%w: duplicate type tag %q", domain.ErrInvalidConfig, tag)
		}
		seen[l] = true
		t.routes = append(t.routes, Route{Type: tag, SubPath: r.SubPath})
		t.lroutes = append(t.lroutes, l)
	}
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == "" {
			return nil, fmt.Errorf("%w: empty group id", domain.ErrInvalidConfig)
		}
		if strings.ContainsAny(g, `/\`) || g == "." || g == ".." {
			return nil, fmt.Errorf("%w: group id %q is not a directory name", domain.ErrInvalidConfig, g)
		}
		t.groups = append(t.groups, g)
		t.lgroups = append(t.lgroups, strings.ToLower(g))
	}
	return t, nil
}

// MustTable is NewTable for static tables; it panics on invalid input.
func MustTable(routes []Route, groups []string) *Table {
	t, err := NewTable(routes, groups)
	if err != nil {
		panic(err)
	}
	return t
}

// Routes returns a copy of the routes in lookup order.
func (t *Table) Routes() []Route { return append([]Route(nil), t.routes...) }

// Groups returns a copy of the group ids in lookup order.
func (t *Table) Groups() []string { return append([]string(nil), t.groups...) }

// ValidType reports whether tag exactly names a route, ignoring case.
func (t *Table) ValidType(tag string) bool {
	_, ok := t.SubPath(tag)
	return ok
}

// ValidGroup reports whether id exactly names a group, ignoring case.
func (t *Table) ValidGroup(id string) bool {
	l := strings.ToLower(id)
	for _, g := range t.lgroups {
		if g == l {
			return true
		}
	}
	return false
}

// SubPath returns the sub-path for an exact (case-insensitive) type tag.
func (t *Table) SubPath(tag string) (string, bool) {
	l := strings.ToLower(tag)
	for i, r := range t.lroutes {
		if r == l {
			return t.routes[i].SubPath, true
		}
	}
	return "", false
}

// matchType returns the first route whose tag occurs in lname.
func (t *Table) matchType(lname string) (Route, bool) {
	for i, r := range t.lroutes {
		if strings.Contains(lname, r) {
			return t.routes[i], true
		}
	}
	return Route{}, false
}

// matchGroup returns the first group id that occurs in lname.
func (t *Table) matchGroup(lname string) (string, bool) {
	for i, g := range t.lgroups {
		if strings.Contains(lname, g) {
			return t.groups[i], true
		}
	}
	return "", false
}
