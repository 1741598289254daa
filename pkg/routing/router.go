package routing

import (
	"path/filepath"
	"strings"

	"github.com/bft-labs/labship/internal/domain"
)

// Router resolves filenames against a Table under a data root.
type Router struct {
	table *Table
	root  string
}

// NewRouter returns a Router writing below root.
func NewRouter(table *Table, root string) *Router {
	return &Router{table: table, root: root}
}

// Table returns the router's table.
func (r *Router) Table() *Table { return r.table }

// Resolve returns the destination for filename, or a routing error when no
// type tag or no group id occurs in it. Names that are not a single path
// element are rejected as protocol errors before any matching.
func (r *Router) Resolve(filename string) (domain.Destination, error) {
	if err := CheckName(filename); err != nil {
		return domain.Destination{}, err
	}

	lname := strings.ToLower(filename)
	route, ok := r.table.matchType(lname)
	if !ok {
		return domain.Destination{}, domain.Errorf(domain.KindRouting, "resolve", filename, "no type tag matches")
	}
	group, ok := r.table.matchGroup(lname)
	if !ok {
		return domain.Destination{}, domain.Errorf(domain.KindRouting, "resolve", filename, "type %s matched but no group id", route.Type)
	}

	dir := filepath.Join(r.root, group, filepath.FromSlash(route.SubPath))
	return domain.Destination{
		GroupID: group,
		Type:    route.Type,
		Dir:     dir,
		Path:    filepath.Join(dir, filename),
	}, nil
}

// CheckName rejects empty names, names with separators and dot entries.
func CheckName(filename string) error {
	switch {
	case filename == "", filename == ".", filename == "..":
		return domain.Errorf(domain.KindProtocol, "resolve", filename, "invalid filename")
	case strings.ContainsAny(filename, "/\\\x00"):
		return domain.Errorf(domain.KindProtocol, "resolve", filename, "filename contains a path separator")
	}
	return nil
}
