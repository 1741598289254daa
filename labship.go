// Package labship moves instrument result files from lab PCs to the LIMS
// data share over TCP.
//
// A watcher on each instrument PC polls its source directories, sends
// every matching file to the server and archives it once the server has
// acknowledged the content. The server routes each file by the instrument
// tag and group ID embedded in its name.
//
// Example usage:
//
//	srv, err := labship.NewServer(labship.ServerConfig{ListenAddr: ":5005"}, labship.DefaultTable())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.ListenAndServe(ctx)
//
//	cfg := labship.DefaultWatcherConfig()
//	cfg.Sources = []string{`C:\Glomax\Export`}
//	cfg.Addr = "lims.local:5005"
//	w, err := labship.NewWatcher(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package labship

import (
	"github.com/bft-labs/labship/pkg/routing"
	"github.com/bft-labs/labship/pkg/server"
	"github.com/bft-labs/labship/pkg/watcher"
)

// ServerConfig holds the receiving server's settings.
type ServerConfig = server.Config

// WatcherConfig holds the sending watcher's settings.
// Use DefaultWatcherConfig() to get a Config with sensible defaults.
type WatcherConfig = watcher.Config

// Table maps instrument tags to subdirectories and lists the accepted
// group IDs.
type Table = routing.Table

// Route maps one instrument tag to a subdirectory.
type Route = routing.Route

// NewServer creates a server routing files with table.
func NewServer(cfg ServerConfig, table *Table, opts ...server.Option) (*server.Server, error) {
	return server.New(cfg, table, opts...)
}

// NewWatcher creates a watcher. Run blocks until the context is canceled,
// or for one cycle when cfg.Once is set.
func NewWatcher(cfg WatcherConfig, opts ...watcher.Option) (*watcher.Watcher, error) {
	return watcher.New(cfg, opts...)
}

// DefaultWatcherConfig returns a WatcherConfig with default values.
// At minimum, set Sources and Addr before calling NewWatcher.
func DefaultWatcherConfig() WatcherConfig {
	return watcher.DefaultConfig()
}

// DefaultTable returns the built-in instrument routing table.
func DefaultTable() *Table {
	return routing.DefaultTable()
}

// NewTable builds a routing table from custom routes and group IDs.
func NewTable(routes []Route, groups []string) (*Table, error) {
	return routing.NewTable(routes, groups)
}

// DefaultDataRoot is where the server writes unless configured otherwise.
const DefaultDataRoot = server.DefaultDataRoot
