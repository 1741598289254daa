package labship_test

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/afero"

	"github.com/bft-labs/labship"
	"github.com/bft-labs/labship/pkg/server"
	"github.com/bft-labs/labship/pkg/watcher"
)

// Example ships one Glomax export from a watcher to a server, both on
// in-memory filesystems.
func Example() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Server side
	serverFs := afero.NewMemMapFs()
	srv, err := labship.NewServer(labship.ServerConfig{DataRoot: "/data"}, labship.DefaultTable(), server.WithFs(serverFs))
	if err != nil {
		fmt.Printf("failed to create server: %v\n", err)
		return
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Printf("failed to listen: %v\n", err)
		return
	}
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, ln)
		close(done)
	}()

	// Instrument PC side
	labFs := afero.NewMemMapFs()
	_ = labFs.MkdirAll("/lab/Glomax", 0o755)
	_ = afero.WriteFile(labFs, "/lab/Glomax/Plate7_GLMXC_NGS.csv", []byte("well,rlu\nA1,1200\n"), 0o644)

	cfg := labship.DefaultWatcherConfig()
	cfg.Sources = []string{"/lab/Glomax"}
	cfg.Addr = ln.Addr().String()
	cfg.FlushDelay = 10 * time.Millisecond
	cfg.Once = true

	w, err := labship.NewWatcher(cfg, watcher.WithFs(labFs))
	if err != nil {
		fmt.Printf("failed to create watcher: %v\n", err)
		return
	}
	if err := w.Run(ctx); err != nil {
		fmt.Printf("watcher failed: %v\n", err)
		return
	}

	got, _ := afero.ReadFile(serverFs, "/data/NGS/Concentrations/Glomax/Plate7_GLMXC_NGS.csv")
	fmt.Printf("%s", got)

	left, _ := afero.Glob(labFs, "/lab/Glomax/*.csv")
	archived, _ := afero.Glob(labFs, "/lab/Glomax/Archives/*.csv")
	fmt.Printf("pending %d, archived %d\n", len(left), len(archived))

	cancel()
	<-done

	// Output:
	// well,rlu
	// A1,1200
	// pending 0, archived 1
}
