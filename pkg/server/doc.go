// Package server is the receiving end of labship.
//
// A Server accepts TCP connections and runs one session per connection in
// its own goroutine. Each session routes the announced filename through a
// shared, immutable routing table and writes the content below the data
// root. A failing session closes only its own connection; the accept loop
// keeps listening until its context is canceled.
//
//	table := routing.DefaultTable()
//	srv, err := server.New(server.Config{ListenAddr: ":5005", DataRoot: "/data"}, table,
//	    server.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	return srv.ListenAndServe(ctx)
package server
