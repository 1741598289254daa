// Package state persists the watcher's rejection ledger across restarts.
//
// A file the server answers with ERROR is retried on later cycles until its
// rejection count reaches the configured limit, after which it is moved to
// the dead-letter directory. The counts live in a small JSON file so a
// restart neither forgets a file's history nor dead-letters it early.
//
//	repo := state.NewFileRepository(fs, "/var/lib/labship")
//	s, err := repo.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	n := s.Reject(path, time.Now())
//	if err := repo.Save(ctx, s); err != nil {
//	    return err
//	}
package state
