// Package lifecycle provides the start/stop state machine, retry backoff
// and clock shared by the labship server and watcher.
//
// # Usage
//
//	manager := lifecycle.NewManager(logger, nil)
//	if err := manager.TransitionTo(lifecycle.StateStarting, "start"); err != nil {
//	    return err
//	}
//	manager.Go(func() { serveConn(conn) })
//	...
//	if err := manager.WaitWithTimeout(lifecycle.ShutdownTimeout); err != nil {
//	    return err
//	}
//
// # State Machine
//
// Valid state transitions:
//   - Stopped -> Starting
//   - Starting -> Running, Stopping, Crashed
//   - Running -> Stopping, Crashed
//   - Stopping -> Stopped, Crashed
//   - Crashed -> Starting
//
// # Time
//
// Every wait in the server and watcher goes through a [Clock] so tests can
// drive poll cycles and backoff deterministically with [NewFakeClock].
package lifecycle
