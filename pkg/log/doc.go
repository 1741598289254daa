// Package log provides the logging abstraction used by labship components.
//
// The server, watcher and archive manager log through the Logger interface
// so that a deployment can route messages to its own sink. A zerolog
// adapter is the default; NoopLogger discards everything and is used in
// tests.
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	logger.With(log.String("component", "server")).Info("listening")
package log
