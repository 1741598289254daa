// Package domain contains the core entities and error taxonomy for labship.
//
// This package is the innermost layer. It has no dependencies on
// infrastructure concerns (sockets, file systems, logging) and holds only
// the values passed between the watcher, the transfer protocol and the
// file server.
//
// # Entities
//
//   - [SourceFile]: an instrument data file discovered in a watched directory
//   - [ArchiveRecord]: the outcome of relocating a source file after transfer
//   - [Destination]: where the server writes a routed file
//
// # Errors
//
// Transfer failures are reported as [*TransferError] values carrying a
// [Kind]. Callers branch on the kind with errors.Is against [ErrConnection],
// [ErrRouting], [ErrIO] and [ErrProtocol], or ask [IsRetryable].
package domain
