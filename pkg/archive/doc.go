// Package archive relocates shipped and dead-lettered source files.
//
// A relocation copies the file next to its source directory, verifies the
// copy by size and BLAKE3 digest, and only then removes the source. Any
// failure leaves the source in place and removes a partial copy, so a file
// is never lost between the instrument PC and the archive.
package archive
