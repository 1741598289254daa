// Package watcher ships instrument files from watched directories to a
// labship server.
//
// Each cycle lists the eligible files of every source directory in name
// order and transfers them one at a time, each over a fresh connection. A
// file is archived only after the server acknowledged its content. Files the
// server cannot route are retried on later cycles and dead-lettered once
// they were refused MaxRejections times. Connection and protocol failures
// leave the file in place and back off before the next file.
package watcher
