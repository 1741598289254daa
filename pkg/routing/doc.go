// Package routing maps instrument data filenames to destination directories.
//
// A [Table] is an ordered list of type tags (each with a destination
// sub-path) and an ordered list of lab group ids. It is built once at
// startup and never modified, so a single *Table is shared by every server
// worker without locking.
//
// [Router.Resolve] selects the first type tag, in table order, that occurs
// anywhere in the filename (case-insensitive), then the first group id that
// occurs in the filename. Filenames carrying several tags resolve by table
// order, not by position or length; existing instrument exports rely on
// this.
package routing
