// Package converter locates the pandoc executable, reads what it reports
// about itself and runs it as a chain of subprocesses.
//
// Nothing here knows about dependencies. The scanner builds a Pipeline from
// a split command line and reads the JSON tree the last stage writes.
package converter
