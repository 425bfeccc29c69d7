// Package logtail reads the tail of line-oriented log files.
//
// # Overview
//
// The file data source serves records from a JSON-lines log that may keep
// growing while scout runs. It needs two things from the file system: the
// last N lines, and a cheap way to tell whether the file changed since the
// last read. This package provides both and nothing else; parsing lines
// into records is the caller's job.
//
// # Reading
//
// Read scans the file once from the start and keeps a ring buffer of the
// last maxLines non-blank lines:
//
//	file:  1 2 3 4 5 6 7 8 9      (maxLines = 4)
//	ring:  [6 7 8 9]  →  returned oldest first
//
// Memory stays bounded by maxLines rather than file size. A maxLines of
// zero or less returns every line. Blank lines are skipped but still
// counted, so Line.No always matches the line number an editor would show
// and log messages about a bad line point at the right place.
//
// Lines longer than 1 MiB fail the read with the scanner's error rather
// than being split silently.
//
// # Change Detection
//
// Stat returns a Version made of size and modification time:
//
//	v, _ := logtail.Stat(path)
//	if v == cached {
//		return records // nothing appended or rewritten
//	}
//	lines, err := logtail.Read(path, maxLines)
//
// Appends grow the size; rewrites in place move the modification time.
// Comparing the two is enough for a log written by one process, and costs
// a single stat call per fetch instead of a re-read.
//
// # Missing Files
//
// A file that does not exist yet is not an error. Stat returns the zero
// Version and Read returns no lines, so a source pointed at a log that is
// created later starts empty and fills in on the next refresh.
//
// # Error Handling
//
// Errors other than a missing file are wrapped with the operation that
// failed ("open log", "read log", "stat log") and returned to the caller,
// which reports them as a failed fetch.
package logtail
