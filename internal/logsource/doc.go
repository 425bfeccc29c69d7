// Package logsource provides the data sources behind the record window.
//
// # Sources
//
//   - FileSource reads a JSON-lines file (one object per line, timestamp in
//     "@timestamp" by default) and evaluates filters and queries locally.
//   - Client fetches the same chunks from an HTTP API at GET /api/chunks.
//   - Handler serves any source over that API, so one scout instance can
//     publish a log file for others.
//
// All three implement dataaccess.Fetcher.
//
// # Matching
//
// Enabled filters are applied with their negate flag. Supported filter
// bodies are match_phrase, exists and range. Queries are either plain text
// (whitespace-separated terms, each a substring of some field, or
// "field:value") or expr-lang expressions evaluated against the record's
// fields, with field("a.b") for dotted names and _time for the timestamp.
//
// # Chunks
//
// Slice implements the chunk contract: before and after are strict, around
// includes the anchor on its older side, and records are always returned
// in ascending cursor order.
package logsource
