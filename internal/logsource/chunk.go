package logsource

import (
	"slices"

	"github.com/five82/scout/internal/dataaccess"
)

// Slice picks the chunk req asks for out of records, which must already be
// matched and sorted ascending by cursor.
func Slice(records []dataaccess.Record, req dataaccess.FetchRequest) dataaccess.FetchResult {
	size := req.Size
	if size <= 0 {
		size = dataaccess.DefaultChunkSize
	}
	cmp := func(r dataaccess.Record, c dataaccess.Cursor) int { return r.Cursor.Compare(c) }
	// lower: first record >= anchor. upper: first record > anchor.
	lower, found := slices.BinarySearchFunc(records, req.Anchor, cmp)
	upper := lower
	if found {
		upper++
	}

	var lo, hi int
	switch req.Direction {
	case dataaccess.Before:
		lo, hi = max(0, lower-size), lower
	case dataaccess.After:
		lo, hi = upper, min(len(records), upper+size)
	default:
		lo, hi = max(0, upper-size), min(len(records), upper+size)
	}

	out := dataaccess.FetchResult{
		Records:  slices.Clone(records[lo:hi]),
		Boundary: req.Anchor,
	}
	if len(out.Records) > 0 {
		switch req.Direction {
		case dataaccess.Before:
			out.Boundary = out.Records[0].Cursor
		case dataaccess.After:
			out.Boundary = out.Records[len(out.Records)-1].Cursor
		}
	}
	return out
}
