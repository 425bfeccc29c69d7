package ui

import "time"

// Layout sizes in terminal cells.
const (
	// chromeLines is every line that is not a record row: header, command
	// bar, column header, the two edge rows and the footer.
	chromeLines = 6

	// timeColumnWidth fits "2006-01-02 15:04:05.000".
	timeColumnWidth = 23

	// minColumnWidth is the narrowest a field column is squeezed to.
	minColumnWidth = 8

	// overlayWidth is the width of help and picker overlays.
	overlayWidth = 64
)

// Timing constants.
const (
	// DefaultUIInterval is the default snapshot refresh interval.
	DefaultUIInterval = 250 * time.Millisecond

	// viewIOTimeout bounds saved view reads and writes.
	viewIOTimeout = 2 * time.Second
)

const timeLayout = "2006-01-02 15:04:05.000"
