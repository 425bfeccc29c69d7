// Package urlstate stores named state slices in the hash query of an href.
//
// # Format
//
// State lives in the query part of the hash fragment, one key per slice:
//
//	/#?_g=(time:(from:now-15m,to:now))&_a=(index:logs,columns:!(message))
//
// Values are rison text. The query is escaped the way browsers escape
// query values, except that rison's delimiters ( ) : , ' ! * and the
// characters @ $ ; stay literal so links remain readable. Spaces are
// written as %20.
//
// Keys that already exist keep their position when rewritten. New keys
// are placed by rank (the global key before the app key by default) so the
// same state always produces the same href.
//
// # Reading
//
// Get and Raw read the location as it will be once pending writes are
// committed. A missing key, undecodable escaping, malformed rison, and an
// unknown hash reference are all reported as absent. Nothing here returns
// an error for bad input found in a URL.
//
// # Writing
//
// Set commits immediately. Inside Batch, writes are held and committed
// together; the batch replaces the current history entry only when every
// write in it asked for Replace. Flush commits whatever is pending and
// Cancel drops it.
//
// # Hashed mode
//
// WithHashStore swaps each encoded value for a short h@ reference and keeps
// the text in the store. References that cannot be resolved read as
// absent.
//
// # Change notification
//
// OnChange listeners run after navigation that changes their key's
// resolved value, including removal. Commits made by the storage itself
// never notify. Binding wraps a key with decoding into a concrete type.
package urlstate
