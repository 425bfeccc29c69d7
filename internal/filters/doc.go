// Package filters models query filters and their equality rules.
//
// A Filter pairs a query body (match_phrase, exists, range) with metadata
// flags: negate, disabled, alias, owning data view and owning store. The
// metadata also carries display hints (key, value, params) which are
// derived from the body and ignored when comparing.
//
// # Equality
//
// CompareFilters treats a filter list as a multiset: order does not
// matter, duplicates do. Which flags participate is chosen through
// CompareOptions; CompareAllOptions is what state equality uses. A nil
// list and an empty list compare equal.
//
// # Stores
//
// Filters whose $state.store is "globalState" are pinned. Pinned filters
// are synced under the global URL key and survive switching views; app
// filters are synced under the app key. Split separates the two.
package filters
