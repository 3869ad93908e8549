// Package canon produces canonical JSON and content hashes for program
// state and messages.
//
// Two states that are equal as JSON values hash identically regardless of
// map iteration order, HTML escaping or Unicode normalization form. Replay
// relies on this to compare a refolded state with a stored snapshot.
//
// Canonical form follows RFC 8785:
//   - object keys sorted by UTF-16 code units
//   - no insignificant whitespace
//   - no HTML escaping, U+2028 and U+2029 emitted literally
//   - strings NFC normalized
//
// Numbers must be finite. Integers are written verbatim; other numbers use
// the shortest representation that round-trips.
package canon
