// Package ir holds the portable representation of list contents: the
// payload value model, item and snapshot records, canonical JSON and the
// hashes derived from it.
//
// ir imports nothing internal. Constraints:
//   - no float types in payloads; order keys travel as decimal strings
//   - all JSON tags use snake_case
//   - canonical JSON (RFC 8785) is the only input to hashes
package ir
