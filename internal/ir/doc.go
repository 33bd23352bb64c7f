// Package ir holds the value types shared by every obstore package:
// field values, items, change records, canonical JSON and digests.
//
// ir imports nothing internal. Every other package may import it.
//
// Key constraints:
//   - integral numbers that fit int64 are IRInt, other numbers IRFloat
//   - NaN and infinities are never field values
//   - Item.Index is store metadata, kept apart from the caller's Fields
//   - JSON tags use snake_case
package ir
