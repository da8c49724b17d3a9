// Package fieldpath reads and writes form values addressed by field names such
// as "customer.name" or "item[2].price". Dots separate object keys and
// brackets hold list indices; both spellings may be mixed freely.
//
// Writes are copy-on-write: Set never mutates the map it receives, so value
// snapshots handed to subscribers stay stable after later changes.
package fieldpath
