// Package protocol owns the game wire buffer and its codecs.
//
// Ownership boundary:
// - the fixed-capacity Message with its cursor and declared length
// - bounds guards and the framing header
// - primitive, string, fixed-point, raw and padding codecs
// - position and item structure codecs
//
// Every accessor is bounds checked. A failed access never touches memory
// outside the buffer; it is reported through the returned error and the
// message's sticky Err.
package protocol
