// Package game holds the value types the wire codecs serialize.
//
// Ownership boundary:
// - map positions
// - item types, item instances and the fluid color table
//
// Behavior of creatures, containers and items lives elsewhere; this package
// only describes what goes on the wire.
package game
