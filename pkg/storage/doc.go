// Package storage writes files atomically.
//
// WriteAtomic backs both media downloads and the session cache. Manager adds
// an output directory and overwrite policy on top for downloaded media.
package storage
