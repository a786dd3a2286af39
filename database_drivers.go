//go:build !test

// Registers every SQL backend. Building with -tags test leaves the drivers
// out of the binary.
package main

import "radiography-shield/pkg/database/drivers"

func init() {
	drivers.Ready()
}
