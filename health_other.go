//go:build !unix

package main

func maxResidentSetSize() uint64 {
	// Not available without getrusage
	return 0
}
