//go:build unix

package main

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// maxResidentSetSize reports the peak RSS of the process in bytes.
func maxResidentSetSize() uint64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	// darwin reports bytes, everything else kilobytes
	if runtime.GOOS == "darwin" || runtime.GOOS == "ios" {
		return uint64(ru.Maxrss)
	}
	return uint64(ru.Maxrss) * 1024
}
