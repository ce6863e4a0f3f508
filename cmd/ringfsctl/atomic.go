package main

import (
	"bytes"

	"github.com/natefinch/atomic"
)

// atomicWriteFile writes data to path via a temp-file-plus-rename, the same
// discipline lock.go and cache_binary.go use for every config and cache
// write in the ticket tool: a crash mid-write leaves the old file intact
// instead of a truncated one.
func atomicWriteFile(path string, data []byte) error {
	return atomic.WriteFile(path, bytes.NewReader(data))
}
