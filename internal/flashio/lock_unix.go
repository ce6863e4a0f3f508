//go:build unix

package flashio

import (
	"golang.org/x/sys/unix"
)

type fileLock struct {
	fd int
}

func lockFile(f interface{ Fd() uintptr }) (*fileLock, error) {
	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return nil, err
	}
	return &fileLock{fd: fd}, nil
}

func (l *fileLock) unlock() {
	if l == nil {
		return
	}
	_ = unix.Flock(l.fd, unix.LOCK_UN)
}
