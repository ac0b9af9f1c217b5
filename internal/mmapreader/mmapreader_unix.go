//go:build unix

package mmapreader

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Open memory-maps filename read-only. An empty file is reported as an
// empty mapping with a close that just closes the descriptor, since
// unix.Mmap rejects zero-length mappings.
func Open(filename string) (*Mapping, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("mmapreader: open: %w", err)
	}

	modTime, size, err := statFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if size == 0 {
		return &Mapping{
			Data:    []byte{},
			ModTime: modTime,
			Size:    0,
			close:   f.Close,
		}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmapreader: mmap: %w", err)
	}

	return &Mapping{
		Data:    data,
		ModTime: modTime,
		Size:    size,
		close: func() error {
			munmapErr := unix.Munmap(data)
			closeErr := f.Close()
			if munmapErr != nil {
				return munmapErr
			}
			return closeErr
		},
	}, nil
}
