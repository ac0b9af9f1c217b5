//go:build !unix

package mmapreader

import (
	"fmt"
	"os"
)

// Open reads filename fully into memory on platforms without a unix mmap,
// keeping the same API shape as the unix build.
func Open(filename string) (*Mapping, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("mmapreader: open: %w", err)
	}
	defer f.Close()

	modTime, size, err := statFile(f)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("mmapreader: read: %w", err)
	}

	return &Mapping{
		Data:    data,
		ModTime: modTime,
		Size:    size,
		close:   func() error { return nil },
	}, nil
}
