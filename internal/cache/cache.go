// Package cache implements the on-disk ParseIndex cache of spec.md §4.M:
// a versioned binary file next to (or beside) the source CSV, holding a
// compressed ParseIndex so a repeat parse of an unchanged file can skip
// the scan entirely.
//
// Grounded on entreya-csvquery's internal/common/cidx.go: the magic-header
// + lz4-compressed-payload shape and the offset-tracking writer pattern
// are kept; cidx.go's per-block sparse index (built for range-querying a
// sorted key) is replaced with a single whole-ParseIndex payload, since
// this cache's unit of reuse is "the whole file's index", not a queryable
// key range. github.com/google/uuid names the temporary file so
// concurrent cache writers for the same source never collide before the
// atomic rename.
package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"

	"github.com/shapestone/vroom/internal/parseindex"
)

// MagicVROOMIDX identifies a cache file produced by this package.
const MagicVROOMIDX = "VRMX"

// FormatVersion is bumped whenever the header or payload layout changes
// incompatibly; Load refuses to read a mismatched version rather than
// guess at a layout.
const FormatVersion uint32 = 1

// ErrCorrupt is returned (and the cache file removed) when a cache file's
// magic, version, or declared lengths don't check out.
var ErrCorrupt = errors.New("cache: index file is corrupt")

// ErrStale is returned by Load when the cache's recorded source
// size/mtime no longer matches the source file on disk.
var ErrStale = errors.New("cache: index is stale relative to its source")

// header is the fixed-size binary preamble, little-endian throughout.
type header struct {
	Magic          [4]byte
	FormatVersion  uint32
	SourceModTime  int64 // Unix nanoseconds
	SourceSize     int64
	Layout         uint8
	NThreads       uint32
	Columns        uint32
	PositionsCount uint64
	PayloadLength  uint64 // length of the lz4-compressed payload that follows
}

const headerSize = 4 + 4 + 8 + 8 + 1 + 4 + 4 + 8 + 8

// PathFor returns the conventional cache file path for a source file:
// sourcePath with ".vroomidx" appended, living alongside the source
// (spec.md §4.M's default cache location; callers needing a different
// location, e.g. a read-only source directory, can pass any path to
// Save/Load directly instead of using PathFor).
func PathFor(sourcePath string) string {
	return sourcePath + ".vroomidx"
}

// Save writes idx to cachePath, atomically: the payload is written to a
// uuid-named temp file in the same directory, then renamed into place, so
// a reader never observes a partially written cache file and concurrent
// writers for the same source never corrupt each other's output.
func Save(cachePath string, sourceModTime int64, sourceSize int64, idx *parseindex.ParseIndex) (err error) {
	if idx.Layout == parseindex.LayoutInterleaved {
		return fmt.Errorf("cache: refusing to persist an interleaved (not yet compacted) index")
	}

	var raw bytes.Buffer
	if err := writePositions(&raw, idx.Positions); err != nil {
		return err
	}

	var compressed bytes.Buffer
	lw := lz4.NewWriter(&compressed)
	if _, err := lw.Write(raw.Bytes()); err != nil {
		return err
	}
	if err := lw.Close(); err != nil {
		return err
	}

	h := header{
		FormatVersion:  FormatVersion,
		SourceModTime:  sourceModTime,
		SourceSize:     sourceSize,
		Layout:         uint8(idx.Layout),
		NThreads:       uint32(idx.NThreads),
		Columns:        uint32(idx.Columns),
		PositionsCount: uint64(len(idx.Positions)),
		PayloadLength:  uint64(compressed.Len()),
	}
	copy(h.Magic[:], MagicVROOMIDX)

	dir := filepath.Dir(cachePath)
	tmpName := filepath.Join(dir, ".vroomidx-"+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if err = writeHeader(f, h); err != nil {
		f.Close()
		return err
	}
	if _, err = f.Write(compressed.Bytes()); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, cachePath); err != nil {
		return fmt.Errorf("cache: rename into place: %w", err)
	}
	return nil
}

// Load reads a ParseIndex from cachePath. If sourceModTime/sourceSize no
// longer match what the cache recorded, Load returns ErrStale and deletes
// nothing (the caller may still choose to keep the stale file around, or
// call Discard). A structurally corrupt file is removed before ErrCorrupt
// is returned, since a corrupt cache is never going to become valid and
// leaving it in place would make every subsequent parse pay the
// read-then-fail cost again.
func Load(cachePath string, sourceModTime int64, sourceSize int64) (*parseindex.ParseIndex, error) {
	f, err := os.Open(cachePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := readHeader(f)
	if err != nil {
		Discard(cachePath)
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if h.SourceModTime != sourceModTime || h.SourceSize != sourceSize {
		return nil, ErrStale
	}

	compressed := make([]byte, h.PayloadLength)
	if _, err := io.ReadFull(f, compressed); err != nil {
		Discard(cachePath)
		return nil, fmt.Errorf("%w: reading payload: %v", ErrCorrupt, err)
	}

	raw := make([]byte, 0, h.PositionsCount*4)
	rawBuf := bytes.NewBuffer(raw)
	lr := lz4.NewReader(bytes.NewReader(compressed))
	if _, err := io.Copy(rawBuf, lr); err != nil {
		Discard(cachePath)
		return nil, fmt.Errorf("%w: decompressing payload: %v", ErrCorrupt, err)
	}

	positions, err := readPositions(rawBuf.Bytes(), int(h.PositionsCount))
	if err != nil {
		Discard(cachePath)
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	idx := &parseindex.ParseIndex{
		Positions: positions,
		NThreads:  int(h.NThreads),
		Columns:   int(h.Columns),
		Layout:    parseindex.Layout(h.Layout),
	}
	return idx, nil
}

// Discard removes a cache file, ignoring a not-exist error (discarding an
// already-gone cache is not a failure).
func Discard(cachePath string) error {
	err := os.Remove(cachePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func writeHeader(w io.Writer, h header) error {
	return binary.Write(w, binary.LittleEndian, h)
}

func readHeader(r io.Reader) (header, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return header{}, err
	}
	if string(h.Magic[:]) != MagicVROOMIDX {
		return header{}, fmt.Errorf("bad magic %q", h.Magic[:])
	}
	if h.FormatVersion != FormatVersion {
		return header{}, fmt.Errorf("unsupported format version %d", h.FormatVersion)
	}
	return h, nil
}

func writePositions(w io.Writer, positions []int32) error {
	buf := make([]byte, 4*len(positions))
	for i, p := range positions {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(p))
	}
	_, err := w.Write(buf)
	return err
}

func readPositions(raw []byte, count int) ([]int32, error) {
	if len(raw) < count*4 {
		return nil, fmt.Errorf("payload too short: have %d bytes, want %d", len(raw), count*4)
	}
	positions := make([]int32, count)
	for i := 0; i < count; i++ {
		positions[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return positions, nil
}
