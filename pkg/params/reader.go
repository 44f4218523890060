package params

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Open maps a parameter file read-only and validates its structure.
// If mmap is unavailable or disabled, it falls back to ReadAt-based loading.
// The returned store must be closed to release any mapping.
func Open(path string, opts Options) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size, err := checkSize(stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if !opts.NoMmap {
		data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			s, verr := newStore(data, true, opts)
			if verr != nil {
				_ = unix.Munmap(data)
				return nil, fmt.Errorf("%s: %w", path, verr)
			}
			return s, nil
		}
	}

	data, err := readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	s, err := newStore(data, false, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// OpenReaderAt loads and validates a parameter buffer from a random-access
// reader without mmap.
func OpenReaderAt(r io.ReaderAt, size int64, opts Options) (*Store, error) {
	n, err := checkSize(size)
	if err != nil {
		return nil, err
	}
	data, err := readAllAt(r, n)
	if err != nil {
		return nil, err
	}
	return newStore(data, false, opts)
}

func checkSize(size int64) (int, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: negative size %d", ErrTruncatedBuffer, size)
	}
	if size == 0 {
		return 0, ErrEmptyInput
	}
	if size > int64(int(^uint(0)>>1)) {
		// cannot index this buffer as []byte on this architecture.
		return 0, fmt.Errorf("%w: %d bytes exceeds addressable size", ErrMalformedRoot, size)
	}
	return int(size), nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		if err == io.EOF {
			return nil, fmt.Errorf("%w: read %d of %d bytes", ErrTruncatedBuffer, off, size)
		}
		return nil, err
	}
	return out, nil
}
