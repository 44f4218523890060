package params

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestOpenMappedAndUnmapped(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "params.bin", buildParams(scenarioTensors(), ""))

	for _, noMmap := range []bool{false, true} {
		s, err := Open(path, Options{NoMmap: noMmap})
		if err != nil {
			t.Fatalf("open (no-mmap=%v): %v", noMmap, err)
		}
		if noMmap && s.Mapped() {
			t.Fatalf("NoMmap store reports a mapping")
		}
		if uid, err := s.TensorUID(0); err != nil || uid != "w0" {
			t.Fatalf("uid (no-mmap=%v): got %q, %v", noMmap, uid, err)
		}
		if v, err := s.TensorValueAt(0, 1); err != nil || v != 2.5 {
			t.Fatalf("value (no-mmap=%v): got %v, %v", noMmap, v, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("close (no-mmap=%v): %v", noMmap, err)
		}
		if _, err := s.TensorsCount(); !errors.Is(err, ErrReleased) {
			t.Fatalf("count after close (no-mmap=%v): got %v", noMmap, err)
		}
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "missing.bin"), Options{}); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file: got %v want fs.ErrNotExist", err)
	}

	empty := writeTempFile(t, "empty.bin", nil)
	if _, err := Open(empty, Options{}); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("empty file: got %v want ErrEmptyInput", err)
	}

	buf := buildParams(scenarioTensors(), "")
	short := writeTempFile(t, "short.bin", buf[:len(buf)-3])
	if _, err := Open(short, Options{}); !errors.Is(err, ErrTruncatedBuffer) {
		t.Fatalf("short file: got %v want ErrTruncatedBuffer", err)
	}
}

func TestOpenReaderAt(t *testing.T) {
	t.Parallel()

	buf := buildParams(scenarioTensors(), "")
	s, err := OpenReaderAt(bytes.NewReader(buf), int64(len(buf)), Options{})
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer func() { _ = s.Close() }()
	if n, err := s.TensorsCount(); err != nil || n != 2 {
		t.Fatalf("count: got %d, %v", n, err)
	}

	// Claiming more bytes than the reader holds is a truncated buffer.
	if _, err := OpenReaderAt(bytes.NewReader(buf), int64(len(buf))+16, Options{}); !errors.Is(err, ErrTruncatedBuffer) {
		t.Fatalf("oversized reader: got %v want ErrTruncatedBuffer", err)
	}
	if _, err := OpenReaderAt(bytes.NewReader(nil), 0, Options{}); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("empty reader: got %v want ErrEmptyInput", err)
	}
}

func TestReadParams(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "params.bin", buildParams([]testTensor{
		{uid: "w0", values: []float32{1, 2.5}},
		{uid: "b0", values: []float32{}},
		{uid: "w1", values: []float32{-3}},
	}, ""))

	got, err := ReadParams(path, Options{})
	if err != nil {
		t.Fatalf("read params: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("tensors: got %d want 3", len(got))
	}
	if w0 := got["w0"]; len(w0) != 2 || w0[0] != 1 || w0[1] != 2.5 {
		t.Fatalf("w0: got %v", w0)
	}
	if b0, ok := got["b0"]; !ok || len(b0) != 0 {
		t.Fatalf("b0: got %v, %v", b0, ok)
	}
	if w1 := got["w1"]; len(w1) != 1 || w1[0] != -3 {
		t.Fatalf("w1: got %v", w1)
	}
}
