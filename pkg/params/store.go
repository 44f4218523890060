package params

import (
	"fmt"
	"sync"

	flatbuffers "github.com/google/flatbuffers/go"
	"golang.org/x/sys/unix"
)

// Store owns a validated parameter buffer and answers queries against it.
//
// A Store is safe for concurrent use. Queries share a read lock; Close
// waits for in-flight queries, releases the buffer, and makes every later
// query fail with ErrReleased.
type Store struct {
	mu       sync.RWMutex
	data     []byte
	root     flatbuffers.Table
	count    int
	mapped   bool
	released bool
}

// Load copies data into a new Store after validating its structure.
func Load(data []byte) (*Store, error) {
	return LoadOptions(data, Options{})
}

// LoadOptions is Load with explicit options.
func LoadOptions(data []byte, opts Options) (*Store, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	owned := make([]byte, len(data))
	copy(owned, data)
	return newStore(owned, false, opts)
}

// newStore takes ownership of data. On error the caller still owns it.
func newStore(data []byte, mapped bool, opts Options) (*Store, error) {
	l, err := verifyBuffer(data, opts)
	if err != nil {
		return nil, err
	}
	return &Store{
		data:   data,
		root:   flatbuffers.Table{Bytes: data, Pos: l.root},
		count:  l.tensors,
		mapped: mapped,
	}, nil
}

// Close releases the buffer and any mapping backing it. It is safe to
// call more than once.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}

	var err error
	if s.mapped && s.data != nil {
		err = unix.Munmap(s.data)
	}
	s.data = nil
	s.root = flatbuffers.Table{}
	s.count = 0
	s.mapped = false
	s.released = true
	return err
}

// TensorsCount returns the number of tensors in the buffer.
func (s *Store) TensorsCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.released {
		return 0, ErrReleased
	}
	return s.count, nil
}

// TensorUID returns the identifier of tensor i. The string is a copy and
// stays valid after Close.
func (s *Store) TensorUID(i int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.tensor(i)
	if err != nil {
		return "", err
	}
	return tensorUID(&t), nil
}

// TensorValuesCount returns the number of values held by tensor i.
func (s *Store) TensorValuesCount(i int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.tensor(i)
	if err != nil {
		return 0, err
	}
	return tensorValuesLen(&t), nil
}

// TensorValueAt returns value j of tensor i.
func (s *Store) TensorValueAt(i, j int) (float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.tensor(i)
	if err != nil {
		return 0, err
	}
	n := tensorValuesLen(&t)
	if j < 0 || j >= n {
		return 0, fmt.Errorf("%w: value %d of tensor %d (has %d)", ErrIndexOutOfRange, j, i, n)
	}
	o := flatbuffers.UOffsetT(t.Offset(tensorValuesField))
	a := t.Vector(o)
	return t.GetFloat32(a + flatbuffers.UOffsetT(j)*flatbuffers.SizeFloat32), nil
}

// Size returns the length of the loaded buffer in bytes, or 0 once closed.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Mapped reports whether the buffer is backed by a memory mapping.
func (s *Store) Mapped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapped
}

// FileIdentifier returns the 4 bytes following the root offset when they
// lie before the root table, or "" if the buffer has no room for them.
// Buffers written without an identifier may return arbitrary bytes.
func (s *Store) FileIdentifier() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	end := flatbuffers.SizeUOffsetT + IdentifierSize
	if s.released || int(s.root.Pos) < end {
		return ""
	}
	return string(s.data[flatbuffers.SizeUOffsetT:end])
}

// tensor returns the table view of tensor i. Callers must hold s.mu.
func (s *Store) tensor(i int) (flatbuffers.Table, error) {
	if s.released {
		return flatbuffers.Table{}, ErrReleased
	}
	if i < 0 || i >= s.count {
		return flatbuffers.Table{}, fmt.Errorf("%w: tensor %d (have %d)", ErrIndexOutOfRange, i, s.count)
	}
	root := s.root
	o := flatbuffers.UOffsetT(root.Offset(paramsTensorsField))
	x := root.Vector(o) + flatbuffers.UOffsetT(i)*flatbuffers.SizeUOffsetT
	return flatbuffers.Table{Bytes: s.data, Pos: root.Indirect(x)}, nil
}

func tensorUID(t *flatbuffers.Table) string {
	o := flatbuffers.UOffsetT(t.Offset(tensorUIDField))
	if o == 0 {
		return ""
	}
	// ByteVector aliases the buffer; converting copies it out.
	return string(t.ByteVector(o + t.Pos))
}

func tensorValuesLen(t *flatbuffers.Table) int {
	o := flatbuffers.UOffsetT(t.Offset(tensorValuesField))
	if o == 0 {
		return 0
	}
	return t.VectorLen(o)
}
