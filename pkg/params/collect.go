package params

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// Values returns a copy of the values of tensor i.
func (s *Store) Values(i int) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valuesLocked(i)
}

// Find returns the index of the first tensor with the given uid.
func (s *Store) Find(uid string) (int, bool) {
	if s == nil {
		return -1, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := 0; i < s.count && !s.released; i++ {
		t, err := s.tensor(i)
		if err != nil {
			return -1, false
		}
		if tensorUID(&t) == uid {
			return i, true
		}
	}
	return -1, false
}

// Tensors copies every tensor out of the buffer, keyed by uid. When two
// tensors share a uid the later one wins.
func (s *Store) Tensors() (map[string][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.released {
		return nil, ErrReleased
	}
	out := make(map[string][]float32, s.count)
	for i := 0; i < s.count; i++ {
		t, err := s.tensor(i)
		if err != nil {
			return nil, err
		}
		vals, err := s.valuesLocked(i)
		if err != nil {
			return nil, err
		}
		out[tensorUID(&t)] = vals
	}
	return out, nil
}

// ReadParams opens the parameter file at path and returns all tensors
// keyed by uid. The buffer is released before returning.
func ReadParams(path string, opts Options) (map[string][]float32, error) {
	s, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	out, err := s.Tensors()
	if cerr := s.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("release %s: %w", path, cerr)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) valuesLocked(i int) ([]float32, error) {
	t, err := s.tensor(i)
	if err != nil {
		return nil, err
	}
	n := tensorValuesLen(&t)
	out := make([]float32, n)
	if n == 0 {
		return out, nil
	}
	a := t.Vector(flatbuffers.UOffsetT(t.Offset(tensorValuesField)))
	for j := range out {
		out[j] = t.GetFloat32(a + flatbuffers.UOffsetT(j)*flatbuffers.SizeFloat32)
	}
	return out, nil
}
