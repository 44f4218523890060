package params

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// verifier checks the structure of a parameter buffer before any accessor
// is allowed to touch it. All arithmetic is done in uint64 so that 32-bit
// offsets read from the buffer cannot overflow.
type verifier struct {
	buf []byte
	n   uint64
}

type tableRef struct {
	pos     uint64
	vtable  uint64
	vtSize  uint64
	objSize uint64
}

// layout is the result of a successful verification.
type layout struct {
	root    flatbuffers.UOffsetT
	tensors int
}

func verifyBuffer(buf []byte, opts Options) (layout, error) {
	if len(buf) == 0 {
		return layout{}, ErrEmptyInput
	}
	v := &verifier{buf: buf, n: uint64(len(buf))}

	if !v.has(0, flatbuffers.SizeUOffsetT) {
		return layout{}, fmt.Errorf("%w: %d bytes cannot hold a root offset", ErrTruncatedBuffer, len(buf))
	}
	if opts.Identifier != "" {
		if len(opts.Identifier) != IdentifierSize {
			return layout{}, fmt.Errorf("%w: identifier %q is not %d bytes", ErrMalformedRoot, opts.Identifier, IdentifierSize)
		}
		if !v.has(flatbuffers.SizeUOffsetT, IdentifierSize) {
			return layout{}, fmt.Errorf("%w: buffer too short for file identifier", ErrTruncatedBuffer)
		}
		got := string(buf[flatbuffers.SizeUOffsetT : flatbuffers.SizeUOffsetT+IdentifierSize])
		if got != opts.Identifier {
			return layout{}, fmt.Errorf("%w: file identifier %q, want %q", ErrMalformedRoot, got, opts.Identifier)
		}
	}

	root := uint64(flatbuffers.GetUOffsetT(buf))
	if root < flatbuffers.SizeUOffsetT || !v.has(root, flatbuffers.SizeSOffsetT) {
		return layout{}, fmt.Errorf("%w: root offset %d outside %d byte buffer", ErrMalformedRoot, root, len(buf))
	}
	rt, err := v.table(root)
	if err != nil {
		return layout{}, fmt.Errorf("root table: %w", err)
	}

	fieldPos, ok, err := v.field(rt, paramsTensorsField)
	if err != nil {
		return layout{}, fmt.Errorf("root table: %w", err)
	}
	if !ok {
		return layout{root: flatbuffers.UOffsetT(root)}, nil
	}
	start, count, err := v.vector(fieldPos, flatbuffers.SizeUOffsetT)
	if err != nil {
		return layout{}, fmt.Errorf("tensors vector: %w", err)
	}

	for i := uint64(0); i < count; i++ {
		if err := v.tensor(start + i*flatbuffers.SizeUOffsetT); err != nil {
			return layout{}, fmt.Errorf("tensor %d: %w", i, err)
		}
	}

	return layout{
		root:    flatbuffers.UOffsetT(root),
		tensors: int(count),
	}, nil
}

// tensor checks the Tensor table referenced by the uoffset stored at elemPos.
func (v *verifier) tensor(elemPos uint64) error {
	pos, err := v.indirect(elemPos)
	if err != nil {
		return err
	}
	t, err := v.table(pos)
	if err != nil {
		return err
	}

	if uidPos, ok, err := v.field(t, tensorUIDField); err != nil {
		return err
	} else if ok {
		if _, _, err := v.vector(uidPos, 1); err != nil {
			return fmt.Errorf("uid: %w", err)
		}
	}

	if valuesPos, ok, err := v.field(t, tensorValuesField); err != nil {
		return err
	} else if ok {
		if _, _, err := v.vector(valuesPos, flatbuffers.SizeFloat32); err != nil {
			return fmt.Errorf("values: %w", err)
		}
	}
	return nil
}

func (v *verifier) has(off, size uint64) bool {
	return off <= v.n && size <= v.n-off
}

// indirect follows the uoffset stored at pos.
func (v *verifier) indirect(pos uint64) (uint64, error) {
	if !v.has(pos, flatbuffers.SizeUOffsetT) {
		return 0, fmt.Errorf("%w: offset at %d", ErrTruncatedBuffer, pos)
	}
	target := pos + uint64(flatbuffers.GetUOffsetT(v.buf[pos:]))
	if target >= v.n {
		return 0, fmt.Errorf("%w: offset at %d points to %d", ErrTruncatedBuffer, pos, target)
	}
	return target, nil
}

func (v *verifier) table(pos uint64) (tableRef, error) {
	if !v.has(pos, flatbuffers.SizeSOffsetT) {
		return tableRef{}, fmt.Errorf("%w: table at %d", ErrTruncatedBuffer, pos)
	}
	vt := int64(pos) - int64(flatbuffers.GetSOffsetT(v.buf[pos:]))
	if vt < 0 || !v.has(uint64(vt), 2*flatbuffers.SizeVOffsetT) {
		return tableRef{}, fmt.Errorf("%w: vtable at %d for table at %d", ErrTruncatedBuffer, vt, pos)
	}
	t := tableRef{
		pos:     pos,
		vtable:  uint64(vt),
		vtSize:  uint64(flatbuffers.GetVOffsetT(v.buf[vt:])),
		objSize: uint64(flatbuffers.GetVOffsetT(v.buf[vt+flatbuffers.SizeVOffsetT:])),
	}
	if t.vtSize < 2*flatbuffers.SizeVOffsetT || t.vtSize%flatbuffers.SizeVOffsetT != 0 {
		return tableRef{}, fmt.Errorf("%w: vtable at %d has size %d", ErrMalformedRoot, vt, t.vtSize)
	}
	if t.objSize < flatbuffers.SizeSOffsetT {
		return tableRef{}, fmt.Errorf("%w: table at %d has size %d", ErrMalformedRoot, pos, t.objSize)
	}
	if !v.has(t.vtable, t.vtSize) {
		return tableRef{}, fmt.Errorf("%w: vtable at %d needs %d bytes", ErrTruncatedBuffer, vt, t.vtSize)
	}
	if !v.has(pos, t.objSize) {
		return tableRef{}, fmt.Errorf("%w: table at %d needs %d bytes", ErrTruncatedBuffer, pos, t.objSize)
	}
	return t, nil
}

// field returns the absolute position of a uoffset field, or false if the
// field is absent from the table.
func (v *verifier) field(t tableRef, slot flatbuffers.VOffsetT) (uint64, bool, error) {
	if uint64(slot) >= t.vtSize {
		return 0, false, nil
	}
	off := uint64(flatbuffers.GetVOffsetT(v.buf[t.vtable+uint64(slot):]))
	if off == 0 {
		return 0, false, nil
	}
	if off+flatbuffers.SizeUOffsetT > t.objSize {
		return 0, false, fmt.Errorf("%w: field %d of table at %d lies outside the table", ErrMalformedRoot, slot, t.pos)
	}
	return t.pos + off, true, nil
}

// vector checks a length-prefixed vector (or string, with elemSize 1)
// referenced by the uoffset at fieldPos and returns its first element
// position and element count.
func (v *verifier) vector(fieldPos, elemSize uint64) (uint64, uint64, error) {
	pos, err := v.indirect(fieldPos)
	if err != nil {
		return 0, 0, err
	}
	if !v.has(pos, flatbuffers.SizeUOffsetT) {
		return 0, 0, fmt.Errorf("%w: length prefix at %d", ErrTruncatedBuffer, pos)
	}
	count := uint64(flatbuffers.GetUOffsetT(v.buf[pos:]))
	start := pos + flatbuffers.SizeUOffsetT
	if !v.has(start, count*elemSize) {
		return 0, 0, fmt.Errorf("%w: %d elements of %d bytes at %d exceed %d byte buffer",
			ErrTruncatedBuffer, count, elemSize, start, v.n)
	}
	return start, count, nil
}
