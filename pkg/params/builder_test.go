package params

import (
	"os"
	"path/filepath"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
)

// testTensor describes one tensor for buildParams. A nil values slice
// omits the field entirely; noUID omits the uid field.
type testTensor struct {
	uid    string
	noUID  bool
	values []float32
}

// buildParams encodes tensors the way the schema compiler's builder would.
// Values vectors are created before uids, so the first tensor's values end
// up at the very end of the buffer.
func buildParams(tensors []testTensor, identifier string) []byte {
	b := flatbuffers.NewBuilder(0)

	offs := make([]flatbuffers.UOffsetT, len(tensors))
	for i, tt := range tensors {
		var vals flatbuffers.UOffsetT
		if tt.values != nil {
			b.StartVector(flatbuffers.SizeFloat32, len(tt.values), flatbuffers.SizeFloat32)
			for j := len(tt.values) - 1; j >= 0; j-- {
				b.PrependFloat32(tt.values[j])
			}
			vals = b.EndVector(len(tt.values))
		}
		var uid flatbuffers.UOffsetT
		if !tt.noUID {
			uid = b.CreateString(tt.uid)
		}

		b.StartObject(2)
		if uid != 0 {
			b.PrependUOffsetTSlot(0, uid, 0)
		}
		if vals != 0 {
			b.PrependUOffsetTSlot(1, vals, 0)
		}
		offs[i] = b.EndObject()
	}

	var vec flatbuffers.UOffsetT
	if tensors != nil {
		b.StartVector(flatbuffers.SizeUOffsetT, len(offs), flatbuffers.SizeUOffsetT)
		for i := len(offs) - 1; i >= 0; i-- {
			b.PrependUOffsetT(offs[i])
		}
		vec = b.EndVector(len(offs))
	}

	b.StartObject(1)
	if vec != 0 {
		b.PrependUOffsetTSlot(0, vec, 0)
	}
	root := b.EndObject()

	if identifier != "" {
		b.FinishWithFileIdentifier(root, []byte(identifier))
	} else {
		b.Finish(root)
	}
	return b.FinishedBytes()
}

func scenarioTensors() []testTensor {
	return []testTensor{
		{uid: "w0", values: []float32{1.0, 2.5}},
		{uid: "b0", values: []float32{}},
	}
}

func mustLoad(t *testing.T, buf []byte) *Store {
	t.Helper()
	s, err := Load(buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
