package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/fbparams/internal/logger"
	"github.com/samcharles93/fbparams/pkg/params"
)

type namedValues struct {
	uid    string
	values []float32
}

func encodeParams(tensors []namedValues) []byte {
	b := flatbuffers.NewBuilder(0)
	offs := make([]flatbuffers.UOffsetT, len(tensors))
	for i, tt := range tensors {
		b.StartVector(4, len(tt.values), 4)
		for j := len(tt.values) - 1; j >= 0; j-- {
			b.PrependFloat32(tt.values[j])
		}
		vals := b.EndVector(len(tt.values))
		uid := b.CreateString(tt.uid)
		b.StartObject(2)
		b.PrependUOffsetTSlot(0, uid, 0)
		b.PrependUOffsetTSlot(1, vals, 0)
		offs[i] = b.EndObject()
	}
	b.StartVector(4, len(offs), 4)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	vec := b.EndVector(len(offs))
	b.StartObject(1)
	b.PrependUOffsetTSlot(0, vec, 0)
	b.Finish(b.EndObject())
	return b.FinishedBytes()
}

func newTestEcho(t *testing.T) (*echo.Echo, *params.Store) {
	t.Helper()
	store, err := params.Load(encodeParams([]namedValues{
		{uid: "w0", values: []float32{1.0, 2.5}},
		{uid: "b0", values: []float32{}},
		{uid: "w1", values: []float32{float32(math.Inf(1)), -4}},
	}))
	if err != nil {
		t.Fatalf("load params: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	var logs bytes.Buffer
	e := echo.New()
	NewServer(store, logger.Text(&logs, slog.LevelDebug)).Register(e)
	return e, store
}

func doGet(t *testing.T, e *echo.Echo, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestParamsInfo(t *testing.T) {
	t.Parallel()

	e, store := newTestEcho(t)
	rec := doGet(t, e, "/v1/params")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	info := decode[ParamsInfo](t, rec)
	if info.TensorsCount != 3 {
		t.Fatalf("tensors count: got %d want 3", info.TensorsCount)
	}
	if info.SizeBytes != store.Size() || info.Mapped {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestListTensorsPagination(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doGet(t, e, "/v1/tensors?offset=1&limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	list := decode[TensorList](t, rec)
	if list.Total != 3 || len(list.Data) != 1 || !list.HasMore {
		t.Fatalf("unexpected page: %+v", list)
	}
	if got := list.Data[0]; got.Index != 1 || got.UID != "b0" || got.ValuesCount != 0 {
		t.Fatalf("unexpected entry: %+v", got)
	}

	rec = doGet(t, e, "/v1/tensors?offset=10")
	list = decode[TensorList](t, rec)
	if len(list.Data) != 0 || list.HasMore {
		t.Fatalf("page past end should be empty: %+v", list)
	}

	rec = doGet(t, e, "/v1/tensors?limit=-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative limit: got %d", rec.Code)
	}
}

func TestGetTensorAndValue(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)

	rec := doGet(t, e, "/v1/tensors/0?values=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	ts := decode[TensorSummary](t, rec)
	if ts.UID != "w0" || ts.ValuesCount != 2 || len(ts.Values) != 2 || ts.Values[1] != 2.5 {
		t.Fatalf("unexpected tensor: %+v", ts)
	}

	rec = doGet(t, e, "/v1/tensors/0/values/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("value status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if v := decode[ValueResponse](t, rec); v.Value != 2.5 || v.Index != 0 || v.ValueIndex != 1 {
		t.Fatalf("unexpected value: %+v", v)
	}

	rec = doGet(t, e, "/v1/tensors/2/values/0")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"+Inf"`) {
		t.Fatalf("infinite value: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestOutOfRangeAndBadInput(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)

	tests := []struct {
		path string
		want int
	}{
		{"/v1/tensors/3", http.StatusNotFound},
		{"/v1/tensors/1/values/0", http.StatusNotFound},
		{"/v1/tensors/0/values/2", http.StatusNotFound},
		{"/v1/tensors/abc", http.StatusBadRequest},
		{"/v1/tensors/-1", http.StatusBadRequest},
		{"/v1/tensors/0/values/x", http.StatusBadRequest},
		{"/v1/lookup", http.StatusBadRequest},
		{"/v1/lookup?uid=missing", http.StatusNotFound},
	}
	for _, tc := range tests {
		rec := doGet(t, e, tc.path)
		if rec.Code != tc.want {
			t.Errorf("%s: got %d want %d body=%s", tc.path, rec.Code, tc.want, rec.Body.String())
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doGet(t, e, "/v1/lookup?uid=w1&values=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	ts := decode[TensorSummary](t, rec)
	if ts.Index != 2 || ts.ValuesCount != 2 || len(ts.Values) != 2 || ts.Values[1] != -4 {
		t.Fatalf("unexpected tensor: %+v", ts)
	}
	if !math.IsInf(float64(ts.Values[0]), 1) {
		t.Fatalf("expected +Inf, got %v", ts.Values[0])
	}
}

func TestReleasedStore(t *testing.T) {
	t.Parallel()

	e, store := newTestEcho(t)
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, path := range []string{"/v1/params", "/v1/tensors", "/v1/tensors/0", "/v1/lookup?uid=w0"} {
		rec := doGet(t, e, path)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: got %d want 503 body=%s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doGet(t, e, "/v1/params")
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatalf("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/params", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(echo.HeaderXRequestID); got != "abc-123" {
		t.Fatalf("request id not echoed: %q", got)
	}
}
