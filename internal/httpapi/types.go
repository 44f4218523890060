package httpapi

import "github.com/samcharles93/fbparams/internal/floatjson"

// ParamReader is the read-only view the server needs. *params.Store
// satisfies it.
type ParamReader interface {
	TensorsCount() (int, error)
	TensorUID(i int) (string, error)
	TensorValuesCount(i int) (int, error)
	TensorValueAt(i, j int) (float32, error)
	Values(i int) ([]float32, error)
	Find(uid string) (int, bool)
	Size() int
	Mapped() bool
	FileIdentifier() string
}

type ParamsInfo struct {
	TensorsCount   int    `json:"tensors_count"`
	SizeBytes      int    `json:"size_bytes"`
	Mapped         bool   `json:"mapped"`
	FileIdentifier string `json:"file_identifier,omitempty"`
}

type TensorSummary struct {
	Index       int                 `json:"index"`
	UID         string              `json:"uid"`
	ValuesCount int                 `json:"values_count"`
	Values      []floatjson.Float32 `json:"values,omitempty"`
}

type TensorList struct {
	Object  string          `json:"object"`
	Data    []TensorSummary `json:"data"`
	Offset  int             `json:"offset"`
	Total   int             `json:"total"`
	HasMore bool            `json:"has_more"`
}

type ValueResponse struct {
	Index      int               `json:"index"`
	ValueIndex int               `json:"value_index"`
	Value      floatjson.Float32 `json:"value"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
