// Package httpapi serves read-only queries over a loaded parameter buffer.
package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/fbparams/internal/floatjson"
	"github.com/samcharles93/fbparams/internal/logger"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

type Server struct {
	store ParamReader
	log   logger.Logger
}

func NewServer(store ParamReader, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{store: store, log: log.With("component", "httpapi")}
}

// Register installs middleware and routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.Use(requestID)
	e.Use(accessLog(s.log))

	e.GET("/v1/params", s.handleParams)
	e.GET("/v1/tensors", s.handleListTensors)
	e.GET("/v1/tensors/:index", s.handleGetTensor)
	e.GET("/v1/tensors/:index/values/:value", s.handleGetValue)
	e.GET("/v1/lookup", s.handleLookup)
}

func (s *Server) handleParams(c *echo.Context) error {
	n, err := s.store.TensorsCount()
	if err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(http.StatusOK, ParamsInfo{
		TensorsCount:   n,
		SizeBytes:      s.store.Size(),
		Mapped:         s.store.Mapped(),
		FileIdentifier: s.store.FileIdentifier(),
	})
}

func (s *Server) handleListTensors(c *echo.Context) error {
	offset, err := intParam("offset", c.QueryParam("offset"), 0)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	limit, err := intParam("limit", c.QueryParam("limit"), defaultPageSize)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	total, err := s.store.TensorsCount()
	if err != nil {
		return writeStoreError(c, err)
	}
	end := min(offset+limit, total)

	list := TensorList{Object: "list", Data: []TensorSummary{}, Offset: offset, Total: total}
	for i := offset; i < end; i++ {
		ts, err := s.summary(i, false)
		if err != nil {
			return writeStoreError(c, err)
		}
		list.Data = append(list.Data, ts)
	}
	list.HasMore = end < total
	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetTensor(c *echo.Context) error {
	i, err := intParam("index", c.Param("index"), 0)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	ts, err := s.summary(i, boolQuery(c, "values"))
	if err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(http.StatusOK, ts)
}

func (s *Server) handleGetValue(c *echo.Context) error {
	i, err := intParam("index", c.Param("index"), 0)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	j, err := intParam("value", c.Param("value"), 0)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	v, err := s.store.TensorValueAt(i, j)
	if err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(http.StatusOK, ValueResponse{Index: i, ValueIndex: j, Value: floatjson.Float32(v)})
}

func (s *Server) handleLookup(c *echo.Context) error {
	uid := c.QueryParam("uid")
	if uid == "" {
		return writeBadRequest(c, "uid is required")
	}
	i, ok := s.store.Find(uid)
	if !ok {
		if _, err := s.store.TensorsCount(); err != nil {
			return writeStoreError(c, err)
		}
		return writeNotFound(c, "no tensor with uid "+uid)
	}
	ts, err := s.summary(i, boolQuery(c, "values"))
	if err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(http.StatusOK, ts)
}

func (s *Server) summary(i int, withValues bool) (TensorSummary, error) {
	uid, err := s.store.TensorUID(i)
	if err != nil {
		return TensorSummary{}, err
	}
	n, err := s.store.TensorValuesCount(i)
	if err != nil {
		return TensorSummary{}, err
	}
	ts := TensorSummary{Index: i, UID: uid, ValuesCount: n}
	if withValues {
		vals, err := s.store.Values(i)
		if err != nil {
			return TensorSummary{}, err
		}
		ts.Values = floatjson.Slice(vals)
	}
	return ts, nil
}
