package api

import (
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/agentic-layer/agent-communication-dashboard/pkg/metrics"
	"github.com/agentic-layer/agent-communication-dashboard/pkg/preprocessor"
)

const (
	contentTypeProtobuf = "application/x-protobuf"
	contentTypeJSON     = "application/json"
)

// tracesHandler handles POST /v1/traces, the OTLP/HTTP trace export endpoint.
// Accepts protobuf and JSON payloads, optionally gzip-compressed, distills the
// spans into communication events and fans them out to subscribers. The
// response is an empty ExportTraceServiceResponse in the request's encoding,
// per the OTLP/HTTP success contract.
func (s *Server) tracesHandler(c *echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	if strings.EqualFold(c.Request().Header.Get("Content-Encoding"), "gzip") {
		body, err = gunzip(body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid gzip data")
		}
	}

	contentType := mediaType(c.Request().Header.Get("Content-Type"))

	req := &coltracepb.ExportTraceServiceRequest{}
	switch contentType {
	case contentTypeProtobuf:
		if err := proto.Unmarshal(body, req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid protobuf data")
		}
	case contentTypeJSON:
		if err := protojson.Unmarshal(body, req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON data")
		}
	default:
		return echo.NewHTTPError(http.StatusUnsupportedMediaType,
			"Unsupported Content-Type. Use application/json or application/x-protobuf.")
	}

	spanCount := 0
	for _, rs := range req.GetResourceSpans() {
		for _, ss := range rs.GetScopeSpans() {
			spanCount += len(ss.GetSpans())
		}
	}
	metrics.SpansReceived.Add(float64(spanCount))

	events := preprocessor.Preprocess(req)
	for _, event := range events {
		header := event.Header()
		metrics.EventsProduced.WithLabelValues(header.EventType).Inc()
		s.filterRegistry.Register(header.ConversationID, header.WorkforceName)
		s.connManager.Publish(event)
	}
	if len(events) > 0 {
		slog.Debug("Processed trace export", "spans", spanCount, "events", len(events))
	}

	return s.exportResponse(c, contentType)
}

// exportResponse writes an empty ExportTraceServiceResponse in the encoding
// the request used.
func (s *Server) exportResponse(c *echo.Context, contentType string) error {
	resp := &coltracepb.ExportTraceServiceResponse{}
	var data []byte
	var err error
	if contentType == contentTypeProtobuf {
		data, err = proto.Marshal(resp)
	} else {
		contentType = contentTypeJSON
		data, err = protojson.Marshal(resp)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to serialize response")
	}

	c.Response().Header().Set("Content-Type", contentType)
	c.Response().WriteHeader(http.StatusOK)
	_, err = c.Response().Write(data)
	return err
}

// mediaType strips any parameters (charset etc.) from a Content-Type value.
func mediaType(header string) string {
	if idx := strings.IndexByte(header, ';'); idx >= 0 {
		header = header[:idx]
	}
	return strings.ToLower(strings.TrimSpace(header))
}

func gunzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
