package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/luffyplayer/internal/logging"
)

// LogsRequest filters the ring buffer snapshot.
type LogsRequest struct {
	Tail   int    `query:"tail" minimum:"0" default:"200" doc:"Return at most this many recent entries, 0 for all"`
	Module string `query:"module" example:"engine" doc:"Only entries from this module"`
	Level  string `query:"level" enum:"debug,info,warn,error" doc:"Minimum level"`
}

// LogsResponse is a snapshot of recent log entries, oldest first.
type LogsResponse struct {
	Body struct {
		Entries []logging.LogEntry `json:"entries" doc:"Log entries, oldest first"`
		Count   int                `json:"count" doc:"Number of entries returned"`
	}
}

func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Recent log entries from the in-memory ring buffer",
		Tags:        []string{"logs"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, input *LogsRequest) (*LogsResponse, error) {
		resp := &LogsResponse{}
		resp.Body.Entries = filterLogs(logging.GetBuffer(), input)
		resp.Body.Count = len(resp.Body.Entries)
		return resp, nil
	})
}

func filterLogs(buffer *logging.RingBuffer, input *LogsRequest) []logging.LogEntry {
	if buffer == nil {
		return []logging.LogEntry{}
	}
	return buffer.Select(logging.Query{
		Module:   input.Module,
		MinLevel: strings.ToLower(input.Level),
		Limit:    input.Tail,
	})
}
