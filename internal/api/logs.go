package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/ipcam/internal/api/models"
	"github.com/smazurov/ipcam/internal/logging"
)

// registerLogRoutes registers the recent log endpoint.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Most recent application log entries from the in-memory ring buffer",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *models.LogsRequest) (*models.LogsResponse, error) {
		entries := logging.GetBuffer().ReadLast(input.Lines)

		out := make([]models.LogEntryData, len(entries))
		for i, e := range entries {
			out[i] = models.LogEntryData{
				Timestamp:  e.Timestamp,
				Level:      e.Level,
				Module:     e.Module,
				Message:    e.Message,
				Attributes: e.Attributes,
			}
		}

		return &models.LogsResponse{
			Body: models.LogsData{
				Entries: out,
				Count:   len(out),
			},
		}, nil
	})
}
