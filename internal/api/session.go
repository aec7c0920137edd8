package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/ipcam/internal/api/models"
	"github.com/smazurov/ipcam/internal/session"
	"github.com/smazurov/ipcam/internal/stager"
)

// registerSessionRoutes registers the session control endpoints.
func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/session",
		Summary:     "Get Session",
		Description: "Get the current streaming session state, status message and RTSP URL",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.SessionResponse, error) {
		return &models.SessionResponse{Body: domainToAPISession(s.session.Snapshot())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "start-session",
		Method:        http.MethodPost,
		Path:          "/api/session/start",
		Summary:       "Start Session",
		Description:   "Stage binaries, launch the relay and schedule the producer. Streaming begins after the settle delay.",
		Tags:          []string{"session"},
		DefaultStatus: http.StatusAccepted,
		Security:      withAuth(),
		Errors:        []int{400, 401, 409, 500},
	}, func(_ context.Context, input *models.StartSessionRequest) (*models.SessionResponse, error) {
		body := input.Body
		if err := s.session.Start(body.CameraIndex, body.MicIndex, body.IncludeAudio); err != nil {
			return nil, s.mapSessionError(err)
		}
		return &models.SessionResponse{Body: domainToAPISession(s.session.Snapshot())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-session",
		Method:      http.MethodPost,
		Path:        "/api/session/stop",
		Summary:     "Stop Session",
		Description: "Cancel any pending restart and terminate the producer and relay",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.SessionResponse, error) {
		s.session.Stop()
		return &models.SessionResponse{Body: domainToAPISession(s.session.Snapshot())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "reap-stale-processes",
		Method:      http.MethodPost,
		Path:        "/api/session/reap",
		Summary:     "Kill Stale Binaries",
		Description: "Terminate every relay and producer process on this machine. Refused while a session is active.",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(ctx context.Context, _ *struct{}) (*models.ReapResponse, error) {
		killed, err := s.session.KillStaleBinaries(ctx)
		if err != nil {
			return nil, s.mapSessionError(err)
		}
		return &models.ReapResponse{Body: models.ReapData{Killed: killed}}, nil
	})
}

// mapSessionError converts supervisor errors to HTTP errors.
func (s *Server) mapSessionError(err error) error {
	var stagingErr *stager.StagingError
	var spawnErr *session.SpawnError

	switch {
	case errors.Is(err, session.ErrSessionActive):
		return huma.Error409Conflict("session already active", err)
	case errors.As(err, &stagingErr):
		return huma.Error500InternalServerError("staging failed: "+stagingErr.Resource, err)
	case errors.As(err, &spawnErr):
		return huma.Error500InternalServerError("failed to launch "+string(spawnErr.Role), err)
	default:
		s.logger.Error("Unexpected session error", "error", err)
		return huma.Error500InternalServerError("internal server error", err)
	}
}

func domainToAPISession(snap session.Snapshot) models.SessionData {
	return models.SessionData{
		State:         string(snap.State),
		StatusMessage: snap.StatusMessage,
		IsStreaming:   snap.IsStreaming(),
		RTSPURL:       snap.RTSPURL,
		CameraIndex:   snap.CameraIndex,
		MicIndex:      snap.MicIndex,
		IncludeAudio:  snap.IncludeAudio,
		RelayPID:      snap.RelayPID,
		ProducerPID:   snap.ProducerPID,
		Restarts:      snap.Restarts,
		LastError:     snap.LastError,
		UpdatedAt:     snap.UpdatedAt,
	}
}
