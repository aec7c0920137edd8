package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/ipcam/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time session state transitions, producer exits and stale process sweeps. The current state is sent first.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"session-state-changed":  events.SessionStateChangedEvent{},
		"producer-exited":        events.ProducerExitedEvent{},
		"stale-processes-reaped": events.StaleProcessesReapedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.SessionStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ProducerExitedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.StaleProcessesReapedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// current state so clients need no separate GET
		snap := s.session.Snapshot()
		if err := send.Data(events.SessionStateChangedEvent{
			State:         string(snap.State),
			StatusMessage: snap.StatusMessage,
			RTSPURL:       snap.RTSPURL,
			Restarts:      snap.Restarts,
			Timestamp:     snap.UpdatedAt.Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
