package session

import (
	"context"
	"time"

	"github.com/smazurov/ipcam/internal/events"
	"github.com/smazurov/ipcam/internal/ffmpeg"
	"github.com/smazurov/ipcam/internal/metrics"
	"github.com/smazurov/ipcam/internal/process"
	"github.com/smazurov/ipcam/internal/relay"
)

// watch is the single restart loop of a session. It waits the settle delay,
// launches the producer, then alternates between waiting for the producer to
// exit and waiting out the backoff. Cancellation is checked after each wait.
func (s *Supervisor) watch(ctx context.Context, sel Selection, done chan<- struct{}) {
	defer close(done)

	if !sleepCtx(ctx, s.settleDelay) {
		return
	}

	producer, err := s.launchProducer(ctx, sel)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.procMu.Lock()
		relayProc := s.relay
		s.relay = nil
		s.procMu.Unlock()
		s.terminate(relayProc)

		s.fail(err)
		return
	}

	url := relay.EndpointURL(s.resolveHost(), relay.DefaultPath)
	s.store.update(func(next *Snapshot) {
		next.State = StateStreaming
		next.StatusMessage = StatusStreaming
		next.RTSPURL = url
		next.ProducerPID = producer.PID()
	})
	s.logger.Info("Streaming", "url", url)

	for {
		select {
		case <-ctx.Done():
			return
		case <-producer.Done():
		}
		if ctx.Err() != nil {
			return
		}

		s.logger.Warn("Producer exited, reconnecting", "pid", producer.PID(), "exit_code", producer.ExitCode())
		s.bus.Publish(events.ProducerExitedEvent{
			PID:       producer.PID(),
			ExitCode:  producer.ExitCode(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		metrics.IncProducerRestarts()
		s.store.update(func(next *Snapshot) {
			next.State = StateReconnecting
			next.StatusMessage = StatusReconnecting
			next.ProducerPID = 0
			next.Restarts++
		})

		for {
			if !sleepCtx(ctx, s.backoff) {
				return
			}
			producer, err = s.launchProducer(ctx, sel)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			// a failed relaunch is retried like any other exit
			s.logger.Warn("Producer relaunch failed", "error", err)
		}

		s.store.update(func(next *Snapshot) {
			next.State = StateStreaming
			next.StatusMessage = StatusStreaming
			next.RTSPURL = url
			next.ProducerPID = producer.PID()
		})
		s.logger.Info("Producer relaunched", "pid", producer.PID())
	}
}

// launchProducer starts a producer and records its handle. The cancellation
// check and the handle swap happen under procMu so Stop either prevents the
// launch or sees the new handle.
func (s *Supervisor) launchProducer(ctx context.Context, sel Selection) (*process.Process, error) {
	s.procMu.Lock()
	defer s.procMu.Unlock()

	if ctx.Err() != nil {
		return nil, errCancelled
	}

	params := ffmpeg.NewParams(s.opts.InputFormat, sel.CameraIndex, sel.MicIndex, sel.IncludeAudio, relay.PublishURL(relay.DefaultPath))
	p := process.New(process.RoleProducer, s.paths.Producer, params.BuildArgs(), s.procLogger)
	if err := p.Start(); err != nil {
		metrics.IncSpawnFailure(string(process.RoleProducer))
		return nil, &SpawnError{Role: process.RoleProducer, Cause: err}
	}
	s.producer = p
	return p, nil
}

func (s *Supervisor) resolveHost() string {
	host, err := s.opts.Resolver.Resolve()
	if err != nil || host == "" {
		s.logger.Warn("LAN address unavailable, using localhost", "error", err)
		return "localhost"
	}
	return host
}

// sleepCtx waits for d and reports whether ctx is still live afterwards.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return ctx.Err() == nil
	}
}
