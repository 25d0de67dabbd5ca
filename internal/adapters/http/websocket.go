package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
	"github.com/samirrijal/clinicmap/internal/pkg/metrics"
)

// wsOutbound is every message the server sends on /ws/map.
type wsOutbound struct {
	Type     string            `json:"type"` // "labels" | "directory_changed" | "error"
	Seq      uint64            `json:"seq,omitempty"`
	Plan     *domain.LabelPlan `json:"plan,omitempty"`
	ClinicID string            `json:"clinic_id,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// regionStream keeps only the newest region change. A region that arrives
// while a plan is being computed replaces any older pending one, so the
// client never receives plans for viewports it has already left.
type regionStream struct {
	mu      sync.Mutex
	pending *usecases.LabelRequest
	latest  *usecases.LabelRequest
	seq     uint64
	wake    chan struct{}
}

func newRegionStream() *regionStream {
	return &regionStream{wake: make(chan struct{}, 1)}
}

// push records req as the newest request.
func (s *regionStream) push(req usecases.LabelRequest) {
	s.mu.Lock()
	s.pending = &req
	s.seq++
	s.mu.Unlock()
	s.signal()
}

// replay re-queues the last computed request, if no newer one is pending.
func (s *regionStream) replay() {
	s.mu.Lock()
	if s.pending == nil && s.latest != nil {
		req := *s.latest
		s.pending = &req
		s.seq++
	}
	s.mu.Unlock()
	s.signal()
}

func (s *regionStream) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// take returns the pending request, if any.
func (s *regionStream) take() (usecases.LabelRequest, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return usecases.LabelRequest{}, 0, false
	}
	req := *s.pending
	s.pending = nil
	s.latest = &req
	return req, s.seq, true
}

// MapWebSocketHandler streams label plans. Clients send the same JSON body as
// POST /v1/map/labels on every region change; the server answers with the
// plan for the newest region only. When nc is set, directory changes trigger
// a fresh plan for the client's current region.
func MapWebSocketHandler(mapSvc *usecases.MapService, nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var writeMu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		stream := newRegionStream()

		if nc != nil {
			sub, err := nc.Subscribe("clinics.published.>", func(msg *nats.Msg) {
				var clinic domain.Clinic
				if json.Unmarshal(msg.Data, &clinic) == nil {
					_ = writeJSON(wsOutbound{Type: "directory_changed", ClinicID: clinic.ID})
				}
				stream.replay()
			})
			if err != nil {
				slog.Warn("ws directory subscribe failed", "error", err)
			} else {
				defer func() { _ = sub.Unsubscribe() }()
			}
		}

		// Plan worker
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-stream.wake:
				}
				req, seq, ok := stream.take()
				if !ok {
					continue
				}
				plan, err := mapSvc.Labels(ctx, req)
				if err != nil {
					slog.Error("ws label plan failed", "error", err)
					_ = writeJSON(wsOutbound{Type: "error", Seq: seq, Error: "label plan failed"})
					continue
				}
				_ = writeJSON(wsOutbound{Type: "labels", Seq: seq, Plan: plan})
			}
		}()

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					writeMu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					writeMu.Unlock()
					if err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var req usecases.LabelRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				_ = writeJSON(wsOutbound{Type: "error", Error: "invalid JSON"})
				continue
			}
			if err := validateLabelRequest(&req); err != nil {
				_ = writeJSON(wsOutbound{Type: "error", Error: err.Error()})
				continue
			}
			stream.push(req)
		}

		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
