package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sort"

	"github.com/gorilla/websocket"

	"github.com/verte-zerg/neurosense/internal/analysis"
	"github.com/verte-zerg/neurosense/internal/metrics"
	"github.com/verte-zerg/neurosense/internal/model"
)

// maxLiveEvents bounds the per-connection buffer.
const maxLiveEvents = 20000

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// liveReply is sent after every client frame.
type liveReply struct {
	model.TypingMetrics
	Events int `json:"events"`
}

type liveError struct {
	Error string `json:"error"`
}

// handleLive streams keystrokes over a websocket and answers each one with
// the metrics of the session buffered so far.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		// Best-effort close.
		_ = conn.Close()
	}()
	stop := context.AfterFunc(r.Context(), func() {
		_ = conn.Close()
	})
	defer stop()

	metrics.LiveConnections.Inc()
	defer metrics.LiveConnections.Dec()
	s.logger.Debug("live session opened", "remote", r.RemoteAddr)

	conn.SetReadLimit(s.maxBodyBytes)
	var session []model.KeyEvent
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Debug("live session closed", "remote", r.RemoteAddr, "events", len(session))
			return
		}

		var reply any
		session, reply = s.applyFrame(session, data)
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Debug("live write failed", "error", err)
			return
		}
	}
}

// applyFrame folds one client frame into the session and returns the reply.
func (s *Server) applyFrame(session []model.KeyEvent, data []byte) ([]model.KeyEvent, any) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var frame map[string]any
	if err := dec.Decode(&frame); err != nil {
		return session, liveError{Error: "frame must be a JSON object"}
	}
	if reset, _ := frame["reset"].(bool); reset {
		session = session[:0]
		return session, s.liveMetrics(session)
	}

	decoded, err := analysis.DecodeValue([]any{frame})
	if err != nil {
		return session, liveError{Error: err.Error()}
	}
	events := analysis.Normalize(decoded)
	if len(events) == 0 {
		return session, liveError{Error: "frame needs a string key and a non-negative timestamp"}
	}
	if len(session) >= maxLiveEvents {
		return session, liveError{Error: "session is full, send {\"reset\": true}"}
	}
	session = insertEvent(session, events[0])
	return session, s.liveMetrics(session)
}

// insertEvent adds ev to a session kept in normalized order. Events sharing a
// timestamp stay in arrival order.
func insertEvent(session []model.KeyEvent, ev model.KeyEvent) []model.KeyEvent {
	i := sort.Search(len(session), func(i int) bool {
		return session[i].Timestamp > ev.Timestamp
	})
	return slices.Insert(session, i, ev)
}

// liveMetrics analyzes a session that insertEvent keeps normalized.
func (s *Server) liveMetrics(session []model.KeyEvent) liveReply {
	a := s.analyzer.Load()
	return liveReply{
		TypingMetrics: a.AnalyzeNormalized(session),
		Events:        len(session),
	}
}
