package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/hedger/internal/modules/hedging"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const streamWriteTimeout = 10 * time.Second

// Stream message types
const (
	msgSnapshot = "snapshot"
	msgHedge    = "hedge"
	msgAnalysis = "analysis"
	msgError    = "error"
)

// streamRequest is one client frame. A snapshot frame carries positions and
// replaces the connection's prepared analysis; a hedge frame only changes
// hedge inputs and prices.
type streamRequest struct {
	Type string `json:"type"`
	AnalyzeRequest
}

type streamReply struct {
	Type     string      `json:"type"`
	Data     interface{} `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Warning  string      `json:"warning,omitempty"`
	Sequence int         `json:"sequence"`
}

// HandleStream handles GET /api/hedging/stream. Each connection memoizes the
// last prepared snapshot so hedge-fraction changes only re-run sizing and
// option pricing.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected close")

	log := h.log.With().Str("remote", r.RemoteAddr).Logger()
	log.Debug().Msg("Stream opened")

	ctx := r.Context()
	var (
		prepared *hedging.Prepared
		seq      int
	)

	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				conn.Close(websocket.StatusNormalClosure, "")
				log.Debug().Msg("Stream closed by client")
				return
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Debug().Err(err).Msg("Stream read failed")
			return
		}
		seq++

		var req streamRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			if !h.send(ctx, conn, streamReply{Type: msgError, Error: "invalid message: " + err.Error(), Sequence: seq}) {
				return
			}
			continue
		}

		reply := h.handleFrame(req, &prepared)
		reply.Sequence = seq
		if !h.send(ctx, conn, reply) {
			return
		}
	}
}

func (h *Handler) handleFrame(req streamRequest, prepared **hedging.Prepared) streamReply {
	prices := h.priceLookup(req.prices())

	switch req.Type {
	case msgSnapshot, "":
		prep, err := h.service.Prepare(req.snapshot())
		*prepared = &prep
		report := hedging.Report{Prepared: prep, Hedges: h.service.Hedge(prep, req.inputs(), prices)}

		reply := streamReply{Type: msgAnalysis, Data: report}
		if errors.Is(err, hedging.ErrNoPositions) {
			reply.Warning = err.Error()
		}
		return reply

	case msgHedge:
		if *prepared == nil {
			return streamReply{Type: msgError, Error: "send a snapshot before hedge updates"}
		}
		return streamReply{Type: msgHedge, Data: h.service.Hedge(**prepared, req.inputs(), prices)}

	default:
		return streamReply{Type: msgError, Error: "unknown message type: " + req.Type}
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, reply streamReply) bool {
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()

	if err := wsjson.Write(writeCtx, conn, reply); err != nil {
		h.log.Debug().Err(err).Msg("Stream write failed")
		return false
	}
	return true
}
