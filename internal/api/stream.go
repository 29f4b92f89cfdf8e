package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/engine"
	"github.com/gyaneshwarpardhi/evacflow/internal/model"
	"github.com/gyaneshwarpardhi/evacflow/internal/report"
	"github.com/gyaneshwarpardhi/evacflow/internal/sim"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamMessage is one server message; exactly one field is set.
type streamMessage struct {
	Frame  *report.Frame     `json:"frame,omitempty"`
	Result *engine.RunResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// GET /v1/simulations/stream — websocket. The client sends one building
// document; the server answers with frames (every ?every=N-th step, the
// initial and final state always) and closes after the result.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	every := 1
	if s := r.URL.Query().Get("every"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid every %q", s))
			return
		}
		every = n
	}
	cfg, err := h.scenarioFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	send := func(m streamMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(m)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return
	}
	b, err := bim.Decode(msg)
	if err != nil {
		_ = send(streamMessage{Error: err.Error()})
		return
	}

	var last report.Frame
	obs := sim.ObserverFunc(func(step int, minutes float64, m *model.Model) error {
		last = report.FrameOf(step, minutes, m)
		if step%every != 0 {
			return nil
		}
		return send(streamMessage{Frame: &last})
	})

	res, err := h.eng.RunSync(r.Context(), engine.Job{
		ID:        uuid.NewString(),
		Building:  b,
		Scenario:  cfg,
		Observers: []sim.Observer{obs},
	})
	if err != nil {
		_ = send(streamMessage{Error: err.Error()})
		return
	}
	if res.Summary != nil && last.Step%every != 0 {
		if err := send(streamMessage{Frame: &last}); err != nil {
			return
		}
	}
	if err := send(streamMessage{Result: res}); err != nil {
		slog.Debug("stream result not delivered", "run", res.RunID, "err", err)
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
