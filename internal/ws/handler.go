package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pvplant/internal/artifact"
	"pvplant/internal/log"
	"pvplant/internal/model"
	"pvplant/internal/quality"
	"pvplant/internal/store"
)

// MaxRecords caps the rows returned by one records:query.
const MaxRecords = 5000

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var boundLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

// Handler serves read-only queries over a published dataset.
type Handler struct {
	hub *Hub

	mu      sync.RWMutex
	store   *store.Store
	report  quality.Report
	columns []string
}

func NewHandler(hub *Hub, b artifact.Bundle) *Handler {
	h := &Handler{hub: hub}
	h.set(b)
	return h
}

func (h *Handler) set(b artifact.Bundle) {
	st := store.New()
	st.AddRecords(b.Unified)
	st.AddDaily(b.Daily)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.store = st
	h.report = b.Report
	h.columns = b.DailyColumns
}

// Reload swaps in a freshly loaded dataset and tells every client.
func (h *Handler) Reload(b artifact.Bundle) {
	h.set(b)
	msg, err := h.datasetLoadedMessage()
	if err != nil {
		log.Ctx(context.Background()).Error("creating dataset:loaded message", "error", err)
		return
	}
	h.hub.Broadcast(msg)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Ctx(r.Context()).Warn("websocket upgrade", "error", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	msg, err := h.datasetLoadedMessage()
	if err != nil {
		log.Ctx(r.Context()).Error("creating dataset:loaded message", "error", err)
	} else {
		client.trySend(msg)
	}

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Ctx(context.Background()).Warn("websocket read", "error", err)
			}
			return
		}

		if reply := h.handleMessage(msg); reply != nil {
			c.trySend(reply)
		}
	}
}

// handleMessage returns the reply for one client message.
func (h *Handler) handleMessage(msg []byte) []byte {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return errorMessage("", fmt.Errorf("invalid message: %w", err))
	}

	var (
		reply []byte
		err   error
	)
	switch env.Type {
	case TypeDailyQuery:
		var p SeriesQueryPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errorMessage(env.Type, fmt.Errorf("invalid payload: %w", err))
		}
		reply, err = h.daily(p)

	case TypeRecordsQuery:
		var p RecordsQueryPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errorMessage(env.Type, fmt.Errorf("invalid payload: %w", err))
		}
		reply, err = h.records(p)

	case TypeReportGet:
		h.mu.RLock()
		rep := h.report
		h.mu.RUnlock()
		reply, err = NewEnvelope(TypeReportData, rep)

	default:
		err = fmt.Errorf("unknown message type %q", env.Type)
	}

	if err != nil {
		return errorMessage(env.Type, err)
	}
	return reply
}

func (h *Handler) daily(p SeriesQueryPayload) ([]byte, error) {
	key := model.SeriesKey{Plant: model.PlantCode(p.Plant), InverterID: p.InverterID}

	h.mu.RLock()
	rows := h.store.Daily(key)
	h.mu.RUnlock()
	if rows == nil {
		return nil, fmt.Errorf("unknown series %s", key)
	}

	return NewEnvelope(TypeDailyRows, DailyRowsPayload{Plant: p.Plant, InverterID: p.InverterID, Rows: rows})
}

func (h *Handler) records(p RecordsQueryPayload) ([]byte, error) {
	key := model.SeriesKey{Plant: model.PlantCode(p.Plant), InverterID: p.InverterID}

	h.mu.RLock()
	st := h.store
	h.mu.RUnlock()

	tr, ok := st.TimeRange(key)
	if !ok {
		return nil, fmt.Errorf("unknown series %s", key)
	}
	start, end := tr.Start, tr.End.Add(time.Nanosecond)
	var err error
	if p.Start != "" {
		if start, err = parseBound(p.Start); err != nil {
			return nil, err
		}
	}
	if p.End != "" {
		if end, err = parseBound(p.End); err != nil {
			return nil, err
		}
	}

	rows := st.RecordsInRange(key, start, end)
	payload := RecordsRowsPayload{Plant: p.Plant, InverterID: p.InverterID, Rows: rows}
	if len(rows) > MaxRecords {
		payload.Rows = rows[:MaxRecords]
		payload.Truncated = true
	}
	if payload.Rows == nil {
		payload.Rows = []model.UnifiedRecord{}
	}
	return NewEnvelope(TypeRecordsRows, payload)
}

func parseBound(s string) (time.Time, error) {
	for _, layout := range boundLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func errorMessage(request string, err error) []byte {
	msg, mErr := NewEnvelope(TypeError, ErrorPayload{Request: request, Message: err.Error()})
	if mErr != nil {
		return nil
	}
	return msg
}

func (h *Handler) datasetLoadedMessage() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := h.store.Series()
	series := make([]SeriesInfo, 0, len(keys))
	for _, k := range keys {
		info := SeriesInfo{Plant: string(k.Plant), InverterID: k.InverterID, Records: h.store.RecordCount(k)}
		if tr, ok := h.store.TimeRange(k); ok {
			info.TimeRange = timeRangeInfo(tr)
		}
		series = append(series, info)
	}

	plants := []string{}
	for _, p := range h.store.Plants() {
		plants = append(plants, string(p))
	}

	payload := DatasetLoadedPayload{
		Plants:       plants,
		Series:       series,
		DailyColumns: h.columns,
		Anomalies:    len(h.report.Anomalies),
		Warnings:     h.report.Warnings(),
	}
	if tr, ok := h.store.GlobalTimeRange(); ok {
		payload.TimeRange = timeRangeInfo(tr)
	}
	return NewEnvelope(TypeDatasetLoaded, payload)
}
