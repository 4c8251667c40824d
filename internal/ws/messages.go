package ws

import (
	"encoding/json"
	"time"

	"pvplant/internal/model"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> Server messages

type SeriesQueryPayload struct {
	Plant      string `json:"plant"`
	InverterID string `json:"inverter_id"`
}

// RecordsQueryPayload selects records in [Start, End). Empty bounds mean
// the whole series.
type RecordsQueryPayload struct {
	Plant      string `json:"plant"`
	InverterID string `json:"inverter_id"`
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
}

// Server -> Client messages

type SeriesInfo struct {
	Plant      string        `json:"plant"`
	InverterID string        `json:"inverter_id"`
	Records    int           `json:"records"`
	TimeRange  TimeRangeInfo `json:"time_range"`
}

type TimeRangeInfo struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type DatasetLoadedPayload struct {
	Plants       []string      `json:"plants"`
	Series       []SeriesInfo  `json:"series"`
	TimeRange    TimeRangeInfo `json:"time_range"`
	DailyColumns []string      `json:"daily_columns"`
	Anomalies    int           `json:"anomalies"`
	Warnings     int           `json:"warnings"`
}

type DailyRowsPayload struct {
	Plant      string                 `json:"plant"`
	InverterID string                 `json:"inverter_id"`
	Rows       []model.DailyAggregate `json:"rows"`
}

type RecordsRowsPayload struct {
	Plant      string                `json:"plant"`
	InverterID string                `json:"inverter_id"`
	Rows       []model.UnifiedRecord `json:"rows"`
	Truncated  bool                  `json:"truncated"`
}

type ErrorPayload struct {
	Request string `json:"request"`
	Message string `json:"message"`
}

// Message type constants
const (
	// Client -> Server
	TypeDailyQuery   = "daily:query"
	TypeRecordsQuery = "records:query"
	TypeReportGet    = "report:get"

	// Server -> Client
	TypeDatasetLoaded = "dataset:loaded"
	TypeDailyRows     = "daily:rows"
	TypeRecordsRows   = "records:rows"
	TypeReportData    = "report:data"
	TypeError         = "error"
)

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func timeRangeInfo(tr model.TimeRange) TimeRangeInfo {
	return TimeRangeInfo{
		Start: tr.Start.Format(time.RFC3339),
		End:   tr.End.Format(time.RFC3339),
	}
}
