package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvplant/internal/artifact"
	"pvplant/internal/model"
	"pvplant/internal/quality"
)

var base = time.Date(2020, 5, 15, 6, 0, 0, 0, time.UTC)

// testBundle builds two series: p1/inv-a with 8 quarter-hour records over
// one day and p2/inv-b with a single record.
func testBundle() artifact.Bundle {
	var unified []model.UnifiedRecord
	for i := 0; i < 8; i++ {
		unified = append(unified, model.UnifiedRecord{
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			Plant:     model.PlantP1, InverterID: "inv-a", DCPower: float64(100 * i),
		})
	}
	unified = append(unified, model.UnifiedRecord{Timestamp: base, Plant: model.PlantP2, InverterID: "inv-b"})

	daily := []model.DailyAggregate{
		{Plant: model.PlantP1, InverterID: "inv-a", Date: model.Date(base), Samples: 8, Values: map[string]float64{"dc_power_sum": 2800}},
		{Plant: model.PlantP2, InverterID: "inv-b", Date: model.Date(base), Samples: 1, Values: map[string]float64{"dc_power_sum": 0}},
	}

	c := quality.NewCollector()
	c.Addf(quality.KindJoinDrop, model.PlantP1, "4 rows dropped")
	c.Add(quality.Anomaly{Kind: quality.KindYieldScale, Severity: quality.SeverityInfo, Plant: model.PlantP1, Message: "scale"})
	rep := quality.Report{UnifiedRows: len(unified), DailyRows: len(daily), DailyColumns: []string{"dc_power_sum"}}
	rep.Attach(c)

	return artifact.Bundle{Unified: unified, Daily: daily, DailyColumns: rep.DailyColumns, Report: rep}
}

// dialHandler sets up a test server with the handler and returns a WS connection.
func dialHandler(t *testing.T, handler *Handler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

// readJSON reads the next JSON message from the connection.
func readJSON(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

// sendJSON sends a JSON message on the connection.
func sendJSON(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := NewEnvelope(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func connect(t *testing.T) (*websocket.Conn, *Handler, func()) {
	t.Helper()
	handler := NewHandler(NewHub(), testBundle())
	conn, cleanup := dialHandler(t, handler)
	env := readJSON(t, conn)
	require.Equal(t, TypeDatasetLoaded, env.Type)
	return conn, handler, cleanup
}

func TestHandler_InitialMessage(t *testing.T) {
	handler := NewHandler(NewHub(), testBundle())
	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	env := readJSON(t, conn)
	assert.Equal(t, TypeDatasetLoaded, env.Type)

	var dl DatasetLoadedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &dl))
	assert.Equal(t, []string{"p1", "p2"}, dl.Plants)
	require.Len(t, dl.Series, 2)
	assert.Equal(t, "inv-a", dl.Series[0].InverterID)
	assert.Equal(t, 8, dl.Series[0].Records)
	assert.Equal(t, "2020-05-15T06:00:00Z", dl.TimeRange.Start)
	assert.Equal(t, "2020-05-15T07:45:00Z", dl.TimeRange.End)
	assert.Equal(t, []string{"dc_power_sum"}, dl.DailyColumns)
	assert.Equal(t, 2, dl.Anomalies)
	assert.Equal(t, 1, dl.Warnings)
}

func TestHandler_DailyQuery(t *testing.T) {
	conn, _, cleanup := connect(t)
	defer cleanup()

	sendJSON(t, conn, TypeDailyQuery, SeriesQueryPayload{Plant: "p1", InverterID: "inv-a"})
	env := readJSON(t, conn)
	require.Equal(t, TypeDailyRows, env.Type)

	var p DailyRowsPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	require.Len(t, p.Rows, 1)
	assert.Equal(t, 8, p.Rows[0].Samples)
	assert.InDelta(t, 2800, p.Rows[0].Values["dc_power_sum"], 1e-9)
}

func TestHandler_RecordsQuery(t *testing.T) {
	conn, _, cleanup := connect(t)
	defer cleanup()

	sendJSON(t, conn, TypeRecordsQuery, RecordsQueryPayload{
		Plant: "p1", InverterID: "inv-a",
		Start: "2020-05-15T06:30:00Z", End: "2020-05-15 07:00",
	})
	env := readJSON(t, conn)
	require.Equal(t, TypeRecordsRows, env.Type)

	var p RecordsRowsPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	require.Len(t, p.Rows, 2)
	assert.InDelta(t, 200, p.Rows[0].DCPower, 1e-9)
	assert.InDelta(t, 300, p.Rows[1].DCPower, 1e-9)
	assert.False(t, p.Truncated)

	// no bounds returns the whole series
	sendJSON(t, conn, TypeRecordsQuery, RecordsQueryPayload{Plant: "p1", InverterID: "inv-a"})
	env = readJSON(t, conn)
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Len(t, p.Rows, 8)
}

func TestHandler_ReportGet(t *testing.T) {
	conn, _, cleanup := connect(t)
	defer cleanup()

	sendJSON(t, conn, TypeReportGet, nil)
	env := readJSON(t, conn)
	require.Equal(t, TypeReportData, env.Type)

	var rep quality.Report
	require.NoError(t, json.Unmarshal(env.Payload, &rep))
	assert.Equal(t, 9, rep.UnifiedRows)
	assert.Len(t, rep.Anomalies, 2)
}

func TestHandler_Errors(t *testing.T) {
	conn, _, cleanup := connect(t)
	defer cleanup()

	tests := []struct {
		name    string
		msgType string
		payload any
		want    string
	}{
		{"unknown series", TypeDailyQuery, SeriesQueryPayload{Plant: "p9", InverterID: "x"}, "unknown series"},
		{"bad time", TypeRecordsQuery, RecordsQueryPayload{Plant: "p1", InverterID: "inv-a", Start: "yesterday"}, "invalid time"},
		{"unknown type", "sim:start", nil, "unknown message type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sendJSON(t, conn, tt.msgType, tt.payload)
			env := readJSON(t, conn)
			require.Equal(t, TypeError, env.Type)

			var p ErrorPayload
			require.NoError(t, json.Unmarshal(env.Payload, &p))
			assert.Equal(t, tt.msgType, p.Request)
			assert.Contains(t, p.Message, tt.want)
		})
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	env := readJSON(t, conn)
	assert.Equal(t, TypeError, env.Type)
}

func TestHandler_ReloadBroadcasts(t *testing.T) {
	conn, handler, cleanup := connect(t)
	defer cleanup()

	b := testBundle()
	b.Unified = b.Unified[:8]
	b.Daily = b.Daily[:1]
	handler.Reload(b)

	env := readJSON(t, conn)
	require.Equal(t, TypeDatasetLoaded, env.Type)
	var dl DatasetLoadedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &dl))
	assert.Equal(t, []string{"p1"}, dl.Plants)
	assert.Len(t, dl.Series, 1)
}
