package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DrSkyle/pierwatch/pkg/engine/fifo"
	"github.com/DrSkyle/pierwatch/pkg/engine/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	payloads []map[string]interface{}
	status   int
}

func (c *capture) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var p map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		c.payloads = append(c.payloads, p)
		if c.status != 0 {
			w.WriteHeader(c.status)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func summary() fifo.Summary {
	return fifo.Summarize([]fifo.Violation{
		{Client: "Альфа", ShipmentDayGap: 3},
		{Client: "Альфа", ShipmentDayGap: 20},
		{Client: "Бета", ShipmentDayGap: 1},
	})
}

func TestSendReport(t *testing.T) {
	// 1. Setup
	c := &capture{}
	srv := c.server(t)
	client := NewSlackClient(srv.URL, "#pier")

	// 2. Send
	err := client.SendReport(context.Background(), Message{
		Source:    "log.csv",
		At:        time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		Records:   42,
		Summary:   summary(),
		ReportURL: "https://example.com/dashboard.html",
	})
	require.NoError(t, err)

	// 3. Verify
	require.Len(t, c.payloads, 1)
	p := c.payloads[0]
	assert.Equal(t, "#pier", p["channel"])

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, ":red_circle: Pier FIFO Report")
	assert.Contains(t, body, "*Violations:*\\n3")
	assert.Contains(t, body, "*Mean Gap:*\\n8.0 days")
	assert.Contains(t, body, "- Альфа: 2 (max 20 d)")
	assert.Contains(t, body, "Open dashboard")
}

func TestSendReport_Disabled(t *testing.T) {
	var client *SlackClient
	assert.False(t, client.Enabled())
	assert.NoError(t, client.SendReport(context.Background(), Message{}))
	assert.NoError(t, NewSlackClient("", "").SendReport(context.Background(), Message{}))
}

func TestSendReport_Non200(t *testing.T) {
	c := &capture{status: http.StatusForbidden}
	srv := c.server(t)

	err := NewSlackClient(srv.URL, "").SendReport(context.Background(), Message{Summary: fifo.Summarize(nil)})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "403"))
}

func TestSendRegressionAlert(t *testing.T) {
	c := &capture{}
	srv := c.server(t)
	client := NewSlackClient(srv.URL, "")
	ctx := context.Background()

	prev := history.Snapshot{Timestamp: 1, Violations: 2}
	require.NoError(t, client.SendRegressionAlert(ctx, history.Compare(&prev, history.Snapshot{Timestamp: 2, Violations: 1})))
	assert.Empty(t, c.payloads, "improvement is not alerted")

	require.NoError(t, client.SendRegressionAlert(ctx, history.Compare(&prev, history.Snapshot{Timestamp: 2, Violations: 5})))
	require.Len(t, c.payloads, 1)
	raw, _ := json.Marshal(c.payloads[0])
	assert.Contains(t, string(raw), "from *2* to *5*")
}
