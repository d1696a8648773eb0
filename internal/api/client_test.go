package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/api")
}

func TestTraderStatusDecodesOptionalFields(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/traders/status", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user@example.com", req["owner"])
		assert.Equal(t, "ETH/USD", req["symbol"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true, "status": {"symbol": "ETH/USD", "stage": "holding", "last_price": 2500.5, "entry_price": 2400}}`))
	})

	st, err := c.TraderStatus(context.Background(), "user@example.com", "ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, "ETH/USD", st.Symbol)
	assert.Equal(t, "holding", st.Stage)
	require.NotNil(t, st.LastPrice)
	assert.Equal(t, 2500.5, *st.LastPrice)
	require.NotNil(t, st.EntryPrice)
	assert.Equal(t, 2400.0, *st.EntryPrice)
	assert.Nil(t, st.SellLimit)
	assert.Nil(t, st.Balance)
}

func TestNon2xxBecomesStructuredError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"detail string", 400, `{"detail": "no otp key"}`, "no otp key"},
		{"detail object", 400, `{"detail": {"ok": false}}`, `{"ok":false}`},
		{"bare json", 504, `{"error": "controller did not reply"}`, `{"error":"controller did not reply"}`},
		{"plain text", 500, `boom`, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.ListTraders(context.Background(), "user@example.com")
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
		})
	}
}

func TestOKResponseWithInvalidJSONIsEmptyPayload(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	})

	traders, err := c.ListTraders(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Empty(t, traders)
}

func TestCheckLoginCode(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["code"] == "123456" {
			w.Write([]byte(`{"ok": true}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "missing hash/wrong code"}`))
	})

	ok, err := c.CheckLoginCode(context.Background(), "user@example.com", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CheckLoginCode(context.Background(), "user@example.com", "000000")
	assert.False(t, ok)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestContextCancellationSurfacesAsError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Symbols(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStartTraderSendsFormFieldsVerbatim(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "base", req["strategy"])
		assert.Equal(t, "100", req["fund_amnt"])
		w.Write([]byte(`{"ok": true}`))
	})

	resp, err := c.StartTrader(context.Background(), "user@example.com", "ETH/USD", "base", "100")
	require.NoError(t, err)
	assert.Equal(t, true, resp["ok"])
}
