package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/netguard/internal/model"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "secret", 2*time.Second)
}

func TestFetchTraffic_SendsBearerAndDecodes(t *testing.T) {
	var gotAuth, gotPath string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"data":[{"timestamp":"2024-05-01T10:00:00Z","source_ip":"192.168.1.7",
			"destination_ip":"10.0.0.9","protocol":"TCP","port":443,"bytes":1200,"packets":4,
			"duration":1.5,"is_malicious":true,"confidence_score":88,"threat_type":"DDoS",
			"classification":"Malicious"}]}`)
	})

	events, err := c.FetchTraffic(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/api/network/traffic", gotPath)
	require.Len(t, events, 1)
	assert.Equal(t, "192.168.1.7", events[0].SourceIP)
	assert.Equal(t, 443, events[0].Port)
	assert.Equal(t, 1.5, events[0].DurationSeconds)
	assert.Equal(t, model.ThreatDDoS, events[0].ThreatType)
}

func TestFetchTraffic_MissingDataIsEmpty(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	events, err := c.FetchTraffic(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestFetchStats_Decodes(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_traffic":5000,"active_connections":12,"alerts_today":3,
			"threat_level":"low","protocols":{"TCP":2}}`)
	})

	stats, err := c.FetchStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5000), stats.TotalTraffic)
	assert.Equal(t, model.ThreatLow, stats.ThreatLevel)
	assert.Equal(t, 2, stats.Protocols["TCP"])
}

func TestFetchAlerts_StatusErrorIsFetchFailure(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchAlerts(context.Background())
	require.Error(t, err)
	assert.True(t, IsFetchFailure(err))

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, EndpointAlerts, fe.Endpoint)
	assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
	assert.Equal(t, "Failed to fetch network alerts: status 500", err.Error())
}

func TestFetchStats_TransportErrorIsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(base, "", time.Second).FetchStats(context.Background())
	require.Error(t, err)
	assert.True(t, IsFetchFailure(err))
	assert.Contains(t, err.Error(), "Failed to fetch network stats")
}

func TestFetchStats_BadBodyIsFetchFailure(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})

	_, err := c.FetchStats(context.Background())
	assert.True(t, IsFetchFailure(err))
}

func TestNoTokenSendsNoAuthorization(t *testing.T) {
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		fmt.Fprint(w, `{"alerts":[]}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).FetchAlerts(context.Background())
	require.NoError(t, err)
	assert.False(t, hasAuth)
}

func TestCheckURL(t *testing.T) {
	var req model.PhishingRequest
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/phishing/check", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fmt.Fprint(w, `{"url":"https://examp1e.com/login","is_phishing":true,"confidence_score":92,
			"threat_level":"high","analysis":{"domain_age_days":3,"blacklisted":true},
			"time_analyzed":"2024-05-01T10:00:00Z"}`)
	})

	res, err := c.CheckURL(context.Background(), "https://examp1e.com/login")
	require.NoError(t, err)

	assert.Equal(t, "https://examp1e.com/login", req.URL)
	assert.True(t, res.IsPhishing)
	require.NotNil(t, res.Analysis.DomainAgeDays)
	assert.Equal(t, 3, *res.Analysis.DomainAgeDays)
	assert.Nil(t, res.Analysis.SuspiciousKeywords)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"https://example.com", true},
		{"http://example.com/path?q=1", true},
		{"example.com", false},
		{"ftp://example.com", false},
		{"https://", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateURL(tt.in)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidURL)
			}
		})
	}
}

func TestCheckURL_RejectsInvalidWithoutRequest(t *testing.T) {
	called := false
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.CheckURL(context.Background(), "not a url")
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.False(t, called)
}
