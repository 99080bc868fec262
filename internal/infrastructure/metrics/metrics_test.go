package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ratesync-service/internal/application"
	"ratesync-service/internal/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_FetchObserved(t *testing.T) {
	m := metrics.New()
	m.FetchObserved("USD/ARS", application.FetchSuccess, 120*time.Millisecond)
	m.FetchObserved("USD/ARS", application.FetchFailure, 50*time.Millisecond)
	m.FetchObserved("USD/ARS", application.FetchFailure, 50*time.Millisecond)
	m.FetchObserved("USD/ARS", application.FetchStale, time.Millisecond)

	got, err := testutil.GatherAndCount(m.Registry(), "ratesync_fetch_total")
	require.NoError(t, err)
	require.Equal(t, 3, got) // one series per outcome

	expected := `
# HELP ratesync_fetch_total Rate fetch attempts by outcome.
# TYPE ratesync_fetch_total counter
ratesync_fetch_total{outcome="failure",pair="USD/ARS"} 2
ratesync_fetch_total{outcome="stale",pair="USD/ARS"} 1
ratesync_fetch_total{outcome="success",pair="USD/ARS"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "ratesync_fetch_total"))
}

func TestMetrics_RateAndSessions(t *testing.T) {
	m := metrics.New()
	m.RateObserved("USD/ARS", 1600)
	m.SetSessions(3)

	expected := `
# HELP ratesync_rate Last successfully fetched rate.
# TYPE ratesync_rate gauge
ratesync_rate{pair="USD/ARS"} 1600
# HELP ratesync_sessions_open Open storefront sessions.
# TYPE ratesync_sessions_open gauge
ratesync_sessions_open 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"ratesync_rate", "ratesync_sessions_open"))
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.RateObserved("USD/ARS", 1589.77)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.Contains(t, string(body), `ratesync_rate{pair="USD/ARS"} 1589.77`)
}
