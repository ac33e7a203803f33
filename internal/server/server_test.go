package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yanet-platform/prefixtrie/filter"
	"github.com/yanet-platform/prefixtrie/internal/metrics"
)

func newTestServer(t *testing.T) (*httptest.Server, *filter.Filter) {
	reg := prometheus.NewRegistry()

	cfg := filter.DefaultConfig()
	cfg.Rules = []filter.Rule{
		{Prefix: netip.MustParsePrefix("192.168.0.0/16"), Action: filter.ActionAllow},
		{Prefix: netip.MustParsePrefix("192.168.0.0/24"), Action: filter.ActionDeny},
	}
	f, err := filter.NewFilter(cfg, filter.WithMetrics(metrics.New(reg)))
	require.NoError(t, err)

	srv := NewServer(DefaultConfig(), f, WithGatherer(reg))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts, f
}

func do(t *testing.T, method string, url string, body string) (int, string) {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestLookup(t *testing.T) {
	ts, _ := newTestServer(t)

	status, body := do(t, http.MethodGet, ts.URL+"/v1/lookup?addr=192.168.0.1", "")
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"addr":"192.168.0.1","action":"deny","prefix":"192.168.0.0/24","matched":true}`, body)

	status, body = do(t, http.MethodGet, ts.URL+"/v1/lookup?addr=192.168.1.1", "")
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"addr":"192.168.1.1","action":"allow","prefix":"192.168.0.0/16","matched":true}`, body)

	status, body = do(t, http.MethodGet, ts.URL+"/v1/lookup?addr=10.0.0.1", "")
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"addr":"10.0.0.1","action":"none","prefix":"","matched":false}`, body)

	status, _ = do(t, http.MethodGet, ts.URL+"/v1/lookup?addr=bogus", "")
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodGet, ts.URL+"/v1/lookup?addr=2001:db8::1", "")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestRules(t *testing.T) {
	ts, f := newTestServer(t)

	status, body := do(t, http.MethodGet, ts.URL+"/v1/rules", "")
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `[
		{"prefix":"192.168.0.0/16","action":"allow"},
		{"prefix":"192.168.0.0/24","action":"deny"}
	]`, body)

	status, _ = do(t, http.MethodPut, ts.URL+"/v1/rules", `{"prefix":"10.0.0.0/8","action":"blacklist"}`)
	require.Equal(t, http.StatusNoContent, status)
	require.Equal(t, filter.ActionDeny, f.LookupRaw(167772161, 32))

	status, _ = do(t, http.MethodPut, ts.URL+"/v1/rules", `{"prefix":"2001:db8::/32","action":"deny"}`)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodPut, ts.URL+"/v1/rules", `{"prefix":"10.0.0.0/8","action":"drop"}`)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodDelete, ts.URL+"/v1/rules?prefix=10.0.0.0/8", "")
	require.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, http.MethodDelete, ts.URL+"/v1/rules?prefix=10.0.0.0/8", "")
	require.Equal(t, http.StatusNotFound, status)
	status, _ = do(t, http.MethodDelete, ts.URL+"/v1/rules?prefix=nope", "")
	require.Equal(t, http.StatusBadRequest, status)

	require.Equal(t, 2, f.Len())
}

func TestPutRuleAllocationFailure(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.MemoryLimit = datasize.ByteSize(1)
	f, err := filter.NewFilter(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(NewServer(DefaultConfig(), f).Handler())
	defer ts.Close()

	status, _ := do(t, http.MethodPut, ts.URL+"/v1/rules", `{"prefix":"10.0.0.0/8","action":"deny"}`)
	require.Equal(t, http.StatusInsufficientStorage, status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	do(t, http.MethodGet, ts.URL+"/v1/lookup?addr=192.168.0.1", "")

	status, body := do(t, http.MethodGet, ts.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `prefixtrie_lookups_total{action="deny"} 1`)
	require.Contains(t, body, "prefixtrie_rules 2")
}

func TestRunShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f, err := filter.NewFilter(filter.DefaultConfig())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Endpoint = "127.0.0.1:0"
	srv := NewServer(cfg, f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunListenFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	f, err := filter.NewFilter(filter.DefaultConfig())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Endpoint = busy.Addr().String()
	cfg.ListenAttempts = 2

	err = NewServer(cfg, f).Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to listen")
}
