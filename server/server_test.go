package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/replay-cache/replay-cache/backend"
	"github.com/replay-cache/replay-cache/core"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func testServer(t *testing.T) (*backend.Backend, *Metrics, http.Handler) {
	t.Helper()
	metrics := NewMetrics()
	b := backend.New(backend.Config{Events: metrics})
	return b, metrics, NewServer(b, metrics, nil).Handler()
}

func TestServeCachedResponse(t *testing.T) {
	b, _, handler := testServer(t)
	var headers core.HeaderBlock
	headers.Add(core.StatusHeader, "200")
	headers.Add("content-type", "text/plain")
	b.AddResponse("www.example.com", "/hello", headers, []byte("Hello world"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "http://www.example.com/hello", nil))

	res := rec.Result()
	if res.StatusCode != 200 {
		t.Fatalf("status is %d", res.StatusCode)
	}
	if v := res.Header.Get("Content-Type"); v != "text/plain" {
		t.Fatalf("content-type is %s", v)
	}
	body, _ := io.ReadAll(res.Body)
	if string(body) != "Hello world" {
		t.Fatalf("body is %q", body)
	}
}

func TestServeMiss(t *testing.T) {
	_, _, handler := testServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "http://www.example.com/missing", nil))

	if rec.Code != 404 {
		t.Fatalf("status is %d", rec.Code)
	}
}

func TestServeDynamicResponse(t *testing.T) {
	b, _, handler := testServer(t)
	b.GenerateDynamicResponses()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "http://h/1024", nil))

	if rec.Code != 200 {
		t.Fatalf("status is %d", rec.Code)
	}
	if rec.Body.Len() != 1024 {
		t.Fatalf("body has %d bytes", rec.Body.Len())
	}
}

func TestServeDelayedResponse(t *testing.T) {
	b, _, handler := testServer(t)
	b.AddSimpleResponse("h", "/slow", 200, []byte("eventually"))
	delay := 50 * time.Millisecond
	b.SetResponseDelay("h", "/slow", delay)

	start := time.Now()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "http://h/slow", nil))

	if elapsed := time.Since(start); elapsed < delay {
		t.Fatalf("answered after %v, want at least %v", elapsed, delay)
	}
	if rec.Body.String() != "eventually" {
		t.Fatalf("body is %q", rec.Body.String())
	}
}

func TestServeTrailers(t *testing.T) {
	b, _, handler := testServer(t)
	var headers core.HeaderBlock
	headers.Add(core.StatusHeader, "200")
	var trailers core.HeaderBlock
	trailers.Add("x-checksum", "abc")
	b.AddResponseWithTrailers("h", "/t", headers, []byte("body"), trailers)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "http://h/t", nil))

	res := rec.Result()
	if v := res.Trailer.Get("X-Checksum"); v != "abc" {
		t.Fatalf("trailer is %q", v)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	b, _, handler := testServer(t)
	b.AddSimpleResponse("h", "/p", 200, []byte("x"))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "http://h/p", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "http://h/missing", nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "http://h/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("metrics status is %d", rec.Code)
	}
	metricsBody := rec.Body.String()
	if !strings.Contains(metricsBody, `replay_cache_responses_total{outcome="hit"} 1`) {
		t.Fatalf("hit counter missing from metrics output:\n%s", metricsBody)
	}
	if !strings.Contains(metricsBody, `replay_cache_responses_total{outcome="miss"} 1`) {
		t.Fatalf("miss counter missing from metrics output:\n%s", metricsBody)
	}
}
