package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCallDecodesResponseAndSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rpc/comments.v1/GetComments" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request id")
		}

		var req GetCommentsRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.EpisodeID != "ep-1" {
			t.Errorf("unexpected episode %q", req.EpisodeID)
		}
		w.Write([]byte(`{"comments":[{"id":"c1","timestampMs":42,"body":"hi"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok")
	resp, err := Call(context.Background(), c, GetComments, GetCommentsRequest{EpisodeID: "ep-1"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if len(resp.Comments) != 1 || resp.Comments[0].TimestampMs != 42 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRetriesTemporaryFailuresWithStableRequestID(t *testing.T) {
	var mu sync.Mutex
	var ids []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ids = append(ids, r.Header.Get(RequestIDHeader))
		n := len(ids)
		mu.Unlock()

		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithBackoff(time.Millisecond))
	_, err := Call(context.Background(), c, SyncMeterReading,
		SyncMeterReadingRequest{SeasonID: "s1", WatchTimeMs: 100},
		CallOptions{Retries: 5, KeepAlive: true, Timeout: time.Second})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ids) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(ids))
	}
	if ids[0] != ids[1] || ids[1] != ids[2] {
		t.Errorf("request id changed between retries: %v", ids)
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"watchTimeMs must be positive"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithBackoff(time.Millisecond))
	_, err := Call(context.Background(), c, SyncMeterReading,
		SyncMeterReadingRequest{SeasonID: "s1"}, CallOptions{Retries: 5})

	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "watchTimeMs must be positive" {
		t.Errorf("expected server message to survive, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", attempts.Load())
	}
}

func TestGivesUpAfterRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithBackoff(time.Millisecond))
	_, err := Call(context.Background(), c, GetComments, GetCommentsRequest{EpisodeID: "x"}, CallOptions{Retries: 2})
	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 1 + 2 retries = 3 attempts, got %d", attempts.Load())
	}
}

func TestUnauthorizedSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := Call(context.Background(), NewClient(srv.URL, ""), GetComments, GetCommentsRequest{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, "", WithBackoff(time.Millisecond))
	start := time.Now()
	_, err := Call(context.Background(), c, GetComments, GetCommentsRequest{},
		CallOptions{Retries: 1, Timeout: 20 * time.Millisecond})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("timeout was not applied per attempt")
	}
}
