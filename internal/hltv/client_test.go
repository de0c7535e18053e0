package hltv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const plainPage = `<html><head><title>Stats</title></head><body><p>ok</p></body></html>`
const blockedPage = `<html><head><title>Access denied</title></head><body></body></html>`

func TestBlockedTitle(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Access denied", true},
		{"ACCESS DENIED | site", true},
		{"Just a moment...", true},
		{"Attention Required! | Cloudflare", true},
		{"Stats", false},
		{"", false},
	}
	for _, c := range cases {
		if got := blockedTitle(c.title); got != c.want {
			t.Errorf("blockedTitle(%q) = %v, want %v", c.title, got, c.want)
		}
	}
}

func TestGetPacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, plainPage)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, MinInterval: 5 * time.Second, Logger: testLogger()})
	var slept []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	if _, err := client.get(context.Background(), "/a"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if len(slept) != 0 {
		t.Fatalf("first request should not pace, slept %v", slept)
	}
	if _, err := client.get(context.Background(), "/b"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if len(slept) != 1 {
		t.Fatalf("second request should pace once, slept %v", slept)
	}
	if slept[0] <= 0 || slept[0] > 5*time.Second {
		t.Errorf("pacing sleep = %v, want within (0, 5s]", slept[0])
	}
}

func TestGetRetriesAfterBlock(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			fmt.Fprint(w, blockedPage)
			return
		}
		fmt.Fprint(w, plainPage)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, Cooldown: 7 * time.Minute, Logger: testLogger()})
	var slept []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	doc, err := client.get(context.Background(), "/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := strings.TrimSpace(doc.Find("p").Text()); got != "ok" {
		t.Errorf("final page body = %q", got)
	}
	if requests != 3 {
		t.Errorf("requests = %d, want 3", requests)
	}
	if len(slept) != 2 {
		t.Fatalf("cooldown sleeps = %v, want 2", slept)
	}
	for _, d := range slept {
		if d != 7*time.Minute {
			t.Errorf("cooldown = %v, want 7m", d)
		}
	}
}

func TestGetBlockedStatusCodes(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, plainPage)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, Logger: testLogger()})
	client.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	if _, err := client.get(context.Background(), "/a"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if requests != 2 {
		t.Errorf("HTTP 429 should trigger a retry, requests = %d", requests)
	}
}

func TestGetGivesUpAfterMaxBlockRetries(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, blockedPage)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, MaxBlockRetries: 3, Logger: testLogger()})
	client.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	_, err := client.get(context.Background(), "/a")
	if err == nil {
		t.Fatal("expected error after exhausting block retries")
	}
	if !strings.Contains(err.Error(), "still blocked") {
		t.Errorf("error = %v", err)
	}
	if requests != 3 {
		t.Errorf("requests = %d, want 3", requests)
	}
}

func TestGetBlockRetryHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, blockedPage)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(Config{BaseURL: srv.URL, Cooldown: time.Hour, Logger: testLogger()})
	client.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := client.get(ctx, "/a")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestGetSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, Logger: testLogger()})
	_, err := client.get(context.Background(), "/a")
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Fatalf("error = %v, want HTTP 500", err)
	}
}
