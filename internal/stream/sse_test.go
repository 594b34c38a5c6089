package stream

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"examboard-api/internal/broker"
	"examboard-api/internal/models"
)

type sseClient struct {
	resp  *http.Response
	lines chan string
}

// openStream connects to the SSE endpoint and returns once the initial
// ": connected" comment arrives, so the subscription is known to be live.
func openStream(t *testing.T, url string) *sseClient {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache, no-transform" {
		t.Fatalf("Cache-Control = %q", cc)
	}

	c := &sseClient{resp: resp, lines: make(chan string, 64)}
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			c.lines <- sc.Text()
		}
		close(c.lines)
	}()

	if got := c.next(t); got != ": connected" {
		t.Fatalf("first frame = %q, want the connected comment", got)
	}
	return c
}

func (c *sseClient) next(t *testing.T) string {
	t.Helper()
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				t.Fatal("stream closed early")
			}
			if line == "" {
				continue // frame separator
			}
			return line
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for a frame")
		}
	}
}

func (c *sseClient) close() { c.resp.Body.Close() }

func waitForSubscribers(t *testing.T, b *broker.Broker, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.Subscribers(room) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %q has %d subscribers, want %d", room, b.Subscribers(room), want)
}

func attempt(name, state, timeTaken string) *models.Row {
	r := models.NewRow()
	r.Set("First name", name)
	r.Set("State", state)
	r.Set("Time taken", timeTaken)
	return r
}

func TestSSEDeliversPublishedSnapshots(t *testing.T) {
	b := broker.New()
	srv := httptest.NewServer(SSE(b))
	defer srv.Close()

	c := openStream(t, srv.URL+"?room=IF-48-INT")
	defer c.close()

	b.Publish("IF-48-INT", models.Snapshot{attempt("Alice", "Finished", "5 mins")})

	line := c.next(t)
	if !strings.HasPrefix(line, "data: ") {
		t.Fatalf("frame = %q, want a data frame", line)
	}
	var rows []*models.Row
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &rows); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if len(rows) != 1 || rows[0].Value("First name") != "Alice" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestSSEScopesDeliveryToRoom(t *testing.T) {
	b := broker.New()
	srv := httptest.NewServer(SSE(b))
	defer srv.Close()

	c := openStream(t, srv.URL+"?room=a")
	defer c.close()

	b.Publish("b", models.Snapshot{attempt("Bob", "Finished", "1 min")})
	b.Publish("a", models.Snapshot{attempt("Alice", "Finished", "5 mins")})

	line := c.next(t)
	if !strings.Contains(line, "Alice") || strings.Contains(line, "Bob") {
		t.Fatalf("frame = %q, want only room a's snapshot", line)
	}
}

func TestSSERankedOrdersRows(t *testing.T) {
	b := broker.New()
	srv := httptest.NewServer(SSE(b))
	defer srv.Close()

	c := openStream(t, srv.URL+"?room=r&ranked=1")
	defer c.close()

	snap := models.Snapshot{
		attempt("Running", "In progress", "10 mins"),
		attempt("Slow", "Finished", "1 hour"),
		attempt("Fast", "Finished", "5 mins"),
	}
	b.Publish("r", snap)

	line := c.next(t)
	var rows []*models.Row
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &rows); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	got := []string{rows[0].Value("First name"), rows[1].Value("First name"), rows[2].Value("First name")}
	want := []string{"Fast", "Slow", "Running"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranked order = %v, want %v", got, want)
		}
	}
	// The published snapshot itself must keep source order.
	if snap[0].Value("First name") != "Running" {
		t.Fatal("ranking must not mutate the published snapshot")
	}
}

func TestSSEDisconnectUnsubscribes(t *testing.T) {
	b := broker.New()
	srv := httptest.NewServer(SSE(b))
	defer srv.Close()

	c := openStream(t, srv.URL+"?room=r")
	waitForSubscribers(t, b, "r", 1)

	c.close()
	waitForSubscribers(t, b, "r", 0)

	// Publishing after the disconnect must be a harmless no-op.
	b.Publish("r", models.Snapshot{attempt("Alice", "Finished", "5 mins")})
}
