package web

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestLogBuffer_SplitsLinesAcrossWrites(t *testing.T) {
	b := NewLogBuffer(10)
	_, _ = b.Write([]byte("first\nsec"))
	_, _ = b.Write([]byte("ond\r\n\nthird"))

	lines, dropped := b.Snapshot(0)
	if !reflect.DeepEqual(lines, []string{"first", "second"}) || dropped != 0 {
		t.Fatalf("lines=%q dropped=%d", lines, dropped)
	}
	_, _ = b.Write([]byte("\n"))
	lines, _ = b.Snapshot(1)
	if !reflect.DeepEqual(lines, []string{"third"}) {
		t.Fatalf("lines=%q", lines)
	}
}

func TestLogBuffer_DropsOldest(t *testing.T) {
	b := NewLogBuffer(2)
	logger := log.New(b, "", 0)
	logger.Printf("a")
	logger.Printf("b")
	logger.Printf("c")

	lines, dropped := b.Snapshot(10)
	if !reflect.DeepEqual(lines, []string{"b", "c"}) || dropped != 1 {
		t.Fatalf("lines=%q dropped=%d", lines, dropped)
	}
}

func TestLogBuffer_Handler(t *testing.T) {
	b := NewLogBuffer(10)
	_, _ = io.WriteString(b, "stream: checksum mismatch\nfeed: connected\n")
	ts := httptest.NewServer(Handler(Deps{Logs: b}))
	defer ts.Close()

	var resp LogsResponse
	getJSON(t, ts.URL+"/api/logs?tail=1", http.StatusOK, &resp)
	if !reflect.DeepEqual(resp.Lines, []string{"feed: connected"}) {
		t.Fatalf("lines=%q", resp.Lines)
	}

	r, err := http.Get(ts.URL + "/api/logs?format=text")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer r.Body.Close()
	body, _ := io.ReadAll(r.Body)
	if !strings.HasPrefix(string(body), "stream: checksum mismatch\n") {
		t.Fatalf("body=%q", body)
	}

	getJSON(t, ts.URL+"/api/logs?tail=0", http.StatusBadRequest, nil)
}
