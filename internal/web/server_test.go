package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aisdecode/internal/ais"
	"aisdecode/internal/feed"
	"aisdecode/internal/stream"
	"aisdecode/internal/vessel"
)

func getJSON(t *testing.T, url string, wantCode int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantCode {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s status=%d want %d body=%q", url, resp.StatusCode, wantCode, b)
	}
	if out == nil {
		return
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

func testStore(t *testing.T) *vessel.Store {
	t.Helper()
	s := vessel.NewStore(vessel.StoreConfig{})
	now := time.Now().UTC()
	for _, p := range []struct {
		mmsi     uint32
		lat, lon float64
	}{
		{366962000, 37.80, -122.40},
		{211339980, 53.55, 9.95},
	} {
		s.Update(now, &ais.PositionReport{
			Header:      ais.Header{MessageType: ais.TypePositionReportScheduled, MMSI: p.mmsi},
			Latitude:    p.lat,
			Longitude:   p.lon,
			TrueHeading: ais.HeadingNotAvailable,
		})
	}
	return s
}

func TestAPIStatus(t *testing.T) {
	st := NewStatus()
	st.SetSettings(map[string]any{"strict_length": true})
	st.SetSources(func() []SourceStatus {
		return []SourceStatus{{
			Feed:    feed.Snapshot{Name: "aishub", Kind: "tcp", Target: "127.0.0.1:5631", State: "connected", Lines: 3},
			Decoder: stream.Stats{Lines: 3, Messages: 2},
		}}
	})
	st.SetVesselCount(func() int { return 7 })
	st.MarkForwarded()
	st.MarkPublished(nil)
	st.MarkPublished(errors.New("broker down"))

	ts := httptest.NewServer(Handler(Deps{Status: st}))
	defer ts.Close()

	var snap StatusSnapshot
	getJSON(t, ts.URL+"/api/status", http.StatusOK, &snap)
	if snap.Service != "aisdecode" || snap.Build.GoVersion == "" {
		t.Fatalf("snapshot=%+v", snap)
	}
	if len(snap.Sources) != 1 || snap.Sources[0].Feed.Name != "aishub" || snap.Sources[0].Decoder.Messages != 2 {
		t.Fatalf("sources=%+v", snap.Sources)
	}
	if snap.Vessels != 7 || snap.Forwarded != 1 || snap.Published != 1 || snap.PublishErrors != 1 {
		t.Fatalf("counters=%+v", snap)
	}
	if snap.Settings["strict_length"] != true {
		t.Fatalf("settings=%v", snap.Settings)
	}
}

func TestAPIStatus_MethodNotAllowed(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{}))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/status", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed || resp.Header.Get("Allow") != http.MethodGet {
		t.Fatalf("status=%d allow=%q", resp.StatusCode, resp.Header.Get("Allow"))
	}
}

func TestAPIVessels(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{Vessels: testStore(t)}))
	defer ts.Close()

	var all []vessel.Vessel
	getJSON(t, ts.URL+"/api/vessels", http.StatusOK, &all)
	if len(all) != 2 || all[0].MMSI != 211339980 || all[1].MMSI != 366962000 {
		t.Fatalf("vessels=%+v", all)
	}

	var inBox []vessel.Vessel
	getJSON(t, ts.URL+"/api/vessels?bbox=37,-123,38,-122", http.StatusOK, &inBox)
	if len(inBox) != 1 || inBox[0].MMSI != 366962000 {
		t.Fatalf("bbox vessels=%+v", inBox)
	}

	var none []vessel.Vessel
	getJSON(t, ts.URL+"/api/vessels?bbox=0,0,1,1", http.StatusOK, &none)
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty list, got %+v", none)
	}
}

func TestAPIVessels_NoStore(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{}))
	defer ts.Close()

	var list []vessel.Vessel
	getJSON(t, ts.URL+"/api/vessels", http.StatusOK, &list)
	if len(list) != 0 {
		t.Fatalf("vessels=%+v", list)
	}
	getJSON(t, ts.URL+"/api/vessels/1", http.StatusNotFound, nil)
}

func TestAPIVessels_BadBBox(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{Vessels: testStore(t)}))
	defer ts.Close()

	for _, q := range []string{"1,2,3", "a,b,c,d", "10,0,5,1", "0,10,1,5", "-91,0,0,1"} {
		getJSON(t, ts.URL+"/api/vessels?bbox="+q, http.StatusBadRequest, nil)
	}
}

func TestAPIVesselByMMSI(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{Vessels: testStore(t)}))
	defer ts.Close()

	var v vessel.Vessel
	getJSON(t, ts.URL+"/api/vessels/366962000", http.StatusOK, &v)
	if v.MMSI != 366962000 || !v.HasPosition || v.Class != "A" {
		t.Fatalf("vessel=%+v", v)
	}
	getJSON(t, ts.URL+"/api/vessels/123", http.StatusNotFound, nil)
	getJSON(t, ts.URL+"/api/vessels/abc", http.StatusBadRequest, nil)
}

func TestRootPage(t *testing.T) {
	st := NewStatus()
	st.SetSources(func() []SourceStatus {
		return []SourceStatus{{Feed: feed.Snapshot{Name: "<script>", State: "connected"}}}
	})
	ts := httptest.NewServer(Handler(Deps{Status: st}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get root: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(b), "<script>") || !strings.Contains(string(b), "&lt;script&gt;") {
		t.Fatalf("expected escaped feed name, got %s", b)
	}

	getJSON(t, ts.URL+"/nope", http.StatusNotFound, nil)
}
