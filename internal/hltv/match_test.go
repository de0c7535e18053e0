package hltv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-hltv-dataset/internal/model"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type matchFixture struct {
	team1ID, team2ID string
	score1, score2   int
	description      string
	eventID          string
	eventName        string
	maps             []mapSlot
}

type mapSlot struct {
	mapID    string // empty for slots without a stats link
	pick     string // "left", "right" or ""
	optional bool
	forfeit  bool
}

func (f matchFixture) html() string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, `<div class="team1-gradient"><a href="/team/%s/x"><div class="teamName">X</div></a><div class="won">%d</div></div>`,
		f.team1ID, f.score1)
	fmt.Fprintf(&b, `<div class="team2-gradient"><a href="/team/%s/y"><div class="teamName">Y</div></a><div class="lost">%d</div></div>`,
		f.team2ID, f.score2)
	fmt.Fprintf(&b, `<div class="timeAndEvent"><div class="event"><a href="/events/%s/slug">%s</a></div></div>`,
		f.eventID, f.eventName)
	fmt.Fprintf(&b, `<div class="preformatted-text">%s</div>`, f.description)
	for _, slot := range f.maps {
		class := "mapholder"
		if slot.optional {
			class += " optional"
		}
		fmt.Fprintf(&b, `<div class="%s">`, class)
		left, right := "results-left", "results-right"
		if slot.pick == "left" {
			left += " pick"
		}
		if slot.pick == "right" {
			right += " pick"
		}
		fmt.Fprintf(&b, `<div class="%s"></div><div class="%s"></div>`, left, right)
		if slot.forfeit {
			b.WriteString(`<div class="results-center-stats">Default</div>`)
		} else if slot.mapID != "" {
			fmt.Fprintf(&b, `<div class="results-center-stats"><a class="results-stats" href="/stats/matches/mapstatsid/%s/x-vs-y">STATS</a></div>`, slot.mapID)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func baseMatchFixture() matchFixture {
	return matchFixture{
		team1ID: "4608", team2ID: "6665",
		score1: 2, score2: 1,
		description: "Best of 3 (LAN)",
		eventID:     "4866", eventName: "PGL Major Antwerp 2022",
		maps: []mapSlot{
			{mapID: "141501", pick: "left"},
			{mapID: "141502", pick: "right"},
			{mapID: "141503"},
		},
	}
}

func TestParseMatchBo3(t *testing.T) {
	rm, err := parseMatch(mustDoc(t, baseMatchFixture().html()), "2356798", testLogger())
	if err != nil {
		t.Fatalf("parseMatch: %v", err)
	}
	m := rm.match
	if m.Team1ID != "4608" || m.Team2ID != "6665" {
		t.Errorf("teams = %s/%s", m.Team1ID, m.Team2ID)
	}
	if m.Format != model.FormatBo3 {
		t.Errorf("format = %v", m.Format)
	}
	if m.Venue != model.VenueLAN {
		t.Errorf("venue = %v", m.Venue)
	}
	if m.Score != [2]int{2, 1} {
		t.Errorf("score = %v", m.Score)
	}
	if m.ScoreAmbiguous {
		t.Error("score should not be ambiguous")
	}
	wantMaps := []string{"141501", "141502", "141503"}
	if len(m.MapIDs) != 3 {
		t.Fatalf("maps = %v", m.MapIDs)
	}
	for i, id := range wantMaps {
		if m.MapIDs[i] != id {
			t.Errorf("map %d = %s, want %s", i, m.MapIDs[i], id)
		}
	}
	if rm.mapPicks["141501"] != "4608" {
		t.Errorf("141501 picked by %q", rm.mapPicks["141501"])
	}
	if rm.mapPicks["141502"] != "6665" {
		t.Errorf("141502 picked by %q", rm.mapPicks["141502"])
	}
	if rm.mapPicks["141503"] != "" {
		t.Errorf("decider attributed to %q", rm.mapPicks["141503"])
	}
	if rm.eventID != "4866" || rm.eventName != "PGL Major Antwerp 2022" {
		t.Errorf("event = %s %q", rm.eventID, rm.eventName)
	}
}

func TestParseMatchOnlineVenue(t *testing.T) {
	f := baseMatchFixture()
	f.description = "Best of 3 (Online)"
	rm, err := parseMatch(mustDoc(t, f.html()), "2356798", testLogger())
	if err != nil {
		t.Fatalf("parseMatch: %v", err)
	}
	if rm.match.Venue != model.VenueOnline {
		t.Errorf("venue = %v, want online", rm.match.Venue)
	}
}

func TestParseMatchSkipsUnplayedSlots(t *testing.T) {
	f := baseMatchFixture()
	f.maps = []mapSlot{
		{mapID: "141501", pick: "left"},
		{mapID: "141502", pick: "right", optional: true},
		{forfeit: true},
	}
	f.score1, f.score2 = 1, 0
	rm, err := parseMatch(mustDoc(t, f.html()), "2356798", testLogger())
	if err != nil {
		t.Fatalf("parseMatch: %v", err)
	}
	if len(rm.match.MapIDs) != 1 || rm.match.MapIDs[0] != "141501" {
		t.Errorf("maps = %v, want only 141501", rm.match.MapIDs)
	}
}

func TestParseMatchBo1ScoreCorrection(t *testing.T) {
	cases := []struct {
		score1, score2 int
		want           [2]int
		ambiguous      bool
	}{
		{16, 9, [2]int{1, 0}, false},
		{9, 16, [2]int{0, 1}, false},
		{19, 17, [2]int{1, 0}, false},
		{15, 15, [2]int{15, 15}, true},
	}
	for _, c := range cases {
		f := baseMatchFixture()
		f.description = "Best of 1 (Online)"
		f.score1, f.score2 = c.score1, c.score2
		f.maps = []mapSlot{{mapID: "141501", pick: "left"}}
		rm, err := parseMatch(mustDoc(t, f.html()), "2356798", testLogger())
		if err != nil {
			t.Fatalf("parseMatch(%d:%d): %v", c.score1, c.score2, err)
		}
		if rm.match.Score != c.want {
			t.Errorf("bo1 %d:%d normalized to %v, want %v", c.score1, c.score2, rm.match.Score, c.want)
		}
		if rm.match.ScoreAmbiguous != c.ambiguous {
			t.Errorf("bo1 %d:%d ambiguous = %v, want %v", c.score1, c.score2, rm.match.ScoreAmbiguous, c.ambiguous)
		}
	}
}

func TestParseMatchUnsupportedFormat(t *testing.T) {
	f := baseMatchFixture()
	f.description = "Best of 2 (Online)"
	if _, err := parseMatch(mustDoc(t, f.html()), "2356798", testLogger()); err == nil {
		t.Fatal("expected error for best-of-2")
	}
}

func TestMatchResolverCachesSiblings(t *testing.T) {
	var mapFetches, matchFetches int
	mux := http.NewServeMux()
	mux.HandleFunc("/stats/matches/mapstatsid/", func(w http.ResponseWriter, r *http.Request) {
		mapFetches++
		fmt.Fprint(w, `<html><body><a class="match-page-link" href="/matches/2356798/x-vs-y">More info</a></body></html>`)
	})
	mux.HandleFunc("/matches/", func(w http.ResponseWriter, r *http.Request) {
		matchFetches++
		fmt.Fprint(w, baseMatchFixture().html())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, Logger: testLogger()})
	resolver := NewMatchResolver(client)

	first, _, eventID, eventName, err := resolver.ResolveMap(context.Background(), "141501", "X", "Y")
	if err != nil {
		t.Fatalf("ResolveMap 141501: %v", err)
	}
	if mapFetches != 1 || matchFetches != 1 {
		t.Fatalf("fetches = %d map, %d match after first resolve", mapFetches, matchFetches)
	}
	if eventID != "4866" || eventName != "PGL Major Antwerp 2022" {
		t.Errorf("event = %s %q", eventID, eventName)
	}

	// Siblings of the same series were indexed off the match page and
	// must resolve without touching the network again.
	for _, sibling := range []string{"141502", "141503", "141501"} {
		m, _, _, _, err := resolver.ResolveMap(context.Background(), sibling, "X", "Y")
		if err != nil {
			t.Fatalf("ResolveMap %s: %v", sibling, err)
		}
		if m != first {
			t.Errorf("sibling %s resolved to a different Match value", sibling)
		}
	}
	if mapFetches != 1 || matchFetches != 1 {
		t.Errorf("fetches = %d map, %d match after sibling resolves, want 1/1", mapFetches, matchFetches)
	}
}

func TestParseParentMatchID(t *testing.T) {
	doc := mustDoc(t, `<html><body><a class="match-page-link" href="/matches/2356798/x-vs-y">More info</a></body></html>`)
	id, err := parseParentMatchID(doc)
	if err != nil {
		t.Fatalf("parseParentMatchID: %v", err)
	}
	if id != "2356798" {
		t.Errorf("match id = %q", id)
	}

	if _, err := parseParentMatchID(mustDoc(t, `<html><body></body></html>`)); err == nil {
		t.Fatal("expected error when match link missing")
	}
}
