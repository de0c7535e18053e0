package hltv

import "testing"

func TestSlug(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Natus Vincere", "natus-vincere"},
		{"FaZe", "faze"},
		{"  Ninjas in Pyjamas  ", "ninjas-in-pyjamas"},
		{"G2", "g2"},
	}
	for _, c := range cases {
		if got := Slug(c.in); got != c.want {
			t.Errorf("Slug(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPathSegment(t *testing.T) {
	cases := []struct {
		href string
		n    int
		want string
	}{
		{"/team/4608/natus-vincere", 2, "4608"},
		{"/stats/teams/4608/natus-vincere", 3, "4608"},
		{"/stats/players/7998/s1mple", 3, "7998"},
		{"/stats/matches/mapstatsid/141501/navi-vs-astralis", 4, "141501"},
		{"/matches/2356798/navi-vs-astralis", 2, "2356798"},
		{"/stats/teams/4608/navi?event=4866", 3, "4608"},
		{"/team", 2, ""},
	}
	for _, c := range cases {
		if got := pathSegment(c.href, c.n); got != c.want {
			t.Errorf("pathSegment(%q, %d) = %q, want %q", c.href, c.n, got, c.want)
		}
	}
}

func TestLineupPath(t *testing.T) {
	got := lineupPath([]string{"1", "2", "3", "4", "5"}, 5)
	want := "/stats/lineup/matches?lineup=1&lineup=2&lineup=3&lineup=4&lineup=5&minLineupMatch=5"
	if got != want {
		t.Errorf("lineupPath = %q, want %q", got, want)
	}
}

func TestEntityPaths(t *testing.T) {
	if got := eventPath("4866", "pgl-major"); got != "/events/4866/pgl-major" {
		t.Errorf("eventPath = %q", got)
	}
	if got := teamStatsPath("4608", "Natus Vincere", "4866"); got != "/stats/teams/4608/natus-vincere?event=4866" {
		t.Errorf("teamStatsPath = %q", got)
	}
	if got := mapStatsPath("141501", "Natus Vincere", "Astralis"); got != "/stats/matches/mapstatsid/141501/natus-vincere-vs-astralis" {
		t.Errorf("mapStatsPath = %q", got)
	}
	if got := economyPath("141501", "NAVI", "Astralis"); got != "/stats/matches/economy/mapstatsid/141501/navi-vs-astralis" {
		t.Errorf("economyPath = %q", got)
	}
	if got := matchPath("2356798", "NAVI", "Astralis"); got != "/matches/2356798/navi-vs-astralis" {
		t.Errorf("matchPath = %q", got)
	}
}
