package model

import (
	"testing"
	"time"
)

func TestClassifyBuy(t *testing.T) {
	cases := []struct {
		value int
		want  BuyType
	}{
		{0, BuyEco},
		{5000, BuyEco},
		{5001, BuySemiEco},
		{10000, BuySemiEco},
		{10001, BuySemiBuy},
		{20000, BuySemiBuy},
		{20001, BuyFullBuy},
		{31500, BuyFullBuy},
	}
	for _, c := range cases {
		if got := ClassifyBuy(c.value); got != c.want {
			t.Errorf("ClassifyBuy(%d) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestEnumStringParseRoundTrip(t *testing.T) {
	for _, f := range []SeriesFormat{FormatBo1, FormatBo3, FormatBo5} {
		got, err := ParseSeriesFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParseSeriesFormat(%q) = %v, %v", f.String(), got, err)
		}
	}
	for _, v := range []Venue{VenueLAN, VenueOnline} {
		got, err := ParseVenue(v.String())
		if err != nil || got != v {
			t.Errorf("ParseVenue(%q) = %v, %v", v.String(), got, err)
		}
	}
	for _, w := range []WinCondition{WinElimination, WinDefuse, WinDetonation, WinTimeout} {
		got, err := ParseWinCondition(w.String())
		if err != nil || got != w {
			t.Errorf("ParseWinCondition(%q) = %v, %v", w.String(), got, err)
		}
	}
	for _, b := range []BuyType{BuyNone, BuyEco, BuySemiEco, BuySemiBuy, BuyFullBuy} {
		got, err := ParseBuyType(b.String())
		if err != nil || got != b {
			t.Errorf("ParseBuyType(%q) = %v, %v", b.String(), got, err)
		}
	}
	if _, err := ParseSeriesFormat("bo7"); err == nil {
		t.Error("ParseSeriesFormat should reject bo7")
	}
	if _, err := ParseWinCondition("surrender"); err == nil {
		t.Error("ParseWinCondition should reject unknown conditions")
	}
}

func TestMapScores(t *testing.T) {
	m := &Map{
		ID:      "141501",
		Date:    time.Now(),
		Team1ID: "4608",
		Team2ID: "6665",
		HalfScores: [2][2]int{
			{8, 7},
			{7, 8},
		},
		OTScores: [2]int{4, 2},
	}
	if got := m.RegulationScore(); got != [2]int{15, 15} {
		t.Errorf("regulation = %v", got)
	}
	if got := m.TotalScore(); got != [2]int{19, 17} {
		t.Errorf("total = %v", got)
	}
	if got := m.WinnerID(); got != "4608" {
		t.Errorf("winner = %s", got)
	}

	m.OTScores = [2]int{2, 4}
	if got := m.WinnerID(); got != "6665" {
		t.Errorf("winner after flipped OT = %s", got)
	}
}

func TestTeamHasPlayer(t *testing.T) {
	team := &Team{ID: "4608", PlayerIDs: []string{"a", "b"}}
	if !team.HasPlayer("a") {
		t.Error("expected a on roster")
	}
	if team.HasPlayer("c") {
		t.Error("c is not on the roster")
	}
}

func TestRoundHasEconomy(t *testing.T) {
	r := &Round{Num: 1, WinnerID: "4608", Win: WinElimination}
	if r.HasEconomy() {
		t.Error("round without buy data should report no economy")
	}
	r.BuyType = [2]BuyType{BuyEco, BuyFullBuy}
	if !r.HasEconomy() {
		t.Error("round with buy data should report economy")
	}
}
