// Package report renders the dataset as terminal tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pable/go-hltv-dataset/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func teamName(ds *model.Dataset, id string) string {
	if t, ok := ds.Teams[id]; ok {
		return t.Name
	}
	return id
}

func playerName(ds *model.Dataset, id string) string {
	if p, ok := ds.Players[id]; ok {
		return p.Name
	}
	return id
}

// eventNameForMatch finds the event a match is attributed to.
func eventNameForMatch(ds *model.Dataset, matchID string) string {
	for _, e := range ds.Events {
		for _, id := range e.MatchIDs {
			if id == matchID {
				return e.Name
			}
		}
	}
	return ""
}

// PrintMatchList prints one row per match, newest map first.
func PrintMatchList(w io.Writer, ds *model.Dataset) {
	type row struct {
		match *model.Match
		date  string
	}
	rows := make([]row, 0, len(ds.Matches))
	for _, m := range ds.Matches {
		date := ""
		for _, mapID := range m.MapIDs {
			if mp, ok := ds.Maps[mapID]; ok {
				d := mp.Date.Format("2006-01-02")
				if date == "" || d < date {
					date = d
				}
			}
		}
		rows = append(rows, row{match: m, date: date})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].date != rows[j].date {
			return rows[i].date > rows[j].date
		}
		return rows[i].match.ID < rows[j].match.ID
	})

	table := newTable(w)
	table.Header("ID", "DATE", "TEAM 1", "TEAM 2", "SCORE", "FORMAT", "VENUE", "MAPS", "EVENT")
	for _, r := range rows {
		m := r.match
		score := fmt.Sprintf("%d–%d", m.Score[0], m.Score[1])
		if m.ScoreAmbiguous {
			score += " (?)"
		}
		table.Append(
			m.ID,
			r.date,
			teamName(ds, m.Team1ID),
			teamName(ds, m.Team2ID),
			score,
			m.Format.String(),
			m.Venue.String(),
			strconv.Itoa(len(m.MapIDs)),
			eventNameForMatch(ds, m.ID),
		)
	}
	table.Render()
}

// PrintMatchSummary prints the one-line header for a match.
func PrintMatchSummary(w io.Writer, ds *model.Dataset, m *model.Match) {
	event := eventNameForMatch(ds, m.ID)
	fmt.Fprintf(w, "\n%s %d – %d %s  |  %s, %s  |  %s\n\n",
		teamName(ds, m.Team1ID), m.Score[0], m.Score[1], teamName(ds, m.Team2ID),
		m.Format.String(), m.Venue.String(), event)
}

// PrintMapTable prints one row per played map of a match.
func PrintMapTable(w io.Writer, ds *model.Dataset, m *model.Match) {
	table := newTable(w)
	table.Header("MAP ID", "MAP", "DATE", "SCORE", "H1", "H2", "OT", "PICKED BY", "CT START")
	for _, mapID := range m.MapIDs {
		mp, ok := ds.Maps[mapID]
		if !ok {
			continue
		}
		total := mp.TotalScore()
		ot := "—"
		if mp.OTScores[0]+mp.OTScores[1] > 0 {
			ot = fmt.Sprintf("%d:%d", mp.OTScores[0], mp.OTScores[1])
		}
		picker := "decider"
		if mp.PickedBy != "" {
			picker = teamName(ds, mp.PickedBy)
		}
		table.Append(
			mp.ID,
			mp.Name,
			mp.Date.Format("2006-01-02"),
			fmt.Sprintf("%d:%d", total[0], total[1]),
			fmt.Sprintf("%d:%d", mp.HalfScores[0][0], mp.HalfScores[0][1]),
			fmt.Sprintf("%d:%d", mp.HalfScores[1][0], mp.HalfScores[1][1]),
			ot,
			picker,
			teamName(ds, mp.CTStartTeamID),
		)
	}
	table.Render()
}

// PrintBoxScore prints both teams' player rows for one map, team 1
// first, each team sorted by rating descending.
func PrintBoxScore(w io.Writer, ds *model.Dataset, mp *model.Map) {
	var rows []*model.PlayerMapStat
	for key, s := range ds.Stats {
		if key.MapID == mp.ID {
			rows = append(rows, s)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.TeamID != b.TeamID {
			// Team 1 block first.
			return (a.TeamID == mp.Team1ID) && (b.TeamID != mp.Team1ID)
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.PlayerID < b.PlayerID
	})

	table := newTable(w)
	table.Header("PLAYER", "TEAM", "K (HS)", "A (F)", "D", "+/-", "KAST%", "ADR", "FK DIFF", "RATING")
	for _, s := range rows {
		table.Append(
			playerName(ds, s.PlayerID),
			teamName(ds, s.TeamID),
			fmt.Sprintf("%d (%d)", s.Kills, s.HeadshotKills),
			fmt.Sprintf("%d (%d)", s.Assists, s.FlashAssists),
			strconv.Itoa(s.Deaths),
			fmt.Sprintf("%+d", s.KDDiff()),
			fmt.Sprintf("%.1f%%", s.KAST),
			fmt.Sprintf("%.1f", s.ADR),
			fmt.Sprintf("%+d", s.FKDiff()),
			fmt.Sprintf("%.2f", s.Rating),
		)
	}
	table.Render()
}

// PrintRoundLog prints the round-by-round record of one map.
func PrintRoundLog(w io.Writer, ds *model.Dataset, mp *model.Map) {
	table := newTable(w)
	table.Header("ROUND", "WINNER", "WIN BY", "BUY 1", "BUY 2")
	for _, r := range mp.Rounds {
		buy1, buy2 := "—", "—"
		if r.HasEconomy() {
			buy1 = fmt.Sprintf("%d (%s)", r.Buy[0], r.BuyType[0])
			buy2 = fmt.Sprintf("%d (%s)", r.Buy[1], r.BuyType[1])
		}
		table.Append(
			strconv.Itoa(r.Num),
			teamName(ds, r.WinnerID),
			r.Win.String(),
			buy1,
			buy2,
		)
	}
	table.Render()
}
