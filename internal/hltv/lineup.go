package hltv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// lineupDateLayout is the date format of the lineup-history table.
const lineupDateLayout = "02/01/06"

// lineupRowSchema fixes which cell of a lineup-history row holds which
// field. The table pads rows with presentation cells, so fields are
// addressed through this one mapping instead of sibling hops scattered
// through the extraction code.
var lineupRowSchema = struct {
	date  int // anchor cell; also links to the map statistics page
	team1 int
	team2 int
}{date: 0, team1: 1, team2: 2}

// LineupMaps queries the lineup-history endpoint for maps played by a
// lineup containing at least minPlayers of the given five players.
//
// A row is kept only when its first team is teamID and its second team
// is one of opponentIDs; the query direction matters and no
// normalization of team order happens here. Rows dated strictly after
// cutoff are discarded when cutoff is non-zero. The result maps each
// candidate map id to its (team1, team2) pair. Callers must treat these
// ids as tentative until the opposing team's own query returns them too.
func (c *Client) LineupMaps(ctx context.Context, playerIDs []string, teamID string, opponentIDs []string, minPlayers int, cutoff time.Time) (map[string][2]string, error) {
	doc, err := c.get(ctx, lineupPath(playerIDs, minPlayers))
	if err != nil {
		return nil, err
	}
	maps, err := parseLineupMaps(doc, teamID, opponentIDs, cutoff)
	if err != nil {
		return nil, fmt.Errorf("lineup query for team %s: %w", teamID, err)
	}
	return maps, nil
}

func parseLineupMaps(doc *goquery.Document, teamID string, opponentIDs []string, cutoff time.Time) (map[string][2]string, error) {
	table := doc.Find("table.stats-table tbody").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("match table not found")
	}

	opponents := make(map[string]bool, len(opponentIDs))
	for _, id := range opponentIDs {
		opponents[id] = true
	}

	maps := make(map[string][2]string)
	var parseErr error
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.ChildrenFiltered("td")
		if cells.Length() <= lineupRowSchema.team2 {
			parseErr = fmt.Errorf("row %d: %d cells, want at least %d", i, cells.Length(), lineupRowSchema.team2+1)
			return false
		}

		dateCell := cells.Eq(lineupRowSchema.date).Find("a").First()
		when, err := time.Parse(lineupDateLayout, strings.TrimSpace(dateCell.Text()))
		if err != nil {
			parseErr = fmt.Errorf("row %d: bad date: %w", i, err)
			return false
		}
		if !cutoff.IsZero() && when.After(cutoff) {
			return true
		}

		href, ok := dateCell.Attr("href")
		if !ok {
			parseErr = fmt.Errorf("row %d: date cell has no map link", i)
			return false
		}
		mapID := pathSegment(href, 4) // /stats/matches/mapstatsid/{id}/{slug}
		if mapID == "" {
			parseErr = fmt.Errorf("row %d: no map id in href %q", i, href)
			return false
		}

		t1 := teamIDFromCell(cells.Eq(lineupRowSchema.team1))
		t2 := teamIDFromCell(cells.Eq(lineupRowSchema.team2))
		if t1 == "" || t2 == "" {
			parseErr = fmt.Errorf("row %d: missing team link", i)
			return false
		}

		// The query covers every lineup containing the five players;
		// only head-to-heads inside the event field are wanted.
		if t1 != teamID || !opponents[t2] {
			return true
		}
		maps[mapID] = [2]string{t1, t2}
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return maps, nil
}

// teamIDFromCell reads the team id out of a /stats/teams/{id}/{slug}
// anchor inside a table cell.
func teamIDFromCell(cell *goquery.Selection) string {
	href, ok := cell.Find("a").First().Attr("href")
	if !ok {
		return ""
	}
	return pathSegment(href, 3)
}
