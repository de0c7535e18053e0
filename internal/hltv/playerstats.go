package hltv

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-hltv-dataset/internal/model"
)

// boxScoreSchema maps box-score fields to the cell class that carries
// them. The two player tables on a map statistics page share this
// layout; addressing cells by class here keeps the extraction free of
// positional arithmetic.
var boxScoreSchema = struct {
	player, kills, assists, deaths, kast, adr, fk, rating string
}{
	player:  "td.st-player",
	kills:   "td.st-kills",   // "24 (12)" — kills (headshot kills)
	assists: "td.st-assists", // "5 (2)" — assists (flash assists)
	deaths:  "td.st-deaths",
	kast:    "td.st-kast", // "71.4%"
	adr:     "td.st-adr",
	fk:      "td.st-fkdiff", // "4 : 2" — first kills : first deaths
	rating:  "td.st-rating",
}

type boxScoreRow struct {
	playerID   string
	playerName string
	stat       model.PlayerMapStat
}

// PlayerStats fetches a map's box score for both rosters. The supplied
// team and player tables are extended in place whenever a row names a
// player the event directory never listed: the directory roster is a
// best-effort seed, the box score is authoritative for who played.
func (c *Client) PlayerStats(ctx context.Context, mapID, team1Name, team2Name, team1ID, team2ID string, teams map[string]*model.Team, players map[string]*model.Player) (map[model.MapPlayerKey]*model.PlayerMapStat, error) {
	doc, err := c.get(ctx, mapStatsPath(mapID, team1Name, team2Name))
	if err != nil {
		return nil, err
	}
	tables, err := parseBoxScoreTables(doc)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", mapID, err)
	}

	teamIDs := [2]string{team1ID, team2ID}
	stats := make(map[model.MapPlayerKey]*model.PlayerMapStat)
	for side, table := range tables {
		teamID := teamIDs[side]
		for _, row := range table {
			s := row.stat
			s.MapID = mapID
			s.PlayerID = row.playerID
			s.TeamID = teamID
			stats[model.MapPlayerKey{MapID: mapID, PlayerID: row.playerID}] = &s

			if _, known := players[row.playerID]; !known {
				players[row.playerID] = &model.Player{ID: row.playerID, Name: row.playerName}
			}
			team, ok := teams[teamID]
			if !ok {
				return nil, fmt.Errorf("map %s: box score references unknown team %s", mapID, teamID)
			}
			if !team.HasPlayer(row.playerID) {
				team.PlayerIDs = append(team.PlayerIDs, row.playerID)
				c.log.WithFields(logrus.Fields{
					"map":    mapID,
					"team":   teamID,
					"player": row.playerID,
					"name":   row.playerName,
				}).Warn("box score names a player missing from the roster, self-healing")
			}
		}
	}
	return stats, nil
}

// parseBoxScoreTables reads the two per-team player tables of a map
// statistics page, first table = team1. Used both for the box score
// itself and for the roster snapshots on the Map record.
func parseBoxScoreTables(doc *goquery.Document) ([2][]boxScoreRow, error) {
	var out [2][]boxScoreRow
	tables := doc.Find("table.stats-table.totalstats")
	if tables.Length() != 2 {
		return out, fmt.Errorf("want 2 player tables, got %d", tables.Length())
	}

	var parseErr error
	for side := 0; side < 2; side++ {
		tables.Eq(side).Find("tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
			r, err := parseBoxScoreRow(row)
			if err != nil {
				parseErr = fmt.Errorf("table %d row %d: %w", side+1, i+1, err)
				return false
			}
			out[side] = append(out[side], r)
			return true
		})
		if parseErr != nil {
			return out, parseErr
		}
		if len(out[side]) == 0 {
			return out, fmt.Errorf("table %d has no player rows", side+1)
		}
	}
	return out, nil
}

func parseBoxScoreRow(row *goquery.Selection) (boxScoreRow, error) {
	var r boxScoreRow

	link := row.Find(boxScoreSchema.player + " a").First()
	href, ok := link.Attr("href")
	if !ok {
		return r, fmt.Errorf("no player link")
	}
	r.playerID = pathSegment(href, 3) // /stats/players/{id}/{slug}
	r.playerName = strings.TrimSpace(link.Text())
	if r.playerID == "" || r.playerName == "" {
		return r, fmt.Errorf("malformed player cell (href %q)", href)
	}

	var err error
	if r.stat.Kills, r.stat.HeadshotKills, err = countWithParen(cellText(row, boxScoreSchema.kills)); err != nil {
		return r, fmt.Errorf("kills: %w", err)
	}
	if r.stat.Assists, r.stat.FlashAssists, err = countWithParen(cellText(row, boxScoreSchema.assists)); err != nil {
		return r, fmt.Errorf("assists: %w", err)
	}
	if r.stat.Deaths, err = strconv.Atoi(cellText(row, boxScoreSchema.deaths)); err != nil {
		return r, fmt.Errorf("deaths: %w", err)
	}
	kast := strings.TrimSuffix(cellText(row, boxScoreSchema.kast), "%")
	if r.stat.KAST, err = strconv.ParseFloat(kast, 64); err != nil {
		return r, fmt.Errorf("kast: %w", err)
	}
	if r.stat.ADR, err = strconv.ParseFloat(cellText(row, boxScoreSchema.adr), 64); err != nil {
		return r, fmt.Errorf("adr: %w", err)
	}
	if r.stat.FirstKills, r.stat.FirstDeaths, err = splitIntPair(cellText(row, boxScoreSchema.fk)); err != nil {
		return r, fmt.Errorf("first kills: %w", err)
	}
	if r.stat.Rating, err = strconv.ParseFloat(cellText(row, boxScoreSchema.rating), 64); err != nil {
		return r, fmt.Errorf("rating: %w", err)
	}
	return r, nil
}

func cellText(row *goquery.Selection, selector string) string {
	return strings.TrimSpace(row.Find(selector).First().Text())
}

// countWithParen parses the "24 (12)" cells that pair a count with a
// qualified sub-count.
func countWithParen(s string) (int, int, error) {
	main, rest, ok := strings.Cut(s, "(")
	if !ok {
		return 0, 0, fmt.Errorf("no parenthesized count in %q", s)
	}
	a, err := strconv.Atoi(strings.TrimSpace(main))
	if err != nil {
		return 0, 0, fmt.Errorf("bad count %q", s)
	}
	b, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ")")))
	if err != nil {
		return 0, 0, fmt.Errorf("bad count %q", s)
	}
	return a, b, nil
}
