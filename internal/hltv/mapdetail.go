package hltv

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-hltv-dataset/internal/model"
)

// mapDateLayout is the date format of the map statistics info box.
const mapDateLayout = "2006-01-02 15:04"

// playableMaps is the active duty pool; a map page naming anything else
// means the page layout (or the game) changed under us.
var playableMaps = map[string]bool{
	"Ancient":  true,
	"Dust2":    true,
	"Inferno":  true,
	"Mirage":   true,
	"Nuke":     true,
	"Overpass": true,
	"Train":    true,
	"Vertigo":  true,
}

// MapDetail fetches a map's statistics page and builds the full Map
// record: scores per half and overtime, CT-start side, team ratings,
// first kills, clutches, rosters, and the round-by-round outcome log
// (with economy data when the companion economy page exists).
//
// matchTeam1ID/matchTeam2ID are the match-level team ids the map is
// validated against; on disagreement the match-level ids win and a
// warning is logged. The second return is false for a structurally
// invalid map (neither side reached the regulation win threshold), in
// which case no Map is produced and the caller should prune the id.
func (c *Client) MapDetail(ctx context.Context, mapID, team1Name, team2Name, matchTeam1ID, matchTeam2ID, pickedBy string) (*model.Map, bool, error) {
	doc, err := c.get(ctx, mapStatsPath(mapID, team1Name, team2Name))
	if err != nil {
		return nil, false, err
	}

	m, valid, err := parseMapDetail(doc, mapID, matchTeam1ID, matchTeam2ID, c.log)
	if err != nil {
		return nil, false, fmt.Errorf("map %s: %w", mapID, err)
	}
	if !valid {
		return nil, false, nil
	}
	m.PickedBy = pickedBy

	// Economy data is optional: plenty of maps have no economy page.
	// Its absence degrades the rounds to winner/condition only.
	econDoc, err := c.get(ctx, economyPath(mapID, team1Name, team2Name))
	if err != nil {
		c.log.WithFields(logrus.Fields{"map": mapID, "err": err}).Info("no economy page, emitting rounds without buy data")
		return m, true, nil
	}
	buys, ok := parseEconomy(econDoc)
	if !ok {
		c.log.WithField("map", mapID).Info("economy section missing, emitting rounds without buy data")
		return m, true, nil
	}
	if len(buys[0]) < len(m.Rounds) || len(buys[1]) < len(m.Rounds) {
		c.log.WithFields(logrus.Fields{
			"map": mapID, "rounds": len(m.Rounds), "econ_rounds": len(buys[0]),
		}).Warn("economy page covers fewer rounds than played, dropping buy data")
		return m, true, nil
	}
	for i := range m.Rounds {
		m.Rounds[i].Buy = [2]int{buys[0][i], buys[1][i]}
		m.Rounds[i].BuyType = [2]model.BuyType{
			model.ClassifyBuy(buys[0][i]),
			model.ClassifyBuy(buys[1][i]),
		}
	}
	return m, true, nil
}

func parseMapDetail(doc *goquery.Document, mapID, matchTeam1ID, matchTeam2ID string, log *logrus.Logger) (*model.Map, bool, error) {
	box := doc.Find("div.match-info-box").First()
	if box.Length() == 0 {
		return nil, false, fmt.Errorf("match info box not found")
	}

	mapName := labeledText(box, "Map")
	if !playableMaps[mapName] {
		return nil, false, fmt.Errorf("unknown map name %q", mapName)
	}
	date, err := time.Parse(mapDateLayout, labeledText(box, "Date"))
	if err != nil {
		return nil, false, fmt.Errorf("bad date: %w", err)
	}

	team1ID, total1, err := parseMapTeam(box, "div.team-left")
	if err != nil {
		return nil, false, err
	}
	team2ID, total2, err := parseMapTeam(box, "div.team-right")
	if err != nil {
		return nil, false, err
	}

	// The match-level ids are authoritative; the map page's own ids are
	// only cross-checked. A mismatch is a data-quality warning, not a
	// reason to abort the map.
	if team1ID != matchTeam1ID || team2ID != matchTeam2ID {
		log.WithFields(logrus.Fields{
			"map":         mapID,
			"map_teams":   team1ID + "," + team2ID,
			"match_teams": matchTeam1ID + "," + matchTeam2ID,
		}).Warn("map page team ids disagree with match page, using match ids")
	}

	m := &model.Map{
		ID:      mapID,
		Date:    date,
		Name:    mapName,
		Team1ID: matchTeam1ID,
		Team2ID: matchTeam2ID,
	}

	var breakdownSeen bool
	var parseErr error
	doc.Find("div.match-info-row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		label := strings.TrimSpace(row.Find("div.bold").Text())
		value := row.Find("div.right")
		switch label {
		case "Breakdown":
			breakdownSeen = true
			parseErr = parseBreakdown(value, m)
		case "Team rating":
			m.TeamRating[0], m.TeamRating[1], parseErr = splitFloatPair(value.Text())
		case "First kills":
			m.FirstKills[0], m.FirstKills[1], parseErr = splitIntPair(value.Text())
		case "Clutches won":
			m.Clutches[0], m.Clutches[1], parseErr = splitIntPair(value.Text())
		}
		if parseErr != nil {
			parseErr = fmt.Errorf("%s row: %w", label, parseErr)
		}
		return parseErr == nil
	})
	if parseErr != nil {
		return nil, false, parseErr
	}
	if !breakdownSeen {
		return nil, false, fmt.Errorf("breakdown row not found")
	}

	// Validity: under MR16 at least one side must reach 16 in
	// regulation; anything else is a non-standard ruleset and the map is
	// excluded from the dataset.
	reg := m.RegulationScore()
	if reg[0] < model.RegulationWinThreshold && reg[1] < model.RegulationWinThreshold {
		return nil, false, nil
	}

	// Reconstruct the overtime side split and check it against the
	// totals displayed in the team boxes. This equality is an invariant
	// of the reconstruction, not a best-effort sanity log.
	team1CT := m.CTStartTeamID == m.Team1ID
	ct, t := overtimeRoleSplit(!team1CT, m.OTScores)
	rec1 := reg[0] + ct[0] + t[0]
	rec2 := reg[1] + ct[1] + t[1]
	if rec1 != total1 || rec2 != total2 {
		return nil, false, fmt.Errorf("reconstructed score %d:%d disagrees with displayed %d:%d", rec1, rec2, total1, total2)
	}

	rounds, err := parseRoundHistory(doc, m.Team1ID, m.Team2ID)
	if err != nil {
		return nil, false, err
	}
	if len(rounds) != total1+total2 {
		return nil, false, fmt.Errorf("round history has %d rounds, score says %d", len(rounds), total1+total2)
	}
	m.Rounds = rounds

	rosters, err := parseBoxScoreTables(doc)
	if err != nil {
		return nil, false, err
	}
	for side, table := range rosters {
		for _, row := range table {
			m.Rosters[side] = append(m.Rosters[side], row.playerID)
		}
	}

	return m, true, nil
}

// parseBreakdown reads the half scores, optional overtime score, and
// CT-start marker out of the breakdown row. The row holds one span per
// half ("10:5"), colored by the role team-left played in that half, and
// a final span with the overtime score when the map went past
// regulation.
func parseBreakdown(value *goquery.Selection, m *model.Map) error {
	spans := value.Find("span")
	if spans.Length() < 2 {
		return fmt.Errorf("want at least 2 half spans, got %d", spans.Length())
	}
	for half := 0; half < 2; half++ {
		a, b, err := splitIntPair(spans.Eq(half).Text())
		if err != nil {
			return fmt.Errorf("half %d: %w", half+1, err)
		}
		m.HalfScores[half] = [2]int{a, b}
	}

	// The first-half span's color class tells which role team-left
	// (team1) started on.
	switch {
	case spans.Eq(0).HasClass("ct-color"):
		m.CTStartTeamID = m.Team1ID
	case spans.Eq(0).HasClass("t-color"):
		m.CTStartTeamID = m.Team2ID
	default:
		return fmt.Errorf("first half span has no side color class")
	}

	if spans.Length() > 2 {
		a, b, err := splitIntPair(spans.Eq(2).Text())
		if err != nil {
			return fmt.Errorf("overtime: %w", err)
		}
		m.OTScores = [2]int{a, b}
	}
	return nil
}

// overtimeRoleSplit attributes each side's overtime round wins to the
// CT and T roles. Overtime runs in three-round half-periods whose
// starting side alternates, beginning opposite to whichever side played
// CT in the second regulation half. The declared totals are consumed in
// period-sized bites; the final decisive round goes to whichever side
// still holds a positive remainder, on the role of the next period.
func overtimeRoleSplit(team1SecondHalfCT bool, ot [2]int) (ct, t [2]int) {
	rem := ot
	team1CT := team1SecondHalfCT
	for rem[0] >= 0 && rem[1] >= 0 {
		team1CT = !team1CT
		take0 := min(3, rem[0])
		take1 := min(3, rem[1])
		if team1CT {
			ct[0] += take0
			t[1] += take1
		} else {
			t[0] += take0
			ct[1] += take1
		}
		rem[0] -= 3
		rem[1] -= 3
	}
	team1CT = !team1CT
	switch {
	case rem[0] > 0:
		if team1CT {
			ct[0] += rem[0]
		} else {
			t[0] += rem[0]
		}
	case rem[1] > 0:
		if team1CT {
			t[1] += rem[1]
		} else {
			ct[1] += rem[1]
		}
	}
	return ct, t
}

// winConditionFromIcon maps a round-history icon asset name to the win
// condition it denotes. Both elimination icons (one per side) collapse
// into a single condition; the winning side is known from which row the
// icon sits in.
func winConditionFromIcon(asset string) (model.WinCondition, bool) {
	switch {
	case strings.Contains(asset, "t_win"), strings.Contains(asset, "ct_win"):
		return model.WinElimination, true
	case strings.Contains(asset, "bomb_defused"):
		return model.WinDefuse, true
	case strings.Contains(asset, "bomb_exploded"):
		return model.WinDetonation, true
	case strings.Contains(asset, "stopwatch"):
		return model.WinTimeout, true
	}
	return model.WinUnknown, false
}

// emptyOutcome reports whether an icon slot is the unrendered filler
// the site uses past the last played round.
func emptyOutcome(asset string) bool {
	return asset == "" || strings.Contains(asset, "emptyHistory")
}

// parseRoundHistory decodes the round-by-round widget: two icon rows,
// one per team, one outcome icon per round position. For every played
// round exactly one row shows a non-empty icon; the first position where
// both rows are empty ends the log.
func parseRoundHistory(doc *goquery.Document, team1ID, team2ID string) ([]model.Round, error) {
	rows := doc.Find("div.round-history-team-row")
	if rows.Length() != 2 {
		return nil, fmt.Errorf("want 2 round history rows, got %d", rows.Length())
	}
	icons1 := rows.Eq(0).Find("img.round-history-outcome")
	icons2 := rows.Eq(1).Find("img.round-history-outcome")

	n := min(icons1.Length(), icons2.Length())
	var rounds []model.Round
	for i := 0; i < n; i++ {
		asset1, _ := icons1.Eq(i).Attr("src")
		asset2, _ := icons2.Eq(i).Attr("src")
		e1, e2 := emptyOutcome(asset1), emptyOutcome(asset2)
		if e1 && e2 {
			break
		}
		if !e1 && !e2 {
			return nil, fmt.Errorf("round %d: both sides show an outcome", i+1)
		}

		winner, asset := team1ID, asset1
		if e1 {
			winner, asset = team2ID, asset2
		}
		win, ok := winConditionFromIcon(asset)
		if !ok {
			return nil, fmt.Errorf("round %d: unknown outcome icon %q", i+1, asset)
		}
		rounds = append(rounds, model.Round{Num: i + 1, WinnerID: winner, Win: win})
	}
	return rounds, nil
}

// parseEconomy reads the two per-team equipment rows of the economy
// page: one value cell per round, in round order. Returns ok=false when
// the page carries no equipment section at all (legitimate partial
// data, not an error).
func parseEconomy(doc *goquery.Document) (buys [2][]int, ok bool) {
	rows := doc.Find("table.equipment-categories tr")
	if rows.Length() != 2 {
		return buys, false
	}
	for side := 0; side < 2; side++ {
		valid := true
		rows.Eq(side).Find("td.equipment-category-td").Each(func(_ int, cell *goquery.Selection) {
			v, err := strconv.Atoi(strings.TrimSpace(cell.Text()))
			if err != nil {
				valid = false
				return
			}
			buys[side] = append(buys[side], v)
		})
		if !valid {
			return buys, false
		}
	}
	return buys, true
}

// parseMapTeam reads one team box of the map info region: the team
// anchor (/stats/teams/{id}/{slug}) and its displayed total score.
func parseMapTeam(box *goquery.Selection, selector string) (string, int, error) {
	side := box.Find(selector).First()
	if side.Length() == 0 {
		return "", 0, fmt.Errorf("%s not found", selector)
	}
	href, ok := side.Find("a").First().Attr("href")
	if !ok {
		return "", 0, fmt.Errorf("%s: no team link", selector)
	}
	id := pathSegment(href, 3)
	if id == "" {
		return "", 0, fmt.Errorf("%s: no team id in href %q", selector, href)
	}
	scoreText := strings.TrimSpace(side.Find("div.bold").First().Text())
	score, err := strconv.Atoi(scoreText)
	if err != nil {
		return "", 0, fmt.Errorf("%s: bad score %q", selector, scoreText)
	}
	return id, score, nil
}

// splitIntPair parses "a:b" (or "a : b") into two ints.
func splitIntPair(s string) (int, int, error) {
	left, right, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("no separator in %q", s)
	}
	a, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, fmt.Errorf("bad pair %q", s)
	}
	b, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, fmt.Errorf("bad pair %q", s)
	}
	return a, b, nil
}

// splitFloatPair parses "a : b" into two floats.
func splitFloatPair(s string) (float64, float64, error) {
	left, right, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("no separator in %q", s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(left), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad pair %q", s)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad pair %q", s)
	}
	return a, b, nil
}
