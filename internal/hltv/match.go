package hltv

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-hltv-dataset/internal/model"
)

// MatchResolver discovers the parent match of a map id and extracts
// match-level facts. It caches resolved matches and indexes every map
// id a match page lists, so a best-of-N series costs one match fetch no
// matter how many of its maps the crawl submits independently.
type MatchResolver struct {
	client *Client

	matches map[string]*resolvedMatch
	byMapID map[string]string // map id → match id
}

type resolvedMatch struct {
	match     *model.Match
	mapPicks  map[string]string // map id → picking team id ("" = decider)
	eventID   string
	eventName string
}

// NewMatchResolver returns a resolver backed by the given client.
func NewMatchResolver(client *Client) *MatchResolver {
	return &MatchResolver{
		client:  client,
		matches: make(map[string]*resolvedMatch),
		byMapID: make(map[string]string),
	}
}

// ResolveMap returns the match a map belongs to, the pick attribution
// for every map in that match, and the match's event. The returned
// Match is shared with the cache; callers must not mutate it.
func (r *MatchResolver) ResolveMap(ctx context.Context, mapID, team1Name, team2Name string) (*model.Match, map[string]string, string, string, error) {
	if matchID, ok := r.byMapID[mapID]; ok {
		rm := r.matches[matchID]
		return rm.match, rm.mapPicks, rm.eventID, rm.eventName, nil
	}

	// Step one: the map statistics page links back to its parent match.
	doc, err := r.client.get(ctx, mapStatsPath(mapID, team1Name, team2Name))
	if err != nil {
		return nil, nil, "", "", err
	}
	matchID, err := parseParentMatchID(doc)
	if err != nil {
		return nil, nil, "", "", fmt.Errorf("map %s: %w", mapID, err)
	}

	if rm, ok := r.matches[matchID]; ok {
		// Sibling of an already-resolved series that the match page did
		// not list (should not happen, but the index stays consistent).
		r.byMapID[mapID] = matchID
		return rm.match, rm.mapPicks, rm.eventID, rm.eventName, nil
	}

	// Step two: the match page itself.
	doc, err = r.client.get(ctx, matchPath(matchID, team1Name, team2Name))
	if err != nil {
		return nil, nil, "", "", err
	}
	rm, err := parseMatch(doc, matchID, r.client.log)
	if err != nil {
		return nil, nil, "", "", fmt.Errorf("match %s (via map %s): %w", matchID, mapID, err)
	}

	r.matches[matchID] = rm
	for _, id := range rm.match.MapIDs {
		r.byMapID[id] = matchID
	}
	// A forfeited series can list no playable maps; keep the submitted
	// map id resolvable either way.
	r.byMapID[mapID] = matchID
	return rm.match, rm.mapPicks, rm.eventID, rm.eventName, nil
}

// parseParentMatchID reads the "back to match" link of a map statistics
// page, an anchor to /matches/{id}/{slug}.
func parseParentMatchID(doc *goquery.Document) (string, error) {
	href, ok := doc.Find("a.match-page-link").First().Attr("href")
	if !ok {
		return "", fmt.Errorf("match page link not found")
	}
	id := pathSegment(href, 2)
	if id == "" {
		return "", fmt.Errorf("no match id in href %q", href)
	}
	return id, nil
}

var bestOfRe = regexp.MustCompile(`[Bb]est of (\d)`)

func parseMatch(doc *goquery.Document, matchID string, log *logrus.Logger) (*resolvedMatch, error) {
	team1ID, score1, err := parseMatchTeam(doc, "div.team1-gradient")
	if err != nil {
		return nil, err
	}
	team2ID, score2, err := parseMatchTeam(doc, "div.team2-gradient")
	if err != nil {
		return nil, err
	}

	// Series format and venue come from the descriptive text box, e.g.
	// "Best of 3 (Online)".
	desc := doc.Find("div.preformatted-text").First().Text()
	m := bestOfRe.FindStringSubmatch(desc)
	if m == nil {
		return nil, fmt.Errorf("no series format in description %q", strings.TrimSpace(desc))
	}
	n, _ := strconv.Atoi(m[1])
	format := model.SeriesFormat(n)
	if format != model.FormatBo1 && format != model.FormatBo3 && format != model.FormatBo5 {
		return nil, fmt.Errorf("unsupported series format best-of-%d", n)
	}
	venue := model.VenueLAN
	if strings.Contains(desc, "Online") {
		venue = model.VenueOnline
	}

	eventLink := doc.Find("div.timeAndEvent div.event a").First()
	eventHref, ok := eventLink.Attr("href")
	if !ok {
		return nil, fmt.Errorf("event link not found")
	}
	eventID := pathSegment(eventHref, 2) // /events/{id}/{slug}
	eventName := strings.TrimSpace(eventLink.Text())
	if eventID == "" || eventName == "" {
		return nil, fmt.Errorf("malformed event link %q", eventHref)
	}

	match := &model.Match{
		ID:      matchID,
		Team1ID: team1ID,
		Team2ID: team2ID,
		Format:  format,
		Venue:   venue,
		Score:   [2]int{score1, score2},
	}

	// The map widget shows every slot of the series. Slots marked
	// optional were never played and "Default" slots are forfeits;
	// neither yields a map id.
	mapPicks := make(map[string]string)
	doc.Find("div.mapholder").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("optional") {
			return
		}
		if strings.Contains(s.Find("div.results-center-stats").Text(), "Default") {
			return
		}
		href, ok := s.Find("a.results-stats").First().Attr("href")
		if !ok {
			return
		}
		id := pathSegment(href, 4) // /stats/matches/mapstatsid/{id}/{slug}
		if id == "" {
			return
		}
		picker := ""
		if s.Find("div.results-left").HasClass("pick") {
			picker = team1ID
		} else if s.Find("div.results-right").HasClass("pick") {
			picker = team2ID
		}
		match.MapIDs = append(match.MapIDs, id)
		mapPicks[id] = picker
	})

	// A best-of-1 page displays the map's round score instead of the
	// series score; normalize it to (1,0)/(0,1) by raw magnitude. The
	// magnitude comparison cannot decide a literal regulation tie, so a
	// tie is kept raw and flagged instead of silently guessed.
	if format == model.FormatBo1 {
		switch {
		case score1 > score2:
			match.Score = [2]int{1, 0}
		case score2 > score1:
			match.Score = [2]int{0, 1}
		default:
			match.ScoreAmbiguous = true
			log.WithFields(logrus.Fields{
				"match": matchID,
				"score": fmt.Sprintf("%d:%d", score1, score2),
			}).Warn("best-of-1 with tied raw score, winner ambiguous")
		}
	}

	return &resolvedMatch{
		match:     match,
		mapPicks:  mapPicks,
		eventID:   eventID,
		eventName: eventName,
	}, nil
}

// parseMatchTeam reads one side's id and raw score from a team gradient
// box: an anchor to /team/{id}/{slug} plus a won/lost/tie score div.
func parseMatchTeam(doc *goquery.Document, selector string) (string, int, error) {
	box := doc.Find(selector).First()
	if box.Length() == 0 {
		return "", 0, fmt.Errorf("%s not found", selector)
	}
	href, ok := box.Find("a").First().Attr("href")
	if !ok {
		return "", 0, fmt.Errorf("%s: no team link", selector)
	}
	id := pathSegment(href, 2)
	if id == "" {
		return "", 0, fmt.Errorf("%s: no team id in href %q", selector, href)
	}
	scoreText := strings.TrimSpace(box.Find("div.won, div.lost, div.tie").First().Text())
	score, err := strconv.Atoi(scoreText)
	if err != nil {
		return "", 0, fmt.Errorf("%s: bad score %q", selector, scoreText)
	}
	return id, score, nil
}
