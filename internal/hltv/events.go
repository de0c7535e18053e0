package hltv

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pable/go-hltv-dataset/internal/model"
)

// EventTeams fetches the event bracket page and returns the
// participating teams keyed by id. The roster lists start empty; they
// are filled by TeamRoster and later extended by box-score self-healing.
func (c *Client) EventTeams(ctx context.Context, eventID, eventSlug string) (map[string]*model.Team, error) {
	doc, err := c.get(ctx, eventPath(eventID, eventSlug))
	if err != nil {
		return nil, err
	}
	teams, err := parseEventTeams(doc)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", eventID, err)
	}
	return teams, nil
}

// parseEventTeams reads the "teams" grouping region of an event page.
// Each entry is an anchor to /team/{id}/{slug} with the display name in
// a nested text-ellipsis div.
func parseEventTeams(doc *goquery.Document) (map[string]*model.Team, error) {
	group := doc.Find("div.group").First()
	if group.Length() == 0 {
		return nil, fmt.Errorf("teams group not found")
	}

	teams := make(map[string]*model.Team)
	var parseErr error
	group.Find("div.group-name").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := strings.TrimSpace(s.Find("div.text-ellipsis").First().Text())
		href, ok := s.Find("a").First().Attr("href")
		if !ok || name == "" {
			parseErr = fmt.Errorf("malformed team entry in teams group")
			return false
		}
		id := pathSegment(href, 2) // /team/{id}/{slug}
		if id == "" {
			parseErr = fmt.Errorf("team entry %q: no id in href %q", name, href)
			return false
		}
		teams[id] = &model.Team{ID: id, Name: name}
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("teams group is empty")
	}
	return teams, nil
}

// TeamRoster fetches a team's per-event statistics page and returns the
// listed players keyed by id.
func (c *Client) TeamRoster(ctx context.Context, teamID, teamName, eventID string) (map[string]*model.Player, error) {
	doc, err := c.get(ctx, teamStatsPath(teamID, teamName, eventID))
	if err != nil {
		return nil, err
	}
	players, err := parseTeamRoster(doc)
	if err != nil {
		return nil, fmt.Errorf("team %s (event %s): %w", teamID, eventID, err)
	}
	return players, nil
}

// parseTeamRoster reads the teammate grid of a team statistics page.
// Each entry anchors to /stats/players/{id}/{slug}.
func parseTeamRoster(doc *goquery.Document) (map[string]*model.Player, error) {
	grid := doc.Find("div.contentCol div.reset-grid").First()
	if grid.Length() == 0 {
		return nil, fmt.Errorf("roster grid not found")
	}

	players := make(map[string]*model.Player)
	var parseErr error
	grid.Find("div.teammate-info").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a").First()
		name := strings.TrimSpace(link.Find("div").First().Text())
		href, ok := link.Attr("href")
		if !ok || name == "" {
			parseErr = fmt.Errorf("malformed teammate entry")
			return false
		}
		id := pathSegment(href, 3) // /stats/players/{id}/{slug}
		if id == "" {
			parseErr = fmt.Errorf("teammate %q: no id in href %q", name, href)
			return false
		}
		players[id] = &model.Player{ID: id, Name: name}
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("roster grid is empty")
	}
	return players, nil
}
