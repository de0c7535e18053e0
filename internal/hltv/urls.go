package hltv

import (
	"fmt"
	"net/url"
	"strings"
)

// Slug converts a display name into the form the site embeds in URL
// path segments. Display names with whitespace would otherwise break
// the path, so this is part of the wire contract, not cosmetics.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), "-")
	return url.PathEscape(s)
}

// versusSlug builds the "{team1}-vs-{team2}" suffix used by match and
// map-statistics URLs.
func versusSlug(team1Name, team2Name string) string {
	return Slug(team1Name) + "-vs-" + Slug(team2Name)
}

func eventPath(eventID, eventSlug string) string {
	return fmt.Sprintf("/events/%s/%s", eventID, eventSlug)
}

func teamStatsPath(teamID, teamName, eventID string) string {
	return fmt.Sprintf("/stats/teams/%s/%s?event=%s", teamID, Slug(teamName), eventID)
}

func lineupPath(playerIDs []string, minPlayers int) string {
	q := url.Values{}
	for _, id := range playerIDs {
		q.Add("lineup", id)
	}
	q.Set("minLineupMatch", fmt.Sprint(minPlayers))
	return "/stats/lineup/matches?" + q.Encode()
}

func mapStatsPath(mapID, team1Name, team2Name string) string {
	return fmt.Sprintf("/stats/matches/mapstatsid/%s/%s", mapID, versusSlug(team1Name, team2Name))
}

func economyPath(mapID, team1Name, team2Name string) string {
	return fmt.Sprintf("/stats/matches/economy/mapstatsid/%s/%s", mapID, versusSlug(team1Name, team2Name))
}

func matchPath(matchID, team1Name, team2Name string) string {
	return fmt.Sprintf("/matches/%s/%s", matchID, versusSlug(team1Name, team2Name))
}

// pathSegment returns the nth slash-separated segment of an href, or
// empty when the href is too short. Entity ids live at fixed positions
// in the site's URLs (e.g. /team/{id}/{slug} → segment 2).
func pathSegment(href string, n int) string {
	parts := strings.Split(href, "/")
	if n >= len(parts) {
		return ""
	}
	// Query strings never belong to an id segment.
	seg, _, _ := strings.Cut(parts[n], "?")
	return seg
}
