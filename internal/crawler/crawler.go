// Package crawler sequences the crawl stages and owns every cache that
// crosses a stage boundary: the growing team and player tables, the
// tentative and confirmed lineup map sets, the match resolver cache,
// and the finished dataset tables. Execution is strictly sequential;
// nothing here needs locking because nothing runs concurrently.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-hltv-dataset/internal/hltv"
	"github.com/pable/go-hltv-dataset/internal/model"
)

// lineupSize is the number of players fielded on a map.
const lineupSize = 5

// Session is one crawl of one event. Stages must run in order; each
// stage reads the tables the previous stages filled.
type Session struct {
	client   *hltv.Client
	resolver *hltv.MatchResolver
	log      *logrus.Logger

	Data *model.Dataset

	// confirmedMaps holds lineup-discovered map ids that were returned
	// from BOTH participating teams' queries, mapped to their
	// (team1, team2) pair. An id seen from only one side stays in
	// tentativeMaps and never reaches the match stage.
	confirmedMaps map[string][2]string
	tentativeMaps map[string][2]string

	// itemErrs collects per-item structural failures. A broken team or
	// map page aborts that one item, not the whole crawl.
	itemErrs []error
}

// NewSession returns a session crawling through the given client.
func NewSession(client *hltv.Client, log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.New()
	}
	return &Session{
		client:        client,
		resolver:      hltv.NewMatchResolver(client),
		log:           log,
		Data:          model.NewDataset(),
		confirmedMaps: make(map[string][2]string),
		tentativeMaps: make(map[string][2]string),
	}
}

// Err returns every per-item failure the crawl recorded, joined.
func (s *Session) Err() error {
	return errors.Join(s.itemErrs...)
}

func (s *Session) itemFailed(err error) {
	s.itemErrs = append(s.itemErrs, err)
	s.log.WithError(err).Error("item failed, continuing crawl")
}

// DiscoverTeams resolves the event's participating teams.
func (s *Session) DiscoverTeams(ctx context.Context, eventID, eventSlug string) error {
	teams, err := s.client.EventTeams(ctx, eventID, eventSlug)
	if err != nil {
		return err
	}
	for id, team := range teams {
		if _, ok := s.Data.Teams[id]; !ok {
			s.Data.Teams[id] = team
		}
	}
	s.log.WithFields(logrus.Fields{"event": eventID, "teams": len(teams)}).Info("discovered event teams")
	return nil
}

// DiscoverRosters resolves each known team's roster for the event. A
// team whose page broke is skipped and recorded; the rest proceed.
func (s *Session) DiscoverRosters(ctx context.Context, eventID string) error {
	for _, teamID := range sortedKeys(s.Data.Teams) {
		team := s.Data.Teams[teamID]
		players, err := s.client.TeamRoster(ctx, teamID, team.Name, eventID)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			s.itemFailed(err)
			continue
		}
		for _, playerID := range sortedKeys(players) {
			if _, ok := s.Data.Players[playerID]; !ok {
				s.Data.Players[playerID] = players[playerID]
			}
			if !team.HasPlayer(playerID) {
				team.PlayerIDs = append(team.PlayerIDs, playerID)
			}
		}
		s.log.WithFields(logrus.Fields{"team": teamID, "players": len(players)}).Info("resolved roster")
	}
	return nil
}

// DiscoverMaps runs one lineup-history query per team and keeps only
// map ids confirmed from both sides of a pairing. Rows dated after
// cutoff are excluded when cutoff is non-zero; minPlayers is the
// minimum lineup overlap the site query enforces.
func (s *Session) DiscoverMaps(ctx context.Context, cutoff time.Time, minPlayers int) error {
	teamIDs := sortedKeys(s.Data.Teams)
	for _, teamID := range teamIDs {
		team := s.Data.Teams[teamID]
		if len(team.PlayerIDs) < lineupSize {
			s.itemFailed(fmt.Errorf("team %s: roster has %d players, need %d for a lineup query", teamID, len(team.PlayerIDs), lineupSize))
			continue
		}
		opponents := make([]string, 0, len(teamIDs)-1)
		for _, id := range teamIDs {
			if id != teamID {
				opponents = append(opponents, id)
			}
		}

		found, err := s.client.LineupMaps(ctx, team.PlayerIDs[:lineupSize], teamID, opponents, minPlayers, cutoff)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			s.itemFailed(err)
			continue
		}
		for id, pair := range found {
			if _, seen := s.tentativeMaps[id]; !seen {
				s.tentativeMaps[id] = pair
				continue
			}
			s.confirmedMaps[id] = pair
		}
		s.log.WithFields(logrus.Fields{"team": teamID, "candidates": len(found)}).Info("lineup query done")
	}
	s.log.WithFields(logrus.Fields{
		"tentative": len(s.tentativeMaps),
		"confirmed": len(s.confirmedMaps),
	}).Info("lineup discovery finished")
	return nil
}

// ConfirmedMapIDs returns the both-sides-confirmed map ids, sorted.
func (s *Session) ConfirmedMapIDs() []string {
	return sortedKeys(s.confirmedMaps)
}

// ResolveMatches discovers the parent match of every confirmed map and
// records match, pick, and event facts. Sibling maps of one series ride
// the resolver cache and cost no extra fetches.
func (s *Session) ResolveMatches(ctx context.Context) error {
	for _, mapID := range sortedKeys(s.confirmedMaps) {
		pair := s.confirmedMaps[mapID]
		t1, ok1 := s.Data.Teams[pair[0]]
		t2, ok2 := s.Data.Teams[pair[1]]
		if !ok1 || !ok2 {
			s.itemFailed(fmt.Errorf("map %s: lineup teams %s/%s missing from team table", mapID, pair[0], pair[1]))
			continue
		}

		match, picks, eventID, eventName, err := s.resolver.ResolveMap(ctx, mapID, t1.Name, t2.Name)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			s.itemFailed(err)
			continue
		}

		// Both match teams must already be in the team table; a miss
		// means the match page named a team the lineup stage never saw.
		if _, ok := s.Data.Teams[match.Team1ID]; !ok {
			s.log.WithFields(logrus.Fields{"match": match.ID, "team": match.Team1ID}).Warn("match references team missing from team table")
		}
		if _, ok := s.Data.Teams[match.Team2ID]; !ok {
			s.log.WithFields(logrus.Fields{"match": match.ID, "team": match.Team2ID}).Warn("match references team missing from team table")
		}

		s.Data.Matches[match.ID] = match
		for id, picker := range picks {
			s.Data.MapPicks[id] = picker
		}
		event, ok := s.Data.Events[eventID]
		if !ok {
			event = &model.Event{ID: eventID, Name: eventName}
			s.Data.Events[eventID] = event
		}
		if !containsString(event.MatchIDs, match.ID) {
			event.MatchIDs = append(event.MatchIDs, match.ID)
		}
	}
	s.log.WithFields(logrus.Fields{
		"matches": len(s.Data.Matches),
		"events":  len(s.Data.Events),
	}).Info("matches resolved")
	return nil
}

// ExtractMapDetails extracts the full Map record for every map of every
// resolved match, including series siblings the lineup stage never
// submitted. Invalid maps (non-standard round limit) are recorded in
// InvalidMapIDs and pruned from match and event bookkeeping.
func (s *Session) ExtractMapDetails(ctx context.Context) error {
	for _, matchID := range sortedKeys(s.Data.Matches) {
		match := s.Data.Matches[matchID]
		t1, ok1 := s.Data.Teams[match.Team1ID]
		t2, ok2 := s.Data.Teams[match.Team2ID]
		if !ok1 || !ok2 {
			s.itemFailed(fmt.Errorf("match %s: teams %s/%s missing from team table", matchID, match.Team1ID, match.Team2ID))
			continue
		}
		for _, mapID := range match.MapIDs {
			if s.Data.Maps[mapID] != nil || s.Data.InvalidMapIDs[mapID] {
				continue
			}
			m, valid, err := s.client.MapDetail(ctx, mapID, t1.Name, t2.Name, match.Team1ID, match.Team2ID, s.Data.MapPicks[mapID])
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				s.itemFailed(err)
				continue
			}
			if !valid {
				s.Data.InvalidMapIDs[mapID] = true
				s.log.WithField("map", mapID).Warn("map is structurally invalid, pruning")
				continue
			}
			s.Data.Maps[mapID] = m
		}
	}
	s.pruneInvalidMaps()
	s.log.WithFields(logrus.Fields{
		"maps":    len(s.Data.Maps),
		"invalid": len(s.Data.InvalidMapIDs),
	}).Info("map details extracted")
	return nil
}

// pruneInvalidMaps removes invalid map ids from match map lists and
// pick attribution, and drops matches left with no maps from their
// event's bookkeeping.
func (s *Session) pruneInvalidMaps() {
	if len(s.Data.InvalidMapIDs) == 0 {
		return
	}
	emptied := make(map[string]bool)
	for _, matchID := range sortedKeys(s.Data.Matches) {
		match := s.Data.Matches[matchID]
		kept := match.MapIDs[:0]
		for _, id := range match.MapIDs {
			if s.Data.InvalidMapIDs[id] {
				delete(s.Data.MapPicks, id)
				continue
			}
			kept = append(kept, id)
		}
		match.MapIDs = kept
		if len(kept) == 0 {
			emptied[matchID] = true
		}
	}
	for _, event := range s.Data.Events {
		kept := event.MatchIDs[:0]
		for _, id := range event.MatchIDs {
			if !emptied[id] {
				kept = append(kept, id)
			}
		}
		event.MatchIDs = kept
	}
}

// ExtractPlayerStats pulls the box score for every extracted map,
// self-healing rosters as unknown players turn up.
func (s *Session) ExtractPlayerStats(ctx context.Context) error {
	for _, mapID := range sortedKeys(s.Data.Maps) {
		m := s.Data.Maps[mapID]
		t1, ok1 := s.Data.Teams[m.Team1ID]
		t2, ok2 := s.Data.Teams[m.Team2ID]
		if !ok1 || !ok2 {
			s.itemFailed(fmt.Errorf("map %s: teams %s/%s missing from team table", mapID, m.Team1ID, m.Team2ID))
			continue
		}
		stats, err := s.client.PlayerStats(ctx, mapID, t1.Name, t2.Name, m.Team1ID, m.Team2ID, s.Data.Teams, s.Data.Players)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			s.itemFailed(err)
			continue
		}
		for key, stat := range stats {
			s.Data.Stats[key] = stat
		}
	}
	s.log.WithField("stats", len(s.Data.Stats)).Info("player box scores extracted")
	return nil
}

// Run executes the full pipeline for one event.
func (s *Session) Run(ctx context.Context, eventID, eventSlug string, cutoff time.Time, minPlayers int) error {
	if err := s.DiscoverTeams(ctx, eventID, eventSlug); err != nil {
		return err
	}
	if err := s.DiscoverRosters(ctx, eventID); err != nil {
		return err
	}
	if err := s.DiscoverMaps(ctx, cutoff, minPlayers); err != nil {
		return err
	}
	if err := s.ResolveMatches(ctx); err != nil {
		return err
	}
	if err := s.ExtractMapDetails(ctx); err != nil {
		return err
	}
	return s.ExtractPlayerStats(ctx)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
