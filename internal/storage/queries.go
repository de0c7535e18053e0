package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/go-hltv-dataset/internal/model"
)

// dateLayout is how map dates are stored; lexicographic order matches
// chronological order.
const dateLayout = time.RFC3339

// SaveDataset writes every table of the dataset in one transaction.
// All inserts are INSERT OR REPLACE so re-saving after a resumed crawl
// is idempotent.
func (db *DB) SaveDataset(ds *model.Dataset) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, save := range []func(*sql.Tx, *model.Dataset) error{
		saveTeams, savePlayers, saveEvents, saveMatches, saveMaps, saveStats,
	} {
		if err := save(tx, ds); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func saveTeams(tx *sql.Tx, ds *model.Dataset) error {
	teamStmt, err := tx.Prepare(`INSERT OR REPLACE INTO teams(id, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer teamStmt.Close()
	rosterStmt, err := tx.Prepare(`INSERT OR REPLACE INTO team_players(team_id, player_id, ord) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer rosterStmt.Close()

	for id, team := range ds.Teams {
		if _, err := teamStmt.Exec(id, team.Name); err != nil {
			return fmt.Errorf("insert team %s: %w", id, err)
		}
		for ord, playerID := range team.PlayerIDs {
			if _, err := rosterStmt.Exec(id, playerID, ord); err != nil {
				return fmt.Errorf("insert roster %s/%s: %w", id, playerID, err)
			}
		}
	}
	return nil
}

func savePlayers(tx *sql.Tx, ds *model.Dataset) error {
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO players(id, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for id, p := range ds.Players {
		if _, err := stmt.Exec(id, p.Name); err != nil {
			return fmt.Errorf("insert player %s: %w", id, err)
		}
	}
	return nil
}

func saveEvents(tx *sql.Tx, ds *model.Dataset) error {
	eventStmt, err := tx.Prepare(`INSERT OR REPLACE INTO events(id, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer eventStmt.Close()
	linkStmt, err := tx.Prepare(`INSERT OR REPLACE INTO event_matches(event_id, match_id, ord) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer linkStmt.Close()

	for id, event := range ds.Events {
		if _, err := eventStmt.Exec(id, event.Name); err != nil {
			return fmt.Errorf("insert event %s: %w", id, err)
		}
		for ord, matchID := range event.MatchIDs {
			if _, err := linkStmt.Exec(id, matchID, ord); err != nil {
				return fmt.Errorf("insert event match %s/%s: %w", id, matchID, err)
			}
		}
	}
	return nil
}

func saveMatches(tx *sql.Tx, ds *model.Dataset) error {
	matchStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches(id, team1_id, team2_id, format, venue, score1, score2, score_ambiguous)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer matchStmt.Close()
	mapStmt, err := tx.Prepare(`INSERT OR REPLACE INTO match_maps(match_id, map_id, ord) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer mapStmt.Close()
	pickStmt, err := tx.Prepare(`INSERT OR REPLACE INTO map_picks(map_id, picked_by) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer pickStmt.Close()

	for id, m := range ds.Matches {
		_, err := matchStmt.Exec(id, m.Team1ID, m.Team2ID, m.Format.String(), m.Venue.String(),
			m.Score[0], m.Score[1], boolInt(m.ScoreAmbiguous))
		if err != nil {
			return fmt.Errorf("insert match %s: %w", id, err)
		}
		for ord, mapID := range m.MapIDs {
			if _, err := mapStmt.Exec(id, mapID, ord); err != nil {
				return fmt.Errorf("insert match map %s/%s: %w", id, mapID, err)
			}
		}
	}
	for mapID, picker := range ds.MapPicks {
		if _, err := pickStmt.Exec(mapID, picker); err != nil {
			return fmt.Errorf("insert map pick %s: %w", mapID, err)
		}
	}
	return nil
}

func saveMaps(tx *sql.Tx, ds *model.Dataset) error {
	mapStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO maps(
			id, date, name, team1_id, team2_id, picked_by, ct_start_team_id,
			h1_score1, h1_score2, h2_score1, h2_score2, ot_score1, ot_score2,
			rating1, rating2, first_kills1, first_kills2, clutches1, clutches2
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer mapStmt.Close()
	roundStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO rounds(map_id, num, winner_id, win_condition, buy1, buy2, buy1_type, buy2_type)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer roundStmt.Close()
	rosterStmt, err := tx.Prepare(`INSERT OR REPLACE INTO map_rosters(map_id, side, player_id, ord) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer rosterStmt.Close()
	invalidStmt, err := tx.Prepare(`INSERT OR REPLACE INTO invalid_maps(map_id) VALUES (?)`)
	if err != nil {
		return err
	}
	defer invalidStmt.Close()

	for id, m := range ds.Maps {
		_, err := mapStmt.Exec(id, m.Date.Format(dateLayout), m.Name, m.Team1ID, m.Team2ID,
			m.PickedBy, m.CTStartTeamID,
			m.HalfScores[0][0], m.HalfScores[0][1], m.HalfScores[1][0], m.HalfScores[1][1],
			m.OTScores[0], m.OTScores[1],
			m.TeamRating[0], m.TeamRating[1], m.FirstKills[0], m.FirstKills[1],
			m.Clutches[0], m.Clutches[1])
		if err != nil {
			return fmt.Errorf("insert map %s: %w", id, err)
		}
		for _, r := range m.Rounds {
			_, err := roundStmt.Exec(id, r.Num, r.WinnerID, r.Win.String(),
				r.Buy[0], r.Buy[1], r.BuyType[0].String(), r.BuyType[1].String())
			if err != nil {
				return fmt.Errorf("insert round %s/%d: %w", id, r.Num, err)
			}
		}
		for side := 0; side < 2; side++ {
			for ord, playerID := range m.Rosters[side] {
				if _, err := rosterStmt.Exec(id, side, playerID, ord); err != nil {
					return fmt.Errorf("insert map roster %s/%s: %w", id, playerID, err)
				}
			}
		}
	}
	for id := range ds.InvalidMapIDs {
		if _, err := invalidStmt.Exec(id); err != nil {
			return fmt.Errorf("insert invalid map %s: %w", id, err)
		}
	}
	return nil
}

func saveStats(tx *sql.Tx, ds *model.Dataset) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_map_stats(
			map_id, player_id, team_id, kills, headshot_kills, assists, flash_assists,
			deaths, kast, adr, first_kills, first_deaths, rating
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for key, s := range ds.Stats {
		_, err := stmt.Exec(key.MapID, key.PlayerID, s.TeamID,
			s.Kills, s.HeadshotKills, s.Assists, s.FlashAssists,
			s.Deaths, s.KAST, s.ADR, s.FirstKills, s.FirstDeaths, s.Rating)
		if err != nil {
			return fmt.Errorf("insert stat %s/%s: %w", key.MapID, key.PlayerID, err)
		}
	}
	return nil
}

// LoadDataset reads the full dataset back out of the store.
func (db *DB) LoadDataset() (*model.Dataset, error) {
	ds := model.NewDataset()

	if err := db.loadTeams(ds); err != nil {
		return nil, err
	}
	if err := db.loadPlayers(ds); err != nil {
		return nil, err
	}
	if err := db.loadEvents(ds); err != nil {
		return nil, err
	}
	if err := db.loadMatches(ds); err != nil {
		return nil, err
	}
	if err := db.loadMaps(ds); err != nil {
		return nil, err
	}
	if err := db.loadStats(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

func (db *DB) loadTeams(ds *model.Dataset) error {
	rows, err := db.conn.Query(`SELECT id, name FROM teams`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		team := &model.Team{}
		if err := rows.Scan(&team.ID, &team.Name); err != nil {
			return err
		}
		ds.Teams[team.ID] = team
	}
	if err := rows.Err(); err != nil {
		return err
	}

	roster, err := db.conn.Query(`SELECT team_id, player_id FROM team_players ORDER BY team_id, ord`)
	if err != nil {
		return err
	}
	defer roster.Close()
	for roster.Next() {
		var teamID, playerID string
		if err := roster.Scan(&teamID, &playerID); err != nil {
			return err
		}
		if team, ok := ds.Teams[teamID]; ok {
			team.PlayerIDs = append(team.PlayerIDs, playerID)
		}
	}
	return roster.Err()
}

func (db *DB) loadPlayers(ds *model.Dataset) error {
	rows, err := db.conn.Query(`SELECT id, name FROM players`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		p := &model.Player{}
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return err
		}
		ds.Players[p.ID] = p
	}
	return rows.Err()
}

func (db *DB) loadEvents(ds *model.Dataset) error {
	rows, err := db.conn.Query(`SELECT id, name FROM events`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		e := &model.Event{}
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return err
		}
		ds.Events[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return err
	}

	links, err := db.conn.Query(`SELECT event_id, match_id FROM event_matches ORDER BY event_id, ord`)
	if err != nil {
		return err
	}
	defer links.Close()
	for links.Next() {
		var eventID, matchID string
		if err := links.Scan(&eventID, &matchID); err != nil {
			return err
		}
		if e, ok := ds.Events[eventID]; ok {
			e.MatchIDs = append(e.MatchIDs, matchID)
		}
	}
	return links.Err()
}

func (db *DB) loadMatches(ds *model.Dataset) error {
	rows, err := db.conn.Query(`SELECT id, team1_id, team2_id, format, venue, score1, score2, score_ambiguous FROM matches`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		m := &model.Match{}
		var format, venue string
		var ambiguous int
		if err := rows.Scan(&m.ID, &m.Team1ID, &m.Team2ID, &format, &venue, &m.Score[0], &m.Score[1], &ambiguous); err != nil {
			return err
		}
		if m.Format, err = model.ParseSeriesFormat(format); err != nil {
			return fmt.Errorf("match %s: %w", m.ID, err)
		}
		if m.Venue, err = model.ParseVenue(venue); err != nil {
			return fmt.Errorf("match %s: %w", m.ID, err)
		}
		m.ScoreAmbiguous = ambiguous != 0
		ds.Matches[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return err
	}

	links, err := db.conn.Query(`SELECT match_id, map_id FROM match_maps ORDER BY match_id, ord`)
	if err != nil {
		return err
	}
	defer links.Close()
	for links.Next() {
		var matchID, mapID string
		if err := links.Scan(&matchID, &mapID); err != nil {
			return err
		}
		if m, ok := ds.Matches[matchID]; ok {
			m.MapIDs = append(m.MapIDs, mapID)
		}
	}
	if err := links.Err(); err != nil {
		return err
	}

	picks, err := db.conn.Query(`SELECT map_id, picked_by FROM map_picks`)
	if err != nil {
		return err
	}
	defer picks.Close()
	for picks.Next() {
		var mapID, picker string
		if err := picks.Scan(&mapID, &picker); err != nil {
			return err
		}
		ds.MapPicks[mapID] = picker
	}
	return picks.Err()
}

func (db *DB) loadMaps(ds *model.Dataset) error {
	rows, err := db.conn.Query(`
		SELECT id, date, name, team1_id, team2_id, picked_by, ct_start_team_id,
			h1_score1, h1_score2, h2_score1, h2_score2, ot_score1, ot_score2,
			rating1, rating2, first_kills1, first_kills2, clutches1, clutches2
		FROM maps`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		m := &model.Map{}
		var date string
		err := rows.Scan(&m.ID, &date, &m.Name, &m.Team1ID, &m.Team2ID, &m.PickedBy, &m.CTStartTeamID,
			&m.HalfScores[0][0], &m.HalfScores[0][1], &m.HalfScores[1][0], &m.HalfScores[1][1],
			&m.OTScores[0], &m.OTScores[1],
			&m.TeamRating[0], &m.TeamRating[1], &m.FirstKills[0], &m.FirstKills[1],
			&m.Clutches[0], &m.Clutches[1])
		if err != nil {
			return err
		}
		if m.Date, err = time.Parse(dateLayout, date); err != nil {
			return fmt.Errorf("map %s: %w", m.ID, err)
		}
		ds.Maps[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rounds, err := db.conn.Query(`SELECT map_id, num, winner_id, win_condition, buy1, buy2, buy1_type, buy2_type FROM rounds ORDER BY map_id, num`)
	if err != nil {
		return err
	}
	defer rounds.Close()
	for rounds.Next() {
		var mapID, win, bt1, bt2 string
		var r model.Round
		if err := rounds.Scan(&mapID, &r.Num, &r.WinnerID, &win, &r.Buy[0], &r.Buy[1], &bt1, &bt2); err != nil {
			return err
		}
		if r.Win, err = model.ParseWinCondition(win); err != nil {
			return fmt.Errorf("map %s round %d: %w", mapID, r.Num, err)
		}
		if r.BuyType[0], err = model.ParseBuyType(bt1); err != nil {
			return fmt.Errorf("map %s round %d: %w", mapID, r.Num, err)
		}
		if r.BuyType[1], err = model.ParseBuyType(bt2); err != nil {
			return fmt.Errorf("map %s round %d: %w", mapID, r.Num, err)
		}
		if m, ok := ds.Maps[mapID]; ok {
			m.Rounds = append(m.Rounds, r)
		}
	}
	if err := rounds.Err(); err != nil {
		return err
	}

	rosters, err := db.conn.Query(`SELECT map_id, side, player_id FROM map_rosters ORDER BY map_id, side, ord`)
	if err != nil {
		return err
	}
	defer rosters.Close()
	for rosters.Next() {
		var mapID, playerID string
		var side int
		if err := rosters.Scan(&mapID, &side, &playerID); err != nil {
			return err
		}
		if m, ok := ds.Maps[mapID]; ok && side >= 0 && side < 2 {
			m.Rosters[side] = append(m.Rosters[side], playerID)
		}
	}
	if err := rosters.Err(); err != nil {
		return err
	}

	invalid, err := db.conn.Query(`SELECT map_id FROM invalid_maps`)
	if err != nil {
		return err
	}
	defer invalid.Close()
	for invalid.Next() {
		var mapID string
		if err := invalid.Scan(&mapID); err != nil {
			return err
		}
		ds.InvalidMapIDs[mapID] = true
	}
	return invalid.Err()
}

func (db *DB) loadStats(ds *model.Dataset) error {
	rows, err := db.conn.Query(`
		SELECT map_id, player_id, team_id, kills, headshot_kills, assists, flash_assists,
			deaths, kast, adr, first_kills, first_deaths, rating
		FROM player_map_stats`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		s := &model.PlayerMapStat{}
		err := rows.Scan(&s.MapID, &s.PlayerID, &s.TeamID,
			&s.Kills, &s.HeadshotKills, &s.Assists, &s.FlashAssists,
			&s.Deaths, &s.KAST, &s.ADR, &s.FirstKills, &s.FirstDeaths, &s.Rating)
		if err != nil {
			return err
		}
		ds.Stats[model.MapPlayerKey{MapID: s.MapID, PlayerID: s.PlayerID}] = s
	}
	return rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
