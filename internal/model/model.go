package model

import "time"

// RegulationWinThreshold is the number of rounds a side must win in
// regulation to take a map outright under MR16 rules.
const RegulationWinThreshold = 16

// SeriesFormat is the best-of-N format of a match.
type SeriesFormat int

const (
	FormatUnknown SeriesFormat = 0
	FormatBo1     SeriesFormat = 1
	FormatBo3     SeriesFormat = 3
	FormatBo5     SeriesFormat = 5
)

func (f SeriesFormat) String() string {
	switch f {
	case FormatBo1:
		return "bo1"
	case FormatBo3:
		return "bo3"
	case FormatBo5:
		return "bo5"
	default:
		return "?"
	}
}

// Venue distinguishes online matches from LAN matches.
type Venue int

const (
	VenueLAN Venue = iota
	VenueOnline
)

func (v Venue) String() string {
	if v == VenueOnline {
		return "online"
	}
	return "lan"
}

// WinCondition is how a round ended.
type WinCondition int

const (
	WinUnknown WinCondition = iota
	WinElimination
	WinDefuse
	WinDetonation
	WinTimeout
)

func (w WinCondition) String() string {
	switch w {
	case WinElimination:
		return "elimination"
	case WinDefuse:
		return "defuse"
	case WinDetonation:
		return "detonation"
	case WinTimeout:
		return "timeout"
	default:
		return "?"
	}
}

// BuyType is the spend band of one side's equipment value in a round.
type BuyType int

const (
	BuyNone BuyType = iota // no economy data for the map
	BuyEco
	BuySemiEco
	BuySemiBuy
	BuyFullBuy
)

func (b BuyType) String() string {
	switch b {
	case BuyEco:
		return "eco"
	case BuySemiEco:
		return "semi_eco"
	case BuySemiBuy:
		return "semi_buy"
	case BuyFullBuy:
		return "full_buy"
	default:
		return ""
	}
}

// ClassifyBuy maps a side's declared equipment value to its spend band.
func ClassifyBuy(value int) BuyType {
	switch {
	case value > 20000:
		return BuyFullBuy
	case value > 10000:
		return BuySemiBuy
	case value > 5000:
		return BuySemiEco
	default:
		return BuyEco
	}
}

// Team is a professional team. The roster is seeded from the event
// directory and extended whenever a box score names a player the
// directory missed; it grows over the life of a crawl, never shrinks.
type Team struct {
	ID        string
	Name      string
	PlayerIDs []string
}

// HasPlayer reports whether the player id is already on the roster.
func (t *Team) HasPlayer(id string) bool {
	for _, p := range t.PlayerIDs {
		if p == id {
			return true
		}
	}
	return false
}

// Player is a professional player. IDs are opaque strings lifted from
// site URLs; none are generated locally.
type Player struct {
	ID   string
	Name string
}

// Match is one series between two teams. Score is aligned to
// (Team1ID, Team2ID). MapIDs is the ordered list of maps played.
type Match struct {
	ID      string
	Team1ID string
	Team2ID string
	Format  SeriesFormat
	Venue   Venue
	Score   [2]int
	// ScoreAmbiguous is set when a best-of-1 displayed a regulation tie
	// and the winner could not be derived from raw score magnitude.
	ScoreAmbiguous bool
	MapIDs         []string
}

// Event is one tournament, tracked as a name plus the match ids the
// crawl attributed to it.
type Event struct {
	ID       string
	Name     string
	MatchIDs []string
}

// Round is one round within a map. Buy fields are populated only when
// the map's economy page exists; BuyType stays BuyNone otherwise.
type Round struct {
	Num      int // 1-based ordinal within the map
	WinnerID string
	Win      WinCondition
	Buy      [2]int // equipment value per side, aligned to the map's team order
	BuyType  [2]BuyType
}

// HasEconomy reports whether the round carries spend data.
func (r *Round) HasEconomy() bool {
	return r.BuyType[0] != BuyNone || r.BuyType[1] != BuyNone
}

// Map is one played map of a match. All paired fields ([2]...) are
// aligned to (Team1ID, Team2ID).
type Map struct {
	ID      string
	Date    time.Time
	Name    string
	Team1ID string
	Team2ID string
	// PickedBy is the id of the team that picked the map, or empty for
	// the decider.
	PickedBy string
	// CTStartTeamID is the side that played CT in the first half.
	CTStartTeamID string
	HalfScores    [2][2]int // [half][team]
	OTScores      [2]int
	TeamRating    [2]float64
	FirstKills    [2]int
	Clutches      [2]int
	Rounds        []Round
	Rosters       [2][]string
}

// RegulationScore returns each side's regulation rounds (both halves).
func (m *Map) RegulationScore() [2]int {
	return [2]int{
		m.HalfScores[0][0] + m.HalfScores[1][0],
		m.HalfScores[0][1] + m.HalfScores[1][1],
	}
}

// TotalScore returns each side's final rounds including overtime.
func (m *Map) TotalScore() [2]int {
	reg := m.RegulationScore()
	return [2]int{reg[0] + m.OTScores[0], reg[1] + m.OTScores[1]}
}

// WinnerID returns the id of the team that won the map.
func (m *Map) WinnerID() string {
	total := m.TotalScore()
	if total[0] > total[1] {
		return m.Team1ID
	}
	return m.Team2ID
}

// MapPlayerKey keys a PlayerMapStat by (map id, player id).
type MapPlayerKey struct {
	MapID    string
	PlayerID string
}

// PlayerMapStat is one player's box score on one map. Rating is the
// site's composite performance number and is treated as opaque.
type PlayerMapStat struct {
	MapID         string
	PlayerID      string
	TeamID        string
	Kills         int
	HeadshotKills int
	Assists       int
	FlashAssists  int
	Deaths        int
	KAST          float64 // round contribution percentage
	ADR           float64
	FirstKills    int
	FirstDeaths   int
	Rating        float64
}

// KDDiff returns kills minus deaths.
func (s *PlayerMapStat) KDDiff() int {
	return s.Kills - s.Deaths
}

// FKDiff returns first kills minus first deaths.
func (s *PlayerMapStat) FKDiff() int {
	return s.FirstKills - s.FirstDeaths
}

// Dataset is the full output of a crawl session: the six entity
// dictionaries handed to persistence and reporting.
type Dataset struct {
	Teams    map[string]*Team
	Players  map[string]*Player
	Events   map[string]*Event
	Matches  map[string]*Match
	MapPicks map[string]string // map id → picking team id ("" = decider)
	Maps     map[string]*Map
	Stats    map[MapPlayerKey]*PlayerMapStat
	// InvalidMapIDs collects maps rejected for a non-standard round
	// limit; they are pruned from match and event bookkeeping but kept
	// here so callers can see what was dropped.
	InvalidMapIDs map[string]bool
}

// NewDataset returns an empty dataset with all tables allocated.
func NewDataset() *Dataset {
	return &Dataset{
		Teams:         make(map[string]*Team),
		Players:       make(map[string]*Player),
		Events:        make(map[string]*Event),
		Matches:       make(map[string]*Match),
		MapPicks:      make(map[string]string),
		Maps:          make(map[string]*Map),
		Stats:         make(map[MapPlayerKey]*PlayerMapStat),
		InvalidMapIDs: make(map[string]bool),
	}
}
