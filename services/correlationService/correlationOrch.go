package correlationService

import (
	"fmt"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/models"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/models/external"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// The three systems (local rosters, bracket service, stats service)
// share no common identifier. The set of in-game nicknames on a team
// is the only join key, so a report is accepted only when every one of
// its players lands cleanly on one of the two paired rosters.

type BracketAPI interface {
	FetchTournament() (*external.Bracket_Tournament, error)
	UpdateMatchResult(matchID int64, score string, winnerID int64) error
}

type StatsAPI interface {
	FetchCompletedMatches() ([]external.Stats_Match, error)
}

// Roster is a registered team reduced to its correlation key.
type Roster struct {
	TeamName  string
	Nicknames map[string]bool
}

// Pairing is one scheduled bracket match with both participants
// resolved to local team names.
type Pairing struct {
	MatchID int64
	Team1   string
	ID1     int64
	Team2   string
	ID2     int64
}

// Resolution is a fully identified report, ready to be written back to
// the bracket service.
type Resolution struct {
	BracketMatchID int64
	WinnerID       int64
	WinnerTeam     string
	LoserTeam      string
	Score          string
}

// Diagnostic explains why a report was abandoned. Reports that do not
// concern a tracked match are normal traffic, not errors, but every
// abandonment is surfaced.
type Diagnostic struct {
	Reason   string
	Nickname string
	TeamID   int
}

// BuildRosters loads each registered team's nickname set. Players
// without an in-game nickname contribute nothing; a team where nobody
// set one can never correlate.
func BuildRosters(db *gorm.DB) ([]Roster, error) {
	var teams []models.Team
	if err := db.Order("id").Find(&teams).Error; err != nil {
		return nil, err
	}

	rosters := make([]Roster, 0, len(teams))
	for _, team := range teams {
		var players []models.Player
		if err := db.Where("team_name = ? AND ingame_name IS NOT NULL", team.Name).Find(&players).Error; err != nil {
			return nil, err
		}

		nicknames := make(map[string]bool, len(players))
		for _, p := range players {
			nicknames[*p.IngameName] = true
		}
		if len(nicknames) == 0 {
			continue
		}
		rosters = append(rosters, Roster{TeamName: team.Name, Nicknames: nicknames})
	}
	return rosters, nil
}

// BuildPairings extracts the still-undecided bracket matches whose
// participants are both known.
func BuildPairings(t *external.Bracket_Tournament) []Pairing {
	names := make(map[int64]string, len(t.Participants))
	for _, env := range t.Participants {
		names[env.Participant.ID] = env.Participant.Name
	}

	var pairings []Pairing
	for _, env := range t.Matches {
		m := env.Match
		if m.WinnerID != nil || m.Player1ID == nil || m.Player2ID == nil {
			continue
		}
		name1, ok1 := names[*m.Player1ID]
		name2, ok2 := names[*m.Player2ID]
		if !ok1 || !ok2 {
			continue
		}
		pairings = append(pairings, Pairing{
			MatchID: m.ID,
			Team1:   name1,
			ID1:     *m.Player1ID,
			Team2:   name2,
			ID2:     *m.Player2ID,
		})
	}
	return pairings
}

// ResolveReport maps one stats report onto a scheduled pairing.
// The first player seeds the identification: their nickname picks the
// local team (first roster containing it wins; overlapping nickname
// sets across teams are ambiguous by contract), the pairing supplies
// the opponent, and the seed's provider team id anchors the side
// assignment. Every remaining player must then land on the side its
// provider id was bound to; any contradiction abandons the report.
func ResolveReport(report external.Stats_Match, rosters []Roster, pairings []Pairing) (*Resolution, *Diagnostic) {
	if len(report.Players) == 0 {
		return nil, &Diagnostic{Reason: "report has no players"}
	}

	seed := report.Players[0]
	var home *Roster
	for i := range rosters {
		if rosters[i].Nicknames[seed.Nickname] {
			home = &rosters[i]
			break
		}
	}
	if home == nil {
		return nil, &Diagnostic{Reason: "nickname not in any registered roster", Nickname: seed.Nickname}
	}

	var pairing *Pairing
	homeIsTeam1 := false
	for i := range pairings {
		if pairings[i].Team1 == home.TeamName {
			pairing = &pairings[i]
			homeIsTeam1 = true
			break
		}
		if pairings[i].Team2 == home.TeamName {
			pairing = &pairings[i]
			break
		}
	}
	if pairing == nil {
		return nil, &Diagnostic{Reason: fmt.Sprintf("team %s has no scheduled bracket match", home.TeamName), Nickname: seed.Nickname}
	}

	opponentName := pairing.Team2
	homeID, opponentID := pairing.ID1, pairing.ID2
	if !homeIsTeam1 {
		opponentName = pairing.Team1
		homeID, opponentID = pairing.ID2, pairing.ID1
	}

	var opponent *Roster
	for i := range rosters {
		if rosters[i].TeamName == opponentName {
			opponent = &rosters[i]
			break
		}
	}
	if opponent == nil {
		return nil, &Diagnostic{Reason: fmt.Sprintf("opponent %s has no usable roster", opponentName)}
	}

	// Bind provider team ids to the two rosters, anchored on the seed.
	homeProviderID := seed.TeamID
	opponentProviderID := 0
	opponentBound := false

	for _, p := range report.Players[1:] {
		switch {
		case home.Nicknames[p.Nickname]:
			if p.TeamID != homeProviderID {
				return nil, &Diagnostic{Reason: "provider team id contradicts roster assignment", Nickname: p.Nickname, TeamID: p.TeamID}
			}
		case opponent.Nicknames[p.Nickname]:
			if p.TeamID == homeProviderID {
				return nil, &Diagnostic{Reason: "provider team id contradicts roster assignment", Nickname: p.Nickname, TeamID: p.TeamID}
			}
			if opponentBound && p.TeamID != opponentProviderID {
				return nil, &Diagnostic{Reason: "provider team id contradicts roster assignment", Nickname: p.Nickname, TeamID: p.TeamID}
			}
			opponentProviderID = p.TeamID
			opponentBound = true
		default:
			return nil, &Diagnostic{Reason: "nickname absent from both paired rosters", Nickname: p.Nickname, TeamID: p.TeamID}
		}
	}

	var winnerID int64
	var winnerTeam, loserTeam string
	switch {
	case report.WinnerTeamID == homeProviderID:
		winnerID, winnerTeam, loserTeam = homeID, home.TeamName, opponent.TeamName
	case !opponentBound || report.WinnerTeamID == opponentProviderID:
		// With only two sides in a match, a winner id that is not the
		// home side's must be the opponent's even when no opponent
		// player appeared in the report.
		winnerID, winnerTeam, loserTeam = opponentID, opponent.TeamName, home.TeamName
	default:
		return nil, &Diagnostic{Reason: "declared winner id matches neither side", TeamID: report.WinnerTeamID}
	}

	score := "1-0"
	if winnerID == pairing.ID2 {
		score = "0-1"
	}

	return &Resolution{
		BracketMatchID: pairing.MatchID,
		WinnerID:       winnerID,
		WinnerTeam:     winnerTeam,
		LoserTeam:      loserTeam,
		Score:          score,
	}, nil
}

// Engine runs the reconciliation poll.
type Engine struct {
	DB      *gorm.DB
	Bracket BracketAPI
	Stats   StatsAPI
	Log     zerolog.Logger
}

// Reconcile fetches the current reports and writes every cleanly
// resolved result to the bracket service. Abandoned reports are logged
// and skipped; a failed write is logged and does not stop the rest of
// the cycle.
func (e *Engine) Reconcile() error {
	rosters, err := BuildRosters(e.DB)
	if err != nil {
		return fmt.Errorf("loading rosters: %w", err)
	}
	if len(rosters) == 0 {
		return nil
	}

	tournament, err := e.Bracket.FetchTournament()
	if err != nil {
		return fmt.Errorf("fetching tournament: %w", err)
	}
	pairings := BuildPairings(tournament)
	if len(pairings) == 0 {
		return nil
	}

	reports, err := e.Stats.FetchCompletedMatches()
	if err != nil {
		return fmt.Errorf("fetching match reports: %w", err)
	}

	var lastErr error
	for idx, report := range reports {
		resolution, diag := ResolveReport(report, rosters, pairings)
		if diag != nil {
			e.Log.Warn().
				Int("report", idx).
				Str("reason", diag.Reason).
				Str("nickname", diag.Nickname).
				Int("provider_team_id", diag.TeamID).
				Msg("match report abandoned")
			continue
		}

		if err := e.Bracket.UpdateMatchResult(resolution.BracketMatchID, resolution.Score, resolution.WinnerID); err != nil {
			e.Log.Error().
				Err(err).
				Int64("bracket_match", resolution.BracketMatchID).
				Msg("failed to record bracket result")
			lastErr = err
			continue
		}

		e.Log.Info().
			Int64("bracket_match", resolution.BracketMatchID).
			Str("winner", resolution.WinnerTeam).
			Str("loser", resolution.LoserTeam).
			Msg("bracket result recorded")
	}
	return lastErr
}
