package external

// DTOs for the bracket service. The API wraps every record in a
// single-key envelope, so list responses decode into envelope slices.

type Bracket_Participant struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Bracket_ParticipantEnvelope struct {
	Participant Bracket_Participant `json:"participant"`
}

type Bracket_Match struct {
	ID        int64  `json:"id"`
	Player1ID *int64 `json:"player1_id"`
	Player2ID *int64 `json:"player2_id"`
	WinnerID  *int64 `json:"winner_id"`
	State     string `json:"state"`
	ScoresCSV string `json:"scores_csv"`
}

type Bracket_MatchEnvelope struct {
	Match Bracket_Match `json:"match"`
}

type Bracket_Tournament struct {
	ID           int64                         `json:"id"`
	Name         string                        `json:"name"`
	Participants []Bracket_ParticipantEnvelope `json:"participants"`
	Matches      []Bracket_MatchEnvelope       `json:"matches"`
}

type Bracket_TournamentEnvelope struct {
	Tournament Bracket_Tournament `json:"tournament"`
}
