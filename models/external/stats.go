package external

// DTOs for the stats service. Team ids are provider-side and carry no
// meaning outside a single reported match.

type Stats_Player struct {
	Nickname string `json:"nickname"`
	TeamID   int    `json:"team_id"`
}

type Stats_Match struct {
	Players      []Stats_Player `json:"players"`
	WinnerTeamID int            `json:"winner_team_id"`
}
