package matchService

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/models"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/betService"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/common"
	"gorm.io/gorm"
)

// ScheduleMatch records the next pairing and opens betting on it.
// Returns the announcement text with member mentions for both rosters.
func ScheduleMatch(db *gorm.DB, team1Name, team2Name string) (string, error) {
	if team1Name == team2Name {
		return "", common.Invalidf("A team cannot play against itself.")
	}

	var team1, team2 models.Team
	for _, lookup := range []struct {
		name string
		dst  *models.Team
	}{{team1Name, &team1}, {team2Name, &team2}} {
		err := db.Where("name = ?", lookup.name).First(lookup.dst).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", common.NotFoundf("%s has not been found.", lookup.name)
		}
		if err != nil {
			return "", err
		}
	}

	match := models.Match{Team1: team1.Name, Team2: team2.Name, BetsOpen: true}
	if err := db.Create(&match).Error; err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Next up is %s vs. %s!\nPlayers, please ready up into the lobby:", team1.Name, team2.Name)
	for _, team := range []models.Team{team1, team2} {
		var players []models.Player
		if err := db.Where("team_name = ?", team.Name).Order("id").Find(&players).Error; err != nil {
			return "", err
		}
		for _, p := range players {
			if p.DiscordID != nil {
				fmt.Fprintf(&b, " <@%s>", *p.DiscordID)
				continue
			}
			fmt.Fprintf(&b, " %s", p.Name)
		}
		b.WriteString(" &")
	}
	b.WriteString(" Good luck and have fun!\n")
	fmt.Fprintf(&b, "\nTo bet on the match:\n`/bet amount:<bananas> side:1` to bet on %s\n`/bet amount:<bananas> side:2` to bet on %s\nCheck your balance with `/balance`.", team1.Name, team2.Name)

	return b.String(), nil
}

// RecordResult sets the winner of the current match and resolves the
// betting ledger for it.
func RecordResult(db *gorm.DB, winnerName string) (string, error) {
	match, err := betService.CurrentMatch(db)
	if err != nil {
		return "", err
	}

	var winningSide int
	switch winnerName {
	case match.Team1:
		winningSide = 1
	case match.Team2:
		winningSide = 2
	default:
		return "", common.NotFoundf("%s is not playing in the current match (%s vs. %s).", winnerName, match.Team1, match.Team2)
	}

	lines, err := betService.Resolve(db, match, winningSide)
	if err != nil {
		return "", err
	}

	match.Winner = &winnerName
	match.BetsOpen = false
	if err := db.Save(match).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("**%s** wins against %s!\n%s", winnerName, loser(match, winningSide), betService.FormatPayouts(lines)), nil
}

func loser(match *models.Match, winningSide int) string {
	if winningSide == 1 {
		return match.Team2
	}
	return match.Team1
}
