package tournamentService

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/models"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/common"
	"gorm.io/gorm"
)

// Bracket is the slice of the bracket service the registration
// workflow needs. The real client lives in extService; tests plug in
// a fake.
type Bracket interface {
	CreateParticipant(name string) (int64, error)
	DestroyParticipant(id int64) error
}

// Member is a roster entry as resolved from the command arguments.
// DiscordID is empty when the argument did not resolve to a guild
// member and is kept as a plain name.
type Member struct {
	Name      string
	DiscordID string
}

// EnsurePlayer finds the player record for a Discord user, creating it
// with the starting banana balance on first reference. A pre-existing
// record registered by plain name is claimed by attaching the Discord
// id to it.
func EnsurePlayer(db *gorm.DB, discordID, name string, startingBananas int) (*models.Player, error) {
	var player models.Player

	err := db.Where("discord_id = ?", discordID).First(&player).Error
	if err == nil {
		return &player, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = db.Where("name = ?", name).First(&player).Error
	if err == nil {
		player.DiscordID = &discordID
		if err := db.Save(&player).Error; err != nil {
			return nil, err
		}
		return &player, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	player = models.Player{Name: name, DiscordID: &discordID, Bananas: startingBananas}
	if err := db.Create(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

// RegisterTeam creates a team with the captain and the named members.
// All writes happen in one transaction: a member already on another
// team aborts the whole registration with nothing persisted. The
// bracket participant is created last so a bracket failure also rolls
// the local records back.
func RegisterTeam(db *gorm.DB, bracket Bracket, teamName string, captain Member, members []Member, startingBananas int) (string, error) {
	var existing models.Team
	err := db.Where("name = ?", teamName).First(&existing).Error
	if err == nil {
		return "", common.Conflictf("Error in team registration: Team with name %s already exists.", teamName)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	// Roster is a set; the captain is always part of it.
	roster := []Member{captain}
	for _, m := range members {
		if m.Name == captain.Name {
			continue
		}
		duplicate := false
		for _, r := range roster {
			if r.Name == m.Name {
				duplicate = true
				break
			}
		}
		if !duplicate {
			roster = append(roster, m)
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		team := models.Team{Name: teamName, Captain: captain.Name}
		if err := tx.Create(&team).Error; err != nil {
			return err
		}

		for _, m := range roster {
			if err := enlist(tx, m, teamName, startingBananas); err != nil {
				return err
			}
		}

		participantID, err := bracket.CreateParticipant(teamName)
		if err != nil {
			return fmt.Errorf("creating bracket participant for %s: %w", teamName, err)
		}
		team.BracketID = &participantID
		return tx.Save(&team).Error
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Team **%s** registered with %d players. Good luck!", teamName, len(roster)), nil
}

func enlist(tx *gorm.DB, m Member, teamName string, startingBananas int) error {
	var player models.Player

	lookup := tx.Where("name = ?", m.Name)
	if m.DiscordID != "" {
		lookup = tx.Where("discord_id = ?", m.DiscordID)
	}

	err := lookup.First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && m.DiscordID != "" {
		err = tx.Where("name = ?", m.Name).First(&player).Error
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		player = models.Player{Name: m.Name, TeamName: &teamName, Bananas: startingBananas}
		if m.DiscordID != "" {
			player.DiscordID = &m.DiscordID
		}
		return tx.Create(&player).Error
	}
	if err != nil {
		return err
	}

	if player.TeamName != nil {
		return common.Conflictf("Error in team registration: %s is already registered with %s!", player.Name, *player.TeamName)
	}

	player.TeamName = &teamName
	if m.DiscordID != "" && player.DiscordID == nil {
		player.DiscordID = &m.DiscordID
	}
	return tx.Save(&player).Error
}

// LeaveTeam removes the caller from their team. A leaving captain
// disbands the whole team: every member's reference is cleared, the
// team row is deleted and the bracket participant destroyed.
func LeaveTeam(db *gorm.DB, bracket Bracket, discordID string) (string, error) {
	var player models.Player
	err := db.Where("discord_id = ?", discordID).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", common.NotFoundf("You have not registered yet!")
	}
	if err != nil {
		return "", err
	}

	if player.TeamName == nil {
		return "", common.NotFoundf("You are not registered with any team at the moment.")
	}

	var team models.Team
	if err := db.Where("name = ?", *player.TeamName).First(&team).Error; err != nil {
		return "", err
	}

	if player.Name == team.Captain {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Player{}).Where("team_name = ?", team.Name).Update("team_name", nil).Error; err != nil {
				return err
			}
			// Hard delete so the name leaves the unique index and the
			// team can register again later.
			if err := tx.Unscoped().Delete(&team).Error; err != nil {
				return err
			}
			if team.BracketID != nil {
				if err := bracket.DestroyParticipant(*team.BracketID); err != nil {
					return fmt.Errorf("destroying bracket participant for %s: %w", team.Name, err)
				}
			}
			return nil
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You have successfully left team %s. As you were the captain, the whole team has been disbanded.", team.Name), nil
	}

	player.TeamName = nil
	if err := db.Save(&player).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("You have successfully left team %s!", team.Name), nil
}

// TeamInfo formats a human-readable roster summary.
func TeamInfo(db *gorm.DB, teamName string) (string, error) {
	var team models.Team
	err := db.Where("name = ?", teamName).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", common.NotFoundf("%s has not been found.", teamName)
	}
	if err != nil {
		return "", err
	}

	var players []models.Player
	if err := db.Where("team_name = ?", team.Name).Order("id").Find(&players).Error; err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Team %s:\n", team.Name)
	b.WriteString("Players: ")
	for _, p := range players {
		fmt.Fprintf(&b, "\n -> %s", p.Name)
	}
	fmt.Fprintf(&b, "\nCaptain: %s", team.Captain)
	return b.String(), nil
}

// PlayerInfo formats a player summary, located by Discord id first and
// display name second.
func PlayerInfo(db *gorm.DB, discordID, name string) (string, error) {
	var player models.Player
	err := gorm.ErrRecordNotFound
	if discordID != "" {
		err = db.Where("discord_id = ?", discordID).First(&player).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) && name != "" {
		err = db.Where("name = ?", name).First(&player).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		who := name
		if who == "" {
			who = "The player"
		}
		return "", common.NotFoundf("%s has not been found.", who)
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tournament info for %s:\n", player.Name)
	if player.IngameName != nil {
		fmt.Fprintf(&b, "In-game nick: %s\n", *player.IngameName)
	}
	if player.TeamName == nil {
		b.WriteString("Not registered in any team\n")
	} else {
		fmt.Fprintf(&b, "Team: %s\n", *player.TeamName)
	}
	if len(player.Achievements) > 0 {
		fmt.Fprintf(&b, "Achievements: %s\n", strings.Join(player.Achievements, ", "))
	}
	fmt.Fprintf(&b, "Bananas: %d", player.Bananas)
	return b.String(), nil
}

// SetNickname records the caller's in-game nickname, the key the
// correlation engine joins on.
func SetNickname(db *gorm.DB, discordID, name, nickname string, startingBananas int) (string, error) {
	if nickname == "" {
		return "", common.Invalidf("Please provide a non-empty nickname.")
	}

	player, err := EnsurePlayer(db, discordID, name, startingBananas)
	if err != nil {
		return "", err
	}

	player.IngameName = &nickname
	if err := db.Save(player).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("In-game nickname set to **%s**.", nickname), nil
}

// WipeAll clears every tournament record. Admin only, no undo. Rows
// are hard-deleted so player and team names are free to register
// again afterwards.
func WipeAll(db *gorm.DB) error {
	for _, model := range []any{&models.BetEntry{}, &models.Match{}, &models.Player{}, &models.Team{}} {
		if err := db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
