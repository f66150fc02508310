package betService

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/models"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/common"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/tournamentService"
	"gorm.io/gorm"
)

// minimumPool is the floor applied to each side's total stake when
// computing payout odds, so an empty side never produces runaway or
// zero odds.
const minimumPool = 100

// CurrentMatch returns the most recently scheduled match without a
// recorded winner.
func CurrentMatch(db *gorm.DB) (*models.Match, error) {
	var match models.Match
	err := db.Where("winner IS NULL").Order("id desc").First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFoundf("There is no match scheduled at the moment.")
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// PlaceBet stakes bananas on one side of the current match. A prior
// bet by the same player is cancelled and refunded before the new one
// is recorded; the whole operation is transactional, so a failed
// validation leaves the prior bet untouched.
func PlaceBet(db *gorm.DB, discordID, name string, amount, side int, startingBananas int) (string, error) {
	if side != 1 && side != 2 {
		return "", common.Invalidf("Side must be 1 or 2.")
	}
	if amount <= 0 {
		return "", common.Invalidf("Bet amount must be a positive number.")
	}

	match, err := CurrentMatch(db)
	if err != nil {
		return "", err
	}
	if !match.BetsOpen {
		return "", common.Invalidf("Betting for the next match has not been opened yet!")
	}

	var teamName string
	if side == 1 {
		teamName = match.Team1
	} else {
		teamName = match.Team2
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		player, err := tournamentService.EnsurePlayer(tx, discordID, name, startingBananas)
		if err != nil {
			return err
		}

		var prior models.BetEntry
		err = tx.Where("match_id = ? AND player_id = ?", match.ID, player.ID).First(&prior).Error
		if err == nil {
			player.Bananas += prior.Amount
			if err := tx.Delete(&prior).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if amount > player.Bananas {
			return common.Invalidf("You only have %d bananas to bet with.", player.Bananas)
		}

		player.Bananas -= amount
		if err := tx.Save(player).Error; err != nil {
			return err
		}

		entry := models.BetEntry{MatchID: match.ID, PlayerID: player.ID, Side: side, Amount: amount}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("You bet **%d** bananas on **%s**.", amount, teamName), nil
}

// CloseBets shuts the betting window for the current match.
func CloseBets(db *gorm.DB) (string, error) {
	match, err := CurrentMatch(db)
	if err != nil {
		return "", err
	}

	match.BetsOpen = false
	if err := db.Save(match).Error; err != nil {
		return "", err
	}
	return "The bets for the current match have been closed.", nil
}

// Payout computes a winning bettor's credit for a given stake.
// Odds are the ratio of the opposing pool to the winning pool, each
// floored to minimumPool; the result truncates toward zero.
func Payout(stake, winningTotal, losingTotal int) int {
	return stake * max(losingTotal, minimumPool) / max(winningTotal, minimumPool)
}

// PayoutLine reports one winner's credit for the resolution summary.
type PayoutLine struct {
	PlayerName string
	Stake      int
	Credit     int
}

// Resolve pays out all bets on a match. Winning stakes are multiplied
// by the pool odds and credited; losing stakes are forfeit. All
// entries for the match are consumed.
func Resolve(db *gorm.DB, match *models.Match, winningSide int) ([]PayoutLine, error) {
	if winningSide != 1 && winningSide != 2 {
		return nil, common.Invalidf("Side must be 1 or 2.")
	}

	var lines []PayoutLine
	err := db.Transaction(func(tx *gorm.DB) error {
		var entries []models.BetEntry
		if err := tx.Where("match_id = ?", match.ID).Order("id").Find(&entries).Error; err != nil {
			return err
		}

		winningTotal, losingTotal := 0, 0
		for _, e := range entries {
			if e.Side == winningSide {
				winningTotal += e.Amount
			} else {
				losingTotal += e.Amount
			}
		}

		for _, e := range entries {
			if e.Side != winningSide {
				continue
			}

			credit := Payout(e.Amount, winningTotal, losingTotal)

			var player models.Player
			if err := tx.First(&player, e.PlayerID).Error; err != nil {
				return err
			}
			player.Bananas += credit
			if err := tx.Save(&player).Error; err != nil {
				return err
			}
			lines = append(lines, PayoutLine{PlayerName: player.Name, Stake: e.Amount, Credit: credit})
		}

		return tx.Where("match_id = ?", match.ID).Delete(&models.BetEntry{}).Error
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Balance reports the caller's banana balance, seeding it on first
// reference.
func Balance(db *gorm.DB, discordID, name string, startingBananas int) (string, error) {
	player, err := tournamentService.EnsurePlayer(db, discordID, name, startingBananas)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("You have **%d** bananas.", player.Bananas), nil
}

// FormatPayouts renders resolution lines for the announcement message.
func FormatPayouts(lines []PayoutLine) string {
	if len(lines) == 0 {
		return "Nobody bet on the winning team."
	}

	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s - Bet: %d - **Won %d bananas**\n", l.PlayerName, l.Stake, l.Credit)
	}
	return strings.TrimSpace(b.String())
}
