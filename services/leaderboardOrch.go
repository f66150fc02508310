package services

import (
	"fmt"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/models"
	"github.com/bwmarrin/discordgo"
)

func (h *Handler) ShowLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var players []models.Player
	h.DB.Order("bananas desc").Limit(10).Find(&players)

	if len(players) == 0 {
		h.reply(s, i, "No players found on the leaderboard.", false)
		return
	}

	description := ""
	for idx, p := range players {
		description += fmt.Sprintf("**%d. %s** - %d bananas\n", idx+1, p.Name, p.Bananas)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🍌 Leaderboard",
		Description: description,
		Color:       0xf1c40f,
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to respond to interaction")
	}
}
