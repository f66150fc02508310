package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/config"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/betService"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/common"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/correlationService"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/matchService"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/tournamentService"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Handler carries everything the slash commands need. Constructed once
// at startup; no package-level state.
type Handler struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Bracket tournamentService.Bracket
	Engine  *correlationService.Engine
	Log     zerolog.Logger
}

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

func (h *Handler) HandleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "tournament-info":
		h.tournamentInfo(s, i)
	case "register":
		h.register(s, i)
	case "leave":
		h.leave(s, i)
	case "team-info":
		h.teamInfo(s, i)
	case "player-info":
		h.playerInfo(s, i)
	case "set-nickname":
		h.setNickname(s, i)
	case "balance":
		h.balance(s, i)
	case "leaderboard":
		h.ShowLeaderboard(s, i)
	case "bet":
		h.bet(s, i)
	case "schedule-match":
		h.scheduleMatch(s, i)
	case "match-result":
		h.matchResult(s, i)
	case "close-bets":
		h.closeBets(s, i)
	case "force-parse":
		h.forceParse(s, i)
	case "wipe-database":
		h.wipeDatabase(s, i)
	}
}

func (h *Handler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to respond to interaction")
	}
}

// fail reports user-visible conditions (Not-Found, Conflict,
// Invalid-Input) as ephemeral text and routes everything else through
// the error sink.
func (h *Handler) fail(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	if ce, ok := common.AsCommandError(err); ok {
		h.reply(s, i, ce.Msg, true)
		return
	}
	common.SendError(s, i, err, h.DB)
}

func (h *Handler) requireAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if common.IsAdmin(s, i) {
		return true
	}
	h.reply(s, i, "You are not authorized to use this command.", true)
	return false
}

// resolveMember turns a command argument into a roster member:
// a mention resolves to the guild member, anything else stays a plain
// name (for players without a Discord account on the server).
func (h *Handler) resolveMember(s *discordgo.Session, token string) tournamentService.Member {
	if m := mentionPattern.FindStringSubmatch(token); m != nil {
		if member, err := s.GuildMember(h.Cfg.GuildID, m[1]); err == nil && member.User != nil {
			return tournamentService.Member{Name: common.GetUsernameFromUser(member.User), DiscordID: m[1]}
		}
	}
	return tournamentService.Member{Name: token}
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func (h *Handler) tournamentInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	info := "Next tournament date: TBA\nRegistration status: Open\n\n" +
		"Register your team with `/register`, check rosters with `/team-info`.\n" +
		"Once more details and format are known, the schedule will be posted here."
	h.reply(s, i, info, false)
}

func (h *Handler) register(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	teamName := opts["team-name"].StringValue()

	var members []tournamentService.Member
	if opt, ok := opts["players"]; ok {
		for _, token := range strings.Fields(opt.StringValue()) {
			members = append(members, h.resolveMember(s, token))
		}
	}

	captain := tournamentService.Member{
		Name:      common.GetUsernameFromUser(i.Member.User),
		DiscordID: i.Member.User.ID,
	}

	msg, err := tournamentService.RegisterTeam(h.DB, h.Bracket, teamName, captain, members, h.Cfg.StartingBananas)
	if err != nil {
		h.fail(s, i, err)
		return
	}
	h.reply(s, i, msg, false)
}

func (h *Handler) leave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	msg, err := tournamentService.LeaveTeam(h.DB, h.Bracket, i.Member.User.ID)
	if err != nil {
		h.fail(s, i, err)
		return
	}
	h.reply(s, i, fmt.Sprintf("<@%s>, %s", i.Member.User.ID, msg), false)
}

func (h *Handler) teamInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	msg, err := tournamentService.TeamInfo(h.DB, opts["team-name"].StringValue())
	if err != nil {
		h.fail(s, i, err)
		return
	}
	h.reply(s, i, msg, false)
}

func (h *Handler) playerInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)

	discordID := i.Member.User.ID
	name := common.GetUsernameFromUser(i.Member.User)
	if opt, ok := opts["player"]; ok {
		member := h.resolveMember(s, opt.StringValue())
		discordID = member.DiscordID
		name = member.Name
	}

	msg, err := tournamentService.PlayerInfo(h.DB, discordID, name)
	if err != nil {
		h.fail(s, i, err)
		return
	}
	h.reply(s, i, msg, false)
}

func (h *Handler) setNickname(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	msg, err := tournamentService.SetNickname(h.DB, i.Member.User.ID, common.GetUsernameFromUser(i.Member.User), opts["nickname"].StringValue(), h.Cfg.StartingBananas)
	if err != nil {
		h.fail(s, i, err)
		return
	}
	h.reply(s, i, msg, true)
}

func (h *Handler) balance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	msg, err := betService.Balance(h.DB, i.Member.User.ID, common.GetUsernameFromUser(i.Member.User), h.Cfg.StartingBananas)
	if err != nil {
		h.fail(s, i, err)
		return
	}
	h.reply(s, i, msg, true)
}

func (h *Handler) bet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	amount := int(opts["amount"].IntValue())
	side := int(opts["side"].IntValue())

	msg, err := betService.PlaceBet(h.DB, i.Member.User.ID, common.GetUsernameFromUser(i.Member.User), amount, side, h.Cfg.StartingBananas)
	if err != nil {
		h.fail(s, i, err)
		return
	}
	h.reply(s, i, msg, true)
}

func (h *Handler) scheduleMatch(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	opts := optionMap(i)
	msg, err := matchService.ScheduleMatch(h.DB, opts["team1"].StringValue(), opts["team2"].StringValue())
	if err != nil {
		h.fail(s, i, err)
		return
	}
	h.reply(s, i, msg, false)
}

func (h *Handler) matchResult(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	opts := optionMap(i)
	msg, err := matchService.RecordResult(h.DB, opts["winner"].StringValue())
	if err != nil {
		h.fail(s, i, err)
		return
	}
	h.reply(s, i, msg, false)
}

func (h *Handler) closeBets(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	msg, err := betService.CloseBets(h.DB)
	if err != nil {
		h.fail(s, i, err)
		return
	}
	h.reply(s, i, msg, false)
}

func (h *Handler) forceParse(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	h.reply(s, i, "Match parsing started.", true)
	go func() {
		if err := h.Engine.Reconcile(); err != nil {
			h.Log.Error().Err(err).Msg("forced reconciliation failed")
		}
	}()
}

func (h *Handler) wipeDatabase(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(s, i) {
		return
	}
	if err := tournamentService.WipeAll(h.DB); err != nil {
		h.fail(s, i, err)
		return
	}
	h.reply(s, i, "Database deleted.", true)
}

func RegisterCommands(s *discordgo.Session, guildID string) error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "tournament-info",
			Description: "Show info about the next tournament",
		},
		{
			Name:        "register",
			Description: "Register a team for the tournament (you become the captain)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "team-name",
					Description: "Name of the team",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
				{
					Name:        "players",
					Description: "Other players, space separated (mentions or names)",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
				},
			},
		},
		{
			Name:        "leave",
			Description: "Leave your team (captains disband the whole team)",
		},
		{
			Name:        "team-info",
			Description: "Show a team's roster",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "team-name",
					Description: "Name of the team",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
			},
		},
		{
			Name:        "player-info",
			Description: "Show a player's tournament info",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "player",
					Description: "Mention or name // *Optional: Default yourself",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
				},
			},
		},
		{
			Name:        "set-nickname",
			Description: "Set your in-game nickname (needed for automatic match results)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "nickname",
					Description: "Your in-game nickname",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
			},
		},
		{
			Name:        "balance",
			Description: "Show your banana balance",
		},
		{
			Name:        "leaderboard",
			Description: "Show the top users by bananas",
		},
		{
			Name:        "bet",
			Description: "Bet bananas on the current match",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "amount",
					Description: "Amount of bananas to bet",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Required:    true,
				},
				{
					Name:        "side",
					Description: "1 for the first team, 2 for the second",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Required:    true,
				},
			},
		},
		{
			Name:        "schedule-match",
			Description: "🛡 Schedule the next match and open betting - ADMIN ONLY",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "team1",
					Description: "First team",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
				{
					Name:        "team2",
					Description: "Second team",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
			},
		},
		{
			Name:        "match-result",
			Description: "🛡 Record the winner of the current match and pay out bets - ADMIN ONLY",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "winner",
					Description: "Winning team",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
			},
		},
		{
			Name:        "close-bets",
			Description: "🛡 Close the betting window for the current match - ADMIN ONLY",
		},
		{
			Name:        "force-parse",
			Description: "🛡 Run the match-result reconciliation now - ADMIN ONLY",
		},
		{
			Name:        "wipe-database",
			Description: "🛡 Delete all players and teams - ADMIN ONLY",
		},
	}

	for _, cmd := range commands {
		_, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%v' command: %v", cmd.Name, err)
		}
	}

	return nil
}
