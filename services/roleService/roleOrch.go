package roleService

import (
	"fmt"
	"sync"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/config"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/common"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const (
	ReactionOptIn    = "🔔"
	ReactionKeepRole = "🎮"
)

// Action is the outcome of evaluating the transition rules for one
// presence change.
type Action int

const (
	ActionNone Action = iota
	ActionGrant
	ActionRevoke
)

// DecideRoleAction applies the matchmaking-role transition rules:
// opted-in players get the role while the tracked activity is running
// and lose it when it stops, unless they asked to keep it; keep-role
// players get it back whenever it goes missing.
func DecideRoleAction(optIn, keepRole, playing, hasRole bool) Action {
	switch {
	case optIn && playing && !hasRole:
		return ActionGrant
	case optIn && !playing && !keepRole && hasRole:
		return ActionRevoke
	case keepRole && !hasRole:
		return ActionGrant
	}
	return ActionNone
}

// Synchronizer tracks the two reaction-derived opt-in sets and applies
// role changes on presence events. discordgo dispatches handlers
// concurrently, so the sets are mutex-guarded.
type Synchronizer struct {
	cfg *config.Config
	log zerolog.Logger

	mu       sync.Mutex
	optIn    map[string]bool
	keepRole map[string]bool
}

func New(cfg *config.Config, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		cfg:      cfg,
		log:      log,
		optIn:    make(map[string]bool),
		keepRole: make(map[string]bool),
	}
}

// Bootstrap rebuilds both sets from the reactions currently on the
// designated message. The bot's own marker reactions are removed
// first so they don't count as members, then re-added so the buttons
// stay visible.
func (r *Synchronizer) Bootstrap(s *discordgo.Session) error {
	channelID := r.cfg.ReactionChannelID
	messageID := r.cfg.ReactionMessageID

	for _, emoji := range []string{ReactionKeepRole, ReactionOptIn} {
		if err := s.MessageReactionRemove(channelID, messageID, emoji, "@me"); err != nil {
			r.log.Debug().Err(err).Str("emoji", emoji).Msg("no own reaction to remove")
		}
	}

	keepRole, err := r.reactionUsers(s, ReactionKeepRole)
	if err != nil {
		return fmt.Errorf("reading keep-role reactions: %w", err)
	}
	optIn, err := r.reactionUsers(s, ReactionOptIn)
	if err != nil {
		return fmt.Errorf("reading opt-in reactions: %w", err)
	}

	r.mu.Lock()
	r.keepRole = keepRole
	r.optIn = optIn
	r.mu.Unlock()

	for _, emoji := range []string{ReactionKeepRole, ReactionOptIn} {
		if err := s.MessageReactionAdd(channelID, messageID, emoji); err != nil {
			return fmt.Errorf("re-adding own reaction: %w", err)
		}
	}

	r.log.Info().
		Int("keep_role", len(keepRole)).
		Int("opt_in", len(optIn)).
		Msg("reaction state reconciled")
	return nil
}

func (r *Synchronizer) reactionUsers(s *discordgo.Session, emoji string) (map[string]bool, error) {
	users := make(map[string]bool)
	after := ""
	for {
		page, err := s.MessageReactions(r.cfg.ReactionChannelID, r.cfg.ReactionMessageID, emoji, 100, "", after)
		if err != nil {
			return nil, err
		}
		for _, u := range page {
			users[u.ID] = true
		}
		if len(page) < 100 {
			return users, nil
		}
		after = page[len(page)-1].ID
	}
}

// HandleReactionAdd mutates the opt-in sets; the keep-role reaction
// grants the role immediately.
func (r *Synchronizer) HandleReactionAdd(s *discordgo.Session, e *discordgo.MessageReactionAdd) {
	if e.MessageID != r.cfg.ReactionMessageID {
		return
	}

	switch e.Emoji.Name {
	case ReactionKeepRole:
		r.mu.Lock()
		r.keepRole[e.UserID] = true
		r.mu.Unlock()
		if err := s.GuildMemberRoleAdd(r.cfg.GuildID, e.UserID, r.cfg.MatchmakingRoleID); err != nil {
			r.log.Error().Err(err).Str("user", e.UserID).Msg("failed to grant matchmaking role")
		}
	case ReactionOptIn:
		r.mu.Lock()
		r.optIn[e.UserID] = true
		r.mu.Unlock()
	}
}

// HandleReactionRemove mutates the opt-in sets; the keep-role reaction
// revokes the role immediately.
func (r *Synchronizer) HandleReactionRemove(s *discordgo.Session, e *discordgo.MessageReactionRemove) {
	if e.MessageID != r.cfg.ReactionMessageID {
		return
	}

	switch e.Emoji.Name {
	case ReactionKeepRole:
		r.mu.Lock()
		delete(r.keepRole, e.UserID)
		r.mu.Unlock()
		if r.memberHasRole(s, e.UserID) {
			if err := s.GuildMemberRoleRemove(r.cfg.GuildID, e.UserID, r.cfg.MatchmakingRoleID); err != nil {
				r.log.Error().Err(err).Str("user", e.UserID).Msg("failed to revoke matchmaking role")
			}
		}
	case ReactionOptIn:
		r.mu.Lock()
		delete(r.optIn, e.UserID)
		r.mu.Unlock()
	}
}

// HandlePresenceUpdate evaluates the transition rules for the member
// whose presence changed.
func (r *Synchronizer) HandlePresenceUpdate(s *discordgo.Session, e *discordgo.PresenceUpdate) {
	if e.GuildID != r.cfg.GuildID || e.User == nil {
		return
	}
	userID := e.User.ID

	r.mu.Lock()
	optIn := r.optIn[userID]
	keepRole := r.keepRole[userID]
	r.mu.Unlock()

	if !optIn && !keepRole {
		return
	}

	playing := false
	for _, a := range e.Activities {
		if a != nil && a.Name == r.cfg.TrackedActivity {
			playing = true
			break
		}
	}

	switch DecideRoleAction(optIn, keepRole, playing, r.memberHasRole(s, userID)) {
	case ActionGrant:
		if err := s.GuildMemberRoleAdd(r.cfg.GuildID, userID, r.cfg.MatchmakingRoleID); err != nil {
			r.log.Error().Err(err).Str("user", userID).Msg("failed to grant matchmaking role")
		}
	case ActionRevoke:
		if err := s.GuildMemberRoleRemove(r.cfg.GuildID, userID, r.cfg.MatchmakingRoleID); err != nil {
			r.log.Error().Err(err).Str("user", userID).Msg("failed to revoke matchmaking role")
		}
	}
}

func (r *Synchronizer) memberHasRole(s *discordgo.Session, userID string) bool {
	member, err := s.State.Member(r.cfg.GuildID, userID)
	if err != nil || member == nil {
		member, err = s.GuildMember(r.cfg.GuildID, userID)
		if err != nil || member == nil {
			return false
		}
	}
	return common.Contains(member.Roles, r.cfg.MatchmakingRoleID)
}
