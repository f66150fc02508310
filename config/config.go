package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken      string
	GuildID           string
	ReactionChannelID string
	ReactionMessageID string
	MatchmakingRoleID string
	TrackedActivity   string
	BracketAPIURL     string
	BracketAPIKey     string
	TournamentSlug    string
	StatsAPIURL       string
	DatabaseURL       string
	DatabasePath      string
	StartingBananas   int
	LogLevel          string
}

func Load() (*Config, error) {
	// .env is optional; a deployed bot gets everything from the
	// environment.
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:      os.Getenv("DISCORD_BOT_TOKEN"),
		GuildID:           os.Getenv("GUILD_ID"),
		ReactionChannelID: os.Getenv("REACTION_CHANNEL_ID"),
		ReactionMessageID: os.Getenv("REACTION_MESSAGE_ID"),
		MatchmakingRoleID: os.Getenv("MATCHMAKING_ROLE_ID"),
		TrackedActivity:   getEnv("TRACKED_ACTIVITY", "Magicka: Wizard Wars"),
		BracketAPIURL:     getEnv("BRACKET_API_URL", "https://api.challonge.com/v1"),
		BracketAPIKey:     os.Getenv("BRACKET_API_KEY"),
		TournamentSlug:    os.Getenv("TOURNAMENT_SLUG"),
		StatsAPIURL:       os.Getenv("STATS_API_URL"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DatabasePath:      getEnv("DATABASE_PATH", "lenny.db"),
		StartingBananas:   100,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if v := os.Getenv("STARTING_BANANAS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("STARTING_BANANAS must be an integer: %v", err)
		}
		cfg.StartingBananas = n
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN not set in environment variables")
	}
	if cfg.GuildID == "" {
		return nil, fmt.Errorf("GUILD_ID not set in environment variables")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
