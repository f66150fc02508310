package main

import (
	"fmt"
	"log"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/config"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/logger"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/models"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/scheduler"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/correlationService"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/extService"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/roleService"
	"github.com/bwmarrin/discordgo"
	"github.com/xo/dburl"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	if cfg.DatabaseURL == "" {
		return gorm.Open(sqlite.Open(cfg.DatabasePath), gormConfig)
	}

	u, err := dburl.Parse(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %v", err)
	}

	switch u.Driver {
	case "mysql":
		return gorm.Open(mysql.Open(u.DSN+"?charset=utf8mb4&parseTime=True&loc=Local"), gormConfig)
	case "sqlite3":
		return gorm.Open(sqlite.Open(u.DSN), gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", u.Driver)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	zlog := logger.New(cfg.LogLevel)

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(&models.Player{}, &models.Team{}, &models.Match{}, &models.BetEntry{}, &models.ErrorLog{})
	if err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatalf("Error creating Discord session: %v", err)
	}

	bracket := extService.NewBracketClient(cfg)
	stats := extService.NewStatsClient(cfg)
	engine := &correlationService.Engine{
		DB:      db,
		Bracket: bracket,
		Stats:   stats,
		Log:     zlog,
	}

	handler := &services.Handler{
		DB:      db,
		Cfg:     cfg,
		Bracket: bracket,
		Engine:  engine,
		Log:     zlog,
	}
	sync := roleService.New(cfg, zlog)

	dg.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type == discordgo.InteractionApplicationCommand {
			handler.HandleSlashCommand(s, i)
		}
	})
	dg.AddHandler(sync.HandleReactionAdd)
	dg.AddHandler(sync.HandleReactionRemove)
	dg.AddHandler(sync.HandlePresenceUpdate)
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		err := s.UpdateGameStatus(0, cfg.TrackedActivity)
		if err != nil {
			return
		}
		if err := sync.Bootstrap(s); err != nil {
			zlog.Error().Err(err).Msg("failed to reconcile reaction state")
		}
	})

	dg.Identify.Intents = discordgo.IntentsGuildPresences | discordgo.IntentsGuildMembers | discordgo.IntentsGuildMessages | discordgo.IntentsGuildMessageReactions

	err = dg.Open()
	if err != nil {
		log.Fatalf("Error opening Discord session: %v", err)
	}
	defer func() {
		if err := dg.Close(); err != nil {
			zlog.Error().Err(err).Msg("failed to close Discord session")
		}
	}()

	err = services.RegisterCommands(dg, cfg.GuildID)
	if err != nil {
		log.Fatalf("Error registering commands: %v", err)
	}

	scheduler.SetupCron(engine, db, zlog)

	log.Println("Bot is running. Press CTRL+C to exit.")
	select {}
}
