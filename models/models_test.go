package models

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Saving the collections and reopening the database must reproduce an
// equivalent set of records, including the serialized achievements.
func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lenny.db")
	open := func() *gorm.DB {
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			t.Fatalf("opening database: %v", err)
		}
		if err := db.AutoMigrate(&Player{}, &Team{}, &Match{}, &BetEntry{}); err != nil {
			t.Fatalf("migrating: %v", err)
		}
		return db
	}

	db := open()

	nick := "moover"
	team := "Wizards"
	discord := "42"
	bracketID := int64(77)
	player := Player{
		Name:         "anna",
		IngameName:   &nick,
		DiscordID:    &discord,
		TeamName:     &team,
		Achievements: []string{"Winter 2021 champion", "MVP"},
		Bananas:      130,
	}
	if err := db.Create(&player).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&Team{Name: team, Captain: "anna", BracketID: &bracketID}).Error; err != nil {
		t.Fatal(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := open()

	var loaded Player
	if err := reopened.Where("name = ?", "anna").First(&loaded).Error; err != nil {
		t.Fatalf("loading player: %v", err)
	}
	if loaded.IngameName == nil || *loaded.IngameName != nick {
		t.Errorf("ingame name = %v, want %q", loaded.IngameName, nick)
	}
	if loaded.TeamName == nil || *loaded.TeamName != team {
		t.Errorf("team = %v, want %q", loaded.TeamName, team)
	}
	if loaded.Bananas != 130 {
		t.Errorf("bananas = %d, want 130", loaded.Bananas)
	}
	if len(loaded.Achievements) != 2 || loaded.Achievements[0] != "Winter 2021 champion" {
		t.Errorf("achievements = %v", loaded.Achievements)
	}

	var loadedTeam Team
	if err := reopened.Where("name = ?", team).First(&loadedTeam).Error; err != nil {
		t.Fatalf("loading team: %v", err)
	}
	if loadedTeam.Captain != "anna" {
		t.Errorf("captain = %q, want anna", loadedTeam.Captain)
	}
	if loadedTeam.BracketID == nil || *loadedTeam.BracketID != bracketID {
		t.Errorf("bracket id = %v, want %d", loadedTeam.BracketID, bracketID)
	}
}
