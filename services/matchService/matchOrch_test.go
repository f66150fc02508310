package matchService

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/models"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/common"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Player{}, &models.Team{}, &models.Match{}, &models.BetEntry{}); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

func seedTeams(t *testing.T, db *gorm.DB, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := db.Create(&models.Team{Name: name, Captain: name + "-captain"}).Error; err != nil {
			t.Fatal(err)
		}
	}
}

func TestScheduleMatchCreatesOpenMatch(t *testing.T) {
	db := newTestDB(t)
	seedTeams(t, db, "Wizards", "Sorcerers")

	msg, err := ScheduleMatch(db, "Wizards", "Sorcerers")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !strings.Contains(msg, "Wizards vs. Sorcerers") {
		t.Errorf("announcement %q does not name the pairing", msg)
	}

	var match models.Match
	if err := db.First(&match).Error; err != nil {
		t.Fatalf("match row not created: %v", err)
	}
	if match.Team1 != "Wizards" || match.Team2 != "Sorcerers" {
		t.Errorf("pairing stored as %q vs %q", match.Team1, match.Team2)
	}
	if !match.BetsOpen {
		t.Error("betting window not opened")
	}
}

func TestScheduleMatchSameTeam(t *testing.T) {
	db := newTestDB(t)
	seedTeams(t, db, "Wizards")

	_, err := ScheduleMatch(db, "Wizards", "Wizards")
	ce, ok := common.AsCommandError(err)
	if !ok || ce.Kind != common.KindInvalid {
		t.Fatalf("expected invalid-input error, got %v", err)
	}

	var count int64
	db.Model(&models.Match{}).Count(&count)
	if count != 0 {
		t.Error("match row created for a team against itself")
	}
}

func TestScheduleMatchUnknownTeam(t *testing.T) {
	db := newTestDB(t)
	seedTeams(t, db, "Wizards")

	_, err := ScheduleMatch(db, "Wizards", "Ghosts")
	ce, ok := common.AsCommandError(err)
	if !ok || ce.Kind != common.KindNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRecordResultClosesMatch(t *testing.T) {
	db := newTestDB(t)
	seedTeams(t, db, "Wizards", "Sorcerers")

	if _, err := ScheduleMatch(db, "Wizards", "Sorcerers"); err != nil {
		t.Fatal(err)
	}

	msg, err := RecordResult(db, "Sorcerers")
	if err != nil {
		t.Fatalf("record result: %v", err)
	}
	if !strings.Contains(msg, "Sorcerers") {
		t.Errorf("result message %q does not name the winner", msg)
	}

	var match models.Match
	if err := db.First(&match).Error; err != nil {
		t.Fatal(err)
	}
	if match.Winner == nil || *match.Winner != "Sorcerers" {
		t.Errorf("winner = %v, want Sorcerers", match.Winner)
	}
	if match.BetsOpen {
		t.Error("betting window still open after resolution")
	}
}

func TestRecordResultUnknownWinner(t *testing.T) {
	db := newTestDB(t)
	seedTeams(t, db, "Wizards", "Sorcerers")

	if _, err := ScheduleMatch(db, "Wizards", "Sorcerers"); err != nil {
		t.Fatal(err)
	}

	_, err := RecordResult(db, "Ghosts")
	ce, ok := common.AsCommandError(err)
	if !ok || ce.Kind != common.KindNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
