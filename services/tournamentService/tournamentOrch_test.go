package tournamentService

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ShiShi-CZ/LennyTheMatchmaker/models"
	"github.com/ShiShi-CZ/LennyTheMatchmaker/services/common"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeBracket struct {
	nextID     int64
	created    []string
	destroyed  []int64
	failCreate bool
}

func (f *fakeBracket) CreateParticipant(name string) (int64, error) {
	if f.failCreate {
		return 0, errors.New("bracket service unavailable")
	}
	f.nextID++
	f.created = append(f.created, name)
	return f.nextID, nil
}

func (f *fakeBracket) DestroyParticipant(id int64) error {
	f.destroyed = append(f.destroyed, id)
	return nil
}

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

func TestRegisterTeamIncludesCaptain(t *testing.T) {
	db := newTestDB(t)
	bracket := &fakeBracket{}

	captain := Member{Name: "anna", DiscordID: "1"}
	members := []Member{{Name: "bert", DiscordID: "2"}, {Name: "nomad"}}

	if _, err := RegisterTeam(db, bracket, "Wizards", captain, members, 100); err != nil {
		t.Fatalf("register: %v", err)
	}

	var team models.Team
	if err := db.Where("name = ?", "Wizards").First(&team).Error; err != nil {
		t.Fatalf("team not created: %v", err)
	}
	if team.Captain != "anna" {
		t.Errorf("captain = %q, want anna", team.Captain)
	}
	if team.BracketID == nil || *team.BracketID != 1 {
		t.Errorf("bracket participant id not stored: %v", team.BracketID)
	}
	if len(bracket.created) != 1 || bracket.created[0] != "Wizards" {
		t.Errorf("bracket participants created = %v, want [Wizards]", bracket.created)
	}

	var roster []models.Player
	db.Where("team_name = ?", "Wizards").Find(&roster)
	names := make(map[string]bool, len(roster))
	for _, p := range roster {
		names[p.Name] = true
	}
	if !names["anna"] {
		t.Error("roster does not contain its captain")
	}
	if len(roster) != 3 {
		t.Errorf("roster size = %d, want 3", len(roster))
	}
}

func TestRegisterTeamDuplicateName(t *testing.T) {
	db := newTestDB(t)
	bracket := &fakeBracket{}
	captain := Member{Name: "anna", DiscordID: "1"}

	if _, err := RegisterTeam(db, bracket, "Wizards", captain, nil, 100); err != nil {
		t.Fatal(err)
	}

	_, err := RegisterTeam(db, bracket, "Wizards", Member{Name: "bert", DiscordID: "2"}, nil, 100)
	ce, ok := common.AsCommandError(err)
	if !ok || ce.Kind != common.KindConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestRegisterTeamMemberConflictRollsBack(t *testing.T) {
	db := newTestDB(t)
	bracket := &fakeBracket{}

	if _, err := RegisterTeam(db, bracket, "Wizards", Member{Name: "anna", DiscordID: "1"}, nil, 100); err != nil {
		t.Fatal(err)
	}

	var playersBefore int64
	db.Model(&models.Player{}).Count(&playersBefore)

	// anna is already on Wizards; the whole registration must abort
	// with no trace of Sorcerers or the new player carl.
	_, err := RegisterTeam(db, bracket, "Sorcerers",
		Member{Name: "bert", DiscordID: "2"},
		[]Member{{Name: "carl", DiscordID: "3"}, {Name: "anna", DiscordID: "1"}}, 100)
	ce, ok := common.AsCommandError(err)
	if !ok || ce.Kind != common.KindConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}

	var teams int64
	db.Model(&models.Team{}).Count(&teams)
	if teams != 1 {
		t.Errorf("team count = %d, want 1 (Sorcerers rolled back)", teams)
	}

	var playersAfter int64
	db.Model(&models.Player{}).Count(&playersAfter)
	if playersAfter != playersBefore {
		t.Errorf("player count changed %d -> %d, partial writes survived rollback", playersBefore, playersAfter)
	}
	if len(bracket.created) != 1 {
		t.Errorf("bracket participants created = %v, want only Wizards", bracket.created)
	}
}

func TestRegisterTeamBracketFailureRollsBack(t *testing.T) {
	db := newTestDB(t)
	bracket := &fakeBracket{failCreate: true}

	_, err := RegisterTeam(db, bracket, "Wizards", Member{Name: "anna", DiscordID: "1"}, nil, 100)
	if err == nil {
		t.Fatal("expected error from bracket failure")
	}
	if _, ok := common.AsCommandError(err); ok {
		t.Fatalf("bracket failure reported as user error: %v", err)
	}

	var teams int64
	db.Model(&models.Team{}).Count(&teams)
	if teams != 0 {
		t.Errorf("team row survived bracket failure")
	}
}

func TestLeaveTeamCaptainDisbands(t *testing.T) {
	db := newTestDB(t)
	bracket := &fakeBracket{}

	members := []Member{{Name: "bert", DiscordID: "2"}, {Name: "carl", DiscordID: "3"}}
	if _, err := RegisterTeam(db, bracket, "Wizards", Member{Name: "anna", DiscordID: "1"}, members, 100); err != nil {
		t.Fatal(err)
	}

	msg, err := LeaveTeam(db, bracket, "1")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if !strings.Contains(msg, "disbanded") {
		t.Errorf("message %q does not mention disbanding", msg)
	}

	var teams int64
	db.Model(&models.Team{}).Count(&teams)
	if teams != 0 {
		t.Error("team row survived captain leave")
	}

	var stranded int64
	db.Model(&models.Player{}).Where("team_name IS NOT NULL").Count(&stranded)
	if stranded != 0 {
		t.Errorf("%d former members still reference the team", stranded)
	}

	if len(bracket.destroyed) != 1 || bracket.destroyed[0] != 1 {
		t.Errorf("bracket participants destroyed = %v, want [1]", bracket.destroyed)
	}
}

func TestRegisterTeamAgainAfterDisband(t *testing.T) {
	db := newTestDB(t)
	bracket := &fakeBracket{}

	if _, err := RegisterTeam(db, bracket, "Wizards", Member{Name: "anna", DiscordID: "1"}, nil, 100); err != nil {
		t.Fatal(err)
	}
	if _, err := LeaveTeam(db, bracket, "1"); err != nil {
		t.Fatalf("disband: %v", err)
	}

	// The name must be free again once the team is gone.
	if _, err := RegisterTeam(db, bracket, "Wizards", Member{Name: "anna", DiscordID: "1"}, nil, 100); err != nil {
		t.Fatalf("re-register after disband: %v", err)
	}

	var team models.Team
	if err := db.Where("name = ?", "Wizards").First(&team).Error; err != nil {
		t.Fatalf("re-registered team not found: %v", err)
	}
	if team.BracketID == nil || *team.BracketID != 2 {
		t.Errorf("bracket participant id = %v, want the newly created 2", team.BracketID)
	}
}

func TestRegisterTeamAgainAfterWipe(t *testing.T) {
	db := newTestDB(t)
	bracket := &fakeBracket{}

	if _, err := RegisterTeam(db, bracket, "Wizards", Member{Name: "anna", DiscordID: "1"}, nil, 100); err != nil {
		t.Fatal(err)
	}
	if err := WipeAll(db); err != nil {
		t.Fatalf("wipe: %v", err)
	}

	if _, err := RegisterTeam(db, bracket, "Wizards", Member{Name: "anna", DiscordID: "1"}, nil, 100); err != nil {
		t.Fatalf("re-register after wipe: %v", err)
	}

	var players int64
	db.Model(&models.Player{}).Where("name = ?", "anna").Count(&players)
	if players != 1 {
		t.Errorf("player rows named anna = %d, want 1", players)
	}
}

func TestLeaveTeamMemberOnlyRemovesCaller(t *testing.T) {
	db := newTestDB(t)
	bracket := &fakeBracket{}

	members := []Member{{Name: "bert", DiscordID: "2"}}
	if _, err := RegisterTeam(db, bracket, "Wizards", Member{Name: "anna", DiscordID: "1"}, members, 100); err != nil {
		t.Fatal(err)
	}

	if _, err := LeaveTeam(db, bracket, "2"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	var team models.Team
	if err := db.Where("name = ?", "Wizards").First(&team).Error; err != nil {
		t.Fatal("team deleted by non-captain leave")
	}

	var bert models.Player
	db.Where("name = ?", "bert").First(&bert)
	if bert.TeamName != nil {
		t.Error("leaver still references the team")
	}

	var anna models.Player
	db.Where("name = ?", "anna").First(&anna)
	if anna.TeamName == nil || *anna.TeamName != "Wizards" {
		t.Error("captain lost team membership")
	}
	if len(bracket.destroyed) != 0 {
		t.Errorf("bracket participant destroyed on member leave: %v", bracket.destroyed)
	}
}

func TestLeaveTeamNotRegistered(t *testing.T) {
	db := newTestDB(t)

	_, err := LeaveTeam(db, &fakeBracket{}, "99")
	ce, ok := common.AsCommandError(err)
	if !ok || ce.Kind != common.KindNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestLeaveTeamRegisteredWithoutTeam(t *testing.T) {
	db := newTestDB(t)
	if _, err := EnsurePlayer(db, "1", "anna", 100); err != nil {
		t.Fatal(err)
	}

	_, err := LeaveTeam(db, &fakeBracket{}, "1")
	ce, ok := common.AsCommandError(err)
	if !ok || ce.Kind != common.KindNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestEnsurePlayerSeedsBalanceOnce(t *testing.T) {
	db := newTestDB(t)

	p, err := EnsurePlayer(db, "1", "anna", 100)
	if err != nil {
		t.Fatal(err)
	}
	if p.Bananas != 100 {
		t.Errorf("starting balance = %d, want 100", p.Bananas)
	}

	p.Bananas = 40
	db.Save(p)

	again, err := EnsurePlayer(db, "1", "anna", 100)
	if err != nil {
		t.Fatal(err)
	}
	if again.Bananas != 40 {
		t.Errorf("balance re-seeded on second reference: %d", again.Bananas)
	}
}

func TestEnsurePlayerClaimsNameOnlyRecord(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&models.Player{Name: "nomad", Bananas: 100}).Error; err != nil {
		t.Fatal(err)
	}

	p, err := EnsurePlayer(db, "7", "nomad", 100)
	if err != nil {
		t.Fatal(err)
	}
	if p.DiscordID == nil || *p.DiscordID != "7" {
		t.Error("existing record not claimed by Discord id")
	}

	var count int64
	db.Model(&models.Player{}).Count(&count)
	if count != 1 {
		t.Errorf("player count = %d, want 1", count)
	}
}

func TestSetNickname(t *testing.T) {
	db := newTestDB(t)

	if _, err := SetNickname(db, "1", "anna", "moover", 100); err != nil {
		t.Fatal(err)
	}

	var p models.Player
	db.Where("name = ?", "anna").First(&p)
	if p.IngameName == nil || *p.IngameName != "moover" {
		t.Errorf("nickname not stored: %v", p.IngameName)
	}

	if _, err := SetNickname(db, "1", "anna", "", 100); err == nil {
		t.Error("empty nickname accepted")
	}
}
