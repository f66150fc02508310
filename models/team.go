package models

import "gorm.io/gorm"

// Team membership lives on Player.TeamName; the captain is always a
// member. BracketID is the participant id on the bracket service,
// set once registration succeeds there.
type Team struct {
	gorm.Model
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:64"`
	Captain   string `gorm:"size:64"`
	BracketID *int64
}
