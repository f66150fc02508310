package models

import "gorm.io/gorm"

// Player is the local identity record. IngameName is the only value
// shared with the stats service, so correlation breaks for players
// who never set it.
type Player struct {
	gorm.Model
	ID           uint    `gorm:"primaryKey"`
	Name         string  `gorm:"uniqueIndex;size:64"`
	IngameName   *string `gorm:"size:64"`
	DiscordID    *string `gorm:"size:64"`
	TeamName     *string `gorm:"size:64"`
	Achievements []string `gorm:"serializer:json"`
	Bananas      int
}
