package models

import "gorm.io/gorm"

// Match is a locally scheduled pairing. Winner stays nil until an
// admin records the result; BetsOpen gates the betting window.
type Match struct {
	gorm.Model
	ID       uint `gorm:"primaryKey"`
	Team1    string
	Team2    string
	Winner   *string
	BetsOpen bool
}
