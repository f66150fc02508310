package models

// BetEntry is an outstanding stake on one side of a match. The stake
// has already been deducted from the player's bananas; resolution
// either credits a payout or forfeits it.
type BetEntry struct {
	ID       uint  `gorm:"primaryKey"`
	Match    Match `gorm:"foreignKey:MatchID"`
	MatchID  uint
	Player   Player `gorm:"foreignKey:PlayerID"`
	PlayerID uint
	Side     int
	Amount   int
}
