package game

import "time"

// GameRecord is the immutable persisted summary of one finished
// session. Created exactly once, at the Finished transition.
type GameRecord struct {
	ID            string    `json:"id"`
	WhitePlayer   string    `json:"whitePlayer"`
	BlackPlayer   string    `json:"blackPlayer"`
	Moves         []string  `json:"moves"`
	Result        string    `json:"result"`
	DurationSec   int64     `json:"duration"`
	MoveLog       string    `json:"moveLog"`
	FinalPosition string    `json:"finalPosition"`
	CreatedAt     time.Time `json:"createdAt"`
}
