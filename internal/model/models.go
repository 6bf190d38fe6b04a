// Package model defines the data models for the daily-winner bot.
package model

import "fmt"

// GameType is the closed set of daily games a chat can run.
type GameType int

const (
	// GameUserOfDay is the "User of the Day" game.
	GameUserOfDay GameType = iota
	// GamePidorOfDay is the "Pidor of the Day" game.
	GamePidorOfDay
)

// gameTypeNames are the stable string identifiers, used in config files
// and log output.
var gameTypeNames = [...]string{
	GameUserOfDay:  "user_of_the_day",
	GamePidorOfDay: "pidor_of_the_day",
}

// String returns the stable identifier for the game type.
func (g GameType) String() string {
	if int(g) < 0 || int(g) >= len(gameTypeNames) {
		return fmt.Sprintf("GameType(%d)", int(g))
	}
	return gameTypeNames[g]
}

// ParseGameType resolves a stable identifier back to a GameType.
func ParseGameType(s string) (GameType, error) {
	for i, name := range gameTypeNames {
		if name == s {
			return GameType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown game type %q", s)
}

// GameTypes returns all game types, in declaration order.
func GameTypes() []GameType {
	return []GameType{GameUserOfDay, GamePidorOfDay}
}

// User represents a Telegram user known to the bot. Username and FirstName
// are optional; the empty string means the field is absent.
type User struct {
	ID        int64  `db:"user_id"`
	Username  string `db:"username"`
	FirstName string `db:"firstname"`
}

// DisplayName renders the user for announcements and statistics:
// "FirstName (@username)" when a username exists, else the first name,
// else a placeholder.
func (u User) DisplayName() string {
	if u.Username != "" && u.FirstName != "" {
		return fmt.Sprintf("%s (@%s)", u.FirstName, u.Username)
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Аноним"
}

// Chat represents a game arena with the last winner and run day recorded
// per game type. A run day is a day-of-year marker (1-366); 0 means the
// game has never run.
type Chat struct {
	ID          int64  `db:"chat_id"`
	UserWinner  string `db:"user_winner"`
	UserRunDay  int    `db:"user_run_day"`
	PidorWinner string `db:"pidor_winner"`
	PidorRunDay int    `db:"pidor_run_day"`
}

// Winner returns the stored winner name for the game type.
func (c Chat) Winner(game GameType) string {
	switch game {
	case GamePidorOfDay:
		return c.PidorWinner
	default:
		return c.UserWinner
	}
}

// RunDay returns the stored run day for the game type.
func (c Chat) RunDay(game GameType) int {
	switch game {
	case GamePidorOfDay:
		return c.PidorRunDay
	default:
		return c.UserRunDay
	}
}

// Player is a roster entry: a user joined with their per-game win counters
// in one chat.
type Player struct {
	User       User
	UserCount  int `db:"user_count"`
	PidorCount int `db:"pidor_count"`
}

// Count returns the win counter matching the game type.
func (p Player) Count(game GameType) int {
	switch game {
	case GamePidorOfDay:
		return p.PidorCount
	default:
		return p.UserCount
	}
}

// RankedPlayer is one line of a statistics table.
type RankedPlayer struct {
	Rank        int
	DisplayName string
	Count       int
}
