package game

import "time"

type Player struct {
	ConnectionHandle string `json:"socketID"`
	Nickname         string `json:"nickname"`
	IsPartyLeader    bool   `json:"isPartyLeader"`
	Points           int    `json:"points"`
}

type Room struct {
	Name         string    `json:"name"`
	Word         string    `json:"word"`
	Occupancy    int       `json:"occupancy"`
	MaxRounds    int       `json:"maxRounds"`
	CurrentRound int       `json:"currentRound"`
	TurnIndex    int       `json:"turnIndex"`
	Turn         *Player   `json:"turn"`
	IsJoin       bool      `json:"isJoin"`
	Players      []Player  `json:"players"`
	Generation   uint64    `json:"generation"`
	Guessed      []string  `json:"guessed,omitempty"`
	TurnComplete bool      `json:"turnComplete,omitempty"`
	Started      bool      `json:"started,omitempty"`
	Finished     bool      `json:"finished,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type RoomSummary struct {
	Name         string    `json:"name"`
	Players      []string  `json:"players"`
	CurrentRound int       `json:"currentRound"`
	MaxRounds    int       `json:"maxRounds"`
	Finished     bool      `json:"finished"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type GuessResult int

const (
	GuessIncorrect GuessResult = iota
	GuessCorrect
	// GuessIgnored covers the drawer typing the word, repeat guessers and finished rooms.
	GuessIgnored
)

type Guess struct {
	RoomName         string
	ConnectionHandle string
	Username         string
	Text             string
	SecondsElapsed   int
	GuessedCount     int
}

type GuessOutcome struct {
	Result       GuessResult
	Points       int
	GuessedCount int
	// Advance is set on the one guess that completes the turn.
	Advance    bool
	Generation uint64
	Room       *Room
}

type TurnOutcome struct {
	GameOver bool
	Room     *Room
	Players  []Player
}

type RemovalOutcome struct {
	Removed  Player
	GameOver bool
	Room     *Room
	Players  []Player
	// Advance is set when the departure leaves every remaining non-drawer guessed.
	Advance    bool
	Generation uint64
}
