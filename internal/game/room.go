package game

import (
	"math"
	"time"
)

const (
	StateWaitingForPlayers = "waiting-for-players"
	StateInProgress        = "in-progress"
	StateGameOver          = "game-over"
)

const guessPointsBase = 2000.0

func NewRoom(name string, leader Player, occupancy, maxRounds int, word string, now time.Time) *Room {
	leader.IsPartyLeader = true
	room := &Room{
		Name:         name,
		Word:         word,
		Occupancy:    occupancy,
		MaxRounds:    maxRounds,
		CurrentRound: 1,
		Players:      []Player{leader},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	room.refresh()
	return room
}

// Clone returns a deep copy; stores never share slices with callers.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Players = append([]Player(nil), r.Players...)
	clone.Guessed = append([]string(nil), r.Guessed...)
	if r.Turn != nil {
		turn := *r.Turn
		clone.Turn = &turn
	}
	return &clone
}

// Recompute rebuilds the derived fields after a room is decoded from storage.
func (r *Room) Recompute() {
	r.refresh()
}

func (r *Room) State() string {
	switch {
	case r.Finished:
		return StateGameOver
	case r.Started:
		return StateInProgress
	default:
		return StateWaitingForPlayers
	}
}

func (r *Room) Summary() RoomSummary {
	names := make([]string, 0, len(r.Players))
	for _, player := range r.Players {
		names = append(names, player.Nickname)
	}
	return RoomSummary{
		Name:         r.Name,
		Players:      names,
		CurrentRound: r.CurrentRound,
		MaxRounds:    r.MaxRounds,
		Finished:     r.Finished,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r *Room) Join(player Player) error {
	if r.Finished {
		return ErrGameOver
	}
	if !r.IsJoin {
		return ErrRoomFull
	}
	player.IsPartyLeader = false
	r.Players = append(r.Players, player)
	r.refresh()
	return nil
}

// GuessPoints is round(2000 / seconds); zero seconds earns nothing.
func GuessPoints(seconds int) int {
	if seconds == 0 {
		return 0
	}
	return int(math.Round(guessPointsBase / float64(seconds)))
}

func (r *Room) ApplyGuess(guess Guess) GuessOutcome {
	outcome := GuessOutcome{Result: GuessIncorrect, GuessedCount: guess.GuessedCount, Generation: r.Generation}
	if guess.Text != r.Word {
		return outcome
	}
	outcome.Result = GuessIgnored
	if r.Finished {
		return outcome
	}
	index := r.playerIndex(guess.ConnectionHandle, guess.Username)
	if index < 0 || index == r.TurnIndex {
		return outcome
	}
	player := &r.Players[index]
	if r.hasGuessed(player.ConnectionHandle) {
		return outcome
	}

	points := GuessPoints(guess.SecondsElapsed)
	player.Points += points
	r.Guessed = append(r.Guessed, player.ConnectionHandle)

	outcome.Result = GuessCorrect
	outcome.Points = points
	outcome.GuessedCount = guess.GuessedCount + 1
	outcome.Advance = r.markTurnComplete()
	r.refresh()
	return outcome
}

// NextTurnEndsGame reports whether advancing from the current turn exhausts the round budget.
func (r *Room) NextTurnEndsGame() bool {
	if r.Finished || len(r.Players) == 0 {
		return true
	}
	round := r.CurrentRound
	if r.TurnIndex+1 >= len(r.Players) {
		round++
	}
	return round > r.MaxRounds
}

func (r *Room) AdvanceTurn(word string) {
	if len(r.Players) == 0 {
		return
	}
	if r.TurnIndex+1 >= len(r.Players) {
		r.CurrentRound++
	}
	r.Word = word
	r.TurnIndex = (r.TurnIndex + 1) % len(r.Players)
	r.startTurn()
}

// Handover says what a departure did to the drawer seat.
type Handover int

const (
	HandoverNone Handover = iota
	// HandoverNext passes the turn to the player who moved into the drawer's index.
	HandoverNext
	// HandoverWrap passes the turn back to index 0, closing the round.
	HandoverWrap
)

// RemovePlayer drops the first player holding handle. Players ahead of the drawer
// shift the turn index down so the drawer stays the same person.
func (r *Room) RemovePlayer(handle string) (Player, bool, Handover) {
	index := -1
	for i := range r.Players {
		if r.Players[i].ConnectionHandle == handle {
			index = i
			break
		}
	}
	if index < 0 {
		return Player{}, false, HandoverNone
	}
	removed := r.Players[index]
	players := make([]Player, 0, len(r.Players)-1)
	players = append(players, r.Players[:index]...)
	r.Players = append(players, r.Players[index+1:]...)
	r.dropGuessed(handle)

	handover := HandoverNone
	switch {
	case index == r.TurnIndex && index >= len(r.Players):
		handover = HandoverWrap
	case index == r.TurnIndex:
		handover = HandoverNext
	case index < r.TurnIndex:
		r.TurnIndex--
	}
	if r.TurnIndex >= len(r.Players) {
		r.TurnIndex = 0
	}
	r.refresh()
	return removed, true, handover
}

func (r *Room) startTurn() {
	r.Generation++
	r.Guessed = nil
	r.TurnComplete = false
	r.refresh()
}

func (r *Room) markTurnComplete() bool {
	if r.TurnComplete || len(r.Players) < 2 {
		return false
	}
	if len(r.Guessed) < len(r.Players)-1 {
		return false
	}
	r.TurnComplete = true
	return true
}

func (r *Room) refresh() {
	if len(r.Players) == 0 {
		r.TurnIndex = 0
		r.Turn = nil
	} else {
		if r.TurnIndex < 0 || r.TurnIndex >= len(r.Players) {
			r.TurnIndex = 0
		}
		turn := r.Players[r.TurnIndex]
		r.Turn = &turn
	}
	r.IsJoin = len(r.Players) < r.Occupancy
	if !r.IsJoin {
		r.Started = true
	}
}

func (r *Room) playerIndex(handle, nickname string) int {
	if handle != "" {
		for i := range r.Players {
			if r.Players[i].ConnectionHandle == handle {
				return i
			}
		}
		return -1
	}
	for i := range r.Players {
		if r.Players[i].Nickname == nickname {
			return i
		}
	}
	return -1
}

func (r *Room) hasGuessed(handle string) bool {
	for _, guessed := range r.Guessed {
		if guessed == handle {
			return true
		}
	}
	return false
}

func (r *Room) dropGuessed(handle string) {
	kept := r.Guessed[:0]
	for _, guessed := range r.Guessed {
		if guessed != handle {
			kept = append(kept, guessed)
		}
	}
	r.Guessed = kept
}
