package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doodleit/internal/logging"
)

type WordSource interface {
	Next(ctx context.Context) (string, error)
}

type CreateRequest struct {
	ConnectionHandle string
	Nickname         string
	Name             string
	Occupancy        int
	MaxRounds        int
}

type JoinRequest struct {
	ConnectionHandle string
	Nickname         string
	Name             string
}

type EvictionPolicy struct {
	IdleTTL     time.Duration
	FinishedTTL time.Duration
	// OnEvict runs while the evicted room's lock is still held.
	OnEvict func(name string)
}

// Engine runs room transitions. Every transition on a room is a
// load-mutate-save sequence under that room's lock.
type Engine struct {
	store Store
	words WordSource
	locks *roomLocks
	now   func() time.Time
}

func NewEngine(store Store, words WordSource) *Engine {
	return &Engine{
		store: store,
		words: words,
		locks: newRoomLocks(),
		now:   time.Now,
	}
}

func (e *Engine) CreateRoom(ctx context.Context, req CreateRequest) (*Room, error) {
	unlock := e.locks.Lock(req.Name)
	defer unlock()

	if _, err := e.store.FindByName(ctx, req.Name); err == nil {
		return nil, ErrRoomExists
	} else if !errors.Is(err, ErrRoomNotFound) {
		return nil, fmt.Errorf("find room: %w", err)
	}
	word, err := e.words.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("draw word: %w", err)
	}
	leader := Player{ConnectionHandle: req.ConnectionHandle, Nickname: req.Nickname}
	room := NewRoom(req.Name, leader, req.Occupancy, req.MaxRounds, word, e.now().UTC())
	created, err := e.store.Create(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	logging.FromContext(ctx).Debugw("room created", "room", created.Name, "occupancy", created.Occupancy, "max_rounds", created.MaxRounds)
	return created, nil
}

func (e *Engine) JoinRoom(ctx context.Context, req JoinRequest) (*Room, error) {
	unlock := e.locks.Lock(req.Name)
	defer unlock()

	room, err := e.store.FindByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if err := room.Join(Player{ConnectionHandle: req.ConnectionHandle, Nickname: req.Nickname}); err != nil {
		return nil, err
	}
	return e.save(ctx, room)
}

func (e *Engine) SubmitGuess(ctx context.Context, guess Guess) (GuessOutcome, error) {
	unlock := e.locks.Lock(guess.RoomName)
	defer unlock()

	room, err := e.store.FindByName(ctx, guess.RoomName)
	if err != nil {
		return GuessOutcome{}, err
	}
	outcome := room.ApplyGuess(guess)
	outcome.Room = room
	if outcome.Result != GuessCorrect {
		return outcome, nil
	}
	saved, err := e.save(ctx, room)
	if err != nil {
		return GuessOutcome{}, err
	}
	outcome.Room = saved
	return outcome, nil
}

// AdvanceTurn moves to the next drawer unconditionally.
func (e *Engine) AdvanceTurn(ctx context.Context, name string) (TurnOutcome, error) {
	unlock := e.locks.Lock(name)
	defer unlock()

	room, err := e.store.FindByName(ctx, name)
	if err != nil {
		return TurnOutcome{}, err
	}
	return e.advance(ctx, room)
}

// AdvanceTurnFrom advances only if the room is still on the turn identified by
// generation. Anything else returns ErrStaleTurn and changes nothing.
func (e *Engine) AdvanceTurnFrom(ctx context.Context, name string, generation uint64) (TurnOutcome, error) {
	unlock := e.locks.Lock(name)
	defer unlock()

	room, err := e.store.FindByName(ctx, name)
	if errors.Is(err, ErrRoomNotFound) {
		return TurnOutcome{}, ErrStaleTurn
	}
	if err != nil {
		return TurnOutcome{}, err
	}
	if room.Generation != generation || room.Finished || len(room.Players) == 0 {
		return TurnOutcome{}, ErrStaleTurn
	}
	return e.advance(ctx, room)
}

func (e *Engine) advance(ctx context.Context, room *Room) (TurnOutcome, error) {
	if room.NextTurnEndsGame() {
		if !room.Finished && len(room.Players) > 0 {
			room.Finished = true
			saved, err := e.save(ctx, room)
			if err != nil {
				return TurnOutcome{}, err
			}
			room = saved
		}
		return TurnOutcome{GameOver: true, Room: room, Players: append([]Player(nil), room.Players...)}, nil
	}
	word, err := e.words.Next(ctx)
	if err != nil {
		return TurnOutcome{}, fmt.Errorf("draw word: %w", err)
	}
	room.AdvanceTurn(word)
	saved, err := e.save(ctx, room)
	if err != nil {
		return TurnOutcome{}, err
	}
	return TurnOutcome{Room: saved, Players: append([]Player(nil), saved.Players...)}, nil
}

func (e *Engine) RemovePlayer(ctx context.Context, handle string) (RemovalOutcome, error) {
	found, err := e.store.FindByMemberConnection(ctx, handle)
	if err != nil {
		return RemovalOutcome{}, err
	}
	unlock := e.locks.Lock(found.Name)
	defer unlock()

	room, err := e.store.FindByName(ctx, found.Name)
	if err != nil {
		return RemovalOutcome{}, err
	}
	removed, ok, handover := room.RemovePlayer(handle)
	if !ok {
		return RemovalOutcome{}, ErrPlayerNotFound
	}

	outcome := RemovalOutcome{Removed: removed}
	switch {
	case len(room.Players) == 1:
		if room.Started {
			room.Finished = true
		}
		outcome.GameOver = true
	case len(room.Players) == 0 || room.Finished:
	case handover == HandoverWrap && room.CurrentRound >= room.MaxRounds:
		// The last drawer of the last round left.
		room.Finished = true
		outcome.GameOver = true
	case handover != HandoverNone:
		if handover == HandoverWrap {
			room.CurrentRound++
		}
		word, err := e.words.Next(ctx)
		if err != nil {
			logging.FromContext(ctx).Errorw("draw word after drawer left", "room", room.Name, "error", err)
			word = room.Word
		}
		room.Word = word
		room.startTurn()
	default:
		outcome.Advance = room.markTurnComplete()
	}

	saved, err := e.save(ctx, room)
	if err != nil {
		return RemovalOutcome{}, err
	}
	outcome.Room = saved
	outcome.Players = append([]Player(nil), saved.Players...)
	outcome.Generation = saved.Generation
	return outcome, nil
}

func (e *Engine) Snapshot(ctx context.Context, name string) (*Room, error) {
	return e.store.FindByName(ctx, name)
}

func (e *Engine) Count(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

func (e *Engine) Summaries(ctx context.Context) ([]RoomSummary, error) {
	return e.store.ListSummaries(ctx)
}

// Evict deletes rooms idle past the policy and returns their names.
func (e *Engine) Evict(ctx context.Context, policy EvictionPolicy) ([]string, error) {
	summaries, err := e.store.ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	now := e.now().UTC()
	evicted := make([]string, 0)
	for _, summary := range summaries {
		if !policy.expired(summary, now) {
			continue
		}
		ok, err := e.evictRoom(ctx, summary.Name, policy, now)
		if err != nil {
			return evicted, err
		}
		if ok {
			evicted = append(evicted, summary.Name)
		}
	}
	return evicted, nil
}

func (e *Engine) evictRoom(ctx context.Context, name string, policy EvictionPolicy, now time.Time) (bool, error) {
	unlock := e.locks.Lock(name)
	defer unlock()

	room, err := e.store.FindByName(ctx, name)
	if errors.Is(err, ErrRoomNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !policy.expired(room.Summary(), now) {
		return false, nil
	}
	if err := e.store.Delete(ctx, name); err != nil {
		return false, fmt.Errorf("delete room: %w", err)
	}
	if policy.OnEvict != nil {
		policy.OnEvict(name)
	}
	return true, nil
}

func (p EvictionPolicy) expired(summary RoomSummary, now time.Time) bool {
	idle := now.Sub(summary.UpdatedAt)
	if p.IdleTTL > 0 && idle > p.IdleTTL {
		return true
	}
	done := summary.Finished || len(summary.Players) == 0
	return done && idle > p.FinishedTTL
}

func (e *Engine) save(ctx context.Context, room *Room) (*Room, error) {
	room.UpdatedAt = e.now().UTC()
	saved, err := e.store.Save(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("save room: %w", err)
	}
	return saved, nil
}
