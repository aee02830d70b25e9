package server

import (
	"context"
	"errors"

	"doodleit/internal/game"
	"doodleit/internal/logging"
)

// statefulEvents reach the engine and count against the connection's rate limit.
var statefulEvents = map[string]bool{
	eventCreateGame:  true,
	eventJoinGame:    true,
	eventMsg:         true,
	eventChangeTurn:  true,
	eventUpdateScore: true,
}

func (s *Server) dispatch(c *client, frame inboundFrame) {
	if statefulEvents[frame.Event] && !c.limiter.Allow() {
		s.logger.Warnw("rate limited", "conn", c.handle, "event", frame.Event)
		return
	}
	ctx, cancel := s.eventContext(c, frame.Event)
	defer cancel()

	var err error
	switch frame.Event {
	case eventCreateGame:
		err = s.handleCreateGame(ctx, c, frame)
	case eventJoinGame:
		err = s.handleJoinGame(ctx, c, frame)
	case eventMsg:
		err = s.handleMsg(ctx, c, frame)
	case eventChangeTurn:
		err = s.handleChangeTurn(ctx, c, frame)
	case eventUpdateScore:
		err = s.handleUpdateScore(ctx, c, frame)
	case eventPaint, eventColorChange, eventStrokeWidth, eventClearScreen:
		err = s.handleCanvas(c, frame)
	default:
		err = errors.New("unknown event")
	}
	if err != nil {
		logging.FromContext(ctx).Warnw("event dropped", "error", err)
	}
}

func (s *Server) handleCreateGame(ctx context.Context, c *client, frame inboundFrame) error {
	var req createGamePayload
	if err := s.decodePayload(frame.Data, &req); err != nil {
		return err
	}
	if s.hub.RoomOf(c) != "" {
		s.hub.Send(c, eventNotCorrectGame, reasonAlreadyInRoom)
		return nil
	}
	room, err := s.engine.CreateRoom(ctx, game.CreateRequest{
		ConnectionHandle: c.handle,
		Nickname:         req.Nickname,
		Name:             req.Name,
		Occupancy:        req.Occupancy,
		MaxRounds:        req.MaxRounds,
	})
	if errors.Is(err, game.ErrRoomExists) {
		s.hub.Send(c, eventNotCorrectGame, reasonRoomExists)
		return nil
	}
	if err != nil {
		return err
	}
	s.hub.Join(room.Name, c)
	logging.FromContext(ctx).Infow("room created", "room", room.Name, "nickname", req.Nickname)
	s.hub.Broadcast(room.Name, nil, eventUpdateRoom, room)
	return nil
}

func (s *Server) handleJoinGame(ctx context.Context, c *client, frame inboundFrame) error {
	var req joinGamePayload
	if err := s.decodePayload(frame.Data, &req); err != nil {
		return err
	}
	if s.hub.RoomOf(c) != "" {
		s.hub.Send(c, eventNotCorrectGame, reasonAlreadyInRoom)
		return nil
	}
	room, err := s.engine.JoinRoom(ctx, game.JoinRequest{
		ConnectionHandle: c.handle,
		Nickname:         req.Nickname,
		Name:             req.Name,
	})
	if reason, ok := joinRejection(err); ok {
		s.hub.Send(c, eventNotCorrectGame, reason)
		return nil
	}
	if err != nil {
		return err
	}
	s.hub.Join(room.Name, c)
	logging.FromContext(ctx).Infow("player joined", "room", room.Name, "nickname", req.Nickname, "players", len(room.Players))
	s.hub.Broadcast(room.Name, nil, eventUpdateRoom, room)
	return nil
}

func joinRejection(err error) (string, bool) {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return reasonRoomNotFound, true
	case errors.Is(err, game.ErrRoomFull):
		return reasonRoomFull, true
	case errors.Is(err, game.ErrGameOver):
		return reasonGameOver, true
	default:
		return "", false
	}
}

func (s *Server) handleMsg(ctx context.Context, c *client, frame inboundFrame) error {
	var req msgPayload
	if err := s.decodePayload(frame.Data, &req); err != nil {
		return err
	}
	if err := s.requireMember(c, req.RoomName); err != nil {
		return err
	}
	outcome, err := s.engine.SubmitGuess(ctx, game.Guess{
		RoomName:         req.RoomName,
		ConnectionHandle: c.handle,
		Username:         req.Username,
		Text:             req.Msg,
		SecondsElapsed:   req.TimeTaken,
		GuessedCount:     req.GuessedUserCtr,
	})
	if err != nil {
		return err
	}
	switch outcome.Result {
	case game.GuessIncorrect:
		s.hub.Broadcast(req.RoomName, nil, eventMsg, msgBroadcast{
			Username:       req.Username,
			Msg:            req.Msg,
			GuessedUserCtr: req.GuessedUserCtr,
		})
	case game.GuessCorrect:
		logging.FromContext(ctx).Infow("correct guess", "room", req.RoomName, "points", outcome.Points, "guessed", outcome.GuessedCount)
		s.hub.Broadcast(req.RoomName, nil, eventMsg, msgBroadcast{
			Username:       req.Username,
			Msg:            guessedMessage,
			GuessedUserCtr: outcome.GuessedCount,
		})
		s.hub.Send(c, eventCloseInput, "")
		if outcome.Advance {
			s.scheduleAdvance(req.RoomName, outcome.Generation)
		}
	default:
		logging.FromContext(ctx).Debugw("guess ignored", "room", req.RoomName)
	}
	return nil
}

func (s *Server) handleChangeTurn(ctx context.Context, c *client, frame inboundFrame) error {
	name, err := s.decodeRoomName(frame.Data)
	if err != nil {
		return err
	}
	if err := s.requireMember(c, name); err != nil {
		return err
	}
	s.cancelAdvance(name)
	outcome, err := s.engine.AdvanceTurn(ctx, name)
	if err != nil {
		return err
	}
	s.broadcastTurn(ctx, name, outcome)
	return nil
}

func (s *Server) handleUpdateScore(ctx context.Context, c *client, frame inboundFrame) error {
	name, err := s.decodeRoomName(frame.Data)
	if err != nil {
		return err
	}
	if err := s.requireMember(c, name); err != nil {
		return err
	}
	room, err := s.engine.Snapshot(ctx, name)
	if err != nil {
		return err
	}
	s.hub.Broadcast(name, nil, eventUpdateScore, room)
	return nil
}

// handleCanvas relays drawing events to the sender's room without touching room state.
func (s *Server) handleCanvas(c *client, frame inboundFrame) error {
	var (
		room    string
		event   = frame.Event
		payload any
	)
	switch frame.Event {
	case eventPaint:
		var req paintPayload
		if err := s.decodePayload(frame.Data, &req); err != nil {
			return err
		}
		room = req.RoomName
		event = eventPoints
		payload = pointsBroadcast{Details: req.Details, Color: req.Color, StrokeWidth: req.StrokeWidth}
	case eventColorChange:
		var req colorChangePayload
		if err := s.decodePayload(frame.Data, &req); err != nil {
			return err
		}
		room, payload = req.RoomName, req.Color
	case eventStrokeWidth:
		var req strokeWidthPayload
		if err := s.decodePayload(frame.Data, &req); err != nil {
			return err
		}
		room, payload = req.RoomName, req.Value
	case eventClearScreen:
		name, err := s.decodeRoomName(frame.Data)
		if err != nil {
			return err
		}
		room, payload = name, ""
	}
	if err := s.requireMember(c, room); err != nil {
		return err
	}
	s.hub.Broadcast(room, nil, event, payload)
	return nil
}

func (s *Server) requireMember(c *client, room string) error {
	if s.hub.RoomOf(c) != room {
		return errNotMember
	}
	return nil
}

// leaveRoom removes the departed connection's player and tells the rest of the room.
func (s *Server) leaveRoom(ctx context.Context, c *client, room string) {
	logger := logging.FromContext(ctx)
	outcome, err := s.engine.RemovePlayer(ctx, c.handle)
	if errors.Is(err, game.ErrRoomNotFound) || errors.Is(err, game.ErrPlayerNotFound) {
		logger.Debugw("departed player already gone", "room", room)
		return
	}
	if err != nil {
		logger.Errorw("remove player", "room", room, "error", err)
		return
	}
	logger.Infow("player left", "room", room, "nickname", outcome.Removed.Nickname, "remaining", len(outcome.Players))
	if outcome.GameOver {
		s.cancelAdvance(room)
		s.hub.Broadcast(room, c, eventShowLeaderboard, outcome.Players)
		return
	}
	s.hub.Broadcast(room, c, eventUserDisconnected, outcome.Room)
	if outcome.Advance {
		s.scheduleAdvance(room, outcome.Generation)
	}
}

func (s *Server) broadcastTurn(ctx context.Context, room string, outcome game.TurnOutcome) {
	if outcome.GameOver {
		logging.FromContext(ctx).Infow("game over", "room", room)
		s.cancelAdvance(room)
		s.hub.Broadcast(room, nil, eventShowLeaderboard, outcome.Players)
		return
	}
	s.hub.Broadcast(room, nil, eventChangeTurn, outcome.Room)
}
