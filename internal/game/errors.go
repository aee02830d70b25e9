package game

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomExists     = errors.New("room already exists")
	ErrRoomFull       = errors.New("room full")
	ErrGameOver       = errors.New("game over")
	ErrPlayerNotFound = errors.New("player not found")
	ErrStaleTurn      = errors.New("turn already advanced")
)
