package server

import "encoding/json"

// Inbound event names.
const (
	eventCreateGame  = "create-game"
	eventJoinGame    = "join-game"
	eventPaint       = "paint"
	eventColorChange = "color-change"
	eventStrokeWidth = "stroke-width"
	eventClearScreen = "clear-screen"
	eventMsg         = "msg"
	eventChangeTurn  = "change-turn"
	eventUpdateScore = "update-score"
)

// Outbound-only event names. color-change, stroke-width, clear-screen, msg,
// change-turn and update-score are echoed under their inbound names.
const (
	eventUpdateRoom       = "updateRoom"
	eventNotCorrectGame   = "notCorrectGame"
	eventPoints           = "points"
	eventCloseInput       = "close-input"
	eventShowLeaderboard  = "show-leaderboard"
	eventUserDisconnected = "user-disconnected"
)

const (
	reasonRoomExists    = "room with that name already exists!"
	reasonRoomNotFound  = "please enter the valid room name"
	reasonRoomFull      = "room is already full"
	reasonGameOver      = "game is already over"
	reasonAlreadyInRoom = "you are already in a room"

	guessedMessage = "Guessed it!"
)

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type createGamePayload struct {
	Nickname  string `json:"nickname" validate:"required,max=20,label"`
	Name      string `json:"name" validate:"required,max=32,label"`
	Occupancy int    `json:"occupancy" validate:"min=2,max=12"`
	MaxRounds int    `json:"maxRounds" validate:"min=1,max=10"`
}

type joinGamePayload struct {
	Nickname string `json:"nickname" validate:"required,max=20,label"`
	Name     string `json:"name" validate:"required,max=32,label"`
}

// Canvas payload values are relayed untouched, so they stay raw.
type paintPayload struct {
	Details     json.RawMessage `json:"details"`
	Color       json.RawMessage `json:"color"`
	StrokeWidth json.RawMessage `json:"strokeWidth"`
	RoomName    string          `json:"roomName" validate:"required,max=32"`
}

type colorChangePayload struct {
	Color    json.RawMessage `json:"color"`
	RoomName string          `json:"roomName" validate:"required,max=32"`
}

type strokeWidthPayload struct {
	Value    json.RawMessage `json:"value"`
	RoomName string          `json:"roomName" validate:"required,max=32"`
}

type msgPayload struct {
	Username       string `json:"username" validate:"required,max=20"`
	Msg            string `json:"msg" validate:"required,max=140"`
	RoomName       string `json:"roomName" validate:"required,max=32"`
	GuessedUserCtr int    `json:"guessedUserCtr" validate:"min=0"`
	TimeTaken      int    `json:"timeTaken" validate:"min=0"`
}

type pointsBroadcast struct {
	Details     json.RawMessage `json:"details"`
	Color       json.RawMessage `json:"color"`
	StrokeWidth json.RawMessage `json:"strokeWidth"`
}

type msgBroadcast struct {
	Username       string `json:"username"`
	Msg            string `json:"msg"`
	GuessedUserCtr int    `json:"guessedUserCtr"`
}
