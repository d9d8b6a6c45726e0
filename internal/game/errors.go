package game

import "errors"

var (
	// ErrWrongPlayerType is returned when a player of the wrong concrete
	// type is handed to a game. It signals a caller bug, not a game-state
	// rejection.
	ErrWrongPlayerType = errors.New("game: wrong player type")

	// ErrIndexOutOfRange is returned when a move names a pile index outside
	// the bounds of its collection.
	ErrIndexOutOfRange = errors.New("game: pile index out of range")

	// ErrInvalidPile is returned when a move names an unknown pile type.
	ErrInvalidPile = errors.New("game: invalid pile type")
)
