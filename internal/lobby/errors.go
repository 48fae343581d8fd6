package lobby

import (
	"errors"

	"poker-room/internal/game"
)

var (
	ErrInvalidData        = errors.New("invalid_data")
	ErrTableNotFound      = errors.New("table_not_found")
	ErrInsufficientChips  = errors.New("insufficient_chips")
	ErrAccountUnavailable = errors.New("account_unavailable")

	ErrSeatTaken     = game.ErrSeatTaken
	ErrAlreadySeated = game.ErrAlreadySeated
	ErrNotSeated     = game.ErrNotSeated
)
