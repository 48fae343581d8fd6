package game

import "errors"

type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "allIn"
)

var (
	ErrInvalidAction       = errors.New("invalid_action")
	ErrNotYourTurn         = errors.New("not_your_turn")
	ErrNotAcceptingActions = errors.New("not_accepting_actions")
	ErrRaiseBelowMin       = errors.New("raise_below_min")
	ErrInvalidRaise        = errors.New("invalid_raise")
	ErrInsufficientStack   = errors.New("insufficient_stack")
	ErrPotLimitExceeded    = errors.New("pot_limit_exceeded")
	ErrNotSeated           = errors.New("not_seated")
)

type Action struct {
	Seat   int
	Type   ActionType
	Amount int64
}

// ValidateAction never mutates state.
func ValidateAction(s *TableState, seat int, action ActionType, amount int64) error {
	if s.Status != PhaseIdle || s.IsLockup || s.Round == RoundOver {
		return ErrNotAcceptingActions
	}
	if seat != s.CurrentPlayerID {
		return ErrNotYourTurn
	}
	me, ok := s.Seats.At(seat)
	if !ok || !me.Active() || me.AllIn() {
		return ErrInvalidAction
	}
	switch action {
	case ActionFold:
		return nil
	case ActionCheck:
		if me.BetAmount != s.CurrentBet {
			return ErrInvalidAction
		}
		return nil
	case ActionCall:
		if s.CurrentBet <= me.BetAmount {
			return ErrInvalidAction
		}
		return nil
	case ActionRaise:
		if amount <= s.CurrentBet {
			return ErrInvalidRaise
		}
		if amount < s.MinRaise {
			return ErrRaiseBelowMin
		}
		// Staking the whole stack is an all-in, not a raise.
		if amount-me.BetAmount >= me.Stack {
			return ErrInsufficientStack
		}
		if s.Variant == VariantOmaha && amount > s.potLimitRaiseTo(me) {
			return ErrPotLimitExceeded
		}
		return nil
	case ActionAllIn:
		if me.Stack <= 0 {
			return ErrInvalidAction
		}
		total := me.BetAmount + me.Stack
		if s.Variant == VariantOmaha && total > s.CurrentBet && total > s.potLimitRaiseTo(me) {
			return ErrPotLimitExceeded
		}
		return nil
	default:
		return ErrInvalidAction
	}
}
