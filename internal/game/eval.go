package game

import (
	"errors"
	"fmt"

	"github.com/paulhankin/poker"
)

var ErrIncompleteHand = errors.New("incomplete_hand")

// HandRank is comparable through Score; higher is better.
type HandRank struct {
	Score int16
	Name  string
}

// Ranker is the external hand evaluator boundary.
type Ranker interface {
	Rank(variant Variant, hole, board []Card) (HandRank, error)
	Winners(ranks []HandRank) []int
}

// PokerRanker evaluates hands with github.com/paulhankin/poker.
type PokerRanker struct{}

var pokerSuits = [4]poker.Suit{poker.Heart, poker.Spade, poker.Diamond, poker.Club}

func toPokerCard(c Card) (poker.Card, error) {
	if !c.Valid() {
		var zero poker.Card
		return zero, fmt.Errorf("invalid card value %d", int(c))
	}
	return poker.MakeCard(pokerSuits[c.Suit()], poker.Rank(c.Rank()+1))
}

func toPokerCards(cards []Card) ([]poker.Card, error) {
	out := make([]poker.Card, 0, len(cards))
	for _, c := range cards {
		pc, err := toPokerCard(c)
		if err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, nil
}

func (PokerRanker) Rank(variant Variant, hole, board []Card) (HandRank, error) {
	if len(board) != 5 || len(hole) != variant.HoleCards() {
		return HandRank{}, ErrIncompleteHand
	}
	h, err := toPokerCards(hole)
	if err != nil {
		return HandRank{}, err
	}
	b, err := toPokerCards(board)
	if err != nil {
		return HandRank{}, err
	}
	if variant == VariantOmaha {
		return rankOmaha(h, b), nil
	}
	var seven [7]poker.Card
	copy(seven[:], b)
	copy(seven[5:], h)
	return HandRank{Score: poker.Eval7(&seven), Name: describe(seven[:])}, nil
}

// rankOmaha uses exactly two hole cards and three board cards.
func rankOmaha(hole, board []poker.Card) HandRank {
	best := HandRank{Score: -1 << 15}
	var bestHand [5]poker.Card
	for a := 0; a < len(hole); a++ {
		for b := a + 1; b < len(hole); b++ {
			for x := 0; x < len(board); x++ {
				for y := x + 1; y < len(board); y++ {
					for z := y + 1; z < len(board); z++ {
						five := [5]poker.Card{hole[a], hole[b], board[x], board[y], board[z]}
						if score := poker.Eval5(&five); score > best.Score {
							best.Score = score
							bestHand = five
						}
					}
				}
			}
		}
	}
	best.Name = describe(bestHand[:])
	return best
}

func describe(cards []poker.Card) string {
	s, err := poker.Describe(cards)
	if err != nil {
		return ""
	}
	return s
}

func (PokerRanker) Winners(ranks []HandRank) []int {
	if len(ranks) == 0 {
		return nil
	}
	best := ranks[0].Score
	for _, r := range ranks[1:] {
		if r.Score > best {
			best = r.Score
		}
	}
	out := []int{}
	for i, r := range ranks {
		if r.Score == best {
			out = append(out, i)
		}
	}
	return out
}
