package game

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const DeckSize = 52

var ErrDeckExhausted = errors.New("deck_exhausted")

// Card is a value in [0,52). Rank is value mod 13 (0=Ace .. 12=King) and
// suit is value div 13 over h, s, d, c.
type Card int

var (
	rankLetters = [13]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K"}
	suitLetters = [4]string{"h", "s", "d", "c"}
)

func (c Card) Rank() int { return int(c) % 13 }

func (c Card) Suit() int { return int(c) / 13 }

func (c Card) Valid() bool { return c >= 0 && c < DeckSize }

func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return rankLetters[c.Rank()] + suitLetters[c.Suit()]
}

// ParseCard accepts the String form, e.g. "As", "Td", "7c".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid card %q", s)
	}
	rank, suit := -1, -1
	for i, r := range rankLetters {
		if strings.EqualFold(r, s[:1]) {
			rank = i
		}
	}
	for i, su := range suitLetters {
		if strings.EqualFold(su, s[1:]) {
			suit = i
		}
	}
	if rank < 0 || suit < 0 {
		return 0, fmt.Errorf("invalid card %q", s)
	}
	return Card(suit*13 + rank), nil
}

func CardStrings(cards []Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.String())
	}
	return out
}

// Shuffler produces deck permutations. A zero seed reseeds from the wall clock.
type Shuffler struct {
	rnd *rand.Rand
}

func NewShuffler(seed int64) *Shuffler {
	s := &Shuffler{}
	s.Reseed(seed)
	return s
}

func (s *Shuffler) Reseed(seed int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rnd = rand.New(rand.NewSource(seed))
}

// Shuffle returns a Fisher-Yates permutation of all 52 card values.
func (s *Shuffler) Shuffle() []Card {
	cards := make([]Card, DeckSize)
	for i := range cards {
		cards[i] = Card(i)
	}
	for i := DeckSize - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return cards
}

type Deck struct {
	cards []Card
}

func NewDeck(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// Pop deals from the end of the sequence.
func (d *Deck) Pop() (Card, error) {
	if d == nil || len(d.cards) == 0 {
		return 0, ErrDeckExhausted
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, nil
}

func (d *Deck) PopN(n int) ([]Card, error) {
	if d == nil || len(d.cards) < n {
		return nil, ErrDeckExhausted
	}
	out := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		c, _ := d.Pop()
		out = append(out, c)
	}
	return out, nil
}

func (d *Deck) Remaining() int {
	if d == nil {
		return 0
	}
	return len(d.cards)
}
