package cards

import (
	"fmt"
	"strconv"
)

// Suit represents the suit of a standard playing card.
// The zero value is reserved for "no card" sentinels.
type Suit byte

const (
	InvalidSuit Suit = iota
	Heart
	Diamond
	Spade
	Club
)

func (s Suit) String() string {
	switch s {
	case Heart:
		return "Heart"
	case Diamond:
		return "Diamond"
	case Spade:
		return "Spade"
	case Club:
		return "Club"
	default:
		return "Invalid"
	}
}

// Rank represents the rank of a standard playing card.
// The zero value is reserved for "no card" sentinels.
type Rank byte

const (
	InvalidRank Rank = iota
	Ace
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

func (r Rank) String() string {
	switch r {
	case Ace:
		return "Ace"
	case Two:
		return "Two"
	case Three:
		return "Three"
	case Four:
		return "Four"
	case Five:
		return "Five"
	case Six:
		return "Six"
	case Seven:
		return "Seven"
	case Eight:
		return "Eight"
	case Nine:
		return "Nine"
	case Ten:
		return "Ten"
	case Jack:
		return "Jack"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "Invalid"
	}
}

// Card is a standard playing card. It is a value type: two cards are equal
// when their suit and rank match. The zero value is the "no card" sentinel
// and never appears in a populated pile.
type Card struct {
	Suit Suit
	Rank Rank
}

// New creates a card with the given suit and rank.
func New(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// FromID reconstructs a card from its canonical 16-bit identity.
func FromID(id uint16) Card {
	return Card{Suit: Suit(id & 0xff), Rank: Rank(id >> 8)}
}

// ID returns the canonical 16-bit identity of the card: the suit in the low
// byte and the rank in the high byte. It is used for equality on the wire
// and round-trips through FromID.
func (c Card) ID() uint16 {
	return uint16(c.Suit) | uint16(c.Rank)<<8
}

// Valid reports whether the card carries a real suit and rank, as opposed to
// the "no card" sentinel.
func (c Card) Valid() bool {
	return c.Suit != InvalidSuit && c.Rank != InvalidRank
}

func (c Card) String() string {
	return fmt.Sprintf("%s %s", c.Suit, c.Rank)
}

// MarshalJSON encodes the card as its numeric identity.
func (c Card) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(c.ID()), 10), nil
}

// UnmarshalJSON decodes a card from its numeric identity.
func (c *Card) UnmarshalJSON(data []byte) error {
	id, err := strconv.ParseUint(string(data), 10, 16)
	if err != nil {
		return fmt.Errorf("cards: invalid card id %q: %w", data, err)
	}
	*c = FromID(uint16(id))
	return nil
}
