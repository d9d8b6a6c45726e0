package cards

import (
	"crypto/rand"
	"errors"
	"fmt"
	mathrand "math/rand/v2"
	"sync"
)

// DeckSize is the number of cards in a single standard deck.
const DeckSize = 52

var (
	// ErrTooManyCards is returned when a draw asks for more cards than the
	// stack can ever hold.
	ErrTooManyCards = errors.New("cards: draw count exceeds stack capacity")

	// ErrShortBuffer is returned when a draw asks for more cards than the
	// destination buffer can hold.
	ErrShortBuffer = errors.New("cards: draw count exceeds buffer size")

	// ErrStackClosed is returned when a stack is used after Close.
	ErrStackClosed = errors.New("cards: stack used after close")
)

// stackPool recycles backing buffers between short-lived stacks, keyed by
// deck count. A buffer is owned by exactly one stack between checkout and
// release.
var stackPool = struct {
	mu   sync.Mutex
	free map[int][][]Card
}{free: make(map[int][][]Card)}

func checkout(decks int) []Card {
	stackPool.mu.Lock()
	defer stackPool.mu.Unlock()

	buffers := stackPool.free[decks]
	if n := len(buffers); n > 0 {
		buf := buffers[n-1]
		stackPool.free[decks] = buffers[:n-1]
		return buf
	}
	return make([]Card, decks*DeckSize)
}

func release(decks int, buf []Card) {
	// Scrub the buffer so the next checkout starts from a clean slate.
	for i := range buf {
		buf[i] = Card{}
	}

	stackPool.mu.Lock()
	defer stackPool.mu.Unlock()
	stackPool.free[decks] = append(stackPool.free[decks], buf)
}

// Stack is a shuffled pile of one or more standard 52-card decks. Cards in
// [0, position) have been drawn, cards in [position, capacity) remain. The
// stack reshuffles itself the moment the last card is drawn, so it always
// holds a usable card between draws.
//
// A Stack is not safe for concurrent use; callers serialize access the same
// way they serialize the game that owns it.
type Stack struct {
	cards    []Card
	decks    int
	capacity int
	position int
	rng      *mathrand.Rand
	closed   bool
}

// NewStack creates a stack holding decks*52 cards, filled with one ordered
// copy of each standard card per deck and shuffled. The backing buffer comes
// from a shared pool; callers must Close the stack to return it.
func NewStack(decks int) *Stack {
	if decks <= 0 {
		panic(fmt.Sprintf("cards: invalid deck count %d", decks))
	}

	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic(fmt.Sprintf("cards: seeding shuffle: %v", err))
	}

	s := &Stack{
		cards:    checkout(decks),
		decks:    decks,
		capacity: decks * DeckSize,
		rng:      mathrand.New(mathrand.NewChaCha8(seed)),
	}
	s.fill()
	s.ResetAndShuffle()
	return s
}

// fill writes one ordered 52-card deck per deck count into the buffer.
func (s *Stack) fill() {
	n := 0
	for d := 0; d < s.decks; d++ {
		for i := 0; i < DeckSize; i++ {
			// +1 skips the invalid zero value in both enums.
			s.cards[n] = Card{Suit: Suit(i/13 + 1), Rank: Rank(i%13 + 1)}
			n++
		}
	}
}

// ResetAndShuffle rewinds the draw position and applies an unbiased
// permutation of the populated range. The generator is seeded from
// crypto/rand at construction. Only [0, capacity) is touched, in case the
// pooled buffer over-allocates.
func (s *Stack) ResetAndShuffle() {
	s.position = 0
	populated := s.cards[:s.capacity]
	s.rng.Shuffle(len(populated), func(i, j int) {
		populated[i], populated[j] = populated[j], populated[i]
	})
}

// Take returns the next card from the stack. Drawing the last card
// immediately resets and reshuffles, so the stack is usable after every
// draw.
func (s *Stack) Take() Card {
	if s.closed {
		panic(ErrStackClosed)
	}

	card := s.cards[s.position]
	s.position++

	if s.position >= s.capacity {
		s.ResetAndShuffle()
	}
	return card
}

// TakeInto copies count consecutive cards into dst and advances the draw
// position, reshuffling on exhaustion like Take. A non-positive count means
// len(dst). Asking for more cards than dst can hold fails with
// ErrShortBuffer, more than the stack can ever hold with ErrTooManyCards;
// there is no multi-stack fallback.
func (s *Stack) TakeInto(dst []Card, count int) error {
	if s.closed {
		return ErrStackClosed
	}

	if count <= 0 {
		count = len(dst)
	}
	if count > len(dst) {
		return fmt.Errorf("%w: %d > %d", ErrShortBuffer, count, len(dst))
	}
	if count > s.capacity {
		return fmt.Errorf("%w: %d > %d", ErrTooManyCards, count, s.capacity)
	}

	for count > 0 {
		n := count
		if remaining := s.capacity - s.position; n > remaining {
			n = remaining
		}
		copy(dst[:n], s.cards[s.position:s.position+n])
		dst = dst[n:]
		count -= n
		s.position += n

		if s.position >= s.capacity {
			s.ResetAndShuffle()
		}
	}
	return nil
}

// Peek returns the card at the current draw position without advancing.
func (s *Stack) Peek() Card {
	if s.closed {
		panic(ErrStackClosed)
	}
	return s.cards[s.position]
}

// Remaining reports how many cards are left before the next reshuffle.
func (s *Stack) Remaining() int {
	return s.capacity - s.position
}

// Close returns the backing buffer to the shared pool. The stack must not
// be used afterwards; closing twice is a contract violation and reported as
// ErrStackClosed.
func (s *Stack) Close() error {
	if s.closed {
		return ErrStackClosed
	}
	s.closed = true

	buf := s.cards
	s.cards = nil
	release(s.decks, buf)
	return nil
}
