package game

// Player is the minimal capability a game needs from a participant: a stable
// identity and a display name. Two players are the same participant when
// their IDs match, regardless of concrete type.
type Player interface {
	ID() int
	DisplayName() string
}

// SolitairePlayer is the participant type solitaire games admit.
type SolitairePlayer struct {
	PlayerID int
	Name     string
}

func (p *SolitairePlayer) ID() int {
	return p.PlayerID
}

func (p *SolitairePlayer) DisplayName() string {
	return p.Name
}
