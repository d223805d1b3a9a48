package domain

import "time"

// Player is a participant in one live session, tied to a websocket
// connection. Players live only as long as the session does.
type Player struct {
	connectionID string
	nickname     string
	score        int
	joinedAt     time.Time
}

// NewPlayer builds a player with a zero score. A zero joinedAt defaults
// to now.
func NewPlayer(connectionID, nickname string, joinedAt time.Time) *Player {
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}
	return &Player{
		connectionID: connectionID,
		nickname:     nickname,
		joinedAt:     joinedAt,
	}
}

func (p *Player) ConnectionID() string { return p.connectionID }
func (p *Player) Nickname() string     { return p.nickname }
func (p *Player) Score() int           { return p.score }
func (p *Player) JoinedAt() time.Time  { return p.joinedAt }

// Rename updates the display name (used when a connection rejoins).
func (p *Player) Rename(nickname string) { p.nickname = nickname }

// AddScore applies a score adjustment. An adjustment that would take the
// score below zero is rejected outright, never clamped.
func (p *Player) AddScore(points int) error {
	if p.score+points < 0 {
		return ErrNegativeScore
	}
	p.score += points
	return nil
}
