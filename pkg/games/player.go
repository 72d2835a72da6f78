package games

import (
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Player is a member credited by a game
type Player struct {
	ID       string
	Username string
	Score    int
}

// Scoreboard counts the wins of each player of one game
type Scoreboard struct {
	mu      sync.Mutex
	players map[string]*Player
}

// NewScoreboard creates an empty scoreboard
func NewScoreboard() *Scoreboard {
	return &Scoreboard{players: map[string]*Player{}}
}

// Credit adds a point to user and returns a copy of the player
func (b *Scoreboard) Credit(user *discordgo.User) Player {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.players[user.ID]
	if !ok {
		p = &Player{ID: user.ID}
		b.players[user.ID] = p
	}
	p.Username = user.Username
	p.Score++
	return *p
}

// Score returns the points of a player
func (b *Scoreboard) Score(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.players[userID]; ok {
		return p.Score
	}
	return 0
}

// Top returns at most n players, best first
func (b *Scoreboard) Top(n int) []Player {
	b.mu.Lock()
	out := make([]Player, 0, len(b.players))
	for _, p := range b.players {
		out = append(out, *p)
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Username < out[j].Username
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Reset forgets every player
func (b *Scoreboard) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.players = map[string]*Player{}
}
