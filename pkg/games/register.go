// Package games holds the built-in listeners a catalog can describe: the game
// master tools, the admin and music tools and the sample mini-games.
package games

import (
	"errors"

	base "github.com/fadedpez/gamemaster/internal/games"
)

// Listener types understood by Register
const (
	TypeGameTools = "GAME_TOOLS"
	TypeSample    = "SAMPLE_GAME"
	TypePassword  = "PASSWORD_GAME"
	TypeAdmin     = "ADMIN_TOOLS"
	TypeMusic     = "MUSIC_TOOLS"
)

// Register adds the built-in factories to r
func Register(r *base.Registry) error {
	return errors.Join(
		r.Register(TypeGameTools, newGameTools),
		r.Register(TypeSample, newSampleGame),
		r.Register(TypePassword, newPasswordGame),
		r.Register(TypeAdmin, newAdminTools),
		r.Register(TypeMusic, newMusicTools),
	)
}
