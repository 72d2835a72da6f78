package listener

import (
	"context"
	"fmt"

	"github.com/samber/mo"
)

// ChannelHandle drives one channel of a channel-scoped game from the control board.
type ChannelHandle struct {
	parent    *Listener
	channelID string
}

var (
	_ Controllable = (*Listener)(nil)
	_ Controllable = (*ChannelHandle)(nil)
	_ Resettable   = (*ChannelHandle)(nil)
)

// Parent returns the game the channel belongs to
func (h *ChannelHandle) Parent() *Listener { return h.parent }

// ChannelID returns the channel driven by the handle
func (h *ChannelHandle) ChannelID() string { return h.channelID }

func (h *ChannelHandle) Name() string {
	return fmt.Sprintf("%s (<#%s>)", h.parent.Name(), h.channelID)
}

func (h *ChannelHandle) Description() string { return h.parent.Description() }

func (h *ChannelHandle) Active() bool {
	return h.parent.ChannelStatus(h.channelID).Active()
}

func (h *ChannelHandle) ShowInManager() bool { return false }

func (h *ChannelHandle) IsGame() bool { return true }

func (h *ChannelHandle) HasChannelScope() bool { return false }

// SimpleMode is not rendered per channel
func (h *ChannelHandle) SimpleMode() mo.Option[bool] { return mo.None[bool]() }

func (h *ChannelHandle) SetSimpleMode(bool) {}

func (h *ChannelHandle) Start(ctx context.Context) (bool, error) {
	return h.parent.StartChannel(ctx, h.channelID)
}

func (h *ChannelHandle) Stop(ctx context.Context) (bool, error) {
	return h.parent.StopChannel(ctx, h.channelID), nil
}

func (h *ChannelHandle) HelpedVictory(ctx context.Context) error {
	return h.parent.ChannelHelpedVictory(ctx, h.channelID)
}

// Victory records a players' win in the channel
func (h *ChannelHandle) Victory(ctx context.Context) error {
	return h.parent.ChannelVictory(ctx, h.channelID)
}

// Reset rewinds the channel's play counter
func (h *ChannelHandle) Reset(ctx context.Context) error {
	h.parent.ResetChannelStats(h.channelID)
	return nil
}
