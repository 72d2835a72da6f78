package listener

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
)

type fakeResolver map[string]string

func (r fakeResolver) ChannelID(ref string) (string, bool) {
	id, ok := r[ref]
	return id, ok
}

func (r fakeResolver) RoleID(ref string) (string, bool) {
	id, ok := r[ref]
	return id, ok
}

var resolver = fakeResolver{
	"LOG":    "c-log",
	"ROOM_1": "c-1",
	"ROOM_2": "c-2",
	"ROOM_3": "c-3",
	"MASTER": "r-master",
	"BANNED": "r-banned",
}

type recordingNotifier struct {
	mu      sync.Mutex
	started []string
	closed  []string
	updates int
}

func (n *recordingNotifier) StartListener(_ context.Context, c Controllable) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, c.Name())
}

func (n *recordingNotifier) CloseListener(_ context.Context, c Controllable) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, c.Name())
}

func (n *recordingNotifier) UpdateListeners(context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates++
}

type recordingObserver struct {
	mu        sync.Mutex
	victories []Victory
}

func (o *recordingObserver) ObserveVictory(_ context.Context, v Victory) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.victories = append(o.victories, v)
}

func messageEvent(channelID string, roles ...string) *Event {
	return &Event{
		Type:    EventMessageCreate,
		GuildID: "g",
		Payload: &discordgo.MessageCreate{Message: &discordgo.Message{
			ID:        "m",
			ChannelID: channelID,
			GuildID:   "g",
			Content:   "hello",
			Author:    &discordgo.User{ID: "u"},
			Member:    &discordgo.Member{Roles: roles},
		}},
	}
}
