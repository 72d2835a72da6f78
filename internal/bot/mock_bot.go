package bot

import (
	"context"

	"github.com/fadedpez/gamemaster/pkg/guild"
	"github.com/fadedpez/gamemaster/pkg/listener"
	"github.com/stretchr/testify/mock"
)

// MockGuilds implements Guilds for testing
type MockGuilds struct {
	mock.Mock
}

func (m *MockGuilds) InitGuilds(ctx context.Context, guildIDs []string) {
	m.Called(ctx, guildIDs)
}

func (m *MockGuilds) AddGuild(ctx context.Context, guildID string) (*guild.Session, error) {
	args := m.Called(ctx, guildID)
	s, _ := args.Get(0).(*guild.Session)
	return s, args.Error(1)
}

func (m *MockGuilds) GuildGone(ctx context.Context, guildID string) {
	m.Called(ctx, guildID)
}

func (m *MockGuilds) Dispatch(ctx context.Context, ev *listener.Event) {
	m.Called(ctx, ev)
}

func (m *MockGuilds) Close(ctx context.Context) {
	m.Called(ctx)
}
