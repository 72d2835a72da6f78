package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// SessionHandler defines the interface for Discord session operations
type SessionHandler interface {
	// Message methods
	ChannelMessage(channelID, messageID string) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string) ([]*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	ChannelMessageEdit(channelID string, messageID string, content string) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string) error
	ChannelMessagesBulkDelete(channelID string, messages []string) error

	// Reaction methods
	MessageReactionAdd(channelID, messageID, emojiID string) error
	MessageReactionRemove(channelID, messageID, emojiID, userID string) error
	MessageReactionsRemoveAll(channelID, messageID string) error
	MessageReactionsRemoveEmoji(channelID, messageID, emojiID string) error
	MessageReactions(channelID, messageID, emojiID string, limit int) ([]*discordgo.User, error)

	// Guild methods
	Guild(guildID string) (*discordgo.Guild, error)
	GuildEdit(guildID string, params *discordgo.GuildParams) (*discordgo.Guild, error)
	GuildLeave(guildID string) error
	GuildMember(guildID, userID string) (*discordgo.Member, error)
	GuildMemberDeleteWithReason(guildID, userID, reason string) error
	GuildMembers(guildID string, after string, limit int) ([]*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string) error
	GuildMemberRoleRemove(guildID, userID, roleID string) error
	GuildRoles(guildID string) ([]*discordgo.Role, error)
	GuildRoleCreate(guildID string, params *discordgo.RoleParams) (*discordgo.Role, error)
	GuildRoleDelete(guildID, roleID string) error
	GuildChannels(guildID string) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)
	ChannelDelete(channelID string) error
	ChannelInviteCreate(channelID string, invite discordgo.Invite) (*discordgo.Invite, error)

	// Voice methods
	VoiceChannelOf(guildID, userID string) (string, error)
	ChannelVoiceJoin(guildID, channelID string, mute, deaf bool) (*discordgo.VoiceConnection, error)

	// Session methods
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	BotUserID() string
}

// DiscordSession implements SessionHandler using discordgo.Session.
// Reaction writes share a token bucket so rendering a large board does not
// burst past the per-route limits.
type DiscordSession struct {
	*discordgo.Session
	reactions *rate.Limiter
}

// NewSession creates a new DiscordSession allowing perSecond reaction writes
func NewSession(token string, perSecond float64) (*DiscordSession, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildBans |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMessageTyping |
		discordgo.IntentsMessageContent
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &DiscordSession{
		Session:   s,
		reactions: rate.NewLimiter(rate.Limit(perSecond), burst),
	}, nil
}

// Ensure DiscordSession implements SessionHandler
var _ SessionHandler = (*DiscordSession)(nil)

func (s *DiscordSession) throttle() error {
	return s.reactions.Wait(context.Background())
}

// ChannelMessage implements SessionHandler
func (s *DiscordSession) ChannelMessage(channelID, messageID string) (*discordgo.Message, error) {
	return s.Session.ChannelMessage(channelID, messageID)
}

// ChannelMessages implements SessionHandler
func (s *DiscordSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string) ([]*discordgo.Message, error) {
	return s.Session.ChannelMessages(channelID, limit, beforeID, afterID, aroundID)
}

// ChannelMessageSend implements SessionHandler
func (s *DiscordSession) ChannelMessageSend(channelID string, content string) (*discordgo.Message, error) {
	return s.Session.ChannelMessageSend(channelID, content)
}

// ChannelMessageSendComplex implements SessionHandler
func (s *DiscordSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return s.Session.ChannelMessageSendComplex(channelID, data)
}

// ChannelMessageEdit implements SessionHandler
func (s *DiscordSession) ChannelMessageEdit(channelID string, messageID string, content string) (*discordgo.Message, error) {
	return s.Session.ChannelMessageEdit(channelID, messageID, content)
}

// ChannelMessageEditComplex implements SessionHandler
func (s *DiscordSession) ChannelMessageEditComplex(m *discordgo.MessageEdit) (*discordgo.Message, error) {
	return s.Session.ChannelMessageEditComplex(m)
}

// ChannelMessageDelete implements SessionHandler
func (s *DiscordSession) ChannelMessageDelete(channelID, messageID string) error {
	return s.Session.ChannelMessageDelete(channelID, messageID)
}

// ChannelMessagesBulkDelete implements SessionHandler
func (s *DiscordSession) ChannelMessagesBulkDelete(channelID string, messages []string) error {
	return s.Session.ChannelMessagesBulkDelete(channelID, messages)
}

// MessageReactionAdd implements SessionHandler
func (s *DiscordSession) MessageReactionAdd(channelID, messageID, emojiID string) error {
	if err := s.throttle(); err != nil {
		return err
	}
	return s.Session.MessageReactionAdd(channelID, messageID, emojiID)
}

// MessageReactionRemove implements SessionHandler
func (s *DiscordSession) MessageReactionRemove(channelID, messageID, emojiID, userID string) error {
	if err := s.throttle(); err != nil {
		return err
	}
	return s.Session.MessageReactionRemove(channelID, messageID, emojiID, userID)
}

// MessageReactionsRemoveAll implements SessionHandler
func (s *DiscordSession) MessageReactionsRemoveAll(channelID, messageID string) error {
	if err := s.throttle(); err != nil {
		return err
	}
	return s.Session.MessageReactionsRemoveAll(channelID, messageID)
}

// MessageReactionsRemoveEmoji implements SessionHandler
func (s *DiscordSession) MessageReactionsRemoveEmoji(channelID, messageID, emojiID string) error {
	if err := s.throttle(); err != nil {
		return err
	}
	return s.Session.MessageReactionsRemoveEmoji(channelID, messageID, emojiID)
}

// MessageReactions implements SessionHandler
func (s *DiscordSession) MessageReactions(channelID, messageID, emojiID string, limit int) ([]*discordgo.User, error) {
	return s.Session.MessageReactions(channelID, messageID, emojiID, limit, "", "")
}

// Guild implements SessionHandler
func (s *DiscordSession) Guild(guildID string) (*discordgo.Guild, error) {
	if g, err := s.Session.State.Guild(guildID); err == nil {
		return g, nil
	}
	return s.Session.Guild(guildID)
}

// GuildEdit implements SessionHandler
func (s *DiscordSession) GuildEdit(guildID string, params *discordgo.GuildParams) (*discordgo.Guild, error) {
	return s.Session.GuildEdit(guildID, params)
}

// GuildLeave implements SessionHandler
func (s *DiscordSession) GuildLeave(guildID string) error {
	return s.Session.GuildLeave(guildID)
}

// GuildMember implements SessionHandler
func (s *DiscordSession) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	if m, err := s.Session.State.Member(guildID, userID); err == nil {
		return m, nil
	}
	return s.Session.GuildMember(guildID, userID)
}

// GuildMemberDeleteWithReason implements SessionHandler
func (s *DiscordSession) GuildMemberDeleteWithReason(guildID, userID, reason string) error {
	return s.Session.GuildMemberDeleteWithReason(guildID, userID, reason)
}

// GuildMembers implements SessionHandler
func (s *DiscordSession) GuildMembers(guildID string, after string, limit int) ([]*discordgo.Member, error) {
	return s.Session.GuildMembers(guildID, after, limit)
}

// GuildMemberRoleAdd implements SessionHandler
func (s *DiscordSession) GuildMemberRoleAdd(guildID, userID, roleID string) error {
	return s.Session.GuildMemberRoleAdd(guildID, userID, roleID)
}

// GuildMemberRoleRemove implements SessionHandler
func (s *DiscordSession) GuildMemberRoleRemove(guildID, userID, roleID string) error {
	return s.Session.GuildMemberRoleRemove(guildID, userID, roleID)
}

// GuildRoles implements SessionHandler
func (s *DiscordSession) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	return s.Session.GuildRoles(guildID)
}

// GuildRoleCreate implements SessionHandler
func (s *DiscordSession) GuildRoleCreate(guildID string, params *discordgo.RoleParams) (*discordgo.Role, error) {
	return s.Session.GuildRoleCreate(guildID, params)
}

// GuildRoleDelete implements SessionHandler
func (s *DiscordSession) GuildRoleDelete(guildID, roleID string) error {
	return s.Session.GuildRoleDelete(guildID, roleID)
}

// GuildChannels implements SessionHandler
func (s *DiscordSession) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	return s.Session.GuildChannels(guildID)
}

// GuildChannelCreateComplex implements SessionHandler
func (s *DiscordSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	return s.Session.GuildChannelCreateComplex(guildID, data)
}

// ChannelDelete implements SessionHandler
func (s *DiscordSession) ChannelDelete(channelID string) error {
	_, err := s.Session.ChannelDelete(channelID)
	return err
}

// ChannelInviteCreate implements SessionHandler
func (s *DiscordSession) ChannelInviteCreate(channelID string, invite discordgo.Invite) (*discordgo.Invite, error) {
	return s.Session.ChannelInviteCreate(channelID, invite)
}

// VoiceChannelOf returns the voice channel the user is connected to, from the state cache
func (s *DiscordSession) VoiceChannelOf(guildID, userID string) (string, error) {
	vs, err := s.Session.State.VoiceState(guildID, userID)
	if err != nil {
		return "", err
	}
	return vs.ChannelID, nil
}

// ChannelVoiceJoin implements SessionHandler
func (s *DiscordSession) ChannelVoiceJoin(guildID, channelID string, mute, deaf bool) (*discordgo.VoiceConnection, error) {
	return s.Session.ChannelVoiceJoin(guildID, channelID, mute, deaf)
}

// Open implements SessionHandler
func (s *DiscordSession) Open() error {
	return s.Session.Open()
}

// Close implements SessionHandler
func (s *DiscordSession) Close() error {
	return s.Session.Close()
}

// AddHandler implements SessionHandler
func (s *DiscordSession) AddHandler(handler interface{}) func() {
	return s.Session.AddHandler(handler)
}

// BotUserID returns the id of the connected bot user, or "" before Ready
func (s *DiscordSession) BotUserID() string {
	if s.Session.State == nil || s.Session.State.User == nil {
		return ""
	}
	return s.Session.State.User.ID
}
