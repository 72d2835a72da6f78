package mock

import (
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
)

// SessionHandler is a mock implementation of discord.SessionHandler
type SessionHandler struct {
	mock.Mock
}

func message(args mock.Arguments) (*discordgo.Message, error) {
	m, _ := args.Get(0).(*discordgo.Message)
	return m, args.Error(1)
}

// ChannelMessage implements discord.SessionHandler
func (s *SessionHandler) ChannelMessage(channelID, messageID string) (*discordgo.Message, error) {
	return message(s.Called(channelID, messageID))
}

// ChannelMessages implements discord.SessionHandler
func (s *SessionHandler) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string) ([]*discordgo.Message, error) {
	args := s.Called(channelID, limit, beforeID, afterID, aroundID)
	msgs, _ := args.Get(0).([]*discordgo.Message)
	return msgs, args.Error(1)
}

// ChannelMessageSend implements discord.SessionHandler
func (s *SessionHandler) ChannelMessageSend(channelID string, content string) (*discordgo.Message, error) {
	return message(s.Called(channelID, content))
}

// ChannelMessageSendComplex implements discord.SessionHandler
func (s *SessionHandler) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return message(s.Called(channelID, data))
}

// ChannelMessageEdit implements discord.SessionHandler
func (s *SessionHandler) ChannelMessageEdit(channelID string, messageID string, content string) (*discordgo.Message, error) {
	return message(s.Called(channelID, messageID, content))
}

// ChannelMessageEditComplex implements discord.SessionHandler
func (s *SessionHandler) ChannelMessageEditComplex(m *discordgo.MessageEdit) (*discordgo.Message, error) {
	return message(s.Called(m))
}

// ChannelMessageDelete implements discord.SessionHandler
func (s *SessionHandler) ChannelMessageDelete(channelID, messageID string) error {
	return s.Called(channelID, messageID).Error(0)
}

// ChannelMessagesBulkDelete implements discord.SessionHandler
func (s *SessionHandler) ChannelMessagesBulkDelete(channelID string, messages []string) error {
	return s.Called(channelID, messages).Error(0)
}

// MessageReactionAdd implements discord.SessionHandler
func (s *SessionHandler) MessageReactionAdd(channelID, messageID, emojiID string) error {
	return s.Called(channelID, messageID, emojiID).Error(0)
}

// MessageReactionRemove implements discord.SessionHandler
func (s *SessionHandler) MessageReactionRemove(channelID, messageID, emojiID, userID string) error {
	return s.Called(channelID, messageID, emojiID, userID).Error(0)
}

// MessageReactionsRemoveAll implements discord.SessionHandler
func (s *SessionHandler) MessageReactionsRemoveAll(channelID, messageID string) error {
	return s.Called(channelID, messageID).Error(0)
}

// MessageReactionsRemoveEmoji implements discord.SessionHandler
func (s *SessionHandler) MessageReactionsRemoveEmoji(channelID, messageID, emojiID string) error {
	return s.Called(channelID, messageID, emojiID).Error(0)
}

// MessageReactions implements discord.SessionHandler
func (s *SessionHandler) MessageReactions(channelID, messageID, emojiID string, limit int) ([]*discordgo.User, error) {
	args := s.Called(channelID, messageID, emojiID, limit)
	users, _ := args.Get(0).([]*discordgo.User)
	return users, args.Error(1)
}

// Guild implements discord.SessionHandler
func (s *SessionHandler) Guild(guildID string) (*discordgo.Guild, error) {
	args := s.Called(guildID)
	g, _ := args.Get(0).(*discordgo.Guild)
	return g, args.Error(1)
}

// GuildEdit implements discord.SessionHandler
func (s *SessionHandler) GuildEdit(guildID string, params *discordgo.GuildParams) (*discordgo.Guild, error) {
	args := s.Called(guildID, params)
	g, _ := args.Get(0).(*discordgo.Guild)
	return g, args.Error(1)
}

// GuildLeave implements discord.SessionHandler
func (s *SessionHandler) GuildLeave(guildID string) error {
	return s.Called(guildID).Error(0)
}

// GuildMemberDeleteWithReason implements discord.SessionHandler
func (s *SessionHandler) GuildMemberDeleteWithReason(guildID, userID, reason string) error {
	return s.Called(guildID, userID, reason).Error(0)
}

// GuildMember implements discord.SessionHandler
func (s *SessionHandler) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	args := s.Called(guildID, userID)
	m, _ := args.Get(0).(*discordgo.Member)
	return m, args.Error(1)
}

// GuildMembers implements discord.SessionHandler
func (s *SessionHandler) GuildMembers(guildID string, after string, limit int) ([]*discordgo.Member, error) {
	args := s.Called(guildID, after, limit)
	members, _ := args.Get(0).([]*discordgo.Member)
	return members, args.Error(1)
}

// GuildMemberRoleAdd implements discord.SessionHandler
func (s *SessionHandler) GuildMemberRoleAdd(guildID, userID, roleID string) error {
	return s.Called(guildID, userID, roleID).Error(0)
}

// GuildMemberRoleRemove implements discord.SessionHandler
func (s *SessionHandler) GuildMemberRoleRemove(guildID, userID, roleID string) error {
	return s.Called(guildID, userID, roleID).Error(0)
}

// GuildRoles implements discord.SessionHandler
func (s *SessionHandler) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	args := s.Called(guildID)
	roles, _ := args.Get(0).([]*discordgo.Role)
	return roles, args.Error(1)
}

// GuildRoleCreate implements discord.SessionHandler
func (s *SessionHandler) GuildRoleCreate(guildID string, params *discordgo.RoleParams) (*discordgo.Role, error) {
	args := s.Called(guildID, params)
	r, _ := args.Get(0).(*discordgo.Role)
	return r, args.Error(1)
}

// GuildRoleDelete implements discord.SessionHandler
func (s *SessionHandler) GuildRoleDelete(guildID, roleID string) error {
	return s.Called(guildID, roleID).Error(0)
}

// GuildChannels implements discord.SessionHandler
func (s *SessionHandler) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	args := s.Called(guildID)
	channels, _ := args.Get(0).([]*discordgo.Channel)
	return channels, args.Error(1)
}

// GuildChannelCreateComplex implements discord.SessionHandler
func (s *SessionHandler) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	args := s.Called(guildID, data)
	c, _ := args.Get(0).(*discordgo.Channel)
	return c, args.Error(1)
}

// ChannelDelete implements discord.SessionHandler
func (s *SessionHandler) ChannelDelete(channelID string) error {
	return s.Called(channelID).Error(0)
}

// ChannelInviteCreate implements discord.SessionHandler
func (s *SessionHandler) ChannelInviteCreate(channelID string, invite discordgo.Invite) (*discordgo.Invite, error) {
	args := s.Called(channelID, invite)
	i, _ := args.Get(0).(*discordgo.Invite)
	return i, args.Error(1)
}

// VoiceChannelOf implements discord.SessionHandler
func (s *SessionHandler) VoiceChannelOf(guildID, userID string) (string, error) {
	args := s.Called(guildID, userID)
	return args.String(0), args.Error(1)
}

// ChannelVoiceJoin implements discord.SessionHandler
func (s *SessionHandler) ChannelVoiceJoin(guildID, channelID string, mute, deaf bool) (*discordgo.VoiceConnection, error) {
	args := s.Called(guildID, channelID, mute, deaf)
	vc, _ := args.Get(0).(*discordgo.VoiceConnection)
	return vc, args.Error(1)
}

// Open implements discord.SessionHandler
func (s *SessionHandler) Open() error {
	return s.Called().Error(0)
}

// Close implements discord.SessionHandler
func (s *SessionHandler) Close() error {
	return s.Called().Error(0)
}

// AddHandler implements discord.SessionHandler
func (s *SessionHandler) AddHandler(handler interface{}) func() {
	args := s.Called(handler)
	return args.Get(0).(func())
}

// BotUserID implements discord.SessionHandler
func (s *SessionHandler) BotUserID() string {
	return s.Called().String(0)
}
