package listener

import (
	"github.com/bwmarrin/discordgo"
)

// EventType enumerates the platform events a listener can handle
type EventType int

const (
	EventReady EventType = iota
	EventConnect
	EventDisconnect
	EventMessageCreate
	EventMessageEdit
	EventReactionAdd
	EventReactionRemove
	EventReactionClear
	EventMemberJoin
	EventMemberLeave
	EventMemberUpdate
	EventMemberBan
	EventMemberUnban
	EventVoiceStateUpdate
	EventTyping
)

var eventNames = map[EventType]string{
	EventReady:            "ready",
	EventConnect:          "connect",
	EventDisconnect:       "disconnect",
	EventMessageCreate:    "message_create",
	EventMessageEdit:      "message_edit",
	EventReactionAdd:      "reaction_add",
	EventReactionRemove:   "reaction_remove",
	EventReactionClear:    "reaction_clear",
	EventMemberJoin:       "member_join",
	EventMemberLeave:      "member_leave",
	EventMemberUpdate:     "member_update",
	EventMemberBan:        "member_ban",
	EventMemberUnban:      "member_unban",
	EventVoiceStateUpdate: "voice_state_update",
	EventTyping:           "typing",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is one platform event with its payload
type Event struct {
	Type    EventType
	GuildID string
	Payload interface{}
}

// FromDiscord converts a discordgo event payload. It reports false for
// payloads that do not map to an EventType.
func FromDiscord(payload interface{}) (*Event, bool) {
	ev := &Event{Payload: payload}
	switch p := payload.(type) {
	case *discordgo.Ready:
		ev.Type = EventReady
	case *discordgo.Connect:
		ev.Type = EventConnect
	case *discordgo.Disconnect:
		ev.Type = EventDisconnect
	case *discordgo.MessageCreate:
		ev.Type, ev.GuildID = EventMessageCreate, p.GuildID
	case *discordgo.MessageUpdate:
		ev.Type, ev.GuildID = EventMessageEdit, p.GuildID
	case *discordgo.MessageReactionAdd:
		ev.Type, ev.GuildID = EventReactionAdd, p.GuildID
	case *discordgo.MessageReactionRemove:
		ev.Type, ev.GuildID = EventReactionRemove, p.GuildID
	case *discordgo.MessageReactionRemoveAll:
		ev.Type, ev.GuildID = EventReactionClear, p.GuildID
	case *discordgo.GuildMemberAdd:
		ev.Type, ev.GuildID = EventMemberJoin, p.GuildID
	case *discordgo.GuildMemberRemove:
		ev.Type, ev.GuildID = EventMemberLeave, p.GuildID
	case *discordgo.GuildMemberUpdate:
		ev.Type, ev.GuildID = EventMemberUpdate, p.GuildID
	case *discordgo.GuildBanAdd:
		ev.Type, ev.GuildID = EventMemberBan, p.GuildID
	case *discordgo.GuildBanRemove:
		ev.Type, ev.GuildID = EventMemberUnban, p.GuildID
	case *discordgo.VoiceStateUpdate:
		ev.Type, ev.GuildID = EventVoiceStateUpdate, p.GuildID
	case *discordgo.TypingStart:
		ev.Type, ev.GuildID = EventTyping, p.GuildID
	default:
		return nil, false
	}
	return ev, true
}

// Global reports whether the event is not scoped to one guild
func (e *Event) Global() bool {
	return e.GuildID == ""
}

// Message returns the created message, or nil
func (e *Event) Message() *discordgo.MessageCreate {
	m, _ := e.Payload.(*discordgo.MessageCreate)
	return m
}

// Edit returns the edited message, or nil
func (e *Event) Edit() *discordgo.MessageUpdate {
	m, _ := e.Payload.(*discordgo.MessageUpdate)
	return m
}

// ReactionAdded returns the added reaction, or nil
func (e *Event) ReactionAdded() *discordgo.MessageReactionAdd {
	r, _ := e.Payload.(*discordgo.MessageReactionAdd)
	return r
}

// ReactionRemoved returns the removed reaction, or nil
func (e *Event) ReactionRemoved() *discordgo.MessageReactionRemove {
	r, _ := e.Payload.(*discordgo.MessageReactionRemove)
	return r
}

// Reaction returns the reaction of an add or remove event, or nil
func (e *Event) Reaction() *discordgo.MessageReaction {
	switch p := e.Payload.(type) {
	case *discordgo.MessageReactionAdd:
		return p.MessageReaction
	case *discordgo.MessageReactionRemove:
		return p.MessageReaction
	case *discordgo.MessageReactionRemoveAll:
		return p.MessageReaction
	}
	return nil
}

// ChannelID returns the channel the event happened in, if any
func (e *Event) ChannelID() string {
	switch p := e.Payload.(type) {
	case *discordgo.MessageCreate:
		return p.ChannelID
	case *discordgo.MessageUpdate:
		return p.ChannelID
	case *discordgo.TypingStart:
		return p.ChannelID
	case *discordgo.VoiceStateUpdate:
		return p.ChannelID
	}
	if r := e.Reaction(); r != nil {
		return r.ChannelID
	}
	return ""
}

// Member returns the member attached to the event payload, if any
func (e *Event) Member() *discordgo.Member {
	switch p := e.Payload.(type) {
	case *discordgo.MessageCreate:
		return messageMember(p.Message)
	case *discordgo.MessageUpdate:
		return messageMember(p.Message)
	case *discordgo.MessageReactionAdd:
		return p.Member
	case *discordgo.GuildMemberAdd:
		return p.Member
	case *discordgo.GuildMemberUpdate:
		return p.Member
	case *discordgo.VoiceStateUpdate:
		return p.Member
	}
	return nil
}

func messageMember(m *discordgo.Message) *discordgo.Member {
	if m == nil || m.Member == nil {
		return nil
	}
	member := *m.Member
	if member.User == nil {
		member.User = m.Author
	}
	return &member
}
