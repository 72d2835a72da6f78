package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/internal/types"
)

// MaxMessageLength is the platform limit for one message body
const MaxMessageLength = 2000

// ResponseEmoji maps error codes to the emoji prefixed to user-facing error text
var ResponseEmoji = map[types.ErrorCode]string{
	types.ErrListenerNotFound:     "🔍",
	types.ErrListenerInactive:     "💤",
	types.ErrChannelNotAllowed:    "🚷",
	types.ErrPlayLimitReached:     "🏁",
	types.ErrSessionNotFound:      "🔍",
	types.ErrSessionCapacity:      "⏳",
	types.ErrInvalidConfiguration: "⚙️",
	types.ErrInvalidArgument:      "❗",
	types.ErrInvalidCommand:       "⛔",
	types.ErrPermissionDenied:     "🚫",
	types.ErrNotFound:             "🔍",
	types.ErrNetworkError:         "🌐",
	types.ErrRateLimited:          "⏱️",
	types.ErrDatabaseError:        "💾",
	types.ErrInternalError:        "💥",
}

// ErrorText formats err for display in a channel
func ErrorText(err error) string {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		emoji := ResponseEmoji[gameErr.Code]
		if emoji == "" {
			emoji = "❌"
		}
		return fmt.Sprintf("%s %s", emoji, gameErr.Message)
	}
	return fmt.Sprintf("❌ An error occurred: %v", err)
}

// SplitMessage cuts content into chunks of at most MaxMessageLength,
// preferring line boundaries.
func SplitMessage(content string) []string {
	if len(content) <= MaxMessageLength {
		return []string{content}
	}
	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	for _, line := range strings.SplitAfter(content, "\n") {
		for len(line) > MaxMessageLength {
			flush()
			cut := MaxMessageLength
			for cut > 0 && !utf8Boundary(line, cut) {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if current.Len()+len(line) > MaxMessageLength {
			flush()
		}
		current.WriteString(line)
	}
	flush()
	return chunks
}

func utf8Boundary(s string, i int) bool {
	return i >= len(s) || s[i]&0xC0 != 0x80
}

// LongSend sends content as one or more messages and returns the last one sent
func LongSend(s SessionHandler, channelID, content string) (*discordgo.Message, error) {
	var last *discordgo.Message
	for _, chunk := range SplitMessage(content) {
		msg, err := s.ChannelMessageSend(channelID, chunk)
		if err != nil {
			return last, types.FromDiscord(err, "send message")
		}
		last = msg
	}
	return last, nil
}

// Ignore logs err when it is a transient platform failure and reports whether
// the caller may carry on. Other errors are returned untouched.
func Ignore(log *logging.Logger, action string, err error) error {
	if err == nil {
		return nil
	}
	if types.IsTransient(err) {
		log.Warn("%s ignored: %v", action, err)
		return nil
	}
	return err
}

// SafeReactionAdd adds a reaction, logging and swallowing platform failures
func SafeReactionAdd(s SessionHandler, log *logging.Logger, channelID, messageID, emoji string) bool {
	if err := s.MessageReactionAdd(channelID, messageID, emoji); err != nil {
		log.Warn("adding %s to %s: %v", emoji, messageID, err)
		return false
	}
	return true
}

// SafeReactionRemove removes a user's reaction, logging and swallowing platform failures
func SafeReactionRemove(s SessionHandler, log *logging.Logger, channelID, messageID, emoji, userID string) bool {
	if err := s.MessageReactionRemove(channelID, messageID, emoji, userID); err != nil {
		log.Warn("removing %s of %s from %s: %v", emoji, userID, messageID, err)
		return false
	}
	return true
}

// SafeSend sends a message, logging and swallowing platform failures
func SafeSend(s SessionHandler, log *logging.Logger, channelID, content string) *discordgo.Message {
	msg, err := LongSend(s, channelID, content)
	if err != nil {
		log.Warn("sending to %s: %v", channelID, err)
	}
	return msg
}

// EmojiKey returns the identifier used by reaction endpoints for e
func EmojiKey(e discordgo.Emoji) string {
	if e.ID == "" {
		return e.Name
	}
	return e.APIName()
}

// HasRole reports whether member holds roleID. A nil member holds no role.
func HasRole(member *discordgo.Member, roleID string) bool {
	if member == nil || roleID == "" {
		return false
	}
	for _, r := range member.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// CountMembersWithRole counts live members holding roleID, paging through the
// guild member list.
func CountMembersWithRole(s SessionHandler, guildID, roleID string) (int, error) {
	members, err := MembersWithRole(s, guildID, roleID)
	return len(members), err
}

// MembersWithRole lists the live members holding roleID
func MembersWithRole(s SessionHandler, guildID, roleID string) ([]*discordgo.Member, error) {
	var found []*discordgo.Member
	after := ""
	for {
		members, err := s.GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, types.FromDiscord(err, "list members")
		}
		for _, m := range members {
			if HasRole(m, roleID) {
				found = append(found, m)
			}
		}
		if len(members) < 1000 {
			return found, nil
		}
		last := members[len(members)-1]
		if last.User == nil {
			return found, nil
		}
		after = last.User.ID
	}
}
