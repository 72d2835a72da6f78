package menu

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

// Action runs when a member's reaction passes the menu policy
type Action func(ctx context.Context, r *Reaction) error

// Choice is one emoji of a menu
type Choice struct {
	Emoji  string
	Action Action
}

// Reaction is a reaction being handled by a menu
type Reaction struct {
	*discordgo.MessageReaction
	Member *discordgo.Member
	Emoji  string
}

type entry struct {
	actions map[string]Action
	options Options
	// check runs after the base policy; false rejects the reaction.
	check func(ctx context.Context, r *Reaction) bool
	// onRemove runs when a menu reaction is removed.
	onRemove func(ctx context.Context, r *Reaction)

	mu   sync.Mutex
	last map[string]string
}

// Engine routes reactions on registered menu messages to their actions.
type Engine struct {
	session  discord.SessionHandler
	resolver RoleResolver
	log      *logging.Logger

	mu    sync.RWMutex
	menus map[string]*entry
}

// NewEngine creates an empty engine
func NewEngine(session discord.SessionHandler, resolver RoleResolver, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Default
	}
	return &Engine{
		session:  session,
		resolver: resolver,
		log:      log.With("menu"),
		menus:    map[string]*entry{},
	}
}

// Add turns an existing message into a menu. Reactions already on the
// message are cleared; emojis that cannot be added are skipped.
func (e *Engine) Add(ctx context.Context, channelID, messageID string, choices []Choice, opts Options) error {
	return e.add(channelID, messageID, choices, &entry{options: opts})
}

func (e *Engine) add(channelID, messageID string, choices []Choice, en *entry) error {
	if len(choices) == 0 {
		return types.NewGameError(types.ErrInvalidArgument, "a menu needs at least one choice")
	}
	en.actions = make(map[string]Action, len(choices))
	en.last = map[string]string{}
	for _, c := range choices {
		en.actions[c.Emoji] = c.Action
	}
	e.mu.Lock()
	e.menus[messageID] = en
	e.mu.Unlock()

	if err := e.session.MessageReactionsRemoveAll(channelID, messageID); err != nil {
		e.log.Debug("clearing reactions of %s: %v", messageID, err)
	}
	added := 0
	for _, c := range choices {
		if discord.SafeReactionAdd(e.session, e.log, channelID, messageID, c.Emoji) {
			added++
		}
	}
	e.log.Info("menu %s created with %d/%d reactions", messageID, added, len(choices))
	return nil
}

// Remove forgets a menu
func (e *Engine) Remove(messageID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.menus, messageID)
}

// Has reports whether messageID is a menu
func (e *Engine) Has(messageID string) bool {
	_, ok := e.lookup(messageID)
	return ok
}

func (e *Engine) lookup(messageID string) (*entry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	en, ok := e.menus[messageID]
	return en, ok
}

// Listener returns a hidden, auto-started listener feeding reactions to e
func (e *Engine) Listener(name string) *listener.Listener {
	return listener.New(name,
		listener.WithHidden(),
		listener.WithAutoStart(true),
		listener.WithLogger(e.log),
		listener.WithHandler(listener.EventReactionAdd, func(ctx context.Context, ev *listener.Event) error {
			if r := ev.ReactionAdded(); r != nil {
				e.HandleAdd(ctx, r)
			}
			return nil
		}),
		listener.WithHandler(listener.EventReactionRemove, func(ctx context.Context, ev *listener.Event) error {
			if r := ev.ReactionRemoved(); r != nil {
				e.HandleRemove(ctx, r.MessageReaction)
			}
			return nil
		}),
	)
}

func (e *Engine) member(r *discordgo.MessageReaction, member *discordgo.Member) *discordgo.Member {
	if member != nil {
		return member
	}
	m, err := e.session.GuildMember(r.GuildID, r.UserID)
	if err != nil {
		e.log.Debug("fetching member %s: %v", r.UserID, err)
		return nil
	}
	return m
}

func isBot(s discord.SessionHandler, r *discordgo.MessageReaction, member *discordgo.Member) bool {
	if r.UserID == s.BotUserID() {
		return true
	}
	return member != nil && member.User != nil && member.User.Bot
}

// HandleAdd applies the menu policy to an added reaction and runs its action
func (e *Engine) HandleAdd(ctx context.Context, r *discordgo.MessageReactionAdd) {
	if r == nil || r.MessageReaction == nil {
		return
	}
	en, ok := e.lookup(r.MessageID)
	if !ok || isBot(e.session, r.MessageReaction, r.Member) {
		return
	}
	emoji := discord.EmojiKey(r.Emoji)
	action, ok := en.actions[emoji]
	if !ok {
		return
	}
	rc := &Reaction{MessageReaction: r.MessageReaction, Member: e.member(r.MessageReaction, r.Member), Emoji: emoji}

	if !e.baseChecks(rc, en) {
		return
	}
	if en.check != nil && !en.check(ctx, rc) {
		return
	}

	if err := action(ctx, rc); err != nil {
		e.log.Warn("menu action %s failed: %v", emoji, err)
		var gameErr *types.GameError
		if types.As(err, &gameErr) && gameErr.Code == types.ErrPermissionDenied && en.options.UpdateReactions {
			e.reject(rc)
		}
	}
	en.mu.Lock()
	en.last[r.UserID] = emoji
	en.mu.Unlock()

	if en.options.RemoveReactionAfterAction {
		e.reject(rc)
	}
}

// HandleRemove runs the removal behavior of a menu, if any
func (e *Engine) HandleRemove(ctx context.Context, r *discordgo.MessageReaction) {
	if r == nil {
		return
	}
	en, ok := e.lookup(r.MessageID)
	if !ok || en.onRemove == nil || isBot(e.session, r, nil) {
		return
	}
	emoji := discord.EmojiKey(r.Emoji)
	if _, ok := en.actions[emoji]; !ok {
		return
	}
	en.onRemove(ctx, &Reaction{MessageReaction: r, Member: e.member(r, nil), Emoji: emoji})
}

func (e *Engine) reject(r *Reaction) {
	discord.SafeReactionRemove(e.session, e.log, r.ChannelID, r.MessageID, r.Emoji, r.UserID)
}

func (e *Engine) baseChecks(r *Reaction, en *entry) bool {
	opts := en.options
	switch roleGate(e.resolver, r.Member, opts.RequiredRoles, opts.IgnoredRoles) {
	case gateMissingRole:
		e.log.Debug("%s lacks the required roles", r.UserID)
		if opts.UpdateReactions {
			e.reject(r)
		}
		return false
	case gateIgnored:
		return false
	}

	if !opts.AllowOptionChange {
		en.mu.Lock()
		last, chose := en.last[r.UserID]
		en.mu.Unlock()
		if chose && last != r.Emoji {
			e.log.Debug("%s already chose %s", r.UserID, last)
			if opts.UpdateReactions {
				e.reject(r)
			}
			return false
		}
	}

	if max, ok := opts.MaxReactionsPerUser.Get(); ok {
		if count := e.userReactions(r); count > max {
			e.log.Debug("%s has %d reactions, max %d", r.UserID, count, max)
			if opts.UpdateReactions {
				e.reject(r)
			}
			return false
		}
	}

	if max, ok := opts.MaxUsersPerReaction.Get(); ok {
		users, err := e.session.MessageReactions(r.ChannelID, r.MessageID, r.Emoji, 100)
		if err != nil {
			e.log.Debug("reading reactions %s: %v", r.Emoji, err)
		} else if len(users)-1 > max {
			e.log.Debug("%s has %d users, max %d", r.Emoji, len(users)-1, max)
			if opts.UpdateReactions {
				e.reject(r)
			}
			return false
		}
	}
	return true
}

// userReactions counts the reactions of the user on the menu message
func (e *Engine) userReactions(r *Reaction) int {
	msg, err := e.session.ChannelMessage(r.ChannelID, r.MessageID)
	if err != nil {
		e.log.Debug("fetching menu %s: %v", r.MessageID, err)
		return 0
	}
	count := 0
	for _, reaction := range msg.Reactions {
		if reaction == nil || reaction.Emoji == nil {
			continue
		}
		users, err := e.session.MessageReactions(r.ChannelID, r.MessageID, discord.EmojiKey(*reaction.Emoji), 100)
		if err != nil {
			continue
		}
		for _, u := range users {
			if u != nil && u.ID == r.UserID {
				count++
				break
			}
		}
	}
	return count
}
