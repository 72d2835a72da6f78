// Package provision reconciles a guild's roles and channels with the catalog
// and records the resolved ids in the session directory.
package provision

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/gamemaster/internal/discord"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/catalog"
)

// Names of the parts UpdateGuild reports as failed
const (
	PartRoles      = "guild roles"
	PartChannels   = "guild channels"
	PartProperties = "guild properties"
)

// GuildProvisioner provisions one guild
type GuildProvisioner struct {
	session   discord.SessionHandler
	guildID   string
	catalog   *catalog.Catalog
	directory *catalog.Directory
	log       *logging.Logger
}

// New creates a provisioner writing resolved ids to directory
func New(session discord.SessionHandler, guildID string, cat *catalog.Catalog, directory *catalog.Directory, log *logging.Logger) *GuildProvisioner {
	if log == nil {
		log = logging.Default
	}
	return &GuildProvisioner{
		session:   session,
		guildID:   guildID,
		catalog:   cat,
		directory: directory,
		log:       log.With("provision"),
	}
}

// Directory returns the directory the provisioner fills
func (p *GuildProvisioner) Directory() *catalog.Directory { return p.directory }

func (p *GuildProvisioner) liveRoles() (map[string]*discordgo.Role, []*discordgo.Role, error) {
	roles, err := p.session.GuildRoles(p.guildID)
	if err != nil {
		return nil, nil, types.FromDiscord(err, "list roles")
	}
	byName := make(map[string]*discordgo.Role, len(roles))
	for _, r := range roles {
		if _, dup := byName[r.Name]; !dup {
			byName[r.Name] = r
		}
	}
	return byName, roles, nil
}

// FetchRoles records the ids of catalog roles present in the guild
func (p *GuildProvisioner) FetchRoles(ctx context.Context) error {
	byName, _, err := p.liveRoles()
	if err != nil {
		return err
	}
	var missing []string
	for _, spec := range p.catalog.Roles {
		if r, ok := byName[spec.Name]; ok {
			p.directory.SetRole(spec.Key, r.ID)
			continue
		}
		missing = append(missing, spec.Key)
	}
	if len(missing) > 0 {
		p.log.Info("roles missing from guild %s: %v", p.guildID, missing)
	}
	return nil
}

type liveChannels struct {
	all        []*discordgo.Channel
	categories map[string]*discordgo.Channel
}

func (p *GuildProvisioner) liveChannels() (*liveChannels, error) {
	channels, err := p.session.GuildChannels(p.guildID)
	if err != nil {
		return nil, types.FromDiscord(err, "list channels")
	}
	lc := &liveChannels{all: channels, categories: map[string]*discordgo.Channel{}}
	for _, c := range channels {
		if c.Type == discordgo.ChannelTypeGuildCategory {
			if _, dup := lc.categories[c.Name]; !dup {
				lc.categories[c.Name] = c
			}
		}
	}
	return lc, nil
}

func channelType(spec catalog.ChannelSpec) discordgo.ChannelType {
	if spec.IsVoice() {
		return discordgo.ChannelTypeGuildVoice
	}
	return discordgo.ChannelTypeGuildText
}

// match finds the live channel of spec, preferring the one in the expected
// category. A name match in another category is not taken.
func (p *GuildProvisioner) match(lc *liveChannels, spec catalog.ChannelSpec) *discordgo.Channel {
	parentID := ""
	if spec.Category != "" {
		cat, ok := p.catalog.Category(spec.Category)
		if !ok {
			return nil
		}
		live, ok := lc.categories[cat.Name]
		if !ok {
			return nil
		}
		parentID = live.ID
	}
	for _, c := range lc.all {
		if c.Name == spec.Name && c.Type == channelType(spec) && c.ParentID == parentID {
			return c
		}
	}
	return nil
}

// FetchChannels records the ids of catalog categories and channels present in the guild
func (p *GuildProvisioner) FetchChannels(ctx context.Context) error {
	lc, err := p.liveChannels()
	if err != nil {
		return err
	}
	for _, cat := range p.catalog.Categories {
		if live, ok := lc.categories[cat.Name]; ok {
			p.directory.SetChannel(cat.Key, live.ID)
		}
	}
	for _, spec := range p.catalog.Channels {
		if c := p.match(lc, spec); c != nil {
			p.directory.SetChannel(spec.Key, c.ID)
		}
	}
	return nil
}

// Fetch resolves roles then channels
func (p *GuildProvisioner) Fetch(ctx context.Context) error {
	if err := p.FetchRoles(ctx); err != nil {
		return err
	}
	return p.FetchChannels(ctx)
}

func roleParams(spec catalog.RoleSpec) *discordgo.RoleParams {
	color, hoist, mentionable := spec.Color, spec.Hoist, spec.Mentionable
	params := &discordgo.RoleParams{Name: spec.Name, Color: &color, Hoist: &hoist, Mentionable: &mentionable}
	if spec.Permissions != 0 {
		perms := spec.Permissions
		params.Permissions = &perms
	}
	return params
}

// UpdateRoles creates missing catalog roles. With deleteOld, roles unknown
// to the catalog are deleted; managed roles and @everyone are kept.
func (p *GuildProvisioner) UpdateRoles(ctx context.Context, deleteOld bool) error {
	byName, all, err := p.liveRoles()
	if err != nil {
		return err
	}
	failed := false
	known := map[string]bool{}
	for _, spec := range p.catalog.Roles {
		known[spec.Name] = true
		if r, ok := byName[spec.Name]; ok {
			p.directory.SetRole(spec.Key, r.ID)
			continue
		}
		created, err := p.session.GuildRoleCreate(p.guildID, roleParams(spec))
		if err != nil {
			p.log.Warn("creating role %s: %v", spec.Key, err)
			failed = true
			continue
		}
		p.directory.SetRole(spec.Key, created.ID)
		p.log.Info("created role %s", spec.Key)
	}
	if deleteOld {
		for _, r := range all {
			if known[r.Name] || r.Managed || r.ID == p.guildID {
				continue
			}
			if err := p.session.GuildRoleDelete(p.guildID, r.ID); err != nil {
				p.log.Debug("cannot delete role %s: %v", r.Name, err)
			}
		}
	}
	if failed {
		return types.NewGameError(types.ErrPermissionDenied, "some roles could not be created")
	}
	return nil
}

func (p *GuildProvisioner) createChannel(name string, kind discordgo.ChannelType, topic, parentID string) (*discordgo.Channel, error) {
	c, err := p.session.GuildChannelCreateComplex(p.guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     kind,
		Topic:    topic,
		ParentID: parentID,
	})
	if err != nil {
		return nil, types.FromDiscord(err, fmt.Sprintf("create channel %s", name))
	}
	return c, nil
}

// UpdateChannels creates missing categories and channels. With deleteOld,
// channels unknown to the catalog are deleted.
func (p *GuildProvisioner) UpdateChannels(ctx context.Context, deleteOld bool) error {
	lc, err := p.liveChannels()
	if err != nil {
		return err
	}
	failed := false
	keep := map[string]bool{}

	for _, cat := range p.catalog.Categories {
		live, ok := lc.categories[cat.Name]
		if !ok {
			created, err := p.createChannel(cat.Name, discordgo.ChannelTypeGuildCategory, "", "")
			if err != nil {
				p.log.Warn("%v", err)
				failed = true
				continue
			}
			live = created
			lc.categories[cat.Name] = created
			lc.all = append(lc.all, created)
		}
		keep[live.ID] = true
		p.directory.SetChannel(cat.Key, live.ID)
	}

	for _, spec := range p.catalog.Channels {
		c := p.match(lc, spec)
		if c == nil {
			parentID := ""
			if spec.Category != "" {
				if id, ok := p.directory.ChannelID(spec.Category); ok {
					parentID = id
				}
			}
			created, err := p.createChannel(spec.Name, channelType(spec), spec.Topic, parentID)
			if err != nil {
				p.log.Warn("%v", err)
				failed = true
				continue
			}
			c = created
			lc.all = append(lc.all, created)
		}
		keep[c.ID] = true
		p.directory.SetChannel(spec.Key, c.ID)
	}

	if deleteOld {
		for _, c := range lc.all {
			if keep[c.ID] {
				continue
			}
			if err := p.session.ChannelDelete(c.ID); err != nil {
				p.log.Debug("cannot delete channel %s: %v", c.Name, err)
			}
		}
	}
	if failed {
		return types.NewGameError(types.ErrPermissionDenied, "some channels could not be created")
	}
	return nil
}

// UpdateProperties applies guild-wide properties
func (p *GuildProvisioner) UpdateProperties(ctx context.Context) error {
	if p.catalog.Guild.Name == "" {
		return nil
	}
	if _, err := p.session.GuildEdit(p.guildID, &discordgo.GuildParams{Name: p.catalog.Guild.Name}); err != nil {
		return types.FromDiscord(err, "edit guild")
	}
	return nil
}

// UpdateGuild provisions roles, channels and properties and returns the
// parts that failed. With clearReferences the directory is rebuilt.
func (p *GuildProvisioner) UpdateGuild(ctx context.Context, force, clearReferences bool) []string {
	if clearReferences {
		p.directory.Reset()
	}
	var failed []string
	if err := p.UpdateRoles(ctx, force); err != nil {
		p.log.Warn("updating roles: %v", err)
		failed = append(failed, PartRoles)
	}
	if err := p.UpdateChannels(ctx, force); err != nil {
		p.log.Warn("updating channels: %v", err)
		failed = append(failed, PartChannels)
	}
	if err := p.UpdateProperties(ctx); err != nil {
		p.log.Warn("updating properties: %v", err)
		failed = append(failed, PartProperties)
	}
	return failed
}

// CheckGuild lists what is wrong with the guild. An empty list means ready.
func (p *GuildProvisioner) CheckGuild(ctx context.Context) []string {
	byName, _, err := p.liveRoles()
	if err != nil {
		return []string{err.Error()}
	}
	var problems []string
	if msg := p.checkHierarchy(byName); msg != "" {
		return []string{msg}
	}

	lc, err := p.liveChannels()
	if err != nil {
		return []string{err.Error()}
	}
	for _, cat := range p.catalog.Categories {
		if _, ok := lc.categories[cat.Name]; !ok {
			problems = append(problems, fmt.Sprintf("Category %s is missing", cat.Name))
		}
	}
	for _, spec := range p.catalog.Channels {
		if p.match(lc, spec) == nil {
			problems = append(problems, fmt.Sprintf("Channel %s is missing", spec.Name))
		}
	}
	for _, spec := range p.catalog.Roles {
		if _, ok := byName[spec.Name]; !ok {
			problems = append(problems, fmt.Sprintf("Role %s is missing", spec.Name))
		}
	}
	return problems
}

// checkHierarchy requires the bot's highest role to be above every game role
func (p *GuildProvisioner) checkHierarchy(byName map[string]*discordgo.Role) string {
	bot, err := p.session.GuildMember(p.guildID, p.session.BotUserID())
	if err != nil {
		p.log.Debug("fetching bot member: %v", err)
		return ""
	}
	byID := map[string]*discordgo.Role{}
	for _, r := range byName {
		byID[r.ID] = r
	}
	top := -1
	for _, id := range bot.Roles {
		if r, ok := byID[id]; ok && r.Position > top {
			top = r.Position
		}
	}
	highest := ""
	highestPos := -1
	for _, spec := range p.catalog.Roles {
		if r, ok := byName[spec.Name]; ok && r.Position > highestPos && !discord.HasRole(bot, r.ID) {
			highest, highestPos = r.Name, r.Position
		}
	}
	if highestPos >= 0 && top <= highestPos {
		return fmt.Sprintf("Highest bot role must be higher than other game roles in hierarchy! Role %s is higher.", highest)
	}
	return ""
}

// SafeTextChannel returns the text channel of key, creating it when the
// catalog describes it. Without a description the first text channel is used.
func (p *GuildProvisioner) SafeTextChannel(ctx context.Context, key string) (string, error) {
	return p.textChannel(ctx, key, true)
}

// ExistingTextChannel is SafeTextChannel without creating anything
func (p *GuildProvisioner) ExistingTextChannel(ctx context.Context, key string) (string, error) {
	return p.textChannel(ctx, key, false)
}

func (p *GuildProvisioner) textChannel(ctx context.Context, key string, create bool) (string, error) {
	lc, err := p.liveChannels()
	if err != nil {
		return "", err
	}
	if id, ok := p.directory.ChannelID(key); ok {
		for _, c := range lc.all {
			if c.ID == id && c.Type == discordgo.ChannelTypeGuildText {
				return id, nil
			}
		}
	}
	if spec, ok := p.catalog.Channel(key); ok && !spec.IsVoice() {
		if c := p.match(lc, spec); c != nil {
			p.directory.SetChannel(key, c.ID)
			return c.ID, nil
		}
		if create {
			parentID := ""
			if spec.Category != "" {
				if id, ok := p.directory.ChannelID(spec.Category); ok {
					parentID = id
				}
			}
			created, err := p.createChannel(spec.Name, discordgo.ChannelTypeGuildText, spec.Topic, parentID)
			if err == nil {
				p.directory.SetChannel(key, created.ID)
				return created.ID, nil
			}
			p.log.Warn("%v", err)
		}
	}
	for _, c := range lc.all {
		if c.Type == discordgo.ChannelTypeGuildText {
			return c.ID, nil
		}
	}
	return "", types.NewGameError(types.ErrNotFound, "no text channel available")
}

// CleanChannels deletes every channel outside the ignored categories, plus
// the forced channels, and provisions the channels again.
func (p *GuildProvisioner) CleanChannels(ctx context.Context, ignoreCategories, forceChannels []string) error {
	lc, err := p.liveChannels()
	if err != nil {
		return err
	}
	ignored := map[string]bool{}
	for _, key := range ignoreCategories {
		if id, ok := p.directory.ChannelID(key); ok {
			ignored[id] = true
		}
	}
	forced := map[string]bool{}
	for _, key := range forceChannels {
		if id, ok := p.directory.ChannelID(key); ok {
			forced[id] = true
		}
	}
	for _, c := range lc.all {
		keep := ignored[c.ID] || ignored[c.ParentID]
		if keep && !forced[c.ID] {
			continue
		}
		if err := p.session.ChannelDelete(c.ID); err != nil {
			p.log.Warn("cannot delete channel %s: %v", c.Name, err)
		}
	}
	return p.UpdateChannels(ctx, false)
}

// CreateInvite creates an invite to the channel of channelKey
func (p *GuildProvisioner) CreateInvite(ctx context.Context, channelKey string, maxUses, maxAge int) (*discordgo.Invite, error) {
	id, ok := p.directory.ChannelID(channelKey)
	if !ok {
		return nil, types.NewGameError(types.ErrNotFound, fmt.Sprintf("channel %s is not provisioned", channelKey))
	}
	invite, err := p.session.ChannelInviteCreate(id, discordgo.Invite{MaxUses: maxUses, MaxAge: maxAge})
	if err != nil {
		return nil, types.FromDiscord(err, "create invite")
	}
	return invite, nil
}
