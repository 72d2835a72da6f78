// Package catalog loads the YAML description of a game: the roles and
// channels it provisions, the localization versions, the listeners it runs
// and their message bags.
package catalog

import (
	"fmt"
	"os"

	"github.com/fadedpez/gamemaster/internal/types"
	"gopkg.in/yaml.v3"
)

// DefaultVersion is the message overlay applied before any selected version
const DefaultVersion = "default"

// Catalog is the static description of a game
type Catalog struct {
	Guild      GuildSpec                               `yaml:"guild"`
	Versions   []Version                               `yaml:"versions"`
	Roles      []RoleSpec                              `yaml:"roles"`
	Categories []CategorySpec                          `yaml:"categories"`
	Channels   []ChannelSpec                           `yaml:"channels"`
	Listeners  []ListenerSpec                          `yaml:"listeners"`
	Texts      map[string]map[string]map[string]string `yaml:"messages"` // version -> bag -> key -> text
}

// GuildSpec holds guild-wide properties
type GuildSpec struct {
	Name string `yaml:"name"`
}

// Version is a selectable localization/config set
type Version struct {
	Name        string `yaml:"name"`
	Emoji       string `yaml:"emoji"`
	Description string `yaml:"description"`
}

// RoleSpec describes a role the game provisions
type RoleSpec struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Color       int    `yaml:"color"`
	Hoist       bool   `yaml:"hoist"`
	Mentionable bool   `yaml:"mentionable"`
	Permissions int64  `yaml:"permissions"`
}

// CategorySpec describes a channel category
type CategorySpec struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

// ChannelSpec describes a channel. Type is "text" (default) or "voice".
type ChannelSpec struct {
	Key      string `yaml:"key"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Type     string `yaml:"type"`
	Topic    string `yaml:"topic"`
}

// IsVoice reports whether the channel is a voice channel
func (c ChannelSpec) IsVoice() bool {
	return c.Type == "voice"
}

// ListenerSpec describes one listener instance. Nil lists mean no restriction;
// an empty list restricts to nothing.
type ListenerSpec struct {
	Type              string            `yaml:"type"`
	Name              string            `yaml:"name"`
	Description       string            `yaml:"description"`
	AutoStart         bool              `yaml:"auto_start"`
	Hidden            bool              `yaml:"hidden"`
	AllowedChannels   *[]string         `yaml:"allowed_channels"`
	ForbiddenChannels *[]string         `yaml:"forbidden_channels"`
	AllowedRoles      *[]string         `yaml:"allowed_roles"`
	ForbiddenRoles    *[]string         `yaml:"forbidden_roles"`
	SimpleMode        *bool             `yaml:"simple_mode"`
	MaxPlays          *int              `yaml:"max_plays"`
	Options           map[string]string `yaml:"options"`
}

// Load reads and validates a catalog file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, types.WrapError(types.ErrInvalidConfiguration, "catalog is not valid YAML", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Versions) == 0 {
		return types.NewGameError(types.ErrInvalidConfiguration, "catalog declares no version")
	}
	seen := map[string]string{}
	check := func(kind, key string) error {
		if key == "" {
			return types.NewGameError(types.ErrInvalidConfiguration, fmt.Sprintf("%s without key", kind))
		}
		if prev, ok := seen[key]; ok {
			return types.NewGameError(types.ErrInvalidConfiguration, fmt.Sprintf("key %s used by %s and %s", key, prev, kind))
		}
		seen[key] = kind
		return nil
	}
	for _, r := range c.Roles {
		if err := check("role", r.Key); err != nil {
			return err
		}
	}
	for _, cat := range c.Categories {
		if err := check("category", cat.Key); err != nil {
			return err
		}
	}
	for _, ch := range c.Channels {
		if err := check("channel", ch.Key); err != nil {
			return err
		}
		if ch.Category != "" && seen[ch.Category] != "category" {
			return types.NewGameError(types.ErrInvalidConfiguration,
				fmt.Sprintf("channel %s has unknown category %s", ch.Key, ch.Category))
		}
	}
	emojis := map[string]bool{}
	for _, v := range c.Versions {
		if v.Name == "" || v.Emoji == "" {
			return types.NewGameError(types.ErrInvalidConfiguration, "version needs a name and an emoji")
		}
		if emojis[v.Emoji] {
			return types.NewGameError(types.ErrInvalidConfiguration, fmt.Sprintf("version emoji %s used twice", v.Emoji))
		}
		emojis[v.Emoji] = true
	}
	for i, l := range c.Listeners {
		if l.Type == "" {
			return types.NewGameError(types.ErrInvalidConfiguration, fmt.Sprintf("listener %d has no type", i))
		}
	}
	return nil
}

// VersionByEmoji finds the version selected by a reaction
func (c *Catalog) VersionByEmoji(emoji string) (Version, bool) {
	for _, v := range c.Versions {
		if v.Emoji == emoji {
			return v, true
		}
	}
	return Version{}, false
}

// VersionNames lists the declared versions in order
func (c *Catalog) VersionNames() []string {
	names := make([]string, 0, len(c.Versions))
	for _, v := range c.Versions {
		names = append(names, v.Name)
	}
	return names
}

// HasVersion reports whether name is a declared version
func (c *Catalog) HasVersion(name string) bool {
	for _, v := range c.Versions {
		if v.Name == name {
			return true
		}
	}
	return false
}

// Role returns the role declared under key
func (c *Catalog) Role(key string) (RoleSpec, bool) {
	for _, r := range c.Roles {
		if r.Key == key {
			return r, true
		}
	}
	return RoleSpec{}, false
}

// Channel returns the channel declared under key
func (c *Catalog) Channel(key string) (ChannelSpec, bool) {
	for _, ch := range c.Channels {
		if ch.Key == key {
			return ch, true
		}
	}
	return ChannelSpec{}, false
}

// Category returns the category declared under key
func (c *Catalog) Category(key string) (CategorySpec, bool) {
	for _, cat := range c.Categories {
		if cat.Key == key {
			return cat, true
		}
	}
	return CategorySpec{}, false
}

// Messages returns a message bag for bag, loaded with versions
func (c *Catalog) Messages(bag string, versions []string) *Messages {
	m := &Messages{catalog: c, bag: bag, texts: map[string]string{}}
	m.Reload(versions, true)
	return m
}
