package catalog

import "sync"

// Directory maps catalog keys to the platform ids of one guild.
type Directory struct {
	mu       sync.RWMutex
	roles    map[string]string
	channels map[string]string
}

// NewDirectory creates an empty directory
func NewDirectory() *Directory {
	return &Directory{
		roles:    map[string]string{},
		channels: map[string]string{},
	}
}

// SetRole records the id of the role declared under key
func (d *Directory) SetRole(key, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles[key] = id
}

// SetChannel records the id of the channel or category declared under key
func (d *Directory) SetChannel(key, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[key] = id
}

// RoleID resolves a role reference: a catalog key or a raw id
func (d *Directory) RoleID(ref string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return resolve(d.roles, ref)
}

// ChannelID resolves a channel reference: a catalog key or a raw id
func (d *Directory) ChannelID(ref string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return resolve(d.channels, ref)
}

// ChannelKey returns the key a channel id was recorded under
func (d *Directory) ChannelKey(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for k, v := range d.channels {
		if v == id {
			return k, true
		}
	}
	return "", false
}

// Channels returns a copy of the channel mapping
func (d *Directory) Channels() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return copyMap(d.channels)
}

// Roles returns a copy of the role mapping
func (d *Directory) Roles() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return copyMap(d.roles)
}

// Reset forgets every mapping
func (d *Directory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles = map[string]string{}
	d.channels = map[string]string{}
}

func resolve(m map[string]string, ref string) (string, bool) {
	if id, ok := m[ref]; ok {
		return id, true
	}
	if isSnowflake(ref) {
		return ref, true
	}
	return "", false
}

func isSnowflake(s string) bool {
	if len(s) < 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
