package manager

import "strings"

// Listener menu actions
const (
	ActionPlay   = "▶️"
	ActionPause  = "⏸"
	ActionStop   = "⏹️"
	ActionFinish = "🎉"
	ActionReset  = "🔄"
	ActionSimple = "👶"
)

// SimpleModeIndicator marks a menu whose game runs in simple mode
const SimpleModeIndicator = "🚼"

// Status indicators painted on listener menus
const (
	StatusRunning   = "💚"
	StatusSuspended = "💛"
	StatusStopped   = "❤️"
)

var statusEmojis = []string{StatusRunning, StatusSuspended, StatusStopped}

// Control panel commands
const (
	ControlHelp        = "❓"
	ControlDanger      = "⚠"
	ControlAdminTool   = "🕹️"
	ControlUpdate      = "♻"
	ControlForceUpdate = "🆙"
	ControlCheck       = "✅"
	ControlBoard       = "🆕"
	ControlClean       = "🧹"
	ControlInvite      = "📨"
	ControlVersion     = "🏳️"
	ControlInfinity    = "♾"
	ControlLeave       = "❌"
)

// controlPanelOrder is the order reactions are added to the control panel.
// The infinity command has no line in the panel text.
var controlPanelOrder = []string{
	ControlHelp, ControlDanger, ControlAdminTool, ControlUpdate, ControlForceUpdate,
	ControlCheck, ControlBoard, ControlClean, ControlInvite, ControlVersion,
	ControlInfinity, ControlLeave,
}

var easterEggs = []string{"🦓", "🙈", "🦄", "🐛"}

var emojiNames = map[string]string{
	"play":         ActionPlay,
	"pause":        ActionPause,
	"stop":         ActionStop,
	"finish":       ActionFinish,
	"reset":        ActionReset,
	"simple":       ActionSimple,
	"simple_mode":  SimpleModeIndicator,
	"running":      StatusRunning,
	"suspended":    StatusSuspended,
	"stopped":      StatusStopped,
	"help":         ControlHelp,
	"danger":       ControlDanger,
	"admin_tool":   ControlAdminTool,
	"update":       ControlUpdate,
	"force_update": ControlForceUpdate,
	"check":        ControlCheck,
	"board":        ControlBoard,
	"clean":        ControlClean,
	"invite":       ControlInvite,
	"version":      ControlVersion,
	"leave":        ControlLeave,
}

// expand replaces {name} placeholders with emojis and the extra values
func expand(text string, extra map[string]string) string {
	pairs := make([]string, 0, 2*(len(emojiNames)+len(extra)))
	for k, v := range emojiNames {
		pairs = append(pairs, "{"+k+"}", v)
	}
	for k, v := range extra {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
