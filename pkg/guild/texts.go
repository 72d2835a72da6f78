package guild

// Pending guild panel options
const (
	PendingQuit  = "❌"
	PendingRetry = "🔄"
	PendingForce = "♾️"
)

var pendingOrder = []string{PendingQuit, PendingRetry, PendingForce}

var defaultTexts = map[string]string{
	"UPDATING":          "Updating roles and channels%s...",
	"FORCED":            " (forced update)",
	"UPDATED":           "Roles and channels updated!",
	"UPDATED_ERRORS":    "Roles and channels updated with errors: %s",
	"RELOADING":         "Reloading the game to version(s) `%s`...",
	"RELOADED":          "Game reloaded to version(s) `%s`. Updating the guild is recommended.",
	"RELOAD_FAILED":     "Version(s) `%s` could not be loaded.",
	"READY":             "**Game master ready** (version(s): `%s`)",
	"ALREADY_ELSEWHERE": "The game master is already running in another guild.",
	"PENDING_OPTIONS": "Not available yet. Options:\n" +
		PendingQuit + " leave this guild\n" +
		PendingRetry + " try again\n" +
		PendingForce + " take over, with a password",
	"NOT_AVAILABLE_YET": "Not available yet",
	"LEAVING":           "Leaving guild... Bye!",
	"RETRYING":          "Retrying to add guild...",
	"ADDED":             "Guild added successfully!",
	"ADD_FAILED":        "Guild could not be added: %s",
	"ENTER_PASSWORD":    "Please enter the password to kick the bot from other guilds.",
	"REMOVED_OTHERS":    "The bot was removed from other guilds.",
	"KICKED_OTHERS":     "The bot left the other guilds.",
	"BAD_PASSWORD":      "Bad password! Try again (the button must be pressed again)",
}
