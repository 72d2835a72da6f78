package manager

var defaultTexts = map[string]string{
	"HELP": "*Help for the administrator {dev} and the game masters {master}*\n**Tips**\n" +
		"- To run a control panel action again, remove your reaction and react again.\n" +
		"- On a new server, update it ({update}) and clean it if needed ({danger} then {clean}).\n" +
		"- Open the game board ({board}) then start the games in the planned order. " +
		"Channel games must be started globally and then in each channel.",
	"CONTROL_PANEL": "**==================== [version(s): {versions}] ====================**\n" +
		"**Control panel**\n" +
		"{help} : Help\n" +
		"{admin_tool} : Show the administration tools\n" +
		"{update} : Update the server (roles, channels, properties)\n" +
		"{force_update} : Update and delete extra channels and roles\n" +
		"{check} : Check the server is ready\n" +
		"{board} : Check the server and open a new game board. With {danger}, open it anyway\n" +
		"{clean} : With {danger}, clean every game channel\n" +
		"{invite} : Create an invite (30 uses, 3 hours). With {danger}, publish it on the website. " +
		"{danger} + removing the reaction deletes it from the website\n" +
		"{version} : Change the game version, with {danger}\n" +
		"{leave} : Make the bot leave the server, with {danger}",
	"GAME_BOARD_INTRO": "Don't forget to get the {master} role!\n**Board**\n" +
		"{play} : add reaction = start\n" +
		"{pause} : add reaction = suspend / remove reaction = unsuspend\n" +
		"{stop} : add reaction = stop\n" +
		"{finish} : end the game as if it was won\n" +
		"{reset} : reset the channel game\n" +
		"{simple} : simple mode ({simple_mode} when on)\n" +
		"{running} : running / {suspended} : suspended / {stopped} : stopped",
	"LISTENER_TITLE":   "---------------\n**%s**",
	"CHANNEL_TITLE":    "**[%s]** <#%s>",
	"DANGER_REQUIRED":  "The {danger} emoji must be pressed first!",
	"GUILD_OK":         "**Server OK ✅**",
	"GUILD_NOT_OK":     "**Server NOT OK 📛**\n%s",
	"ADMIN_GRANTED":    "💪",
	"INVITE":           "Invite link (30 uses, valid 3 hours): %s",
	"INVITE_PUBLISHED": "Invite published on the website.",
	"INVITE_DELETED":   "Invite removed from the website.",
	"CHANGE_VERSION":   "Which version do you want? After the change, {force_update} is highly recommended.\n%s",
	"VERSION_CHANGED":  "Changed to %s. Now update with {force_update}",
	"LEAVING":          "Bot is leaving the server!",
	"UPDATE_FAILED":    "Update failed for: %s",
	"UPDATE_DONE":      "Server updated ✅",
}
