package games

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	base "github.com/fadedpez/gamemaster/internal/games"
	"github.com/fadedpez/gamemaster/pkg/audio"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

// MusicPrefix starts every music tools command
const MusicPrefix = "~"

// songExtension is the framing the player reads
const songExtension = ".dca"

var musicTexts = map[string]string{
	"PLAYING":      "Playing `%s`",
	"BUSY":         "`%s` is playing, add `--force` to replace it",
	"NOT_IN_VOICE": "Join a voice channel first",
	"NO_SONG":      "No song named `%s`",
	"SONGS":        "**Songs**\n%s",
	"NO_SONGS":     "No song available",
	"STOPPED":      "Music stopped",
	"PAUSED":       "Music paused",
	"RESUMED":      "Music resumed",
	"IDLE":         "Nothing is playing",
	"NO_PLAYER":    "Music is not available",
}

// musicTools plays the songs of the songs directory in the voice channel of
// whoever asks.
type musicTools struct {
	commander
}

func newMusicTools(env *base.Env, spec catalog.ListenerSpec) (*listener.Listener, error) {
	if spec.AllowedRoles == nil {
		spec.AllowedRoles = &[]string{"MASTER", "DEV"}
	}
	t := &musicTools{commander: newCommander(env, spec, MusicPrefix)}
	t.commands = t.commandTable()

	opts := base.CommonOptions(env, spec, "music")
	opts = append(opts, listener.WithHooks(listener.Hooks{AnalyzeMessage: t.analyze}))
	t.l = listener.New(spec.Name, opts...)
	t.l.Messages().WithFallback(withCommandTexts(musicTexts))
	t.log = t.l.Logger()
	return t.l, nil
}

func (t *musicTools) commandTable() []toolCommand {
	return []toolCommand{
		{[]string{"help"}, "help", "List the commands", t.cmdHelp},
		{[]string{"play", "play_song"}, "play <song> [--force]", "Play a song in your voice channel", t.withPlayer(t.cmdPlay)},
		{[]string{"songs", "show_songs"}, "songs", "List the songs", t.cmdSongs},
		{[]string{"stop", "stop_song"}, "stop", "Stop the music", t.withPlayer(t.control(audio.Player.Stop, "STOPPED"))},
		{[]string{"pause"}, "pause", "Pause the music", t.withPlayer(t.control(audio.Player.Pause, "PAUSED"))},
		{[]string{"resume"}, "resume", "Resume the music", t.withPlayer(t.control(audio.Player.Resume, "RESUMED"))},
	}
}

type commandFunc = func(ctx context.Context, msg *listener.Message, args []string) error

func (t *musicTools) withPlayer(fn commandFunc) commandFunc {
	return func(ctx context.Context, msg *listener.Message, args []string) error {
		if t.env.Player == nil {
			t.reply(msg, "NO_PLAYER")
			return nil
		}
		return fn(ctx, msg, args)
	}
}

// songPath maps a song name to a file of the songs directory. Directories in
// the name are dropped.
func (t *musicTools) songPath(name string) string {
	name = filepath.Base(name)
	if filepath.Ext(name) == "" {
		name += songExtension
	}
	return filepath.Join(t.env.SongsDir, name)
}

func (t *musicTools) cmdPlay(ctx context.Context, msg *listener.Message, args []string) error {
	var name string
	force := false
	for _, a := range args {
		switch a {
		case "-f", "--force":
			force = true
		default:
			if name != "" {
				return errUsage
			}
			name = a
		}
	}
	if name == "" {
		return errUsage
	}

	source := t.songPath(name)
	if _, err := os.Stat(source); err != nil {
		t.reply(msg, "NO_SONG", name)
		return nil
	}
	channelID, err := t.env.Session.VoiceChannelOf(t.env.GuildID, msg.Author.ID)
	if err != nil || channelID == "" {
		t.reply(msg, "NOT_IN_VOICE")
		return nil
	}

	err = t.env.Player.Play(ctx, t.env.GuildID, channelID, source, force)
	if errors.Is(err, audio.ErrBusy) {
		t.reply(msg, "BUSY", filepath.Base(t.env.Player.LastSource(t.env.GuildID)))
		return nil
	}
	if err != nil {
		return err
	}
	t.log.Info("%s plays %s", msg.Author.ID, source)
	t.reply(msg, "PLAYING", filepath.Base(source))
	return nil
}

func (t *musicTools) cmdSongs(_ context.Context, msg *listener.Message, _ []string) error {
	entries, err := os.ReadDir(t.env.SongsDir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	var songs []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == songExtension {
			songs = append(songs, strings.TrimSuffix(e.Name(), songExtension))
		}
	}
	if len(songs) == 0 {
		t.reply(msg, "NO_SONGS")
		return nil
	}
	sort.Strings(songs)

	var b strings.Builder
	for _, s := range songs {
		fmt.Fprintf(&b, "- `%s`\n", s)
	}
	t.reply(msg, "SONGS", b.String())
	return nil
}

func (t *musicTools) control(fn func(audio.Player, string) error, key string) commandFunc {
	return func(_ context.Context, msg *listener.Message, _ []string) error {
		err := fn(t.env.Player, t.env.GuildID)
		if errors.Is(err, audio.ErrNothingPlaying) {
			t.reply(msg, "IDLE")
			return nil
		}
		if err != nil {
			return err
		}
		t.reply(msg, key)
		return nil
	}
}
