package voice

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Player names a playback command and its leading arguments; the
// audio path is appended as the final argument at invocation.
type Player struct {
	Name string
	Args []string
}

// Each probe gets this long before the next candidate is tried.
const playTimeout = 30 * time.Second

// defaultPlayers lists the playback candidates in probe order,
// covering the common Linux and macOS setups.
func defaultPlayers() []Player {
	return []Player{
		{Name: "mpg123"},
		{Name: "afplay"},
		{Name: "vlc", Args: []string{"--intf", "dummy", "--play-and-exit"}},
		{Name: "ffplay", Args: []string{"-nodisp", "-autoexit"}},
	}
}

// play writes audio to a temp file and probes the configured players
// in order, returning nil on the first clean exit. Candidates that
// are not installed, exit nonzero, or exceed playTimeout move the
// probe to the next entry. When the list is exhausted the returned
// error wraps ErrPlayback.
func (c *Client) play(ctx context.Context, audio []byte) error {
	tmp, err := os.CreateTemp("", "jervis_tts_*.mp3")
	if err != nil {
		c.log.Error().Err(err).Msg("failed to stage audio for playback")
		return fmt.Errorf("stage audio: %w", ErrPlayback)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		c.log.Error().Err(err).Msg("failed to stage audio for playback")
		return fmt.Errorf("stage audio: %w", ErrPlayback)
	}
	if err := tmp.Close(); err != nil {
		c.log.Error().Err(err).Msg("failed to stage audio for playback")
		return fmt.Errorf("stage audio: %w", ErrPlayback)
	}

	for _, player := range c.players {
		if _, err := exec.LookPath(player.Name); err != nil {
			continue
		}

		playCtx, cancel := context.WithTimeout(ctx, playTimeout)
		args := append(append([]string{}, player.Args...), path)
		err := exec.CommandContext(playCtx, player.Name, args...).Run()
		cancel()

		if err == nil {
			c.log.Debug().Str("player", player.Name).Msg("audio played")
			return nil
		}
		c.log.Debug().Err(err).Str("player", player.Name).Msg("player failed, trying next")
	}
	return fmt.Errorf("no usable audio player: %w", ErrPlayback)
}
