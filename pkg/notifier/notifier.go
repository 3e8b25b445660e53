package notifier

import (
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Notification tags form a fixed closed set; unknown tags are no-ops.
const (
	TagAddMode     = "add_mode"
	TagRemoveMode  = "remove_mode"
	TagItemRemoved = "item_removed"
	TagSingleMode  = "single_mode"
	TagMultiMode   = "multi_mode"
	TagAddedOne    = "added_one"
	TagAddedMany   = "added_many"
	TagRemovedOne  = "removed_one"
	TagRemovedMany = "removed_many"
)

var validTags = map[string]struct{}{
	TagAddMode: {}, TagRemoveMode: {}, TagItemRemoved: {},
	TagSingleMode: {}, TagMultiMode: {},
	TagAddedOne: {}, TagAddedMany: {},
	TagRemovedOne: {}, TagRemovedMany: {},
}

// Notifier dispatches fire-and-forget feedback events keyed by tag. Callers
// must never block on or observe the outcome.
type Notifier interface {
	Notify(tag string)
}

// AudioNotifier plays a configured audio asset per tag through whichever
// local player binary is available. Every failure is swallowed and logged;
// missing assets are silently ignored.
type AudioNotifier struct {
	sounds map[string]string
	logger *zap.Logger
}

// NewAudioNotifier wires an audio notifier from a tag-to-path map.
func NewAudioNotifier(sounds map[string]string, logger *zap.Logger) *AudioNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sounds == nil {
		sounds = map[string]string{}
	}
	return &AudioNotifier{sounds: sounds, logger: logger}
}

// Notify schedules playback for a known tag on a detached goroutine and
// returns immediately.
func (n *AudioNotifier) Notify(tag string) {
	if _, ok := validTags[tag]; !ok {
		return
	}
	go n.play(tag)
}

func (n *AudioNotifier) play(tag string) {
	path := n.sounds[tag]
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	name, args := pickPlayer(path)
	if name == "" {
		n.logger.Warn("no audio player available", zap.String("tag", tag))
		return
	}

	cmd := exec.Command(name, append(args, path)...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		n.logger.Debug("audio playback failed",
			zap.String("tag", tag),
			zap.String("player", name),
			zap.Error(err))
	}
}

// pickPlayer probes the host for a usable playback binary, preferring mpv.
// aplay only handles WAV input.
func pickPlayer(path string) (string, []string) {
	candidates := []struct {
		name string
		args []string
	}{
		{"mpv", []string{"--no-video", "--volume=80"}},
		{"mplayer", []string{"-really-quiet", "-volume", "80"}},
		{"paplay", nil},
		{"aplay", nil},
	}

	for _, candidate := range candidates {
		if candidate.name == "aplay" && !strings.HasSuffix(strings.ToLower(path), ".wav") {
			continue
		}
		if _, err := exec.LookPath(candidate.name); err == nil {
			return candidate.name, candidate.args
		}
	}

	return "", nil
}
