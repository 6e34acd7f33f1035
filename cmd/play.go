package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robmorgan/downbeat/config"
	"github.com/robmorgan/downbeat/display"
	"github.com/robmorgan/downbeat/display/tui"
	"github.com/robmorgan/downbeat/rhythm"
	"github.com/robmorgan/downbeat/sound"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"
)

type playOptions struct {
	bpm        int
	beats      int
	noteValue  int
	phrase     int
	noCountOff bool
	muteBeats  []int
	muteBars   []int
	preset     string
	headless   bool
	duration   time.Duration
	osc        string
	silent     bool
}

var playOpts playOptions

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run the metronome",
	Long: `Run the metronome in the terminal UI, or headless with --headless.

Flags override the config file. A preset, given by id or name, is applied first and
the mute flags are added on top of it.

Example:
  downbeat play --bpm 96 --beats 3 --phrase 8 --mute-beat 2 --mute-beat 3
  downbeat play --preset "12-Bar Blues" --headless --duration 30s
`,
	RunE: runPlay,
}

func init() {
	flags := playCmd.Flags()
	flags.IntVar(&playOpts.bpm, "bpm", 0, "Tempo in beats per minute (40-300)")
	flags.IntVar(&playOpts.beats, "beats", 0, "Beats per bar")
	flags.IntVar(&playOpts.noteValue, "note-value", 0, "Note value of a beat (2, 4, 8 or 16)")
	flags.IntVar(&playOpts.phrase, "phrase", 0, "Phrase length in bars")
	flags.BoolVar(&playOpts.noCountOff, "no-count-off", false, "Start without the two bar count-off")
	flags.IntSliceVar(&playOpts.muteBeats, "mute-beat", nil, "Beat of the bar to mute (repeatable)")
	flags.IntSliceVar(&playOpts.muteBars, "mute-bar", nil, "Bar of the phrase to mute (repeatable)")
	flags.StringVar(&playOpts.preset, "preset", "", "Preset id or name to apply")
	flags.BoolVar(&playOpts.headless, "headless", false, "Run without the terminal UI, logging every beat")
	flags.DurationVar(&playOpts.duration, "duration", 0, "Stop after this long when headless (0 runs until interrupted)")
	flags.StringVar(&playOpts.osc, "osc", "", "Publish beats to an OSC receiver at host:port")
	flags.BoolVar(&playOpts.silent, "silent", false, "Do not open the audio device")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := cfg.Logger

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	wg := sync.WaitGroup{}

	log.Info("Initializing settings...")
	settings, err := playSettings(cmd, cfg)
	if err != nil {
		return err
	}

	if !playOpts.headless {
		// the alternate screen owns the terminal
		log.SetOutput(io.Discard)
	}

	log.Info("Initializing sound dispatcher...")
	var out sound.Output = sound.NewNullOutput()
	if !playOpts.silent {
		out = sound.NewBeepOutput(cfg.SampleDir)
	}
	dispatcher := sound.NewDispatcher(out, cfg.ActiveSoundKit(), log)

	metronome := rhythm.NewMetronome(settings, rhythm.NewClockScheduler(clock.RealClock{}), dispatcher, log)
	defer metronome.Stop()

	if playOpts.preset != "" {
		p, err := findPreset(cfg, playOpts.preset)
		if err != nil {
			return err
		}
		if err := metronome.ApplyPreset(p); err != nil {
			return err
		}
	}
	if err := applyMuteFlags(settings, playOpts.muteBeats, playOpts.muteBars); err != nil {
		return err
	}

	host, port, err := oscTarget(cfg)
	if err != nil {
		return err
	}
	if host != "" {
		log.Infof("Publishing to OSC receiver at %s:%d...", host, port)
		publisher := display.NewOSCPublisher(display.NewOSCClient(host, port), log)
		detach := publisher.Attach(metronome)
		defer detach()

		wg.Add(1)
		go display.SendStateWorker(ctx, publisher, metronome, cfg.OSC.ResendInterval, clock.RealClock{}, &wg)
	}

	if playOpts.headless {
		err = runHeadless(ctx, metronome, log)
	} else {
		err = tui.Run(metronome, tea.WithAltScreen(), tea.WithContext(ctx))
		if errors.Is(err, tea.ErrProgramKilled) {
			err = nil
		}
	}

	cancel()
	wg.Wait()
	return err
}

// playSettings builds the settings from the config and the flags that were set.
func playSettings(cmd *cobra.Command, cfg config.DownbeatConfig) (*rhythm.Settings, error) {
	settings, err := cfg.NewSettings()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("bpm") {
		if err := settings.SetBPM(playOpts.bpm); err != nil {
			return nil, err
		}
	}
	if flags.Changed("beats") || flags.Changed("note-value") {
		ts := settings.TimeSignature()
		if flags.Changed("beats") {
			ts.Beats = playOpts.beats
		}
		if flags.Changed("note-value") {
			ts.NoteValue = playOpts.noteValue
		}
		if err := settings.SetTimeSignature(ts); err != nil {
			return nil, err
		}
	}
	if flags.Changed("phrase") {
		if err := settings.SetPhraseLength(playOpts.phrase); err != nil {
			return nil, err
		}
	}
	if playOpts.noCountOff {
		settings.SetCountOffEnabled(false)
	}

	return settings, nil
}

// applyMuteFlags mutes the given beats and bars after checking them against the bar and phrase length.
func applyMuteFlags(settings *rhythm.Settings, beats, bars []int) error {
	for _, beat := range beats {
		if beat < 1 || beat > settings.BeatsPerBar() {
			return fmt.Errorf("invalid --mute-beat %d, a bar has beats 1 to %d", beat, settings.BeatsPerBar())
		}
	}
	for _, bar := range bars {
		if bar < 1 || bar > settings.PhraseLength() {
			return fmt.Errorf("invalid --mute-bar %d, the phrase has bars 1 to %d", bar, settings.PhraseLength())
		}
	}

	for _, beat := range beats {
		settings.MuteBeat(beat)
	}
	for _, bar := range bars {
		settings.MuteBar(bar)
	}
	return nil
}

// oscTarget returns the receiver from --osc, falling back to the config. An empty host disables publishing.
func oscTarget(cfg config.DownbeatConfig) (string, int, error) {
	if playOpts.osc == "" {
		if !cfg.OSC.Enabled() {
			return "", 0, nil
		}
		return cfg.OSC.Host, cfg.OSC.Port, nil
	}

	host, portStr, err := net.SplitHostPort(playOpts.osc)
	if err != nil {
		return "", 0, fmt.Errorf("invalid --osc target %q: %w", playOpts.osc, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid --osc port %q", portStr)
	}
	return host, port, nil
}

func runHeadless(ctx context.Context, metronome *rhythm.Metronome, log *logrus.Logger) error {
	unsubscribe := metronome.Subscribe(func(s rhythm.State) {
		if !s.Triggered {
			return
		}
		log.WithFields(logrus.Fields{
			"sound": s.Sound.String(),
			"bpm":   s.BPM,
		}).Info(s.GetMarker())
	})
	defer unsubscribe()

	metronome.Start()

	var timeout <-chan time.Time
	if playOpts.duration > 0 {
		timeout = time.After(playOpts.duration)
	}

	select {
	case <-ctx.Done():
		log.Println("shutting down downbeat")
	case <-timeout:
	}

	metronome.Stop()
	return nil
}
