package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/robmorgan/downbeat/config"
	"github.com/robmorgan/downbeat/preset"
	"github.com/robmorgan/downbeat/rhythm"
	"github.com/spf13/cobra"
)

type addPresetOptions struct {
	name        string
	bpm         int
	beats       int
	noteValue   int
	sections    []string
	interactive bool
}

var addOpts addPresetOptions

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage song form presets",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in forms and saved presets",
	Args:  cobra.NoArgs,
	RunE:  runPresetsList,
}

var presetsShowCmd = &cobra.Command{
	Use:   "show ID|NAME",
	Short: "Show the sections of a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsShow,
}

var presetsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a new preset",
	Long: `Save a new preset. Sections are given in order as name:bars, with an optional
":muted" suffix for sections to play silently.

Example:
  downbeat presets add --name "Rhythm Changes" --bpm 180 --section A:8 --section A:8 --section B:8 --section A:8
  downbeat presets add --interactive
`,
	Args: cobra.NoArgs,
	RunE: runPresetsAdd,
}

var presetsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a saved preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsDelete,
}

func init() {
	flags := presetsAddCmd.Flags()
	flags.StringVar(&addOpts.name, "name", "", "Preset name")
	flags.IntVar(&addOpts.bpm, "bpm", rhythm.DefaultBPM, "Tempo in beats per minute")
	flags.IntVar(&addOpts.beats, "beats", 4, "Beats per bar")
	flags.IntVar(&addOpts.noteValue, "note-value", 4, "Note value of a beat")
	flags.StringArrayVar(&addOpts.sections, "section", nil, "Section as name:bars[:muted] (repeatable, in order)")
	flags.BoolVarP(&addOpts.interactive, "interactive", "i", false, "Fill in the preset with a form")

	presetsCmd.AddCommand(presetsListCmd, presetsShowCmd, presetsAddCmd, presetsDeleteCmd)
	rootCmd.AddCommand(presetsCmd)
}

func openStore(cfg config.DownbeatConfig) (*preset.SQLiteStore, error) {
	store, err := preset.OpenSQLiteStore(cfg.PresetDB)
	if err != nil {
		return nil, fmt.Errorf("opening preset database %s: %w", cfg.PresetDB, err)
	}
	return store, nil
}

// findPreset resolves ref against the built-in forms, then the saved presets by id and by name.
func findPreset(cfg config.DownbeatConfig, ref string) (rhythm.FormPreset, error) {
	if form, ok := config.FindStandardForm(ref); ok {
		return form, nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return rhythm.FormPreset{}, err
	}
	defer store.Close()

	return lookupPreset(store, ref)
}

func lookupPreset(store preset.Store, ref string) (rhythm.FormPreset, error) {
	p, err := store.Get(ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, preset.ErrNotFound) {
		return p, err
	}

	presets, err := store.List()
	if err != nil {
		return rhythm.FormPreset{}, err
	}
	for _, p := range presets {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return rhythm.FormPreset{}, fmt.Errorf("%w: %s", preset.ErrNotFound, ref)
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := store.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFORM\tBARS\tSAVED")
	for _, p := range config.StandardForms() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Summary(), p.TotalBars(), "built-in")
	}
	for _, p := range saved {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Summary(), p.TotalBars(), humanize.Time(p.Timestamp))
	}
	return w.Flush()
}

func runPresetsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := findPreset(cfg, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n%s, %d bars\n\n", p.Name, p.ID, p.Summary(), p.TotalBars())
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SECTION\tBARS\t")
	start := 1
	for _, section := range p.Structure {
		end := start + section.BarCount - 1
		muted := ""
		if section.IsMuted {
			muted = "muted"
		}
		fmt.Fprintf(w, "%s\t%d-%d\t%s\n", section.Name, start, end, muted)
		start = end + 1
	}
	return w.Flush()
}

func runPresetsAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := rhythm.FormPreset{
		Name:          addOpts.name,
		BPM:           addOpts.bpm,
		TimeSignature: rhythm.TimeSignature{Beats: addOpts.beats, NoteValue: addOpts.noteValue},
	}
	if addOpts.interactive {
		if err := runPresetForm(&p); err != nil {
			return err
		}
	} else {
		p.Structure, err = parseSections(addOpts.sections)
		if err != nil {
			return err
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	created, err := store.Create(p)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %q (%s)\n", created.Name, created.ID)
	return nil
}

func runPresetsDelete(cmd *cobra.Command, args []string) error {
	if _, ok := config.FindStandardForm(args[0]); ok {
		return fmt.Errorf("%s is a built-in form and cannot be deleted", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %s\n", args[0])
	return nil
}

func parseSections(values []string) ([]rhythm.PhraseSection, error) {
	sections := make([]rhythm.PhraseSection, 0, len(values))
	for _, value := range values {
		section, err := parseSection(value)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// parseSection reads "name:bars" or "name:bars:muted".
func parseSection(value string) (rhythm.PhraseSection, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return rhythm.PhraseSection{}, fmt.Errorf("invalid section %q, want name:bars[:muted]", value)
	}

	bars, err := strconv.Atoi(parts[1])
	if err != nil {
		return rhythm.PhraseSection{}, fmt.Errorf("invalid bar count in section %q: %w", value, err)
	}

	section := rhythm.PhraseSection{Name: parts[0], BarCount: bars}
	if len(parts) == 3 {
		if parts[2] != "muted" {
			return rhythm.PhraseSection{}, fmt.Errorf("invalid section %q, the only flag is \"muted\"", value)
		}
		section.IsMuted = true
	}
	return section, nil
}
