package tui

import "github.com/charmbracelet/bubbles/key"

// barMuteKeys are the shifted digits 1-9 on a US keyboard.
const barMuteKeys = "!@#$%^&*("

type keyMap struct {
	Play          key.Binding
	FasterBPM     key.Binding
	SlowerBPM     key.Binding
	LongerPhrase  key.Binding
	ShorterPhrase key.Binding
	TimeSignature key.Binding
	CountOff      key.Binding
	MuteBeat      key.Binding
	MuteBar       key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func newBinding(help string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
}

func defaultKeyMap() keyMap {
	return keyMap{
		Play:          newBinding("play/stop", " "),
		FasterBPM:     newBinding("bpm +5", "+", "="),
		SlowerBPM:     newBinding("bpm -5", "-", "_"),
		LongerPhrase:  newBinding("phrase +1", "]"),
		ShorterPhrase: newBinding("phrase -1", "["),
		TimeSignature: newBinding("time signature", "t"),
		CountOff:      newBinding("count-off", "c"),
		MuteBeat: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "mute beat"),
		),
		MuteBar: key.NewBinding(
			key.WithKeys("!", "@", "#", "$", "%", "^", "&", "*", "("),
			key.WithHelp("shift+1-9", "mute bar"),
		),
		Help: newBinding("help", "?"),
		Quit: newBinding("quit", "q", "ctrl+c"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.FasterBPM, k.SlowerBPM, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.FasterBPM, k.SlowerBPM, k.LongerPhrase, k.ShorterPhrase},
		{k.TimeSignature, k.CountOff, k.MuteBeat, k.MuteBar},
		{k.Help, k.Quit},
	}
}
