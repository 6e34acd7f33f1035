package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/robmorgan/downbeat/rhythm"
)

var (
	idleColor     = colorful.MustParseHex("#3a3a3a")
	tickColor     = colorful.MustParseHex("#5fafff")
	accentColor   = colorful.MustParseHex("#ff5f87")
	countOffColor = colorful.MustParseHex("#ffd75f")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("63")).Padding(0, 1)
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	bannerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(countOffColor.Hex()))
	barStyle      = lipgloss.NewStyle().Padding(0, 1)
	activeBar     = barStyle.Copy().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("63"))
	mutedBarStyle = barStyle.Copy().Strikethrough(true).Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	appStyle      = lipgloss.NewStyle().Margin(1, 2, 0, 2)
)

// minGlow keeps the current beat visible after its flash has faded.
const minGlow = 0.35

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	settings := m.metronome.Settings()
	var b strings.Builder

	transport := dimStyle.Render("■ stopped")
	if m.state.IsPlaying {
		transport = infoStyle.Render("▶ playing")
	}
	fmt.Fprintf(&b, "%s  %s\n\n", titleStyle.Render("downbeat"), transport)

	countOff := "off"
	if settings.CountOffEnabled() {
		countOff = "on"
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf("%d BPM   %s   phrase %d bars   count-off %s",
		settings.BPM(), settings.TimeSignature(), settings.PhraseLength(), countOff)))
	b.WriteString("\n\n")

	if m.state.IsCountingOff {
		b.WriteString(bannerStyle.Render(fmt.Sprintf("COUNT-OFF  %d . %d", m.state.CountOffBar, m.state.CountOffBeat)))
	} else {
		b.WriteString(dimStyle.Render(fmt.Sprintf("position %d.%d", m.state.CurrentBar, m.state.CurrentBeat)))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderBeats(settings))
	b.WriteString("\n\n")
	b.WriteString(m.renderBars(settings))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))

	return appStyle.Render(b.String())
}

// renderBeats draws one dot per beat of the bar. The sounding beat flashes and fades back to its resting glow.
func (m Model) renderBeats(settings *rhythm.Settings) string {
	beats := settings.BeatsPerBar()
	current, active := m.state.CurrentBeat, m.state.IsPlaying && !m.state.IsCountingOff
	if m.state.IsPlaying && m.state.IsCountingOff {
		current, active = m.state.CountOffBeat, true
	}

	dots := make([]string, 0, beats)
	for beat := 1; beat <= beats; beat++ {
		glyph := "●"
		if settings.IsBeatMuted(beat) {
			glyph = "×"
		}

		c := idleColor
		if active && beat == current {
			c = idleColor.BlendLab(beatColor(m.state, beat), m.glow())
		}
		dots = append(dots, lipgloss.NewStyle().Foreground(lipgloss.Color(c.Clamped().Hex())).Render(glyph))
	}
	return strings.Join(dots, " ")
}

// renderBars draws the phrase as a strip of bar numbers.
func (m Model) renderBars(settings *rhythm.Settings) string {
	phrase := settings.PhraseLength()
	cells := make([]string, 0, phrase)
	for bar := 1; bar <= phrase; bar++ {
		style := barStyle
		switch {
		case m.state.IsPlaying && !m.state.IsCountingOff && bar == m.state.CurrentBar:
			style = activeBar
		case settings.IsBarMuted(bar):
			style = mutedBarStyle
		}
		cells = append(cells, style.Render(fmt.Sprintf("%d", bar)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m Model) glow() float64 {
	v := m.pulse.Value(m.now)
	if v < minGlow {
		return minGlow
	}
	return v
}

func beatColor(s rhythm.State, beat int) colorful.Color {
	switch {
	case s.IsCountingOff:
		return countOffColor
	case beat == 1:
		return accentColor
	default:
		return tickColor
	}
}
