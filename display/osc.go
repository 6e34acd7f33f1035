// Package display publishes the metronome position to things that show it: OSC receivers and the terminal UI.
package display

import (
	"sync"

	"github.com/hypebeast/go-osc/osc"
	"github.com/robmorgan/downbeat/rhythm"
	"github.com/sirupsen/logrus"
)

const (
	// AddressBeat carries [bar beat sound] for every regular tick
	AddressBeat = "/downbeat/beat"
	// AddressCountOff carries [bar beat] for every count-off tick
	AddressCountOff = "/downbeat/countoff"
	// AddressTransport carries [playing] whenever the metronome starts or stops
	AddressTransport = "/downbeat/transport"
)

// OSCClient is the interface for sending packets to an OSC receiver
type OSCClient interface {
	Send(packet osc.Packet) error
}

// NewOSCClient returns a UDP client for the receiver at host:port.
func NewOSCClient(host string, port int) *osc.Client {
	return osc.NewClient(host, port)
}

// StateSource is anything that can report the current metronome state.
type StateSource interface {
	Snapshot() rhythm.State
}

// Subscriber delivers metronome states as they happen.
type Subscriber interface {
	Subscribe(fn func(rhythm.State)) func()
}

// OSCPublisher mirrors the metronome on an OSC receiver, e.g. a lighting desk or a stage display.
type OSCPublisher struct {
	mu     sync.Mutex
	client OSCClient
	logger *logrus.Logger

	sentTransport bool
	playing       bool
}

func NewOSCPublisher(client OSCClient, logger *logrus.Logger) *OSCPublisher {
	if logger == nil {
		logger = logrus.New()
	}
	return &OSCPublisher{client: client, logger: logger}
}

// Attach publishes every state of s until the returned func is called.
func (p *OSCPublisher) Attach(s Subscriber) func() {
	return s.Subscribe(p.Publish)
}

// Publish sends a transport message when playback starts or stops, and a position message for every tick.
func (p *OSCPublisher) Publish(s rhythm.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.sentTransport || s.IsPlaying != p.playing {
		p.sendTransport(s.IsPlaying)
	}
	if s.Triggered {
		p.sendPosition(s)
	}
}

// Resend repeats the transport and the last position for receivers that joined late.
func (p *OSCPublisher) Resend(s rhythm.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sendTransport(s.IsPlaying)
	if s.IsPlaying && s.Tick > 0 {
		p.sendPosition(s)
	}
}

func (p *OSCPublisher) sendTransport(playing bool) {
	p.sentTransport = true
	p.playing = playing
	p.send(osc.NewMessage(AddressTransport, playing))
}

func (p *OSCPublisher) sendPosition(s rhythm.State) {
	if s.IsCountingOff {
		p.send(osc.NewMessage(AddressCountOff, int32(s.CountOffBar), int32(s.CountOffBeat)))
		return
	}
	p.send(osc.NewMessage(AddressBeat, int32(s.CurrentBar), int32(s.CurrentBeat), s.Sound.String()))
}

func (p *OSCPublisher) send(msg *osc.Message) {
	if err := p.client.Send(msg); err != nil {
		p.logger.WithField("address", msg.Address).Warnf("Failed to send OSC message: %v", err)
	}
}
