package lessonplayer

import "github.com/llehouerou/k12listen/internal/playback"

const cueBufferSize = 16

// CueChange reports a new active cue index (-1 when none).
type CueChange struct {
	Index int
}

// Subscription adds subtitle events to the engine's event channels.
// Sends never block: events are dropped when a buffer is full.
type Subscription struct {
	*playback.Subscription
	CueChanged <-chan CueChange

	cueCh chan CueChange
}

// Subscribe returns a new subscription. Its Done channel closes with the Player.
func (p *Player) Subscribe() *Subscription {
	cueCh := make(chan CueChange, cueBufferSize)
	sub := &Subscription{
		Subscription: p.engine.Subscribe(),
		CueChanged:   cueCh,
		cueCh:        cueCh,
	}

	p.mu.Lock()
	if !p.closed {
		p.subs = append(p.subs, sub)
	}
	p.mu.Unlock()
	return sub
}

func (p *Player) publishCue(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.subs {
		select {
		case s.cueCh <- CueChange{Index: idx}:
		default:
		}
	}
}
