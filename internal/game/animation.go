package game

import (
	"sort"
	"time"
)

// MontagePlayer is the in-repo AnimationCollaborator. It knows clip lengths
// from the catalog and tracks which clips are playing against the world clock;
// actual pose evaluation belongs to the renderer.
type MontagePlayer struct {
	lengths map[string]time.Duration
	now     func() time.Duration
	active  map[string]time.Duration // clip -> end time
}

// NewMontagePlayer creates a player. now is normally Scheduler.Now.
func NewMontagePlayer(lengths map[string]time.Duration, now func() time.Duration) *MontagePlayer {
	return &MontagePlayer{
		lengths: lengths,
		now:     now,
		active:  make(map[string]time.Duration),
	}
}

// PlayMontage starts clip and returns its length. Unknown clips return 0.
func (m *MontagePlayer) PlayMontage(clip string) time.Duration {
	if clip == "" {
		return 0
	}
	d, ok := m.lengths[clip]
	if !ok || d <= 0 {
		return 0
	}
	m.active[clip] = m.now() + d
	return d
}

// StopMontage stops clip if it is playing.
func (m *MontagePlayer) StopMontage(clip string) {
	delete(m.active, clip)
}

// IsPlaying reports whether clip started and has not ended or been stopped.
func (m *MontagePlayer) IsPlaying(clip string) bool {
	end, ok := m.active[clip]
	if !ok {
		return false
	}
	if end <= m.now() {
		delete(m.active, clip)
		return false
	}
	return true
}

// Playing lists the clips still running, sorted.
func (m *MontagePlayer) Playing() []string {
	out := make([]string, 0, len(m.active))
	for clip := range m.active {
		if m.IsPlaying(clip) {
			out = append(out, clip)
		}
	}
	sort.Strings(out)
	return out
}
