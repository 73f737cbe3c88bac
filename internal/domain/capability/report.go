package capability

import "time"

// Report is a serializable view of a registry.
type Report struct {
	ID           string          `json:"id"`
	State        string          `json:"state"`
	Initialized  bool            `json:"initialized"`
	ReadyAt      *time.Time      `json:"readyAt,omitempty"`
	Pending      int             `json:"pending"`
	Capabilities map[string]any  `json:"capabilities"`
	Audio        map[string]bool `json:"audio,omitempty"`
	Video        map[string]bool `json:"video,omitempty"`
}

// Report snapshots the registry. Media maps are filled only once ready.
func (r *Registry) Report() Report {
	rep := Report{
		ID:           r.id.String(),
		State:        r.state.String(),
		Initialized:  r.initialized,
		Pending:      len(r.pending),
		Capabilities: r.caps.Snapshot(),
	}
	if at, ok := r.ReadyAt(); ok {
		rep.ReadyAt = &at
	}
	if !r.initialized {
		return rep
	}

	rep.Audio = make(map[string]bool, len(AudioKinds))
	for _, kind := range AudioKinds {
		rep.Audio[kind] = r.CanPlayAudio(kind)
	}
	rep.Video = make(map[string]bool, len(VideoKinds))
	for _, kind := range VideoKinds {
		rep.Video[kind] = r.CanPlayVideo(kind)
	}
	return rep
}
