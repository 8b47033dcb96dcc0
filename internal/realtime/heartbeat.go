package realtime

import (
	"context"
	"time"
)

// Heartbeat pings every subscriber on a fixed interval and evicts the
// ones that stop answering. A client is dropped once it misses the
// configured number of consecutive pings, or when its last pong is
// older than interval * (maxMissed + 1).
type Heartbeat struct {
	hub       *Hub
	interval  time.Duration
	maxMissed int
}

func NewHeartbeat(hub *Hub, interval time.Duration, maxMissed int) *Heartbeat {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if maxMissed <= 0 {
		maxMissed = 3
	}
	return &Heartbeat{hub: hub, interval: interval, maxMissed: maxMissed}
}

// Run blocks until the context is cancelled.
func (hb *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(hb.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hb.sweep()
		}
	}
}

func (hb *Heartbeat) sweep() {
	silenceLimit := hb.interval * time.Duration(hb.maxMissed+1)
	now := time.Now()

	hb.hub.mu.Lock()
	var evict []*Client
	var ping []*Client
	for _, set := range hb.hub.clients {
		for client := range set {
			if int(client.missedPings) >= hb.maxMissed || now.Sub(client.lastPong) > silenceLimit {
				evict = append(evict, client)
				continue
			}
			client.missedPings++
			client.pingSeq++
			ping = append(ping, client)
		}
	}
	h := hb.hub
	h.mu.Unlock()

	for _, client := range evict {
		h.log.Debug("evicting silent client", "composition_id", client.compositionID)
		h.unregister(client)
	}
	for _, client := range ping {
		if err := client.send(pingMessage(client.pingSeq)); err != nil {
			h.unregister(client)
		}
	}
}
