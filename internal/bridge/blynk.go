// Package bridge mirrors the dashboard state to a Blynk-style IoT cloud by
// writing virtual pins over its HTTP API.
package bridge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"aquariumd/pkg/types"
)

// Virtual pin assignments on the cloud dashboard.
const (
	pinAmmonia    = 0
	pinNitrite    = 1
	pinNitrate    = 2
	pinPH         = 3
	pinHoursFeed  = 4
	pinDaysClean  = 5
	pinMood       = 6
	pinAdviceText = 7
)

const (
	defaultSyncInterval = 30 * time.Second
	// defaultPace spaces pin writes out so the cloud endpoint's per-second
	// rate limit is never hit.
	defaultPace = 100 * time.Millisecond
)

// Config holds cloud bridge settings.
type Config struct {
	// Server is the cloud API host, e.g. "blynk.cloud". A scheme may be
	// included; https is assumed otherwise.
	Server string
	// Token authenticates the device.
	Token string
	// SyncInterval is how often the latest snapshot is pushed.
	SyncInterval time.Duration
	// Pace is the delay between individual pin writes within one sync.
	Pace time.Duration
}

// Publisher is a dashboard snapshot sink that pushes the most recent
// snapshot to the cloud on a fixed cadence. Publish never blocks: it only
// replaces the pending snapshot, and the sync loop does the network work.
type Publisher struct {
	baseURL      string
	token        string
	httpc        *http.Client
	syncInterval time.Duration
	pace         time.Duration
	log          zerolog.Logger

	mu      sync.Mutex
	latest  types.Snapshot
	hasSnap bool
	advice  string
}

func New(cfg Config, log zerolog.Logger) *Publisher {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaultSyncInterval
	}
	if cfg.Pace <= 0 {
		cfg.Pace = defaultPace
	}
	base := cfg.Server
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return &Publisher{
		baseURL:      strings.TrimRight(base, "/") + "/external/api/update",
		token:        cfg.Token,
		httpc:        &http.Client{Timeout: 5 * time.Second},
		syncInterval: cfg.SyncInterval,
		pace:         cfg.Pace,
		log:          log.With().Str("component", "bridge").Logger(),
	}
}

// Publish stores the snapshot for the next sync. Implements the dashboard
// snapshot sink contract: latest wins, never blocks.
func (p *Publisher) Publish(snap types.Snapshot) {
	p.mu.Lock()
	p.latest = snap
	p.hasSnap = true
	p.mu.Unlock()
}

// SetAdvice updates the advice text mirrored to the cloud.
func (p *Publisher) SetAdvice(text string) {
	p.mu.Lock()
	p.advice = text
	p.mu.Unlock()
}

// Run pushes the latest snapshot every sync interval until ctx is canceled.
func (p *Publisher) Run(ctx context.Context) {
	t := time.NewTicker(p.syncInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.syncOnce(ctx)
		}
	}
}

func (p *Publisher) syncOnce(ctx context.Context) {
	p.mu.Lock()
	snap, ok := p.latest, p.hasSnap
	advice := p.advice
	p.mu.Unlock()
	if !ok {
		return
	}

	writes := []struct {
		pin   int
		value string
	}{
		{pinAmmonia, strconv.FormatFloat(snap.Params.AmmoniaPPM, 'f', 2, 64)},
		{pinNitrite, strconv.FormatFloat(snap.Params.NitritePPM, 'f', 2, 64)},
		{pinNitrate, strconv.FormatFloat(snap.Params.NitratePPM, 'f', 1, 64)},
		{pinPH, strconv.FormatFloat(snap.Params.PH, 'f', 2, 64)},
		{pinHoursFeed, strconv.FormatFloat(float64(snap.SecondsSinceFeed)/3600, 'f', 1, 64)},
		{pinDaysClean, strconv.FormatFloat(float64(snap.SecondsSinceClean)/86400, 'f', 1, 64)},
		{pinMood, snap.Mood.Category.String()},
	}
	if advice != "" {
		writes = append(writes, struct {
			pin   int
			value string
		}{pinAdviceText, advice})
	}

	for i, w := range writes {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.pace):
			}
		}
		if err := p.writePin(ctx, w.pin, w.value); err != nil {
			bridgeUpdates.WithLabelValues("error").Inc()
			p.log.Warn().Int("pin", w.pin).Err(err).Msg("pin write failed")
			continue
		}
		bridgeUpdates.WithLabelValues("ok").Inc()
	}
}

func (p *Publisher) writePin(ctx context.Context, pin int, value string) error {
	u := fmt.Sprintf("%s?token=%s&V%d=%s", p.baseURL, url.QueryEscape(p.token), pin, url.QueryEscape(value))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 256))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cloud returned %d", resp.StatusCode)
	}
	return nil
}
