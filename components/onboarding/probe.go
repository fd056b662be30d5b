package onboarding

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultProbeTimeout is how long the simulated handshake waits.
	DefaultProbeTimeout = 3 * time.Second

	ProbeErrorTimeout  = "OCPP_BOOT_TIMEOUT"
	ProbeErrorCanceled = "PROBE_CANCELED"

	defaultSuggestedAction = "Check that the charger is powered on and its OCPP URL and station id match the network step, then retry."
)

// ProbeTarget describes the charger the probe should reach.
type ProbeTarget struct {
	SerialNumber string
	ServerURL    string
	StationID    string
	Attempt      int
}

// ProbeResult is the outcome of one probe attempt.
type ProbeResult struct {
	OK              bool
	ErrorCode       string
	SuggestedAction string
	Timeout         time.Duration
	Err             error
}

// ConnectionProbe checks that a charger reached the central system. Start
// returns a channel that receives exactly one result and is then closed.
// Cancel aborts every pending attempt.
type ConnectionProbe interface {
	Start(ctx context.Context, target ProbeTarget) <-chan ProbeResult
	Cancel()
}

// SimulatedProbe stands in for the device handshake: it waits Timeout, fails
// the first attempt and succeeds afterwards.
type SimulatedProbe struct {
	Timeout time.Duration

	mu       sync.Mutex
	attempts int
	cancel   chan struct{}
}

// NewSimulatedProbe returns a probe that waits timeout per attempt. A
// negative timeout falls back to DefaultProbeTimeout.
func NewSimulatedProbe(timeout time.Duration) *SimulatedProbe {
	if timeout < 0 {
		timeout = DefaultProbeTimeout
	}
	return &SimulatedProbe{Timeout: timeout}
}

// Attempts returns how many probes were started.
func (p *SimulatedProbe) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

func (p *SimulatedProbe) Start(ctx context.Context, target ProbeTarget) <-chan ProbeResult {
	p.mu.Lock()
	p.attempts++
	attempt := p.attempts
	if p.cancel == nil {
		p.cancel = make(chan struct{})
	}
	cancel := p.cancel
	p.mu.Unlock()

	out := make(chan ProbeResult, 1)
	go func() {
		defer close(out)
		timer := time.NewTimer(p.Timeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			out <- ProbeResult{ErrorCode: ProbeErrorCanceled, Timeout: p.Timeout, Err: ctx.Err()}
		case <-cancel:
			out <- ProbeResult{ErrorCode: ProbeErrorCanceled, Timeout: p.Timeout, Err: context.Canceled}
		case <-timer.C:
			if attempt == 1 {
				out <- ProbeResult{ErrorCode: ProbeErrorTimeout, SuggestedAction: defaultSuggestedAction, Timeout: p.Timeout}
				return
			}
			out <- ProbeResult{OK: true, Timeout: p.Timeout}
		}
	}()
	return out
}

func (p *SimulatedProbe) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		close(p.cancel)
		p.cancel = nil
	}
}
