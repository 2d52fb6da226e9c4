package trafficlight

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

var ErrAlreadyStarted = errors.New("traffic light is already simulating")

// TrafficLight toggles between red and green in the background and
// publishes each new phase.
type TrafficLight struct {
	name         string
	cycleMin     time.Duration
	cycleMax     time.Duration
	pollInterval time.Duration
	randN        func(n int64) int64

	current atomicPhase
	ch      *Channel[Phase]

	mu          sync.Mutex
	started     bool
	cancel      context.CancelFunc
	done        chan struct{}
	subscribers map[*Channel[Phase]]struct{}
}

func NewTrafficLight(cfg *LightConfig) (*TrafficLight, error) {
	if cfg == nil {
		cfg = &LightConfig{}
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &TrafficLight{
		name:         cfg.Name,
		cycleMin:     cfg.CycleMin,
		cycleMax:     cfg.CycleMax,
		pollInterval: cfg.PollInterval,
		randN:        rand.Int63n,
		ch:           NewChannel[Phase](),
		done:         make(chan struct{}),
		subscribers:  make(map[*Channel[Phase]]struct{}),
	}
	l.current.Store(PhaseRed)
	return l, nil
}

func (l *TrafficLight) Name() string {
	return l.name
}

// CurrentPhase returns the latest committed phase without blocking.
func (l *TrafficLight) CurrentPhase() Phase {
	return l.current.Load()
}

// WaitFor blocks until the light publishes target. Phases published while
// nobody was receiving collapse into the latest one, and concurrent callers
// compete for each published phase.
func (l *TrafficLight) WaitFor(ctx context.Context, target Phase) error {
	for {
		p, err := l.ch.Receive(ctx)
		if err != nil {
			return err
		}
		if p == target {
			return nil
		}
	}
}

func (l *TrafficLight) WaitForGreen(ctx context.Context) error {
	return l.WaitFor(ctx, PhaseGreen)
}

// Subscribe returns a channel that receives every phase change from now on,
// independently of WaitFor callers. Call the returned func to unsubscribe.
func (l *TrafficLight) Subscribe() (*Channel[Phase], func()) {
	ch := NewChannel[Phase]()
	l.mu.Lock()
	l.subscribers[ch] = struct{}{}
	l.mu.Unlock()
	return ch, func() {
		l.mu.Lock()
		delete(l.subscribers, ch)
		l.mu.Unlock()
	}
}

// WaitUntil blocks until the light is at target. It returns at once when
// the light already is, and unlike WaitFor every caller is released by the
// same phase change.
func (l *TrafficLight) WaitUntil(ctx context.Context, target Phase) error {
	ch, unsubscribe := l.Subscribe()
	defer unsubscribe()
	if l.CurrentPhase() == target {
		return nil
	}
	for {
		p, err := ch.Receive(ctx)
		if err != nil {
			return err
		}
		if p == target {
			return nil
		}
	}
}

// Simulate starts the background loop. It runs until ctx is done or Stop is
// called. Only the first call starts a loop.
func (l *TrafficLight) Simulate(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return ErrAlreadyStarted
	}
	l.started = true
	ctx, l.cancel = context.WithCancel(ctx)
	go l.cycleThroughPhases(ctx)
	return nil
}

// Stop cancels the background loop and waits for it to exit.
func (l *TrafficLight) Stop() {
	l.mu.Lock()
	started, cancel := l.started, l.cancel
	l.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-l.done
}

// Done is closed when the background loop has exited.
func (l *TrafficLight) Done() <-chan struct{} {
	return l.done
}

func (l *TrafficLight) cycleThroughPhases(ctx context.Context) {
	defer close(l.done)
	ctx = withLight(ctx, l)

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	lastUpdate := time.Now()
	interval := l.nextInterval()
	newLoggerFromContext(ctx).Debug("simulation started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			newLoggerFromContext(ctx).Debug("simulation stopped")
			return
		case <-ticker.C:
		}
		elapsed := time.Since(lastUpdate)
		if elapsed < interval {
			continue
		}
		from := l.current.Load()
		to := from.Toggle()
		l.current.Store(to)
		l.ch.Send(to)
		l.publish(to)
		lastUpdate = time.Now()

		next := l.nextInterval()
		newLoggerFromContext(ctx).Info("phase changed",
			"from", from.String(),
			"to", to.String(),
			"elapsed", elapsed.String(),
			"next", next.String(),
		)
		interval = next
	}
}

func (l *TrafficLight) publish(p Phase) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subscribers {
		ch.Send(p)
	}
}

// nextInterval draws a cycle duration uniformly from [cycleMin, cycleMax]
// in whole milliseconds.
func (l *TrafficLight) nextInterval() time.Duration {
	steps := int64((l.cycleMax - l.cycleMin) / time.Millisecond)
	if steps <= 0 {
		return l.cycleMin
	}
	return l.cycleMin + time.Duration(l.randN(steps+1))*time.Millisecond
}
