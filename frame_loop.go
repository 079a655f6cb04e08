package drivershim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// FrameFunc is called once per frame tick. Return nil for success, error for
// failure.
type FrameFunc func(ctx context.Context) error

// FrameLoopStatus is a snapshot of the loop's health counters.
type FrameLoopStatus struct {
	IsRunning           bool      `json:"is_running"`
	LastFrameTime       time.Time `json:"last_frame_time,omitempty"`
	LastErrorTime       time.Time `json:"last_error_time,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	TotalFrames         int64     `json:"total_frames"`
	TotalFailures       int64     `json:"total_failures"`
}

// FrameLoopOptions configures a FrameLoop.
type FrameLoopOptions struct {
	Logger Logger

	// OnError callback when a frame fails.
	OnError func(err error)
}

// FrameLoop drives a provider's per-frame work on a fixed interval, standing
// in for the host's own frame thread. The settings-changed event that
// triggers reconfiguration is delivered through the FrameFunc it runs.
type FrameLoop struct {
	interval time.Duration
	frameFn  FrameFunc
	opts     FrameLoopOptions

	mu                  sync.RWMutex
	running             atomic.Bool
	lastFrameTime       time.Time
	lastErrorTime       time.Time
	lastError           error
	consecutiveFailures int
	totalFrames         int64
	totalFailures       int64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewFrameLoop creates a frame loop with the given interval and frame function.
func NewFrameLoop(interval time.Duration, frameFn FrameFunc, opts FrameLoopOptions) *FrameLoop {
	if interval <= 0 {
		interval = 11 * time.Millisecond
	}
	return &FrameLoop{
		interval: interval,
		frameFn:  frameFn,
		opts:     opts,
		stopCh:   make(chan struct{}),
	}
}

// ForProvider builds a frame loop pumping the given provider.
func ForProvider(interval time.Duration, provider DeviceProvider, opts FrameLoopOptions) *FrameLoop {
	return NewFrameLoop(interval, func(context.Context) error {
		provider.RunFrame()
		return nil
	}, opts)
}

// Start begins the loop.
func (l *FrameLoop) Start(ctx context.Context) {
	if l.running.Swap(true) {
		return // Already running
	}

	l.stopCh = make(chan struct{})
	l.wg.Add(1)
	go l.loop(ctx)
}

// Stop stops the loop and waits for the current frame to finish.
func (l *FrameLoop) Stop() {
	if !l.running.Swap(false) {
		return // Not running
	}
	close(l.stopCh)
	l.wg.Wait()
}

// IsRunning reports whether the loop is active.
func (l *FrameLoop) IsRunning() bool { return l.running.Load() }

// Status returns the current loop status.
func (l *FrameLoop) Status() FrameLoopStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	status := FrameLoopStatus{
		IsRunning:           l.running.Load(),
		LastFrameTime:       l.lastFrameTime,
		LastErrorTime:       l.lastErrorTime,
		ConsecutiveFailures: l.consecutiveFailures,
		TotalFrames:         l.totalFrames,
		TotalFailures:       l.totalFailures,
	}
	if l.lastError != nil {
		status.LastError = l.lastError.Error()
	}
	return status
}

// RunOnce executes a single frame synchronously, for callers driving the
// cadence themselves.
func (l *FrameLoop) RunOnce(ctx context.Context) {
	l.doFrame(ctx)
}

func (l *FrameLoop) loop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.doFrame(ctx)
		case <-l.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (l *FrameLoop) doFrame(ctx context.Context) {
	l.mu.Lock()
	l.lastFrameTime = time.Now()
	l.totalFrames++
	l.mu.Unlock()

	err := l.frameFn(ctx)

	l.mu.Lock()
	if err != nil {
		l.lastError = err
		l.lastErrorTime = time.Now()
		l.consecutiveFailures++
		l.totalFailures++
		failures := l.consecutiveFailures
		l.mu.Unlock()

		if l.opts.Logger != nil {
			l.opts.Logger.Error("frame failed", "error", err, "consecutive_failures", failures)
		}
		if l.opts.OnError != nil {
			l.opts.OnError(err)
		}
		return
	}
	l.lastError = nil
	l.consecutiveFailures = 0
	l.mu.Unlock()
}
