package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/san-kum/placesim/internal/dataset"
	"github.com/san-kum/placesim/internal/placement"
	"github.com/san-kum/placesim/internal/sim"
	"github.com/san-kum/placesim/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrRunInProgress = errors.New("simulation already running")
	ErrNoResults     = errors.New("no simulation results available")
)

// State is the lifecycle position of the runner.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateError     State = "error"
)

// Terminal reports whether a run in this state has ended.
func (s State) Terminal() bool { return s == StateCompleted || s == StateError }

// Status is the progress object polled by clients.
type Status struct {
	Status   State  `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
}

// Loader produces the dataset for a run.
type Loader func(ctx context.Context) (*dataset.Dataset, error)

// RunSaver persists completed runs.
type RunSaver interface {
	Save(ctx context.Context, run storage.Run) (string, error)
}

// Completed is the most recent successful run.
type Completed struct {
	RunID       string
	Config      sim.Config
	Fingerprint string
	FinishedAt  time.Time
	Result      *sim.Result
}

// Runner executes one simulation at a time in the background and tracks its
// progress: idle, running, then completed or error.
type Runner struct {
	load       Loader
	saver      RunSaver
	tracer     trace.Tracer
	onComplete func(*Completed)

	mu     sync.Mutex
	status Status
	last   *Completed
	done   chan struct{}
	cancel context.CancelFunc
	subs   map[chan Status]struct{}
}

// NewRunner creates an idle runner. saver may be nil.
func NewRunner(load Loader, saver RunSaver) *Runner {
	done := make(chan struct{})
	close(done)
	return &Runner{
		load:   load,
		saver:  saver,
		tracer: otel.Tracer("github.com/san-kum/placesim/internal/api"),
		status: Status{Status: StateIdle},
		done:   done,
		subs:   make(map[chan Status]struct{}),
	}
}

// OnComplete registers a hook called after each successful run.
func (r *Runner) OnComplete(fn func(*Completed)) {
	r.mu.Lock()
	r.onComplete = fn
	r.mu.Unlock()
}

// Start launches a run. ctx bounds the run itself, not the call.
func (r *Runner) Start(ctx context.Context, cfg sim.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Status == StateRunning {
		return ErrRunInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.setLocked(Status{Status: StateRunning, Progress: 0, Message: "Initializing simulation..."})

	go r.execute(ctx, cancel, cfg, r.done)
	return nil
}

func (r *Runner) execute(ctx context.Context, cancel context.CancelFunc, cfg sim.Config, done chan struct{}) {
	defer close(done)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "simulation.run", trace.WithAttributes(
		attribute.Int64("placesim.random_seed", cfg.RandomSeed),
		attribute.Float64("placesim.p_opt_out", cfg.POptOut),
	))
	defer span.End()

	completed, err := r.simulate(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("simulation failed seed=%d err=%v", cfg.RandomSeed, err)
		r.set(Status{Status: StateError, Progress: 0, Message: "Error: " + err.Error()})
		return
	}
	span.SetAttributes(
		attribute.String("placesim.run_id", completed.RunID),
		attribute.Int("placesim.placed", completed.Result.Count(placement.StatusPlaced)),
	)

	r.mu.Lock()
	r.last = completed
	hook := r.onComplete
	r.mu.Unlock()
	if hook != nil {
		hook(completed)
	}
	log.Printf("simulation completed seed=%d run_id=%s placed=%d", cfg.RandomSeed, completed.RunID, completed.Result.Count(placement.StatusPlaced))
	r.set(Status{Status: StateCompleted, Progress: 100, Message: "Simulation completed successfully!", RunID: completed.RunID})
}

// simulate turns a panic anywhere in the run into an error so the runner
// always reaches a terminal state.
func (r *Runner) simulate(ctx context.Context, cfg sim.Config) (c *Completed, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("simulation panicked: %v", p)
		}
	}()

	r.set(Status{Status: StateRunning, Progress: 10, Message: "Loading data..."})
	data, err := r.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}

	r.set(Status{Status: StateRunning, Progress: 20, Message: "Initializing simulation..."})
	eng, err := sim.New(data, cfg)
	if err != nil {
		return nil, err
	}
	eng.AddObserver(sim.ObserverFunc(func(msg string, fraction float64) {
		r.set(Status{Status: StateRunning, Progress: 30 + int(fraction*60), Message: msg})
	}))

	res, err := eng.Run(ctx)
	if err != nil {
		return nil, err
	}

	c = &Completed{
		Config:      cfg,
		Fingerprint: data.Fingerprint,
		FinishedAt:  time.Now().UTC(),
		Result:      res,
	}
	if r.saver != nil {
		id, err := r.saver.Save(ctx, storage.Run{
			Name:        "api",
			CreatedAt:   c.FinishedAt,
			Config:      cfg,
			Fingerprint: data.Fingerprint,
			Result:      res,
		})
		if err != nil {
			log.Printf("save run failed err=%v", err)
		} else {
			c.RunID = id
		}
	}
	return c, nil
}

// Status returns the current progress.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Latest returns the last successful run, or ErrNoResults.
func (r *Runner) Latest() (*Completed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil, ErrNoResults
	}
	return r.last, nil
}

// Wait blocks until the active run, if any, has ended.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the active run and waits for it.
func (r *Runner) Close() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	_ = r.Wait(context.Background())
}

// Subscribe streams status changes, starting with the current one. The
// returned func must be called to release the subscription.
func (r *Runner) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 16)
	r.mu.Lock()
	r.subs[ch] = struct{}{}
	ch <- r.status
	r.mu.Unlock()
	return ch, func() {
		r.mu.Lock()
		delete(r.subs, ch)
		r.mu.Unlock()
	}
}

func (r *Runner) set(st Status) {
	r.mu.Lock()
	r.setLocked(st)
	r.mu.Unlock()
}

func (r *Runner) setLocked(st Status) {
	r.status = st
	for ch := range r.subs {
		select {
		case ch <- st:
		default:
			// slow reader: drop its oldest update so the latest always lands
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
