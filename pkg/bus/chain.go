package bus

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/metrics"
)

// DefaultCapacity is the default bounded channel capacity between stages.
const DefaultCapacity = 64

// Logger is the minimal logging surface bus consumes; satisfied structurally
// by the process logger the entry point configures.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type noOpLogger struct{}

func (noOpLogger) Debug(string, ...interface{}) {}
func (noOpLogger) Info(string, ...interface{})  {}
func (noOpLogger) Warn(string, ...interface{})  {}
func (noOpLogger) Error(string, ...interface{}) {}

// Processor is a named chain stage.
type Processor interface {
	Name() string
	OnStart(ctx context.Context) error
	Process(ctx context.Context, f *Frame) ([]*Frame, error)
	OnStop(ctx context.Context) error
}

// Chain is an ordered list of processors connected by bounded channels.
// Running it spawns one cooperative task per processor; frames flow from
// In() to Out() in order, error frames are emitted and forwarded rather
// than aborting the chain.
type Chain struct {
	processors []Processor
	capacity   int
	logger     Logger
	in         chan *Frame
	out        chan *Frame
}

// Option configures a Chain.
type Option func(*Chain)

// WithCapacity overrides the default per-stage channel capacity.
func WithCapacity(n int) Option {
	return func(c *Chain) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithLogger sets the chain's logger.
func WithLogger(l Logger) Option {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewChain builds a chain over processors in order. An empty chain forwards
// its input to its output unchanged.
func NewChain(processors []Processor, opts ...Option) *Chain {
	c := &Chain{
		processors: processors,
		capacity:   DefaultCapacity,
		logger:     noOpLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.in = make(chan *Frame, c.capacity)
	c.out = make(chan *Frame, c.capacity)
	return c
}

// In returns the chain's input channel.
func (c *Chain) In() chan<- *Frame { return c.in }

// Out returns the chain's output channel.
func (c *Chain) Out() <-chan *Frame { return c.out }

// Run spawns one cooperative task per processor and blocks until every
// stage has terminated (following an end-of-stream frame, a closed input,
// or ctx cancellation). The caller owns ctx's lifetime.
func (c *Chain) Run(ctx context.Context) error {
	if len(c.processors) == 0 {
		return c.runPassthrough(ctx)
	}

	g, ctx := errgroup.WithContext(ctx)

	stageIn := c.in
	for i, p := range c.processors {
		p := p
		in := stageIn
		var stageOut chan *Frame
		if i == len(c.processors)-1 {
			stageOut = c.out
		} else {
			stageOut = make(chan *Frame, c.capacity)
		}
		out := stageOut
		g.Go(func() error {
			return c.runStage(ctx, p, in, out)
		})
		stageIn = stageOut
	}

	return g.Wait()
}

func (c *Chain) runStage(ctx context.Context, p Processor, in <-chan *Frame, out chan<- *Frame) error {
	if err := p.OnStart(ctx); err != nil {
		c.logger.Error("bus: stage on_start failed", "stage", p.Name(), "err", err)
		close(out)
		return err
	}
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			_ = p.OnStop(ctx)
			return ctx.Err()
		case f, ok := <-in:
			if !ok {
				_ = p.OnStop(ctx)
				return nil
			}
			if f.Kind == KindEndOfStream {
				select {
				case out <- f:
				case <-ctx.Done():
					_ = p.OnStop(ctx)
					return ctx.Err()
				}
				_ = p.OnStop(ctx)
				return nil
			}

			start := time.Now()
			emitted, err := p.Process(ctx, f)
			metrics.StageLatencySeconds.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
			if err != nil {
				c.logger.Warn("bus: stage process error", "stage", p.Name(), "err", err)
				errFrame := NewErrorFrame(p.Name(), err.Error(), true)
				select {
				case out <- errFrame:
				case <-ctx.Done():
					_ = p.OnStop(ctx)
					return ctx.Err()
				}
				continue
			}
			for _, ef := range emitted {
				select {
				case out <- ef:
				case <-ctx.Done():
					_ = p.OnStop(ctx)
					return ctx.Err()
				}
			}
		}
	}
}

func (c *Chain) runPassthrough(ctx context.Context) error {
	defer close(c.out)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-c.in:
			if !ok {
				return nil
			}
			select {
			case c.out <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
			if f.Kind == KindEndOfStream {
				return nil
			}
		}
	}
}
