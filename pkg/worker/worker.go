package worker

import (
	"context"
	"sync"

	"github.com/VladPetriv/botapi/pkg/logger"
)

type job[T any] struct {
	ID   string
	Data T
}

// Func is a function that handles a worker job.
type Func[T any] func(ctx context.Context, id string, data T) error

// Pool is a worker pool.
type Pool[T any] struct {
	workersCount int
	handlerFunc  Func[T]
	logger       *logger.Logger
	jobs         chan job[T]
	wg           *sync.WaitGroup
	dedup        map[string]struct{}
	mu           *sync.Mutex
	stopOnce     sync.Once
}

// NewPool creates a new worker pool.
func NewPool[T any](workersCount int, handlerFunc Func[T], log *logger.Logger) *Pool[T] {
	if workersCount <= 0 {
		workersCount = 1
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Pool[T]{
		workersCount: workersCount,
		handlerFunc:  handlerFunc,
		logger:       log.Named("worker.Pool"),
		jobs:         make(chan job[T]),
		wg:           &sync.WaitGroup{},
		dedup:        make(map[string]struct{}),
		mu:           &sync.Mutex{},
	}
}

// Start starts the number of workers that were passed in constructor.
func (p *Pool[T]) Start(ctx context.Context) {
	for range p.workersCount {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool[T]) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug().Err(ctx.Err()).Msg("worker stopping due to context cancellation")
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			err := p.handlerFunc(ctx, job.ID, job.Data)
			if err != nil {
				p.logger.Error().Err(err).Str("jobID", job.ID).Msg("handle job")
			}
			p.mu.Lock()
			delete(p.dedup, job.ID)
			p.mu.Unlock()
		}
	}
}

// Stop stops the worker pool and waits for in-flight jobs. It is safe to call more than once.
func (p *Pool[T]) Stop() {
	p.stopOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}

// AddJob adds a new job to the worker pool. A job whose id is already queued
// or running is dropped. It blocks until a worker takes the job or ctx is done.
func (p *Pool[T]) AddJob(ctx context.Context, id string, data T) error {
	p.mu.Lock()
	_, ok := p.dedup[id]
	if ok {
		p.mu.Unlock()
		return nil
	}
	p.dedup[id] = struct{}{}
	p.mu.Unlock()

	select {
	case p.jobs <- job[T]{ID: id, Data: data}:
		return nil
	case <-ctx.Done():
		p.mu.Lock()
		delete(p.dedup, id)
		p.mu.Unlock()

		return ctx.Err()
	}
}
