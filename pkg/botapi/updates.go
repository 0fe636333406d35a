package botapi

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VladPetriv/botapi/pkg/logger"
	"github.com/google/uuid"
)

// Strategy decides how many updates a stream asks for per poll.
type Strategy string

const (
	// StrategyBatch asks for 10 to 50 updates per poll and hands them out one by one.
	StrategyBatch Strategy = "batch"
	// StrategySingle asks for one update per poll.
	StrategySingle Strategy = "single"
)

// StreamState is the state of an UpdateStream.
type StreamState int32

// Stream states.
const (
	StateIdle StreamState = iota
	StateFetching
	StateDelivering
	StateBackingOff
	StateClosed
)

func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateDelivering:
		return "delivering"
	case StateBackingOff:
		return "backing_off"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("StreamState(%d)", int32(s))
	}
}

const (
	// DefaultPollTimeout is how long the server is asked to hold a poll open.
	DefaultPollTimeout = 55 * time.Second

	// MaxConsecutiveErrors is the number of failed polls in a row after which Next gives up.
	MaxConsecutiveErrors = 100

	getUpdatesMethod = "get_updates"

	minBatchLimit = 10
	maxBatchLimit = 50

	minRetryDelay = 5 * time.Second
	maxRetryDelay = 10 * time.Second

	flushTimeout = 10 * time.Second
)

// StreamOptions configures an UpdateStream.
type StreamOptions struct {
	// Strategy is fixed for the lifetime of the stream. (Defaults to StrategyBatch)
	Strategy Strategy
	// PollTimeout is sent to the server as the long poll timeout, it must stay
	// below RequestTimeout. (Defaults to DefaultPollTimeout)
	PollTimeout time.Duration
	// AllowedUpdates restricts the update types the server sends, empty means all.
	AllowedUpdates []string
}

// UpdateStream turns get_updates polling into an ordered sequence of updates.
//
// An update's offset is acknowledged once it is handed out by Next, so a
// crash loses nothing that was not delivered. Next must not be called
// concurrently with itself; Close may be called from any goroutine.
type UpdateStream struct {
	client *Client
	opts   StreamOptions
	logger *logger.Logger

	// lifetime is cancelled by Close to abort a poll or backoff in progress.
	lifetime context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	pending  []*Dict
	errCount int

	state  atomic.Int32
	offset atomic.Int64
}

func newUpdateStream(client *Client, opts StreamOptions) *UpdateStream {
	if opts.Strategy == "" {
		opts.Strategy = StrategyBatch
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.PollTimeout >= RequestTimeout {
		opts.PollTimeout = RequestTimeout - time.Second
	}

	sessionLogger := client.logger.With().
		Str("name", "botapi.UpdateStream").
		Str("session", uuid.NewString()).
		Str("strategy", string(opts.Strategy)).
		Logger()

	lifetime, cancel := context.WithCancel(context.Background())

	return &UpdateStream{
		client:   client,
		opts:     opts,
		logger:   &logger.Logger{Logger: &sessionLogger},
		lifetime: lifetime,
		cancel:   cancel,
	}
}

// Offset returns the id of the next update the stream expects.
func (s *UpdateStream) Offset() int64 {
	return s.offset.Load()
}

// State returns the current state.
func (s *UpdateStream) State() StreamState {
	return StreamState(s.state.Load())
}

func (s *UpdateStream) setState(state StreamState) {
	if s.State() == StateClosed {
		return
	}
	s.state.Store(int32(state))
}

// Next returns the next update. It reports more=false once the stream is
// closed. A returned error ends this attempt: either a non-transient error,
// MaxConsecutiveErrors transient failures in a row, or ctx being done, in
// which case the stream is closed (and its offset flushed) before returning.
func (s *UpdateStream) Next(ctx context.Context) (*Dict, bool, error) {
	s.mu.Lock()

	if s.State() == StateClosed {
		s.mu.Unlock()
		return nil, false, nil
	}

	pollCtx, stop := context.WithCancel(ctx)
	defer stop()
	unregister := context.AfterFunc(s.lifetime, stop)
	defer unregister()

	if len(s.pending) == 0 {
		err := s.fill(pollCtx)
		if err != nil {
			s.mu.Unlock()

			switch {
			case s.lifetime.Err() != nil:
				return nil, false, nil
			case ctx.Err() != nil:
				_ = s.Close()
				return nil, false, ctx.Err()
			default:
				return nil, false, err
			}
		}
	}

	update := s.pending[0]
	s.pending[0] = nil
	s.pending = s.pending[1:]

	// fill only accepts updates that carry an update_id.
	updateID, _ := update.Int64("update_id")
	if updateID+1 > s.offset.Load() {
		s.offset.Store(updateID + 1)
	}

	if len(s.pending) == 0 {
		s.setState(StateIdle)
	}
	s.mu.Unlock()

	return update, true, nil
}

// fill polls until at least one update is pending. Transient failures are
// retried after a jittered delay; the MaxConsecutiveErrors-th one is returned.
func (s *UpdateStream) fill(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.setState(StateFetching)

		updates, err := s.poll(ctx, s.offset.Load(), s.limit(), s.opts.PollTimeout)
		if err == nil {
			s.errCount = 0

			if len(updates) == 0 {
				continue
			}

			s.pending = append(s.pending, updates...)
			s.setState(StateDelivering)

			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !IsTransient(err) {
			s.setState(StateIdle)
			return err
		}

		s.setState(StateBackingOff)

		delay := retryDelay()
		s.logger.Warn().Err(err).
			Int("errCount", s.errCount).
			Dur("delay", delay).
			Int64("offset", s.offset.Load()).
			Msg("get updates failed, retrying")

		select {
		case <-s.client.clock.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		s.errCount++
		if s.errCount >= MaxConsecutiveErrors {
			s.errCount = 0
			s.setState(StateIdle)

			s.logger.Error().Err(err).Msg("giving up on get updates")

			return fmt.Errorf("get updates failed %d times in a row: %w", MaxConsecutiveErrors, err)
		}
	}
}

func (s *UpdateStream) limit() int {
	if s.opts.Strategy == StrategySingle {
		return 1
	}

	return minBatchLimit + rand.IntN(maxBatchLimit-minBatchLimit+1)
}

func retryDelay() time.Duration {
	return minRetryDelay + rand.N(maxRetryDelay-minRetryDelay)
}

func (s *UpdateStream) poll(ctx context.Context, offset int64, limit int, timeout time.Duration) ([]*Dict, error) {
	args := Args{
		"offset":  offset,
		"limit":   limit,
		"timeout": int(timeout / time.Second),
	}
	if len(s.opts.AllowedUpdates) > 0 {
		args["allowed_updates"] = s.opts.AllowedUpdates
	}

	result, err := s.client.Call(ctx, getUpdatesMethod, args)
	if err != nil {
		return nil, err
	}

	list, ok := result.([]any)
	if !ok {
		return nil, &ProtocolError{
			StatusCode: 200,
			Content:    result,
			Message:    fmt.Sprintf("get updates returned %T instead of a list", result),
		}
	}

	updates := make([]*Dict, 0, len(list))
	for _, item := range list {
		update, ok := item.(*Dict)
		if !ok {
			return nil, &ProtocolError{StatusCode: 200, Content: result, Message: "get updates returned a non-object update"}
		}
		if _, ok := update.Int64("update_id"); !ok {
			return nil, &ProtocolError{StatusCode: 200, Content: result, Message: "get updates returned an update without update_id"}
		}

		updates = append(updates, update)
	}

	return updates, nil
}

// Close stops the stream. If any update was delivered, the offset is
// acknowledged with a zero-limit poll; failing that only logs a warning.
// Calling Close more than once is a no-op.
func (s *UpdateStream) Close() error {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateClosed {
		return nil
	}
	s.markClosed()
	s.pending = nil

	if offset := s.offset.Load(); offset != 0 {
		s.flush(offset)
	}

	s.client.forget(s)

	return nil
}

func (s *UpdateStream) markClosed() {
	s.state.Store(int32(StateClosed))
}

func (s *UpdateStream) flush(offset int64) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	_, err := s.poll(ctx, offset, 0, 0)
	if err != nil {
		s.logger.Warn().Err(err).
			Int64("offset", offset).
			Msg("could not upload the offset, the same updates may be processed twice on the next start")

		return
	}

	s.logger.Debug().Int64("offset", offset).Msg("flushed offset")
}
