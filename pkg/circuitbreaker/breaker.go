package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

type Settings struct {
	Name string
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
	// IsSuccessful classifies errors that must not count as failures. Optional.
	IsSuccessful func(err error) bool
}

func DefaultSettings(name string) Settings {
	return Settings{
		Name:                name,
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

func New[T any](s Settings, log *zap.Logger) *Breaker[T] {
	if log == nil {
		log = zap.NewNop()
	}
	st := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit_breaker_state_changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	if s.IsSuccessful != nil {
		st.IsSuccessful = s.IsSuccessful
	}
	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](st)}
}

// Execute runs fn through the breaker.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return res, ErrOpen
	}
	return res, err
}

func (b *Breaker[T]) State() string {
	return b.cb.State().String()
}
