package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/pkg/logger"
	"github.com/okian/gitstart/pkg/metrics"
)

// Policy is the timeout and retry policy for one scorer.
type Policy struct {
	Timeout      time.Duration // per attempt
	Attempts     uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultHeuristicPolicy is the policy for the local heuristic scorer.
func DefaultHeuristicPolicy() Policy {
	return Policy{Timeout: 50 * time.Millisecond, Attempts: 1, InitialDelay: 10 * time.Millisecond, MaxDelay: 10 * time.Millisecond}
}

// DefaultModelPolicy is the policy for the external model scorer.
func DefaultModelPolicy() Policy {
	return Policy{Timeout: 5 * time.Second, Attempts: 3, InitialDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}
}

func (p Policy) normalized() Policy {
	if p.Attempts == 0 {
		p.Attempts = 1
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultModelPolicy().Timeout
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 10 * time.Millisecond
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	return p
}

// Adapter wraps a Scorer with its timeout and retry policy. Transient
// failures are retried with exponential backoff; anything else fails at once.
type Adapter struct {
	scorer Scorer
	policy Policy
	log    logger.Logger
}

// NewAdapter wraps scorer with policy.
func NewAdapter(scorer Scorer, policy Policy) *Adapter {
	return &Adapter{
		scorer: scorer,
		policy: policy.normalized(),
		log:    logger.Get().Named("scoring"),
	}
}

// Name implements Scorer.
func (a *Adapter) Name() string { return a.scorer.Name() }

// Policy returns the effective policy.
func (a *Adapter) Policy() Policy { return a.policy }

// Score implements Scorer.
func (a *Adapter) Score(ctx context.Context, in Input) (model.ScoreResult, error) {
	name := a.scorer.Name()
	op := "adapter." + name
	start := time.Now()

	var res model.ScoreResult
	err := retry.Do(
		func() error {
			actx, cancel := context.WithTimeout(ctx, a.policy.Timeout)
			defer cancel()

			r, err := a.scorer.Score(actx, in)
			if err == nil {
				res = r
				return nil
			}
			if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) && !errors.Is(err, model.ErrAdapterTimeout) {
				err = model.WrapKind(op, model.ErrAdapterTimeout, err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(a.policy.Attempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(a.policy.InitialDelay),
		retry.MaxDelay(a.policy.MaxDelay),
		retry.RetryIf(model.IsTransient),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordAdapterRetry(name)
			a.log.Debug(ctx, "retrying scorer",
				logger.String("scorer", name),
				logger.Int("attempt", int(n)+1),
				logger.Error(err))
		}),
		retry.LastErrorOnly(true),
	)

	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, model.ErrAdapterTimeout) {
			err = model.WrapKind(op, model.ErrAdapterTimeout, ctxErr)
		}
		kind := errorKind(err)
		metrics.RecordAdapterLatency(name, "error", elapsed)
		metrics.RecordAdapterFailure(name, kind)
		a.log.Warn(ctx, "scorer failed",
			logger.String("scorer", name),
			logger.String("kind", kind),
			logger.Error(err))
		return model.ScoreResult{}, err
	}
	metrics.RecordAdapterLatency(name, "ok", elapsed)
	return res, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrAdapterTimeout):
		return "timeout"
	case errors.Is(err, model.ErrAdapterUnavailable):
		return "unavailable"
	case errors.Is(err, model.ErrInvalidInput):
		return "invalid_input"
	default:
		return "other"
	}
}
