package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/platform/retry"
	"trip-planner-service/internal/ports"

	"golang.org/x/sync/errgroup"
)

// LookupOptions bound the concurrency and retries of collaborator calls.
type LookupOptions struct {
	Concurrency int
	MaxAttempts int
	Backoff     time.Duration
}

func (o LookupOptions) policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: o.MaxAttempts,
		Backoff:     o.Backoff,
		Retryable:   retryableLookup,
	}
}

func (o LookupOptions) limit() int {
	if o.Concurrency < 1 {
		return 1
	}
	return o.Concurrency
}

// Missing places and bad input will not fix themselves.
func retryableLookup(err error) bool {
	return !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrValidation)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// BuildDistanceMatrix looks up the directed travel duration between every
// ordered pair of ids. ids[0] is the origin and ends up at index 0.
//
// Lookups fan out with bounded concurrency. Providers implementing
// ports.TravelTimeMatrixProvider are asked one row at a time; others one
// pair at a time. Any failure after retries aborts the whole build: a
// partially filled matrix is never returned.
func BuildDistanceMatrix(
	ctx context.Context,
	ids []string,
	provider ports.TravelTimeProvider,
	opts LookupOptions,
) (_ *domain.DistanceMatrix, err error) {
	defer obs.Time(ctx, "services.BuildDistanceMatrix")(&err)

	if len(ids) == 0 {
		return nil, domain.NewValidationError("locations", "origin is required")
	}
	if _, err := domain.NewLocationIndex(ids[0], ids[1:]); err != nil {
		return nil, err
	}

	n := len(ids)
	rows := make([][]int, n)
	for i := range rows {
		rows[i] = make([]int, n)
	}
	if n == 1 {
		return domain.NewDistanceMatrix(rows)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())

	mp, batched := provider.(ports.TravelTimeMatrixProvider)
	for i := range ids {
		if batched {
			g.Go(func() error {
				targets := make([]string, 0, n-1)
				for j, id := range ids {
					if j != i {
						targets = append(targets, id)
					}
				}

				got, err := fetchRow(gctx, mp, ids[i], targets, opts)
				if err != nil {
					return err
				}
				for j, id := range ids {
					if j != i {
						rows[i][j] = got[id]
					}
				}
				return nil
			})
			continue
		}

		for j := range ids {
			if i == j {
				continue
			}
			// Each goroutine writes a distinct cell.
			g.Go(func() error {
				d, err := fetchPair(gctx, provider, ids[i], ids[j], opts)
				if err != nil {
					return err
				}
				rows[i][j] = d
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return domain.NewDistanceMatrix(rows)
}

func fetchPair(ctx context.Context, provider ports.TravelTimeProvider, from, to string, opts LookupOptions) (int, error) {
	var d int
	err := retry.Do(ctx, opts.policy(), func(ctx context.Context) error {
		var err error
		d, err = provider.GetTravelDuration(ctx, from, to)
		if err != nil {
			return err
		}
		if d < 0 {
			return fmt.Errorf("negative duration %d", d)
		}
		return nil
	})
	if err != nil {
		if isContextErr(err) {
			return 0, err
		}
		return 0, &domain.LookupError{Op: "travel_duration", Key: from + "->" + to, Err: err}
	}
	return d, nil
}

// fetchRow returns durations from origin to every target, failing if the
// provider leaves any target out.
func fetchRow(ctx context.Context, provider ports.TravelTimeMatrixProvider, origin string, targets []string, opts LookupOptions) (map[string]int, error) {
	var got map[string]int
	err := retry.Do(ctx, opts.policy(), func(ctx context.Context) error {
		var err error
		got, err = provider.GetTravelDurations(ctx, origin, targets)
		return err
	})
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		return nil, &domain.LookupError{Op: "travel_durations", Key: origin, Err: err}
	}

	for _, t := range targets {
		d, ok := got[t]
		if !ok {
			return nil, &domain.LookupError{Op: "travel_durations", Key: origin + "->" + t, Err: errors.New("missing from provider response")}
		}
		if d < 0 {
			return nil, &domain.LookupError{Op: "travel_durations", Key: origin + "->" + t, Err: fmt.Errorf("negative duration %d", d)}
		}
	}
	return got, nil
}

// DurationsFrom returns travel times from origin to each target, batched
// when the provider supports it.
func DurationsFrom(
	ctx context.Context,
	origin string,
	targets []string,
	provider ports.TravelTimeProvider,
	opts LookupOptions,
) (map[string]int, error) {
	if len(targets) == 0 {
		return map[string]int{}, nil
	}
	if mp, ok := provider.(ports.TravelTimeMatrixProvider); ok {
		return fetchRow(ctx, mp, origin, targets, opts)
	}

	out := make([]int, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())
	for i, t := range targets {
		g.Go(func() error {
			d, err := fetchPair(gctx, provider, origin, t, opts)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := make(map[string]int, len(targets))
	for i, t := range targets {
		res[t] = out[i]
	}
	return res, nil
}
