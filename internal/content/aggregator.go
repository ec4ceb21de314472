package content

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Provider fetches one kind of content. A (nil, nil) return means the
// provider answered but has nothing to show.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, p Params) (*Result, error)
}

// Chain is the ordered fallback list for one content kind.
type Chain struct {
	Kind      Kind
	Timeout   time.Duration
	Providers []Provider
}

type Aggregator struct {
	chains map[Kind]*Chain
	log    *zap.Logger
}

func NewAggregator(log *zap.Logger, chains ...*Chain) *Aggregator {
	byKind := make(map[Kind]*Chain, len(chains))
	for _, c := range chains {
		byKind[c.Kind] = c
	}
	return &Aggregator{chains: byKind, log: log}
}

// Fetch resolves every requested kind independently: a failed kind never
// prevents the others from being returned. Results keep the request order.
func (a *Aggregator) Fetch(ctx context.Context, p Params, kinds ...Kind) []Result {
	results := make([]Result, 0, len(kinds))
	for _, kind := range kinds {
		results = append(results, a.fetchKind(ctx, kind, p))
	}
	return results
}

func (a *Aggregator) fetchKind(ctx context.Context, kind Kind, p Params) Result {
	// A horoscope cannot be requested without a sign; skip the block
	// instead of letting every provider fail.
	if kind == KindHoroscope && p.Sign == "" {
		return Result{Kind: kind, Status: StatusEmpty}
	}

	chain, ok := a.chains[kind]
	if !ok || len(chain.Providers) == 0 {
		a.log.Warn("no provider chain for content kind", zap.String("kind", string(kind)))
		return Result{Kind: kind, Status: StatusUnavailable}
	}

	sawEmpty := false
	for _, prov := range chain.Providers {
		callCtx := ctx
		cancel := func() {}
		if chain.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, chain.Timeout)
		}
		res, err := prov.Fetch(callCtx, p)
		cancel()

		if err != nil {
			var pe *ProviderError
			if errors.As(err, &pe) && pe.Permanent {
				a.log.Warn("provider reported permanent failure, giving up on kind",
					zap.String("kind", string(kind)),
					zap.String("provider", prov.Name()),
					zap.Error(err))
				return Result{Kind: kind, Status: StatusUnavailable}
			}
			a.log.Warn("provider failed, trying next",
				zap.String("kind", string(kind)),
				zap.String("provider", prov.Name()),
				zap.Error(err))
			continue
		}
		if res == nil {
			sawEmpty = true
			continue
		}

		res.Kind = kind
		res.Status = StatusFetched
		res.Provider = prov.Name()
		return *res
	}

	if sawEmpty {
		return Result{Kind: kind, Status: StatusEmpty}
	}
	a.log.Warn("all providers exhausted for content kind", zap.String("kind", string(kind)))
	return Result{Kind: kind, Status: StatusUnavailable}
}
