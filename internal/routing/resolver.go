// Package routing implements the cascading provider resolution pipeline:
// per transport mode, an ordered chain of routing providers is walked until
// one yields a valid quote, ending at a mathematical estimate that cannot
// fail.
package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/cache"
	"github.com/altfuel/shipcost-router/internal/geo"
	"github.com/altfuel/shipcost-router/internal/providers"
	"github.com/altfuel/shipcost-router/internal/types"
)

// DefaultRouteCacheTTL is how long a resolved quote is reused for identical
// (origin, destination, mode) queries.
const DefaultRouteCacheTTL = time.Hour

// Chain is an ordered provider list for one mode. Order is priority: a later
// provider is consulted only after every earlier one has been skipped.
type Chain []providers.RouteProvider

// Resolver walks per-mode provider chains and memoizes successful quotes.
// The route cache is owned by the resolver instance; tests inject a fresh
// one per case instead of sharing process-wide state.
type Resolver struct {
	chains    map[types.TransportMode]Chain
	fallback  providers.RouteProvider
	gazetteer geo.Gazetteer
	cache     *cache.TTL[*types.RouteQuote]
	cacheTTL  time.Duration
	logger    *logrus.Logger
}

// NewResolver creates a resolver with empty chains. Every chain implicitly
// terminates in the formula fallback, which is what guarantees a quote for
// all inputs.
func NewResolver(gazetteer geo.Gazetteer, routeCache *cache.TTL[*types.RouteQuote], logger *logrus.Logger) *Resolver {
	return &Resolver{
		chains:    make(map[types.TransportMode]Chain),
		fallback:  providers.NewFormulaProvider(),
		gazetteer: gazetteer,
		cache:     routeCache,
		cacheTTL:  DefaultRouteCacheTTL,
		logger:    logger,
	}
}

// SetCacheTTL overrides the route cache lifetime.
func (r *Resolver) SetCacheTTL(ttl time.Duration) {
	r.cacheTTL = ttl
}

// RegisterChain sets the ordered live-provider list for a mode. Providers
// that do not support the mode are refused rather than silently skipped at
// resolve time.
func (r *Resolver) RegisterChain(mode types.TransportMode, chain ...providers.RouteProvider) error {
	for _, p := range chain {
		if !p.Supports(mode) {
			return fmt.Errorf("provider %s does not support mode %s", p.Name(), mode)
		}
	}
	r.chains[mode] = chain
	r.logger.WithFields(logrus.Fields{
		"mode":      mode,
		"providers": chainNames(chain),
	}).Info("Provider chain registered")
	return nil
}

// ResolveRoute resolves one leg by name. The only error it can return is a
// validation failure from the gazetteer; once both locations are known, a
// quote is guaranteed.
func (r *Resolver) ResolveRoute(ctx context.Context, origin, destination string, mode types.TransportMode, fuel types.FuelType, volumeTonnes float64) (*types.RouteQuote, error) {
	originLoc, err := r.gazetteer.Lookup(origin)
	if err != nil {
		return nil, &types.ValidationError{Field: "origin", Message: err.Error()}
	}
	destLoc, err := r.gazetteer.Lookup(destination)
	if err != nil {
		return nil, &types.ValidationError{Field: "destination", Message: err.Error()}
	}

	quote, _ := r.Resolve(ctx, &providers.RouteRequest{
		Origin:       originLoc,
		Destination:  destLoc,
		Mode:         mode,
		FuelType:     fuel,
		VolumeTonnes: volumeTonnes,
	})
	return quote, nil
}

// Resolve walks the chain for the request's mode and returns the first
// usable quote plus the attempt trail. It never returns a nil quote.
func (r *Resolver) Resolve(ctx context.Context, req *providers.RouteRequest) (*types.RouteQuote, []Attempt) {
	key := cacheKey(req.Origin.Name, req.Destination.Name, req.Mode)
	if cached, ok := r.cache.Get(key); ok {
		r.logger.WithFields(logrus.Fields{
			"key":    key,
			"source": cached.Source,
		}).Debug("Route cache hit")
		return cached, nil
	}

	var attempts []Attempt
	for _, provider := range r.chains[req.Mode] {
		attempt := r.attemptProvider(ctx, provider, req)
		attempts = append(attempts, attempt)
		if attempt.Success() {
			r.cache.Set(key, attempt.Quote, r.cacheTTL)
			return attempt.Quote, attempts
		}
	}

	// Terminal element: pure computation, cannot fail.
	attempt := r.attemptProvider(ctx, r.fallback, req)
	attempts = append(attempts, attempt)
	r.cache.Set(key, attempt.Quote, r.cacheTTL)
	return attempt.Quote, attempts
}

// attemptProvider tries a single provider under its timeout and classifies
// the outcome. Any failure (timeout, transport error, malformed payload, or
// a parseable quote with physically invalid numbers) becomes a Skip.
func (r *Resolver) attemptProvider(ctx context.Context, provider providers.RouteProvider, req *providers.RouteRequest) Attempt {
	start := time.Now()

	attemptCtx, cancel := context.WithTimeout(ctx, provider.Timeout())
	defer cancel()

	quote, err := provider.FetchRoute(attemptCtx, req)
	elapsed := time.Since(start)

	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"provider": provider.Name(),
			"mode":     req.Mode,
			"elapsed":  elapsed,
			"error":    err.Error(),
		}).Warn("Route provider skipped")
		return Attempt{Provider: provider.Name(), SkipReason: err.Error(), Elapsed: elapsed}
	}
	if !quote.Valid() {
		r.logger.WithFields(logrus.Fields{
			"provider": provider.Name(),
			"mode":     req.Mode,
		}).Warn("Route provider returned invalid quote")
		return Attempt{Provider: provider.Name(), SkipReason: "invalid quote payload", Elapsed: elapsed}
	}

	r.logger.WithFields(logrus.Fields{
		"provider":       provider.Name(),
		"mode":           req.Mode,
		"distance_miles": quote.DistanceMiles,
		"confidence":     quote.Confidence,
		"elapsed":        elapsed,
	}).Info("Route resolved")
	return Attempt{Provider: provider.Name(), Quote: quote, Elapsed: elapsed}
}

// ClearCache drops every memoized route quote.
func (r *Resolver) ClearCache() {
	r.cache.Clear()
}

func cacheKey(origin, destination string, mode types.TransportMode) string {
	return fmt.Sprintf("%s|%s|%s", origin, destination, mode)
}

func chainNames(chain Chain) []string {
	names := make([]string, len(chain))
	for i, p := range chain {
		names[i] = p.Name()
	}
	return names
}
