package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/cache"
	"github.com/altfuel/shipcost-router/internal/geo"
	"github.com/altfuel/shipcost-router/internal/providers"
	"github.com/altfuel/shipcost-router/internal/types"
)

// stubProvider is a scriptable chain element for resolver tests.
type stubProvider struct {
	name    string
	mode    types.TransportMode
	quote   *types.RouteQuote
	err     error
	delay   time.Duration
	timeout time.Duration
	calls   int
}

func (s *stubProvider) Name() string                        { return s.name }
func (s *stubProvider) Timeout() time.Duration              { return s.timeout }
func (s *stubProvider) Supports(m types.TransportMode) bool { return m == s.mode }

func (s *stubProvider) FetchRoute(ctx context.Context, req *providers.RouteRequest) (*types.RouteQuote, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

func goodQuote(source string, confidence int) *types.RouteQuote {
	return &types.RouteQuote{
		DistanceMiles:    1500,
		DurationMinutes:  1700,
		RatePerTonneMile: 0.252,
		Mode:             types.ModeTruck,
		Source:           source,
		Confidence:       confidence,
		Timestamp:        time.Now(),
	}
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewResolver(geo.NewStaticGazetteer(), cache.New[*types.RouteQuote](), logger)
}

func truckRequest() *providers.RouteRequest {
	return &providers.RouteRequest{
		Origin:       &geo.Location{Name: "Miami, FL", Coords: geo.Coordinates{Lat: 25.7617, Lng: -80.1918}, Country: "US"},
		Destination:  &geo.Location{Name: "Boston, MA", Coords: geo.Coordinates{Lat: 42.3601, Lng: -71.0589}, Country: "US"},
		Mode:         types.ModeTruck,
		FuelType:     types.FuelHydrogen,
		VolumeTonnes: 8,
	}
}

func TestResolver_FirstProviderWins(t *testing.T) {
	r := newTestResolver(t)
	primary := &stubProvider{name: "primary", mode: types.ModeTruck, quote: goodQuote("primary", 95), timeout: time.Second}
	secondary := &stubProvider{name: "secondary", mode: types.ModeTruck, quote: goodQuote("secondary", 88), timeout: time.Second}
	if err := r.RegisterChain(types.ModeTruck, primary, secondary); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}

	quote, attempts := r.Resolve(context.Background(), truckRequest())

	if quote.Source != "primary" {
		t.Errorf("expected primary to win, got %s", quote.Source)
	}
	if len(attempts) != 1 {
		t.Errorf("expected 1 attempt, got %d", len(attempts))
	}
	if secondary.calls != 0 {
		t.Error("secondary should not have been consulted")
	}
}

func TestResolver_AdvancesPastFailure(t *testing.T) {
	r := newTestResolver(t)
	primary := &stubProvider{name: "primary", mode: types.ModeTruck, err: errors.New("503"), timeout: time.Second}
	secondary := &stubProvider{name: "secondary", mode: types.ModeTruck, quote: goodQuote("secondary", 88), timeout: time.Second}
	if err := r.RegisterChain(types.ModeTruck, primary, secondary); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}

	quote, attempts := r.Resolve(context.Background(), truckRequest())

	if quote.Source != "secondary" {
		t.Errorf("expected secondary after primary failure, got %s", quote.Source)
	}
	if len(attempts) != 2 || attempts[0].Success() || !attempts[1].Success() {
		t.Errorf("unexpected attempt trail: %+v", attempts)
	}
	if attempts[0].SkipReason == "" {
		t.Error("skip attempt must carry a reason")
	}
	if primary.calls != 1 {
		t.Errorf("failed provider must not be retried, got %d calls", primary.calls)
	}
}

func TestResolver_InvalidQuoteTreatedAsFailure(t *testing.T) {
	bad := goodQuote("bad", 95)
	bad.DistanceMiles = -10

	r := newTestResolver(t)
	primary := &stubProvider{name: "bad", mode: types.ModeTruck, quote: bad, timeout: time.Second}
	if err := r.RegisterChain(types.ModeTruck, primary); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}

	quote, attempts := r.Resolve(context.Background(), truckRequest())

	if quote.Source != "formula_estimate" {
		t.Errorf("expected fallback after invalid payload, got %s", quote.Source)
	}
	if attempts[0].SkipReason != "invalid quote payload" {
		t.Errorf("unexpected skip reason %q", attempts[0].SkipReason)
	}
}

func TestResolver_SlowProviderTimesOut(t *testing.T) {
	r := newTestResolver(t)
	slow := &stubProvider{
		name: "slow", mode: types.ModeTruck,
		quote: goodQuote("slow", 95), delay: 200 * time.Millisecond, timeout: 20 * time.Millisecond,
	}
	if err := r.RegisterChain(types.ModeTruck, slow); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}

	quote, _ := r.Resolve(context.Background(), truckRequest())

	if quote.Source != "formula_estimate" {
		t.Errorf("expected fallback after timeout, got %s", quote.Source)
	}
}

func TestResolver_FallbackCompleteness(t *testing.T) {
	// Every mode with every provider failing must still yield a quote.
	failing := func(mode types.TransportMode) *stubProvider {
		return &stubProvider{name: "down-" + string(mode), mode: mode, err: errors.New("unreachable"), timeout: time.Second}
	}

	for _, mode := range types.AllTransportModes {
		r := newTestResolver(t)
		if err := r.RegisterChain(mode, failing(mode)); err != nil {
			t.Fatalf("RegisterChain(%s) failed: %v", mode, err)
		}

		req := truckRequest()
		req.Mode = mode

		quote, _ := r.Resolve(context.Background(), req)
		if quote == nil || quote.DistanceMiles <= 0 {
			t.Errorf("mode %s: expected non-nil quote with positive distance", mode)
		}
	}
}

func TestResolver_MonotonicConfidence(t *testing.T) {
	r := newTestResolver(t)
	primary := &stubProvider{name: "primary", mode: types.ModeTruck, quote: goodQuote("primary", 95), timeout: time.Second}
	secondary := &stubProvider{name: "secondary", mode: types.ModeTruck, quote: goodQuote("secondary", 88), timeout: time.Second}
	if err := r.RegisterChain(types.ModeTruck, primary, secondary); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}

	// Run once per failure depth by knocking providers out in order.
	quote1, _ := r.Resolve(context.Background(), truckRequest())

	r2 := newTestResolver(t)
	primaryDown := &stubProvider{name: "primary", mode: types.ModeTruck, err: errors.New("down"), timeout: time.Second}
	secondaryUp := &stubProvider{name: "secondary", mode: types.ModeTruck, quote: goodQuote("secondary", 88), timeout: time.Second}
	if err := r2.RegisterChain(types.ModeTruck, primaryDown, secondaryUp); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}
	quote2, _ := r2.Resolve(context.Background(), truckRequest())

	r3 := newTestResolver(t)
	if err := r3.RegisterChain(types.ModeTruck,
		&stubProvider{name: "primary", mode: types.ModeTruck, err: errors.New("down"), timeout: time.Second},
		&stubProvider{name: "secondary", mode: types.ModeTruck, err: errors.New("down"), timeout: time.Second},
	); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}
	quote3, _ := r3.Resolve(context.Background(), truckRequest())

	if !(quote1.Confidence >= quote2.Confidence && quote2.Confidence >= quote3.Confidence) {
		t.Errorf("confidence must not increase down the chain: %d %d %d",
			quote1.Confidence, quote2.Confidence, quote3.Confidence)
	}
}

func TestResolver_CachesSuccessfulQuotes(t *testing.T) {
	r := newTestResolver(t)
	primary := &stubProvider{name: "primary", mode: types.ModeTruck, quote: goodQuote("primary", 95), timeout: time.Second}
	if err := r.RegisterChain(types.ModeTruck, primary); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}

	req := truckRequest()
	r.Resolve(context.Background(), req)
	r.Resolve(context.Background(), req)

	if primary.calls != 1 {
		t.Errorf("expected 1 provider call thanks to cache, got %d", primary.calls)
	}
}

func TestResolver_ClearCacheForcesRefetch(t *testing.T) {
	r := newTestResolver(t)
	primary := &stubProvider{name: "primary", mode: types.ModeTruck, quote: goodQuote("primary", 95), timeout: time.Second}
	if err := r.RegisterChain(types.ModeTruck, primary); err != nil {
		t.Fatalf("RegisterChain failed: %v", err)
	}

	req := truckRequest()
	r.Resolve(context.Background(), req)
	r.ClearCache()
	r.Resolve(context.Background(), req)

	if primary.calls != 2 {
		t.Errorf("expected refetch after cache clear, got %d calls", primary.calls)
	}
}

func TestResolver_RegisterChainRejectsWrongMode(t *testing.T) {
	r := newTestResolver(t)
	shipOnly := &stubProvider{name: "sea", mode: types.ModeShip, timeout: time.Second}

	if err := r.RegisterChain(types.ModeTruck, shipOnly); err == nil {
		t.Error("expected error registering ship provider on truck chain")
	}
}

func TestResolver_ResolveRoute_UnknownLocation(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.ResolveRoute(context.Background(), "Atlantis", "Boston, MA", types.ModeTruck, types.FuelHydrogen, 8)

	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "origin" {
		t.Errorf("expected origin field, got %s", verr.Field)
	}
}

func TestResolver_ResolveRoute_FallbackScenario(t *testing.T) {
	// Direct truck scenario: hydrogen Miami->Boston with no live providers.
	r := newTestResolver(t)

	quote, err := r.ResolveRoute(context.Background(), "Miami, FL", "Boston, MA", types.ModeTruck, types.FuelHydrogen, 8)
	if err != nil {
		t.Fatalf("ResolveRoute failed: %v", err)
	}

	if quote.DistanceMiles < 1200 || quote.DistanceMiles > 1700 {
		t.Errorf("distance out of scenario range: %.1f", quote.DistanceMiles)
	}
	if quote.Confidence < 55 || quote.Confidence > 70 {
		t.Errorf("fallback confidence out of range: %d", quote.Confidence)
	}
}
