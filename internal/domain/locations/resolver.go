package locations

import (
	"context"
	"errors"
	"fmt"

	"github.com/expopass/server/internal/domain/ids"
	"github.com/expopass/server/internal/metrics"
)

// Outcome tags a find-or-create result so callers can distinguish a
// fresh row from one that already existed (including the case where a
// concurrent writer created it first).
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeAlreadyExists
)

// Resolver maps flat location text to normalized Country/State/City
// rows, creating missing levels on the way down. Creation is
// race-tolerant: a duplicate-key conflict from the store means another
// writer won, so the resolver re-fetches and reports AlreadyExists
// instead of failing. Check-then-create without the retry is unsafe the
// moment two importers reference the same new country.
//
// The caches are scoped to a single import run. Construct a fresh
// Resolver per run and do not share it across concurrent runs; a stale
// cache elsewhere would only cost a harmless extra duplicate-key retry,
// but sharing maps across goroutines is a data race.
type Resolver struct {
	store Store

	countries map[string]*Country // keyed by normalized code
	states    map[string]*State   // keyed by countryID + "|" + normalized code
	cities    map[string]*City    // keyed by stateID + "|" + normalized name
}

func NewResolver(store Store) *Resolver {
	return &Resolver{
		store:     store,
		countries: make(map[string]*Country),
		states:    make(map[string]*State),
		cities:    make(map[string]*City),
	}
}

// ResolveCountry finds or creates the country for (name, code). Code is
// the lookup key; name is only used when a new row must be minted.
func (r *Resolver) ResolveCountry(ctx context.Context, name, code string) (*Country, Outcome, error) {
	key := NormalizeCode(code)
	if key == "" {
		return nil, 0, ValidationError{Field: "countryCode", Message: "required"}
	}
	if cached, ok := r.countries[key]; ok {
		metrics.ResolverCacheHitsTotal.WithLabelValues(string(LevelCountry)).Inc()
		return cached, OutcomeAlreadyExists, nil
	}

	countries := r.store.Countries()

	existing, err := countries.GetByCode(ctx, key)
	if err == nil {
		r.countries[key] = existing
		return existing, OutcomeAlreadyExists, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, 0, fmt.Errorf("find country %s: %w", key, err)
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, 0, err
	}
	created, err := countries.Create(ctx, CountryCreateParams{
		ULID: ulid,
		Name: CleanText(name),
		Code: key,
	})
	if err == nil {
		r.countries[key] = created
		return created, OutcomeCreated, nil
	}
	if !errors.Is(err, ErrDuplicateKey) {
		return nil, 0, fmt.Errorf("create country %s: %w", key, err)
	}

	// Concurrent writer won the race; the row exists now.
	winner, err := countries.GetByCode(ctx, key)
	if err != nil {
		return nil, 0, fmt.Errorf("refetch country %s after conflict: %w", key, err)
	}
	r.countries[key] = winner
	return winner, OutcomeAlreadyExists, nil
}

// ResolveState finds or creates the state for (countryID, name, code).
// The code is tried first because it is globally unique; if the create
// conflicts on the per-country name constraint instead, the name lookup
// recovers the existing row.
func (r *Resolver) ResolveState(ctx context.Context, country *Country, name, code string) (*State, Outcome, error) {
	codeKey := NormalizeCode(code)
	if codeKey == "" {
		return nil, 0, ValidationError{Field: "stateCode", Message: "required"}
	}
	cacheKey := country.ID + "|" + codeKey
	if cached, ok := r.states[cacheKey]; ok {
		metrics.ResolverCacheHitsTotal.WithLabelValues(string(LevelState)).Inc()
		return cached, OutcomeAlreadyExists, nil
	}

	states := r.store.States()

	existing, err := states.GetByCode(ctx, codeKey)
	if err == nil {
		r.states[cacheKey] = existing
		return existing, OutcomeAlreadyExists, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, 0, fmt.Errorf("find state %s: %w", codeKey, err)
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, 0, err
	}
	created, err := states.Create(ctx, StateCreateParams{
		ULID:      ulid,
		CountryID: country.ID,
		Name:      CleanText(name),
		Code:      codeKey,
	})
	if err == nil {
		if incErr := r.store.Countries().IncrementStateCount(ctx, country.ID, 1); incErr != nil {
			return nil, 0, fmt.Errorf("increment state count for country %s: %w", country.ID, incErr)
		}
		r.states[cacheKey] = created
		return created, OutcomeCreated, nil
	}
	if !errors.Is(err, ErrDuplicateKey) {
		return nil, 0, fmt.Errorf("create state %s: %w", codeKey, err)
	}

	winner, err := states.GetByCode(ctx, codeKey)
	if errors.Is(err, ErrNotFound) {
		// The conflict was on (countryID, name) rather than code.
		winner, err = states.GetByName(ctx, country.ID, NormalizeName(name))
	}
	if err != nil {
		return nil, 0, fmt.Errorf("refetch state %s after conflict: %w", codeKey, err)
	}
	r.states[cacheKey] = winner
	return winner, OutcomeAlreadyExists, nil
}

// ResolveCity finds or creates the city for (stateID, name), comparing
// names case-insensitively: "Mumbai" and "mumbai" are the same city.
func (r *Resolver) ResolveCity(ctx context.Context, state *State, name string) (*City, Outcome, error) {
	nameKey := NormalizeName(name)
	if nameKey == "" {
		return nil, 0, ValidationError{Field: "city", Message: "required"}
	}
	cacheKey := state.ID + "|" + nameKey
	if cached, ok := r.cities[cacheKey]; ok {
		metrics.ResolverCacheHitsTotal.WithLabelValues(string(LevelCity)).Inc()
		return cached, OutcomeAlreadyExists, nil
	}

	cities := r.store.Cities()

	existing, err := cities.GetByName(ctx, state.ID, nameKey)
	if err == nil {
		r.cities[cacheKey] = existing
		return existing, OutcomeAlreadyExists, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, 0, fmt.Errorf("find city %q: %w", nameKey, err)
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, 0, err
	}
	created, err := cities.Create(ctx, CityCreateParams{
		ULID:    ulid,
		StateID: state.ID,
		Name:    CleanText(name),
	})
	if err == nil {
		if incErr := r.store.States().IncrementCityCount(ctx, state.ID, 1); incErr != nil {
			return nil, 0, fmt.Errorf("increment city count for state %s: %w", state.ID, incErr)
		}
		r.cities[cacheKey] = created
		return created, OutcomeCreated, nil
	}
	if !errors.Is(err, ErrDuplicateKey) {
		return nil, 0, fmt.Errorf("create city %q: %w", nameKey, err)
	}

	winner, err := cities.GetByName(ctx, state.ID, nameKey)
	if err != nil {
		return nil, 0, fmt.Errorf("refetch city %q after conflict: %w", nameKey, err)
	}
	r.cities[cacheKey] = winner
	return winner, OutcomeAlreadyExists, nil
}

// ResolvedHierarchy carries the three parent rows for one import row
// plus which of them this resolution created.
type ResolvedHierarchy struct {
	Country *Country
	State   *State
	City    *City

	CountryCreated bool
	StateCreated   bool
	CityCreated    bool
}

// Resolve walks one flat tuple down the hierarchy.
func (r *Resolver) Resolve(ctx context.Context, countryName, countryCode, stateName, stateCode, cityName string) (*ResolvedHierarchy, error) {
	country, countryOutcome, err := r.ResolveCountry(ctx, countryName, countryCode)
	if err != nil {
		return nil, err
	}
	state, stateOutcome, err := r.ResolveState(ctx, country, stateName, stateCode)
	if err != nil {
		return nil, err
	}
	city, cityOutcome, err := r.ResolveCity(ctx, state, cityName)
	if err != nil {
		return nil, err
	}
	return &ResolvedHierarchy{
		Country:        country,
		State:          state,
		City:           city,
		CountryCreated: countryOutcome == OutcomeCreated,
		StateCreated:   stateOutcome == OutcomeCreated,
		CityCreated:    cityOutcome == OutcomeCreated,
	}, nil
}
