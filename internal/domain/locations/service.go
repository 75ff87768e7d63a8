package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/expopass/server/internal/domain/ids"
	"github.com/rs/zerolog"
)

// Service exposes the explicit single-entity operations the admin API
// sits on. Unlike import, a uniqueness violation here is surfaced to
// the caller as a ConflictError naming the field that collided.
type Service struct {
	store   Store
	indexer Indexer
}

func NewService(store Store, indexer Indexer) *Service {
	return &Service{store: store, indexer: indexer}
}

func (s *Service) CreateCountry(ctx context.Context, name, code string) (*Country, error) {
	name = CleanText(name)
	if name == "" {
		return nil, ValidationError{Field: "name", Message: "required"}
	}
	if !ValidCountryCode(code) {
		return nil, ValidationError{Field: "code", Message: "2-letter code required"}
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, err
	}
	created, err := s.store.Countries().Create(ctx, CountryCreateParams{
		ULID: ulid,
		Name: name,
		Code: NormalizeCode(code),
	})
	if errors.Is(err, ErrDuplicateKey) {
		field, value := "code", NormalizeCode(code)
		if _, codeErr := s.store.Countries().GetByCode(ctx, value); errors.Is(codeErr, ErrNotFound) {
			field, value = "name", name
		}
		return nil, ConflictError{Level: LevelCountry, Field: field, Value: value}
	}
	if err != nil {
		return nil, fmt.Errorf("create country: %w", err)
	}
	return created, nil
}

func (s *Service) CreateState(ctx context.Context, countryID, name, code string) (*State, error) {
	name = CleanText(name)
	if name == "" {
		return nil, ValidationError{Field: "name", Message: "required"}
	}
	codeKey := NormalizeCode(code)
	if codeKey == "" {
		return nil, ValidationError{Field: "code", Message: "required"}
	}

	if _, err := s.store.Countries().GetByID(ctx, countryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NotFoundError{Level: LevelCountry, ID: countryID}
		}
		return nil, fmt.Errorf("get country %s: %w", countryID, err)
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, err
	}
	created, err := s.store.States().Create(ctx, StateCreateParams{
		ULID:      ulid,
		CountryID: countryID,
		Name:      name,
		Code:      codeKey,
	})
	if errors.Is(err, ErrDuplicateKey) {
		// State codes collide globally, not per country.
		field, value := "code", codeKey
		if _, codeErr := s.store.States().GetByCode(ctx, codeKey); errors.Is(codeErr, ErrNotFound) {
			field, value = "name", name
		}
		return nil, ConflictError{Level: LevelState, Field: field, Value: value}
	}
	if err != nil {
		return nil, fmt.Errorf("create state: %w", err)
	}

	if err := s.store.Countries().IncrementStateCount(ctx, countryID, 1); err != nil {
		return nil, fmt.Errorf("increment state count for country %s: %w", countryID, err)
	}
	return created, nil
}

func (s *Service) CreateCity(ctx context.Context, stateID, name string) (*City, error) {
	name = CleanText(name)
	if name == "" {
		return nil, ValidationError{Field: "name", Message: "required"}
	}

	if _, err := s.store.States().GetByID(ctx, stateID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NotFoundError{Level: LevelState, ID: stateID}
		}
		return nil, fmt.Errorf("get state %s: %w", stateID, err)
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, err
	}
	created, err := s.store.Cities().Create(ctx, CityCreateParams{
		ULID:    ulid,
		StateID: stateID,
		Name:    name,
	})
	if errors.Is(err, ErrDuplicateKey) {
		return nil, ConflictError{Level: LevelCity, Field: "name", Value: name}
	}
	if err != nil {
		return nil, fmt.Errorf("create city: %w", err)
	}

	if err := s.store.States().IncrementCityCount(ctx, stateID, 1); err != nil {
		return nil, fmt.Errorf("increment city count for state %s: %w", stateID, err)
	}
	return created, nil
}

func (s *Service) CreatePostalCode(ctx context.Context, cityID, pincode, area string) (*PostalCode, error) {
	pincode = strings.TrimSpace(pincode)
	if !ValidPincode(pincode) {
		return nil, ValidationError{Field: "pincode", Message: "must be 2-10 alphanumeric characters"}
	}
	area = NormalizeArea(area)

	city, err := s.store.Cities().GetByID(ctx, cityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NotFoundError{Level: LevelCity, ID: cityID}
		}
		return nil, fmt.Errorf("get city %s: %w", cityID, err)
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, err
	}
	created, err := s.store.PostalCodes().Create(ctx, PostalCodeCreateParams{
		ULID:    ulid,
		CityID:  cityID,
		Pincode: pincode,
		Area:    area,
	})
	if errors.Is(err, ErrDuplicateKey) {
		return nil, ConflictError{Level: LevelPostalCode, Field: "pincode", Value: pincode}
	}
	if err != nil {
		return nil, fmt.Errorf("create postal code: %w", err)
	}

	if err := s.store.Cities().IncrementPincodeCount(ctx, cityID, 1); err != nil {
		return nil, fmt.Errorf("increment pincode count for city %s: %w", cityID, err)
	}

	indexBestEffort(ctx, s.indexer, s.buildDocument(ctx, created, city))
	return created, nil
}

func (s *Service) ListCountries(ctx context.Context, params ListParams) ([]Country, int, error) {
	return s.store.Countries().List(ctx, params)
}

func (s *Service) ListStates(ctx context.Context, params ListParams) ([]State, int, error) {
	return s.store.States().List(ctx, params)
}

func (s *Service) ListCities(ctx context.Context, params ListParams) ([]City, int, error) {
	return s.store.Cities().List(ctx, params)
}

func (s *Service) ListPostalCodes(ctx context.Context, params ListParams) ([]PostalCode, int, error) {
	return s.store.PostalCodes().List(ctx, params)
}

// LookupByCode returns every active postal code carrying the code, each
// with its parent chain resolved. Every successful lookup increments
// the matched codes' usage counters: lookup frequency doubles as the
// popularity signal, not just registration writes.
func (s *Service) LookupByCode(ctx context.Context, code string) ([]PincodeDetail, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ValidationError{Field: "code", Message: "required"}
	}

	matches, err := s.store.PostalCodes().FindByPincode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find pincode %s: %w", code, err)
	}
	if len(matches) == 0 {
		return nil, NotFoundError{Level: LevelPostalCode, ID: code}
	}

	details := make([]PincodeDetail, 0, len(matches))
	for _, pc := range matches {
		detail := PincodeDetail{PostalCode: pc, City: Ref[City]{ID: pc.CityID}}

		city, err := detail.City.Resolve(func(id string) (*City, error) {
			return s.store.Cities().GetByID(ctx, id)
		})
		if err == nil {
			detail.City.Resolved = city
			detail.State = Ref[State]{ID: city.StateID}
			if state, stateErr := s.store.States().GetByID(ctx, city.StateID); stateErr == nil {
				detail.State.Resolved = state
				detail.Country = Ref[Country]{ID: state.CountryID}
				if country, countryErr := s.store.Countries().GetByID(ctx, state.CountryID); countryErr == nil {
					detail.Country.Resolved = country
				}
			}
		}

		if err := s.store.PostalCodes().IncrementUsage(ctx, pc.ID, 1); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("postal_code_id", pc.ID).Msg("usage increment failed")
		}

		details = append(details, detail)
	}

	return details, nil
}

func (s *Service) buildDocument(ctx context.Context, pc *PostalCode, city *City) SearchDocument {
	var state *State
	var country *Country
	if city != nil {
		if st, err := s.store.States().GetByID(ctx, city.StateID); err == nil {
			state = st
			if c, err := s.store.Countries().GetByID(ctx, st.CountryID); err == nil {
				country = c
			}
		}
	}
	return BuildSearchDocument(pc, city, state, country)
}
