package locations

import "context"

// ListParams filters paged listings. ParentID scopes states to a
// country, cities to a state, and postal codes to a city; it is ignored
// for countries.
type ListParams struct {
	ParentID        string
	Query           string // case-insensitive name/code match
	Offset          int
	Limit           int
	IncludeInactive bool
}

type CountryCreateParams struct {
	ULID string
	Name string
	Code string
}

type StateCreateParams struct {
	ULID      string
	CountryID string
	Name      string
	Code      string
}

type CityCreateParams struct {
	ULID    string
	StateID string
	Name    string
}

type PostalCodeCreateParams struct {
	ULID    string
	CityID  string
	Pincode string
	Area    string
}

// CountryRepository is the Entity Store contract for countries. Create
// returns ErrDuplicateKey when a uniqueness constraint fires; lookups
// return ErrNotFound when no row matches. Counter mutations must be
// atomic read-free increments.
type CountryRepository interface {
	GetByID(ctx context.Context, id string) (*Country, error)
	GetByCode(ctx context.Context, code string) (*Country, error)
	GetByName(ctx context.Context, name string) (*Country, error)
	Create(ctx context.Context, params CountryCreateParams) (*Country, error)
	List(ctx context.Context, params ListParams) ([]Country, int, error)
	IncrementStateCount(ctx context.Context, id string, delta int) error
	SetUsageCount(ctx context.Context, id string, count int) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	CountChildren(ctx context.Context, id string) (int, error)
}

type StateRepository interface {
	GetByID(ctx context.Context, id string) (*State, error)
	// GetByCode looks up by state code alone: the code is globally
	// unique, not unique-per-country.
	GetByCode(ctx context.Context, code string) (*State, error)
	GetByName(ctx context.Context, countryID, name string) (*State, error)
	Create(ctx context.Context, params StateCreateParams) (*State, error)
	List(ctx context.Context, params ListParams) ([]State, int, error)
	IncrementCityCount(ctx context.Context, id string, delta int) error
	SetUsageCount(ctx context.Context, id string, count int) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	CountChildren(ctx context.Context, id string) (int, error)
}

type CityRepository interface {
	GetByID(ctx context.Context, id string) (*City, error)
	GetByName(ctx context.Context, stateID, name string) (*City, error)
	Create(ctx context.Context, params CityCreateParams) (*City, error)
	List(ctx context.Context, params ListParams) ([]City, int, error)
	IncrementPincodeCount(ctx context.Context, id string, delta int) error
	SetUsageCount(ctx context.Context, id string, count int) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	CountChildren(ctx context.Context, id string) (int, error)
}

type PostalCodeRepository interface {
	GetByID(ctx context.Context, id string) (*PostalCode, error)
	// GetByCompoundKey requires an exact (pincode, cityID, area) match,
	// empty-string area included.
	GetByCompoundKey(ctx context.Context, pincode, cityID, area string) (*PostalCode, error)
	// FindByPincode returns every active postal code carrying the code,
	// across cities and areas.
	FindByPincode(ctx context.Context, pincode string) ([]PostalCode, error)
	Create(ctx context.Context, params PostalCodeCreateParams) (*PostalCode, error)
	List(ctx context.Context, params ListParams) ([]PostalCode, int, error)
	IncrementUsage(ctx context.Context, id string, delta int) error
	SetUsageCount(ctx context.Context, id string, count int) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// RegistrationCounter counts live visitor registrations in the external
// registration store that reference a location entity. Read-only from
// this package's point of view.
type RegistrationCounter interface {
	CountActive(ctx context.Context, level Level, locationID string) (int, error)
}

// Store groups the Entity Store repositories by level.
type Store interface {
	Countries() CountryRepository
	States() StateRepository
	Cities() CityRepository
	PostalCodes() PostalCodeRepository
	Registrations() RegistrationCounter

	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
}
