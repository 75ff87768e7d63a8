package locations

import "time"

// Level identifies one tier of the location hierarchy.
type Level string

const (
	LevelCountry    Level = "country"
	LevelState      Level = "state"
	LevelCity       Level = "city"
	LevelPostalCode Level = "pincode"
)

// ParseLevel maps an API-facing level string to a Level.
func ParseLevel(value string) (Level, bool) {
	switch Level(value) {
	case LevelCountry, LevelState, LevelCity, LevelPostalCode:
		return Level(value), true
	}
	return "", false
}

// ChildOf returns the child level one tier below, or false at the leaf.
func (l Level) ChildOf() (Level, bool) {
	switch l {
	case LevelCountry:
		return LevelState, true
	case LevelState:
		return LevelCity, true
	case LevelCity:
		return LevelPostalCode, true
	}
	return "", false
}

type Country struct {
	ID         string
	ULID       string
	Name       string
	Code       string // 2-letter, stored uppercase, globally unique
	IsActive   bool
	StateCount int
	UsageCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type State struct {
	ID        string
	ULID      string
	CountryID string
	Name      string // unique per country, case-insensitive
	Code      string // globally unique across all countries (see DESIGN.md)
	IsActive  bool
	CityCount int
	// UsageCount counts live registrations referencing this state.
	UsageCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type City struct {
	ID           string
	ULID         string
	StateID      string
	Name         string // unique per state, case-insensitive
	IsActive     bool
	PincodeCount int
	UsageCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PostalCode is the hierarchy leaf. Its dedup identity is the compound
// key (Pincode, CityID, Area), never Pincode alone: the same numeric code
// legitimately recurs under different areas.
type PostalCode struct {
	ID         string
	ULID       string
	CityID     string
	Pincode    string
	Area       string // trimmed; empty string is a valid, distinct area
	IsActive   bool
	UsageCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Ref holds a parent that may arrive as a bare ID or as a resolved
// entity, depending on the query path that produced it. Consumers go
// through Resolve instead of inspecting the fields directly.
type Ref[T any] struct {
	ID       string
	Resolved *T
}

// Resolve returns the resolved entity, fetching it through fn when only
// the ID is present. fn is typically a repository GetByID.
func (r Ref[T]) Resolve(fetch func(id string) (*T, error)) (*T, error) {
	if r.Resolved != nil {
		return r.Resolved, nil
	}
	return fetch(r.ID)
}

// PincodeDetail is a postal code with its parent chain resolved, as
// returned by lookup-by-code.
type PincodeDetail struct {
	PostalCode PostalCode
	City       Ref[City]
	State      Ref[State]
	Country    Ref[Country]
}
