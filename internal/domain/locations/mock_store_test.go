package locations

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockStore implements Store in memory for tests. It enforces the same
// uniqueness constraints as the real schema and reports violations with
// ErrDuplicateKey, so resolver race handling is exercised for real.
type MockStore struct {
	mu sync.Mutex

	countries   map[string]*Country
	states      map[string]*State
	cities      map[string]*City
	postalCodes map[string]*PostalCode

	countryOrder    []string
	stateOrder      []string
	cityOrder       []string
	postalCodeOrder []string

	registrations map[Level]map[string]int

	nextID int

	// Behavior controls
	failCountryCreate   error
	failPostalCreate    error
	failSetUsage        error
	failCountActive     error
	beforeCountryCreate func()
	beforePostalCreate  func()
	countryCreateCalls  int
	postalCreateCalls   int
	usageWrites         int
}

func NewMockStore() *MockStore {
	return &MockStore{
		countries:     make(map[string]*Country),
		states:        make(map[string]*State),
		cities:        make(map[string]*City),
		postalCodes:   make(map[string]*PostalCode),
		registrations: make(map[Level]map[string]int),
	}
}

func (m *MockStore) Countries() CountryRepository       { return (*mockCountries)(m) }
func (m *MockStore) States() StateRepository            { return (*mockStates)(m) }
func (m *MockStore) Cities() CityRepository             { return (*mockCities)(m) }
func (m *MockStore) PostalCodes() PostalCodeRepository  { return (*mockPostalCodes)(m) }
func (m *MockStore) Registrations() RegistrationCounter { return (*mockRegistrations)(m) }

func (m *MockStore) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	return fn(ctx, m)
}

func (m *MockStore) SetRegistrations(level Level, id string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registrations[level] == nil {
		m.registrations[level] = make(map[string]int)
	}
	m.registrations[level][id] = count
}

func (m *MockStore) id() string {
	m.nextID++
	return "id-" + itoa(m.nextID)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// --- countries ---

type mockCountries MockStore

func (m *mockCountries) GetByID(ctx context.Context, id string) (*Country, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.countries[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (m *mockCountries) GetByCode(ctx context.Context, code string) (*Country, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.countries {
		if c.Code == NormalizeCode(code) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockCountries) GetByName(ctx context.Context, name string) (*Country, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.countries {
		if strings.EqualFold(c.Name, name) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockCountries) Create(ctx context.Context, params CountryCreateParams) (*Country, error) {
	if m.beforeCountryCreate != nil {
		m.beforeCountryCreate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countryCreateCalls++
	if m.failCountryCreate != nil {
		return nil, m.failCountryCreate
	}
	for _, c := range m.countries {
		if c.Code == params.Code || strings.EqualFold(c.Name, params.Name) {
			return nil, ErrDuplicateKey
		}
	}
	country := &Country{
		ID:        (*MockStore)(m).id(),
		ULID:      params.ULID,
		Name:      params.Name,
		Code:      params.Code,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.countries[country.ID] = country
	m.countryOrder = append(m.countryOrder, country.ID)
	copied := *country
	return &copied, nil
}

func (m *mockCountries) List(ctx context.Context, params ListParams) ([]Country, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Country
	for _, id := range m.countryOrder {
		c := m.countries[id]
		if !params.IncludeInactive && !c.IsActive {
			continue
		}
		all = append(all, *c)
	}
	return pageOf(all, params), len(all), nil
}

func (m *mockCountries) IncrementStateCount(ctx context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.countries[id]
	if !ok {
		return ErrNotFound
	}
	c.StateCount += delta
	return nil
}

func (m *mockCountries) SetUsageCount(ctx context.Context, id string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSetUsage != nil {
		return m.failSetUsage
	}
	c, ok := m.countries[id]
	if !ok {
		return ErrNotFound
	}
	c.UsageCount = count
	m.usageWrites++
	return nil
}

func (m *mockCountries) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.countries[id]
	if !ok {
		return ErrNotFound
	}
	c.IsActive = active
	return nil
}

func (m *mockCountries) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.countries[id]; !ok {
		return ErrNotFound
	}
	delete(m.countries, id)
	m.countryOrder = removeID(m.countryOrder, id)
	return nil
}

func (m *mockCountries) CountChildren(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, st := range m.states {
		if st.CountryID == id {
			count++
		}
	}
	return count, nil
}

// --- states ---

type mockStates MockStore

func (m *mockStates) GetByID(ctx context.Context, id string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[id]; ok {
		copied := *st
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (m *mockStates) GetByCode(ctx context.Context, code string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.states {
		if st.Code == NormalizeCode(code) {
			copied := *st
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockStates) GetByName(ctx context.Context, countryID, name string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.states {
		if st.CountryID == countryID && strings.EqualFold(st.Name, name) {
			copied := *st
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockStates) Create(ctx context.Context, params StateCreateParams) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.states {
		// Code collides globally; name only within the country.
		if st.Code == params.Code {
			return nil, ErrDuplicateKey
		}
		if st.CountryID == params.CountryID && strings.EqualFold(st.Name, params.Name) {
			return nil, ErrDuplicateKey
		}
	}
	state := &State{
		ID:        (*MockStore)(m).id(),
		ULID:      params.ULID,
		CountryID: params.CountryID,
		Name:      params.Name,
		Code:      params.Code,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.states[state.ID] = state
	m.stateOrder = append(m.stateOrder, state.ID)
	copied := *state
	return &copied, nil
}

func (m *mockStates) List(ctx context.Context, params ListParams) ([]State, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []State
	for _, id := range m.stateOrder {
		st := m.states[id]
		if params.ParentID != "" && st.CountryID != params.ParentID {
			continue
		}
		if !params.IncludeInactive && !st.IsActive {
			continue
		}
		all = append(all, *st)
	}
	return pageOf(all, params), len(all), nil
}

func (m *mockStates) IncrementCityCount(ctx context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return ErrNotFound
	}
	st.CityCount += delta
	return nil
}

func (m *mockStates) SetUsageCount(ctx context.Context, id string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSetUsage != nil {
		return m.failSetUsage
	}
	st, ok := m.states[id]
	if !ok {
		return ErrNotFound
	}
	st.UsageCount = count
	m.usageWrites++
	return nil
}

func (m *mockStates) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return ErrNotFound
	}
	st.IsActive = active
	return nil
}

func (m *mockStates) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[id]; !ok {
		return ErrNotFound
	}
	delete(m.states, id)
	m.stateOrder = removeID(m.stateOrder, id)
	return nil
}

func (m *mockStates) CountChildren(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.cities {
		if c.StateID == id {
			count++
		}
	}
	return count, nil
}

// --- cities ---

type mockCities MockStore

func (m *mockCities) GetByID(ctx context.Context, id string) (*City, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cities[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (m *mockCities) GetByName(ctx context.Context, stateID, name string) (*City, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cities {
		if c.StateID == stateID && strings.EqualFold(c.Name, name) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockCities) Create(ctx context.Context, params CityCreateParams) (*City, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cities {
		if c.StateID == params.StateID && strings.EqualFold(c.Name, params.Name) {
			return nil, ErrDuplicateKey
		}
	}
	city := &City{
		ID:        (*MockStore)(m).id(),
		ULID:      params.ULID,
		StateID:   params.StateID,
		Name:      params.Name,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.cities[city.ID] = city
	m.cityOrder = append(m.cityOrder, city.ID)
	copied := *city
	return &copied, nil
}

func (m *mockCities) List(ctx context.Context, params ListParams) ([]City, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []City
	for _, id := range m.cityOrder {
		c := m.cities[id]
		if params.ParentID != "" && c.StateID != params.ParentID {
			continue
		}
		if !params.IncludeInactive && !c.IsActive {
			continue
		}
		all = append(all, *c)
	}
	return pageOf(all, params), len(all), nil
}

func (m *mockCities) IncrementPincodeCount(ctx context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cities[id]
	if !ok {
		return ErrNotFound
	}
	c.PincodeCount += delta
	return nil
}

func (m *mockCities) SetUsageCount(ctx context.Context, id string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSetUsage != nil {
		return m.failSetUsage
	}
	c, ok := m.cities[id]
	if !ok {
		return ErrNotFound
	}
	c.UsageCount = count
	m.usageWrites++
	return nil
}

func (m *mockCities) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cities[id]
	if !ok {
		return ErrNotFound
	}
	c.IsActive = active
	return nil
}

func (m *mockCities) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cities[id]; !ok {
		return ErrNotFound
	}
	delete(m.cities, id)
	m.cityOrder = removeID(m.cityOrder, id)
	return nil
}

func (m *mockCities) CountChildren(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, pc := range m.postalCodes {
		if pc.CityID == id {
			count++
		}
	}
	return count, nil
}

// --- postal codes ---

type mockPostalCodes MockStore

func (m *mockPostalCodes) GetByID(ctx context.Context, id string) (*PostalCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pc, ok := m.postalCodes[id]; ok {
		copied := *pc
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (m *mockPostalCodes) GetByCompoundKey(ctx context.Context, pincode, cityID, area string) (*PostalCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pc := range m.postalCodes {
		if pc.Pincode == pincode && pc.CityID == cityID && pc.Area == area {
			copied := *pc
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockPostalCodes) FindByPincode(ctx context.Context, pincode string) ([]PostalCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []PostalCode
	for _, id := range m.postalCodeOrder {
		pc := m.postalCodes[id]
		if pc.Pincode == pincode && pc.IsActive {
			matches = append(matches, *pc)
		}
	}
	return matches, nil
}

func (m *mockPostalCodes) Create(ctx context.Context, params PostalCodeCreateParams) (*PostalCode, error) {
	if m.beforePostalCreate != nil {
		m.beforePostalCreate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postalCreateCalls++
	if m.failPostalCreate != nil {
		return nil, m.failPostalCreate
	}
	for _, pc := range m.postalCodes {
		if pc.Pincode == params.Pincode && pc.CityID == params.CityID && pc.Area == params.Area {
			return nil, ErrDuplicateKey
		}
	}
	pc := &PostalCode{
		ID:        (*MockStore)(m).id(),
		ULID:      params.ULID,
		CityID:    params.CityID,
		Pincode:   params.Pincode,
		Area:      params.Area,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.postalCodes[pc.ID] = pc
	m.postalCodeOrder = append(m.postalCodeOrder, pc.ID)
	copied := *pc
	return &copied, nil
}

func (m *mockPostalCodes) List(ctx context.Context, params ListParams) ([]PostalCode, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []PostalCode
	for _, id := range m.postalCodeOrder {
		pc := m.postalCodes[id]
		if params.ParentID != "" && pc.CityID != params.ParentID {
			continue
		}
		if !params.IncludeInactive && !pc.IsActive {
			continue
		}
		all = append(all, *pc)
	}
	return pageOf(all, params), len(all), nil
}

func (m *mockPostalCodes) IncrementUsage(ctx context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc, ok := m.postalCodes[id]
	if !ok {
		return ErrNotFound
	}
	pc.UsageCount += delta
	return nil
}

func (m *mockPostalCodes) SetUsageCount(ctx context.Context, id string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSetUsage != nil {
		return m.failSetUsage
	}
	pc, ok := m.postalCodes[id]
	if !ok {
		return ErrNotFound
	}
	pc.UsageCount = count
	m.usageWrites++
	return nil
}

func (m *mockPostalCodes) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc, ok := m.postalCodes[id]
	if !ok {
		return ErrNotFound
	}
	pc.IsActive = active
	return nil
}

func (m *mockPostalCodes) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.postalCodes[id]; !ok {
		return ErrNotFound
	}
	delete(m.postalCodes, id)
	m.postalCodeOrder = removeID(m.postalCodeOrder, id)
	return nil
}

// --- registrations ---

type mockRegistrations MockStore

func (m *mockRegistrations) CountActive(ctx context.Context, level Level, locationID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCountActive != nil {
		return 0, m.failCountActive
	}
	return m.registrations[level][locationID], nil
}

// --- seed helpers ---

func (m *MockStore) seedCountry(name, code string) *Country {
	m.mu.Lock()
	defer m.mu.Unlock()
	country := &Country{
		ID:       m.id(),
		Name:     name,
		Code:     NormalizeCode(code),
		IsActive: true,
	}
	m.countries[country.ID] = country
	m.countryOrder = append(m.countryOrder, country.ID)
	return country
}

func (m *MockStore) seedState(countryID, name, code string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := &State{
		ID:        m.id(),
		CountryID: countryID,
		Name:      name,
		Code:      NormalizeCode(code),
		IsActive:  true,
	}
	m.states[state.ID] = state
	m.stateOrder = append(m.stateOrder, state.ID)
	return state
}

func (m *MockStore) seedCity(stateID, name string) *City {
	m.mu.Lock()
	defer m.mu.Unlock()
	city := &City{
		ID:       m.id(),
		StateID:  stateID,
		Name:     name,
		IsActive: true,
	}
	m.cities[city.ID] = city
	m.cityOrder = append(m.cityOrder, city.ID)
	return city
}

func (m *MockStore) seedPostalCode(cityID, pincode, area string) *PostalCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc := &PostalCode{
		ID:       m.id(),
		CityID:   cityID,
		Pincode:  pincode,
		Area:     area,
		IsActive: true,
	}
	m.postalCodes[pc.ID] = pc
	m.postalCodeOrder = append(m.postalCodeOrder, pc.ID)
	return pc
}

// --- helpers ---

func pageOf[T any](all []T, params ListParams) []T {
	offset := params.Offset
	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if params.Limit > 0 && offset+params.Limit < end {
		end = offset + params.Limit
	}
	return all[offset:end]
}

func removeID(order []string, id string) []string {
	for i, candidate := range order {
		if candidate == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
