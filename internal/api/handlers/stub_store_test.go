package handlers

import (
	"context"
	"errors"

	"github.com/expopass/server/internal/domain/locations"
)

// stubStore wires function-field repositories into a locations.Store.
// Tests set only the functions their scenario touches; everything else
// fails loudly.
type stubStore struct {
	countries stubCountriesRepo
	states    stubStatesRepo
	cities    stubCitiesRepo
	postals   stubPostalsRepo
	regs      stubRegistrations
}

func (s *stubStore) Countries() locations.CountryRepository      { return &s.countries }
func (s *stubStore) States() locations.StateRepository           { return &s.states }
func (s *stubStore) Cities() locations.CityRepository            { return &s.cities }
func (s *stubStore) PostalCodes() locations.PostalCodeRepository { return &s.postals }
func (s *stubStore) Registrations() locations.RegistrationCounter {
	return &s.regs
}

func (s *stubStore) WithTx(ctx context.Context, fn func(context.Context, locations.Store) error) error {
	return fn(ctx, s)
}

var errStubNotImplemented = errors.New("not implemented")

type stubCountriesRepo struct {
	getByIDFn       func(id string) (*locations.Country, error)
	getByCodeFn     func(code string) (*locations.Country, error)
	createFn        func(params locations.CountryCreateParams) (*locations.Country, error)
	listFn          func(params locations.ListParams) ([]locations.Country, int, error)
	incrementFn     func(id string, delta int) error
	countChildrenFn func(id string) (int, error)
	setActiveFn     func(id string, active bool) error
	deleteFn        func(id string) error
}

func (s *stubCountriesRepo) GetByID(_ context.Context, id string) (*locations.Country, error) {
	if s.getByIDFn == nil {
		return nil, errStubNotImplemented
	}
	return s.getByIDFn(id)
}

func (s *stubCountriesRepo) GetByCode(_ context.Context, code string) (*locations.Country, error) {
	if s.getByCodeFn == nil {
		return nil, errStubNotImplemented
	}
	return s.getByCodeFn(code)
}

func (s *stubCountriesRepo) GetByName(_ context.Context, _ string) (*locations.Country, error) {
	return nil, errStubNotImplemented
}

func (s *stubCountriesRepo) Create(_ context.Context, params locations.CountryCreateParams) (*locations.Country, error) {
	if s.createFn == nil {
		return nil, errStubNotImplemented
	}
	return s.createFn(params)
}

func (s *stubCountriesRepo) List(_ context.Context, params locations.ListParams) ([]locations.Country, int, error) {
	if s.listFn == nil {
		return nil, 0, errStubNotImplemented
	}
	return s.listFn(params)
}

func (s *stubCountriesRepo) IncrementStateCount(_ context.Context, id string, delta int) error {
	if s.incrementFn == nil {
		return nil
	}
	return s.incrementFn(id, delta)
}

func (s *stubCountriesRepo) SetUsageCount(_ context.Context, _ string, _ int) error {
	return errStubNotImplemented
}

func (s *stubCountriesRepo) SetActive(_ context.Context, id string, active bool) error {
	if s.setActiveFn == nil {
		return errStubNotImplemented
	}
	return s.setActiveFn(id, active)
}

func (s *stubCountriesRepo) Delete(_ context.Context, id string) error {
	if s.deleteFn == nil {
		return errStubNotImplemented
	}
	return s.deleteFn(id)
}

func (s *stubCountriesRepo) CountChildren(_ context.Context, id string) (int, error) {
	if s.countChildrenFn == nil {
		return 0, errStubNotImplemented
	}
	return s.countChildrenFn(id)
}

type stubStatesRepo struct {
	getByIDFn   func(id string) (*locations.State, error)
	getByCodeFn func(code string) (*locations.State, error)
	createFn    func(params locations.StateCreateParams) (*locations.State, error)
	listFn      func(params locations.ListParams) ([]locations.State, int, error)
}

func (s *stubStatesRepo) GetByID(_ context.Context, id string) (*locations.State, error) {
	if s.getByIDFn == nil {
		return nil, errStubNotImplemented
	}
	return s.getByIDFn(id)
}

func (s *stubStatesRepo) GetByCode(_ context.Context, code string) (*locations.State, error) {
	if s.getByCodeFn == nil {
		return nil, errStubNotImplemented
	}
	return s.getByCodeFn(code)
}

func (s *stubStatesRepo) GetByName(_ context.Context, _, _ string) (*locations.State, error) {
	return nil, errStubNotImplemented
}

func (s *stubStatesRepo) Create(_ context.Context, params locations.StateCreateParams) (*locations.State, error) {
	if s.createFn == nil {
		return nil, errStubNotImplemented
	}
	return s.createFn(params)
}

func (s *stubStatesRepo) List(_ context.Context, params locations.ListParams) ([]locations.State, int, error) {
	if s.listFn == nil {
		return nil, 0, errStubNotImplemented
	}
	return s.listFn(params)
}

func (s *stubStatesRepo) IncrementCityCount(_ context.Context, _ string, _ int) error { return nil }
func (s *stubStatesRepo) SetUsageCount(_ context.Context, _ string, _ int) error {
	return errStubNotImplemented
}
func (s *stubStatesRepo) SetActive(_ context.Context, _ string, _ bool) error {
	return errStubNotImplemented
}
func (s *stubStatesRepo) Delete(_ context.Context, _ string) error { return errStubNotImplemented }
func (s *stubStatesRepo) CountChildren(_ context.Context, _ string) (int, error) {
	return 0, errStubNotImplemented
}

type stubCitiesRepo struct {
	getByIDFn   func(id string) (*locations.City, error)
	getByNameFn func(stateID, name string) (*locations.City, error)
	createFn    func(params locations.CityCreateParams) (*locations.City, error)
	listFn      func(params locations.ListParams) ([]locations.City, int, error)
}

func (s *stubCitiesRepo) GetByID(_ context.Context, id string) (*locations.City, error) {
	if s.getByIDFn == nil {
		return nil, errStubNotImplemented
	}
	return s.getByIDFn(id)
}

func (s *stubCitiesRepo) GetByName(_ context.Context, stateID, name string) (*locations.City, error) {
	if s.getByNameFn == nil {
		return nil, errStubNotImplemented
	}
	return s.getByNameFn(stateID, name)
}

func (s *stubCitiesRepo) Create(_ context.Context, params locations.CityCreateParams) (*locations.City, error) {
	if s.createFn == nil {
		return nil, errStubNotImplemented
	}
	return s.createFn(params)
}

func (s *stubCitiesRepo) List(_ context.Context, params locations.ListParams) ([]locations.City, int, error) {
	if s.listFn == nil {
		return nil, 0, errStubNotImplemented
	}
	return s.listFn(params)
}

func (s *stubCitiesRepo) IncrementPincodeCount(_ context.Context, _ string, _ int) error { return nil }
func (s *stubCitiesRepo) SetUsageCount(_ context.Context, _ string, _ int) error {
	return errStubNotImplemented
}
func (s *stubCitiesRepo) SetActive(_ context.Context, _ string, _ bool) error {
	return errStubNotImplemented
}
func (s *stubCitiesRepo) Delete(_ context.Context, _ string) error { return errStubNotImplemented }
func (s *stubCitiesRepo) CountChildren(_ context.Context, _ string) (int, error) {
	return 0, errStubNotImplemented
}

type stubPostalsRepo struct {
	getByIDFn       func(id string) (*locations.PostalCode, error)
	getByKeyFn      func(pincode, cityID, area string) (*locations.PostalCode, error)
	findByPincodeFn func(pincode string) ([]locations.PostalCode, error)
	createFn        func(params locations.PostalCodeCreateParams) (*locations.PostalCode, error)
	listFn          func(params locations.ListParams) ([]locations.PostalCode, int, error)
	incrementFn     func(id string, delta int) error
	deleteFn        func(id string) error
}

func (s *stubPostalsRepo) GetByID(_ context.Context, id string) (*locations.PostalCode, error) {
	if s.getByIDFn == nil {
		return nil, errStubNotImplemented
	}
	return s.getByIDFn(id)
}

func (s *stubPostalsRepo) GetByCompoundKey(_ context.Context, pincode, cityID, area string) (*locations.PostalCode, error) {
	if s.getByKeyFn == nil {
		return nil, errStubNotImplemented
	}
	return s.getByKeyFn(pincode, cityID, area)
}

func (s *stubPostalsRepo) FindByPincode(_ context.Context, pincode string) ([]locations.PostalCode, error) {
	if s.findByPincodeFn == nil {
		return nil, errStubNotImplemented
	}
	return s.findByPincodeFn(pincode)
}

func (s *stubPostalsRepo) Create(_ context.Context, params locations.PostalCodeCreateParams) (*locations.PostalCode, error) {
	if s.createFn == nil {
		return nil, errStubNotImplemented
	}
	return s.createFn(params)
}

func (s *stubPostalsRepo) List(_ context.Context, params locations.ListParams) ([]locations.PostalCode, int, error) {
	if s.listFn == nil {
		return nil, 0, errStubNotImplemented
	}
	return s.listFn(params)
}

func (s *stubPostalsRepo) IncrementUsage(_ context.Context, id string, delta int) error {
	if s.incrementFn == nil {
		return nil
	}
	return s.incrementFn(id, delta)
}

func (s *stubPostalsRepo) SetUsageCount(_ context.Context, _ string, _ int) error {
	return errStubNotImplemented
}
func (s *stubPostalsRepo) SetActive(_ context.Context, _ string, _ bool) error {
	return errStubNotImplemented
}

func (s *stubPostalsRepo) Delete(_ context.Context, id string) error {
	if s.deleteFn == nil {
		return errStubNotImplemented
	}
	return s.deleteFn(id)
}

type stubRegistrations struct {
	countActiveFn func(level locations.Level, locationID string) (int, error)
}

func (s *stubRegistrations) CountActive(_ context.Context, level locations.Level, locationID string) (int, error) {
	if s.countActiveFn == nil {
		return 0, nil
	}
	return s.countActiveFn(level, locationID)
}
