package locations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteRejectsWhileChildrenExist(t *testing.T) {
	store := NewMockStore()
	country := store.seedCountry("India", "IN")
	state := store.seedState(country.ID, "Gujarat", "GJ")
	store.seedCity(state.ID, "Ahmedabad")
	store.seedCity(state.ID, "Surat")
	svc := NewDeleteService(store, nil)
	ctx := context.Background()

	_, err := svc.Delete(ctx, LevelCountry, country.ID)
	var depErr DependencyExistsError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, LevelState, depErr.ChildLevel)
	assert.Equal(t, 1, depErr.Count)

	_, err = svc.Delete(ctx, LevelState, state.ID)
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, LevelCity, depErr.ChildLevel)
	assert.Equal(t, 2, depErr.Count)
	assert.Contains(t, err.Error(), "2 cities", "plural child noun")

	// Nothing was removed or deactivated.
	assert.Len(t, store.countries, 1)
	assert.Len(t, store.states, 1)
	assert.True(t, store.states[state.ID].IsActive)
}

func TestDeleteSoftDeactivatesWhenUsed(t *testing.T) {
	store := NewMockStore()
	country := store.seedCountry("India", "IN")
	state := store.seedState(country.ID, "Gujarat", "GJ")
	city := store.seedCity(state.ID, "Ahmedabad")
	pc := store.seedPostalCode(city.ID, "380001", "Ellis Bridge")
	store.postalCodes[pc.ID].UsageCount = 9
	indexer := &recordingIndexer{}
	svc := NewDeleteService(store, indexer)

	result, err := svc.Delete(context.Background(), LevelPostalCode, pc.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{SoftDeleted: true, UsageCount: 9}, result)

	// Row survives for historical registrations, hidden from lookups.
	require.Contains(t, store.postalCodes, pc.ID)
	assert.False(t, store.postalCodes[pc.ID].IsActive)

	// Search must stop returning it right away, not at the next rebuild.
	assert.Equal(t, []string{pc.ID}, indexer.deleted)
}

func TestDeleteHardDeletesAndDecrementsParent(t *testing.T) {
	store := NewMockStore()
	country := store.seedCountry("India", "IN")
	state := store.seedState(country.ID, "Gujarat", "GJ")
	city := store.seedCity(state.ID, "Ahmedabad")
	pc := store.seedPostalCode(city.ID, "380001", "Ellis Bridge")
	store.cities[city.ID].PincodeCount = 1
	indexer := &recordingIndexer{}
	svc := NewDeleteService(store, indexer)
	ctx := context.Background()

	result, err := svc.Delete(ctx, LevelPostalCode, pc.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{Deleted: true}, result)
	assert.NotContains(t, store.postalCodes, pc.ID)
	assert.Equal(t, 0, store.cities[city.ID].PincodeCount)
	assert.Equal(t, []string{pc.ID}, indexer.deleted)

	// With the leaf gone the city qualifies for hard delete too.
	store.states[state.ID].CityCount = 1
	result, err = svc.Delete(ctx, LevelCity, city.ID)
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.Equal(t, 0, store.states[state.ID].CityCount)
}

func TestDeleteUnknownIDAndLevel(t *testing.T) {
	svc := NewDeleteService(NewMockStore(), nil)
	ctx := context.Background()

	_, err := svc.Delete(ctx, LevelCity, "missing")
	var notFound NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, LevelCity, notFound.Level)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.Delete(ctx, Level("district"), "id-1")
	var validationErr ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestDeleteSurvivesIndexerFailure(t *testing.T) {
	store := NewMockStore()
	country := store.seedCountry("India", "IN")
	state := store.seedState(country.ID, "Gujarat", "GJ")
	city := store.seedCity(state.ID, "Ahmedabad")
	pc := store.seedPostalCode(city.ID, "380001", "Ellis Bridge")
	svc := NewDeleteService(store, &recordingIndexer{err: errors.New("search backend down")})

	result, err := svc.Delete(context.Background(), LevelPostalCode, pc.ID)
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.NotContains(t, store.postalCodes, pc.ID)
}

func TestBulkDeleteContinuesPastFailures(t *testing.T) {
	store := NewMockStore()
	country := store.seedCountry("India", "IN")
	state := store.seedState(country.ID, "Gujarat", "GJ")
	city := store.seedCity(state.ID, "Ahmedabad")
	hard := store.seedPostalCode(city.ID, "380001", "Ellis Bridge")
	soft := store.seedPostalCode(city.ID, "380009", "Navrangpura")
	store.postalCodes[soft.ID].UsageCount = 3
	svc := NewDeleteService(store, nil)

	result, err := svc.BulkDelete(context.Background(), LevelPostalCode, []string{hard.ID, "missing", soft.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.SoftDeleted)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "missing", result.Errors[0].ID)
}
