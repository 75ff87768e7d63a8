package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/expopass/server/internal/domain/ids"
)

// MaxImportErrors bounds the error list carried in an ImportResult.
// Import volumes run to hundreds of thousands of rows; accumulating one
// message per bad row is a memory hazard, so the list is capped and a
// truncation notice appended once.
const MaxImportErrors = 200

// ImportRow is one flat location tuple from a bulk file.
type ImportRow struct {
	CountryName string `json:"countryName"`
	CountryCode string `json:"countryCode"`
	StateName   string `json:"stateName"`
	StateCode   string `json:"stateCode"`
	City        string `json:"city"`
	Pincode     string `json:"pincode"`
	Area        string `json:"area"`
}

// RowStatus classifies the outcome of one import row.
type RowStatus string

const (
	RowCreated RowStatus = "created"
	RowSkipped RowStatus = "skipped"
	RowFailed  RowStatus = "failed"
)

// RowResult reports one row's outcome with the IDs touched on the way
// down the hierarchy.
type RowResult struct {
	Status       RowStatus
	CountryID    string
	StateID      string
	CityID       string
	PostalCodeID string
	Err          error
}

// ImportDetails breaks an import down by what was minted per level.
type ImportDetails struct {
	CountriesCreated int `json:"countriesCreated"`
	StatesCreated    int `json:"statesCreated"`
	CitiesCreated    int `json:"citiesCreated"`
	PincodesCreated  int `json:"pincodesCreated"`
	PincodesSkipped  int `json:"pincodesSkipped"`
}

// ImportResult is the aggregate outcome of one bulk import run. Bulk
// imports always return a result, never throw: a row's failure lands in
// Errors and the batch continues.
type ImportResult struct {
	Success int           `json:"success"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Errors  []string      `json:"errors,omitempty"`
	Details ImportDetails `json:"details"`
}

func (r *ImportResult) recordError(index int, err error) {
	r.Failed++
	if len(r.Errors) < MaxImportErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("row %d: %v", index, err))
		return
	}
	if len(r.Errors) == MaxImportErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("error list truncated at %d entries", MaxImportErrors))
	}
}

// ImportService drives the resolver over a batch of rows. Each call to
// ImportRows gets a fresh resolver so per-run caches never leak across
// concurrent imports.
type ImportService struct {
	store   Store
	indexer Indexer
}

func NewImportService(store Store, indexer Indexer) *ImportService {
	return &ImportService{store: store, indexer: indexer}
}

// ValidateRow checks the required fields. Country code, state code,
// city and pincode must be present; names and area are optional text.
func ValidateRow(row ImportRow) error {
	if !ValidCountryCode(row.CountryCode) {
		return ValidationError{Field: "countryCode", Message: "2-letter code required"}
	}
	if strings.TrimSpace(row.StateCode) == "" {
		return ValidationError{Field: "stateCode", Message: "required"}
	}
	if strings.TrimSpace(row.City) == "" {
		return ValidationError{Field: "city", Message: "required"}
	}
	if !ValidPincode(row.Pincode) {
		return ValidationError{Field: "pincode", Message: "must be 2-10 alphanumeric characters"}
	}
	return nil
}

// ImportRows processes rows in input order. A failed row never aborts
// the batch, and there is no batch-level transaction: hierarchy rows
// are legitimately shared with concurrent imports, and the compound
// dedup key makes re-running the same input idempotent.
func (s *ImportService) ImportRows(ctx context.Context, rows []ImportRow) (*ImportResult, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("import: store not configured")
	}

	resolver := NewResolver(s.store)
	result := &ImportResult{}

	for i, row := range rows {
		rowResult := s.importRow(ctx, resolver, row, result)
		switch rowResult.Status {
		case RowCreated:
			result.Success++
			result.Details.PincodesCreated++
		case RowSkipped:
			result.Skipped++
			result.Details.PincodesSkipped++
		case RowFailed:
			result.recordError(i, rowResult.Err)
		}
	}

	return result, nil
}

// ResolveAndCreatePostalCode runs one row through a one-off resolver.
// Exposed for the single-row API; bulk imports share a resolver via
// ImportRows instead.
func (s *ImportService) ResolveAndCreatePostalCode(ctx context.Context, row ImportRow) (*RowResult, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("import: store not configured")
	}
	result := &ImportResult{}
	rowResult := s.importRow(ctx, NewResolver(s.store), row, result)
	if rowResult.Status == RowFailed {
		return &rowResult, rowResult.Err
	}
	return &rowResult, nil
}

func (s *ImportService) importRow(ctx context.Context, resolver *Resolver, row ImportRow, result *ImportResult) RowResult {
	if err := ValidateRow(row); err != nil {
		return RowResult{Status: RowFailed, Err: err}
	}

	hierarchy, err := resolver.Resolve(ctx, row.CountryName, row.CountryCode, row.StateName, row.StateCode, row.City)
	if err != nil {
		return RowResult{Status: RowFailed, Err: err}
	}
	if hierarchy.CountryCreated {
		result.Details.CountriesCreated++
	}
	if hierarchy.StateCreated {
		result.Details.StatesCreated++
	}
	if hierarchy.CityCreated {
		result.Details.CitiesCreated++
	}

	rowResult := RowResult{
		CountryID: hierarchy.Country.ID,
		StateID:   hierarchy.State.ID,
		CityID:    hierarchy.City.ID,
	}

	pincode := strings.TrimSpace(row.Pincode)
	area := NormalizeArea(row.Area)

	postalCodes := s.store.PostalCodes()
	existing, err := postalCodes.GetByCompoundKey(ctx, pincode, hierarchy.City.ID, area)
	if err == nil {
		rowResult.Status = RowSkipped
		rowResult.PostalCodeID = existing.ID
		return rowResult
	}
	if !errors.Is(err, ErrNotFound) {
		rowResult.Status = RowFailed
		rowResult.Err = fmt.Errorf("find postal code %s: %w", pincode, err)
		return rowResult
	}

	ulid, err := ids.NewULID()
	if err != nil {
		rowResult.Status = RowFailed
		rowResult.Err = err
		return rowResult
	}
	created, err := postalCodes.Create(ctx, PostalCodeCreateParams{
		ULID:    ulid,
		CityID:  hierarchy.City.ID,
		Pincode: pincode,
		Area:    area,
	})
	if errors.Is(err, ErrDuplicateKey) {
		// A concurrent import inserted the same compound key between
		// our lookup and create. Same row, so it counts as skipped.
		winner, refetchErr := postalCodes.GetByCompoundKey(ctx, pincode, hierarchy.City.ID, area)
		if refetchErr != nil {
			rowResult.Status = RowFailed
			rowResult.Err = fmt.Errorf("refetch postal code %s after conflict: %w", pincode, refetchErr)
			return rowResult
		}
		rowResult.Status = RowSkipped
		rowResult.PostalCodeID = winner.ID
		return rowResult
	}
	if err != nil {
		rowResult.Status = RowFailed
		rowResult.Err = fmt.Errorf("create postal code %s: %w", pincode, err)
		return rowResult
	}

	if err := s.store.Cities().IncrementPincodeCount(ctx, hierarchy.City.ID, 1); err != nil {
		rowResult.Status = RowFailed
		rowResult.Err = fmt.Errorf("increment pincode count for city %s: %w", hierarchy.City.ID, err)
		return rowResult
	}

	rowResult.Status = RowCreated
	rowResult.PostalCodeID = created.ID

	doc := BuildSearchDocument(created, hierarchy.City, hierarchy.State, hierarchy.Country)
	indexBestEffort(ctx, s.indexer, doc)

	return rowResult
}
