package locations

import (
	"context"
	"errors"
	"fmt"
)

// DeleteResult reports how a delete request was resolved and the usage
// count that drove the decision.
type DeleteResult struct {
	Deleted     bool `json:"deleted"`
	SoftDeleted bool `json:"softDeleted"`
	UsageCount  int  `json:"usageCount"`
}

type BulkDeleteError struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type BulkDeleteResult struct {
	Deleted     int               `json:"deleted"`
	SoftDeleted int               `json:"softDeleted"`
	Failed      int               `json:"failed"`
	Errors      []BulkDeleteError `json:"errors,omitempty"`
}

// DeleteService applies the deletion policy:
//
//   - live children present: reject with DependencyExistsError naming
//     the child type and count; deletes cascade bottom-up or not at all
//   - usageCount > 0: soft-deactivate, because historical registrations
//     still reference the row by ID
//   - otherwise: hard delete and decrement the parent's cached child count
type DeleteService struct {
	store   Store
	indexer Indexer
}

func NewDeleteService(store Store, indexer Indexer) *DeleteService {
	return &DeleteService{store: store, indexer: indexer}
}

func (s *DeleteService) Delete(ctx context.Context, level Level, id string) (DeleteResult, error) {
	if s == nil || s.store == nil {
		return DeleteResult{}, fmt.Errorf("delete: store not configured")
	}

	switch level {
	case LevelCountry:
		return s.deleteCountry(ctx, id)
	case LevelState:
		return s.deleteState(ctx, id)
	case LevelCity:
		return s.deleteCity(ctx, id)
	case LevelPostalCode:
		return s.deletePostalCode(ctx, id)
	}
	return DeleteResult{}, ValidationError{Field: "level", Message: fmt.Sprintf("unknown level %q", level)}
}

// BulkDelete applies the same policy to each ID, continuing past
// individual failures. One bad ID never aborts the batch.
func (s *DeleteService) BulkDelete(ctx context.Context, level Level, ids []string) (BulkDeleteResult, error) {
	if s == nil || s.store == nil {
		return BulkDeleteResult{}, fmt.Errorf("delete: store not configured")
	}

	result := BulkDeleteResult{}
	for _, id := range ids {
		outcome, err := s.Delete(ctx, level, id)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkDeleteError{ID: id, Reason: err.Error()})
			continue
		}
		if outcome.SoftDeleted {
			result.SoftDeleted++
		} else {
			result.Deleted++
		}
	}
	return result, nil
}

func (s *DeleteService) deleteCountry(ctx context.Context, id string) (DeleteResult, error) {
	country, err := s.store.Countries().GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return DeleteResult{}, NotFoundError{Level: LevelCountry, ID: id}
	}
	if err != nil {
		return DeleteResult{}, fmt.Errorf("get country %s: %w", id, err)
	}

	children, err := s.store.Countries().CountChildren(ctx, id)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("count states of country %s: %w", id, err)
	}
	if children > 0 {
		return DeleteResult{}, DependencyExistsError{Level: LevelCountry, ChildLevel: LevelState, Count: children}
	}

	if country.UsageCount > 0 {
		if err := s.store.Countries().SetActive(ctx, id, false); err != nil {
			return DeleteResult{}, fmt.Errorf("deactivate country %s: %w", id, err)
		}
		return DeleteResult{SoftDeleted: true, UsageCount: country.UsageCount}, nil
	}

	if err := s.store.Countries().Delete(ctx, id); err != nil {
		return DeleteResult{}, fmt.Errorf("delete country %s: %w", id, err)
	}
	return DeleteResult{Deleted: true}, nil
}

func (s *DeleteService) deleteState(ctx context.Context, id string) (DeleteResult, error) {
	state, err := s.store.States().GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return DeleteResult{}, NotFoundError{Level: LevelState, ID: id}
	}
	if err != nil {
		return DeleteResult{}, fmt.Errorf("get state %s: %w", id, err)
	}

	children, err := s.store.States().CountChildren(ctx, id)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("count cities of state %s: %w", id, err)
	}
	if children > 0 {
		return DeleteResult{}, DependencyExistsError{Level: LevelState, ChildLevel: LevelCity, Count: children}
	}

	if state.UsageCount > 0 {
		if err := s.store.States().SetActive(ctx, id, false); err != nil {
			return DeleteResult{}, fmt.Errorf("deactivate state %s: %w", id, err)
		}
		return DeleteResult{SoftDeleted: true, UsageCount: state.UsageCount}, nil
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.States().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete state %s: %w", id, err)
		}
		if err := tx.Countries().IncrementStateCount(ctx, state.CountryID, -1); err != nil {
			return fmt.Errorf("decrement state count for country %s: %w", state.CountryID, err)
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Deleted: true}, nil
}

func (s *DeleteService) deleteCity(ctx context.Context, id string) (DeleteResult, error) {
	city, err := s.store.Cities().GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return DeleteResult{}, NotFoundError{Level: LevelCity, ID: id}
	}
	if err != nil {
		return DeleteResult{}, fmt.Errorf("get city %s: %w", id, err)
	}

	children, err := s.store.Cities().CountChildren(ctx, id)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("count postal codes of city %s: %w", id, err)
	}
	if children > 0 {
		return DeleteResult{}, DependencyExistsError{Level: LevelCity, ChildLevel: LevelPostalCode, Count: children}
	}

	if city.UsageCount > 0 {
		if err := s.store.Cities().SetActive(ctx, id, false); err != nil {
			return DeleteResult{}, fmt.Errorf("deactivate city %s: %w", id, err)
		}
		return DeleteResult{SoftDeleted: true, UsageCount: city.UsageCount}, nil
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Cities().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete city %s: %w", id, err)
		}
		if err := tx.States().IncrementCityCount(ctx, city.StateID, -1); err != nil {
			return fmt.Errorf("decrement city count for state %s: %w", city.StateID, err)
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Deleted: true}, nil
}

func (s *DeleteService) deletePostalCode(ctx context.Context, id string) (DeleteResult, error) {
	pc, err := s.store.PostalCodes().GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return DeleteResult{}, NotFoundError{Level: LevelPostalCode, ID: id}
	}
	if err != nil {
		return DeleteResult{}, fmt.Errorf("get postal code %s: %w", id, err)
	}

	if pc.UsageCount > 0 {
		if err := s.store.PostalCodes().SetActive(ctx, id, false); err != nil {
			return DeleteResult{}, fmt.Errorf("deactivate postal code %s: %w", id, err)
		}
		// The index mirrors lookup visibility, not row existence, so a
		// deactivated pincode leaves it immediately.
		deleteIndexBestEffort(ctx, s.indexer, id)
		return DeleteResult{SoftDeleted: true, UsageCount: pc.UsageCount}, nil
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.PostalCodes().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete postal code %s: %w", id, err)
		}
		if err := tx.Cities().IncrementPincodeCount(ctx, pc.CityID, -1); err != nil {
			return fmt.Errorf("decrement pincode count for city %s: %w", pc.CityID, err)
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}

	deleteIndexBestEffort(ctx, s.indexer, id)
	return DeleteResult{Deleted: true}, nil
}
