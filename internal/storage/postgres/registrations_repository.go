package postgres

import (
	"context"
	"fmt"

	"github.com/expopass/server/internal/domain/locations"
)

var _ locations.RegistrationCounter = (*RegistrationRepository)(nil)

// registrationColumn maps a hierarchy level to the registrations
// foreign-key column counted during reconciliation. The column list is
// closed; never interpolate caller input into SQL here.
func registrationColumn(level locations.Level) (string, error) {
	switch level {
	case locations.LevelCountry:
		return "country_id", nil
	case locations.LevelState:
		return "state_id", nil
	case locations.LevelCity:
		return "city_id", nil
	case locations.LevelPostalCode:
		return "postal_code_id", nil
	}
	return "", fmt.Errorf("unknown level %q", level)
}

func (r *RegistrationRepository) CountActive(ctx context.Context, level locations.Level, locationID string) (int, error) {
	column, err := registrationColumn(level)
	if err != nil {
		return 0, err
	}

	var count int
	err = r.queryer().QueryRow(ctx, `
SELECT COUNT(*)
  FROM registrations
 WHERE `+column+` = $1
   AND status = 'active'`, locationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active registrations for %s %s: %w", level, locationID, err)
	}
	return count, nil
}
