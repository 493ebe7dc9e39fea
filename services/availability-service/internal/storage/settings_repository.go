package storage

import (
	"context"

	"github.com/jsprice87/fill-the-field-sub001/libs/db"
)

// SettingsRepository reads the franchise settings rows the booking-window
// policy is derived from. Settings are simple key/value pairs keyed by
// string names (booking_restriction, max_days_ahead, ...).
type SettingsRepository struct {
	pool *db.Pool
}

func NewSettingsRepository(pool *db.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func (r *SettingsRepository) GetFranchiseSettings(ctx context.Context, franchiseID string) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT setting_key, setting_value
		FROM franchise_settings
		WHERE franchise_id = $1
	`, franchiseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}
