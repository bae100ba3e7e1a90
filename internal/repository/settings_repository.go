package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// SettingsRepo manages the singleton `settings` row.  Exactly one row is
// ever created; Get lazily inserts the documented defaults when the table
// is empty so reads never fail on a fresh database.
type SettingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo returns a new SettingsRepo bound to the given database.
func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

const settingsColumns = `id, max_booking_duration_min, max_advance_booking_days,
	check_in_buffer_min, max_active_reservations, penalty_threshold, penalty_duration_days`

func scanSettings(row *sql.Row) (model.LibrarySettings, error) {
	var s model.LibrarySettings
	err := row.Scan(&s.ID, &s.MaxBookingDurationMin, &s.MaxAdvanceBookingDays,
		&s.CheckInBufferMin, &s.MaxActiveReservations, &s.PenaltyThreshold, &s.PenaltyDurationDays)
	return s, err
}

// Get returns the settings row, creating it with defaults when absent.
func (r *SettingsRepo) Get(ctx context.Context) (model.LibrarySettings, error) {
	s, err := scanSettings(r.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM settings ORDER BY id LIMIT 1`))
	if err == nil {
		return s, nil
	}
	if err != sql.ErrNoRows {
		return model.LibrarySettings{}, err
	}
	if err := r.insertDefaults(ctx); err != nil {
		return model.LibrarySettings{}, err
	}
	return scanSettings(r.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM settings ORDER BY id LIMIT 1`))
}

// InitDefaults creates the settings row with defaults when the table is
// empty.  It reports whether a row was created, which the init-settings
// command uses to warn when settings already exist.
func (r *SettingsRepo) InitDefaults(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	return true, r.insertDefaults(ctx)
}

func (r *SettingsRepo) insertDefaults(ctx context.Context) error {
	d := model.DefaultSettings()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (max_booking_duration_min, max_advance_booking_days,
			check_in_buffer_min, max_active_reservations, penalty_threshold, penalty_duration_days)
		 VALUES (?,?,?,?,?,?)`,
		d.MaxBookingDurationMin, d.MaxAdvanceBookingDays, d.CheckInBufferMin,
		d.MaxActiveReservations, d.PenaltyThreshold, d.PenaltyDurationDays)
	return err
}

// Update overwrites every policy field of the singleton row.  Validation
// happens in the service layer before this is called.
func (r *SettingsRepo) Update(ctx context.Context, s model.LibrarySettings) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE settings SET max_booking_duration_min=?, max_advance_booking_days=?,
			check_in_buffer_min=?, max_active_reservations=?, penalty_threshold=?, penalty_duration_days=?
		 WHERE id=?`,
		s.MaxBookingDurationMin, s.MaxAdvanceBookingDays, s.CheckInBufferMin,
		s.MaxActiveReservations, s.PenaltyThreshold, s.PenaltyDurationDays, s.ID)
	return err
}
