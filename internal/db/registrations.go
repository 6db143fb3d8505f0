package db

import (
	"context"
	"fmt"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gratefultolord/qabul_bot/internal/registration"
)

type Registration struct {
	ID          string    `db:"id"`
	FullName    string    `db:"full_name"`
	PhoneNumber string    `db:"phone_number"`
	Region      string    `db:"region"`
	Direction   string    `db:"direction"`
	Branch      string    `db:"branch"`
	SubmittedAt time.Time `db:"submitted_at"`
}

type RegistrationRepository struct {
	db *sqlx.DB
}

func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{
		db: db,
	}
}

func (r *RegistrationRepository) Create(ctx context.Context, reg *Registration) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	    INSERT INTO registrations
		(id, full_name, phone_number, region, direction, branch, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`),
		reg.ID,
		reg.FullName,
		reg.PhoneNumber,
		reg.Region,
		reg.Direction,
		reg.Branch,
		reg.SubmittedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("RegistrationRepository.Create: %w", err)
	}

	return nil
}

// Append implements registration.Sink. Every call inserts a new row.
func (r *RegistrationRepository) Append(ctx context.Context, rec registration.Record) error {
	reg := Registration{
		ID:          uuid.NewString(),
		FullName:    rec.FullName,
		PhoneNumber: rec.Phone,
		Region:      rec.Region,
		Direction:   rec.Direction,
		Branch:      rec.Branch,
		SubmittedAt: rec.SubmittedAt,
	}

	if err := r.Create(ctx, pointer.To(reg)); err != nil {
		return registration.NewPersistenceError(r.db.DriverName(), err)
	}

	return nil
}

func (r *RegistrationRepository) Count(ctx context.Context) (int, error) {
	var n int

	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM registrations`)
	if err != nil {
		return 0, fmt.Errorf("RegistrationRepository.Count: %w", err)
	}

	return n, nil
}
