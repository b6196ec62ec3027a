package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

const profileColumns = `id, email, full_name, is_admin, password_hash, created_at`

// InsertProfile stores a new profile. A taken email yields domain.ErrConflict.
func (d *DB) InsertProfile(ctx context.Context, p domain.Profile) error {
	_, err := d.ExecContext(ctx, `
		insert into profiles (`+profileColumns+`)
		values (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.FullName, p.IsAdmin, p.PasswordHash, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", mapErr(err))
	}
	return nil
}

// ProfileByEmail looks a profile up by its sign-in email.
func (d *DB) ProfileByEmail(ctx context.Context, email string) (domain.Profile, error) {
	return d.profileWhere(ctx, "email = ?", email)
}

// ProfileByID looks a profile up by id.
func (d *DB) ProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	return d.profileWhere(ctx, "id = ?", id)
}

// CountProfiles returns the number of profiles.
func (d *DB) CountProfiles(ctx context.Context) (int, error) {
	var n int
	if err := d.QueryRowContext(ctx, `select count(*) from profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return n, nil
}

func (d *DB) profileWhere(ctx context.Context, where string, arg any) (domain.Profile, error) {
	var (
		p       domain.Profile
		created string
	)
	err := d.QueryRowContext(ctx, `select `+profileColumns+` from profiles where `+where, arg).
		Scan(&p.ID, &p.Email, &p.FullName, &p.IsAdmin, &p.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}
