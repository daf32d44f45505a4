package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/verte-zerg/shotdrill/internal/drill"
	"github.com/verte-zerg/shotdrill/internal/model"
)

// SaveDrill validates and stores d. A drill without an ID is created with a
// fresh one; otherwise the existing drill is replaced, keeping its creation time.
func (s *Store) SaveDrill(ctx context.Context, d model.CustomDrill) (model.CustomDrill, error) {
	if err := drill.ValidateDrill(d); err != nil {
		return model.CustomDrill{}, err
	}
	now := s.now().UTC()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.CustomDrill{}, err
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	var createdAt string
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM drills WHERE id = ?`, d.ID).Scan(&createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		d.CreatedAt = now
		_, err = tx.ExecContext(ctx,
			`INSERT INTO drills (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			d.ID, d.Name, d.Description, formatTime(d.CreatedAt), formatTime(d.UpdatedAt))
		if err != nil {
			return model.CustomDrill{}, err
		}
	case err != nil:
		return model.CustomDrill{}, err
	default:
		d.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return model.CustomDrill{}, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE drills SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
			d.Name, d.Description, formatTime(d.UpdatedAt), d.ID)
		if err != nil {
			return model.CustomDrill{}, err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM drill_targets WHERE drill_id = ?`, d.ID); err != nil {
			return model.CustomDrill{}, err
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO drill_targets (drill_id, position, distance, target_type, shooting_position, shots, size, size_cm)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return model.CustomDrill{}, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i, t := range d.Targets {
		if _, err = stmt.ExecContext(ctx, d.ID, i+1, t.Distance, string(t.TargetType), string(t.ShootingPosition), t.Shots, string(t.Size), t.SizeCm); err != nil {
			return model.CustomDrill{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return model.CustomDrill{}, err
	}
	return d, nil
}

// GetDrill loads a drill with its targets.
func (s *Store) GetDrill(ctx context.Context, id string) (model.CustomDrill, error) {
	var d model.CustomDrill
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM drills WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Description, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CustomDrill{}, fmt.Errorf("drill %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.CustomDrill{}, err
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.CustomDrill{}, err
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.CustomDrill{}, err
	}
	targets, err := s.listDrillTargets(ctx, id)
	if err != nil {
		return model.CustomDrill{}, err
	}
	d.Targets = targets
	return d, nil
}

// ListDrills returns every saved drill, oldest first.
func (s *Store) ListDrills(ctx context.Context) ([]model.CustomDrill, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM drills ORDER BY created_at ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			closeRows(rows)
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return nil, err
	}
	closeRows(rows)

	drills := make([]model.CustomDrill, 0, len(ids))
	for _, id := range ids {
		d, err := s.GetDrill(ctx, id)
		if err != nil {
			return nil, err
		}
		drills = append(drills, d)
	}
	return drills, nil
}

// DeleteDrill removes a drill and its targets.
func (s *Store) DeleteDrill(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()
	res, err := tx.ExecContext(ctx, `DELETE FROM drills WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("drill %q: %w", id, ErrNotFound)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM drill_targets WHERE drill_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) listDrillTargets(ctx context.Context, id string) ([]model.TargetSpec, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT distance, target_type, shooting_position, shots, size, size_cm
		 FROM drill_targets WHERE drill_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var targets []model.TargetSpec
	for rows.Next() {
		var t model.TargetSpec
		var targetType, position, size string
		if err := rows.Scan(&t.Distance, &targetType, &position, &t.Shots, &size, &t.SizeCm); err != nil {
			return nil, err
		}
		t.TargetType = model.StorageTargetType(targetType)
		t.ShootingPosition = model.ShootingPosition(position)
		t.Size = model.TargetSize(size)
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return targets, nil
}
