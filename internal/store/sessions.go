package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/shotdrill/internal/model"
)

// InsertSession stores a finished session and its per-shot rows.
func (s *Store) InsertSession(ctx context.Context, snap model.SessionSnapshot) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	meta := model.DrillMeta{}
	if snap.Config.Meta != nil {
		meta = *snap.Config.Meta
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (shooter, mode, drill_name, drill_id, with_vest, with_run, reload_after, started_at, target_count, hit_count, total_ns, time_to_line_ns, reload_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Shooter,
		string(snap.Config.Mode),
		meta.DrillName,
		meta.DrillID,
		meta.WithVest,
		meta.WithRun,
		nullInt(snap.Config.ReloadAfter),
		formatTime(snap.StartedAt),
		len(snap.Seq),
		snap.HitCount(),
		int64(snap.Total),
		nullDuration(snap.TimeToLine),
		nullDuration(snap.Reload),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO session_shots (session_id, shot, distance, target_type, stance, size, size_cm, result, split_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i, t := range snap.Seq {
		result := model.ShotPending
		if i < len(snap.Hits) {
			result = snap.Hits[i]
		}
		var split time.Duration
		if i < len(snap.Splits) {
			split = snap.Splits[i]
		}
		if _, err = stmt.ExecContext(ctx, id, i+1, t.Distance, string(t.Type), string(t.Stance), string(t.EffectiveSize()), t.SizeCm, result.String(), int64(split)); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessions returns session aggregates matching filter, oldest first.
func (s *Store) ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if len(filter.Shooters) > 0 {
		placeholders := make([]string, len(filter.Shooters))
		for i, name := range filter.Shooters {
			placeholders[i] = "?"
			args = append(args, name)
		}
		clauses = append(clauses, fmt.Sprintf("shooter IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, string(filter.Mode))
	}
	if filter.Since != nil {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, formatTime(*filter.Since))
	}
	query := fmt.Sprintf(`SELECT id, shooter, mode, drill_name, started_at, target_count, hit_count, total_ns, time_to_line_ns, reload_ns
		FROM sessions
		WHERE %s
		ORDER BY started_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var mode, startedAt string
		var totalNs int64
		var ttl, reload sql.NullInt64
		if err := rows.Scan(&agg.SessionID, &agg.Shooter, &mode, &agg.DrillName, &startedAt, &agg.TargetCount, &agg.HitCount, &totalNs, &ttl, &reload); err != nil {
			return nil, err
		}
		parsed, err := parseTime(startedAt)
		if err != nil {
			return nil, err
		}
		agg.Mode = model.Mode(mode)
		agg.StartedAt = parsed
		agg.Total = time.Duration(totalNs)
		agg.TimeToLine = durationPtr(ttl)
		agg.Reload = durationPtr(reload)
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(sessions) > filter.Last {
		sessions = sessions[len(sessions)-filter.Last:]
	}
	return sessions, nil
}

// GetSession loads a stored session as a snapshot.
func (s *Store) GetSession(ctx context.Context, id int64) (model.SessionSnapshot, error) {
	var snap model.SessionSnapshot
	var meta model.DrillMeta
	var mode, startedAt string
	var reloadAfter, ttl, reload sql.NullInt64
	var totalNs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT shooter, mode, drill_name, drill_id, with_vest, with_run, reload_after, started_at, total_ns, time_to_line_ns, reload_ns
		 FROM sessions WHERE id = ?`, id).
		Scan(&snap.Shooter, &mode, &meta.DrillName, &meta.DrillID, &meta.WithVest, &meta.WithRun, &reloadAfter, &startedAt, &totalNs, &ttl, &reload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionSnapshot{}, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.SessionSnapshot{}, err
	}
	if snap.StartedAt, err = parseTime(startedAt); err != nil {
		return model.SessionSnapshot{}, err
	}
	snap.Total = time.Duration(totalNs)
	snap.TimeToLine = durationPtr(ttl)
	snap.Reload = durationPtr(reload)

	rows, err := s.db.QueryContext(ctx,
		`SELECT shot, distance, target_type, stance, size, size_cm, result, split_ns
		 FROM session_shots WHERE session_id = ? ORDER BY shot ASC`, id)
	if err != nil {
		return model.SessionSnapshot{}, err
	}
	defer closeRows(rows)
	for rows.Next() {
		var t model.Target
		var targetType, stance, size, result string
		var splitNs int64
		if err := rows.Scan(&t.Order, &t.Distance, &targetType, &stance, &size, &t.SizeCm, &result, &splitNs); err != nil {
			return model.SessionSnapshot{}, err
		}
		t.Type = model.TargetType(targetType)
		t.Stance = model.Stance(stance)
		t.Size = model.TargetSize(size)
		t.Shots = 1
		snap.Seq = append(snap.Seq, t)
		snap.Hits = append(snap.Hits, parseResult(result))
		snap.Splits = append(snap.Splits, time.Duration(splitNs))
	}
	if err := rows.Err(); err != nil {
		return model.SessionSnapshot{}, err
	}

	snap.Config = model.DrillConfig{
		Mode: model.Mode(mode),
		Seq:  snap.Seq,
		Meta: &meta,
	}
	if reloadAfter.Valid {
		v := int(reloadAfter.Int64)
		snap.Config.ReloadAfter = &v
	}
	return snap, nil
}

// ListSnapshots loads every session matching filter as a snapshot.
func (s *Store) ListSnapshots(ctx context.Context, filter model.SessionFilter) ([]model.SessionSnapshot, error) {
	aggs, err := s.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	snaps := make([]model.SessionSnapshot, 0, len(aggs))
	for _, agg := range aggs {
		snap, err := s.GetSession(ctx, agg.SessionID)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// ListStageAggregates aggregates shot outcomes per stage kind across sessions.
// Pending shots are ignored.
func (s *Store) ListStageAggregates(ctx context.Context, sessionIDs []int64) ([]model.StageAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT target_type, stance, distance,
		SUM(CASE WHEN result = 'HIT' THEN 1 ELSE 0 END) AS hits,
		SUM(CASE WHEN result = 'MISS' THEN 1 ELSE 0 END) AS misses,
		SUM(split_ns) AS split_sum,
		SUM(CASE WHEN split_ns > 0 THEN 1 ELSE 0 END) AS split_cnt
		FROM session_shots
		WHERE session_id IN (%s) AND result != ''
		GROUP BY target_type, stance, distance
		ORDER BY target_type, stance, distance`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.StageAggregate
	for rows.Next() {
		var agg model.StageAggregate
		var targetType, stance string
		var splitSum int64
		if err := rows.Scan(&targetType, &stance, &agg.Distance, &agg.Hits, &agg.Misses, &splitSum, &agg.SplitCnt); err != nil {
			return nil, err
		}
		agg.SplitSum = time.Duration(splitSum)
		agg.Type = model.TargetType(targetType)
		agg.Stance = model.Stance(stance)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListShooters returns the distinct shooter names with stored sessions.
func (s *Store) ListShooters(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT shooter FROM sessions ORDER BY shooter ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func parseResult(v string) model.ShotResult {
	switch v {
	case "HIT":
		return model.ShotHit
	case "MISS":
		return model.ShotMiss
	default:
		return model.ShotPending
	}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullDuration(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}

func durationPtr(v sql.NullInt64) *time.Duration {
	if !v.Valid {
		return nil
	}
	d := time.Duration(v.Int64)
	return &d
}
