package trace

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"ai-mobility-planner/internal/planner"
)

// StoredTrace is a persisted mobility trace row.
type StoredTrace struct {
	ID        int64
	UserID    string
	RunID     string
	TraceData []byte // Raw JSON of the mobility trace
	CreatedAt time.Time
}

// Repository persists assembled traces and resumable run snapshots.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts an assembled mobility trace for a user.
func (r *Repository) Save(ctx context.Context, userID string, mt *MobilityTrace) (int64, error) {
	data, err := json.Marshal(mt)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal mobility trace: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO mobility_traces (user_id, run_id, trace_data, created_at) VALUES (?, ?, ?, ?)`,
		userID, mt.RunID, data, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert mobility trace: %w", err)
	}
	return res.LastInsertId()
}

// GetByRunID retrieves a stored trace by its run ID, or nil when absent.
func (r *Repository) GetByRunID(ctx context.Context, runID string) (*MobilityTrace, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT trace_data FROM mobility_traces WHERE run_id = ?`, runID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trace for run %s: %w", runID, err)
	}

	var mt MobilityTrace
	if err := json.Unmarshal(data, &mt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace for run %s: %w", runID, err)
	}
	return &mt, nil
}

// ListRecentByUserID retrieves the N most recent stored traces for a user.
func (r *Repository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]StoredTrace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, run_id, trace_data, created_at FROM mobility_traces
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list traces for user %s: %w", userID, err)
	}
	defer rows.Close()

	var traces []StoredTrace
	for rows.Next() {
		var st StoredTrace
		if err := rows.Scan(&st.ID, &st.UserID, &st.RunID, &st.TraceData, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trace row: %w", err)
		}
		traces = append(traces, st)
	}
	return traces, rows.Err()
}

// SaveSnapshot upserts the partial planner state of a failed run so the run
// can be resumed from its current day index.
func (r *Repository) SaveSnapshot(ctx context.Context, userID string, state *planner.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal planner state: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO run_snapshots (run_id, user_id, state_data, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET state_data = excluded.state_data, created_at = excluded.created_at`,
		state.RunID, userID, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot retrieves a stored planner state by run ID, or nil when absent.
func (r *Repository) LoadSnapshot(ctx context.Context, runID string) (*planner.State, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT state_data FROM run_snapshots WHERE run_id = ?`, runID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", runID, err)
	}

	var state planner.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", runID, err)
	}
	return &state, nil
}

// DeleteSnapshot removes a snapshot once its run has completed.
func (r *Repository) DeleteSnapshot(ctx context.Context, runID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM run_snapshots WHERE run_id = ?`, runID)
	return err
}
