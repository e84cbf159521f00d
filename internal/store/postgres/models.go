package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-id/internal/eigenface"
)

// ModelRepository stores one named face-space model in PostgreSQL.
// Vectors live in pgvector columns, which are float32-native, so a
// round-trip is tolerance-bounded rather than bit-exact; the precision
// loss is far below recognition thresholds.
type ModelRepository struct {
	pool *Pool
	name string
}

// NewModelRepository creates a repository bound to a model name.
func NewModelRepository(pool *Pool, name string) *ModelRepository {
	return &ModelRepository{pool: pool, name: name}
}

// Save replaces the named model in a single transaction.
func (r *ModelRepository) Save(ctx context.Context, m *eigenface.Model) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid model: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM models WHERE name = $1", r.name); err != nil {
		return fmt.Errorf("delete previous model: %w", err)
	}

	var modelID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO models (name, width, height, k, mean_face, eigenvalues)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, r.name, m.Width, m.Height, m.K(), toVector(m.MeanFace), pq.Array(m.Eigenvalues)).Scan(&modelID)
	if err != nil {
		return fmt.Errorf("insert model: %w", err)
	}

	for i, face := range m.Eigenfaces {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO model_eigenfaces (model_id, position, face)
			VALUES ($1, $2, $3)
		`, modelID, i, toVector(face)); err != nil {
			return fmt.Errorf("insert eigenface %d: %w", i, err)
		}
	}

	for i, proj := range m.Projections {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO model_projections (model_id, position, label, projection)
			VALUES ($1, $2, $3, $4)
		`, modelID, i, m.Labels[i], toVector(proj)); err != nil {
			return fmt.Errorf("insert projection %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit model save: %w", err)
	}
	return nil
}

// Load reassembles and validates the named model.
func (r *ModelRepository) Load(ctx context.Context) (*eigenface.Model, error) {
	var (
		modelID     int64
		model       eigenface.Model
		meanFace    pgvector.Vector
		eigenvalues []float64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, width, height, mean_face, eigenvalues
		FROM models WHERE name = $1
	`, r.name).Scan(&modelID, &model.Width, &model.Height, &meanFace, pq.Array(&eigenvalues))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("model %q not found", r.name)
	}
	if err != nil {
		return nil, fmt.Errorf("query model: %w", err)
	}
	model.MeanFace = fromVector(meanFace)
	model.Eigenvalues = eigenvalues

	rows, err := r.pool.Query(ctx, `
		SELECT face FROM model_eigenfaces
		WHERE model_id = $1 ORDER BY position
	`, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var face pgvector.Vector
		if err := rows.Scan(&face); err != nil {
			return nil, fmt.Errorf("scan eigenface: %w", err)
		}
		model.Eigenfaces = append(model.Eigenfaces, fromVector(face))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eigenfaces: %w", err)
	}

	projRows, err := r.pool.Query(ctx, `
		SELECT label, projection FROM model_projections
		WHERE model_id = $1 ORDER BY position
	`, modelID)
	if err != nil {
		return nil, err
	}
	defer projRows.Close()
	for projRows.Next() {
		var label string
		var proj pgvector.Vector
		if err := projRows.Scan(&label, &proj); err != nil {
			return nil, fmt.Errorf("scan projection: %w", err)
		}
		model.Labels = append(model.Labels, label)
		model.Projections = append(model.Projections, fromVector(proj))
	}
	if err := projRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projections: %w", err)
	}

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("stored model is invalid: %w", err)
	}
	return &model, nil
}

func toVector(v []float64) pgvector.Vector {
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(val)
	}
	return pgvector.NewVector(out)
}

func fromVector(v pgvector.Vector) []float64 {
	s := v.Slice()
	out := make([]float64, len(s))
	for i, val := range s {
		out[i] = float64(val)
	}
	return out
}
