package postgres

import (
	"context"
	"fmt"

	"survivalvolume/domain/study"

	"github.com/jmoiron/sqlx"
)

// ResultsRepository persists computed survival artifacts per named study so
// later sessions can reload them without re-ingesting the workbook. The
// analysis core never touches this; persistence is strictly an adapter
// concern.
type ResultsRepository struct {
	db *sqlx.DB
}

// NewResultsRepository creates a repository over an open connection pool.
func NewResultsRepository(db *sqlx.DB) *ResultsRepository {
	return &ResultsRepository{db: db}
}

// EnsureSchema creates the result tables if they do not exist.
func (r *ResultsRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS survival_records (
			study          TEXT             NOT NULL,
			subject_id     TEXT             NOT NULL,
			group_id       TEXT             NOT NULL,
			time_to_event  DOUBLE PRECISION NOT NULL,
			censored       BOOLEAN          NOT NULL,
			PRIMARY KEY (study, subject_id)
		);
		CREATE TABLE IF NOT EXISTS survival_curve_points (
			study      TEXT             NOT NULL,
			group_id   TEXT             NOT NULL,
			time       DOUBLE PRECISION NOT NULL,
			survival   DOUBLE PRECISION NOT NULL,
			ci_low     DOUBLE PRECISION NOT NULL,
			ci_high    DOUBLE PRECISION NOT NULL,
			at_risk    INTEGER          NOT NULL,
			events     INTEGER          NOT NULL,
			PRIMARY KEY (study, group_id, time)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create result tables: %w", err)
	}
	return nil
}

// SaveBundle replaces the stored records and curve points for a study with
// the bundle's contents. The write is transactional: a failed save leaves
// the previous results intact.
func (r *ResultsRepository) SaveBundle(ctx context.Context, studyName string, bundle *study.PlotBundle) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM survival_records WHERE study = $1`, studyName); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM survival_curve_points WHERE study = $1`, studyName); err != nil {
		return fmt.Errorf("failed to clear curve points: %w", err)
	}

	for _, g := range bundle.Groups {
		for _, rec := range g.Records {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO survival_records (study, subject_id, group_id, time_to_event, censored)
				VALUES ($1, $2, $3, $4, $5)`,
				studyName, rec.SubjectID, rec.Group, rec.TimeToEvent, rec.Censored); err != nil {
				return fmt.Errorf("failed to insert record for subject %s: %w", rec.SubjectID, err)
			}
		}
		for _, p := range g.Curve {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO survival_curve_points (study, group_id, time, survival, ci_low, ci_high, at_risk, events)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				studyName, p.Group, p.Time, p.Survival, p.CILow, p.CIHigh, p.AtRisk, p.Events); err != nil {
				return fmt.Errorf("failed to insert curve point for group %s: %w", p.Group, err)
			}
		}
	}

	return tx.Commit()
}

type recordRow struct {
	SubjectID   string  `db:"subject_id"`
	GroupID     string  `db:"group_id"`
	TimeToEvent float64 `db:"time_to_event"`
	Censored    bool    `db:"censored"`
}

// LoadRecords returns every stored survival record for a study.
func (r *ResultsRepository) LoadRecords(ctx context.Context, studyName string) ([]study.SurvivalRecord, error) {
	var rows []recordRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT subject_id, group_id, time_to_event, censored
		FROM survival_records
		WHERE study = $1
		ORDER BY group_id, time_to_event`, studyName)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for study %s: %w", studyName, err)
	}

	records := make([]study.SurvivalRecord, len(rows))
	for i, row := range rows {
		records[i] = study.SurvivalRecord{
			SubjectID:   study.SubjectID(row.SubjectID),
			Group:       study.GroupID(row.GroupID),
			TimeToEvent: row.TimeToEvent,
			Censored:    row.Censored,
		}
	}
	return records, nil
}

type curveRow struct {
	GroupID  string  `db:"group_id"`
	Time     float64 `db:"time"`
	Survival float64 `db:"survival"`
	CILow    float64 `db:"ci_low"`
	CIHigh   float64 `db:"ci_high"`
	AtRisk   int     `db:"at_risk"`
	Events   int     `db:"events"`
}

// LoadCurve returns one group's stored survival curve in time order.
func (r *ResultsRepository) LoadCurve(ctx context.Context, studyName string, group study.GroupID) ([]study.SurvivalCurvePoint, error) {
	var rows []curveRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT group_id, time, survival, ci_low, ci_high, at_risk, events
		FROM survival_curve_points
		WHERE study = $1 AND group_id = $2
		ORDER BY time`, studyName, string(group))
	if err != nil {
		return nil, fmt.Errorf("failed to load curve for study %s group %s: %w", studyName, group, err)
	}

	points := make([]study.SurvivalCurvePoint, len(rows))
	for i, row := range rows {
		points[i] = study.SurvivalCurvePoint{
			Group:    study.GroupID(row.GroupID),
			Time:     row.Time,
			Survival: row.Survival,
			CILow:    row.CILow,
			CIHigh:   row.CIHigh,
			AtRisk:   row.AtRisk,
			Events:   row.Events,
		}
	}
	return points, nil
}
