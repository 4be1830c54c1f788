package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/escolarhq/escolar/core/institution"
)

type institutionRepository struct {
	db *sqlx.DB
}

var _ institution.Repository = (*institutionRepository)(nil) // interface compliance check

func NewInstitutionRepository(db *sqlx.DB) *institutionRepository {
	return &institutionRepository{db: db}
}

func (repo institutionRepository) CheckNameUniqueness(ctx context.Context, name string, excluded ...institution.Institution) error {
	query := `SELECT COUNT(*) FROM institution WHERE name = ?`
	args := []interface{}{name}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, inst := range excluded {
			ids = append(ids, inst.ID)
		}
		q, inArgs, err := sqlx.In(`SELECT COUNT(*) FROM institution WHERE name = ? AND id NOT IN (?)`, name, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query, args = q, inArgs
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking name uniqueness")
	}
	if count > 0 {
		return institution.ErrNameExists
	}
	return nil
}

func (repo institutionRepository) CreateInstitution(ctx context.Context, inst institution.Institution) (institution.Institution, error) {
	query := `
INSERT INTO institution (id, name, address, phone, email, created_at, updated_at)
VALUES (:id, :name, :address, :phone, :email, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, inst); err != nil {
		return institution.Institution{}, errors.Wrap(err, "creating institution")
	}
	return inst, nil
}

func (repo institutionRepository) QueryAllInstitutions(ctx context.Context) ([]institution.Institution, error) {
	insts := make([]institution.Institution, 0)
	query := `SELECT * FROM institution ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &insts, query); err != nil {
		return nil, errors.Wrap(err, "querying institutions")
	}
	return insts, nil
}

func (repo institutionRepository) FilterInstitutions(ctx context.Context, filter institution.QueryFilter) ([]institution.Institution, error) {
	query := `SELECT * FROM institution WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if filter.Search != "" {
		query += ` AND (name ILIKE ? OR email ILIKE ?)`
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
	}
	if !filter.CreatedFrom.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		// inclusive upper bound: anything created on that day counts
		query += ` AND created_at < ?`
		args = append(args, filter.CreatedTo.AddDate(0, 0, 1))
	}
	query += ` ORDER BY created_at`

	insts := make([]institution.Institution, 0)
	if err := repo.db.SelectContext(ctx, &insts, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering institutions")
	}
	return insts, nil
}

func (repo institutionRepository) GetInstitutionByID(ctx context.Context, id string) (institution.Institution, error) {
	var inst institution.Institution
	query := `SELECT * FROM institution WHERE id = $1`
	if err := repo.db.GetContext(ctx, &inst, query, id); err != nil {
		if err == sql.ErrNoRows {
			return institution.Institution{}, institution.ErrNotFound
		}
		return institution.Institution{}, errors.Wrap(err, "getting institution")
	}
	return inst, nil
}

func (repo institutionRepository) UpdateInstitution(ctx context.Context, inst institution.Institution) (institution.Institution, error) {
	query := `
UPDATE institution
SET name = :name, address = :address, phone = :phone, email = :email, updated_at = :updated_at
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, inst)
	if err != nil {
		return institution.Institution{}, errors.Wrap(err, "updating institution")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return institution.Institution{}, institution.ErrNotFound
	}
	return inst, nil
}

func (repo institutionRepository) DeleteInstitutionsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM institution WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting institutions")
	}
	return nil
}

type statsRow struct {
	ID              string `db:"id"`
	CoursesCount    int    `db:"courses_count"`
	StudentsCount   int    `db:"students_count"`
	ProfessorsCount int    `db:"professors_count"`
}

type activityRow struct {
	InstitutionID string    `db:"institution_id"`
	Kind          string    `db:"kind"`
	Description   string    `db:"description"`
	OccurredAt    time.Time `db:"occurred_at"`
}

func (repo institutionRepository) QueryStatistics(ctx context.Context, ids ...string) (map[string]institution.Statistics, error) {
	if len(ids) == 0 {
		return map[string]institution.Statistics{}, nil
	}

	countsQuery := `
SELECT i.id,
       (SELECT COUNT(*) FROM course c WHERE c.institution_id = i.id)    AS courses_count,
       (SELECT COUNT(*) FROM student s WHERE s.institution_id = i.id)   AS students_count,
       (SELECT COUNT(*) FROM professor p WHERE p.institution_id = i.id) AS professors_count
FROM institution i
WHERE i.id IN (?)`
	query, args, err := sqlx.In(countsQuery, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building statistics query")
	}
	var counts []statsRow
	if err := repo.db.SelectContext(ctx, &counts, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying statistics")
	}

	// last 5 events per institution across courses, students and professors
	activityQuery := `
SELECT institution_id, kind, description, occurred_at
FROM (
    SELECT institution_id, kind, description, occurred_at,
           ROW_NUMBER() OVER (PARTITION BY institution_id ORDER BY occurred_at DESC) AS rn
    FROM (
        SELECT institution_id, 'course' AS kind, name AS description, created_at AS occurred_at FROM course
        UNION ALL
        SELECT institution_id, 'student', full_name, created_at FROM student
        UNION ALL
        SELECT institution_id, 'professor', full_name, created_at FROM professor
    ) events
) ranked
WHERE rn <= 5 AND institution_id IN (?)
ORDER BY institution_id, occurred_at DESC`
	query, args, err = sqlx.In(activityQuery, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building activity query")
	}
	var activity []activityRow
	if err := repo.db.SelectContext(ctx, &activity, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying activity")
	}

	stats := make(map[string]institution.Statistics, len(counts))
	for _, row := range counts {
		stats[row.ID] = institution.Statistics{
			CoursesCount:    row.CoursesCount,
			StudentsCount:   row.StudentsCount,
			ProfessorsCount: row.ProfessorsCount,
		}
	}
	for _, row := range activity {
		st := stats[row.InstitutionID]
		st.RecentActivity = append(st.RecentActivity, institution.ActivityEntry{
			Kind:        row.Kind,
			Description: row.Description,
			OccurredAt:  row.OccurredAt,
		})
		stats[row.InstitutionID] = st
	}
	return stats, nil
}
