package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/babybook/internal/model"
)

var (
	ErrBabyNotFound = errors.New("baby not found")
)

type BabyRepository interface {
	Create(baby *model.Baby) error
	ByID(id string) (*model.Baby, error)
	WithStats(id string) (*model.BabyWithStats, error)
	FirstWithStats() (*model.BabyWithStats, error)
	AllWithStats() ([]*model.BabyWithStats, error)
	Update(baby *model.Baby) error
	Delete(id string) error
}

type babyRepository struct {
	db *sqlx.DB
}

func NewBabyRepository(db *sqlx.DB) BabyRepository {
	return &babyRepository{db: db}
}

// babyStatsRow flattens the counted relations so sqlx can scan a single row.
type babyStatsRow struct {
	model.Baby
	GrowthRecords int `db:"growth_records_count"`
	Milestones    int `db:"milestones_count"`
	MediaItems    int `db:"media_items_count"`
}

func (r babyStatsRow) toModel() *model.BabyWithStats {
	return &model.BabyWithStats{
		Baby: r.Baby,
		Count: model.BabyCount{
			GrowthRecords: r.GrowthRecords,
			Milestones:    r.Milestones,
			MediaItems:    r.MediaItems,
		},
	}
}

const babyStatsSelect = `SELECT b.*,
	(SELECT COUNT(*) FROM growth_records g WHERE g.baby_id = b.id) AS growth_records_count,
	(SELECT COUNT(*) FROM milestones m WHERE m.baby_id = b.id) AS milestones_count,
	(SELECT COUNT(*) FROM media_items p WHERE p.baby_id = b.id) AS media_items_count
	FROM babies b`

func (r *babyRepository) Create(baby *model.Baby) error {
	query := `INSERT INTO babies (id, name, birth_date, birth_time, gender, avatar, birth_weight, birth_height,
	          birth_head_circumference, blood_type, allergies, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(query,
		baby.ID,
		baby.Name,
		baby.BirthDate,
		baby.BirthTime,
		baby.Gender,
		baby.Avatar,
		baby.BirthWeight,
		baby.BirthHeight,
		baby.BirthHeadCircumference,
		baby.BloodType,
		baby.Allergies,
		baby.Notes,
		baby.CreatedAt,
		baby.UpdatedAt,
	)

	return err
}

func (r *babyRepository) ByID(id string) (*model.Baby, error) {
	baby := &model.Baby{}
	query := `SELECT * FROM babies WHERE id = $1`

	err := r.db.Get(baby, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrBabyNotFound
	}

	return baby, err
}

func (r *babyRepository) WithStats(id string) (*model.BabyWithStats, error) {
	var row babyStatsRow
	err := r.db.Get(&row, babyStatsSelect+` WHERE b.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrBabyNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *babyRepository) FirstWithStats() (*model.BabyWithStats, error) {
	var row babyStatsRow
	err := r.db.Get(&row, babyStatsSelect+` ORDER BY b.created_at ASC LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, ErrBabyNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *babyRepository) AllWithStats() ([]*model.BabyWithStats, error) {
	var rows []babyStatsRow
	err := r.db.Select(&rows, babyStatsSelect+` ORDER BY b.created_at ASC`)
	if err != nil {
		return nil, err
	}

	babies := make([]*model.BabyWithStats, 0, len(rows))
	for _, row := range rows {
		babies = append(babies, row.toModel())
	}
	return babies, nil
}

func (r *babyRepository) Update(baby *model.Baby) error {
	query := `UPDATE babies
	          SET name = $1, birth_date = $2, birth_time = $3, gender = $4, avatar = $5, birth_weight = $6,
	              birth_height = $7, birth_head_circumference = $8, blood_type = $9, allergies = $10,
	              notes = $11, updated_at = $12
	          WHERE id = $13`

	baby.UpdatedAt = time.Now().UTC()
	result, err := r.db.Exec(query,
		baby.Name,
		baby.BirthDate,
		baby.BirthTime,
		baby.Gender,
		baby.Avatar,
		baby.BirthWeight,
		baby.BirthHeight,
		baby.BirthHeadCircumference,
		baby.BloodType,
		baby.Allergies,
		baby.Notes,
		baby.UpdatedAt,
		baby.ID,
	)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrBabyNotFound)
}

// Delete removes the baby; growth records, milestones and media rows go with it (ON DELETE CASCADE).
func (r *babyRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM babies WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrBabyNotFound)
}

// expectOneRow turns "nothing matched" into the repository's not-found sentinel.
func expectOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
