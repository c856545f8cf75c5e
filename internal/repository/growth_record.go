package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/babybook/internal/model"
)

var (
	ErrGrowthRecordNotFound = errors.New("growth record not found")
)

type GrowthRecordRepository interface {
	Create(record *model.GrowthRecord) error
	ByID(id string) (*model.GrowthRecord, error)
	ByBaby(babyID string) ([]*model.GrowthRecord, error)
	Update(record *model.GrowthRecord) error
	Delete(id string) error
}

type growthRecordRepository struct {
	db *sqlx.DB
}

func NewGrowthRecordRepository(db *sqlx.DB) GrowthRecordRepository {
	return &growthRecordRepository{db: db}
}

func (r *growthRecordRepository) Create(record *model.GrowthRecord) error {
	query := `INSERT INTO growth_records (id, baby_id, date, weight, height, head_circumference, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		record.ID,
		record.BabyID,
		record.Date,
		record.Weight,
		record.Height,
		record.HeadCircumference,
		record.Notes,
		record.CreatedAt,
		record.UpdatedAt,
	)

	return err
}

func (r *growthRecordRepository) ByID(id string) (*model.GrowthRecord, error) {
	record := &model.GrowthRecord{}
	query := `SELECT * FROM growth_records WHERE id = $1`

	err := r.db.Get(record, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrGrowthRecordNotFound
	}

	return record, err
}

// ByBaby returns the baby's records, newest measurement first.
func (r *growthRecordRepository) ByBaby(babyID string) ([]*model.GrowthRecord, error) {
	records := []*model.GrowthRecord{}
	query := `SELECT * FROM growth_records WHERE baby_id = $1 ORDER BY date DESC, created_at DESC`

	err := r.db.Select(&records, query, babyID)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *growthRecordRepository) Update(record *model.GrowthRecord) error {
	query := `UPDATE growth_records
	          SET date = $1, weight = $2, height = $3, head_circumference = $4, notes = $5, updated_at = $6
	          WHERE id = $7`

	record.UpdatedAt = time.Now().UTC()
	result, err := r.db.Exec(query,
		record.Date,
		record.Weight,
		record.Height,
		record.HeadCircumference,
		record.Notes,
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrGrowthRecordNotFound)
}

func (r *growthRecordRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM growth_records WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrGrowthRecordNotFound)
}
