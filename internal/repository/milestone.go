package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/babybook/internal/model"
)

var (
	ErrMilestoneNotFound = errors.New("milestone not found")
)

type MilestoneRepository interface {
	Create(milestone *model.Milestone) error
	ByID(id string) (*model.Milestone, error)
	ByBaby(babyID string) ([]*model.Milestone, error)
	Update(milestone *model.Milestone) error
	Delete(id string) error
}

type milestoneRepository struct {
	db *sqlx.DB
}

func NewMilestoneRepository(db *sqlx.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) Create(milestone *model.Milestone) error {
	query := `INSERT INTO milestones (id, baby_id, date, title, description, tags, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		milestone.ID,
		milestone.BabyID,
		milestone.Date,
		milestone.Title,
		milestone.Description,
		milestone.TagsJSON,
		milestone.CreatedAt,
		milestone.UpdatedAt,
	)

	return err
}

// ByID loads the milestone together with its baby's name.
func (r *milestoneRepository) ByID(id string) (*model.Milestone, error) {
	var row struct {
		model.Milestone
		BabyName string `db:"baby_name"`
	}
	query := `SELECT m.*, b.name AS baby_name FROM milestones m JOIN babies b ON b.id = m.baby_id WHERE m.id = $1`

	err := r.db.Get(&row, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrMilestoneNotFound
	}
	if err != nil {
		return nil, err
	}

	milestone := row.Milestone
	milestone.Baby = &model.MilestoneBaby{Name: row.BabyName}
	return &milestone, nil
}

func (r *milestoneRepository) ByBaby(babyID string) ([]*model.Milestone, error) {
	milestones := []*model.Milestone{}
	query := `SELECT * FROM milestones WHERE baby_id = $1 ORDER BY date DESC, created_at DESC`

	err := r.db.Select(&milestones, query, babyID)
	if err != nil {
		return nil, err
	}

	return milestones, nil
}

func (r *milestoneRepository) Update(milestone *model.Milestone) error {
	query := `UPDATE milestones
	          SET date = $1, title = $2, description = $3, tags = $4, updated_at = $5
	          WHERE id = $6`

	milestone.UpdatedAt = time.Now().UTC()
	result, err := r.db.Exec(query,
		milestone.Date,
		milestone.Title,
		milestone.Description,
		milestone.TagsJSON,
		milestone.UpdatedAt,
		milestone.ID,
	)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrMilestoneNotFound)
}

func (r *milestoneRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM milestones WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrMilestoneNotFound)
}
