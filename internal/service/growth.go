package service

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/model"
	"github.com/templui/babybook/internal/repository"
)

type GrowthService struct {
	repo     repository.GrowthRecordRepository
	babyRepo repository.BabyRepository
}

func NewGrowthService(repo repository.GrowthRecordRepository, babyRepo repository.BabyRepository) *GrowthService {
	return &GrowthService{
		repo:     repo,
		babyRepo: babyRepo,
	}
}

func (s *GrowthService) List(babyID string) ([]*model.GrowthRecord, error) {
	if babyID == "" {
		return nil, invalid(i18n.MsgBabyIDRequired)
	}
	return s.repo.ByBaby(babyID)
}

func (s *GrowthService) Get(id string) (*model.GrowthRecord, error) {
	return s.repo.ByID(id)
}

// Create adds a measurement. Several records on the same day are allowed; lists
// order by date so the latest one wins on charts.
func (s *GrowthService) Create(in model.GrowthInput) (*model.GrowthRecord, error) {
	if in.BabyID == "" {
		return nil, invalid(i18n.MsgBabyIDRequired)
	}
	if _, err := s.babyRepo.ByID(in.BabyID); err != nil {
		return nil, err
	}

	date, err := model.ParseDate(in.Date.Get())
	if err != nil {
		return nil, invalid(i18n.MsgInvalidDate)
	}

	now := time.Now().UTC()
	record := &model.GrowthRecord{
		ID:        uuid.New().String(),
		BabyID:    in.BabyID,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyGrowth(record, in)

	err = s.repo.Create(record)
	if err != nil {
		return nil, fmt.Errorf("failed to create growth record: %w", err)
	}

	return record, nil
}

func (s *GrowthService) Update(id string, in model.GrowthInput) (*model.GrowthRecord, error) {
	record, err := s.repo.ByID(id)
	if err != nil {
		return nil, err
	}

	if in.Date.Set && in.Date.Get() != "" {
		date, err := model.ParseDate(in.Date.Get())
		if err != nil {
			return nil, invalid(i18n.MsgInvalidDate)
		}
		record.Date = date
	}
	applyGrowth(record, in)

	if err := s.repo.Update(record); err != nil {
		return nil, fmt.Errorf("failed to update growth record: %w", err)
	}
	return record, nil
}

func (s *GrowthService) Delete(id string) error {
	return s.repo.Delete(id)
}

func applyGrowth(record *model.GrowthRecord, in model.GrowthInput) {
	if in.Weight.Set {
		record.Weight = in.Weight.Value
	}
	if in.Height.Set {
		record.Height = in.Height.Value
	}
	if in.HeadCircumference.Set {
		record.HeadCircumference = in.HeadCircumference.Value
	}
	if in.Notes.Set {
		record.Notes = nonEmpty(in.Notes.Value)
	}
}

// Stats summarizes the latest value of each measurement and its change since the
// previous record that measured the same thing.
func (s *GrowthService) Stats(babyID string) (*model.GrowthStats, error) {
	records, err := s.List(babyID)
	if err != nil {
		return nil, err
	}

	return &model.GrowthStats{
		BabyID:            babyID,
		Records:           len(records),
		Weight:            latestMetric(records, func(r *model.GrowthRecord) *float64 { return r.Weight }),
		Height:            latestMetric(records, func(r *model.GrowthRecord) *float64 { return r.Height }),
		HeadCircumference: latestMetric(records, func(r *model.GrowthRecord) *float64 { return r.HeadCircumference }),
	}, nil
}

// latestMetric expects records newest first.
func latestMetric(records []*model.GrowthRecord, field func(*model.GrowthRecord) *float64) *model.GrowthMetric {
	var metric *model.GrowthMetric
	for _, r := range records {
		v := field(r)
		if v == nil {
			continue
		}
		if metric == nil {
			metric = &model.GrowthMetric{Value: *v, Date: r.Date}
			continue
		}
		change := math.Round((metric.Value-*v)*100) / 100
		metric.Change = &change
		break
	}
	return metric
}
