package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/model"
	"github.com/templui/babybook/internal/repository"
)

// BabyInput is the body of create and partial update requests. Only fields present
// in the JSON are applied on update.
type BabyService struct {
	repo      repository.BabyRepository
	mediaRepo repository.MediaItemRepository
	media     *MediaService
}

func NewBabyService(repo repository.BabyRepository, mediaRepo repository.MediaItemRepository, media *MediaService) *BabyService {
	return &BabyService{
		repo:      repo,
		mediaRepo: mediaRepo,
		media:     media,
	}
}

func (s *BabyService) List() ([]*model.BabyWithStats, error) {
	return s.repo.AllWithStats()
}

// Get returns the baby with id, or the first baby created when id is empty.
func (s *BabyService) Get(id string) (*model.BabyWithStats, error) {
	if id == "" {
		return s.repo.FirstWithStats()
	}
	return s.repo.WithStats(id)
}

func (s *BabyService) Create(in model.BabyInput) (*model.Baby, error) {
	name := strings.TrimSpace(in.Name.Get())
	gender := in.Gender.Get()
	if name == "" || in.BirthDate.Get() == "" || gender == "" {
		return nil, invalid(i18n.MsgBabyFieldsRequired)
	}

	now := time.Now().UTC()
	baby := &model.Baby{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyBaby(baby, in); err != nil {
		return nil, err
	}

	err := s.repo.Create(baby)
	if err != nil {
		return nil, fmt.Errorf("failed to create baby: %w", err)
	}

	return baby, nil
}

func (s *BabyService) Update(in model.BabyInput) (*model.BabyWithStats, error) {
	if in.ID == "" {
		return nil, invalid(i18n.MsgBabyIDRequired)
	}

	baby, err := s.repo.ByID(in.ID)
	if err != nil {
		return nil, err
	}

	if in.Name.Set && strings.TrimSpace(in.Name.Get()) == "" {
		return nil, invalid(i18n.MsgBabyFieldsRequired)
	}
	if err := applyBaby(baby, in); err != nil {
		return nil, err
	}

	if err := s.repo.Update(baby); err != nil {
		return nil, fmt.Errorf("failed to update baby: %w", err)
	}

	return s.repo.WithStats(baby.ID)
}

// Delete removes the baby and, through the cascade, all of its records.
// Stored media is cleaned up after the rows are gone.
func (s *BabyService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return invalid(i18n.MsgBabyIDRequired)
	}

	items, err := s.mediaRepo.ByBaby(id)
	if err != nil {
		return fmt.Errorf("failed to list media for baby: %w", err)
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	for _, item := range items {
		s.media.cleanup(ctx, item)
	}
	return nil
}

func applyBaby(baby *model.Baby, in model.BabyInput) error {
	if in.Name.Set && in.Name.Value != nil {
		baby.Name = strings.TrimSpace(*in.Name.Value)
	}
	if in.BirthDate.Set {
		d, err := model.ParseDate(in.BirthDate.Get())
		if err != nil {
			return invalid(i18n.MsgInvalidDate)
		}
		baby.BirthDate = d
	}
	if in.Gender.Set {
		if !model.ValidGender(in.Gender.Get()) {
			return invalid(i18n.MsgInvalidGender)
		}
		baby.Gender = in.Gender.Get()
	}
	if in.BirthTime.Set {
		baby.BirthTime = nonEmpty(in.BirthTime.Value)
	}
	if in.Avatar.Set {
		baby.Avatar = nonEmpty(in.Avatar.Value)
	}
	if in.BirthWeight.Set {
		baby.BirthWeight = in.BirthWeight.Value
	}
	if in.BirthHeight.Set {
		baby.BirthHeight = in.BirthHeight.Value
	}
	if in.BirthHeadCircumference.Set {
		baby.BirthHeadCircumference = in.BirthHeadCircumference.Value
	}
	if in.BloodType.Set {
		baby.BloodType = nonEmpty(in.BloodType.Value)
	}
	if in.Allergies.Set {
		baby.Allergies = nonEmpty(in.Allergies.Value)
	}
	if in.Notes.Set {
		baby.Notes = nonEmpty(in.Notes.Value)
	}
	return nil
}

// IsNotFound reports whether err is any repository not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrBabyNotFound) ||
		errors.Is(err, repository.ErrGrowthRecordNotFound) ||
		errors.Is(err, repository.ErrMilestoneNotFound) ||
		errors.Is(err, repository.ErrMediaItemNotFound)
}
