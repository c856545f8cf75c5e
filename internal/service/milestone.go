package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/markdown"
	"github.com/templui/babybook/internal/model"
	"github.com/templui/babybook/internal/repository"
)

type MilestoneService struct {
	repo     repository.MilestoneRepository
	babyRepo repository.BabyRepository
	markdown *markdown.Parser
}

func NewMilestoneService(repo repository.MilestoneRepository, babyRepo repository.BabyRepository, md *markdown.Parser) *MilestoneService {
	return &MilestoneService{
		repo:     repo,
		babyRepo: babyRepo,
		markdown: md,
	}
}

func (s *MilestoneService) List(babyID string) ([]*model.Milestone, error) {
	if babyID == "" {
		return nil, invalid(i18n.MsgBabyIDRequired)
	}

	milestones, err := s.repo.ByBaby(babyID)
	if err != nil {
		return nil, err
	}
	for _, m := range milestones {
		s.decorate(m)
	}
	return milestones, nil
}

func (s *MilestoneService) Get(id string) (*model.Milestone, error) {
	m, err := s.repo.ByID(id)
	if err != nil {
		return nil, err
	}
	s.decorate(m)
	return m, nil
}

func (s *MilestoneService) Create(in model.MilestoneInput) (*model.Milestone, error) {
	if in.BabyID == "" {
		return nil, invalid(i18n.MsgBabyIDRequired)
	}
	title := strings.TrimSpace(in.Title.Get())
	if title == "" {
		return nil, invalid(i18n.MsgTitleRequired)
	}
	date, err := model.ParseDate(in.Date.Get())
	if err != nil {
		return nil, invalid(i18n.MsgInvalidDate)
	}
	if _, err := s.babyRepo.ByID(in.BabyID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m := &model.Milestone{
		ID:          uuid.New().String(),
		BabyID:      in.BabyID,
		Date:        date,
		Title:       title,
		Description: nonEmpty(in.Description.Value),
		TagsJSON:    model.EncodeTags(cleanTags(in.Tags.Get())),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repo.Create(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create milestone: %w", err)
	}

	s.decorate(m)
	return m, nil
}

func (s *MilestoneService) Update(id string, in model.MilestoneInput) (*model.Milestone, error) {
	m, err := s.repo.ByID(id)
	if err != nil {
		return nil, err
	}

	if in.Date.Set && in.Date.Get() != "" {
		date, err := model.ParseDate(in.Date.Get())
		if err != nil {
			return nil, invalid(i18n.MsgInvalidDate)
		}
		m.Date = date
	}
	if in.Title.Set {
		title := strings.TrimSpace(in.Title.Get())
		if title == "" {
			return nil, invalid(i18n.MsgTitleRequired)
		}
		m.Title = title
	}
	if in.Description.Set {
		m.Description = nonEmpty(in.Description.Value)
	}
	if in.Tags.Set {
		m.TagsJSON = model.EncodeTags(cleanTags(in.Tags.Get()))
	}

	if err := s.repo.Update(m); err != nil {
		return nil, fmt.Errorf("failed to update milestone: %w", err)
	}

	s.decorate(m)
	return m, nil
}

func (s *MilestoneService) Delete(id string) error {
	return s.repo.Delete(id)
}

// decorate fills the fields derived from stored columns.
func (s *MilestoneService) decorate(m *model.Milestone) {
	m.Tags = model.DecodeTags(m.TagsJSON)
	if m.Description == nil || s.markdown == nil {
		return
	}
	html, err := s.markdown.Render(*m.Description)
	if err != nil {
		slog.Warn("failed to render milestone description", "milestone_id", m.ID, "error", err)
		return
	}
	m.DescriptionHTML = html
}

func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
