package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/templui/babybook/internal/cache"
	"github.com/templui/babybook/internal/model"
)

// Cache keys. Everything cached for one baby ends in its id so a write can drop it all.
func babiesKey() string                 { return "babies" }
func babyKey(id string) string          { return "baby-" + id }
func growthKey(babyID string) string    { return "growth-records-" + babyID }
func milestoneKey(babyID string) string { return "milestones-" + babyID }
func mediaKey(babyID string, page, limit int) string {
	return fmt.Sprintf("photos-%s-%d-%d", babyID, page, limit)
}

// invalidateBaby drops every cached read that includes data of babyID.
func (c *Client) invalidateBaby(babyID string) {
	c.cache.Invalidate(babiesKey())
	c.cache.Invalidate(babyKey(babyID))
	c.cache.Invalidate(growthKey(babyID))
	c.cache.Invalidate(milestoneKey(babyID))
	c.cache.InvalidatePattern("photos-" + babyID + "-")
}

var readOptions = cache.FetchOptions{StaleWhileRevalidate: true}

func (c *Client) Babies(ctx context.Context) ([]*model.BabyWithStats, error) {
	return cache.FetchAs(ctx, c.cache, babiesKey(), func(ctx context.Context) ([]*model.BabyWithStats, error) {
		var babies []*model.BabyWithStats
		err := c.do(ctx, http.MethodGet, "/api/babies", nil, &babies)
		return babies, err
	}, readOptions)
}

// Baby returns the baby with id, or the first one when id is empty.
func (c *Client) Baby(ctx context.Context, id string) (*model.BabyWithStats, error) {
	return cache.FetchAs(ctx, c.cache, babyKey(id), func(ctx context.Context) (*model.BabyWithStats, error) {
		var baby model.BabyWithStats
		err := c.do(ctx, http.MethodGet, "/api/baby?id="+url.QueryEscape(id), nil, &baby)
		return &baby, err
	}, readOptions)
}

func (c *Client) CreateBaby(ctx context.Context, in model.BabyInput) (*model.Baby, error) {
	var baby model.Baby
	if err := c.do(ctx, http.MethodPost, "/api/baby", in, &baby); err != nil {
		return nil, err
	}
	c.cache.Invalidate(babiesKey())
	c.cache.Invalidate(babyKey(""))
	return &baby, nil
}

func (c *Client) DeleteBaby(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/baby?id="+url.QueryEscape(id), nil, nil); err != nil {
		return err
	}
	c.invalidateBaby(id)
	c.cache.Invalidate(babyKey(""))
	return nil
}

func (c *Client) GrowthRecords(ctx context.Context, babyID string) ([]*model.GrowthRecord, error) {
	return cache.FetchAs(ctx, c.cache, growthKey(babyID), func(ctx context.Context) ([]*model.GrowthRecord, error) {
		var records []*model.GrowthRecord
		err := c.do(ctx, http.MethodGet, "/api/growth-records?babyId="+url.QueryEscape(babyID), nil, &records)
		return records, err
	}, readOptions)
}

func (c *Client) CreateGrowthRecord(ctx context.Context, in model.GrowthInput) (*model.GrowthRecord, error) {
	var record model.GrowthRecord
	if err := c.do(ctx, http.MethodPost, "/api/growth-records", in, &record); err != nil {
		return nil, err
	}
	c.invalidateBaby(in.BabyID)
	return &record, nil
}

func (c *Client) Milestones(ctx context.Context, babyID string) ([]*model.Milestone, error) {
	return cache.FetchAs(ctx, c.cache, milestoneKey(babyID), func(ctx context.Context) ([]*model.Milestone, error) {
		var milestones []*model.Milestone
		err := c.do(ctx, http.MethodGet, "/api/milestones?babyId="+url.QueryEscape(babyID), nil, &milestones)
		return milestones, err
	}, readOptions)
}

func (c *Client) CreateMilestone(ctx context.Context, in model.MilestoneInput) (*model.Milestone, error) {
	var milestone model.Milestone
	if err := c.do(ctx, http.MethodPost, "/api/milestones", in, &milestone); err != nil {
		return nil, err
	}
	c.invalidateBaby(in.BabyID)
	return &milestone, nil
}

func (c *Client) Media(ctx context.Context, babyID string, page, limit int) (*model.MediaPage, error) {
	return cache.FetchAs(ctx, c.cache, mediaKey(babyID, page, limit), func(ctx context.Context) (*model.MediaPage, error) {
		q := url.Values{}
		q.Set("babyId", babyID)
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(limit))
		var result model.MediaPage
		err := c.do(ctx, http.MethodGet, "/api/photos?"+q.Encode(), nil, &result)
		return &result, err
	}, readOptions)
}

// CreateMediaItem is the metadata step shared by both upload strategies.
func (c *Client) CreateMediaItem(ctx context.Context, in model.MediaInput) (*model.MediaItem, error) {
	var item model.MediaItem
	if err := c.do(ctx, http.MethodPost, "/api/photos", in, &item); err != nil {
		return nil, err
	}
	c.invalidateBaby(in.BabyID.Get())
	return &item, nil
}

type batchRequest struct {
	Items []model.MediaInput `json:"items"`
}

type batchResponse struct {
	Success bool               `json:"success"`
	Count   int                `json:"count"`
	Items   []*model.MediaItem `json:"items"`
}

// CreateMediaBatch stores several items in one transaction; either all are created or none.
func (c *Client) CreateMediaBatch(ctx context.Context, items []model.MediaInput) ([]*model.MediaItem, error) {
	var out batchResponse
	if err := c.do(ctx, http.MethodPost, "/api/photos/batch", batchRequest{Items: items}, &out); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, in := range items {
		if id := in.BabyID.Get(); !seen[id] {
			seen[id] = true
			c.invalidateBaby(id)
		}
	}
	return out.Items, nil
}

func (c *Client) DeleteMedia(ctx context.Context, id, babyID string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/photos/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.invalidateBaby(babyID)
	return nil
}
