package repository

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/babybook/internal/db"
	"github.com/templui/babybook/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	conn, err := db.Init("sqlite", dsn)
	if err != nil {
		t.Fatalf("db.Init() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.RunMigrations(conn.DB, "sqlite"); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	return conn
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createBaby(t *testing.T, repo BabyRepository, id, name string, created time.Time) *model.Baby {
	t.Helper()
	baby := &model.Baby{
		ID:        id,
		Name:      name,
		BirthDate: day(2024, 1, 10),
		Gender:    model.GenderGirl,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := repo.Create(baby); err != nil {
		t.Fatalf("Create(baby) error = %v", err)
	}
	return baby
}

func floatPtr(f float64) *float64 { return &f }

func TestBabyRepository_StatsAndCascade(t *testing.T) {
	conn := newTestDB(t)
	babies := NewBabyRepository(conn)
	growth := NewGrowthRecordRepository(conn)
	milestones := NewMilestoneRepository(conn)
	media := NewMediaItemRepository(conn)

	now := time.Now().UTC().Truncate(time.Second)
	createBaby(t, babies, "b1", "Mia", now.Add(-time.Hour))
	createBaby(t, babies, "b2", "Leo", now)

	for i := 0; i < 2; i++ {
		err := growth.Create(&model.GrowthRecord{
			ID: "g" + string(rune('a'+i)), BabyID: "b1", Date: day(2024, 2, 1+i),
			Weight: floatPtr(4.2), CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("growth.Create() error = %v", err)
		}
	}
	err := milestones.Create(&model.Milestone{
		ID: "m1", BabyID: "b1", Date: day(2024, 3, 1), Title: "First smile",
		TagsJSON: model.EncodeTags([]string{"smile"}), CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("milestones.Create() error = %v", err)
	}
	err = media.Create(&model.MediaItem{
		ID: "p1", BabyID: "b1", Date: day(2024, 3, 2), URL: "/api/media/a.jpg",
		MediaType: model.MediaTypeImage, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("media.Create() error = %v", err)
	}

	all, err := babies.AllWithStats()
	if err != nil {
		t.Fatalf("AllWithStats() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != "b1" {
		t.Fatalf("AllWithStats() = %d babies, first %q; want 2, first b1", len(all), all[0].ID)
	}
	want := model.BabyCount{GrowthRecords: 2, Milestones: 1, MediaItems: 1}
	if all[0].Count != want {
		t.Errorf("Count = %+v, want %+v", all[0].Count, want)
	}

	first, err := babies.FirstWithStats()
	if err != nil || first.ID != "b1" {
		t.Fatalf("FirstWithStats() = %v, %v; want b1", first, err)
	}

	if err := babies.Delete("b1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := growth.ByID("ga"); !errors.Is(err, ErrGrowthRecordNotFound) {
		t.Errorf("growth record after cascade: err = %v, want ErrGrowthRecordNotFound", err)
	}
	if _, err := milestones.ByID("m1"); !errors.Is(err, ErrMilestoneNotFound) {
		t.Errorf("milestone after cascade: err = %v, want ErrMilestoneNotFound", err)
	}
	if _, err := media.ByID("p1"); !errors.Is(err, ErrMediaItemNotFound) {
		t.Errorf("media item after cascade: err = %v, want ErrMediaItemNotFound", err)
	}

	if err := babies.Delete("b1"); !errors.Is(err, ErrBabyNotFound) {
		t.Errorf("second Delete() error = %v, want ErrBabyNotFound", err)
	}
}

func TestBabyRepository_Update(t *testing.T) {
	conn := newTestDB(t)
	babies := NewBabyRepository(conn)
	baby := createBaby(t, babies, "b1", "Mia", time.Now().UTC())

	blood := "A+"
	baby.BloodType = &blood
	baby.Name = "Mia Rose"
	if err := babies.Update(baby); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := babies.ByID("b1")
	if err != nil {
		t.Fatalf("ByID() error = %v", err)
	}
	if got.Name != "Mia Rose" || got.BloodType == nil || *got.BloodType != "A+" {
		t.Errorf("ByID() = %+v, want updated name and blood type", got)
	}

	missing := &model.Baby{ID: "nope", Name: "x", Gender: model.GenderBoy}
	if err := babies.Update(missing); !errors.Is(err, ErrBabyNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrBabyNotFound", err)
	}
}

func TestGrowthRecordRepository_OrderAndUpdate(t *testing.T) {
	conn := newTestDB(t)
	babies := NewBabyRepository(conn)
	growth := NewGrowthRecordRepository(conn)
	now := time.Now().UTC()
	createBaby(t, babies, "b1", "Mia", now)

	dates := []time.Time{day(2024, 2, 1), day(2024, 4, 1), day(2024, 3, 1)}
	for i, d := range dates {
		rec := &model.GrowthRecord{ID: []string{"r1", "r2", "r3"}[i], BabyID: "b1", Date: d, CreatedAt: now, UpdatedAt: now}
		if err := growth.Create(rec); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	list, err := growth.ByBaby("b1")
	if err != nil {
		t.Fatalf("ByBaby() error = %v", err)
	}
	gotOrder := []string{list[0].ID, list[1].ID, list[2].ID}
	if gotOrder[0] != "r2" || gotOrder[1] != "r3" || gotOrder[2] != "r1" {
		t.Errorf("ByBaby() order = %v, want [r2 r3 r1]", gotOrder)
	}

	rec := list[0]
	rec.Height = floatPtr(61.5)
	if err := growth.Update(rec); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := growth.ByID("r2")
	if got.Height == nil || *got.Height != 61.5 {
		t.Errorf("Height = %v, want 61.5", got.Height)
	}

	if err := growth.Delete("r2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := growth.Delete("r2"); !errors.Is(err, ErrGrowthRecordNotFound) {
		t.Errorf("second Delete() error = %v, want ErrGrowthRecordNotFound", err)
	}
}

func TestGrowthRecordRepository_RejectsUnknownBaby(t *testing.T) {
	conn := newTestDB(t)
	growth := NewGrowthRecordRepository(conn)
	now := time.Now().UTC()

	err := growth.Create(&model.GrowthRecord{ID: "r1", BabyID: "ghost", Date: now, CreatedAt: now, UpdatedAt: now})
	if err == nil {
		t.Error("Create() with unknown baby succeeded, want foreign key error")
	}
}

func TestMilestoneRepository_ByIDIncludesBabyName(t *testing.T) {
	conn := newTestDB(t)
	babies := NewBabyRepository(conn)
	milestones := NewMilestoneRepository(conn)
	now := time.Now().UTC()
	createBaby(t, babies, "b1", "Mia", now)

	m := &model.Milestone{ID: "m1", BabyID: "b1", Date: day(2024, 5, 1), Title: "Rolled over", CreatedAt: now, UpdatedAt: now}
	if err := milestones.Create(m); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := milestones.ByID("m1")
	if err != nil {
		t.Fatalf("ByID() error = %v", err)
	}
	if got.Baby == nil || got.Baby.Name != "Mia" {
		t.Errorf("Baby = %+v, want name Mia", got.Baby)
	}
	if got.TagsJSON != nil {
		t.Errorf("TagsJSON = %q, want NULL for empty tags", *got.TagsJSON)
	}
}

func TestMediaItemRepository_PageAndBatch(t *testing.T) {
	conn := newTestDB(t)
	babies := NewBabyRepository(conn)
	media := NewMediaItemRepository(conn)
	now := time.Now().UTC()
	createBaby(t, babies, "b1", "Mia", now)

	var items []*model.MediaItem
	for i := 0; i < 5; i++ {
		items = append(items, &model.MediaItem{
			ID: string(rune('a' + i)), BabyID: "b1", Date: day(2024, 1, 1+i),
			URL: "/api/media/x.jpg", MediaType: model.MediaTypeImage, CreatedAt: now, UpdatedAt: now,
		})
	}
	if err := media.CreateBatch(items); err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	page, total, err := media.Page("b1", 2, 2)
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 || page[0].ID != "c" || page[1].ID != "b" {
		t.Errorf("Page(offset 2) = %v, want [c b]", ids(page))
	}

	// A duplicate id in the second position must roll back the whole batch.
	bad := []*model.MediaItem{
		{ID: "z", BabyID: "b1", Date: now, URL: "u", MediaType: model.MediaTypeImage, CreatedAt: now, UpdatedAt: now},
		{ID: "a", BabyID: "b1", Date: now, URL: "u", MediaType: model.MediaTypeImage, CreatedAt: now, UpdatedAt: now},
	}
	if err := media.CreateBatch(bad); err == nil {
		t.Fatal("CreateBatch() with duplicate id succeeded, want error")
	}
	if _, err := media.ByID("z"); !errors.Is(err, ErrMediaItemNotFound) {
		t.Errorf("ByID(z) error = %v, want rollback", err)
	}
}

func TestOrphanedBlobRepository(t *testing.T) {
	conn := newTestDB(t)
	repo := NewOrphanedBlobRepository(conn)
	now := time.Now().UTC()

	if err := repo.Create(&model.OrphanedBlob{ID: "o1", ObjectKey: "a.jpg", Reason: "timeout", CreatedAt: now}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.MarkAttempt("o1"); err != nil {
		t.Fatalf("MarkAttempt() error = %v", err)
	}

	pending, err := repo.Pending(10)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Attempts != 1 || pending[0].LastAttemptAt == nil {
		t.Fatalf("Pending() = %+v, want one blob with one attempt", pending)
	}

	if err := repo.Delete("o1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	pending, _ = repo.Pending(10)
	if len(pending) != 0 {
		t.Errorf("Pending() after Delete = %d, want 0", len(pending))
	}
}

func ids(items []*model.MediaItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
