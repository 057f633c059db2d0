package changelogController

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"
	"ventylab/database"
	"ventylab/models"
	"ventylab/utils"
	changelogValidator "ventylab/validators/changelog"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupChangelogDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db))
	database.Database = database.DbInstance{Db: db}
	return db
}

func seedEntries(t *testing.T, db *gorm.DB, actorID uint, n int) {
	for i := 0; i < n; i++ {
		utils.RecordContentChange(db, models.EntityLesson, uint(i+1), models.ActionUpdate, actorID, models.RoleTeacher, nil)
	}
	var count int64
	db.Model(&models.ChangeLog{}).Where("actor_id = ?", actorID).Count(&count)
	require.Equal(t, int64(n), count)
}

func appWithActor(actor models.User, handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	chain := append([]fiber.Handler{func(c *fiber.Ctx) error {
		c.Locals("authUser", actor)
		return c.Next()
	}}, handlers...)
	app.Get("/changelog", chain...)
	return app
}

func TestScopeForActorTeacherSeesOnlyOwnRows(t *testing.T) {
	db := setupChangelogDB(t)
	seedEntries(t, db, 1, 3)
	seedEntries(t, db, 2, 2)

	teacher := models.User{Model: gorm.Model{ID: 1}, Role: models.RoleTeacher}
	var count int64
	scopeForActor(db.Model(&models.ChangeLog{}), teacher).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestScopeForActorAdminSeesEverything(t *testing.T) {
	db := setupChangelogDB(t)
	seedEntries(t, db, 1, 3)
	seedEntries(t, db, 2, 2)

	admin := models.User{Model: gorm.Model{ID: 9}, Role: models.RoleAdmin}
	var count int64
	scopeForActor(db.Model(&models.ChangeLog{}), admin).Count(&count)
	assert.Equal(t, int64(5), count)
}

func TestListChangelogCapsPageSize(t *testing.T) {
	db := setupChangelogDB(t)
	seedEntries(t, db, 1, 120)

	admin := models.User{Model: gorm.Model{ID: 9}, Role: models.RoleAdmin}
	app := appWithActor(admin, ListChangelog)

	req := httptest.NewRequest("GET", fmt.Sprintf("/changelog?limit=%d", 500), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Entries    []models.ChangeLog `json:"entries"`
			Pagination struct {
				Limit int   `json:"limit"`
				Total int64 `json:"total"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, maxPageSize, body.Data.Pagination.Limit)
	assert.Len(t, body.Data.Entries, maxPageSize)
	assert.Equal(t, int64(120), body.Data.Pagination.Total)
}

func TestListChangelogRejectsMalformedTimeFilter(t *testing.T) {
	db := setupChangelogDB(t)
	seedEntries(t, db, 1, 1)

	admin := models.User{Model: gorm.Model{ID: 1}, Role: models.RoleAdmin}
	app := appWithActor(admin, changelogValidator.ListFilters(), ListChangelog)

	for _, target := range []string{"/changelog?from=yesterday", "/changelog?to=2026-13-99"} {
		req := httptest.NewRequest("GET", target, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode, target)
	}
}

func TestListChangelogTimeRangeFilter(t *testing.T) {
	db := setupChangelogDB(t)
	seedEntries(t, db, 1, 2)

	admin := models.User{Model: gorm.Model{ID: 1}, Role: models.RoleAdmin}
	app := appWithActor(admin, changelogValidator.ListFilters(), ListChangelog)

	fetch := func(target string) int {
		req := httptest.NewRequest("GET", target, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var body struct {
			Data struct {
				Entries []models.ChangeLog `json:"entries"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return len(body.Data.Entries)
	}

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	assert.Equal(t, 0, fetch("/changelog?from="+future))
	assert.Equal(t, 2, fetch("/changelog?from="+past))
	assert.Equal(t, 0, fetch("/changelog?to="+past))
	assert.Equal(t, 2, fetch("/changelog?to="+future))
}

func TestListChangelogFiltersByAction(t *testing.T) {
	db := setupChangelogDB(t)
	utils.RecordContentChange(db, models.EntityLevel, 1, models.ActionCreate, 1, models.RoleAdmin, nil)
	utils.RecordContentChange(db, models.EntityLevel, 1, models.ActionUpdate, 1, models.RoleAdmin, nil)
	utils.RecordContentChange(db, models.EntityLevel, 1, models.ActionDelete, 1, models.RoleAdmin, nil)

	admin := models.User{Model: gorm.Model{ID: 1}, Role: models.RoleAdmin}
	app := appWithActor(admin, ListChangelog)

	req := httptest.NewRequest("GET", "/changelog?action=UPDATE", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Entries []models.ChangeLog `json:"entries"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data.Entries, 1)
	assert.Equal(t, models.ActionUpdate, body.Data.Entries[0].Action)
}
