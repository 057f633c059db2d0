package overrideController

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"ventylab/database"
	"ventylab/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupOverrideDB(t *testing.T) *gorm.DB {
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

func seedOverride(t *testing.T, db *gorm.DB, createdBy uint) models.ContentOverride {
	override := models.ContentOverride{
		StudentID:  7,
		EntityType: models.EntityLesson,
		EntityID:   10,
		CreatedBy:  createdBy,
		Payload:    datatypes.JSON(`{"hiddenCardIds":[2]}`),
		IsActive:   true,
	}
	require.NoError(t, db.Create(&override).Error)
	return override
}

func deactivateApp(actor models.User) *fiber.App {
	app := fiber.New()
	app.Delete("/overrides/:id", func(c *fiber.Ctx) error {
		c.Locals("authUser", actor)
		id, _ := c.ParamsInt("id")
		c.Locals("overrideID", uint(id))
		return c.Next()
	}, DeactivateOverride)
	return app
}

func TestDeactivateOverrideTeacherScopedToOwn(t *testing.T) {
	db := setupOverrideDB(t)
	override := seedOverride(t, db, 1)

	other := models.User{Model: gorm.Model{ID: 2}, Role: models.RoleTeacher}
	req := httptest.NewRequest("DELETE", fmt.Sprintf("/overrides/%d", override.ID), nil)
	resp, err := deactivateApp(other).Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var stored models.ContentOverride
	require.NoError(t, db.First(&stored, override.ID).Error)
	assert.True(t, stored.IsActive, "another teacher's override stays active")
}

func TestDeactivateOverrideOwnerSucceeds(t *testing.T) {
	db := setupOverrideDB(t)
	override := seedOverride(t, db, 1)

	owner := models.User{Model: gorm.Model{ID: 1}, Role: models.RoleTeacher}
	req := httptest.NewRequest("DELETE", fmt.Sprintf("/overrides/%d", override.ID), nil)
	resp, err := deactivateApp(owner).Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.ContentOverride
	require.NoError(t, db.First(&stored, override.ID).Error)
	assert.False(t, stored.IsActive)
}

func TestDeactivateOverrideAdminBypassesOwnership(t *testing.T) {
	db := setupOverrideDB(t)
	override := seedOverride(t, db, 1)

	admin := models.User{Model: gorm.Model{ID: 9}, Role: models.RoleAdmin}
	req := httptest.NewRequest("DELETE", fmt.Sprintf("/overrides/%d", override.ID), nil)
	resp, err := deactivateApp(admin).Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.ContentOverride
	require.NoError(t, db.First(&stored, override.ID).Error)
	assert.False(t, stored.IsActive)
}
