package changelogController

import (
	"time"
	"ventylab/database"
	"ventylab/middleware"
	"ventylab/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const maxPageSize = 100

// scopeForActor restricts the query to what the requester may see:
// teachers only their own rows, admins everything. Students never reach
// these handlers (role middleware rejects them with 403).
func scopeForActor(db *gorm.DB, actor models.User) *gorm.DB {
	if actor.Role == models.RoleTeacher {
		return db.Where("actor_id = ?", actor.ID)
	}
	return db
}

// ListChangelog handles GET /api/changelog with filters and pagination
func ListChangelog(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit

	db := scopeForActor(database.Database.Db.Model(&models.ChangeLog{}), actor)

	if entityType := c.Query("entityType"); entityType != "" {
		db = db.Where("entity_type = ?", entityType)
	}
	if entityID := c.QueryInt("entityId"); entityID > 0 {
		db = db.Where("entity_id = ?", entityID)
	}
	if action := c.Query("action"); action != "" {
		db = db.Where("action = ?", action)
	}
	if actorID := c.QueryInt("actorId"); actorID > 0 {
		db = db.Where("actor_id = ?", actorID)
	}
	if from, ok := c.Locals("fromTime").(time.Time); ok {
		db = db.Where("created_at >= ?", from)
	}
	if to, ok := c.Locals("toTime").(time.Time); ok {
		db = db.Where("created_at <= ?", to)
	}

	var total int64
	db.Count(&total)

	var entries []models.ChangeLog
	if err := db.Offset(offset).Limit(limit).Order("created_at desc").Find(&entries).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch changelog!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Changelog fetched successfully!", fiber.Map{
		"entries":    entries,
		"pagination": middleware.Pagination(page, limit, total),
	})
}

// GetRecentChanges handles GET /api/changelog/recent, the last 20 entries
func GetRecentChanges(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	var entries []models.ChangeLog
	if err := scopeForActor(database.Database.Db.Model(&models.ChangeLog{}), actor).
		Order("created_at desc").Limit(20).Find(&entries).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch recent changes!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Recent changes fetched successfully!", entries)
}

// GetEntityHistory handles GET /api/changelog/:entityType/:entityId
func GetEntityHistory(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	entityType, ok := c.Locals("entityType").(string)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid entity type!", nil)
	}
	entityID, ok := c.Locals("entityID").(uint)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, middleware.CodeValidation, "Invalid entity ID!", nil)
	}

	var entries []models.ChangeLog
	if err := scopeForActor(database.Database.Db.Model(&models.ChangeLog{}), actor).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at desc").Find(&entries).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to fetch entity history!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Entity history fetched successfully!", entries)
}

// GetChangelogStats handles GET /api/changelog/stats, counts grouped by
// action and by entity type
func GetChangelogStats(c *fiber.Ctx) error {
	actor, ok := c.Locals("authUser").(models.User)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized!", nil)
	}

	type countRow struct {
		Key   string
		Count int64
	}

	var byAction []countRow
	if err := scopeForActor(database.Database.Db.Model(&models.ChangeLog{}), actor).
		Select("action AS key, COUNT(*) AS count").Group("action").Scan(&byAction).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to compute changelog stats!", nil)
	}

	var byEntity []countRow
	if err := scopeForActor(database.Database.Db.Model(&models.ChangeLog{}), actor).
		Select("entity_type AS key, COUNT(*) AS count").Group("entity_type").Scan(&byEntity).Error; err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, middleware.CodeInternal, "Failed to compute changelog stats!", nil)
	}

	var total int64
	scopeForActor(database.Database.Db.Model(&models.ChangeLog{}), actor).Count(&total)

	actionCounts := make(map[string]int64, len(byAction))
	for _, row := range byAction {
		actionCounts[row.Key] = row.Count
	}
	entityCounts := make(map[string]int64, len(byEntity))
	for _, row := range byEntity {
		entityCounts[row.Key] = row.Count
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Changelog stats fetched successfully!", fiber.Map{
		"total":        total,
		"byAction":     actionCounts,
		"byEntityType": entityCounts,
	})
}
