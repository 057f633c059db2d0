package progressController

import (
	"log"
	"time"
	"ventylab/models/curriculum"
	"ventylab/models/progress"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModuleOverview is the computed completion state of one module for one user
type ModuleOverview struct {
	ModuleID         uint   `json:"module_id"`
	Title            string `json:"title"`
	Difficulty       string `json:"difficulty"`
	OrderIndex       int    `json:"order_index"`
	TotalLessons     int    `json:"total_lessons"`
	CompletedLessons int    `json:"completed_lessons"`
	PercentComplete  int    `json:"percent_complete"`
	IsAvailable      bool   `json:"is_available"`
}

// LevelOverview groups module overviews under their level
type LevelOverview struct {
	LevelID          uint             `json:"level_id"`
	Title            string           `json:"title"`
	OrderIndex       int              `json:"order_index"`
	IsOptional       bool             `json:"is_optional"`
	IsAvailable      bool             `json:"is_available"`
	TotalLessons     int              `json:"total_lessons"`
	CompletedLessons int              `json:"completed_lessons"`
	PercentComplete  int              `json:"percent_complete"`
	Modules          []ModuleOverview `json:"modules"`
}

// Overview is the full per-user curriculum state
type Overview struct {
	Levels           []LevelOverview  `json:"levels"`
	Unassigned       []ModuleOverview `json:"unassigned_modules,omitempty"` // modules without a level
	TotalLessons     int              `json:"total_lessons"`
	CompletedLessons int              `json:"completed_lessons"`
	PercentComplete  int              `json:"percent_complete"`
}

// contentRow is one row of the single content query: modules LEFT JOINed
// to their active published lessons and to the level prerequisite edges,
// so empty modules still appear. Rows repeat when a level carries more
// than one prerequisite edge; the aggregation dedupes.
type contentRow struct {
	ModuleID         uint
	ModuleTitle      string
	Difficulty       string
	ModuleOrder      int
	LevelID          *uint
	LevelTitle       string
	LevelOrder       int
	LevelOptional    bool
	LessonID         *uint
	LessonOrder      int
	PrereqRequiredID *uint
}

// percentFloor computes completed/total as a floored percentage, so a
// partially complete module never reports 100.
func percentFloor(completed, total int) int {
	if total == 0 {
		return 0
	}
	return completed * 100 / total
}

func fetchContentRows(db *gorm.DB, levelFilter, moduleFilter *uint) ([]contentRow, error) {
	q := db.Table("modules").
		Select(`modules.id AS module_id, modules.title AS module_title, modules.difficulty,
			modules.order_index AS module_order, modules.level_id,
			levels.title AS level_title, levels.order_index AS level_order, levels.is_optional AS level_optional,
			lessons.id AS lesson_id, lessons.order_index AS lesson_order,
			level_prerequisites.required_level_id AS prereq_required_id`).
		Joins(`LEFT JOIN levels ON levels.id = modules.level_id AND levels.is_deleted = false AND levels.is_active = true`).
		Joins(`LEFT JOIN lessons ON lessons.module_id = modules.id AND lessons.is_deleted = false
			AND lessons.is_active = true AND lessons.is_published = true`).
		Joins(`LEFT JOIN level_prerequisites ON level_prerequisites.level_id = modules.level_id
			AND level_prerequisites.is_deleted = false`).
		Where("modules.is_deleted = false AND modules.is_active = true").
		Order("level_order, module_order, lesson_order")

	if levelFilter != nil {
		q = q.Where("modules.level_id = ?", *levelFilter)
	}
	if moduleFilter != nil {
		q = q.Where("modules.id = ?", *moduleFilter)
	}

	var rows []contentRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// BuildOverview computes per-module completion and availability for a user.
// It runs exactly two queries, the content query and the user's progress
// query; everything else happens in memory with no per-module follow-up
// queries.
func BuildOverview(db *gorm.DB, userID uint, levelFilter, moduleFilter *uint) (*Overview, error) {
	rows, err := fetchContentRows(db, levelFilter, moduleFilter)
	if err != nil {
		return nil, err
	}

	var progressRows []progress.UserProgress
	if err := db.Where("user_id = ? AND is_deleted = false", userID).Find(&progressRows).Error; err != nil {
		return nil, err
	}

	// lessons known to the content set
	knownLessons := make(map[uint]bool)
	for _, row := range rows {
		if row.LessonID != nil {
			knownLessons[*row.LessonID] = true
		}
	}

	completed := make(map[uint]bool)
	for _, p := range progressRows {
		if !p.IsCompleted {
			continue
		}
		if levelFilter == nil && moduleFilter == nil && !knownLessons[p.LessonID] {
			// progress pointing at a removed or inactive lesson is a
			// data-integrity problem; surface it in the log, skip the row
			log.Printf("progress: user %d has completion for unknown lesson %d", userID, p.LessonID)
			continue
		}
		completed[p.LessonID] = true
	}

	// first pass: encounter order and per-module counts
	type moduleMeta struct {
		overview ModuleOverview
		levelID  *uint
	}
	moduleByID := make(map[uint]*moduleMeta)
	var moduleOrder []uint
	levelByID := make(map[uint]*LevelOverview)
	var levelOrder []uint

	// dedup sets: the prerequisite join can repeat a (module, lesson) row
	// once per edge, and an edge once per lesson
	countedLessons := make(map[uint]bool)
	seenEdges := make(map[[2]uint]bool)
	prereqsByLevel := make(map[uint][]uint)

	for _, row := range rows {
		meta, seen := moduleByID[row.ModuleID]
		if !seen {
			meta = &moduleMeta{
				overview: ModuleOverview{
					ModuleID:   row.ModuleID,
					Title:      row.ModuleTitle,
					Difficulty: row.Difficulty,
					OrderIndex: row.ModuleOrder,
				},
				levelID: row.LevelID,
			}
			moduleByID[row.ModuleID] = meta
			moduleOrder = append(moduleOrder, row.ModuleID)

			if row.LevelID != nil {
				if _, ok := levelByID[*row.LevelID]; !ok {
					levelByID[*row.LevelID] = &LevelOverview{
						LevelID:    *row.LevelID,
						Title:      row.LevelTitle,
						OrderIndex: row.LevelOrder,
						IsOptional: row.LevelOptional,
					}
					levelOrder = append(levelOrder, *row.LevelID)
				}
			}
		}

		if row.LessonID != nil && !countedLessons[*row.LessonID] {
			countedLessons[*row.LessonID] = true
			meta.overview.TotalLessons++
			if completed[*row.LessonID] {
				meta.overview.CompletedLessons++
			}
		}

		if row.LevelID != nil && row.PrereqRequiredID != nil {
			edge := [2]uint{*row.LevelID, *row.PrereqRequiredID}
			if !seenEdges[edge] {
				seenEdges[edge] = true
				prereqsByLevel[*row.LevelID] = append(prereqsByLevel[*row.LevelID], *row.PrereqRequiredID)
			}
		}
	}

	// second pass: percentages, grouping, totals
	overview := &Overview{}
	for _, moduleID := range moduleOrder {
		meta := moduleByID[moduleID]
		meta.overview.PercentComplete = percentFloor(meta.overview.CompletedLessons, meta.overview.TotalLessons)
		overview.TotalLessons += meta.overview.TotalLessons
		overview.CompletedLessons += meta.overview.CompletedLessons

		if meta.levelID != nil {
			lvl := levelByID[*meta.levelID]
			lvl.Modules = append(lvl.Modules, meta.overview)
			lvl.TotalLessons += meta.overview.TotalLessons
			lvl.CompletedLessons += meta.overview.CompletedLessons
		} else {
			overview.Unassigned = append(overview.Unassigned, meta.overview)
		}
	}

	levelComplete := make(map[uint]bool)
	optional := make(map[uint]bool)
	for _, levelID := range levelOrder {
		lvl := levelByID[levelID]
		lvl.PercentComplete = percentFloor(lvl.CompletedLessons, lvl.TotalLessons)
		// an empty level is vacuously complete, so draft content never
		// locks learners out of dependent levels
		levelComplete[levelID] = lvl.CompletedLessons == lvl.TotalLessons
		optional[levelID] = lvl.IsOptional
	}

	// level availability: every non-optional prerequisite level fully complete
	for _, levelID := range levelOrder {
		lvl := levelByID[levelID]
		lvl.IsAvailable = true
		for _, required := range prereqsByLevel[levelID] {
			if optional[required] {
				continue
			}
			if !levelComplete[required] {
				lvl.IsAvailable = false
				break
			}
		}

		// sequential module availability: the first module in a level is
		// always available, each next one gates on the previous module
		// being fully complete. A module without published lessons is
		// vacuously complete and never gates its successors.
		for i := range lvl.Modules {
			switch {
			case !lvl.IsAvailable:
				lvl.Modules[i].IsAvailable = false
			case i == 0:
				lvl.Modules[i].IsAvailable = true
			default:
				prev := lvl.Modules[i-1]
				lvl.Modules[i].IsAvailable = prev.CompletedLessons == prev.TotalLessons
			}
		}
	}

	// unassigned modules follow the same sequential rule among themselves
	for i := range overview.Unassigned {
		if i == 0 {
			overview.Unassigned[i].IsAvailable = true
			continue
		}
		prev := overview.Unassigned[i-1]
		overview.Unassigned[i].IsAvailable = prev.CompletedLessons == prev.TotalLessons
	}

	for _, levelID := range levelOrder {
		overview.Levels = append(overview.Levels, *levelByID[levelID])
	}
	overview.PercentComplete = percentFloor(overview.CompletedLessons, overview.TotalLessons)

	return overview, nil
}

// ResumePoint identifies where a learner should pick a module back up
type ResumePoint struct {
	ModuleID     uint                   `json:"module_id"`
	LessonID     uint                   `json:"lesson_id"`
	LessonTitle  string                 `json:"lesson_title"`
	LessonSlug   string                 `json:"lesson_slug"`
	OrderIndex   int                    `json:"order_index"`
	AllCompleted bool                   `json:"all_completed"`
	Progress     *progress.UserProgress `json:"progress,omitempty"`
}

// FindResumePoint returns the first incomplete lesson of the module in
// order; when every lesson is complete, the last lesson with its
// completion data. gorm.ErrRecordNotFound when the module does not exist
// or has no published lessons.
func FindResumePoint(db *gorm.DB, userID, moduleID uint) (*ResumePoint, error) {
	var module curriculum.Module
	if err := db.Where("id = ? AND is_deleted = false AND is_active = true", moduleID).First(&module).Error; err != nil {
		return nil, err
	}

	var lessons []curriculum.Lesson
	if err := db.Where("module_id = ? AND is_deleted = false AND is_active = true AND is_published = true", moduleID).
		Order("order_index asc").Find(&lessons).Error; err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	lessonIDs := make([]uint, len(lessons))
	for i, l := range lessons {
		lessonIDs[i] = l.ID
	}

	var progressRows []progress.UserProgress
	if err := db.Where("user_id = ? AND lesson_id IN ? AND is_deleted = false", userID, lessonIDs).
		Find(&progressRows).Error; err != nil {
		return nil, err
	}
	byLesson := make(map[uint]progress.UserProgress, len(progressRows))
	for _, p := range progressRows {
		byLesson[p.LessonID] = p
	}

	for _, lesson := range lessons {
		if p, ok := byLesson[lesson.ID]; ok && p.IsCompleted {
			continue
		}
		point := &ResumePoint{
			ModuleID:    moduleID,
			LessonID:    lesson.ID,
			LessonTitle: lesson.Title,
			LessonSlug:  lesson.Slug,
			OrderIndex:  lesson.OrderIndex,
		}
		if p, ok := byLesson[lesson.ID]; ok {
			pc := p
			point.Progress = &pc
		}
		return point, nil
	}

	// everything complete: return the last lesson with its completion data
	last := lessons[len(lessons)-1]
	point := &ResumePoint{
		ModuleID:     moduleID,
		LessonID:     last.ID,
		LessonTitle:  last.Title,
		LessonSlug:   last.Slug,
		OrderIndex:   last.OrderIndex,
		AllCompleted: true,
	}
	if p, ok := byLesson[last.ID]; ok {
		pc := p
		point.Progress = &pc
	}
	return point, nil
}

// StepProgressUpdate is the payload of the step-update path. It can never
// complete a lesson: completion requires the explicit complete endpoint.
type StepProgressUpdate struct {
	LessonID        uint
	StepIndex       int
	PercentComplete int
	TimeSpentDelta  int64
}

// UpsertStepProgress writes incremental progress in one atomic upsert
// keyed by (user, lesson). Concurrent updates resolve last-write-wins
// through the unique index; time spent accumulates in the database.
func UpsertStepProgress(db *gorm.DB, userID uint, update StepProgressUpdate) (*progress.UserProgress, error) {
	var lesson curriculum.Lesson
	if err := db.Where("id = ? AND is_deleted = false AND is_active = true", update.LessonID).First(&lesson).Error; err != nil {
		return nil, err
	}

	percent := update.PercentComplete
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if update.TimeSpentDelta < 0 {
		update.TimeSpentDelta = 0
	}

	now := time.Now()
	row := progress.UserProgress{
		UserID:           userID,
		LessonID:         update.LessonID,
		PercentComplete:  percent,
		TimeSpentSeconds: update.TimeSpentDelta,
		LastStepIndex:    update.StepIndex,
		LastAccessedAt:   now,
	}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"percent_complete":   percent,
			"last_step_index":    update.StepIndex,
			"last_accessed_at":   now,
			"updated_at":         now,
			"time_spent_seconds": gorm.Expr("user_progresses.time_spent_seconds + ?", update.TimeSpentDelta),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	var stored progress.UserProgress
	if err := db.Where("user_id = ? AND lesson_id = ?", userID, update.LessonID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// CompleteLesson records the explicit completion signal, idempotently:
// a second call leaves the stored state and the aggregate unchanged.
// Afterwards the owning module's cached aggregate is recomputed with a
// bounded query pair, never recursing into other modules.
func CompleteLesson(db *gorm.DB, userID, lessonID uint) (*progress.UserProgress, error) {
	var lesson curriculum.Lesson
	if err := db.Where("id = ? AND is_deleted = false AND is_active = true", lessonID).First(&lesson).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	row := progress.UserProgress{
		UserID:          userID,
		LessonID:        lessonID,
		IsCompleted:     true,
		PercentComplete: 100,
		LastAccessedAt:  now,
		CompletedAt:     &now,
	}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_completed":     true,
			"percent_complete": 100,
			"last_accessed_at": now,
			"updated_at":       now,
			// keep the first completion timestamp on repeat calls
			"completed_at": gorm.Expr("COALESCE(user_progresses.completed_at, ?)", now),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	if err := RefreshModuleAggregate(db, userID, lesson.ModuleID); err != nil {
		log.Printf("progress: failed to refresh aggregate for user %d module %d: %v", userID, lesson.ModuleID, err)
	}

	var stored progress.UserProgress
	if err := db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// RefreshModuleAggregate recomputes the cached (user, module) aggregate
// from the module's lesson set and the user's raw progress rows.
func RefreshModuleAggregate(db *gorm.DB, userID, moduleID uint) error {
	var total int64
	if err := db.Model(&curriculum.Lesson{}).
		Where("module_id = ? AND is_deleted = false AND is_active = true AND is_published = true", moduleID).
		Count(&total).Error; err != nil {
		return err
	}

	var completedCount int64
	if err := db.Model(&progress.UserProgress{}).
		Joins("JOIN lessons ON lessons.id = user_progresses.lesson_id").
		Where(`user_progresses.user_id = ? AND user_progresses.is_completed = true AND user_progresses.is_deleted = false
			AND lessons.module_id = ? AND lessons.is_deleted = false AND lessons.is_active = true AND lessons.is_published = true`,
			userID, moduleID).
		Count(&completedCount).Error; err != nil {
		return err
	}

	var lastLessonID *uint
	var lastProgress progress.UserProgress
	err := db.Joins("JOIN lessons ON lessons.id = user_progresses.lesson_id").
		Where("user_progresses.user_id = ? AND user_progresses.is_deleted = false AND lessons.module_id = ?", userID, moduleID).
		Order("user_progresses.last_accessed_at desc").
		First(&lastProgress).Error
	if err == nil {
		id := lastProgress.LessonID
		lastLessonID = &id
	}

	aggregate := progress.ModuleAggregate{
		UserID:           userID,
		ModuleID:         moduleID,
		CompletedLessons: int(completedCount),
		TotalLessons:     int(total),
		PercentComplete:  percentFloor(int(completedCount), int(total)),
		LastLessonID:     lastLessonID,
	}

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completed_lessons": aggregate.CompletedLessons,
			"total_lessons":     aggregate.TotalLessons,
			"percent_complete":  aggregate.PercentComplete,
			"last_lesson_id":    lastLessonID,
			"updated_at":        time.Now(),
		}),
	}).Create(&aggregate).Error
}
