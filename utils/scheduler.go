package utils

import (
	"log"
	"ventylab/ai"
	"ventylab/database"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// userModulePair identifies one module aggregate to reconcile
type userModulePair struct {
	UserID   uint
	ModuleID uint
}

// InitializeMaintenanceScheduler sets up the recurring maintenance jobs:
// a nightly reconciliation of the per-module aggregates and an hourly
// prune of the AI rate-limit history. The refresh function is injected so
// the aggregation logic stays with the progress code.
func InitializeMaintenanceScheduler(manager *ai.Manager, refresh func(db *gorm.DB, userID, moduleID uint) error) *cron.Cron {
	log.Println("[MAINTENANCE-SCHEDULER] Initializing maintenance scheduler...")

	c := cron.New()

	// Run nightly at 3 AM to rebuild every stored module aggregate
	c.AddFunc("0 3 * * *", func() {
		log.Println("[MAINTENANCE-SCHEDULER] Running nightly aggregate reconciliation...")
		ReconcileModuleAggregates(refresh)
	})

	// Prune expired rate-limit entries hourly
	c.AddFunc("0 * * * *", func() {
		manager.PruneHistory()
	})

	c.Start()
	log.Println("[MAINTENANCE-SCHEDULER] Maintenance scheduler started - reconciliation runs nightly at 3 AM")
	return c
}

// ReconcileModuleAggregates recomputes every (user, module) aggregate that
// has progress recorded, repairing rows that drifted from the lesson data.
func ReconcileModuleAggregates(refresh func(db *gorm.DB, userID, moduleID uint) error) {
	db := database.Database.Db

	var pairs []userModulePair
	if err := db.Table("module_aggregates").
		Select("DISTINCT user_id, module_id").
		Where("deleted_at IS NULL").
		Scan(&pairs).Error; err != nil {
		log.Printf("[MAINTENANCE-SCHEDULER] Error fetching aggregate pairs: %v", err)
		return
	}

	repaired := 0
	for _, pair := range pairs {
		if err := refresh(db, pair.UserID, pair.ModuleID); err != nil {
			log.Printf("[MAINTENANCE-SCHEDULER] Error refreshing aggregate for user %d module %d: %v", pair.UserID, pair.ModuleID, err)
			continue
		}
		repaired++
	}

	log.Printf("[MAINTENANCE-SCHEDULER] Reconciled %d module aggregates", repaired)
}
