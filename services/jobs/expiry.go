package jobs

import (
	"log"
	"time"

	"law_market_app_go/models"
	"law_market_app_go/services"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// StartScheduler starts the hourly background sweep. Disabled by default;
// consultations past the offer window are already filtered out of every
// lawyer-facing read, so eviction is housekeeping, not correctness.
func StartScheduler(database *gorm.DB) {
	c := cron.New()

	_, err := c.AddFunc("0 * * * *", func() {
		log.Println("[CRON] Running expired consultation sweep...")
		SweepExpiredConsultations(database)
		if err := services.CleanupStalePresence(database); err != nil {
			log.Printf("[JOB] Error cleaning up stale presence: %v", err)
		}
	})

	if err != nil {
		log.Fatalf("[CRON] Failed to schedule sweep: %v", err)
	}

	c.Start()
	log.Println("[CRON] Scheduler started.")
}

// SweepExpiredConsultations deletes pending consultations whose offer window
// has closed, along with their offers. Consultations with a selected offer
// are kept: the negotiation concluded before the window ran out.
func SweepExpiredConsultations(database *gorm.DB) {
	cutoff := time.Now().Add(-services.OfferWindow)

	var expired []models.Consultation
	err := database.
		Where("created_at < ? AND status = ? AND selected_offer_id IS NULL",
			cutoff, models.ConsultationStatusPending).
		Find(&expired).Error
	if err != nil {
		log.Printf("[JOB] Error fetching expired consultations: %v", err)
		return
	}

	log.Printf("[JOB] Found %d expired consultations to evict", len(expired))

	for _, consultation := range expired {
		err := database.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("consultation_id = ?", consultation.ID).Delete(&models.Offer{}).Error; err != nil {
				return err
			}
			if err := tx.Where("consultation_id = ?", consultation.ID).Delete(&models.StatusChange{}).Error; err != nil {
				return err
			}
			return tx.Delete(&consultation).Error
		})
		if err != nil {
			log.Printf("[JOB] Error evicting consultation %s: %v", consultation.ID, err)
		} else {
			log.Printf("[JOB] Evicted expired consultation %s", consultation.ID)
		}
	}
}
