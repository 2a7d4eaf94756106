package services

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"law_market_app_go/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSubmitOffer(t *testing.T) {
	db := setupServiceTestDB(t)
	fx := seedNegotiation(t, db)

	t.Run("RecordsOfferAndIncrementsCount", func(t *testing.T) {
		offer, consultation, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 500, "I can take this case for you")
		assert.NoError(t, err)
		assert.Equal(t, models.OfferStateActive, offer.State)
		assert.Equal(t, fx.Lawyer.ID, offer.LawyerID)
		assert.Equal(t, 1, consultation.OfferCount)
		assert.Len(t, consultation.Offers, 1)
	})

	t.Run("ValidatesInput", func(t *testing.T) {
		_, _, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 0, "valid description here")
		assert.ErrorIs(t, err, ErrValidation)

		_, _, err = SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 100, "too short")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("UnknownConsultation", func(t *testing.T) {
		_, _, err := SubmitOffer(db, fx.Lawyer, "7b7f2f4e-0000-0000-0000-000000000000", 100, "a perfectly fine offer")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("EnforcesPerLawyerCap", func(t *testing.T) {
		// One offer already recorded above; two more reach the cap
		_, _, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 450, "a slightly lower offer")
		assert.NoError(t, err)
		_, _, err = SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 400, "my best and final offer")
		assert.NoError(t, err)

		_, _, err = SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 350, "one offer over the cap")
		assert.ErrorIs(t, err, ErrLimitExceeded)

		var count int64
		db.Model(&models.Offer{}).
			Where("consultation_id = ? AND lawyer_id = ?", fx.Consultation.ID, fx.Lawyer.ID).
			Count(&count)
		assert.EqualValues(t, models.MaxOffersPerLawyer, count)
	})

	t.Run("OtherLawyerHasOwnCap", func(t *testing.T) {
		other := seedLawyer(t, db, "other@test.com", fx.CaseType.ID)
		_, _, err := SubmitOffer(db, other, fx.Consultation.ID, 600, "an offer from another lawyer")
		assert.NoError(t, err)
	})

	t.Run("ExpiredConsultationRejectsOffers", func(t *testing.T) {
		expired := seedNegotiation(t, db)
		ageConsultation(t, db, expired.Consultation.ID, OfferWindow+time.Minute)

		_, _, err := SubmitOffer(db, expired.Lawyer, expired.Consultation.ID, 500, "an offer past the window")
		assert.ErrorIs(t, err, ErrExpired)

		// No partial record
		var count int64
		db.Model(&models.Offer{}).Where("consultation_id = ?", expired.Consultation.ID).Count(&count)
		assert.EqualValues(t, 0, count)
	})
}

func TestUpdateOffer(t *testing.T) {
	db := setupServiceTestDB(t)
	fx := seedNegotiation(t, db)

	offer, _, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 500, "initial offer description")
	assert.NoError(t, err)

	t.Run("OwnerUpdatesPriceAndDescription", func(t *testing.T) {
		price := 450.0
		desc := "revised offer description"
		updated, err := UpdateOffer(db, fx.Lawyer, offer.ID, &price, &desc)
		assert.NoError(t, err)
		assert.Equal(t, 450.0, updated.Price)
		assert.Equal(t, "revised offer description", updated.Description)
	})

	t.Run("NonOwnerIsForbidden", func(t *testing.T) {
		other := seedLawyer(t, db, "intruder@test.com", fx.CaseType.ID)
		price := 1.0
		_, err := UpdateOffer(db, other, offer.ID, &price, nil)
		assert.ErrorIs(t, err, ErrAuthorization)
	})

	t.Run("ExpiredWindowBlocksUpdate", func(t *testing.T) {
		ageConsultation(t, db, fx.Consultation.ID, OfferWindow+time.Minute)
		price := 400.0
		_, err := UpdateOffer(db, fx.Lawyer, offer.ID, &price, nil)
		assert.ErrorIs(t, err, ErrExpired)
	})
}

func TestSelectOffer(t *testing.T) {
	db := setupServiceTestDB(t)
	fx := seedNegotiation(t, db)

	offer, _, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 500, "an offer worth selecting")
	assert.NoError(t, err)

	assert.NoError(t, db.Model(&models.Consultation{}).
		Where("id = ?", fx.Consultation.ID).Update("price", 150).Error)

	t.Run("MissingOfferLeavesConsultationUntouched", func(t *testing.T) {
		_, err := SelectOffer(db, fx.Consultation.ID, "1f6a0000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrNotFound)

		reloaded, err := GetConsultation(db, fx.Consultation.ID)
		assert.NoError(t, err)
		assert.Nil(t, reloaded.SelectedOfferID)
		assert.Equal(t, models.ConsultationStatusPending, reloaded.Status)
	})

	t.Run("SelectionRecordsOfferAndAdvancesStatus", func(t *testing.T) {
		result, err := SelectOffer(db, fx.Consultation.ID, offer.ID)
		assert.NoError(t, err)
		assert.Equal(t, offer.ID, result.SelectedOffer.OfferID)
		assert.Equal(t, models.ConsultationStatusInProgress, result.Status)
		assert.Equal(t, "Custody dispute", result.CaseTitle)
		assert.EqualValues(t, 150, result.Price)

		reloaded, err := GetConsultation(db, fx.Consultation.ID)
		assert.NoError(t, err)
		assert.NotNil(t, reloaded.SelectedOfferID)
		assert.Equal(t, offer.ID, *reloaded.SelectedOfferID)
		assert.Equal(t, fx.Lawyer.ID, *reloaded.SelectedLawyerID)

		// Status history gained an In Progress entry
		var history []models.StatusChange
		db.Where("consultation_id = ?", fx.Consultation.ID).Find(&history)
		statuses := make([]string, 0, len(history))
		for _, h := range history {
			statuses = append(statuses, h.Status)
		}
		assert.Contains(t, statuses, models.ConsultationStatusInProgress)
	})

	t.Run("ReselectingSameOfferIsIdempotent", func(t *testing.T) {
		_, err := SelectOffer(db, fx.Consultation.ID, offer.ID)
		assert.NoError(t, err)
	})

	t.Run("SelectingDifferentOfferConflicts", func(t *testing.T) {
		other := seedLawyer(t, db, "second@test.com", fx.CaseType.ID)
		otherOffer, _, err := SubmitOffer(db, other, fx.Consultation.ID, 300, "a competing cheaper offer")
		assert.NoError(t, err)

		_, err = SelectOffer(db, fx.Consultation.ID, otherOffer.ID)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestSubmitOfferReloadFailure(t *testing.T) {
	db := setupServiceTestDB(t)
	fx := seedNegotiation(t, db)

	// Break the post-insert reload while leaving the offer tables intact
	assert.NoError(t, db.Migrator().DropTable(&models.Case{}))

	offer, consultation, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 500, "an offer that outlives the reload")
	assert.Error(t, err)
	assert.Nil(t, consultation)
	assert.NotNil(t, offer)

	// The offer itself is committed
	var count int64
	db.Model(&models.Offer{}).Where("consultation_id = ?", fx.Consultation.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestConcurrentSelectionsKeepSingleWinner(t *testing.T) {
	// File-backed DB so both goroutines share real WAL locking
	dsn := filepath.Join(t.TempDir(), "race.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.LawyerProfile{},
		&models.ExpertiseEntry{},
		&models.CaseType{},
		&models.Case{},
		&models.Consultation{},
		&models.StatusChange{},
		&models.Offer{},
	))

	fx := seedNegotiation(t, db)
	first, _, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 500, "the first competing offer")
	assert.NoError(t, err)
	other := seedLawyer(t, db, "rival@test.com", fx.CaseType.ID)
	second, _, err := SubmitOffer(db, other, fx.Consultation.ID, 400, "the second competing offer")
	assert.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, offerID := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = SelectOffer(db, fx.Consultation.ID, id)
		}(i, offerID)
	}
	wg.Wait()

	winners := 0
	for _, selErr := range errs {
		if selErr == nil {
			winners++
		} else {
			assert.ErrorIs(t, selErr, ErrConflict)
		}
	}
	assert.Equal(t, 1, winners)

	reloaded, err := GetConsultation(db, fx.Consultation.ID)
	assert.NoError(t, err)
	assert.NotNil(t, reloaded.SelectedOfferID)
	if errs[0] == nil {
		assert.Equal(t, first.ID, *reloaded.SelectedOfferID)
	} else {
		assert.Equal(t, second.ID, *reloaded.SelectedOfferID)
	}
	assert.Equal(t, models.ConsultationStatusInProgress, reloaded.Status)
}

func TestRejectOffer(t *testing.T) {
	db := setupServiceTestDB(t)
	fx := seedNegotiation(t, db)

	offer, _, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 500, "an offer destined for rejection")
	assert.NoError(t, err)

	t.Run("MovesOfferToRejectedAndKeepsRecord", func(t *testing.T) {
		err := RejectOffer(db, fx.Consultation.ID, offer.ID)
		assert.NoError(t, err)

		// Record survives and stays fetchable by id
		fetched, err := GetOffer(db, offer.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.OfferStateRejected, fetched.State)

		// Out of the active list in the client view
		reloaded, err := GetConsultation(db, fx.Consultation.ID)
		assert.NoError(t, err)
		view := NewConsultationView(reloaded)
		assert.Empty(t, view.LawyerOffers)
		assert.Contains(t, view.RejectedOfferIDs, offer.ID)
	})

	t.Run("RejectingTwiceIsNotFound", func(t *testing.T) {
		err := RejectOffer(db, fx.Consultation.ID, offer.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("RejectingSelectedOfferConflicts", func(t *testing.T) {
		other := seedLawyer(t, db, "winner@test.com", fx.CaseType.ID)
		winning, _, err := SubmitOffer(db, other, fx.Consultation.ID, 400, "the offer that gets selected")
		assert.NoError(t, err)
		_, err = SelectOffer(db, fx.Consultation.ID, winning.ID)
		assert.NoError(t, err)

		err = RejectOffer(db, fx.Consultation.ID, winning.ID)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestListOffersByLawyer(t *testing.T) {
	db := setupServiceTestDB(t)
	fx := seedNegotiation(t, db)

	_, _, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 500, "an offer on a live consultation")
	assert.NoError(t, err)

	stale := seedNegotiation(t, db)
	_, _, err = SubmitOffer(db, fx.Lawyer, stale.Consultation.ID, 300, "an offer that will go stale")
	assert.NoError(t, err)
	ageConsultation(t, db, stale.Consultation.ID, OfferWindow+time.Minute)

	entries, err := ListOffersByLawyer(db, fx.Lawyer.ID)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, fx.Consultation.ID, entries[0].Consultation.ID)
	assert.Equal(t, fx.Client.Name, entries[0].Consultation.User.Name)
}

func TestLinkAppointment(t *testing.T) {
	db := setupServiceTestDB(t)
	fx := seedNegotiation(t, db)

	offer, _, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 500, "an offer leading to a booking")
	assert.NoError(t, err)

	appointment, err := BookAppointment(db, AppointmentBooking{
		LawyerID: fx.Lawyer.ID,
		ClientID: fx.Client.ID,
		Date:     "2026-09-15",
		Time:     "10:00",
		Price:    500,
	})
	assert.NoError(t, err)

	consultation, err := LinkAppointment(db, fx.Consultation.ID, offer.ID, appointment.ID)
	assert.NoError(t, err)
	assert.Equal(t, appointment.ID, *consultation.AppointmentID)
	assert.Equal(t, offer.ID, *consultation.SelectedOfferID)

	t.Run("DifferentSelectedOfferConflicts", func(t *testing.T) {
		other := seedLawyer(t, db, "late@test.com", fx.CaseType.ID)
		otherOffer, _, err := SubmitOffer(db, other, fx.Consultation.ID, 200, "a late competing offer")
		assert.NoError(t, err)

		_, err = LinkAppointment(db, fx.Consultation.ID, otherOffer.ID, appointment.ID)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestResetConsultation(t *testing.T) {
	db := setupServiceTestDB(t)
	fx := seedNegotiation(t, db)

	selected, _, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 500, "the offer that gets selected")
	assert.NoError(t, err)

	other := seedLawyer(t, db, "loser@test.com", fx.CaseType.ID)
	rejected, _, err := SubmitOffer(db, other, fx.Consultation.ID, 700, "the offer that gets rejected")
	assert.NoError(t, err)

	assert.NoError(t, RejectOffer(db, fx.Consultation.ID, rejected.ID))
	_, err = SelectOffer(db, fx.Consultation.ID, selected.ID)
	assert.NoError(t, err)

	appointment, err := BookAppointment(db, AppointmentBooking{
		LawyerID: fx.Lawyer.ID,
		ClientID: fx.Client.ID,
		Date:     "2026-09-16",
		Time:     "09:00",
	})
	assert.NoError(t, err)
	_, err = LinkAppointment(db, fx.Consultation.ID, selected.ID, appointment.ID)
	assert.NoError(t, err)

	reset, err := ResetConsultation(db, fx.Consultation.ID)
	assert.NoError(t, err)
	assert.Nil(t, reset.SelectedOfferID)
	assert.Nil(t, reset.SelectedLawyerID)
	assert.Equal(t, models.ConsultationStatusPending, reset.Status)

	// Rejections, the appointment linkage and the offer counter all survive
	reloaded, err := GetConsultation(db, fx.Consultation.ID)
	assert.NoError(t, err)
	assert.Nil(t, reloaded.SelectedOfferID)
	assert.NotNil(t, reloaded.AppointmentID)
	assert.Equal(t, 2, reloaded.OfferCount)

	fetched, err := GetOffer(db, rejected.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.OfferStateRejected, fetched.State)
}

func TestComparePrices(t *testing.T) {
	db := setupServiceTestDB(t)
	fx := seedNegotiation(t, db)

	// Three lawyers, four active offers: 500, 500, 500 and 400
	_, _, err := SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 500, "first offer at five hundred")
	assert.NoError(t, err)
	_, _, err = SubmitOffer(db, fx.Lawyer, fx.Consultation.ID, 500, "second offer at five hundred")
	assert.NoError(t, err)

	second := seedLawyer(t, db, "second@test.com", fx.CaseType.ID)
	_, _, err = SubmitOffer(db, second, fx.Consultation.ID, 500, "third offer at five hundred")
	assert.NoError(t, err)

	third := seedLawyer(t, db, "third@test.com", fx.CaseType.ID)
	_, _, err = SubmitOffer(db, third, fx.Consultation.ID, 400, "a cheaper offer at four hundred")
	assert.NoError(t, err)

	t.Run("SortsOffersAscendingByPrice", func(t *testing.T) {
		entries, err := ComparePrices(db, fx.Case.ID)
		assert.NoError(t, err)
		assert.Len(t, entries, 4)

		prices := make([]float64, 0, len(entries))
		for _, e := range entries {
			prices = append(prices, e.Offer.OfferPrice)
		}
		assert.Equal(t, []float64{400, 500, 500, 500}, prices)
	})

	t.Run("RejectedOffersAreExcluded", func(t *testing.T) {
		entries, err := ComparePrices(db, fx.Case.ID)
		assert.NoError(t, err)
		err = RejectOffer(db, fx.Consultation.ID, entries[0].Offer.OfferID)
		assert.NoError(t, err)

		after, err := ComparePrices(db, fx.Case.ID)
		assert.NoError(t, err)
		assert.Len(t, after, 3)
		assert.Equal(t, []float64{500, 500, 500}, []float64{
			after[0].Offer.OfferPrice, after[1].Offer.OfferPrice, after[2].Offer.OfferPrice,
		})
	})

	t.Run("MalformedCaseID", func(t *testing.T) {
		_, err := ComparePrices(db, "not-a-uuid")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("UnknownCaseID", func(t *testing.T) {
		_, err := ComparePrices(db, "9e0a0000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
