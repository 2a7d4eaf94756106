package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"law_market_app_go/config"
	"law_market_app_go/db"
	"law_market_app_go/middleware"
	"law_market_app_go/models"
	"law_market_app_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Unique shared memory name isolates tests while allowing shared cache for
	// async tasks
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	assert.NoError(t, err)

	err = testDB.Exec("PRAGMA journal_mode=WAL;").Error
	assert.NoError(t, err)

	// Initialize Storage for tests if not already set
	if services.Storage == nil {
		services.Storage = services.NewLocalStorage("tmp/test_uploads")
	}

	err = testDB.AutoMigrate(
		&models.User{},
		&models.LawyerProfile{},
		&models.ExpertiseEntry{},
		&models.CaseType{},
		&models.Case{},
		&models.Consultation{},
		&models.StatusChange{},
		&models.Offer{},
		&models.Appointment{},
		&models.Chat{},
		&models.ChatMessage{},
		&models.Presence{},
	)
	assert.NoError(t, err)

	// Set global DB
	db.DB = testDB

	return testDB
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Add config to context
	c.Set("config", &config.Config{
		Environment:   "test",
		JWTSecret:     "test-secret-for-handler-tests",
		EmailTestMode: true,
	})

	return e, c, rec
}

// actAs stores a principal in the request context the way RequireAuth does
func actAs(c echo.Context, user *models.User) {
	c.Set(middleware.ContextKeyUser, user)
}

// decodeEnvelope parses a response body into the standard envelope
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	var env Envelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// seedPrincipals creates a client and a lawyer (with profile and case type)
// plus a case owned by the client
func seedPrincipals(t *testing.T, testDB *gorm.DB) (*models.User, *models.User, *models.Case, *models.CaseType) {
	caseType := &models.CaseType{Name: "Labor law"}
	assert.NoError(t, testDB.Create(caseType).Error)

	hash, err := services.HashPassword("password123")
	assert.NoError(t, err)

	client := &models.User{
		Name:     "Handler Client",
		Email:    "handler-client@test.com",
		Password: hash,
		Role:     models.RoleUser,
		IsActive: true,
	}
	assert.NoError(t, testDB.Create(client).Error)

	lawyer := &models.User{
		Name:     "Handler Lawyer",
		Email:    "handler-lawyer@test.com",
		Password: hash,
		Role:     models.RoleLawyer,
		IsActive: true,
	}
	assert.NoError(t, testDB.Create(lawyer).Error)

	profile := &models.LawyerProfile{
		UserID:     lawyer.ID,
		CaseTypeID: &caseType.ID,
		Contact:    "handler-lawyer@test.com",
	}
	assert.NoError(t, testDB.Create(profile).Error)
	lawyer.LawyerProfile = profile

	caseRecord := &models.Case{
		UserID:     client.ID,
		Title:      "Dismissal dispute",
		CaseTypeID: &caseType.ID,
	}
	assert.NoError(t, testDB.Create(caseRecord).Error)

	return client, lawyer, caseRecord, caseType
}
