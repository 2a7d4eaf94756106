package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"law_market_app_go/models"
	"law_market_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// multipartConsultation builds a multipart request body with the consultation
// fields plus the named attachments
func multipartConsultation(t *testing.T, caseID, caseTypeID, description string, filenames ...string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	assert.NoError(t, writer.WriteField("caseId", caseID))
	assert.NoError(t, writer.WriteField("caseTypeId", caseTypeID))
	assert.NoError(t, writer.WriteField("description", description))
	for _, name := range filenames {
		part, err := writer.CreateFormFile("attachedFiles", name)
		assert.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 dismissal letter"))
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestConsultationAttachments(t *testing.T) {
	testDB := setupTestDB(t)
	client, lawyer, caseRecord, caseType := seedPrincipals(t, testDB)

	uploadDir := t.TempDir()
	services.Storage = services.NewLocalStorage(uploadDir)

	var consultationID string
	var fileKey string

	t.Run("CreateStoresAttachment", func(t *testing.T) {
		body, contentType := multipartConsultation(t, caseRecord.ID, caseType.ID,
			"I was dismissed without notice and need advice", "dismissal-letter.pdf")

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/consultations", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		actAs(c, client)

		assert.NoError(t, CreateConsultationHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var consultation models.Consultation
		assert.NoError(t, testDB.First(&consultation, "user_id = ?", client.ID).Error)
		assert.Len(t, consultation.AttachedFiles, 1)
		consultationID = consultation.ID
		fileKey = consultation.AttachedFiles[0]
		assert.Contains(t, fileKey, "users/"+client.ID+"/consultations")

		// The upload landed on disk under the generated key
		_, err := os.Stat(filepath.Join(uploadDir, fileKey))
		assert.NoError(t, err)
	})

	t.Run("OwnerDownloadsAttachment", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/consultations/%s/files/%s", consultationID, url.PathEscape(fileKey))
		_, c, rec := setupEcho(http.MethodGet, path, nil)
		c.SetParamNames("id", "key")
		c.SetParamValues(consultationID, fileKey)
		actAs(c, client)

		assert.NoError(t, DownloadConsultationFileHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
		assert.Contains(t, rec.Body.String(), "dismissal letter")
	})

	t.Run("NonOwnerCannotDownload", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/v1/consultations/x/files/y", nil)
		c.SetParamNames("id", "key")
		c.SetParamValues(consultationID, fileKey)
		actAs(c, lawyer)

		assert.NoError(t, DownloadConsultationFileHandler(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("UnlistedKeyIs404", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/v1/consultations/x/files/y", nil)
		c.SetParamNames("id", "key")
		c.SetParamValues(consultationID, "users/"+client.ID+"/consultations/other.pdf")
		actAs(c, client)

		assert.NoError(t, DownloadConsultationFileHandler(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("TooManyAttachmentsRejected", func(t *testing.T) {
		names := make([]string, models.MaxAttachedFiles+1)
		for i := range names {
			names[i] = fmt.Sprintf("exhibit-%d.pdf", i+1)
		}
		body, contentType := multipartConsultation(t, caseRecord.ID, caseType.ID,
			"a consultation buried in exhibits", names...)

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/consultations", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		actAs(c, client)

		assert.NoError(t, CreateConsultationHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var count int64
		testDB.Model(&models.Consultation{}).Where("user_id = ?", client.ID).Count(&count)
		assert.EqualValues(t, 1, count)
	})
}
