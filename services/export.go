package services

import (
	"bytes"
	"fmt"

	"law_market_app_go/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportConsultationsReport builds an xlsx workbook with one row per
// consultation the lawyer has offered on, including offer and selection state.
func ExportConsultationsReport(db *gorm.DB, lawyerID string) (*bytes.Buffer, error) {
	var offers []models.Offer
	err := db.Preload("Consultation.User").Preload("Consultation.Case").Preload("Consultation.CaseType").
		Where("lawyer_id = ?", lawyerID).
		Order("created_at ASC").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load offers for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Consultations"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})

	headers := []string{"Consultation ID", "Client", "Case", "Case Type", "Status", "Offer Price", "Offer State", "Selected", "Submitted At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	row := 2
	for _, offer := range offers {
		c := offer.Consultation
		if c == nil {
			continue
		}

		clientName := ""
		if c.User != nil {
			clientName = c.User.Name
		}
		caseTitle := ""
		if c.Case != nil {
			caseTitle = c.Case.Title
		}
		caseType := ""
		if c.CaseType != nil {
			caseType = c.CaseType.Name
		}
		selected := "no"
		if c.SelectedOfferID != nil && *c.SelectedOfferID == offer.ID {
			selected = "yes"
		}

		values := []interface{}{
			c.ID, clientName, caseTitle, caseType, c.Status,
			offer.Price, offer.State, selected,
			offer.CreatedAt.Format("2006-01-02 15:04"),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	f.SetColWidth(sheet, "A", "A", 38)
	f.SetColWidth(sheet, "B", "E", 22)
	f.SetColWidth(sheet, "F", "I", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}
