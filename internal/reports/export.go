package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const applicantSheet = "Applicant Payments"

var applicantHeadings = []string{
	"File Number", "File Status", "Booking Date", "Project", "Unit",
	"Client", "Broker", "Sales Employee", "Payment Plan", "Booking Amount (INR)",
}

// ExportApplicantPaymentReport writes the applicant payment report to w as
// an XLSX workbook.
func (s *Service) ExportApplicantPaymentReport(ctx context.Context, w io.Writer) error {
	views, err := s.ApplicantPaymentReport(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", applicantSheet); err != nil {
		return fmt.Errorf("reports: export: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("reports: export: %w", err)
	}

	for i, h := range applicantHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(applicantSheet, cell, h); err != nil {
			return fmt.Errorf("reports: export: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(applicantHeadings), 1)
	if err := f.SetCellStyle(applicantSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("reports: export: %w", err)
	}

	for i, v := range views {
		row := i + 2
		for col, value := range cellValues(v) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(applicantSheet, cell, value); err != nil {
				return fmt.Errorf("reports: export: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("reports: export write: %w", err)
	}
	return nil
}

func cellValues(v BookingView) []any {
	values := []any{v.FileNumber, v.Status, "", "", "", "", "", "", "", ""}
	if v.Booking != nil {
		values[2] = v.Booking.BookingDate.Format("2006-01-02")
		values[9] = decimal.New(v.Booking.Amount, -2).InexactFloat64()
	}
	if v.Project != nil {
		values[3] = v.Project.Name
	}
	if v.Property != nil {
		values[4] = v.Property.UnitNumber
	}
	if v.Client != nil {
		values[5] = v.Client.Name
	}
	if v.Broker != nil {
		values[6] = v.Broker.Name
	}
	if v.SalesEmployee != nil {
		values[7] = v.SalesEmployee.Name
	}
	if v.PaymentPlan != nil {
		values[8] = v.PaymentPlan.Name
	}
	return values
}
