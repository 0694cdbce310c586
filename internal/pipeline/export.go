package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"grievance/internal"
)

// ComplaintColumns mirrors the complaints table.
var ComplaintColumns = []string{
	"id", "userId", "emailId", "fullName", "village", "pincode", "aadhar",
	"complaintText", "department", "standardized", "source", "createdAt",
}

// ExportComplaints writes rows as XLSX or CSV depending on the extension.
func ExportComplaints(rows []internal.Complaint, outputPath string) error {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".xlsx":
		return ExportComplaintsToXLSX(rows, outputPath)
	case ".csv":
		return ExportComplaintsToCSV(rows, outputPath)
	default:
		return fmt.Errorf("unsupported export format: %s", outputPath)
	}
}

func ExportComplaintsToXLSX(rows []internal.Complaint, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Complaints"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	for i, h := range ComplaintColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, row := range rows {
		r := i + 2
		for col, value := range complaintValues(row) {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func ExportComplaintsToCSV(rows []internal.Complaint, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	w := csv.NewWriter(out)
	_ = w.Write(ComplaintColumns)
	for _, row := range rows {
		values := complaintValues(row)
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = fmt.Sprint(v)
		}
		_ = w.Write(record)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func complaintValues(c internal.Complaint) []any {
	return []any{
		c.ID, derefInt64(c.UserID), derefInt(c.EmailID), c.FullName, c.Village, c.Pincode, c.Aadhar,
		c.ComplaintText, c.Department, c.Standardized, string(c.Source), c.CreatedAt,
	}
}

func derefInt64(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
