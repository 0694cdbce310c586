package intake

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"

	"grievance/internal"
)

// CSVHeader is the column layout of the flat complaints file.
var CSVHeader = []string{
	"Full Name", "Mobile", "Village", "Pincode", "Aadhar",
	"Complaint", "Department", "Standardized Complaint", "Timestamp",
}

// CSVExport appends every stored complaint to a flat CSV file.
type CSVExport struct {
	Path string

	mu sync.Mutex
}

func NewCSVExport(path string) *CSVExport {
	return &CSVExport{Path: path}
}

// Append writes one row, writing the header first when the file is new or empty.
func (e *CSVExport) Append(c internal.Complaint, mobile string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(e.Path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(e.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(CSVHeader); err != nil {
			_ = f.Close()
			return err
		}
	}
	row := []string{
		c.FullName, mobile, c.Village, c.Pincode, c.Aadhar,
		c.ComplaintText, c.Department, c.Standardized, c.CreatedAt,
	}
	if err := w.Write(row); err != nil {
		_ = f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
