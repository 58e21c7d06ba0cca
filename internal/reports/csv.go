package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Renderer writes a report in one output format.
type Renderer interface {
	ContentType() string
	Extension() string
	Render(w io.Writer, r *Report) error
}

var csvHeader = []string{
	"date",
	"employee_id",
	"employee_name",
	"employee_email",
	"channel",
	"via_nfc",
	"via_qr",
	"checked_in_at",
}

type CSVRenderer struct{}

func (CSVRenderer) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVRenderer) Extension() string { return "csv" }

// Render writes one header row followed by one row per record, in report
// order.
func (CSVRenderer) Render(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, row := range r.Rows {
		var name, email string
		if row.User != nil {
			name = row.User.Name
			email = row.User.Email
		}
		record := []string{
			row.Date.String(),
			row.UserID.String(),
			name,
			email,
			string(row.Channel),
			strconv.FormatBool(row.ViaNFC),
			strconv.FormatBool(row.ViaQR),
			row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
