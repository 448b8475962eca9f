package export

import (
	"fmt"
	"io"

	"homebook/internal/backend"
)

var historyColumns = []string{"Booking #", "Service", "Date", "Time", "Status", "Price"}

// WriteBookingHistory renders the user's bookings to a single-sheet
// spreadsheet, newest first as provided by the backend.
func WriteBookingHistory(w io.Writer, writer SheetWriter, bookings []backend.Booking) error {
	if err := writer.AddSheet("Bookings"); err != nil {
		return err
	}
	if err := writer.WriteHeader(historyColumns); err != nil {
		return err
	}

	for _, b := range bookings {
		row := []interface{}{
			b.ID,
			b.ServiceName,
			b.Date.String(),
			b.Time.Format12Hour(),
			string(b.Status),
			b.PriceAtBooking.String(),
		}
		if err := writer.WriteRow(row); err != nil {
			return fmt.Errorf("write booking %d: %w", b.ID, err)
		}
	}

	return writer.Save(w)
}
