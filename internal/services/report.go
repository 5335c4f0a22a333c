package services

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"ticket-marketplace/models"
)

var orderCSVHeader = []string{
	"order_id", "ticket_code", "buyer_name", "buyer_contact",
	"quantity", "unit_price", "total_amount", "purchased_at",
}

// WriteOrdersCSV writes the buyer list of an event.
func WriteOrdersCSV(w io.Writer, orders []models.Order) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(orderCSVHeader); err != nil {
		return err
	}
	for _, o := range orders {
		row := []string{
			o.ID,
			o.TicketCode,
			spreadsheetSafe(o.BuyerName),
			spreadsheetSafe(o.BuyerContact),
			strconv.Itoa(o.Quantity),
			o.UnitPrice.StringFixed(2),
			o.TotalAmount.StringFixed(2),
			o.Created.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// spreadsheetSafe keeps buyer-supplied text from being read as a formula
// when the export is opened in a spreadsheet.
func spreadsheetSafe(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
