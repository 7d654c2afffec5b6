// Package export renders order listings for spreadsheet tools.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/polkiloo/grocerymart/internal/domain/model"
)

// utf8BOM makes spreadsheet applications detect the encoding.
const utf8BOM = "\uFEFF"

var header = []string{
	"Order Number",
	"Customer Name",
	"Customer Email",
	"Status",
	"Total",
	"Items",
	"Date",
	"Address",
	"Notes",
}

// WriteOrdersCSV writes a BOM, a header row and one row per order.
func WriteOrdersCSV(w io.Writer, orders []model.Order) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, order := range orders {
		record := []string{
			order.Number,
			order.CustomerName,
			order.CustomerEmail,
			order.Status.Label(),
			order.TotalAmount.StringFixed(2),
			strconv.Itoa(order.ItemCount()),
			order.CreatedAt.Format(time.DateTime),
			order.ShippingAddress,
			order.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write order %s: %w", order.Number, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
