package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/grocerymart/internal/domain/model"
)

func TestWriteOrdersCSV(t *testing.T) {
	orders := []model.Order{
		{
			Number:          "ORD-20261014-0001",
			CustomerName:    "Ana",
			CustomerEmail:   "ana@example.com",
			Status:          model.OrderStatusDelivered,
			TotalAmount:     decimal.NewFromInt(37000),
			ShippingAddress: "Main st, 1",
			Notes:           "leave at \"door\"",
			CreatedAt:       time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC),
			Items:           []model.OrderItem{{Quantity: 2}, {Quantity: 1}},
		},
	}

	var buf bytes.Buffer
	if err := WriteOrdersCSV(&buf, orders); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, utf8BOM) {
		t.Fatal("expected output to start with a BOM")
	}

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, utf8BOM))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header and one row, got %d records", len(records))
	}
	if strings.Join(records[0], ",") != "Order Number,Customer Name,Customer Email,Status,Total,Items,Date,Address,Notes" {
		t.Fatalf("unexpected header %v", records[0])
	}
	want := []string{"ORD-20261014-0001", "Ana", "ana@example.com", "Delivered", "37000.00", "3", "2026-10-14 09:30:00", "Main st, 1", "leave at \"door\""}
	for i, v := range want {
		if records[1][i] != v {
			t.Fatalf("column %d: expected %q, got %q", i, v, records[1][i])
		}
	}
}

func TestWriteOrdersCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOrdersCSV(&buf, nil); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected header only, got %q", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteOrdersCSVWriterError(t *testing.T) {
	if err := WriteOrdersCSV(failingWriter{}, nil); err == nil {
		t.Fatal("expected writer error")
	}
}
