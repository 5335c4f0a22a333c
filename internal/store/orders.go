package store

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

// OrderStore is the append-only order ledger. It has no update or delete.
type OrderStore struct {
	app core.App
}

func NewOrderStore(app core.App) *OrderStore {
	return &OrderStore{app: app}
}

func (s *OrderStore) RecordOrder(ctx context.Context, order models.Order) (models.Order, error) {
	collection, err := s.app.FindCachedCollectionByNameOrId(OrdersCollection)
	if err != nil {
		return models.Order{}, fmt.Errorf("orders collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("event_id", order.EventID)
	record.Set("event_name", order.EventName)
	record.Set("user_id", order.UserID)
	record.Set("buyer_name", order.BuyerName)
	record.Set("buyer_contact", order.BuyerContact)
	record.Set("quantity", order.Quantity)
	record.Set("unit_price", formatDecimal(order.UnitPrice))
	record.Set("total_amount", formatDecimal(order.TotalAmount))
	record.Set("ticket_code", order.TicketCode)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return models.Order{}, translate(err, status.ErrNotFound)
	}

	return toOrder(record), nil
}

func (s *OrderStore) ListOrdersForEvent(ctx context.Context, eventID string) ([]models.Order, error) {
	return s.list(ctx, dbx.HashExp{"event_id": eventID})
}

func (s *OrderStore) ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.list(ctx, dbx.HashExp{"user_id": userID})
}

func (s *OrderStore) list(ctx context.Context, where dbx.Expression) ([]models.Order, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery(OrdersCollection).
		WithContext(ctx).
		AndWhere(where).
		OrderBy("created DESC").
		All(&records)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return mapRecords(records, toOrder), nil
}

type saleRow struct {
	Quantity    int    `db:"quantity"`
	TotalAmount string `db:"total_amount"`
}

// AggregateForEvent sums the frozen order amounts for one event. Amounts are
// added as decimals rather than in SQL to stay exact.
func (s *OrderStore) AggregateForEvent(ctx context.Context, eventID string) (models.EventSales, error) {
	rows := []saleRow{}
	err := s.app.DB().
		Select("quantity", "total_amount").
		From(OrdersCollection).
		Where(dbx.HashExp{"event_id": eventID}).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return models.EventSales{}, fmt.Errorf("aggregate orders for event %s: %w", eventID, err)
	}

	sales := models.EventSales{Revenue: decimal.Zero}
	for _, row := range rows {
		sales.TicketsSold += row.Quantity
		sales.Revenue = sales.Revenue.Add(parseDecimal(row.TotalAmount))
	}
	return sales, nil
}

type soldRow struct {
	EventID string `db:"event_id"`
	Sold    int    `db:"sold"`
}

// SoldByEvent returns the ledger's ticket count for every event that has
// orders, including events that no longer exist.
func (s *OrderStore) SoldByEvent(ctx context.Context) (map[string]int, error) {
	rows := []soldRow{}
	err := s.app.DB().
		NewQuery("SELECT event_id, SUM(quantity) AS sold FROM orders GROUP BY event_id").
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("sum orders by event: %w", err)
	}

	sold := make(map[string]int, len(rows))
	for _, row := range rows {
		sold[row.EventID] = row.Sold
	}
	return sold, nil
}
