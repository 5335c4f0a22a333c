package store

import (
	"database/sql"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

// translate maps store errors onto the status taxonomy. notFound is used for
// missing rows so callers can tell events apart from other records.
func translate(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for name, ferr := range verrs {
			fields[name] = ferr.Error()
		}
		if isUniqueViolation(fields) {
			return status.ErrConflict
		}
		return &status.ValidationError{Fields: fields}
	}

	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return status.ErrConflict
	}

	return err
}

func isUniqueViolation(fields map[string]string) bool {
	for _, msg := range fields {
		if strings.Contains(strings.ToLower(msg), "unique") {
			return true
		}
	}
	return false
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func formatDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func fileURL(r *core.Record, field string) string {
	name := r.GetString(field)
	if name == "" {
		return ""
	}
	return "/api/files/" + r.BaseFilesPath() + "/" + name
}

func toEvent(r *core.Record) models.Event {
	return models.Event{
		ID:              r.Id,
		Name:            r.GetString("name"),
		Description:     r.GetString("description"),
		Date:            r.GetString("date"),
		Time:            r.GetString("time"),
		VenueText:       r.GetString("venue_text"),
		Performer:       r.GetString("performer"),
		VenueID:         r.GetString("venue_id"),
		TotalPasses:     r.GetInt("total_passes"),
		RemainingPasses: r.GetInt("remaining_passes"),
		PassPrice:       parseDecimal(r.GetString("pass_price")),
		ImageURL:        fileURL(r, "image"),
		Created:         r.GetDateTime("created").Time(),
		Updated:         r.GetDateTime("updated").Time(),
	}
}

func toOrder(r *core.Record) models.Order {
	return models.Order{
		ID:           r.Id,
		EventID:      r.GetString("event_id"),
		EventName:    r.GetString("event_name"),
		UserID:       r.GetString("user_id"),
		BuyerName:    r.GetString("buyer_name"),
		BuyerContact: r.GetString("buyer_contact"),
		Quantity:     r.GetInt("quantity"),
		UnitPrice:    parseDecimal(r.GetString("unit_price")),
		TotalAmount:  parseDecimal(r.GetString("total_amount")),
		TicketCode:   r.GetString("ticket_code"),
		Created:      r.GetDateTime("created").Time(),
	}
}

func toAccount(r *core.Record) models.Account {
	return models.Account{
		ID:           r.Id,
		Kind:         models.IdentityKind(r.GetString("kind")),
		Email:        r.GetString("email"),
		PasswordHash: r.GetString("password_hash"),
		Name:         r.GetString("name"),
		Contact:      r.GetString("contact"),
		Location:     r.GetString("location"),
		Age:          r.GetInt("age"),
		Created:      r.GetDateTime("created").Time(),
		Updated:      r.GetDateTime("updated").Time(),
	}
}

func toFeedback(r *core.Record) models.Feedback {
	return models.Feedback{
		ID:            r.Id,
		AuthorID:      r.GetString("author_id"),
		AuthorEmail:   r.GetString("author_email"),
		AuthorKind:    models.IdentityKind(r.GetString("author_kind")),
		Message:       r.GetString("message"),
		Status:        models.FeedbackStatus(r.GetString("status")),
		AdminResponse: r.GetString("admin_response"),
		ReadByAuthor:  r.GetBool("read_by_author"),
		Created:       r.GetDateTime("created").Time(),
		Updated:       r.GetDateTime("updated").Time(),
	}
}

func mapRecords[T any](records []*core.Record, fn func(*core.Record) T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		out = append(out, fn(r))
	}
	return out
}
