package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pocketbase/pocketbase/tools/filesystem"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
	"ticket-marketplace/monitoring"
)

// fakeEventStore keeps events in memory. Its decrement is atomic under the
// mutex, like the real conditional update.
type fakeEventStore struct {
	mu     sync.Mutex
	events map[string]*models.Event
	seq    int

	decrementErr    error
	decrementBlock  bool
	compensateErrs  []error
	compensateCalls int
	decrementCalls  int
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[string]*models.Event{}}
}

func (f *fakeEventStore) add(event models.Event) models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	if event.ID == "" {
		f.seq++
		event.ID = "evt" + strconv.Itoa(f.seq)
	}
	if event.Created.IsZero() {
		event.Created = time.Now()
	}
	copied := event
	f.events[event.ID] = &copied
	return event
}

func (f *fakeEventStore) remaining(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id].RemainingPasses
}

func (f *fakeEventStore) setPrice(id string, price decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[id].PassPrice = price
}

func (f *fakeEventStore) GetEvent(ctx context.Context, id string) (models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[id]
	if !ok {
		return models.Event{}, status.ErrEventNotFound
	}
	return *event, nil
}

func (f *fakeEventStore) ConditionalDecrement(ctx context.Context, id string, qty int) (models.Reservation, error) {
	if f.decrementBlock {
		<-ctx.Done()
		return models.Reservation{}, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.decrementCalls++
	if f.decrementErr != nil {
		return models.Reservation{}, f.decrementErr
	}

	event, ok := f.events[id]
	if !ok {
		return models.Reservation{}, status.ErrEventNotFound
	}
	if event.RemainingPasses < qty {
		return models.Reservation{}, &status.InsufficientInventoryError{Remaining: event.RemainingPasses}
	}

	event.RemainingPasses -= qty
	return models.Reservation{
		EventID:   id,
		EventName: event.Name,
		UnitPrice: event.PassPrice,
		Remaining: event.RemainingPasses,
	}, nil
}

func (f *fakeEventStore) CompensateIncrement(ctx context.Context, id string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.compensateCalls++
	if len(f.compensateErrs) > 0 {
		err := f.compensateErrs[0]
		f.compensateErrs = f.compensateErrs[1:]
		if err != nil {
			return err
		}
	}

	event, ok := f.events[id]
	if !ok {
		return status.ErrEventNotFound
	}
	if event.RemainingPasses+qty > event.TotalPasses {
		return errors.New("restoring would exceed total passes")
	}
	event.RemainingPasses += qty
	return nil
}

func (f *fakeEventStore) CreateEvent(ctx context.Context, venueID string, draft models.EventDraft) (models.Event, error) {
	return f.add(models.Event{
		Name:            draft.Name,
		Description:     draft.Description,
		Date:            draft.Date,
		Time:            draft.Time,
		VenueText:       draft.VenueText,
		Performer:       draft.Performer,
		VenueID:         venueID,
		TotalPasses:     draft.Passes,
		RemainingPasses: draft.Passes,
		PassPrice:       draft.Price(),
	}), nil
}

func (f *fakeEventStore) UpdateEventFields(ctx context.Context, id, ownerID string, fields models.EventFields) (models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[id]
	if !ok {
		return models.Event{}, status.ErrEventNotFound
	}
	if ownerID != "" && event.VenueID != ownerID {
		return models.Event{}, status.ErrForbidden
	}
	if fields.Name != nil {
		event.Name = *fields.Name
	}
	if fields.PassPrice != nil {
		event.PassPrice = *fields.PassPrice
	}
	if fields.Date != nil {
		event.Date = *fields.Date
	}
	return *event, nil
}

func (f *fakeEventStore) DeleteEvent(ctx context.Context, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[id]
	if !ok {
		return status.ErrEventNotFound
	}
	if ownerID != "" && event.VenueID != ownerID {
		return status.ErrForbidden
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.Event{}
	for _, e := range f.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEventStore) ListEventsByVenue(ctx context.Context, venueID string) ([]models.Event, error) {
	all, _ := f.ListEvents(ctx)
	out := []models.Event{}
	for _, e := range all {
		if e.VenueID == venueID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) DeleteEventsByVenue(ctx context.Context, venueID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for id, e := range f.events {
		if e.VenueID == venueID {
			delete(f.events, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeEventStore) SetEventImage(ctx context.Context, id, ownerID string, file *filesystem.File) (models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[id]
	if !ok {
		return models.Event{}, status.ErrEventNotFound
	}
	if event.VenueID != ownerID {
		return models.Event{}, status.ErrForbidden
	}
	event.ImageURL = "/api/files/events/" + id + "/" + file.Name
	return *event, nil
}

// fakeLedger is an in-memory order ledger.
type fakeLedger struct {
	mu     sync.Mutex
	orders []models.Order
	seq    int

	recordErr    error
	aggregateErr error
}

func (f *fakeLedger) RecordOrder(ctx context.Context, order models.Order) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.recordErr != nil {
		return models.Order{}, f.recordErr
	}
	f.seq++
	order.ID = "ord" + strconv.Itoa(f.seq)
	order.Created = time.Now()
	f.orders = append(f.orders, order)
	return order, nil
}

func (f *fakeLedger) filter(keep func(models.Order) bool) []models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.Order{}
	for _, o := range f.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func (f *fakeLedger) ListOrdersForEvent(ctx context.Context, eventID string) ([]models.Order, error) {
	return f.filter(func(o models.Order) bool { return o.EventID == eventID }), nil
}

func (f *fakeLedger) ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return f.filter(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (f *fakeLedger) AggregateForEvent(ctx context.Context, eventID string) (models.EventSales, error) {
	if f.aggregateErr != nil {
		return models.EventSales{}, f.aggregateErr
	}
	sales := models.EventSales{Revenue: decimal.Zero}
	for _, o := range f.filter(func(o models.Order) bool { return o.EventID == eventID }) {
		sales.TicketsSold += o.Quantity
		sales.Revenue = sales.Revenue.Add(o.TotalAmount)
	}
	return sales, nil
}

func (f *fakeLedger) SoldByEvent(ctx context.Context) (map[string]int, error) {
	sold := map[string]int{}
	for _, o := range f.filter(func(models.Order) bool { return true }) {
		sold[o.EventID] += o.Quantity
	}
	return sold, nil
}

// fakeIdentityStore is an in-memory account store.
type fakeIdentityStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	seq      int
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{accounts: map[string]models.Account{}}
}

func (f *fakeIdentityStore) Create(ctx context.Context, account models.Account) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.accounts {
		if a.Kind == account.Kind && a.Email == account.Email {
			return models.Account{}, status.ErrConflict
		}
	}
	f.seq++
	account.ID = string(account.Kind) + strconv.Itoa(f.seq)
	f.accounts[account.ID] = account
	return account, nil
}

func (f *fakeIdentityStore) FindByEmail(ctx context.Context, kind models.IdentityKind, email string) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.accounts {
		if a.Kind == kind && a.Email == email {
			return a, nil
		}
	}
	return models.Account{}, status.ErrNotFound
}

func (f *fakeIdentityStore) FindByID(ctx context.Context, kind models.IdentityKind, id string) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Kind != kind {
		return models.Account{}, status.ErrNotFound
	}
	return a, nil
}

func (f *fakeIdentityStore) List(ctx context.Context, kind models.IdentityKind) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.Account{}
	for _, a := range f.accounts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeIdentityStore) UpdateProfile(ctx context.Context, kind models.IdentityKind, id string, fields models.AccountFields) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Kind != kind {
		return models.Account{}, status.ErrNotFound
	}
	if fields.Name != nil {
		a.Name = *fields.Name
	}
	if fields.Contact != nil {
		a.Contact = *fields.Contact
	}
	if fields.Location != nil {
		a.Location = *fields.Location
	}
	if fields.Age != nil {
		a.Age = *fields.Age
	}
	f.accounts[id] = a
	return a, nil
}

func (f *fakeIdentityStore) SetPasswordHash(ctx context.Context, kind models.IdentityKind, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Kind != kind {
		return status.ErrNotFound
	}
	a.PasswordHash = hash
	f.accounts[id] = a
	return nil
}

func (f *fakeIdentityStore) Delete(ctx context.Context, kind models.IdentityKind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Kind != kind {
		return status.ErrNotFound
	}
	delete(f.accounts, id)
	return nil
}

// fakeFeedbackStore is an in-memory feedback store.
type fakeFeedbackStore struct {
	mu    sync.Mutex
	items []models.Feedback
}

func (f *fakeFeedbackStore) Create(ctx context.Context, fb models.Feedback) (models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fb.ID = "fb" + strconv.Itoa(len(f.items)+1)
	fb.Status = models.FeedbackPending
	f.items = append(f.items, fb)
	return fb, nil
}

func (f *fakeFeedbackStore) ListByAuthor(ctx context.Context, authorID string) ([]models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.Feedback{}
	for _, fb := range f.items {
		if fb.AuthorID == authorID {
			out = append(out, fb)
		}
	}
	return out, nil
}

func (f *fakeFeedbackStore) List(ctx context.Context, kind models.IdentityKind) ([]models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.Feedback{}
	for _, fb := range f.items {
		if kind == "" || fb.AuthorKind == kind {
			out = append(out, fb)
		}
	}
	return out, nil
}

func (f *fakeFeedbackStore) Respond(ctx context.Context, id string, st models.FeedbackStatus, response string) (models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Status = st
			f.items[i].AdminResponse = response
			f.items[i].ReadByAuthor = false
			return f.items[i], nil
		}
	}
	return models.Feedback{}, status.ErrNotFound
}

func (f *fakeFeedbackStore) MarkReadByAuthor(ctx context.Context, authorID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for i := range f.items {
		fb := &f.items[i]
		if fb.AuthorID == authorID && fb.AdminResponse != "" && !fb.ReadByAuthor {
			fb.ReadByAuthor = true
			n++
		}
	}
	return n, nil
}

// MockNotifier records purchase notifications.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PurchaseCompleted(userID string, receipt models.Receipt) {
	m.Called(userID, receipt)
}

func testGuard() *StoreGuard {
	return NewStoreGuard(200 * time.Millisecond)
}

func testMonitor() *monitoring.Monitor {
	return monitoring.NewMonitor()
}

var (
	buyer = models.Identity{ID: "user1", Kind: models.KindUser, Email: "ann@example.com"}
	venue = models.Identity{ID: "venue1", Kind: models.KindVenue, Email: "bar@example.com"}
	admin = models.Identity{ID: "root", Kind: models.KindSuperadmin}
)
