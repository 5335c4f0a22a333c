package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/tests"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ticket-marketplace/internal/services"
	"ticket-marketplace/internal/store"
	"ticket-marketplace/models"
)

func TestHashPasswordCommand(t *testing.T) {
	cmd := NewHashPasswordCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"correct-horse"})

	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct-horse")))
}

func TestHashPasswordCommand_TooShort(t *testing.T) {
	cmd := NewHashPasswordCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"short"})

	assert.Error(t, cmd.Execute())
}

func TestReconcileCommand(t *testing.T) {
	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)
	require.NoError(t, store.EnsureCollections(app))

	events := store.NewEventStore(app)
	orders := store.NewOrderStore(app)
	reconcile := services.NewReconcileService(events, orders, services.NewStoreGuard(5*time.Second))

	price := decimal.NewFromInt(5)
	event, err := events.CreateEvent(context.Background(), "venue1", models.EventDraft{
		Name:      "Drifting Show",
		Date:      "2026-12-31",
		Passes:    10,
		PassPrice: &price,
	})
	require.NoError(t, err)

	var out bytes.Buffer
	cmd := NewReconcileCommand(reconcile)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "All events reconcile.")

	// A decrement with no matching order is what a lost compensation leaves behind.
	_, err = events.ConditionalDecrement(context.Background(), event.ID, 3)
	require.NoError(t, err)

	out.Reset()
	cmd = NewReconcileCommand(reconcile)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--fail"})

	assert.Error(t, cmd.Execute())
	assert.Contains(t, out.String(), event.ID)
	assert.Contains(t, out.String(), "Drifting Show")
}
