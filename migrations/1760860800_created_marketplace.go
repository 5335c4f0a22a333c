package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"

	"ticket-marketplace/internal/store"
)

func init() {
	m.Register(func(app core.App) error {
		return store.EnsureCollections(app)
	}, func(app core.App) error {
		return store.DropCollections(app)
	})
}
