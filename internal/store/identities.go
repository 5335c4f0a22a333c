package store

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

// IdentityStore keeps user and venue accounts. Emails are unique per kind.
type IdentityStore struct {
	app core.App
}

func NewIdentityStore(app core.App) *IdentityStore {
	return &IdentityStore{app: app}
}

func (s *IdentityStore) Create(ctx context.Context, account models.Account) (models.Account, error) {
	if _, err := s.FindByEmail(ctx, account.Kind, account.Email); err == nil {
		return models.Account{}, status.ErrConflict
	}

	collection, err := s.app.FindCachedCollectionByNameOrId(IdentitiesCollection)
	if err != nil {
		return models.Account{}, fmt.Errorf("identities collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("kind", string(account.Kind))
	record.Set("email", account.Email)
	record.Set("password_hash", account.PasswordHash)
	record.Set("name", account.Name)
	record.Set("contact", account.Contact)
	record.Set("location", account.Location)
	record.Set("age", account.Age)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return models.Account{}, translate(err, status.ErrNotFound)
	}

	return toAccount(record), nil
}

func (s *IdentityStore) FindByEmail(ctx context.Context, kind models.IdentityKind, email string) (models.Account, error) {
	return s.findOne(ctx, dbx.HashExp{"kind": string(kind), "email": email})
}

func (s *IdentityStore) FindByID(ctx context.Context, kind models.IdentityKind, id string) (models.Account, error) {
	return s.findOne(ctx, dbx.HashExp{"kind": string(kind), "id": id})
}

func (s *IdentityStore) findOne(ctx context.Context, where dbx.HashExp) (models.Account, error) {
	record := &core.Record{}
	err := s.app.RecordQuery(IdentitiesCollection).
		WithContext(ctx).
		AndWhere(where).
		Limit(1).
		One(record)
	if err != nil {
		return models.Account{}, translate(err, status.ErrNotFound)
	}
	return toAccount(record), nil
}

func (s *IdentityStore) List(ctx context.Context, kind models.IdentityKind) ([]models.Account, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery(IdentitiesCollection).
		WithContext(ctx).
		AndWhere(dbx.HashExp{"kind": string(kind)}).
		OrderBy("created DESC").
		All(&records)
	if err != nil {
		return nil, fmt.Errorf("list %s accounts: %w", kind, err)
	}
	return mapRecords(records, toAccount), nil
}

func (s *IdentityStore) UpdateProfile(ctx context.Context, kind models.IdentityKind, id string, fields models.AccountFields) (models.Account, error) {
	params := dbx.Params{}
	if fields.Name != nil {
		params["name"] = *fields.Name
	}
	if fields.Contact != nil {
		params["contact"] = *fields.Contact
	}
	if fields.Location != nil {
		params["location"] = *fields.Location
	}
	if fields.Age != nil {
		params["age"] = *fields.Age
	}
	if len(params) > 0 {
		if err := s.update(ctx, kind, id, params); err != nil {
			return models.Account{}, err
		}
	}
	return s.FindByID(ctx, kind, id)
}

func (s *IdentityStore) SetPasswordHash(ctx context.Context, kind models.IdentityKind, id, hash string) error {
	return s.update(ctx, kind, id, dbx.Params{"password_hash": hash})
}

func (s *IdentityStore) update(ctx context.Context, kind models.IdentityKind, id string, params dbx.Params) error {
	params["updated"] = types.NowDateTime().String()

	result, err := s.app.DB().
		Update(IdentitiesCollection, params, dbx.HashExp{"kind": string(kind), "id": id}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return status.ErrNotFound
	}
	return nil
}

func (s *IdentityStore) Delete(ctx context.Context, kind models.IdentityKind, id string) error {
	record := &core.Record{}
	err := s.app.RecordQuery(IdentitiesCollection).
		WithContext(ctx).
		AndWhere(dbx.HashExp{"kind": string(kind), "id": id}).
		Limit(1).
		One(record)
	if err != nil {
		return translate(err, status.ErrNotFound)
	}

	if err := s.app.DeleteWithContext(ctx, record); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	return nil
}
