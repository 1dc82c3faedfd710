package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/models"
)

// memEngine - EngineMock поверх map, без очереди и часов.
func memEngine() *EngineMock {
	items := map[string]models.Entity{}
	key := func(t models.EntityType, id string) string { return string(t) + "/" + id }

	return &EngineMock{
		SaveFunc: func(ctx context.Context, entity models.Entity) (*models.MutationRecord, error) {
			if err := entity.Validate(); err != nil {
				return nil, err
			}
			items[key(entity.EntityType(), entity.EntityID())] = entity
			return &models.MutationRecord{EntityID: entity.EntityID()}, nil
		},
		DeleteFunc: func(ctx context.Context, entityType models.EntityType, id string) (*models.MutationRecord, error) {
			e, ok := items[key(entityType, id)]
			if !ok {
				return nil, storage.ErrEntityNotFound
			}
			models.MarkDeleted(e, time.Now())
			return &models.MutationRecord{EntityID: id, Operation: models.OperationDelete}, nil
		},
		GetFunc: func(ctx context.Context, entityType models.EntityType, id string) (models.Entity, error) {
			e, ok := items[key(entityType, id)]
			if !ok {
				return nil, storage.ErrEntityNotFound
			}
			return e, nil
		},
		ListFunc: func(ctx context.Context, entityType models.EntityType) ([]models.Entity, error) {
			var out []models.Entity
			for _, e := range items {
				if e.EntityType() == entityType && !models.IsDeleted(e) {
					out = append(out, e)
				}
			}
			return out, nil
		},
	}
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{
		"amount=12.50",
		"type=2",
		"is_default=true",
		`tags=["food","work"]`,
		"note=42",
		"date=2026-05-10",
	})
	require.NoError(t, err)

	assert.Equal(t, "12.50", fields["amount"])
	assert.Equal(t, 2, fields["type"])
	assert.Equal(t, true, fields["is_default"])
	assert.Equal(t, []any{"food", "work"}, fields["tags"])
	assert.Equal(t, "42", fields["note"], "free text stays a string")
	assert.Equal(t, "2026-05-10", fields["date"])

	tests := []struct {
		name string
		arg  string
	}{
		{name: "no separator", arg: "amount"},
		{name: "empty key", arg: "=5"},
		{name: "bookkeeping field", arg: "deleted=true"},
		{name: "non-integer enum", arg: "type=expense"},
		{name: "broken list", arg: "tags=[1,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFields([]string{tt.arg})
			assert.ErrorIs(t, err, ErrInvalidField)
		})
	}
}

func TestService_AddUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := NewService(memEngine())

	fields, err := ParseFields([]string{"book_id=b1", "account_id=a1", "amount=9.99", "date=2026-05-10", "type=1"})
	require.NoError(t, err)

	entity, err := s.Add(ctx, models.EntityTransaction, fields)
	require.NoError(t, err)
	tx := entity.(*models.Transaction)
	assert.NotEmpty(t, tx.ID, "id is generated")
	assert.Equal(t, "9.99", tx.Amount)

	updated, err := s.Update(ctx, models.EntityTransaction, tx.ID, map[string]any{"amount": "10.49", "id": "other"})
	require.NoError(t, err)
	assert.Equal(t, "10.49", updated.(*models.Transaction).Amount)
	assert.Equal(t, tx.ID, updated.EntityID(), "id cannot be changed")
	assert.Equal(t, "b1", updated.(*models.Transaction).BookID)

	require.NoError(t, s.Delete(ctx, models.EntityTransaction, tx.ID))
	_, err = s.Update(ctx, models.EntityTransaction, tx.ID, map[string]any{"amount": "1"})
	assert.Error(t, err)

	list, err := s.List(ctx, models.EntityTransaction)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_AddInvalid(t *testing.T) {
	s := NewService(memEngine())

	_, err := s.Add(context.Background(), models.EntityTransaction, map[string]any{"amount": "abc"})
	assert.Error(t, err)

	_, err = s.Add(context.Background(), models.EntityTransaction, map[string]any{"amount": []any{1}})
	assert.ErrorIs(t, err, ErrInvalidField, "wrong JSON type")
}

func TestService_ListSortsTransactionsByDate(t *testing.T) {
	ctx := context.Background()
	s := NewService(memEngine())

	for _, f := range []map[string]any{
		{"id": "t1", "book_id": "b", "account_id": "a", "amount": "1", "date": "2026-05-03", "type": 1},
		{"id": "t2", "book_id": "b", "account_id": "a", "amount": "1", "date": "2026-05-01", "type": 1},
		{"id": "t3", "book_id": "b", "account_id": "a", "amount": "1", "date": "2026-05-02", "type": 1},
	} {
		_, err := s.Add(ctx, models.EntityTransaction, f)
		require.NoError(t, err)
	}

	list, err := s.List(ctx, models.EntityTransaction)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"t2", "t3", "t1"}, []string{list[0].EntityID(), list[1].EntityID(), list[2].EntityID()})
}

func TestService_Balance(t *testing.T) {
	ctx := context.Background()
	s := NewService(memEngine())

	add := func(t *testing.T, et models.EntityType, f map[string]any) {
		t.Helper()
		_, err := s.Add(ctx, et, f)
		require.NoError(t, err)
	}

	add(t, models.EntityAccount, map[string]any{"id": "cash", "name": "Cash", "currency": "EUR", "account_type": 1, "balance": "100.00"})
	add(t, models.EntityAccount, map[string]any{"id": "card", "name": "Card", "currency": "EUR", "account_type": 2, "balance": "0"})

	tx := func(id string, typ int, amount, fee, from, to string) map[string]any {
		f := map[string]any{"id": id, "book_id": "b", "account_id": from, "amount": amount, "date": "2026-05-10", "type": typ}
		if fee != "" {
			f["fee"] = fee
		}
		if to != "" {
			f["target_account_id"] = to
		}
		return f
	}
	add(t, models.EntityTransaction, tx("t1", int(models.TransactionExpense), "12.50", "0.50", "cash", ""))
	add(t, models.EntityTransaction, tx("t2", int(models.TransactionIncome), "40", "", "cash", ""))
	add(t, models.EntityTransaction, tx("t3", int(models.TransactionTransfer), "20", "1", "cash", "card"))
	add(t, models.EntityTransaction, tx("t4", int(models.TransactionExpense), "5", "", "card", ""))

	balance, err := s.Balance(ctx, "cash")
	require.NoError(t, err)
	// 100 - 12.50 - 0.50 + 40 - 20 - 1
	assert.Equal(t, "106.00", balance)

	balance, err = s.Balance(ctx, "card")
	require.NoError(t, err)
	assert.Equal(t, "15.00", balance)

	_, err = s.Balance(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
}
