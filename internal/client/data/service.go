// Package data - доменный сервис клиента: создание и изменение сущностей
// из набора полей и производные величины (баланс счета).
package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/ledgersync/internal/models"
)

//go:generate moq -out engine_mock.go . Engine

// Engine - часть движка синхронизации, через которую проходят все локальные записи.
type Engine interface {
	Save(ctx context.Context, entity models.Entity) (*models.MutationRecord, error)
	Delete(ctx context.Context, entityType models.EntityType, id string) (*models.MutationRecord, error)
	Get(ctx context.Context, entityType models.EntityType, id string) (models.Entity, error)
	List(ctx context.Context, entityType models.EntityType) ([]models.Entity, error)
}

var ErrInvalidField = errors.New("invalid field")

// Service - доменные операции над сущностями.
type Service struct {
	engine Engine
}

func NewService(engine Engine) *Service {
	return &Service{engine: engine}
}

// ParseFields разбирает аргументы вида key=value. true/false становятся bool,
// JSON массивы - списками, целочисленные поля-перечисления - числами;
// остальное (включая суммы вроде amount=12.50) остается строкой.
func ParseFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q, expected key=value", ErrInvalidField, arg)
		}
		if models.BookkeepingFields[key] && key != models.FieldID {
			return nil, fmt.Errorf("%w: %q is managed by the sync engine", ErrInvalidField, key)
		}
		v, err := parseValue(key, raw)
		if err != nil {
			return nil, err
		}
		fields[key] = v
	}
	return fields, nil
}

var intFields = map[string]bool{
	"type":          true,
	"account_type":  true,
	"category_type": true,
	"sort_order":    true,
}

func parseValue(key, raw string) (any, error) {
	switch {
	case intFields[key]:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidField, key)
		}
		return n, nil
	case raw == "true" || raw == "false":
		return raw == "true", nil
	case strings.HasPrefix(raw, "["):
		var list []any
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidField, key, err)
		}
		return list, nil
	default:
		return raw, nil
	}
}

// Add создает сущность из полей. Отсутствующий id генерируется.
func (s *Service) Add(ctx context.Context, entityType models.EntityType, fields map[string]any) (models.Entity, error) {
	snapshot := models.Snapshot{}
	for k, v := range fields {
		snapshot[k] = v
	}
	if snapshot.ID() == "" {
		snapshot[models.FieldID] = uuid.New().String()
	}

	entity, err := decode(entityType, snapshot)
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.Save(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// Update накладывает поля на сохраненную реплику.
func (s *Service) Update(ctx context.Context, entityType models.EntityType, id string, fields map[string]any) (models.Entity, error) {
	current, err := s.engine.Get(ctx, entityType, id)
	if err != nil {
		return nil, err
	}
	if models.IsDeleted(current) {
		return nil, fmt.Errorf("%s %s is deleted", entityType, id)
	}

	snapshot, err := models.SnapshotOf(current)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		if k == models.FieldID {
			continue
		}
		snapshot[k] = v
	}

	entity, err := decode(entityType, snapshot)
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.Save(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *Service) Delete(ctx context.Context, entityType models.EntityType, id string) error {
	_, err := s.engine.Delete(ctx, entityType, id)
	return err
}

func (s *Service) Get(ctx context.Context, entityType models.EntityType, id string) (models.Entity, error) {
	return s.engine.Get(ctx, entityType, id)
}

// List возвращает живые сущности по ID; транзакции сортируются по дате.
func (s *Service) List(ctx context.Context, entityType models.EntityType) ([]models.Entity, error) {
	entities, err := s.engine.List(ctx, entityType)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entities, func(i, j int) bool {
		ti, iok := entities[i].(*models.Transaction)
		tj, jok := entities[j].(*models.Transaction)
		if iok && jok && ti.Date != tj.Date {
			return ti.Date < tj.Date
		}
		return entities[i].EntityID() < entities[j].EntityID()
	})
	return entities, nil
}

// Balance вычисляет баланс счета: начальный остаток плюс доходы, минус
// расходы и комиссии, с учетом переводов в обе стороны.
func (s *Service) Balance(ctx context.Context, accountID string) (string, error) {
	entity, err := s.engine.Get(ctx, models.EntityAccount, accountID)
	if err != nil {
		return "", err
	}
	account := entity.(*models.Account)

	total, err := parseAmount(account.Balance)
	if err != nil {
		return "", fmt.Errorf("account %s: %w", accountID, err)
	}

	txs, err := s.engine.List(ctx, models.EntityTransaction)
	if err != nil {
		return "", err
	}
	for _, e := range txs {
		tx := e.(*models.Transaction)
		if tx.AccountID != accountID && tx.TargetAccountID != accountID {
			continue
		}

		amount, err := parseAmount(tx.Amount)
		if err != nil {
			return "", fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		fee, err := parseAmount(tx.Fee)
		if err != nil {
			return "", fmt.Errorf("transaction %s: %w", tx.ID, err)
		}

		switch {
		case tx.Type == models.TransactionIncome && tx.AccountID == accountID:
			total.Add(total, amount)
		case tx.Type == models.TransactionExpense && tx.AccountID == accountID:
			total.Sub(total, amount)
			total.Sub(total, fee)
		case tx.Type == models.TransactionTransfer && tx.AccountID == accountID:
			total.Sub(total, amount)
			total.Sub(total, fee)
		case tx.Type == models.TransactionTransfer && tx.TargetAccountID == accountID:
			total.Add(total, amount)
		}
	}

	return total.FloatString(2), nil
}

func parseAmount(s string) (*big.Rat, error) {
	if s == "" {
		return new(big.Rat), nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return r, nil
}

func decode(entityType models.EntityType, snapshot models.Snapshot) (models.Entity, error) {
	normalized, err := models.NormalizeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	entity, err := models.EntityFromSnapshot(entityType, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return entity, nil
}
