package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EntityType определяет вид синхронизируемой сущности.
// Набор закрыт: каждому значению соответствует ровно один Go тип.
type EntityType string

// EntityType константы для типов сущностей
const (
	EntityTransaction EntityType = "transaction"
	EntityAccount     EntityType = "account"
	EntityCategory    EntityType = "category"
	EntityBook        EntityType = "book"
	EntityBudget      EntityType = "budget"
)

// EntityTypes lists every supported entity type.
var EntityTypes = []EntityType{
	EntityTransaction,
	EntityAccount,
	EntityCategory,
	EntityBook,
	EntityBudget,
}

var resources = map[EntityType]string{
	EntityTransaction: "transactions",
	EntityAccount:     "accounts",
	EntityCategory:    "categories",
	EntityBook:        "books",
	EntityBudget:      "budgets",
}

// ErrUnknownEntityType is returned for entity types outside the closed set.
var ErrUnknownEntityType = errors.New("unknown entity type")

// ParseEntityType проверяет строку типа сущности.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if _, ok := resources[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, s)
	}
	return t, nil
}

// EntityTypeFromResource возвращает тип по сегменту REST пути ("transactions").
func EntityTypeFromResource(resource string) (EntityType, error) {
	for t, r := range resources {
		if r == resource {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: resource %q", ErrUnknownEntityType, resource)
}

// Resource возвращает сегмент REST пути для типа.
func (t EntityType) Resource() string {
	return resources[t]
}

// Valid проверяет, что t входит в закрытый набор типов.
func (t EntityType) Valid() bool {
	_, ok := resources[t]
	return ok
}

// Meta содержит служебные поля, общие для всех сущностей.
// Эти поля не участвуют в определении конфликтующих изменений.
type Meta struct {
	CreatedAt time.Time `json:"created_at"` // CreatedAt время создания на клиенте
	UpdatedAt time.Time `json:"updated_at"` // UpdatedAt время последнего изменения (используется latestWins)
	ID        string    `json:"id"`         // ID клиентский идентификатор (UUID), ключ идемпотентности на сервере
	Deleted   bool      `json:"deleted"`    // Deleted флаг soft delete
}

// EntityID возвращает идентификатор, сгенерированный клиентом.
func (m *Meta) EntityID() string { return m.ID }

func (m *Meta) meta() *Meta { return m }

// Entity - закрытое объединение синхронизируемых сущностей.
// Реализуется только типами этого пакета (*Transaction, *Account, ...).
type Entity interface {
	EntityType() EntityType
	EntityID() string
	Validate() error
	meta() *Meta
}

// Touch обновляет служебные временные метки перед сохранением локальной правки.
func Touch(e Entity, now time.Time) {
	m := e.meta()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// InheritCreatedAt переносит время создания из предыдущей реплики,
// если вызывающий код его не заполнил.
func InheritCreatedAt(e Entity, prev Snapshot) {
	m := e.meta()
	if !m.CreatedAt.IsZero() {
		return
	}
	if ts, ok := prev.CreatedAt(); ok {
		m.CreatedAt = ts
	}
}

// MarkDeleted ставит флаг надгробия и обновляет UpdatedAt.
func MarkDeleted(e Entity, now time.Time) {
	e.meta().Deleted = true
	Touch(e, now)
}

// IsDeleted возвращает флаг надгробия e.
func IsDeleted(e Entity) bool {
	return e.meta().Deleted
}

// TransactionType - тип операции: расход, доход, перевод
type TransactionType int

const (
	TransactionExpense  TransactionType = 1
	TransactionIncome   TransactionType = 2
	TransactionTransfer TransactionType = 3
)

// Transaction представляет одну финансовую операцию в книге (ledger).
type Transaction struct {
	Meta
	BookID          string          `json:"book_id"`
	AccountID       string          `json:"account_id"`
	TargetAccountID string          `json:"target_account_id,omitempty"` // только для переводов
	CategoryID      string          `json:"category_id,omitempty"`
	Amount          string          `json:"amount"` // десятичная строка, например "12.50"
	Fee             string          `json:"fee,omitempty"`
	Date            string          `json:"date"` // YYYY-MM-DD
	Note            string          `json:"note,omitempty"`
	Location        string          `json:"location,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	Type            TransactionType `json:"type"`
}

// EntityType implements Entity.
func (*Transaction) EntityType() EntityType { return EntityTransaction }

// Validate проверяет поля транзакции, которые принимает сервер.
func (t *Transaction) Validate() error {
	if err := validateID(t.ID); err != nil {
		return err
	}
	if t.Deleted {
		return nil
	}
	if t.Type < TransactionExpense || t.Type > TransactionTransfer {
		return fmt.Errorf("transaction type must be 1..3, got %d", t.Type)
	}
	if t.AccountID == "" {
		return fmt.Errorf("account_id is required")
	}
	if t.Type == TransactionTransfer && t.TargetAccountID == "" {
		return fmt.Errorf("target_account_id is required for transfers")
	}
	if err := validateAmount("amount", t.Amount, true); err != nil {
		return err
	}
	if t.Fee != "" {
		if err := validateAmount("fee", t.Fee, false); err != nil {
			return err
		}
	}
	if _, err := time.Parse(time.DateOnly, t.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	if len(t.Note) > 500 {
		return fmt.Errorf("note must not exceed 500 characters")
	}
	return nil
}

// Account представляет счет: наличные, карта, кредитка и т.д.
type Account struct {
	Meta
	BookID      string `json:"book_id,omitempty"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Balance     string `json:"balance"`
	Currency    string `json:"currency"`
	AccountType int    `json:"account_type"`
	IsDefault   bool   `json:"is_default"`
	IsActive    bool   `json:"is_active"`
}

// EntityType implements Entity.
func (*Account) EntityType() EntityType { return EntityAccount }

// Validate проверяет поля счета.
func (a *Account) Validate() error {
	if err := validateID(a.ID); err != nil {
		return err
	}
	if a.Deleted {
		return nil
	}
	if err := validateName(a.Name, 100); err != nil {
		return err
	}
	if a.AccountType < 1 || a.AccountType > 5 {
		return fmt.Errorf("account_type must be 1..5, got %d", a.AccountType)
	}
	if !currencyPattern.MatchString(a.Currency) {
		return fmt.Errorf("currency must be a 3-letter ISO code, got %q", a.Currency)
	}
	if a.Balance != "" {
		if _, err := strconv.ParseFloat(a.Balance, 64); err != nil {
			return fmt.Errorf("balance must be a decimal number: %w", err)
		}
	}
	return nil
}

// Category представляет категорию расходов или доходов.
type Category struct {
	Meta
	ParentID     string `json:"parent_id,omitempty"`
	Name         string `json:"name"`
	Icon         string `json:"icon,omitempty"`
	CategoryType int    `json:"category_type"` // 1: expense, 2: income
	SortOrder    int    `json:"sort_order"`
}

// EntityType implements Entity.
func (*Category) EntityType() EntityType { return EntityCategory }

// Validate проверяет поля категории.
func (c *Category) Validate() error {
	if err := validateID(c.ID); err != nil {
		return err
	}
	if c.Deleted {
		return nil
	}
	if err := validateName(c.Name, 50); err != nil {
		return err
	}
	if c.CategoryType != 1 && c.CategoryType != 2 {
		return fmt.Errorf("category_type must be 1 or 2, got %d", c.CategoryType)
	}
	return nil
}

// Book представляет книгу учета (ledger), в том числе общую семейную.
type Book struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency"`
	IsFamily    bool   `json:"is_family"`
}

// EntityType implements Entity.
func (*Book) EntityType() EntityType { return EntityBook }

// Validate проверяет поля книги.
func (b *Book) Validate() error {
	if err := validateID(b.ID); err != nil {
		return err
	}
	if b.Deleted {
		return nil
	}
	if err := validateName(b.Name, 100); err != nil {
		return err
	}
	if !currencyPattern.MatchString(b.Currency) {
		return fmt.Errorf("currency must be a 3-letter ISO code, got %q", b.Currency)
	}
	return nil
}

// Budget представляет бюджет по категории за период.
type Budget struct {
	Meta
	BookID     string `json:"book_id"`
	CategoryID string `json:"category_id,omitempty"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Period     string `json:"period"` // weekly | monthly | yearly
}

// EntityType implements Entity.
func (*Budget) EntityType() EntityType { return EntityBudget }

// Validate проверяет поля бюджета.
func (b *Budget) Validate() error {
	if err := validateID(b.ID); err != nil {
		return err
	}
	if b.Deleted {
		return nil
	}
	if err := validateName(b.Name, 100); err != nil {
		return err
	}
	if b.BookID == "" {
		return fmt.Errorf("book_id is required")
	}
	if err := validateAmount("amount", b.Amount, true); err != nil {
		return err
	}
	switch b.Period {
	case "weekly", "monthly", "yearly":
	default:
		return fmt.Errorf("period must be weekly, monthly or yearly, got %q", b.Period)
	}
	return nil
}

// NewEntity возвращает пустое значение варианта для t.
func NewEntity(t EntityType) (Entity, error) {
	switch t {
	case EntityTransaction:
		return &Transaction{}, nil
	case EntityAccount:
		return &Account{}, nil
	case EntityCategory:
		return &Category{}, nil
	case EntityBook:
		return &Book{}, nil
	case EntityBudget:
		return &Budget{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, t)
	}
}

// MarshalEntity сериализует сущность в JSON.
func MarshalEntity(e Entity) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", e.EntityType(), err)
	}
	return data, nil
}

// DecodeEntity десериализует JSON в вариант, соответствующий типу t.
func DecodeEntity(t EntityType, data []byte) (Entity, error) {
	e, err := NewEntity(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", t, err)
	}
	return e, nil
}

var (
	amountPattern   = regexp.MustCompile(`^-?\d+(\.\d{1,2})?$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required")
	}
	return nil
}

func validateName(name string, maxLen int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > maxLen {
		return fmt.Errorf("name must not exceed %d characters", maxLen)
	}
	return nil
}

func validateAmount(field, value string, positive bool) error {
	if !amountPattern.MatchString(value) {
		return fmt.Errorf("%s must be a decimal with at most 2 fraction digits, got %q", field, value)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if positive && v <= 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	if v < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}
