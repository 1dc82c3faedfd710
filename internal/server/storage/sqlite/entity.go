package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/ledgersync/internal/crdt"
	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/internal/server/storage"
)

const entityColumns = `id, user_id, entity_type, client_id, data, clock, version, deleted, created_at, updated_at`

// queryer - общее у *sql.DB и *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UpsertEntity создает или заменяет сущность по ключу (user, type, client id).
// Живая строка с доминирующими часами не меняется, возвращается
// storage.ErrStaleClock; надгробие воскрешают только часы, доминирующие его часы.
func (s *Storage) UpsertEntity(ctx context.Context, e *models.ServerEntity) (bool, error) {
	var created bool

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		version, err := nextVersion(ctx, tx, e.UserID)
		if err != nil {
			return err
		}
		now := nowMilli()
		clock := clockOrEmpty(e.Clock)

		var (
			id          string
			storedClock string
			deleted     int
			createdAt   int64
		)
		err = tx.QueryRowContext(ctx,
			`SELECT id, clock, deleted, created_at FROM entities WHERE user_id = ? AND entity_type = ? AND client_id = ?`,
			e.UserID, string(e.Type), e.ClientID,
		).Scan(&id, &storedClock, &deleted, &createdAt)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			if e.ID == "" {
				e.ID = uuid.New().String()
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO entities (`+entityColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
			`, e.ID, e.UserID, string(e.Type), e.ClientID, e.Data, clock, version, now.UnixMilli(), now.UnixMilli())
			if err != nil {
				return fmt.Errorf("failed to insert entity: %w", err)
			}
			created = true
			e.CreatedAt = now
		case err != nil:
			return fmt.Errorf("failed to check existing entity: %w", err)
		default:
			if err := checkClock([]byte(storedClock), []byte(clock), deleted != 0); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				UPDATE entities
				SET data = ?, clock = ?, version = ?, deleted = 0, updated_at = ?
				WHERE id = ?
			`, e.Data, clock, version, now.UnixMilli(), id)
			if err != nil {
				return fmt.Errorf("failed to update entity: %w", err)
			}
			e.ID = id
			e.CreatedAt = time.UnixMilli(createdAt).UTC()
		}

		e.Clock = []byte(clock)
		e.Version = version
		e.Deleted = false
		e.UpdatedAt = now
		return nil
	})

	return created, err
}

// UpdateEntity заменяет данные и часы живой сущности.
// Запись старее хранимых часов отклоняется с storage.ErrStaleClock.
func (s *Storage) UpdateEntity(ctx context.Context, e *models.ServerEntity) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := liveEntity(ctx, tx, e.UserID, e.Type, e.ID)
		if err != nil {
			return err
		}
		if err := checkClock(existing.Clock, []byte(clockOrEmpty(e.Clock)), false); err != nil {
			return err
		}

		version, err := nextVersion(ctx, tx, e.UserID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE entities SET data = ?, clock = ?, version = ?, updated_at = ?
			WHERE id = ?
		`, e.Data, clockOrEmpty(e.Clock), version, nowMilli().UnixMilli(), e.ID)
		if err != nil {
			return fmt.Errorf("failed to update entity: %w", err)
		}

		updated, err := getEntity(ctx, tx, e.UserID, e.Type, e.ID)
		if err != nil {
			return err
		}
		*e = *updated
		return nil
	})
}

// DeleteEntity превращает живую сущность в надгробие. Пустые часы сохраняют текущие.
func (s *Storage) DeleteEntity(ctx context.Context, userID string, entityType models.EntityType, id string, clock []byte) (*models.ServerEntity, error) {
	var deleted *models.ServerEntity

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := liveEntity(ctx, tx, userID, entityType, id)
		if err != nil {
			return err
		}

		version, err := nextVersion(ctx, tx, userID)
		if err != nil {
			return err
		}

		if len(clock) == 0 {
			clock = existing.Clock
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE entities SET data = NULL, clock = ?, version = ?, deleted = 1, updated_at = ?
			WHERE id = ?
		`, clockOrEmpty(clock), version, nowMilli().UnixMilli(), id)
		if err != nil {
			return fmt.Errorf("failed to delete entity: %w", err)
		}

		deleted, err = getEntity(ctx, tx, userID, entityType, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// GetEntity retrieves entity by server ID, tombstones included.
func (s *Storage) GetEntity(ctx context.Context, userID string, entityType models.EntityType, id string) (*models.ServerEntity, error) {
	return getEntity(ctx, s.db, userID, entityType, id)
}

// ListEntitiesSince возвращает изменения после версии since в порядке версий.
func (s *Storage) ListEntitiesSince(ctx context.Context, userID string, since int64, limit int) ([]*models.ServerEntity, error) {
	query := `
		SELECT ` + entityColumns + `
		FROM entities
		WHERE user_id = ? AND version > ?
		ORDER BY version ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	entities := make([]*models.ServerEntity, 0)
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entities, nil
}

// CurrentVersion возвращает последнюю выданную пользователю версию.
func (s *Storage) CurrentVersion(ctx context.Context, userID string) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM entities WHERE user_id = ?`, userID,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// nextVersion выдает следующую версию пользователя; вызывается внутри транзакции.
func nextVersion(ctx context.Context, q queryer, userID string) (int64, error) {
	var version int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM entities WHERE user_id = ?`, userID,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate version: %w", err)
	}
	return version, nil
}

func liveEntity(ctx context.Context, q queryer, userID string, entityType models.EntityType, id string) (*models.ServerEntity, error) {
	e, err := getEntity(ctx, q, userID, entityType, id)
	if err != nil {
		return nil, err
	}
	if e.Deleted {
		return nil, storage.ErrEntityDeleted
	}
	return e, nil
}

func getEntity(ctx context.Context, q queryer, userID string, entityType models.EntityType, id string) (*models.ServerEntity, error) {
	query := `
		SELECT ` + entityColumns + `
		FROM entities
		WHERE id = ? AND user_id = ? AND entity_type = ?
	`

	e, err := scanEntity(q.QueryRowContext(ctx, query, id, userID, string(entityType)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, err
	}
	return e, nil
}

// scanner - общее у *sql.Row и *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (*models.ServerEntity, error) {
	var (
		e          models.ServerEntity
		entityType string
		clock      string
		deleted    int
		createdAt  int64
		updatedAt  int64
	)

	err := row.Scan(
		&e.ID,
		&e.UserID,
		&entityType,
		&e.ClientID,
		&e.Data,
		&clock,
		&e.Version,
		&deleted,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}

	e.Type = models.EntityType(entityType)
	e.Clock = []byte(clock)
	e.Deleted = deleted == 1
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	e.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return &e, nil
}

// checkClock пропускает запись, если хранимые часы ее не опережают.
// Надгробие заменяется только записью, видевшей удаление.
func checkClock(stored, incoming []byte, deleted bool) error {
	storedVC, err := crdt.DecodeVectorClock(stored)
	if err != nil {
		return fmt.Errorf("failed to decode stored clock: %w", err)
	}
	incomingVC, err := crdt.DecodeVectorClock(incoming)
	if err != nil {
		return fmt.Errorf("failed to decode clock: %w", err)
	}

	ord := incomingVC.Compare(storedVC)
	if ord == crdt.Before || (deleted && ord != crdt.After) {
		return storage.ErrStaleClock
	}
	return nil
}

func clockOrEmpty(clock []byte) string {
	if len(clock) == 0 {
		return "{}"
	}
	return string(clock)
}

// nowMilli - текущее время с точностью хранения (миллисекунды).
func nowMilli() time.Time {
	return time.UnixMilli(time.Now().UnixMilli()).UTC()
}
