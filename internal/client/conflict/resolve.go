package conflict

import (
	"errors"
	"fmt"

	"github.com/iudanet/ledgersync/internal/models"
)

var (
	// ErrManualResolution - конфликт не разрешается автоматически, нужен снапшот от пользователя
	ErrManualResolution = errors.New("conflict requires manual resolution")
	// ErrNotMergeable - удаление и изменение не объединяются полями
	ErrNotMergeable = errors.New("delete and update cannot be merged")
	// ErrUnknownStrategy - неизвестная стратегия
	ErrUnknownStrategy = errors.New("unknown conflict strategy")
)

// ConflictError возвращается, когда политика для конфликта - manual.
type ConflictError struct {
	Result *Result
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict on %s %s: %v",
		e.Result.Type, e.Result.EntityType, e.Result.EntityID, ErrManualResolution)
}

func (e *ConflictError) Unwrap() error {
	return ErrManualResolution
}

// AutoResolve возвращает снапшот, который нужно сохранить.
//
// Без конфликта стратегия игнорируется и применяется решение, следующее из часов.
func AutoResolve(r *Result, strategy models.Strategy) (models.Snapshot, error) {
	if !r.HasConflict {
		switch r.Resolution {
		case models.StrategyRemoteWins:
			return r.Remote.Clone(), nil
		case models.StrategyMerge:
			return merge(r), nil
		default:
			return r.Local.Clone(), nil
		}
	}

	switch strategy {
	case models.StrategyLocalWins:
		return r.Local.Clone(), nil
	case models.StrategyRemoteWins:
		return r.Remote.Clone(), nil
	case models.StrategyLatestWins:
		return latest(r.Local, r.Remote).Clone(), nil
	case models.StrategyMerge:
		switch r.Type {
		case models.ConflictDeleteDelete:
			return r.Remote.Clone(), nil
		case models.ConflictDeleteUpdate, models.ConflictUpdateDelete:
			return nil, fmt.Errorf("%s on %s %s: %w", r.Type, r.EntityType, r.EntityID, ErrNotMergeable)
		}
		return merge(r), nil
	case models.StrategyManual:
		return nil, &ConflictError{Result: r}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// latest выбирает снапшот с более поздним updated_at; при равенстве или
// отсутствии меток побеждает remote.
func latest(local, remote models.Snapshot) models.Snapshot {
	lt, lok := local.UpdatedAt()
	rt, rok := remote.UpdatedAt()
	if lok && (!rok || lt.After(rt)) {
		return local
	}
	return remote
}

// merge накладывает поля, измененные удаленной стороной, на локальный снапшот.
// Поля, измененные обеими сторонами, берутся из remote.
func merge(r *Result) models.Snapshot {
	out := r.Local.Clone()
	if out == nil {
		out = models.Snapshot{}
	}

	for _, f := range r.RemoteFields {
		if v, ok := r.Remote[f]; ok {
			out[f] = v
		} else {
			delete(out, f)
		}
	}

	if r.EntityID != "" {
		out[models.FieldID] = r.EntityID
	}
	if _, ok := out[models.FieldCreatedAt]; !ok {
		if v, ok := r.Remote[models.FieldCreatedAt]; ok {
			out[models.FieldCreatedAt] = v
		}
	}
	if v, ok := latest(r.Local, r.Remote)[models.FieldUpdatedAt]; ok {
		out[models.FieldUpdatedAt] = v
	}
	out[models.FieldDeleted] = false

	return out
}
