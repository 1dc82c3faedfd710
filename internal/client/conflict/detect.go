// Package conflict классифицирует расхождения реплик сущности и применяет политику разрешения.
package conflict

import (
	"reflect"
	"sort"

	"github.com/iudanet/ledgersync/internal/crdt"
	"github.com/iudanet/ledgersync/internal/models"
)

// Result - результат сравнения локальной и удаленной реплики.
// Живет в пределах одного прохода разрешения.
type Result struct {
	Local       models.Snapshot
	Remote      models.Snapshot
	Ancestor    models.Snapshot // nil если общий предок неизвестен
	LocalClock  crdt.VectorClock
	RemoteClock crdt.VectorClock
	EntityType  models.EntityType
	EntityID    string
	Type        models.ConflictType
	// Resolution заполнен, когда исход очевиден без политики
	// (remoteWins для before, localWins для after, merge для совпавших данных)
	Resolution models.Strategy
	// LocalFields и RemoteFields - поля, измененные каждой стороной
	LocalFields  []string
	RemoteFields []string
	// Conflicting - поля, измененные обеими сторонами по-разному
	Conflicting []string
	Ordering    crdt.Ordering
	HasConflict bool
}

// Detect compares two replicas by their clocks and, for concurrent edits, by their fields.
//
// With a known ancestor, each side's modified fields are those differing from it.
// Without one, a field counts as modified by a side when that side has a non-null value
// differing from the other side, which over-reports conflicts but never misses one.
func Detect(local, remote models.Snapshot, localClock, remoteClock crdt.VectorClock, ancestor models.Snapshot) *Result {
	r := &Result{
		Local:       local,
		Remote:      remote,
		Ancestor:    ancestor,
		LocalClock:  localClock.Clone(),
		RemoteClock: remoteClock.Clone(),
		Type:        models.ConflictNone,
		EntityID:    firstNonEmpty(local.ID(), remote.ID()),
	}

	r.Ordering = localClock.Compare(remoteClock)
	switch r.Ordering {
	case crdt.Equal:
		return r
	case crdt.Before:
		r.Resolution = models.StrategyRemoteWins
		return r
	case crdt.After:
		r.Resolution = models.StrategyLocalWins
		return r
	}

	localDeleted, remoteDeleted := local.Deleted(), remote.Deleted()
	switch {
	case localDeleted && remoteDeleted:
		r.HasConflict = true
		r.Type = models.ConflictDeleteDelete
		return r
	case localDeleted:
		r.HasConflict = true
		r.Type = models.ConflictDeleteUpdate
		return r
	case remoteDeleted:
		r.HasConflict = true
		r.Type = models.ConflictUpdateDelete
		return r
	}

	if ancestor != nil {
		r.LocalFields = changedFields(ancestor, local)
		r.RemoteFields = changedFields(ancestor, remote)
	} else {
		r.LocalFields, r.RemoteFields = divergentFields(local, remote)
	}

	remoteSet := make(map[string]bool, len(r.RemoteFields))
	for _, f := range r.RemoteFields {
		remoteSet[f] = true
	}
	for _, f := range r.LocalFields {
		// одинаковая правка с обеих сторон конфликтом не является
		if remoteSet[f] && !valueEqual(local[f], remote[f]) {
			r.Conflicting = append(r.Conflicting, f)
		}
	}

	switch {
	case len(r.Conflicting) > 0:
		r.HasConflict = true
		r.Type = models.ConflictField
	case len(divergentKeys(local, remote)) > 0:
		r.HasConflict = true
		r.Type = models.ConflictMergeable
	default:
		// параллельные часы, но данные совпадают: достаточно слить часы
		r.Resolution = models.StrategyMerge
	}

	return r
}

// changedFields возвращает несервисные ключи, значение которых в s отличается от base.
func changedFields(base, s models.Snapshot) []string {
	var fields []string
	for _, k := range unionKeys(base, s) {
		if !valueEqual(base[k], s[k]) {
			fields = append(fields, k)
		}
	}
	return fields
}

// divergentFields attributes every differing field to the side(s) holding a non-null value.
func divergentFields(local, remote models.Snapshot) (localFields, remoteFields []string) {
	for _, k := range divergentKeys(local, remote) {
		if local[k] != nil {
			localFields = append(localFields, k)
		}
		if remote[k] != nil {
			remoteFields = append(remoteFields, k)
		}
	}
	return localFields, remoteFields
}

func divergentKeys(a, b models.Snapshot) []string {
	var keys []string
	for _, k := range unionKeys(a, b) {
		if !valueEqual(a[k], b[k]) {
			keys = append(keys, k)
		}
	}
	return keys
}

// unionKeys возвращает отсортированные ключи обоих снапшотов без служебных полей.
func unionKeys(a, b models.Snapshot) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for _, s := range []models.Snapshot{a, b} {
		for k := range s {
			if models.BookkeepingFields[k] || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// valueEqual сравнивает нормализованные JSON значения (пустая строка и null различаются).
func valueEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
