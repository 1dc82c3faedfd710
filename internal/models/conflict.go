package models

import (
	"fmt"
	"time"
)

// ConflictType классифицирует расхождение двух реплик сущности.
type ConflictType string

const (
	ConflictNone         ConflictType = "none"
	ConflictMergeable    ConflictType = "mergeable"     // изменены непересекающиеся поля
	ConflictField        ConflictType = "fieldConflict" // одно поле изменено с обеих сторон
	ConflictDeleteUpdate ConflictType = "deleteUpdate"  // локально удалено, удаленно изменено
	ConflictUpdateDelete ConflictType = "updateDelete"  // локально изменено, удаленно удалено
	ConflictDeleteDelete ConflictType = "deleteDelete"
)

// Strategy - политика разрешения конфликта.
type Strategy string

const (
	StrategyLocalWins  Strategy = "localWins"
	StrategyRemoteWins Strategy = "remoteWins"
	StrategyLatestWins Strategy = "latestWins"
	StrategyMerge      Strategy = "merge"
	StrategyManual     Strategy = "manual"
)

// ParseStrategy validates a raw strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyLocalWins, StrategyRemoteWins, StrategyLatestWins, StrategyMerge, StrategyManual:
		return st, nil
	default:
		return "", fmt.Errorf("unknown conflict strategy %q", s)
	}
}

// ConflictLog - запись аудита о разрешенном конфликте.
type ConflictLog struct {
	ResolvedAt   time.Time    `json:"resolved_at"`
	ID           string       `json:"id"`
	EntityType   EntityType   `json:"entity_type"`
	EntityID     string       `json:"entity_id"`
	ConflictType ConflictType `json:"conflict_type"`
	Resolution   Strategy     `json:"resolution"`
}
