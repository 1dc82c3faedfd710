package conflict

import (
	"fmt"

	"github.com/iudanet/ledgersync/internal/models"
)

// Policy сопоставляет типу конфликта автоматически применяемую стратегию.
type Policy map[models.ConflictType]models.Strategy

// DefaultPolicy: непересекающиеся правки сливаются, двойное удаление принимается,
// остальное требует решения пользователя.
func DefaultPolicy() Policy {
	return Policy{
		models.ConflictMergeable:    models.StrategyMerge,
		models.ConflictField:        models.StrategyManual,
		models.ConflictDeleteUpdate: models.StrategyManual,
		models.ConflictUpdateDelete: models.StrategyManual,
		models.ConflictDeleteDelete: models.StrategyRemoteWins,
	}
}

// For возвращает стратегию для t; без записи в политике - manual.
func (p Policy) For(t models.ConflictType) models.Strategy {
	if s, ok := p[t]; ok {
		return s
	}
	return models.StrategyManual
}

// PolicyFromConfig накладывает стратегии из конфигурации на DefaultPolicy.
func PolicyFromConfig(raw map[string]string) (Policy, error) {
	p := DefaultPolicy()
	for conflictType, strategy := range raw {
		t := models.ConflictType(conflictType)
		if _, known := p[t]; !known {
			return nil, fmt.Errorf("unknown conflict type %q", conflictType)
		}
		s, err := models.ParseStrategy(strategy)
		if err != nil {
			return nil, err
		}
		p[t] = s
	}
	return p, nil
}
