package crdt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Ordering описывает причинно-следственное отношение между двумя векторными часами.
type Ordering int

const (
	// Equal - часы совпадают по всем узлам
	Equal Ordering = iota
	// Before - левые часы строго предшествуют правым
	Before
	// After - левые часы строго следуют за правыми
	After
	// Concurrent - ни одни часы не доминируют (параллельные правки)
	Concurrent
)

// String returns a human readable form of the ordering.
func (o Ordering) String() string {
	switch o {
	case Equal:
		return "equal"
	case Before:
		return "before"
	case After:
		return "after"
	case Concurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// VectorClock представляет векторные часы: счетчик на каждый узел (устройство).
// Узел увеличивает только свой счетчик, чужие счетчики растут только через Merge.
//
// VectorClock - значение: все операции возвращают новые часы и не изменяют исходные.
// Отсутствующий узел читается как 0, поэтому пустые часы являются нижним элементом решетки.
type VectorClock map[string]uint64

// NewVectorClock creates an empty clock (the bottom element).
func NewVectorClock() VectorClock {
	return VectorClock{}
}

// NewNodeID генерирует уникальный идентификатор узла (устройства) для векторных часов.
func NewNodeID() string {
	return uuid.New().String()
}

// Get returns the counter of the given node (0 if absent).
func (vc VectorClock) Get(nodeID string) uint64 {
	return vc[nodeID]
}

// Increment возвращает новые часы, в которых счетчик nodeID увеличен на 1.
// Остальные счетчики не меняются.
func (vc VectorClock) Increment(nodeID string) VectorClock {
	next := vc.Clone()
	next[nodeID]++
	return next
}

// Merge возвращает поточечный максимум по объединению ключей.
// Операция коммутативна, ассоциативна и идемпотентна.
func (vc VectorClock) Merge(other VectorClock) VectorClock {
	merged := vc.Clone()
	for node, counter := range other {
		if counter > merged[node] {
			merged[node] = counter
		}
	}
	return merged
}

// Compare сравнивает часы по правилу доминирования:
// покомпонентно <= хотя бы с одним строгим < дает Before (и симметрично After),
// отсутствие доминирования дает Concurrent.
func (vc VectorClock) Compare(other VectorClock) Ordering {
	less, greater := false, false

	for node, v1 := range vc {
		v2 := other[node]
		if v1 < v2 {
			less = true
		} else if v1 > v2 {
			greater = true
		}
	}
	for node, v2 := range other {
		if _, seen := vc[node]; seen {
			continue
		}
		// v1 == 0 для узлов, отсутствующих слева
		if v2 > 0 {
			less = true
		}
	}

	switch {
	case less && greater:
		return Concurrent
	case less:
		return Before
	case greater:
		return After
	default:
		return Equal
	}
}

// Equal reports whether both clocks carry the same counters (missing keys read as 0).
func (vc VectorClock) Equal(other VectorClock) bool {
	return vc.Compare(other) == Equal
}

// Clone creates a copy of the clock. A nil clock clones into an empty one.
func (vc VectorClock) Clone() VectorClock {
	clone := make(VectorClock, len(vc))
	for node, counter := range vc {
		clone[node] = counter
	}
	return clone
}

// String renders the clock with sorted node keys, e.g. "{a:1, b:3}".
func (vc VectorClock) String() string {
	nodes := make([]string, 0, len(vc))
	for node := range vc {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	parts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		parts = append(parts, fmt.Sprintf("%s:%d", node, vc[node]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Encode сериализует часы в компактную JSON карту {"node": counter}.
func (vc VectorClock) Encode() ([]byte, error) {
	if vc == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(map[string]uint64(vc))
	if err != nil {
		return nil, fmt.Errorf("encode vector clock: %w", err)
	}
	return data, nil
}

// DecodeVectorClock восстанавливает часы из JSON карты. Пустой ввод дает пустые часы.
func DecodeVectorClock(data []byte) (VectorClock, error) {
	vc := NewVectorClock()
	if len(data) == 0 {
		return vc, nil
	}
	if err := json.Unmarshal(data, &vc); err != nil {
		return nil, fmt.Errorf("decode vector clock: %w", err)
	}
	if vc == nil {
		vc = NewVectorClock()
	}
	return vc, nil
}
