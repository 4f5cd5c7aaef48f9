package status

import "fmt"

// Status is the closed set of production workflow states.
type Status string

const (
	Planned      Status = "PLANNED"
	InProgress   Status = "IN_PROGRESS"
	QualityCheck Status = "QUALITY_CHECK"
	OnHold       Status = "ON_HOLD"
	Completed    Status = "COMPLETED"
	Cancelled    Status = "CANCELLED"
)

var All = []Status{Planned, InProgress, QualityCheck, OnHold, Completed, Cancelled}

// ValidNextStatuses is the single source of truth of state machine legality.
// Stateless: safe for concurrent use.
func ValidNextStatuses(current Status) []Status {
	switch current {
	case Planned:
		return []Status{InProgress, Cancelled}
	case InProgress:
		return []Status{QualityCheck, OnHold, Cancelled}
	case QualityCheck:
		return []Status{Completed, InProgress, Cancelled}
	case OnHold:
		return []Status{InProgress, Cancelled}
	default:
		// Completed, Cancelled and unknown statuses are dead ends
		return []Status{}
	}
}

func CanTransit(from, to Status) bool {
	for _, next := range ValidNextStatuses(from) {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

func (s Status) IsValid() bool {
	for _, known := range All {
		if s == known {
			return true
		}
	}
	return false
}

func Parse(value string) (Status, error) {
	s := Status(value)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status '%s'", value)
	}
	return s, nil
}

// Priority of a production workflow. Advisory ordering only, the state
// machine does not depend on it.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)
