package domain

import "time"

// DeriveEventStatus computes an event status from its date relative to today.
// A cancelled event stays cancelled; otherwise the date decides and any other
// current status is overwritten.
func DeriveEventStatus(date time.Time, current EventStatus, today time.Time) EventStatus {
	if current == EventCancelled {
		return EventCancelled
	}

	d, t := CivilDate(date), CivilDate(today)

	switch {
	case d.After(t):
		return EventUpcoming
	case d.Before(t):
		return EventCompleted
	default:
		return EventActive
	}
}

func (s EventStatus) Valid() bool {
	switch s {
	case EventActive, EventUpcoming, EventCompleted, EventCancelled:
		return true
	}
	return false
}

func (s SectionStatus) Valid() bool {
	switch s {
	case SectionActive, SectionInactive, SectionClosed:
		return true
	}
	return false
}

// Terminal reports whether no further sections may be attached to an event
// in this status.
func (s EventStatus) Terminal() bool {
	return s == EventCancelled || s == EventCompleted
}

func EventStatuses() []EventStatus {
	return []EventStatus{EventActive, EventCancelled, EventCompleted, EventUpcoming}
}

func SectionStatuses() []SectionStatus {
	return []SectionStatus{SectionActive, SectionInactive, SectionClosed}
}
