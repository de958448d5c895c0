package model

import (
	"fmt"
	"strings"
)

// Province identifies the home province of a player.
type Province string

const (
	ProvinceNB  Province = "NB"
	ProvinceNS  Province = "NS"
	ProvincePEI Province = "PEI"
)

// Provinces lists the valid provinces in display order.
var Provinces = []Province{ProvinceNB, ProvinceNS, ProvincePEI}

var provinceNames = map[Province]string{
	ProvinceNB:  "New Brunswick",
	ProvinceNS:  "Nova Scotia",
	ProvincePEI: "Prince Edward Island",
}

// Valid reports whether p is one of the known provinces.
func (p Province) Valid() bool {
	_, ok := provinceNames[p]
	return ok
}

// FullName returns the long province name, e.g. "Nova Scotia".
func (p Province) FullName() string {
	return provinceNames[p]
}

// ParseProvince parses a province code case-insensitively.
func ParseProvince(s string) (Province, error) {
	p := Province(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid province %q: must be one of %v", s, Provinces)
	}
	return p, nil
}

// PlayerStatus is the lifecycle stage of a player.
type PlayerStatus string

const (
	StatusProspect     PlayerStatus = "Prospect"
	StatusActive       PlayerStatus = "Active"
	StatusTOCQualified PlayerStatus = "TOC Qualified"
	StatusWinner       PlayerStatus = "Winner"
)

var playerStatusRank = map[PlayerStatus]int{
	StatusProspect:     0,
	StatusActive:       1,
	StatusTOCQualified: 2,
	StatusWinner:       3,
}

// Valid reports whether s is a known player status.
func (s PlayerStatus) Valid() bool {
	_, ok := playerStatusRank[s]
	return ok
}

// Rank orders statuses along the forward-only lifecycle.
// Unknown statuses rank below Prospect.
func (s PlayerStatus) Rank() int {
	r, ok := playerStatusRank[s]
	if !ok {
		return -1
	}
	return r
}

// Advance returns the later of s and next. A status never moves backward.
func (s PlayerStatus) Advance(next PlayerStatus) PlayerStatus {
	if next.Rank() > s.Rank() {
		return next
	}
	return s
}

// EventType distinguishes invitationals from the championship.
type EventType string

const (
	EventInvitational EventType = "Invitational"
	EventTOC          EventType = "TOC"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return t == EventInvitational || t == EventTOC
}

// EventStatus is the lifecycle stage of an event.
type EventStatus string

const (
	EventPending   EventStatus = "Pending"
	EventActive    EventStatus = "Active"
	EventCompleted EventStatus = "Completed"
)

var eventStatusRank = map[EventStatus]int{
	EventPending:   0,
	EventActive:    1,
	EventCompleted: 2,
}

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	_, ok := eventStatusRank[s]
	return ok
}

// Rank orders event statuses; unknown values rank -1.
func (s EventStatus) Rank() int {
	r, ok := eventStatusRank[s]
	if !ok {
		return -1
	}
	return r
}

// ParseEventStatus parses an event status case-insensitively.
func ParseEventStatus(s string) (EventStatus, error) {
	for st := range eventStatusRank {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid event status %q: must be Pending, Active or Completed", s)
}
