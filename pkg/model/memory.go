package model

import (
	"sort"
	"time"
)

type MemoryID string

// DateLayout is the calendar date form used by Memory.Date
const DateLayout = "2006-01-02"

// Coordinates is a resolved geographic position of a memory
type Coordinates struct {
	Lat float64 `json:"lat" firestore:"lat"`
	Lng float64 `json:"lng" firestore:"lng"`
}

// Memory is one shared experience recorded in the journal. Memories are
// created and deleted but never updated.
type Memory struct {
	ID           MemoryID     `json:"id"`
	Title        string       `json:"title"`
	Category     Category     `json:"type"`
	Date         string       `json:"date"`
	LocationName string       `json:"locationName"`
	Coordinates  *Coordinates `json:"coordinates"`
	Note         string       `json:"note"`
	PhotoURL     string       `json:"photoUrl,omitempty"`
	CreatedBy    string       `json:"createdBy"`
	CreatedAt    int64        `json:"createdAt"`
}

// HasCoordinates reports whether the memory can be pinned on the map
func (m *Memory) HasCoordinates() bool {
	return m != nil && m.Coordinates != nil
}

// ParsedDate returns Date as time.Time. ok is false if Date is malformed.
func (m *Memory) ParsedDate() (time.Time, bool) {
	t, err := time.Parse(DateLayout, m.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SortMemories orders memories by Date descending, then CreatedAt descending.
// Dates are YYYY-MM-DD so lexical order is chronological order.
func SortMemories(memories []*Memory) {
	sort.SliceStable(memories, func(i, j int) bool {
		a, b := memories[i], memories[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.CreatedAt > b.CreatedAt
	})
}

// CloneMemories returns a shallow copy of the slice with each memory copied,
// so callers can hand it out without sharing mutable records.
func CloneMemories(memories []*Memory) []*Memory {
	out := make([]*Memory, 0, len(memories))
	for _, m := range memories {
		c := *m
		if m.Coordinates != nil {
			coords := *m.Coordinates
			c.Coordinates = &coords
		}
		out = append(out, &c)
	}
	return out
}
