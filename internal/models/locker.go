package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusMaintenance Status = "maintenance"
)

// Statuses lists every locker status in display order.
var Statuses = []Status{StatusAvailable, StatusOccupied, StatusMaintenance}

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusAvailable, StatusOccupied, StatusMaintenance:
		return st, nil
	default:
		return "", fmt.Errorf("unknown locker status %q", s)
	}
}

// Price is an hourly rate. The backend serialises decimals as strings
// ("2.50"), so decoding accepts both strings and numbers; encoding always
// produces a JSON number.
type Price float64

func ParsePrice(s string) (Price, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("price per hour must be a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("price per hour must be a non-negative number: %q", s)
	}
	return Price(v), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParsePrice(s)
		if err != nil {
			return err
		}
		*p = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f < 0 {
		return fmt.Errorf("price per hour must be a non-negative number: %s", data)
	}
	*p = Price(f)
	return nil
}

func (p Price) String() string {
	return strconv.FormatFloat(float64(p), 'f', 2, 64)
}

type Locker struct {
	ID           int        `json:"id"`
	LockerNumber string     `json:"locker_number"`
	Location     string     `json:"location"`
	PricePerHour Price      `json:"price_per_hour"`
	Status       Status     `json:"status"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func (l Locker) Available() bool {
	return l.Status == StatusAvailable
}

// Quote is the displayed estimate for renting the locker for hours.
// The authoritative price is computed by the backend.
func (l Locker) Quote(hours int) Price {
	return Price(math.Round(float64(l.PricePerHour)*float64(hours)*100) / 100)
}

// ReservationRequest is built per user action and sent once.
type ReservationRequest struct {
	LockerID      int `json:"-"`
	DurationHours int `json:"duration"`
}

// MaxOfferedHours bounds the durations the views offer. The client contract
// itself accepts any positive duration.
const MaxOfferedHours = 12

// NewLocker is the admin create form as entered.
type NewLocker struct {
	LockerNumber string
	Location     string
	PricePerHour string
	Status       Status
}

type LockerStats struct {
	Total       int `json:"total_lockers"`
	Available   int `json:"available_lockers"`
	Occupied    int `json:"occupied_lockers"`
	Maintenance int `json:"maintenance_lockers"`
}

// CountStatuses tallies a locker list the way the stats endpoint does.
func CountStatuses(lockers []Locker) LockerStats {
	st := LockerStats{Total: len(lockers)}
	for _, l := range lockers {
		switch l.Status {
		case StatusAvailable:
			st.Available++
		case StatusOccupied:
			st.Occupied++
		case StatusMaintenance:
			st.Maintenance++
		}
	}
	return st
}
