package models

import "time"

// PrizeKind distinguishes vouchers that are redeemed later from challenges
// that are meant to be done on the day.
type PrizeKind string

const (
	KindVoucher   PrizeKind = "voucher"
	KindChallenge PrizeKind = "challenge"
)

// Valid reports whether k is one of the known kinds.
func (k PrizeKind) Valid() bool {
	return k == KindVoucher || k == KindChallenge
}

// Prize is a single catalog entry. Won flips to true exactly once.
type Prize struct {
	ID          int64     `json:"id"`
	Kind        PrizeKind `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Emoji       string    `json:"emoji"`
	Color       string    `json:"color"`
	Won         bool      `json:"won"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PrizeSpec is the user-supplied part of a prize, used for seeding and for
// the admin "add prize" operation.
type PrizeSpec struct {
	Kind        PrizeKind `json:"type" yaml:"type"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Emoji       string    `json:"emoji" yaml:"emoji"`
	Color       string    `json:"color" yaml:"color"`
}

// HistoryEntry records which prize was awarded for a day.
// Prize is filled in by the ledger on reads.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	Day       int       `json:"day"`
	PrizeID   int64     `json:"prizeId"`
	AwardedAt time.Time `json:"wonAt"`
	Prize     *Prize    `json:"prize,omitempty"`
}

// Stats is derived from the prize pool on demand.
type Stats struct {
	Total     int `json:"total"`
	Won       int `json:"won"`
	Remaining int `json:"remaining"`
}

// DayState is the per-day state machine: locked -> open -> played.
type DayState string

const (
	DayLocked DayState = "locked"
	DayOpen   DayState = "open"
	DayPlayed DayState = "played"
)
