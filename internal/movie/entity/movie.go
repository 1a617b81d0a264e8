package entity

import "time"

// Classification is the minimum viewer age rating.
type Classification string

const (
	Seven    Classification = "7"
	Thirteen Classification = "13"
	Sixteen  Classification = "16"
	Eighteen Classification = "18"
)

// Valid reports whether c is a known rating.
func (c Classification) Valid() bool {
	switch c {
	case Seven, Thirteen, Sixteen, Eighteen:
		return true
	}
	return false
}

// Movie ids are snowflakes beyond 2^53 and are encoded as JSON strings.
type Movie struct {
	ID              int64          `db:"id" json:"id,string"`
	Name            string         `db:"name" json:"name"`
	Description     string         `db:"description" json:"description"`
	DurationMinutes int            `db:"duration_minutes" json:"duration"`
	ImageURL        string         `db:"image_url" json:"imageUrl"`
	Classification  Classification `db:"classification" json:"classification"`
	CategoryID      int64          `db:"category_id" json:"categoryId,string"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
}
