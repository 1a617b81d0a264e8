package entity

import "time"

// Category ids are snowflakes and are encoded as JSON strings.
type Category struct {
	ID        int64     `db:"id" json:"id,string"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
