package entity

import "time"

// User is a stored account. PasswordHash never leaves the service layer;
// handlers serialize PublicView only.
type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	DisplayName  string    `db:"display_name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// PublicView is the externally visible projection of a User.
type PublicView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

func (u *User) Public() *PublicView {
	if u == nil {
		return nil
	}
	return &PublicView{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}
