package model

// User is a minimal identity entity owned by the store. It is not part of
// the validation flow and has no HTTP surface.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}
