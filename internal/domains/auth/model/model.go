package model

const (
	EntityName = "user"
)

// User is the marketplace account as reported by the backend. The gateway
// never stores credentials; authentication is proxied and only the session
// is kept here.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}
