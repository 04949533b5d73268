package models

// Roles recognized by the service. A token whose role claim differs from
// the user's current role is rejected, so changing a role revokes every
// token issued under the previous one.
const (
	RoleGuest = "guest"
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func KnownRole(role string) bool {
	switch role {
	case RoleGuest, RoleUser, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"not null"                 json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	TokenSecret  string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:guest"   json:"role"`
	Invalidated  bool   `gorm:"default:false"            json:"-"`
}
