package models

// User roles
const (
	RoleVisitor = "visitor"
	RoleUser    = "user"
	RoleAdmin   = "admin"
)

// User represents an account authenticated by phone number
type User struct {
	Base
	Phone            string  `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	PasswordHash     string  `gorm:"type:varchar(255);not null" json:"-"`
	FullName         string  `gorm:"type:varchar(255);not null" json:"full_name"`
	Email            *string `gorm:"type:varchar(255)" json:"email"`
	ProfilePicture   *string `gorm:"type:text" json:"profile_picture"`
	Role             string  `gorm:"type:varchar(10);default:'user'" json:"role"`
	IsActive         bool    `gorm:"default:true" json:"is_active"`
	IsStaff          bool    `gorm:"default:false" json:"is_staff"`
	IsSuperuser      bool    `gorm:"default:false" json:"is_superuser"`
	TwoFactorEnabled bool    `gorm:"default:false" json:"-"`
	TwoFactorSecret  string  `gorm:"type:varchar(255)" json:"-"`

	Listings []Listing `gorm:"foreignKey:UserID" json:"-"`
}

// Staff reports whether the user may act as a moderator. Admin role and the
// staff flag are kept in sync by provisioning, but either grants access.
func (u *User) Staff() bool {
	return u.IsStaff || u.Role == RoleAdmin
}
