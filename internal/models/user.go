package models

// User describes an account identity. Registration and credential management
// live outside this service; rows are referenced here by identifier and handle.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Permissions []Permission `gorm:"foreignKey:UserID" json:"-"`
}
