package models

// User is an employee directory row
type User struct {
	ID       string `gorm:"column:user_id;primaryKey;type:varchar(50)" json:"user_id"`
	Name     string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Role     string `gorm:"column:role;type:varchar(50)" json:"role"`
	IsActive bool   `gorm:"column:is_active;default:true" json:"is_active"`

	// Relationships
	Sessions []WorkSession `gorm:"foreignKey:UserID" json:"-"`
	Entries  []TimeEntry   `gorm:"foreignKey:UserID" json:"-"`
}
