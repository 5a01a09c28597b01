package models

import "gorm.io/gorm"

const (
	RoleParticipant  = "participant"
	RoleExperimenter = "experimenter"
)

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null" json:"username"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null" json:"role"` // participant, experimenter
}

func (u *User) HasRole(role string) bool {
	return u.Role == role
}

// Participant is the study-subject side of a User. There is at most one per user.
type Participant struct {
	gorm.Model
	UserID   uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	User     *User  `json:"user,omitempty"`
	OptIn    bool   `json:"opt_in"`
	Progress string `json:"progress"`
}
