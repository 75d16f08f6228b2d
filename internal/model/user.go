package model

import "time"

const (
	RoleLeader = "leader"
	RoleMember = "member"
)

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GroupMember links a user to a group with a role.
type GroupMember struct {
	GroupID string `json:"groupId"`
	UserID  int    `json:"userId"`
	Role    string `json:"role"`
}
