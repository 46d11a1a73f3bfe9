package domain

import "time"

type Role string

const (
	RoleMember        Role = "Member"
	RolePresident     Role = "President"
	RoleVicePresident Role = "Vice President"
	RoleSecretary     Role = "Secretary"
	RoleTreasurer     Role = "Treasurer"
	RoleMusicDirector Role = "Music Director"
	RoleAdvisor       Role = "Advisor"
	RoleAdmin         Role = "Admin"
)

var Roles = []Role{
	RoleMember,
	RolePresident,
	RoleVicePresident,
	RoleSecretary,
	RoleTreasurer,
	RoleMusicDirector,
	RoleAdvisor,
	RoleAdmin,
}

// AdminRoles are the officer roles allowed to manage choir data.
var AdminRoles = []Role{
	RolePresident,
	RoleVicePresident,
	RoleSecretary,
	RoleTreasurer,
	RoleMusicDirector,
	RoleAdvisor,
	RoleAdmin,
}

// ApproverRoles may approve or reject registrations and change roles.
var ApproverRoles = []Role{RolePresident, RoleAdvisor, RoleAdmin}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) IsAdminTier() bool {
	return r.In(AdminRoles...)
}

func (r Role) CanApproveMembers() bool {
	return r.In(ApproverRoles...)
}

func (r Role) In(roles ...Role) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusPending, UserStatusApproved, UserStatusRejected:
		return true
	}
	return false
}

type VoicePart string

const (
	VoiceSoprano VoicePart = "Soprano"
	VoiceAlto    VoicePart = "Alto"
	VoiceTenor   VoicePart = "Tenor"
	VoiceBass    VoicePart = "Bass"
)

type User struct {
	ID        uint       `json:"id"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone,omitempty"`
	VoicePart VoicePart  `json:"voice_part,omitempty"`
	Role      Role       `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (u User) IsApproved() bool {
	return u.Status == UserStatusApproved
}

// ProfileUpdate carries the fields a member may change on their own profile.
type ProfileUpdate struct {
	Name      *string
	Phone     *string
	VoicePart *VoicePart
}
