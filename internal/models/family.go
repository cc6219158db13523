package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FamilyRole is a member's role inside a family.
type FamilyRole string

const (
	FamilyRoleOwner  FamilyRole = "owner"
	FamilyRoleMember FamilyRole = "member"
)

// Family is a sharing group whose members see each other's vehicles and fills.
type Family struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	OwnerID         string             `bson:"owner_id" json:"owner_id"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	InviteToken     string             `bson:"invite_token,omitempty" json:"-"`
	InviteExpiresAt *time.Time         `bson:"invite_expires_at,omitempty" json:"-"`
}

// FamilyMember links a user to a family.
type FamilyMember struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FamilyID string             `bson:"family_id" json:"family_id"`
	UserID   string             `bson:"user_id" json:"user_id"`
	Role     FamilyRole         `bson:"role" json:"role"`
	JoinedAt time.Time          `bson:"joined_at" json:"joined_at"`
}

// FamilyRequest is the body accepted when creating a family.
type FamilyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// JoinRequest redeems an invite token.
type JoinRequest struct {
	Token string `json:"token" validate:"required,uuid"`
}

// Invite is returned to the owner after issuing an invite token.
type Invite struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsValidFamilyRole checks if a family role is valid
func IsValidFamilyRole(role FamilyRole) bool {
	switch role {
	case FamilyRoleOwner, FamilyRoleMember:
		return true
	default:
		return false
	}
}

// Allows reports whether a member holding this role may perform an action
// on the family.
func (r FamilyRole) Allows(action string) bool {
	switch r {
	case FamilyRoleOwner:
		return true
	case FamilyRoleMember:
		return action == "view_family" || action == "view_fills" ||
			action == "view_vehicles" || action == "leave_family"
	default:
		return false
	}
}
