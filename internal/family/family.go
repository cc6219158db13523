// Package family manages sharing groups: who belongs to a family, who may
// invite, and how invite tokens are redeemed.
package family

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fuellog/internal/db"
	"github.com/ukydev/fuellog/internal/models"
)

// DefaultInviteTTL is how long an invite token stays valid when no TTL is
// configured.
const DefaultInviteTTL = 7 * 24 * time.Hour

var (
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInvite    = errors.New("invalid invite token")
	ErrInviteExpired    = errors.New("invite token expired")
	ErrAlreadyMember    = errors.New("already a member of this family")
	ErrSoleOwner        = errors.New("the only owner cannot leave the family")
	ErrCannotRemoveSelf = errors.New("owners cannot remove themselves")
)

// Details is a family together with its members.
type Details struct {
	Family  models.Family         `json:"family"`
	Members []models.FamilyMember `json:"members"`
}

// Service implements family membership operations.
type Service struct {
	families  db.FamilyCollection
	members   db.MemberCollection
	inviteTTL time.Duration
	now       func() time.Time
	newToken  func() string
}

// NewService creates a family service. A non-positive inviteTTL falls back
// to DefaultInviteTTL.
func NewService(families db.FamilyCollection, members db.MemberCollection, inviteTTL time.Duration) *Service {
	if inviteTTL <= 0 {
		inviteTTL = DefaultInviteTTL
	}
	return &Service{
		families:  families,
		members:   members,
		inviteTTL: inviteTTL,
		now:       time.Now,
		newToken:  func() string { return uuid.NewString() },
	}
}

// membership returns the user's role in a family, or ErrForbidden when they
// are not part of it.
func (s *Service) membership(ctx context.Context, familyID, userID string) (*models.FamilyMember, error) {
	m, err := s.members.FindMembership(ctx, familyID, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	if !models.IsValidFamilyRole(m.Role) {
		log.WithFields(log.Fields{
			"family_id": familyID,
			"user_id":   userID,
			"role":      m.Role,
		}).Warn("Membership has unknown role")
		return nil, ErrForbidden
	}
	return m, nil
}

// authorize checks that the user's role allows action on the family.
func (s *Service) authorize(ctx context.Context, familyID, userID, action string) (*models.FamilyMember, error) {
	m, err := s.membership(ctx, familyID, userID)
	if err != nil {
		return nil, err
	}
	if !m.Role.Allows(action) {
		return nil, ErrForbidden
	}
	return m, nil
}

// Create starts a family owned by userID.
func (s *Service) Create(ctx context.Context, name, userID string) (*models.Family, error) {
	now := s.now().UTC()
	f := models.Family{
		ID:        primitive.NewObjectID(),
		Name:      name,
		OwnerID:   userID,
		CreatedAt: now,
	}
	if err := s.families.InsertFamily(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	owner := models.FamilyMember{
		ID:       primitive.NewObjectID(),
		FamilyID: f.ID.Hex(),
		UserID:   userID,
		Role:     models.FamilyRoleOwner,
		JoinedAt: now,
	}
	if err := s.members.InsertMember(ctx, owner); err != nil {
		if delErr := s.families.DeleteFamily(ctx, f.ID.Hex()); delErr != nil {
			log.WithError(delErr).WithField("family_id", f.ID.Hex()).Error("Failed to remove ownerless family")
		}
		return nil, fmt.Errorf("failed to add family owner: %w", err)
	}

	log.WithFields(log.Fields{
		"family_id": f.ID.Hex(),
		"owner_id":  userID,
	}).Info("Family created")
	return &f, nil
}

// List returns every family the user belongs to.
func (s *Service) List(ctx context.Context, userID string) ([]models.Family, error) {
	memberships, err := s.members.FindMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}
	families := make([]models.Family, 0, len(memberships))
	for _, m := range memberships {
		f, err := s.families.FindFamilyByID(ctx, m.FamilyID)
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load family: %w", err)
		}
		families = append(families, *f)
	}
	return families, nil
}

// Get returns a family and its members to one of its members.
func (s *Service) Get(ctx context.Context, familyID, userID string) (*Details, error) {
	if _, err := s.authorize(ctx, familyID, userID, "view_family"); err != nil {
		return nil, err
	}
	f, err := s.families.FindFamilyByID(ctx, familyID)
	if err != nil {
		return nil, err
	}
	members, err := s.members.FindMembers(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	return &Details{Family: *f, Members: members}, nil
}

// Invite issues a new single-use invite token, replacing any pending one.
func (s *Service) Invite(ctx context.Context, familyID, userID string) (*models.Invite, error) {
	if _, err := s.authorize(ctx, familyID, userID, "invite_member"); err != nil {
		return nil, err
	}

	invite := models.Invite{
		Token:     s.newToken(),
		ExpiresAt: s.now().UTC().Add(s.inviteTTL),
	}
	err := s.families.UpdateFamily(ctx, familyID, bson.M{
		"invite_token":      invite.Token,
		"invite_expires_at": invite.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store invite: %w", err)
	}

	log.WithFields(log.Fields{
		"family_id":  familyID,
		"expires_at": invite.ExpiresAt,
	}).Info("Family invite issued")
	return &invite, nil
}

// Join redeems an invite token and adds userID as a member. The token is
// consumed atomically, so concurrent redemptions admit a single user.
func (s *Service) Join(ctx context.Context, token, userID string) (*models.Family, error) {
	f, err := s.families.FindFamilyByInviteToken(ctx, token)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidInvite
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite: %w", err)
	}
	now := s.now()
	if f.InviteExpiresAt == nil || !now.Before(*f.InviteExpiresAt) {
		return nil, ErrInviteExpired
	}

	familyID := f.ID.Hex()
	_, err = s.members.FindMembership(ctx, familyID, userID)
	if err == nil {
		return nil, ErrAlreadyMember
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	f, err = s.families.ConsumeInvite(ctx, token, now)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidInvite
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume invite: %w", err)
	}

	member := models.FamilyMember{
		ID:       primitive.NewObjectID(),
		FamilyID: familyID,
		UserID:   userID,
		Role:     models.FamilyRoleMember,
		JoinedAt: now.UTC(),
	}
	if err := s.members.InsertMember(ctx, member); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	log.WithFields(log.Fields{
		"family_id": familyID,
		"user_id":   userID,
	}).Info("User joined family")
	return f, nil
}

// Leave removes userID from a family. The last owner must delete the family
// instead.
func (s *Service) Leave(ctx context.Context, familyID, userID string) error {
	m, err := s.authorize(ctx, familyID, userID, "leave_family")
	if err != nil {
		return err
	}

	if m.Role == models.FamilyRoleOwner {
		members, err := s.members.FindMembers(ctx, familyID)
		if err != nil {
			return fmt.Errorf("failed to load members: %w", err)
		}
		owners := 0
		for _, other := range members {
			if other.Role == models.FamilyRoleOwner {
				owners++
			}
		}
		if owners <= 1 {
			return ErrSoleOwner
		}
	}

	if err := s.members.DeleteMember(ctx, familyID, userID); err != nil {
		return fmt.Errorf("failed to leave family: %w", err)
	}
	log.WithFields(log.Fields{
		"family_id": familyID,
		"user_id":   userID,
	}).Info("User left family")
	return nil
}

// RemoveMember lets an owner remove another member.
func (s *Service) RemoveMember(ctx context.Context, familyID, ownerID, memberID string) error {
	if _, err := s.authorize(ctx, familyID, ownerID, "remove_member"); err != nil {
		return err
	}
	if ownerID == memberID {
		return ErrCannotRemoveSelf
	}
	if err := s.members.DeleteMember(ctx, familyID, memberID); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"family_id": familyID,
		"user_id":   memberID,
	}).Info("Member removed from family")
	return nil
}

// Delete removes a family and every membership in it.
func (s *Service) Delete(ctx context.Context, familyID, userID string) error {
	if _, err := s.authorize(ctx, familyID, userID, "delete_family"); err != nil {
		return err
	}
	if err := s.members.DeleteMembers(ctx, familyID); err != nil {
		return fmt.Errorf("failed to delete members: %w", err)
	}
	if err := s.families.DeleteFamily(ctx, familyID); err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	log.WithField("family_id", familyID).Info("Family deleted")
	return nil
}
