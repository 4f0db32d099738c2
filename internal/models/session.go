package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionRole string

const (
	SessionRoleCustomer   SessionRole = "customer"
	SessionRolePartner    SessionRole = "partner"
	SessionRoleInfluencer SessionRole = "influencer"
	SessionRoleAdmin      SessionRole = "admin"
)

// Session identifies the caller of an operation. It is built from the access token by
// the auth middleware and passed explicitly; nothing reads the caller from ambient state.
type Session struct {
	UserID    primitive.ObjectID  `json:"user_id"`
	Role      SessionRole         `json:"role"`
	OwnerID   *primitive.ObjectID `json:"owner_id,omitempty"`
	Email     string              `json:"email,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == SessionRoleAdmin
}

// Owner returns the referral owner the session acts for. Customers act for themselves;
// partners and influencers for the record named in OwnerID.
func (s *Session) Owner() (OwnerReference, bool) {
	if s == nil {
		return OwnerReference{}, false
	}
	switch s.Role {
	case SessionRoleCustomer:
		return OwnerReference{Type: OwnerTypeCustomer, ID: s.UserID}, true
	case SessionRolePartner:
		if s.OwnerID != nil {
			return OwnerReference{Type: OwnerTypePartner, ID: *s.OwnerID}, true
		}
	case SessionRoleInfluencer:
		if s.OwnerID != nil {
			return OwnerReference{Type: OwnerTypeInfluencer, ID: *s.OwnerID}, true
		}
	}
	return OwnerReference{}, false
}

// CanAccessCustomer reports whether the session may read or act on the customer's records.
func (s *Session) CanAccessCustomer(customerID primitive.ObjectID) bool {
	if s == nil {
		return false
	}
	return s.IsAdmin() || (s.Role == SessionRoleCustomer && s.UserID == customerID)
}

func (s *Session) ActorID() *primitive.ObjectID {
	if s == nil || s.UserID.IsZero() {
		return nil
	}
	id := s.UserID
	return &id
}
