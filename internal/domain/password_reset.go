package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PasswordReset is a single-use, time-limited reset token issued by the
// forgot-password flow.
type PasswordReset struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Token     string             `bson:"token" json:"-"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	Used      bool               `bson:"used" json:"used"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsUsable reports whether the token can still redeem a password change.
func (p *PasswordReset) IsUsable(now time.Time) bool {
	return !p.Used && now.Before(p.ExpiresAt)
}
