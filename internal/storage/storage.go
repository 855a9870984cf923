package storage

import (
	"errors"
	"time"

	"github.com/princekumarofficial/portfolio-engagement/internal/types"
)

// Sentinel errors returned by Storage implementations so callers never have
// to inspect driver-specific error codes.
var (
	ErrAlreadyLiked = errors.New("already liked")
	ErrNotFound     = errors.New("not found")
)

type Storage interface {
	// Likes
	AddLike(kind types.ContentKind, contentID, name, email string) error
	RemoveLike(kind types.ContentKind, contentID, email string) error
	LikeCounts(kind types.ContentKind, contentIDs []string) (map[string]int, error)
	LikedBy(kind types.ContentKind, contentIDs []string, email string) ([]string, error)

	// Views
	InsertView(kind types.ContentKind, contentID, viewerEmail, viewerName string) error
	ViewCounts(kind types.ContentKind, contentIDs []string) (map[string]int, error)
	RebuildViewCounts() (int64, error)

	// Comments
	InsertComment(comment types.Comment) (int64, error)

	// Newsletter subscribers
	UpsertSubscriber(email, name string) (*types.Subscriber, error)
	SubscriberByToken(token string) (*types.Subscriber, error)
	DeactivateSubscriber(token string) (*types.Subscriber, error)
	ActiveSubscribers() ([]types.Subscriber, error)

	// OTP codes
	CountOTPsSince(email string, since time.Time) (int, error)
	InsertOTP(email, code string, expiresAt time.Time) error
	LatestValidOTP(email, code string, now time.Time) (*types.OTPCode, error)
	MarkOTPUsed(id int64) error
	DeleteExpiredOTPs(before time.Time) (int64, error)

	// Users
	UserByEmail(email string) (*types.User, error)
	UpdateUserPassword(email, hashedPassword string) error
	UpdateUserRole(email, role string) error
}
