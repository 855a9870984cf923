// Package storagetest provides an in-memory Storage used by handler tests.
package storagetest

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
)

type Fake struct {
	mu sync.Mutex

	likes       map[string]types.Like
	views       []types.ViewEvent
	viewCounts  map[string]int
	comments    []types.Comment
	subscribers map[string]*types.Subscriber
	otps        []*types.OTPCode
	users       map[string]*types.User
	nextID      int64

	// Err, when set, is returned by every method to simulate an upstream
	// store failure.
	Err error
}

func New() *Fake {
	return &Fake{
		likes:       make(map[string]types.Like),
		viewCounts:  make(map[string]int),
		subscribers: make(map[string]*types.Subscriber),
		users:       make(map[string]*types.User),
	}
}

func key(kind types.ContentKind, contentID, email string) string {
	return fmt.Sprintf("%s|%s|%s", kind, contentID, email)
}

func (f *Fake) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *Fake) AddLike(kind types.ContentKind, contentID, name, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}

	k := key(kind, contentID, email)
	if _, ok := f.likes[k]; ok {
		return storage.ErrAlreadyLiked
	}
	f.likes[k] = types.Like{
		ID:          f.id(),
		ContentKind: kind,
		ContentID:   contentID,
		Name:        name,
		Email:       email,
		CreatedAt:   time.Now(),
	}
	return nil
}

func (f *Fake) RemoveLike(kind types.ContentKind, contentID, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}

	delete(f.likes, key(kind, contentID, email))
	return nil
}

func (f *Fake) LikeCounts(kind types.ContentKind, contentIDs []string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	counts := make(map[string]int, len(contentIDs))
	for _, id := range contentIDs {
		counts[id] = 0
	}
	for _, like := range f.likes {
		if like.ContentKind != kind {
			continue
		}
		if _, ok := counts[like.ContentID]; ok {
			counts[like.ContentID]++
		}
	}
	return counts, nil
}

func (f *Fake) LikedBy(kind types.ContentKind, contentIDs []string, email string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	liked := []string{}
	for _, id := range contentIDs {
		if _, ok := f.likes[key(kind, id, email)]; ok {
			liked = append(liked, id)
		}
	}
	return liked, nil
}

func (f *Fake) InsertView(kind types.ContentKind, contentID, viewerEmail, viewerName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}

	f.views = append(f.views, types.ViewEvent{
		ID:          f.id(),
		ContentKind: kind,
		ContentID:   contentID,
		ViewerEmail: viewerEmail,
		ViewerName:  viewerName,
		CreatedAt:   time.Now(),
	})
	return nil
}

func (f *Fake) ViewCounts(kind types.ContentKind, contentIDs []string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	counts := make(map[string]int, len(contentIDs))
	for _, id := range contentIDs {
		counts[id] = f.viewCounts[string(kind)+"|"+id]
	}
	return counts, nil
}

func (f *Fake) RebuildViewCounts() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}

	f.viewCounts = make(map[string]int)
	for _, v := range f.views {
		f.viewCounts[string(v.ContentKind)+"|"+v.ContentID]++
	}
	return int64(len(f.viewCounts)), nil
}

func (f *Fake) InsertComment(comment types.Comment) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}

	comment.ID = f.id()
	comment.IsApproved = false
	comment.CreatedAt = time.Now()
	f.comments = append(f.comments, comment)
	return comment.ID, nil
}

// Comments returns a copy of the stored comments for assertions.
func (f *Fake) Comments() []types.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Comment, len(f.comments))
	copy(out, f.comments)
	return out
}

// ViewEvents returns a copy of the recorded view events for assertions.
func (f *Fake) ViewEvents() []types.ViewEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.ViewEvent, len(f.views))
	copy(out, f.views)
	return out
}

func (f *Fake) UpsertSubscriber(email, name string) (*types.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	email = strings.ToLower(email)
	if sub, ok := f.subscribers[email]; ok {
		sub.IsActive = true
		sub.Name = name
		copied := *sub
		return &copied, nil
	}

	sub := &types.Subscriber{
		ID:               f.id(),
		Email:            email,
		Name:             name,
		UnsubscribeToken: uuid.New().String(),
		IsActive:         true,
		CreatedAt:        time.Now(),
	}
	f.subscribers[email] = sub
	copied := *sub
	return &copied, nil
}

func (f *Fake) SubscriberByToken(token string) (*types.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	for _, sub := range f.subscribers {
		if sub.UnsubscribeToken == token {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *Fake) DeactivateSubscriber(token string) (*types.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	for _, sub := range f.subscribers {
		if sub.UnsubscribeToken == token {
			sub.IsActive = false
			copied := *sub
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *Fake) ActiveSubscribers() ([]types.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	subs := []types.Subscriber{}
	for _, sub := range f.subscribers {
		if sub.IsActive {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}

func (f *Fake) CountOTPsSince(email string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}

	email = strings.ToLower(email)
	count := 0
	for _, otp := range f.otps {
		if otp.Email == email && !otp.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *Fake) InsertOTP(email, code string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}

	f.otps = append(f.otps, &types.OTPCode{
		ID:        f.id(),
		Email:     strings.ToLower(email),
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	})
	return nil
}

// SeedOTP inserts a code with explicit timestamps, letting tests create
// expired or aged entries.
func (f *Fake) SeedOTP(email, code string, createdAt, expiresAt time.Time, used bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.otps = append(f.otps, &types.OTPCode{
		ID:        f.id(),
		Email:     strings.ToLower(email),
		Code:      code,
		ExpiresAt: expiresAt,
		Used:      used,
		CreatedAt: createdAt,
	})
}

func (f *Fake) LatestValidOTP(email, code string, now time.Time) (*types.OTPCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	email = strings.ToLower(email)
	var latest *types.OTPCode
	for _, otp := range f.otps {
		if otp.Email != email || otp.Code != code || otp.Used || !otp.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || otp.CreatedAt.After(latest.CreatedAt) {
			latest = otp
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (f *Fake) MarkOTPUsed(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}

	for _, otp := range f.otps {
		if otp.ID == id {
			otp.Used = true
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *Fake) DeleteExpiredOTPs(before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}

	kept := f.otps[:0]
	var removed int64
	for _, otp := range f.otps {
		if otp.ExpiresAt.Before(before) || otp.Used {
			removed++
			continue
		}
		kept = append(kept, otp)
	}
	f.otps = kept
	return removed, nil
}

// SeedUser adds a user row for tests.
func (f *Fake) SeedUser(email, hashedPassword, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	email = strings.ToLower(email)
	f.users[email] = &types.User{
		ID:        f.id(),
		Email:     email,
		Password:  hashedPassword,
		Role:      role,
		CreatedAt: time.Now(),
	}
}

func (f *Fake) UserByEmail(email string) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	user, ok := f.users[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *Fake) UpdateUserPassword(email, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}

	user, ok := f.users[strings.ToLower(email)]
	if !ok {
		return storage.ErrNotFound
	}
	user.Password = hashedPassword
	return nil
}

func (f *Fake) UpdateUserRole(email, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}

	user, ok := f.users[strings.ToLower(email)]
	if !ok {
		return storage.ErrNotFound
	}
	user.Role = role
	return nil
}
