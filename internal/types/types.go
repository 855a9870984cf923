package types

import "time"

type ContentKind string

const (
	KindBlog    ContentKind = "blog"
	KindProject ContentKind = "project"
)

type Like struct {
	ID          int64       `json:"id"`
	ContentKind ContentKind `json:"content_kind"`
	ContentID   string      `json:"content_id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	CreatedAt   time.Time   `json:"created_at"`
}

type ViewEvent struct {
	ID          int64       `json:"id"`
	ContentKind ContentKind `json:"content_kind"`
	ContentID   string      `json:"content_id"`
	ViewerEmail string      `json:"viewer_email,omitempty"`
	ViewerName  string      `json:"viewer_name,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Comment struct {
	ID         int64      `json:"id"`
	PostID     string     `json:"post_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Content    string     `json:"content"`
	IsSpam     bool       `json:"is_spam"`
	IsApproved bool       `json:"is_approved"`
	Reply      string     `json:"reply,omitempty"`
	ReplyDate  *time.Time `json:"reply_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type Subscriber struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	UnsubscribeToken string    `json:"-"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

type OTPCode struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
