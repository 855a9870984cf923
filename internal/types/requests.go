package types

// EngagementEnvelope carries the action discriminator; the rest of the body
// is decoded into the matching action request once the action is known.
type EngagementEnvelope struct {
	Action string `json:"action" validate:"required,oneof=add remove check count"`
}

const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionCheck  = "check"
	ActionCount  = "count"
)

// Single-item engagement requests address content by post_id for blog
// content and project_id for project content.
type AddLikeRequest struct {
	PostID    string `json:"post_id" validate:"omitempty,max=255"`
	ProjectID string `json:"project_id" validate:"omitempty,max=255"`
	Name      string `json:"name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
}

type RemoveLikeRequest struct {
	PostID    string `json:"post_id" validate:"omitempty,max=255"`
	ProjectID string `json:"project_id" validate:"omitempty,max=255"`
	Email     string `json:"email" validate:"required,email,max=255"`
}

// CheckLikesRequest serves both check and count; count ignores the email.
type CheckLikesRequest struct {
	PostIDs    []string `json:"post_ids" validate:"omitempty,max=50,dive,max=255"`
	ProjectIDs []string `json:"project_ids" validate:"omitempty,max=50,dive,max=255"`
	Email      string   `json:"email" validate:"omitempty,email,max=255"`
}

func contentID(kind ContentKind, postID, projectID string) string {
	if kind == KindProject {
		return projectID
	}
	return postID
}

func (r AddLikeRequest) ContentID(kind ContentKind) string {
	return contentID(kind, r.PostID, r.ProjectID)
}

func (r RemoveLikeRequest) ContentID(kind ContentKind) string {
	return contentID(kind, r.PostID, r.ProjectID)
}

func (r CheckLikesRequest) ContentIDs(kind ContentKind) []string {
	if kind == KindProject {
		return r.ProjectIDs
	}
	return r.PostIDs
}

type TrackViewRequest struct {
	PostID    string `json:"post_id" validate:"omitempty,max=255"`
	ProjectID string `json:"project_id" validate:"omitempty,max=255"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Name      string `json:"name" validate:"omitempty,max=100"`
}

func (r TrackViewRequest) ContentID(kind ContentKind) string {
	return contentID(kind, r.PostID, r.ProjectID)
}

// Website is a honeypot field hidden from humans; bots that fill it get
// their comment stored with is_spam set instead of an error.
type CommentRequest struct {
	PostID  string `json:"post_id" validate:"required,max=255"`
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Content string `json:"content" validate:"required,max=2000"`
	Website string `json:"website" validate:"omitempty,max=255"`
}

type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"omitempty,max=100"`
}

type TokenRequest struct {
	Token string `json:"token" validate:"required,uuid4"`
}

type NotifyRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Type        string `json:"type" validate:"required,oneof=blog project"`
	Slug        string `json:"slug" validate:"omitempty,max=200"`
	URL         string `json:"url" validate:"omitempty,url,max=500"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

const (
	OTPActionVerify = "verify"
	OTPActionReset  = "reset"
)

type VerifyOTPResetRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	Action      string `json:"action" validate:"required,oneof=verify reset"`
	NewPassword string `json:"new_password" validate:"required_if=Action reset,omitempty,min=8,max=72"`
}
