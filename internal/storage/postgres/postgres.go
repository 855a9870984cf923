package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/princekumarofficial/portfolio-engagement/internal/config"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	pg := &Postgres{Db: db}
	err = pg.CreateTables()
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			role VARCHAR(50) NOT NULL DEFAULT 'user',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS likes (
			id SERIAL PRIMARY KEY,
			content_kind VARCHAR(20) NOT NULL CHECK (content_kind IN ('blog', 'project')),
			content_id VARCHAR(255) NOT NULL,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (content_kind, content_id, email)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS views (
			id SERIAL PRIMARY KEY,
			content_kind VARCHAR(20) NOT NULL CHECK (content_kind IN ('blog', 'project')),
			content_id VARCHAR(255) NOT NULL,
			viewer_email VARCHAR(255),
			viewer_name VARCHAR(100),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS view_counts (
			content_kind VARCHAR(20) NOT NULL,
			content_id VARCHAR(255) NOT NULL,
			view_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (content_kind, content_id)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS comments (
			id SERIAL PRIMARY KEY,
			post_id VARCHAR(255) NOT NULL,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			is_spam BOOLEAN NOT NULL DEFAULT FALSE,
			is_approved BOOLEAN NOT NULL DEFAULT FALSE,
			reply TEXT,
			reply_date TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS newsletter_subscribers (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(100) NOT NULL DEFAULT '',
			unsubscribe_token UUID UNIQUE NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS otp_codes (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			otp VARCHAR(6) NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			used BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_likes_lookup ON likes (content_kind, content_id);`,
		`CREATE INDEX IF NOT EXISTS idx_views_lookup ON views (content_kind, content_id);`,
		`CREATE INDEX IF NOT EXISTS idx_otp_codes_email ON otp_codes (email, created_at);`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a Postgres duplicate-key error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (p *Postgres) AddLike(kind types.ContentKind, contentID, name, email string) error {
	var exists bool
	err := p.Db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM likes WHERE content_kind = $1 AND content_id = $2 AND email = $3)`,
		kind, contentID, email,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return storage.ErrAlreadyLiked
	}

	_, err = p.Db.Exec(
		`INSERT INTO likes (content_kind, content_id, name, email) VALUES ($1, $2, $3, $4)`,
		kind, contentID, name, email,
	)
	if err != nil {
		// Two concurrent adds can both pass the pre-check; the unique
		// index decides, and the loser gets the same conflict outcome.
		if isUniqueViolation(err) {
			return storage.ErrAlreadyLiked
		}
		return err
	}

	return nil
}

func (p *Postgres) RemoveLike(kind types.ContentKind, contentID, email string) error {
	// Removing a like that does not exist is a no-op success.
	_, err := p.Db.Exec(
		`DELETE FROM likes WHERE content_kind = $1 AND content_id = $2 AND email = $3`,
		kind, contentID, email,
	)
	return err
}

func (p *Postgres) LikeCounts(kind types.ContentKind, contentIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(contentIDs))
	for _, id := range contentIDs {
		counts[id] = 0
	}
	if len(contentIDs) == 0 {
		return counts, nil
	}

	rows, err := p.Db.Query(
		`SELECT content_id, COUNT(*) FROM likes
		 WHERE content_kind = $1 AND content_id = ANY($2)
		 GROUP BY content_id`,
		kind, pq.Array(contentIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}

	return counts, rows.Err()
}

func (p *Postgres) LikedBy(kind types.ContentKind, contentIDs []string, email string) ([]string, error) {
	if len(contentIDs) == 0 {
		return []string{}, nil
	}

	rows, err := p.Db.Query(
		`SELECT content_id FROM likes
		 WHERE content_kind = $1 AND content_id = ANY($2) AND email = $3`,
		kind, pq.Array(contentIDs), email,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	liked := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		liked = append(liked, id)
	}

	return liked, rows.Err()
}

func (p *Postgres) InsertView(kind types.ContentKind, contentID, viewerEmail, viewerName string) error {
	_, err := p.Db.Exec(
		`INSERT INTO views (content_kind, content_id, viewer_email, viewer_name) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))`,
		kind, contentID, viewerEmail, viewerName,
	)
	return err
}

func (p *Postgres) ViewCounts(kind types.ContentKind, contentIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(contentIDs))
	for _, id := range contentIDs {
		counts[id] = 0
	}
	if len(contentIDs) == 0 {
		return counts, nil
	}

	rows, err := p.Db.Query(
		`SELECT content_id, view_count FROM view_counts
		 WHERE content_kind = $1 AND content_id = ANY($2)`,
		kind, pq.Array(contentIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}

	return counts, rows.Err()
}

// RebuildViewCounts recomputes the denormalized view_counts table from the
// raw view-event log. Called periodically by the reconcile worker; the
// handlers themselves never touch the aggregate on the write path.
func (p *Postgres) RebuildViewCounts() (int64, error) {
	result, err := p.Db.Exec(`
		INSERT INTO view_counts (content_kind, content_id, view_count)
		SELECT content_kind, content_id, COUNT(*)
		FROM views
		GROUP BY content_kind, content_id
		ON CONFLICT (content_kind, content_id)
		DO UPDATE SET view_count = EXCLUDED.view_count
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (p *Postgres) InsertComment(comment types.Comment) (int64, error) {
	var id int64
	err := p.Db.QueryRow(
		`INSERT INTO comments (post_id, name, email, content, is_spam, is_approved)
		 VALUES ($1, $2, $3, $4, $5, FALSE)
		 RETURNING id`,
		comment.PostID, comment.Name, comment.Email, comment.Content, comment.IsSpam,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertSubscriber creates a subscriber with a fresh unsubscribe token, or
// reactivates an existing row for the same email. The token survives
// reactivation so previously sent unsubscribe links keep working.
func (p *Postgres) UpsertSubscriber(email, name string) (*types.Subscriber, error) {
	sub := &types.Subscriber{}
	err := p.Db.QueryRow(
		`INSERT INTO newsletter_subscribers (email, name, unsubscribe_token, is_active)
		 VALUES ($1, $2, $3, TRUE)
		 ON CONFLICT (email)
		 DO UPDATE SET is_active = TRUE, name = EXCLUDED.name
		 RETURNING id, email, name, unsubscribe_token, is_active, created_at`,
		strings.ToLower(email), name, uuid.New(),
	).Scan(&sub.ID, &sub.Email, &sub.Name, &sub.UnsubscribeToken, &sub.IsActive, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (p *Postgres) SubscriberByToken(token string) (*types.Subscriber, error) {
	sub := &types.Subscriber{}
	err := p.Db.QueryRow(
		`SELECT id, email, name, unsubscribe_token, is_active, created_at
		 FROM newsletter_subscribers WHERE unsubscribe_token = $1`,
		token,
	).Scan(&sub.ID, &sub.Email, &sub.Name, &sub.UnsubscribeToken, &sub.IsActive, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (p *Postgres) DeactivateSubscriber(token string) (*types.Subscriber, error) {
	sub := &types.Subscriber{}
	err := p.Db.QueryRow(
		`UPDATE newsletter_subscribers SET is_active = FALSE
		 WHERE unsubscribe_token = $1
		 RETURNING id, email, name, unsubscribe_token, is_active, created_at`,
		token,
	).Scan(&sub.ID, &sub.Email, &sub.Name, &sub.UnsubscribeToken, &sub.IsActive, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (p *Postgres) ActiveSubscribers() ([]types.Subscriber, error) {
	rows, err := p.Db.Query(
		`SELECT id, email, name, unsubscribe_token, is_active, created_at
		 FROM newsletter_subscribers WHERE is_active = TRUE ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []types.Subscriber{}
	for rows.Next() {
		var sub types.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.Name, &sub.UnsubscribeToken, &sub.IsActive, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func (p *Postgres) CountOTPsSince(email string, since time.Time) (int, error) {
	var count int
	err := p.Db.QueryRow(
		`SELECT COUNT(*) FROM otp_codes WHERE email = $1 AND created_at >= $2`,
		strings.ToLower(email), since,
	).Scan(&count)
	return count, err
}

func (p *Postgres) InsertOTP(email, code string, expiresAt time.Time) error {
	_, err := p.Db.Exec(
		`INSERT INTO otp_codes (email, otp, expires_at) VALUES ($1, $2, $3)`,
		strings.ToLower(email), code, expiresAt,
	)
	return err
}

func (p *Postgres) LatestValidOTP(email, code string, now time.Time) (*types.OTPCode, error) {
	otp := &types.OTPCode{}
	err := p.Db.QueryRow(
		`SELECT id, email, otp, expires_at, used, created_at FROM otp_codes
		 WHERE email = $1 AND otp = $2 AND used = FALSE AND expires_at > $3
		 ORDER BY created_at DESC
		 LIMIT 1`,
		strings.ToLower(email), code, now,
	).Scan(&otp.ID, &otp.Email, &otp.Code, &otp.ExpiresAt, &otp.Used, &otp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return otp, nil
}

func (p *Postgres) MarkOTPUsed(id int64) error {
	_, err := p.Db.Exec(`UPDATE otp_codes SET used = TRUE WHERE id = $1`, id)
	return err
}

func (p *Postgres) DeleteExpiredOTPs(before time.Time) (int64, error) {
	result, err := p.Db.Exec(
		`DELETE FROM otp_codes WHERE expires_at < $1 OR used = TRUE`,
		before,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (p *Postgres) UserByEmail(email string) (*types.User, error) {
	user := &types.User{}
	err := p.Db.QueryRow(
		`SELECT id, email, password, role, created_at FROM users WHERE email = $1`,
		strings.ToLower(email),
	).Scan(&user.ID, &user.Email, &user.Password, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (p *Postgres) UpdateUserPassword(email, hashedPassword string) error {
	result, err := p.Db.Exec(
		`UPDATE users SET password = $1 WHERE email = $2`,
		hashedPassword, strings.ToLower(email),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *Postgres) UpdateUserRole(email, role string) error {
	result, err := p.Db.Exec(
		`UPDATE users SET role = $1 WHERE email = $2`,
		role, strings.ToLower(email),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
