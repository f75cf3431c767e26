package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// TokenClassRefresh is currently the only persisted token class.
const TokenClassRefresh = "refresh"

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Firstname    string    `gorm:"not null"                 json:"firstname"`
	Lastname     string    `gorm:"not null"                 json:"lastname"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Posts []Post `gorm:"foreignKey:UserID" json:"-"`
	Likes []Like `gorm:"foreignKey:UserID" json:"-"`
}

// RefreshToken holds the single currently honored refresh credential per
// (user, class) pair. Only a bcrypt hash of the token's signature segment is
// stored; a rotated-out token no longer matches and is thereby dead.
type RefreshToken struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"                 json:"id"`
	UserID        uint       `gorm:"uniqueIndex:idx_token_user_class;not null" json:"user_id"`
	Class         string     `gorm:"uniqueIndex:idx_token_user_class;not null" json:"class"`
	SignatureHash string     `gorm:"not null"                                  json:"-"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Post struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"not null"                 json:"title"`
	Description string    `gorm:"not null"                 json:"description"`
	IsPublished bool      `gorm:"not null;default:false"   json:"is_published"`
	LikeCount   uint      `gorm:"not null;default:0"       json:"like_count"`
	ViewCount   uint      `gorm:"not null;default:0"       json:"view_count"`
	UserID      uint      `gorm:"index;not null"           json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Likes []Like `gorm:"foreignKey:PostID" json:"-"`
}

// Like existence means "this user currently likes this post".
type Like struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"            json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_like_pair;not null"  json:"user_id"`
	PostID    uint      `gorm:"uniqueIndex:idx_like_pair;not null"  json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
