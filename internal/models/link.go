package models

import "time"

// ParentLink is one issued parent-linking code. StudentID stays null until
// a parent redeems the code; IsUsed flips exactly once.
type ParentLink struct {
	ID        string     `db:"id" json:"id"`
	StudentID *string    `db:"student_id" json:"student_id,omitempty"`
	ParentID  string     `db:"parent_id" json:"parent_id"`
	OTP       string     `db:"otp" json:"otp"`
	IsUsed    bool       `db:"is_used" json:"is_used"`
	ExpiredAt time.Time  `db:"expired_at" json:"expired_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// IssueLinkRequest asks for a fresh code on behalf of a parent.
type IssueLinkRequest struct {
	ParentID string `json:"parent_id" validate:"required,uuid4"`
}

// RedeemLinkRequest binds a student to the parent holding the code.
type RedeemLinkRequest struct {
	OTP       string `json:"otp" validate:"required"`
	StudentID string `json:"student_id" validate:"required,uuid4"`
}

// IssueLinkResponse returns the issued code and its expiry.
type IssueLinkResponse struct {
	OTP       string    `json:"otp"`
	ExpiredAt time.Time `json:"expired_at"`
}
