package models

import "time"

// Student represents a learner registered in a school.
type Student struct {
	ID          string     `db:"id" json:"id"`
	IDNumber    string     `db:"id_number" json:"id_number"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	Gender      string     `db:"gender" json:"gender"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Address     *string    `db:"address" json:"address,omitempty"`
	AvatarURL   *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	ClassID     *string    `db:"class_id" json:"class_id,omitempty"`
	ParentID    *string    `db:"parent_id" json:"parent_id,omitempty"`
	SchoolID    string     `db:"school_id" json:"school_id"`
	Active      bool       `db:"active" json:"active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentDetail extends Student with class context for profile views.
type StudentDetail struct {
	Student
	ClassName *string `db:"class_name" json:"class_name,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	ClassID    string
	SchoolID   string
	Unassigned *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// CreateStudentRequest is the payload for registering a student.
type CreateStudentRequest struct {
	IDNumber    string  `json:"id_number" validate:"required,min=2,max=20"`
	FirstName   string  `json:"first_name" validate:"required,min=2,max=50"`
	LastName    string  `json:"last_name" validate:"required,min=2,max=50"`
	Gender      string  `json:"gender" validate:"required,oneof=M F"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address     *string `json:"address" validate:"omitempty,max=200"`
	ClassID     *string `json:"class_id" validate:"omitempty,uuid4"`
	SchoolID    string  `json:"school_id" validate:"required,uuid4"`
}

// UpdateStudentRequest is the partial-update payload; nil fields are kept.
type UpdateStudentRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName    *string `json:"last_name" validate:"omitempty,min=2,max=50"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=M F"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address     *string `json:"address" validate:"omitempty,max=200"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
	ClassID     *string `json:"class_id" validate:"omitempty,uuid4"`
}
