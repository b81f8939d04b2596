package models

import "time"

// Class represents an academic class or section.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Grade     string    `db:"grade" json:"grade"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with its current headcount.
type ClassDetail struct {
	Class
	StudentCount int `db:"student_count" json:"student_count"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Grade     string
	Search    string
	SchoolID  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ClassGroup is a grade bucket used by grouped class pickers.
type ClassGroup struct {
	Grade   string  `json:"grade"`
	Classes []Class `json:"classes"`
}

// CreateClassRequest is the payload for opening a class.
type CreateClassRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=50"`
	Grade     string  `json:"grade" validate:"required,min=1,max=20"`
	SchoolID  string  `json:"school_id" validate:"required,uuid4"`
	TeacherID *string `json:"teacher_id" validate:"omitempty,uuid4"`
}

// UpdateClassRequest is the partial-update payload; nil fields are kept.
type UpdateClassRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=50"`
	Grade     *string `json:"grade" validate:"omitempty,min=1,max=20"`
	TeacherID *string `json:"teacher_id" validate:"omitempty,uuid4"`
}
