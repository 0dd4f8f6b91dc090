package models

import "time"

// ModuleStatus enumerates the publish lifecycle of a module.
type ModuleStatus string

// Module lifecycle states. Transitions only ever move forward.
const (
	ModuleStatusDraft     ModuleStatus = "draft"
	ModuleStatusPublished ModuleStatus = "published"
	ModuleStatusArchived  ModuleStatus = "archived"
)

// CanTransitionTo reports whether the lifecycle permits moving to next.
// The only legal moves are draft->published and published->archived.
func (s ModuleStatus) CanTransitionTo(next ModuleStatus) bool {
	switch s {
	case ModuleStatusDraft:
		return next == ModuleStatusPublished
	case ModuleStatusPublished:
		return next == ModuleStatusArchived
	}
	return false
}

// Module is a top-level assessment unit with its own publish lifecycle.
type Module struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	Title           string       `gorm:"size:255;not null" json:"title"`
	Description     string       `gorm:"type:text" json:"description"`
	Status          ModuleStatus `gorm:"size:32;not null;default:draft" json:"status"`
	ReadyForPublish bool         `gorm:"not null;default:false" json:"ready_for_publish"`
	SubmissionStart *time.Time   `json:"submission_start"`
	SubmissionEnd   *time.Time   `json:"submission_end"`
	PublishedAt     *time.Time   `json:"published_at"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Questions       []Question   `json:"questions,omitempty"`
}

// ModuleInstructor links an instructor account to a module it teaches.
type ModuleInstructor struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ModuleID     uint      `gorm:"not null;uniqueIndex:idx_module_instructor" json:"module_id"`
	InstructorID uint      `gorm:"not null;uniqueIndex:idx_module_instructor" json:"instructor_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// ModuleStudent links an enrolled student account to a module.
type ModuleStudent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ModuleID  uint      `gorm:"not null;uniqueIndex:idx_module_student" json:"module_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_module_student" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
