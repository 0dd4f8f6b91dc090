package models

import "time"

// Part labels are restricted to the two canonical values used by the UI.
const (
	PartLabelA = "A"
	PartLabelB = "B"
)

// ValidPartLabel reports whether label is within the allowed domain.
func ValidPartLabel(label string) bool {
	return label == PartLabelA || label == PartLabelB
}

// Question is a scenario-bearing unit within a module.
// Mutable only while the owning module is still a draft.
type Question struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ModuleID     uint       `gorm:"not null;index;uniqueIndex:idx_question_order" json:"module_id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	ScenarioText string     `gorm:"type:text" json:"scenario_text"`
	OrderIndex   int        `gorm:"not null;uniqueIndex:idx_question_order" json:"order_index"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Parts        []Part     `json:"parts,omitempty"`
	Artefacts    []Artefact `json:"artefacts,omitempty"`
}

// Part groups sub-questions under a question with label A or B.
type Part struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	QuestionID   uint          `gorm:"not null;uniqueIndex:idx_part_label" json:"question_id"`
	Label        string        `gorm:"size:1;not null;uniqueIndex:idx_part_label" json:"label"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	SubQuestions []SubQuestion `json:"sub_questions,omitempty"`
}

// SubQuestion is the individually gradable prompt within a part.
type SubQuestion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PartID     uint      `gorm:"not null;uniqueIndex:idx_subquestion_order" json:"part_id"`
	Prompt     string    `gorm:"type:text;not null" json:"prompt"`
	MaxMarks   int       `gorm:"not null" json:"max_marks"`
	OrderIndex int       `gorm:"not null;uniqueIndex:idx_subquestion_order" json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Artefact references a supporting file stored in the external object store.
// Only the descriptor lives here; bytes are fetched through a signed request.
type Artefact struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Filename   string    `gorm:"size:255;not null" json:"filename"`
	FileType   string    `gorm:"size:128" json:"file_type"`
	StorageKey string    `gorm:"size:512;not null" json:"storage_key"`
	UploadedBy uint      `gorm:"not null" json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
