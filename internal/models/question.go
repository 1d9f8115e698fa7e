package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	Text         QuestionType = "text"
	ImageUpload  QuestionType = "image_upload"
)

const DefaultComplexity = "Class 1"

// IsValid reports whether t is one of the known question types.
func (t QuestionType) IsValid() bool {
	switch t {
	case SingleChoice, MultiChoice, Text, ImageUpload:
		return true
	}
	return false
}

// IsObjective reports whether answers of this type are auto-gradable.
func (t QuestionType) IsObjective() bool {
	return t == SingleChoice || t == MultiChoice
}

type Question struct {
	ID             uint                        `json:"id" gorm:"primaryKey"`
	Title          string                      `json:"title" gorm:"not null;type:text"`
	Description    *string                     `json:"description" gorm:"type:text"`
	Complexity     string                      `json:"complexity" gorm:"size:50"`
	Type           QuestionType                `json:"type" gorm:"size:20;not null;index"`
	Options        datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswers datatypes.JSONSlice[string] `json:"correct_answers"`
	MaxScore       float64                     `json:"max_score" gorm:"not null"`
	Tags           string                      `json:"tags" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}
