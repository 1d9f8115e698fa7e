package models

import "strings"

type AnswerKind string

const (
	AnswerKindChoice AnswerKind = "choice"
	AnswerKindText   AnswerKind = "text"
	AnswerKindImage  AnswerKind = "image"
)

// AnswerPayload is the content a student saves for one question. It is one of
// ChoiceAnswer, TextAnswer or ImageAnswer.
type AnswerPayload interface {
	Kind() AnswerKind
	// Apply overwrites the content fields of a; grading fields are untouched.
	Apply(a *Answer)
}

type ChoiceAnswer struct {
	Selected []string
}

type TextAnswer struct {
	Text string
}

type ImageAnswer struct {
	Ref string
}

func (ChoiceAnswer) Kind() AnswerKind { return AnswerKindChoice }
func (TextAnswer) Kind() AnswerKind   { return AnswerKindText }
func (ImageAnswer) Kind() AnswerKind  { return AnswerKindImage }

func (p ChoiceAnswer) Apply(a *Answer) {
	selected := make([]string, len(p.Selected))
	copy(selected, p.Selected)
	a.SelectedOptions = selected
	a.TextAnswer = nil
}

func (p TextAnswer) Apply(a *Answer) {
	text := p.Text
	a.SelectedOptions = nil
	a.TextAnswer = &text
}

func (p ImageAnswer) Apply(a *Answer) {
	ref := strings.TrimSpace(p.Ref)
	a.SelectedOptions = nil
	a.TextAnswer = &ref
}

// Accepts reports whether a payload of kind k fits a question of type t.
func (t QuestionType) Accepts(k AnswerKind) bool {
	switch t {
	case SingleChoice, MultiChoice:
		return k == AnswerKindChoice
	case Text:
		return k == AnswerKindText
	case ImageUpload:
		return k == AnswerKindImage
	}
	return false
}

// KindFor returns the payload kind expected by questions of type t.
func KindFor(t QuestionType) AnswerKind {
	switch t {
	case Text:
		return AnswerKindText
	case ImageUpload:
		return AnswerKindImage
	default:
		return AnswerKindChoice
	}
}
