package moderation

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Status is the lifecycle state of a dictionary entry.
type Status string

const (
	StatusStaged    Status = "staged"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusStaged, StatusPublished, StatusRejected:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// Entry is one word moving through moderation.
type Entry struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	Word        string    `json:"word"`
	Definition  string    `json:"definition,omitempty"`
	Status      Status    `json:"status"`
	SubmittedBy string    `json:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at"`
	DecidedBy   string    `json:"decided_by,omitempty"`
	DecidedAt   time.Time `json:"decided_at,omitzero"`
}

// ChangeRequest groups the entries of a single submission.
type ChangeRequest struct {
	ID          string
	SubmittedBy string
	SubmittedAt time.Time
}

const (
	MaxWordRunes       = 128
	MaxDefinitionRunes = 2048
)

// WordInput is one submitted word. In JSON it is either a bare string
// or an object {"word": ..., "definition": ...}.
type WordInput struct {
	Word       string `json:"word"`
	Definition string `json:"definition,omitempty"`
}

var errWordShape = errors.New("word must be a string or an object")

func (w *WordInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errWordShape
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*w = WordInput{Word: s}
		return nil
	case '{':
		type plain WordInput
		var p plain
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return err
		}
		*w = WordInput(p)
		return nil
	default:
		return errWordShape
	}
}

// Validate checks the trimmed word against the length and encoding rules.
func (w WordInput) Validate() error {
	n := w.trimmed()
	return validation.ValidateStruct(&n,
		validation.Field(&n.Word,
			validation.Required,
			validation.By(validUTF8),
			validation.RuneLength(1, MaxWordRunes),
		),
		validation.Field(&n.Definition,
			validation.By(validUTF8),
			validation.RuneLength(0, MaxDefinitionRunes),
		),
	)
}

func (w WordInput) trimmed() WordInput {
	return WordInput{
		Word:       strings.TrimSpace(w.Word),
		Definition: strings.TrimSpace(w.Definition),
	}
}

// normalized returns the trimmed word, or the validation error that rejects it.
func (w WordInput) normalized() (WordInput, error) {
	if err := w.Validate(); err != nil {
		return WordInput{}, err
	}
	return w.trimmed(), nil
}

func validUTF8(value interface{}) error {
	if s, ok := value.(string); ok && !utf8.ValidString(s) {
		return errors.New("must be valid UTF-8")
	}
	return nil
}
