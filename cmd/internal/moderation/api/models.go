package modapi

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/moderation"
)

type decideRequest struct {
	IDs []string `json:"ids"`
}

func (r decideRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs,
			validation.Required,
			validation.Length(1, moderation.DefaultMaxBatch),
			validation.By(noBlankIDs),
		),
	)
}

func noBlankIDs(value interface{}) error {
	list, _ := value.([]string)
	for _, id := range list {
		if strings.TrimSpace(id) == "" {
			return errors.New("must not contain blank ids")
		}
	}
	return nil
}

type submitRequest struct {
	Words []moderation.WordInput `json:"words"`
}

// Validate also runs WordInput.Validate on every element.
func (r submitRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Words,
			validation.Required,
			validation.Length(1, moderation.DefaultMaxBatch),
		),
	)
}

type resultView struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Status string `json:"status,omitempty"`
	Code   string `json:"code,omitempty"`
}

type decideResponse struct {
	Status  bool         `json:"status"`
	Message string       `json:"message"`
	Results []resultView `json:"results"`
}

type entriesResponse struct {
	Status  bool               `json:"status"`
	Message string             `json:"message,omitempty"`
	Data    []moderation.Entry `json:"data"`
}

const (
	msgAcceptOK   = "Word(s) added to the dictionary."
	msgAcceptFail = "Word(s) can not be added to the dictionary."
	msgRejectOK   = "Word(s) removed from the dictionary."
	msgRejectFail = "Word(s) can not be removed from the dictionary."
	msgSubmitOK   = "Request sent to update dictionary."
	msgSubmitFail = "Request can not be sent."
)

func toResultViews(in []moderation.Result) []resultView {
	out := make([]resultView, 0, len(in))
	for _, r := range in {
		v := resultView{ID: r.ID, OK: r.OK, Status: string(r.Status)}
		switch {
		case r.OK:
		case moderation.IsConflict(r.Err):
			v.Code = "conflict"
		case moderation.IsNotFound(r.Err):
			v.Code = "not_found"
		default:
			v.Code = "failed"
		}
		out = append(out, v)
	}
	return out
}
