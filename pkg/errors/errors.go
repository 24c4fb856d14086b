package errors

import (
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// Reason classifies merge failures so callers can distinguish bad input from
// storage trouble.
type Reason string

const (
	ReasonSelfMerge     Reason = "self_merge"
	ReasonInvalidSource Reason = "invalid_merge_source"
	ReasonInvalidTarget Reason = "invalid_merge_target"
	ReasonMergeFailed   Reason = "merge_failed"
)

type MergeError struct {
	SourceID string
	TargetID string
	Reason   Reason
	Message  string
}

func NewMergeError(reason Reason, msg string) *MergeError {
	return &MergeError{
		Reason:  reason,
		Message: msg,
	}
}

func NewMergeErrorf(reason Reason, format string, args ...any) *MergeError {
	return &MergeError{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *MergeError) Error() string {
	if e.SourceID == "" && e.TargetID == "" {
		return e.Message
	}
	return fmt.Sprintf("merge %s -> %s: %s", e.SourceID, e.TargetID, e.Message)
}

func (e *MergeError) AddSource(sourceID string) *MergeError {
	e.SourceID = sourceID
	return e
}

func (e *MergeError) AddTarget(targetID string) *MergeError {
	e.TargetID = targetID
	return e
}

// ToHTTPError maps validation reasons to 409 and execution failures to 500,
// carrying the ids and reason in the error meta.
func (e *MergeError) ToHTTPError() *httperror.HTTPError {
	status := http.StatusConflict
	if e.Reason == ReasonMergeFailed {
		status = http.StatusInternalServerError
	}
	return httperror.NewHTTPError(status, e.Error()).
		AddMetaValue("reason", string(e.Reason)).
		AddMetaValue("source_id", e.SourceID).
		AddMetaValue("target_id", e.TargetID)
}

func IsMergeError(err error) bool {
	_, ok := err.(*MergeError)
	return ok
}

// AsMergeError returns the typed error when err is one.
func AsMergeError(err error) (*MergeError, bool) {
	me, ok := err.(*MergeError)
	return me, ok
}
