package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

// Stage represents the state of a conversion job as seen by the user
type Stage string

const (
	StageAwaitingInput        Stage = "awaiting_input"
	StageAwaitingConfirmation Stage = "awaiting_confirmation"
	StageConverting           Stage = "converting"
	StageUploading            Stage = "uploading"
	StageDone                 Stage = "done"
	StageFailed               Stage = "failed"
)

// IsTerminal reports whether no further transition is possible from the stage
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// CanTransition checks if moving from s to next is allowed
func (s Stage) CanTransition(next Stage) bool {
	switch s {
	case StageAwaitingInput:
		return next == StageAwaitingConfirmation
	case StageAwaitingConfirmation:
		return next == StageConverting
	case StageConverting:
		return next == StageUploading || next == StageFailed
	case StageUploading:
		return next == StageDone || next == StageFailed
	default:
		return false
	}
}

// ConversionRequest is a user submission
type ConversionRequest struct {
	ModelID   types.ModelID
	UserToken types.Token // Optional personal write token
}

// Job represents one run through the conversion flow
type Job struct {
	ID         string
	ModelID    types.ModelID
	Stage      Stage
	ModelURL   string            // Hub page of the target repository
	Conversion *ConversionResult // Set once conversion finished
	Commit     *CommitInfo       // Set once upload finished
	Err        error             // Set when Stage is StageFailed
	StartedAt  time.Time
	FinishedAt time.Time
}

// Transition moves the job to next, rejecting moves the state machine does not allow
func (j *Job) Transition(next Stage) error {
	if !j.Stage.CanTransition(next) {
		return goerr.New("invalid stage transition",
			goerr.V("job_id", j.ID),
			goerr.V("from", j.Stage),
			goerr.V("to", next),
		)
	}
	j.Stage = next
	return nil
}

// Fail moves the job to StageFailed and records the cause
func (j *Job) Fail(err error) error {
	if tErr := j.Transition(StageFailed); tErr != nil {
		return tErr
	}
	j.Err = err
	return nil
}
