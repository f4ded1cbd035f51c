package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
)

func TestStage_CanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     model.Stage
		to       model.Stage
		expected bool
	}{
		{
			name:     "Input entered",
			from:     model.StageAwaitingInput,
			to:       model.StageAwaitingConfirmation,
			expected: true,
		},
		{
			name:     "Confirmed",
			from:     model.StageAwaitingConfirmation,
			to:       model.StageConverting,
			expected: true,
		},
		{
			name:     "Conversion succeeded",
			from:     model.StageConverting,
			to:       model.StageUploading,
			expected: true,
		},
		{
			name:     "Conversion failed",
			from:     model.StageConverting,
			to:       model.StageFailed,
			expected: true,
		},
		{
			name:     "Upload succeeded",
			from:     model.StageUploading,
			to:       model.StageDone,
			expected: true,
		},
		{
			name:     "Upload failed",
			from:     model.StageUploading,
			to:       model.StageFailed,
			expected: true,
		},
		{
			name:     "Skip confirmation",
			from:     model.StageAwaitingInput,
			to:       model.StageConverting,
			expected: false,
		},
		{
			name:     "Skip conversion",
			from:     model.StageAwaitingConfirmation,
			to:       model.StageUploading,
			expected: false,
		},
		{
			name:     "Leave Done",
			from:     model.StageDone,
			to:       model.StageAwaitingInput,
			expected: false,
		},
		{
			name:     "Leave Failed",
			from:     model.StageFailed,
			to:       model.StageConverting,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.expected {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestStage_IsTerminal(t *testing.T) {
	gt.Value(t, model.StageDone.IsTerminal()).Equal(true)
	gt.Value(t, model.StageFailed.IsTerminal()).Equal(true)
	gt.Value(t, model.StageConverting.IsTerminal()).Equal(false)
	gt.Value(t, model.StageAwaitingInput.IsTerminal()).Equal(false)
}

func TestJob_Transition(t *testing.T) {
	t.Run("walks the happy path", func(t *testing.T) {
		job := &model.Job{ID: "job-1", Stage: model.StageAwaitingInput}
		for _, next := range []model.Stage{
			model.StageAwaitingConfirmation,
			model.StageConverting,
			model.StageUploading,
			model.StageDone,
		} {
			gt.NoError(t, job.Transition(next))
			gt.Value(t, job.Stage).Equal(next)
		}
	})

	t.Run("rejects invalid move and keeps stage", func(t *testing.T) {
		job := &model.Job{ID: "job-2", Stage: model.StageAwaitingInput}
		gt.Error(t, job.Transition(model.StageDone))
		gt.Value(t, job.Stage).Equal(model.StageAwaitingInput)
	})

	t.Run("Fail records cause", func(t *testing.T) {
		cause := errors.New("boom")
		job := &model.Job{ID: "job-3", Stage: model.StageConverting}
		gt.NoError(t, job.Fail(cause))
		gt.Value(t, job.Stage).Equal(model.StageFailed)
		gt.Value(t, job.Err).Equal(cause)
	})

	t.Run("Fail from terminal stage is rejected", func(t *testing.T) {
		job := &model.Job{ID: "job-4", Stage: model.StageDone}
		gt.Error(t, job.Fail(errors.New("late")))
		gt.Value(t, job.Err).Nil()
	})
}
