package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleStatusTransitions(t *testing.T) {
	require.True(t, ModuleStatusDraft.CanTransitionTo(ModuleStatusPublished))
	require.True(t, ModuleStatusPublished.CanTransitionTo(ModuleStatusArchived))

	require.False(t, ModuleStatusDraft.CanTransitionTo(ModuleStatusArchived), "no state may be skipped")
	require.False(t, ModuleStatusPublished.CanTransitionTo(ModuleStatusDraft), "no backward transition exists")
	require.False(t, ModuleStatusArchived.CanTransitionTo(ModuleStatusPublished))
	require.False(t, ModuleStatusArchived.CanTransitionTo(ModuleStatusDraft))
}

func TestSubmissionStatusTransitions(t *testing.T) {
	order := []SubmissionStatus{
		SubmissionStatusDraft,
		SubmissionStatusSubmitted,
		SubmissionStatusGraded,
		SubmissionStatusFinalised,
	}

	for i, current := range order {
		for j, next := range order {
			legal := j == i+1
			require.Equal(t, legal, current.CanTransitionTo(next), "%s -> %s", current, next)
		}
	}
}

func TestSubmissionStatusGates(t *testing.T) {
	require.True(t, SubmissionStatusDraft.AcceptsAnswers())
	require.False(t, SubmissionStatusSubmitted.AcceptsAnswers())
	require.False(t, SubmissionStatusGraded.AcceptsAnswers())
	require.False(t, SubmissionStatusFinalised.AcceptsAnswers())

	require.False(t, SubmissionStatusDraft.AcceptsGrades())
	require.True(t, SubmissionStatusSubmitted.AcceptsGrades())
	require.True(t, SubmissionStatusGraded.AcceptsGrades())
	require.False(t, SubmissionStatusFinalised.AcceptsGrades())

	require.False(t, SubmissionStatusDraft.VisibleToInstructors())
	require.True(t, SubmissionStatusSubmitted.VisibleToInstructors())
	require.False(t, SubmissionStatusDraft.ExposesGrades())
	require.True(t, SubmissionStatusFinalised.ExposesGrades())
}

func TestValidPartLabel(t *testing.T) {
	require.True(t, ValidPartLabel("A"))
	require.True(t, ValidPartLabel("B"))
	require.False(t, ValidPartLabel("C"))
	require.False(t, ValidPartLabel(""))
	require.False(t, ValidPartLabel("a"))
}

func TestRoleValid(t *testing.T) {
	require.True(t, RoleStudent.Valid())
	require.True(t, RoleInstructor.Valid())
	require.True(t, RoleAdmin.Valid())
	require.False(t, Role("teacher").Valid())
}
