package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// EnrollmentAPI is the part of the school API the reconciler needs.
type EnrollmentAPI interface {
	AddCourse(ctx context.Context, body CourseRequest) error
	DropCourse(ctx context.Context, body CourseRequest) error
	GetStudent(ctx context.Context, studentId int) (*Student, error)
}

type DiffOptions struct {
	// DetectShiftChanges also compares shift ids, so moving a course to another shift
	// becomes an add of the new pair plus a drop of the old one.
	// Off by default: courses are matched by id only and shift edits are ignored.
	DetectShiftChanges bool
}

func (o DiffOptions) matches(selection CourseSelection, existing EnrollmentCourse) bool {
	if selection.CourseId == nil || *selection.CourseId != existing.Course.Id {
		return false
	}
	if !o.DetectShiftChanges {
		return true
	}
	return selection.ShiftId != nil && *selection.ShiftId == existing.Shift.Id
}

// Diff splits an edit into the selections to add and the enrolled courses to drop.
// Order of both inputs is preserved in the outputs.
func Diff(desired []CourseSelection, current []EnrollmentCourse, options DiffOptions) ([]CourseSelection, []EnrollmentCourse) {
	toAdd := lo.Filter(desired, func(selection CourseSelection, _ int) bool {
		return !lo.ContainsBy(current, func(existing EnrollmentCourse) bool {
			return options.matches(selection, existing)
		})
	})

	toDelete := lo.Filter(current, func(existing EnrollmentCourse, _ int) bool {
		return !lo.ContainsBy(desired, func(selection CourseSelection) bool {
			return options.matches(selection, existing)
		})
	})

	return toAdd, toDelete
}

type ReconcileResult struct {
	StudentId int
	Phase     Phase
	ToAdd     []CourseSelection
	ToDelete  []EnrollmentCourse
}

// Reconciler applies enrollment edits as add_course/drop_course calls.
//
// All adds are sent at once and awaited, then all drops. A failed add stops the run
// before any drop is sent; adds that already landed stay. Nothing is retried.
type Reconciler struct {
	api         EnrollmentAPI
	options     DiffOptions
	afterCommit func(studentId int)
}

// NewReconciler builds a reconciler. afterCommit, if set, runs once per Reconcile call
// that sent at least one request, whatever the outcome.
func NewReconciler(api EnrollmentAPI, options DiffOptions, afterCommit func(studentId int)) *Reconciler {
	return &Reconciler{api: api, options: options, afterCommit: afterCommit}
}

// Reconcile moves the student from current to desired. onSuccess fires exactly once,
// and only when every request succeeded.
func (r *Reconciler) Reconcile(ctx context.Context, studentId int, desired []CourseSelection, current []EnrollmentCourse, onSuccess func()) (*ReconcileResult, error) {
	toAdd, toDelete := Diff(desired, current, r.options)
	result := &ReconcileResult{StudentId: studentId, Phase: AddPhase, ToAdd: toAdd, ToDelete: toDelete}

	log.Info().Int("student", studentId).Int("add", len(toAdd)).Int("drop", len(toDelete)).Msg("Reconciling Enrollment")

	if len(toAdd) > 0 || len(toDelete) > 0 {
		if r.afterCommit != nil {
			defer r.afterCommit(studentId)
		}
	}

	err := runPhase(ctx, AddPhase, toAdd, func(selection CourseSelection) CourseRequest {
		return CourseRequest{StudentId: studentId, CourseId: selection.CourseId, ShiftId: selection.ShiftId}
	}, r.api.AddCourse)
	if err != nil {
		result.Phase = Failed
		log.Error().Err(err).Int("student", studentId).Msg("Add Phase Failed")
		return result, err
	}

	result.Phase = DropPhase
	err = runPhase(ctx, DropPhase, toDelete, func(existing EnrollmentCourse) CourseRequest {
		return CourseRequest{StudentId: studentId, CourseId: lo.ToPtr(existing.Course.Id), ShiftId: lo.ToPtr(existing.Shift.Id)}
	}, r.api.DropCourse)
	if err != nil {
		result.Phase = Failed
		log.Error().Err(err).Int("student", studentId).Int("committedAdds", len(toAdd)).Msg("Drop Phase Failed")
		return result, err
	}

	result.Phase = Done
	log.Info().Int("student", studentId).Msg("Enrollment Reconciled")
	if onSuccess != nil {
		onSuccess()
	}
	return result, nil
}

// ReconcileStudent reads the student's enrollment from the API before diffing, so
// running it again after a partial failure only sends what is still missing.
func (r *Reconciler) ReconcileStudent(ctx context.Context, studentId int, desired []CourseSelection, onSuccess func()) (*ReconcileResult, error) {
	student, err := r.api.GetStudent(ctx, studentId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read current enrollment")
	}
	return r.Reconcile(ctx, studentId, desired, student.Enrollment.Courses, onSuccess)
}

// runPhase sends one request per item concurrently and waits for all of them.
// In-flight requests are not cancelled when a sibling fails; the first failure is returned.
func runPhase[T any](ctx context.Context, phase Phase, items []T, toRequest func(T) CourseRequest, send func(context.Context, CourseRequest) error) error {
	var group errgroup.Group
	for _, item := range items {
		body := toRequest(item)
		group.Go(func() error {
			if err := send(ctx, body); err != nil {
				return PhaseError{Phase: phase, CourseId: body.CourseId, Err: err}
			}
			return nil
		})
	}
	return group.Wait()
}
