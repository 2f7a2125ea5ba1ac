package model

import (
	"errors"
	"fmt"
)

// QueryError represents a resolution failure scoped to one query
// request: an unknown entity, column, or measure, or a join path that
// cannot be traversed. Query errors are non-fatal to the process; the
// caller surfaces the specific offending pair and the model is left
// untouched.
type QueryError struct {
	// Code identifies the error category.
	Code QueryErrorCode

	// Message is a human-readable description.
	Message string

	// Entity identifies the offending entity or role, if known.
	Entity string

	// Column identifies the offending column, if known.
	Column string

	// Path holds the offending path endpoints for path errors, as
	// [from, to].
	Path []string
}

// QueryErrorCode categorizes query resolution errors.
type QueryErrorCode string

const (
	// ErrCodeEntityNotFound indicates a referenced entity or role
	// doesn't exist in the model.
	ErrCodeEntityNotFound QueryErrorCode = "ENTITY_NOT_FOUND"

	// ErrCodeColumnNotFound indicates a referenced column doesn't
	// exist on its entity.
	ErrCodeColumnNotFound QueryErrorCode = "COLUMN_NOT_FOUND"

	// ErrCodeMeasureNotFound indicates a requested measure isn't
	// declared on any target fact.
	ErrCodeMeasureNotFound QueryErrorCode = "MEASURE_NOT_FOUND"

	// ErrCodeNoPathFound indicates no join path exists between two
	// entities.
	ErrCodeNoPathFound QueryErrorCode = "NO_PATH_FOUND"

	// ErrCodeUnsafeJoinPath indicates every join path between two
	// entities traverses a fan-out edge.
	ErrCodeUnsafeJoinPath QueryErrorCode = "UNSAFE_JOIN_PATH"

	// ErrCodeAmbiguousRole indicates a dimension reachable through two
	// or more roles was referenced by its base name instead of a role
	// name.
	ErrCodeAmbiguousRole QueryErrorCode = "AMBIGUOUS_ROLE"

	// ErrCodeAmbiguousGrain indicates no candidate entity reaches every
	// other candidate via a safe path, so a shared grain cannot be
	// inferred. Reported, never guessed.
	ErrCodeAmbiguousGrain QueryErrorCode = "AMBIGUOUS_GRAIN"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	switch {
	case len(e.Path) == 2:
		return fmt.Sprintf("%s: %s (from=%s, to=%s)", e.Code, e.Message, e.Path[0], e.Path[1])
	case e.Entity != "" && e.Column != "":
		return fmt.Sprintf("%s: %s (entity=%s, column=%s)", e.Code, e.Message, e.Entity, e.Column)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.Entity)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// NewEntityNotFound creates a QueryError for an unknown entity.
func NewEntityNotFound(entity string) *QueryError {
	return &QueryError{
		Code:    ErrCodeEntityNotFound,
		Message: "entity not found in model",
		Entity:  entity,
	}
}

// NewColumnNotFound creates a QueryError for an unknown column.
func NewColumnNotFound(entity, column string) *QueryError {
	return &QueryError{
		Code:    ErrCodeColumnNotFound,
		Message: "column not found on entity",
		Entity:  entity,
		Column:  column,
	}
}

// NewMeasureNotFound creates a QueryError for an unknown measure.
func NewMeasureNotFound(measure string) *QueryError {
	return &QueryError{
		Code:    ErrCodeMeasureNotFound,
		Message: "measure not declared on any target fact",
		Entity:  measure,
	}
}

// NewNoPathFound creates a QueryError for an unreachable entity pair.
func NewNoPathFound(from, to string) *QueryError {
	return &QueryError{
		Code:    ErrCodeNoPathFound,
		Message: "no join path between entities",
		Path:    []string{from, to},
	}
}

// NewUnsafeJoinPath creates a QueryError for a fan-out join path.
func NewUnsafeJoinPath(from, to string, step string) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnsafeJoinPath,
		Message: fmt.Sprintf("join path traverses fan-out edge at %s", step),
		Path:    []string{from, to},
	}
}

// NewAmbiguousRole creates a QueryError for a role-ambiguous dimension
// reference.
func NewAmbiguousRole(dimension string, roles []string) *QueryError {
	return &QueryError{
		Code:    ErrCodeAmbiguousRole,
		Message: fmt.Sprintf("dimension reachable via roles %v; reference it by role name", roles),
		Entity:  dimension,
	}
}

// IsQueryError returns the QueryError with the given code, if err wraps
// one.
func IsQueryError(err error, code QueryErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

// PlanError represents a failure inside the planning pipeline. Plan
// errors are deterministic given the same model and request; no retry
// exists anywhere in the planner.
type PlanError struct {
	// Code identifies the error category.
	Code PlanErrorCode

	// Message is a human-readable description.
	Message string

	// Phase names the pipeline phase that failed (logical, physical,
	// cost).
	Phase string

	// Cause is the underlying error, if any.
	Cause error
}

// PlanErrorCode categorizes planning errors.
type PlanErrorCode string

const (
	// ErrCodeLogicalPlan indicates logical plan construction failed.
	ErrCodeLogicalPlan PlanErrorCode = "LOGICAL_PLAN_ERROR"

	// ErrCodePhysicalPlan indicates physical candidate enumeration
	// failed.
	ErrCodePhysicalPlan PlanErrorCode = "PHYSICAL_PLAN_ERROR"

	// ErrCodeCostEstimation indicates cost estimation failed.
	ErrCodeCostEstimation PlanErrorCode = "COST_ESTIMATION_ERROR"

	// ErrCodeNoValidPlans indicates zero physical candidates were
	// generated for a logical plan.
	ErrCodeNoValidPlans PlanErrorCode = "NO_VALID_PLANS"
)

// Error implements the error interface.
func (e *PlanError) Error() string {
	if e.Phase != "" {
		return fmt.Sprintf("%s: %s (phase=%s)", e.Code, e.Message, e.Phase)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *PlanError) Unwrap() error { return e.Cause }

// NewPlanError creates a PlanError wrapping a cause.
func NewPlanError(code PlanErrorCode, phase string, cause error) *PlanError {
	msg := "planning failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &PlanError{Code: code, Message: msg, Phase: phase, Cause: cause}
}

// NewNoValidPlans creates a PlanError for an empty candidate set.
func NewNoValidPlans(node string) *PlanError {
	return &PlanError{
		Code:    ErrCodeNoValidPlans,
		Message: fmt.Sprintf("no physical candidates generated for %s", node),
		Phase:   "physical",
	}
}

// IsPlanError returns true when err wraps a PlanError with the given
// code.
func IsPlanError(err error, code PlanErrorCode) bool {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
