package domain

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// HTTPError is implemented by every domain error so the transport layer can
// pick a status code without knowing the concrete type.
type HTTPError interface {
	error
	StatusCode() int
	Kind() string
}

// Sentinels for errors.Is matching. Every typed error below reports Is() == true
// for exactly one of these.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrAuthorization   = errors.New("not authorized")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
func (e *ValidationError) StatusCode() int      { return http.StatusBadRequest }
func (e *ValidationError) Kind() string         { return "validation" }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a referenced entity that is absent or not visible to the caller.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}
func (e *NotFoundError) StatusCode() int      { return http.StatusNotFound }
func (e *NotFoundError) Kind() string         { return "not_found" }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AuthorizationError reports a caller acting on an entity it has no rights over.
type AuthorizationError struct {
	Resource string
	ID       int64
	Message  string
}

func (e *AuthorizationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("not allowed to modify %s %d", e.Resource, e.ID)
}
func (e *AuthorizationError) StatusCode() int      { return http.StatusForbidden }
func (e *AuthorizationError) Kind() string         { return "authorization" }
func (e *AuthorizationError) Is(target error) bool { return target == ErrAuthorization }

// ConflictError reports an operation that would break a structural invariant:
// duplicate sibling name, category in use, listing already sold, and so on.
type ConflictError struct {
	Resource string
	ID       int64
	Message  string
}

func (e *ConflictError) Error() string        { return e.Message }
func (e *ConflictError) StatusCode() int      { return http.StatusConflict }
func (e *ConflictError) Kind() string         { return "conflict" }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// CycleError is returned when a category would become its own ancestor.
type CycleError struct {
	CategoryID int64
	ParentID   int64
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("category %d cannot be moved under %d: %d is itself or one of its descendants",
		e.CategoryID, e.ParentID, e.ParentID)
}
func (e *CycleError) StatusCode() int      { return http.StatusConflict }
func (e *CycleError) Kind() string         { return "cycle" }
func (e *CycleError) Is(target error) bool { return target == ErrConflict }

// UnauthenticatedError is returned for missing or bad credentials.
type UnauthenticatedError struct {
	Message string
}

func (e *UnauthenticatedError) Error() string        { return e.Message }
func (e *UnauthenticatedError) StatusCode() int      { return http.StatusUnauthorized }
func (e *UnauthenticatedError) Kind() string         { return "unauthenticated" }
func (e *UnauthenticatedError) Is(target error) bool { return target == ErrUnauthenticated }

// Validation is shorthand for &ValidationError{Field: field, Message: msg}.
func Validation(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// NotFound is shorthand for &NotFoundError{Resource: resource, ID: id}.
func NotFound(resource string, id int64) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// Conflict is shorthand for &ConflictError{...}.
func Conflict(resource string, id int64, format string, args ...interface{}) error {
	return &ConflictError{Resource: resource, ID: id, Message: fmt.Sprintf(format, args...)}
}

// FromValidation turns the result of validation.ValidateStruct into a
// ValidationError naming the first failing field. nil stays nil.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) && len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for field := range errs {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		return &ValidationError{Field: fields[0], Message: errs[fields[0]].Error()}
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}
	return &ValidationError{Message: err.Error()}
}
