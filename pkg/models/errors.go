package models

import (
	"errors"
	"fmt"
	"time"
)

// Pipeline error kinds. Typed errors below match them with errors.Is.
var (
	ErrDataIntegrity        = errors.New("data integrity violation")
	ErrArithmetic           = errors.New("arithmetic error")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrUndefinedCorrelation = errors.New("undefined correlation")
)

// DataIntegrityError reports malformed, duplicate-dated or out-of-order input
type DataIntegrityError struct {
	Stock  string
	Date   time.Time
	Reason string
}

func (e *DataIntegrityError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("%s: %s: %s", ErrDataIntegrity, e.Stock, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s: %s", ErrDataIntegrity, e.Stock, e.Date.Format(DateLayout), e.Reason)
}

// Is matches ErrDataIntegrity
func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }

// ArithmeticError reports a domain error such as division by a zero close
type ArithmeticError struct {
	Stock string
	Date  time.Time
	Op    string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("%s: %s %s: %s", ErrArithmetic, e.Stock, e.Date.Format(DateLayout), e.Op)
}

// Is matches ErrArithmetic
func (e *ArithmeticError) Is(target error) bool { return target == ErrArithmetic }

// InsufficientDataError reports too few observations for a statistic
type InsufficientDataError struct {
	Stock    string
	Found    int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %s has %d observations, need at least %d",
		ErrInsufficientData, e.Stock, e.Found, e.Required)
}

// Is matches ErrInsufficientData
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// UndefinedCorrelationError reports a zero-variance series
type UndefinedCorrelationError struct {
	Stock  string
	Series string
}

func (e *UndefinedCorrelationError) Error() string {
	return fmt.Sprintf("%s: %s series %s has zero variance", ErrUndefinedCorrelation, e.Stock, e.Series)
}

// Is matches ErrUndefinedCorrelation
func (e *UndefinedCorrelationError) Is(target error) bool { return target == ErrUndefinedCorrelation }
