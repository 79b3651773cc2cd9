package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoTable indicates the document has no <table> element.
	ErrNoTable = errors.New("no <table> element found")
	// ErrHeaderMismatch indicates no table row carries every required header.
	ErrHeaderMismatch = errors.New("required headers not found")
	// ErrNoRequiredHeaders indicates the caller asked for zero columns.
	ErrNoRequiredHeaders = errors.New("at least one required header must be given")
)

// NoTableFoundError is returned when the document contains no table at all.
type NoTableFoundError struct {
	RequiredHeaders []string
}

func (e *NoTableFoundError) Error() string {
	return "no <table> element found in the HTML document"
}

func (e *NoTableFoundError) Unwrap() error {
	return ErrNoTable
}

// HeaderMismatchError is returned when tables exist but none has a row with
// all required headers. FoundHeaders lists the first candidate header row of
// each table, for diagnostics.
type HeaderMismatchError struct {
	RequiredHeaders []string
	FoundHeaders    []string
}

func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("none of the tables found contained all the required headers (%s) after normalization",
		strings.Join(e.RequiredHeaders, ", "))
}

func (e *HeaderMismatchError) Unwrap() error {
	return ErrHeaderMismatch
}
