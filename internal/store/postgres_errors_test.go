package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func uniqueViolationOn(constraint string) error {
	return fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: constraint})
}

func TestMapDraftInsertErrorSingleDraftIndex(t *testing.T) {
	err := mapDraftInsertError(uniqueViolationOn("versions_single_draft"))
	if !errors.Is(err, ErrDraftExists) {
		t.Fatalf("expected ErrDraftExists, got %v", err)
	}
}

func TestMapDraftInsertErrorSequenceRaceIsRetryable(t *testing.T) {
	err := mapDraftInsertError(uniqueViolationOn("versions_sequence_number_key"))
	if !errors.Is(err, errSequenceConflict) {
		t.Fatalf("expected sequence conflict, got %v", err)
	}
	if errors.Is(err, ErrDraftExists) {
		t.Fatal("sequence race must not be reported as an existing draft")
	}
}

func TestMapDraftInsertErrorPassesThroughOtherFailures(t *testing.T) {
	cause := errors.New("connection reset")
	err := mapDraftInsertError(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if errors.Is(err, ErrDraftExists) || errors.Is(err, errSequenceConflict) {
		t.Fatalf("non-unique failure mapped to a sentinel: %v", err)
	}
}
