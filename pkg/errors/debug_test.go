package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpCarriesTaxonomyFields(t *testing.T) {
	err := New(CodePayment, "payment was declined").
		WithDetails(map[string]string{"transaction_id": "TXN123"})

	d := Dump(fmt.Errorf("processing: %w", err))
	if d.Code != CodePayment {
		t.Fatalf("code = %s", d.Code)
	}
	if !d.Retryable {
		t.Fatal("declined payments dump as retryable")
	}
	details, ok := d.Details.(map[string]string)
	if !ok || details["transaction_id"] != "TXN123" {
		t.Fatalf("details = %v", d.Details)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("chain = %v", d.Chain)
	}
}

func TestDumpSurfacesDriverDiagnostics(t *testing.T) {
	cause := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "payments_transaction_id_key",
		TableName:      "payments",
	}
	d := Dump(Wrap(CodeDependency, cause, "recording payment attempt"))
	if d.PGCode != "23505" || d.PGConstraint != "payments_transaction_id_key" {
		t.Fatalf("driver fields = %+v", d)
	}
	if d.Code != CodeDependency {
		t.Fatalf("code = %s", d.Code)
	}
}

func TestDumpPlainError(t *testing.T) {
	d := Dump(stdErrors.New("boom"))
	if d.Code != "" || d.Retryable || d.Details != nil {
		t.Fatalf("plain error dump carries taxonomy fields: %+v", d)
	}
	if d.TopMessage != "boom" {
		t.Fatalf("top message = %q", d.TopMessage)
	}
}
