package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// LogFields flattens err into structured log fields: the message, its code,
// the unwrap chain and Postgres details when the receipts store surfaced a
// driver error.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	fields := map[string]any{"error": err.Error()}
	if typed := As(err); typed != nil {
		fields["error_code"] = typed.Code()
		if d, ok := typed.Details().(map[string]any); ok {
			if status, ok := d["upstreamStatus"]; ok {
				fields["upstream_status"] = status
			}
		}
	}

	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T", e))
	}
	fields["error_chain"] = chain

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields["pg_code"] = pgErr.Code
		fields["pg_constraint"] = pgErr.ConstraintName
		fields["pg_table"] = pgErr.TableName
		fields["pg_detail"] = pgErr.Detail
	}
	return fields
}
