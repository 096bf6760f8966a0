// Package store provides master-record providers. The engine only reads case
// data; the surrounding CRUD application owns writes.
package store

import (
	"context"

	"scriba/internal/masterdata"
	dErrors "scriba/pkg/domain-errors"
)

// ErrNotFound keeps missing-record handling consistent across implementations.
// Callers treat it as "no data entered yet", not as a failure.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "master record not found")

// Provider fetches the master record for a case.
type Provider interface {
	Get(ctx context.Context, caseID string) (masterdata.Record, error)
}
