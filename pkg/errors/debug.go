package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrorDump flattens an error chain for structured request logs.
type ErrorDump struct {
	TopMessage string
	Code       Code
	Retryable  bool
	Chain      []string

	// Storage is set when the chain carries a database error.
	Storage *StorageFault
}

// StorageFault is the database side of a failed order or catalog write.
type StorageFault struct {
	Code       string
	Constraint string
	Table      string
	Column     string
	Detail     string
	Message    string
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Retryable = MetadataFor(te.Code()).Retryable
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.Storage = storageFault(err)
	return d
}

// Fields renders the dump as log fields, leaving out empty storage details.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.Retryable {
		fields["retryable"] = true
	}
	if s := d.Storage; s != nil {
		for key, val := range map[string]string{
			"db_code":       s.Code,
			"db_constraint": s.Constraint,
			"db_table":      s.Table,
			"db_column":     s.Column,
			"db_detail":     s.Detail,
			"db_message":    s.Message,
		} {
			if val != "" {
				fields[key] = val
			}
		}
	}
	return fields
}

func storageFault(err error) *StorageFault {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &StorageFault{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &StorageFault{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &StorageFault{Message: gorm.ErrRecordNotFound.Error()}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &StorageFault{Code: "23505", Message: gorm.ErrDuplicatedKey.Error()}
	}
	return nil
}
