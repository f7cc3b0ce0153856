package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/config"
	"github.com/YusovID/editorial-workflow/internal/repository"
	"github.com/YusovID/editorial-workflow/pkg/logger/sl"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidText         = "22P02"
)

// Postgres implements repository.Store. A value created by NewDB or NewStore
// runs every statement on the pool; the value handed to RunInTx callbacks is
// bound to one transaction.
type Postgres struct {
	db  *sqlx.DB
	tx  *sqlx.Tx
	log *slog.Logger
	sq  sq.StatementBuilderType
}

var _ repository.Store = (*Postgres)(nil)

func NewDB(cfg config.Postgres, log *slog.Logger) (*Postgres, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("can't connect to database: %v", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return NewStore(db, log), nil
}

func NewStore(db *sqlx.DB, log *slog.Logger) *Postgres {
	return &Postgres{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (p *Postgres) DB() *sqlx.DB {
	return p.db
}

func (p *Postgres) Manuscripts() repository.ManuscriptRepository { return &ManuscriptRepository{p: p} }
func (p *Postgres) Assignments() repository.AssignmentRepository { return &AssignmentRepository{p: p} }
func (p *Postgres) Invitations() repository.InvitationRepository { return &InvitationRepository{p: p} }
func (p *Postgres) TimeLimits() repository.TimeLimitRepository   { return &TimeLimitRepository{p: p} }

func (p *Postgres) RunInTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return p.inTx(ctx, "internal.repository.postgres.RunInTx", func(txp *Postgres) error {
		return fn(txp)
	})
}

func (p *Postgres) ext() sqlx.ExtContext {
	if p.tx != nil {
		return p.tx
	}

	return p.db
}

// inTx reuses the transaction p is bound to, or opens a new one.
func (p *Postgres) inTx(ctx context.Context, op string, fn func(txp *Postgres) error) error {
	if p.tx != nil {
		return fn(p)
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			p.log.Error("failed to rollback transaction", slog.String("op", op), sl.Err(err))
		}
	}()

	if err := fn(&Postgres{db: p.db, tx: tx, log: p.log, sq: p.sq}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

func mapPQError(op string, err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w: %s already exists", op, apperrors.ErrConflict, what)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s references a missing row", op, apperrors.ErrNotFound, what)
		}
	}

	return fmt.Errorf("%s: failed to execute insert: %w", op, err)
}

// malformedID reports whether err is postgres rejecting a non-UUID id. Such a
// row cannot exist, so lookups treat it as not found.
func malformedID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidText
}
