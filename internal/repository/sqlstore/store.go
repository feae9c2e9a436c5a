// Package sqlstore реализует репозитории поверх database/sql (sqlx).
// По умолчанию используется локальный файл SQLite, MySQL подключается через DB_DRIVER=mysql.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"cafepos/internal/repository"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Store одно подключение к базе на процесс
type Store struct {
	db      *sqlx.DB
	dialect string
}

var (
	_ repository.Catalog   = (*Store)(nil)
	_ repository.Users     = (*Store)(nil)
	_ repository.Orders    = (*Store)(nil)
	_ repository.Settings  = (*Store)(nil)
	_ repository.TxManager = (*Store)(nil)
)

// Open открывает базу и проверяет соединение
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	if driver == DriverSQLite {
		// single writer; also keeps :memory: databases alive between calls
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	return &Store{db: db, dialect: driver}, nil
}

func (s *Store) Close() error { return s.db.Close() }

type txKey struct{}

// ext возвращает транзакцию из контекста либо само подключение
func (s *Store) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return s.db
}

// WithTransaction заказ и его позиции фиксируются вместе или не фиксируются вовсе
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// mustExist MySQL не считает строку затронутой, если UPDATE не изменил значения,
// поэтому существование проверяется отдельно
func (s *Store) mustExist(ctx context.Context, table string, id int64) error {
	var n int64
	if err := s.get(ctx, &n, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id); err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// execByID для DELETE по id: 0 затронутых строк означает ErrNotFound
func (s *Store) execByID(ctx context.Context, query string, args ...any) error {
	res, err := s.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) get(ctx context.Context, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, s.ext(ctx), dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func (s *Store) selectRows(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, s.ext(ctx), dest, query, args...)
}
