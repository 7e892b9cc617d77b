package common

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Queryer: общий интерфейс *sqlx.DB и *sqlx.Tx, включая Rebind.
type Queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// GetByField - универсальная функция для получения сущности по любому полю.
// Запрос пишется с плейсхолдерами "?" и переводится в синтаксис драйвера.
func GetByField[T any](ctx context.Context, q Queryer, table, columns, field string, value interface{}, notFoundErr error) (*T, error) {
	return getByField[T](ctx, q, table, columns, field, value, notFoundErr, "")
}

// GetByFieldForUpdate читает строку и блокирует её до конца транзакции.
func GetByFieldForUpdate[T any](ctx context.Context, q Queryer, table, columns, field string, value interface{}, notFoundErr error) (*T, error) {
	return getByField[T](ctx, q, table, columns, field, value, notFoundErr, LockClause(q))
}

// LockClause возвращает " FOR UPDATE" для Postgres. SQLite блокирует запись на уровне
// всей базы, а пул ограничен одним соединением, поэтому там суффикс не нужен.
func LockClause(q Queryer) string {
	if q.DriverName() == "postgres" {
		return " FOR UPDATE"
	}
	return ""
}

func getByField[T any](ctx context.Context, q Queryer, table, columns, field string, value interface{}, notFoundErr error, suffix string) (*T, error) {
	var entity T
	query := q.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?%s", columns, table, field, suffix))

	if err := q.GetContext(ctx, &entity, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr
		}
		return nil, fmt.Errorf("get by %s from %s: %w", field, table, err)
	}

	return &entity, nil
}

// In раскрывает слайс аргументов для "IN (?)" и приводит запрос к синтаксису драйвера.
func In(q Queryer, query string, args ...interface{}) (string, []interface{}, error) {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("expand IN: %w", err)
	}
	return q.Rebind(expanded), expandedArgs, nil
}

// RowsAffected безопасно достаёт количество затронутых строк.
func RowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// WithTransaction выполняет функцию внутри транзакции с правильной обработкой ошибок
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			// При панике откатываем транзакцию
			_ = tx.Rollback()
			panic(p)
		}
	}()

	err = fn(tx)
	if err != nil {
		// При ошибке откатываем транзакцию
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// JSONColumn хранит значение как JSON-текст; работает и с JSONB в Postgres, и с TEXT в SQLite.
type JSONColumn[T any] struct {
	Val T
}

func (j JSONColumn[T]) Value() (driver.Value, error) {
	raw, err := json.Marshal(j.Val)
	if err != nil {
		return nil, fmt.Errorf("json column: marshal: %w", err)
	}
	// Строка, а не []byte: lib/pq передаёт []byte как bytea.
	return string(raw), nil
}

func (j *JSONColumn[T]) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		var zero T
		j.Val = zero
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("json column: unsupported type %T", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		var zero T
		j.Val = zero
		return nil
	}
	return json.Unmarshal(raw, &j.Val)
}
