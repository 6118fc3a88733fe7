package database

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type (
	// DatabaseConfig is a subset of the configuration focusing solely
	// on database connection items
	DatabaseConfig struct {
		Enabled  bool   `yaml:"enabled" env:"DB_ENABLED" env-default:"false"`
		User     string `yaml:"username" env:"DB_USERNAME" validate:"required_if=Enabled true"`
		Password string `yaml:"password" env:"DB_PASSWORD"`
		Name     string `yaml:"name" env:"DB_NAME" env-default:"BAWSTUN_DB"`
		Host     string `yaml:"host" env:"DB_HOST" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	}

	// Queryable is satisfied by both a *sqlx.DB and a *sqlx.Tx, allowing
	// stores to be used inside or outside of a transaction.
	Queryable interface {
		sqlx.Queryer
		sqlx.Execer
		Get(dest any, query string, args ...any) error
		Select(dest any, query string, args ...any) error
		NamedExec(query string, arg any) (sql.Result, error)
		Rebind(query string) string
	}

	// JsonColumn stores any JSON-serialisable value in a JSON/JSONB column.
	JsonColumn[T any] struct {
		val T
	}
)

func NewJsonColumn[T any](val T) JsonColumn[T] { return JsonColumn[T]{val: val} }

func (j *JsonColumn[T]) Get() T { return j.val }

func (j JsonColumn[T]) Value() (driver.Value, error) {
	data, err := json.Marshal(j.val)
	if err != nil {
		return nil, err
	}

	return string(data), nil
}

func (j *JsonColumn[T]) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T in to JsonColumn", src)
	}

	if err := json.Unmarshal(data, &j.val); err != nil {
		return errors.Join(errors.New("failed to unmarshal JsonColumn"), err)
	}

	return nil
}
