package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type uniqueModel struct {
	ID    uint   `gorm:"primaryKey"`
	Email string `gorm:"uniqueIndex:idx_unique_models_email"`
}

func TestMapError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, MapError(nil))
	})

	t.Run("unrelated error passes through", func(t *testing.T) {
		err := errors.New("connection refused")

		assert.Same(t, err, MapError(err))
	})

	t.Run("sqlite unique constraint", func(t *testing.T) {
		db, err := ProvideDatabase(createTestConfig("sqlite", ":memory:", true), WithModels(&uniqueModel{}), nil)
		require.NoError(t, err)

		require.NoError(t, db.Create(&uniqueModel{Email: "a@b.com"}).Error)
		mapped := MapError(db.Create(&uniqueModel{Email: "a@b.com"}).Error)

		assert.ErrorIs(t, mapped, ErrDuplicate)
		v, ok := AsUniqueViolation(mapped)
		require.True(t, ok)
		assert.Equal(t, "unique_models.email", v.Constraint)
		assert.True(t, v.Involves("unique_models.email"))
		assert.False(t, v.Involves("users.email"))
	})

	t.Run("postgres unique violation", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}

		mapped := MapError(fmt.Errorf("insert user: %w", pgErr))

		v, ok := AsUniqueViolation(mapped)
		require.True(t, ok)
		assert.Equal(t, "idx_users_email", v.Constraint)
		assert.True(t, v.Involves("idx_users_email"))
		assert.ErrorIs(t, mapped, ErrDuplicate)
	})

	t.Run("postgres other error", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "fk_recipes_user"}

		_, ok := AsUniqueViolation(MapError(pgErr))

		assert.False(t, ok)
	})

	t.Run("mysql duplicate entry", func(t *testing.T) {
		myErr := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.com' for key 'users.idx_users_email'"}

		v, ok := AsUniqueViolation(MapError(myErr))

		require.True(t, ok)
		assert.Equal(t, "users.idx_users_email", v.Constraint)
		assert.True(t, v.Involves("idx_users_email"))
	})

	t.Run("gorm translated duplicate", func(t *testing.T) {
		v, ok := AsUniqueViolation(MapError(gorm.ErrDuplicatedKey))

		require.True(t, ok)
		assert.Empty(t, v.Constraint)
		assert.False(t, v.Involves("idx_users_email"))
	})
}
