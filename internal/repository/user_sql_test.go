package repository

import (
	"context"
	"errors"
	"testing"

	"penloft/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetUserByUsername_SQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	tests := []struct {
		name         string
		username     string
		mockBehavior func()
		wantUser     bool
		wantErr      bool
	}{
		{
			name:     "Found, lookup key is lower-cased",
			username: "AliciaKeys",
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "fuid", "username", "username_key"}).
					AddRow(1, "fuid-1", "aliciakeys", "aliciakeys")
				mock.ExpectQuery(`SELECT \* FROM "users" WHERE username_key = \$1`).
					WithArgs("aliciakeys", 1).
					WillReturnRows(rows)
			},
			wantUser: true,
		},
		{
			name:     "Missing returns nil without error",
			username: "ghost",
			mockBehavior: func() {
				mock.ExpectQuery(`SELECT \* FROM "users" WHERE username_key = \$1`).
					WithArgs("ghost", 1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
		},
		{
			name:     "Infrastructure fault is an error",
			username: "broken",
			mockBehavior: func() {
				mock.ExpectQuery(`SELECT \* FROM "users" WHERE username_key = \$1`).
					WithArgs("broken", 1).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetUserByUsername(ctx, tt.username)

			if tt.wantErr {
				var appErr *models.AppError
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantUser, user != nil)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_DoesUsernameExist_SQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE username_key = \$1`).
		WithArgs("bencarter").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.DoesUsernameExist(context.Background(), "BenCarter")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateNewUser_TakenSkipsInsert(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WithArgs("aliciakeys").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	user, err := repo.CreateNewUser(context.Background(), NewUser{Fuid: "x", Username: "aliciakeys"})
	assert.ErrorIs(t, err, models.ErrUsernameTaken)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_username_key" (SQLSTATE 23505)`)))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: posts.slug")))
	assert.False(t, isUniqueConstraintError(errors.New("connection refused")))
	assert.False(t, isUniqueConstraintError(nil))
}
