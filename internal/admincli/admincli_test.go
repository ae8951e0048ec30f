package admincli

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mygardenbook/gardenbook/internal/logging"
	"github.com/mygardenbook/gardenbook/internal/server"
	"github.com/mygardenbook/gardenbook/internal/server/config"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubStorage(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	orig := openStorage
	openStorage = func(context.Context, *config.Config, logging.Logger) (*server.Storage, error) {
		return &server.Storage{DB: db, Manager: repomanager.NewPostgresRepositoryManager()}, nil
	}
	t.Cleanup(func() { openStorage = orig })
	return mock
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	mock := stubStorage(t)
	mock.ExpectClose()

	out, err := run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StorageError(t *testing.T) {
	orig := openStorage
	openStorage = func(context.Context, *config.Config, logging.Logger) (*server.Storage, error) {
		return nil, errors.New("db unreachable")
	}
	t.Cleanup(func() { openStorage = orig })

	_, err := run(t, "", "migrate")
	assert.EqualError(t, err, "db unreachable")
}

func TestCreateAdmin_PasswordStdin(t *testing.T) {
	mock := stubStorage(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO admins (email, password_hash, role)")).
		WithArgs("root@example.com", sqlmock.AnyArg(), "admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("adm-1", time.Now()))
	mock.ExpectClose()

	out, err := run(t, "correct-horse\n", "create-admin", "--email", " Root@Example.com ", "--password-stdin")
	require.NoError(t, err)
	assert.Equal(t, "created admin root@example.com (adm-1)\n", out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdmin_ShortPasswordRejected(t *testing.T) {
	mock := stubStorage(t)
	mock.ExpectClose()

	_, err := run(t, "short\n", "create-admin", "--email", "root@example.com", "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdmin_RequiresEmail(t *testing.T) {
	_, err := run(t, "correct-horse\n", "create-admin", "--password-stdin")
	assert.Error(t, err)
}

func TestPromptPassword(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	answers := [][]byte{[]byte("correct-horse"), []byte("correct-horse")}
	readPassword = func(int) ([]byte, error) {
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	pw, err := promptPassword(&bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "correct-horse", string(pw))

	answers = [][]byte{[]byte("one"), []byte("two")}
	_, err = promptPassword(&bytes.Buffer{})
	assert.EqualError(t, err, "passwords do not match")
}

func TestReadPasswordLine(t *testing.T) {
	pw, err := readPasswordLine(strings.NewReader("secret-pass\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "secret-pass", string(pw))

	pw, err = readPasswordLine(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", string(pw))

	_, err = readPasswordLine(strings.NewReader(""))
	assert.Error(t, err)
}
