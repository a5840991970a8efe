package repository

import (
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return sqlx.NewDb(db, "postgres"), mock
}

// sqlPattern превращает текст запроса в регулярное выражение, нечувствительное к переносам строк.
func sqlPattern(query string) string {
	parts := strings.Fields(query)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return `^\s*` + strings.Join(parts, `\s+`) + `\s*$`
}
