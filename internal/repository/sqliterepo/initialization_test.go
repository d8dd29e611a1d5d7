package sqliterepo

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefaultPragmas(t *testing.T) {
	cases := []struct {
		name string
		dsn  string
		want string
	}{
		{
			name: "no params",
			dsn:  "ledger.db",
			want: "ledger.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
		{
			name: "foreign params",
			dsn:  "ledger.db?_txlock=immediate",
			want: "ledger.db?_txlock=immediate&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
		{
			name: "overridden pragma",
			dsn:  "ledger.db?_pragma=busy_timeout(100)",
			want: "ledger.db?_pragma=busy_timeout(100)&_pragma=foreign_keys(1)",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, withDefaultPragmas(tc.dsn))
		})
	}
}

func TestOpenKeepsForeignKeysWithCustomParams(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_txlock=immediate"
	db, err := Open(t.Context(), dsn, l)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = NewTransactionRepository(db).Create(t.Context(), repoargs.TransactionCreate{
		Kind:         domain.TransactionDeposit,
		SourceUserID: 404,
		Amount:       decimal.NewFromInt(1),
		Currency:     domain.CurrencyMatic,
	})
	require.ErrorIs(t, err, domain.ErrForeignKey)
}
