package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/solawi/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "solawi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func strPtr(s string) *string { return &s }

func TestParseURL(t *testing.T) {
	tests := []struct {
		url     string
		driver  string
		dsn     string
		dialect Dialect
	}{
		{"postgres://u:p@localhost:5432/solawi", "pgx", "postgresql://u:p@localhost:5432/solawi", DialectPostgres},
		{"postgresql://localhost/solawi", "pgx", "postgresql://localhost/solawi", DialectPostgres},
		{"sqlite:///tmp/solawi.db", "sqlite3", "/tmp/solawi.db", DialectSQLite},
		{"file:test.db?mode=memory", "sqlite3", "file:test.db?mode=memory", DialectSQLite},
		{":memory:", "sqlite3", ":memory:", DialectSQLite},
	}
	for _, tt := range tests {
		driver, dsn, dialect, err := ParseURL(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.driver, driver, tt.url)
		assert.Equal(t, tt.dsn, dsn, tt.url)
		assert.Equal(t, tt.dialect, dialect, tt.url)
	}

	for _, bad := range []string{"", "mysql://localhost/db", "sqlite://"} {
		_, _, _, err := ParseURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestRebind(t *testing.T) {
	pg := &conn{dialect: DialectPostgres}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", pg.rebind("UPDATE t SET a = ? WHERE id = ?"))
	lite := &conn{dialect: DialectSQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

// TestMigrate_Idempotent verifies Migrate can run repeatedly and records the version once.
func TestMigrate_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	version, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	var rows int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&rows))
	assert.Equal(t, 1, rows)
}

// TestShares_WithBetsAndMembers verifies that shares are returned with their bets
// and members and that nullable columns survive the round trip.
func TestShares_WithBetsAndMembers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	station, err := s.CreateStation(ctx, "Nord")
	require.NoError(t, err)
	shareID, err := s.CreateShare(ctx, models.Share{Name: "Hofgruppe", StationID: &station.ID, Note: strPtr("halber Anteil")})
	require.NoError(t, err)
	emptyID, err := s.CreateShare(ctx, models.Share{})
	require.NoError(t, err)

	_, err = s.CreateMember(ctx, models.Member{Name: "Ada", Email: strPtr("ada@example.org"), ShareID: shareID})
	require.NoError(t, err)
	end := models.NewDate(2024, time.December, 31)
	_, err = s.CreateBet(ctx, models.Bet{ShareID: shareID, Value: decimal.RequireFromString("65.50"),
		StartDate: models.NewDate(2024, time.January, 1), EndDate: &end})
	require.NoError(t, err)

	shares, err := s.ListShares(ctx)
	require.NoError(t, err)
	require.Len(t, shares, 2)

	got := shares[0]
	assert.Equal(t, shareID, got.ID)
	assert.Equal(t, "Hofgruppe", got.Name)
	require.NotNil(t, got.StationID)
	assert.Equal(t, station.ID, *got.StationID)
	require.NotNil(t, got.Note)
	assert.Equal(t, "halber Anteil", *got.Note)
	require.Len(t, got.Members, 1)
	assert.Equal(t, "ada@example.org", *got.Members[0].Email)
	assert.Nil(t, got.Members[0].Phone)
	require.Len(t, got.Bets, 1)
	assert.True(t, got.Bets[0].Value.Equal(decimal.RequireFromString("65.5")))
	assert.Equal(t, "2024-01-01", got.Bets[0].StartDate.String())
	require.NotNil(t, got.Bets[0].EndDate)
	assert.Equal(t, "2024-12-31", got.Bets[0].EndDate.String())

	empty := shares[1]
	assert.Equal(t, emptyID, empty.ID)
	assert.Nil(t, empty.StationID)
	assert.Empty(t, empty.Bets)
	assert.NotNil(t, empty.Bets)
}

func TestGetShare_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetShare(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrNotFound), "error = %v", err)
}

// TestDeposits_GroupedByShare verifies deposits are reached through their person's share
// and that flags round-trip.
func TestDeposits_GroupedByShare(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	shareID, err := s.CreateShare(ctx, models.Share{})
	require.NoError(t, err)
	personID, err := s.CreatePerson(ctx, models.Person{Name: "Jürgen Müller", ShareID: shareID})
	require.NoError(t, err)
	userID, err := s.CreateUser(ctx, "kasse@example.org", "hash")
	require.NoError(t, err)

	_, err = s.CreateDeposit(ctx, models.Deposit{Amount: decimal.NewFromInt(80), Timestamp: models.NewDate(2024, time.February, 1),
		Title: "Februar", PersonID: personID})
	require.NoError(t, err)
	secID, err := s.CreateDeposit(ctx, models.Deposit{Amount: decimal.NewFromInt(300), Timestamp: models.NewDate(2024, time.January, 5),
		Title: "Kaution", PersonID: personID, IsSecurity: true, AddedBy: &userID})
	require.NoError(t, err)

	deposits, err := s.DepositsForShare(ctx, shareID)
	require.NoError(t, err)
	require.Len(t, deposits, 2)
	assert.Equal(t, secID, deposits[0].ID, "ordered by timestamp")
	assert.True(t, deposits[0].IsSecurity)
	assert.Equal(t, "Jürgen Müller", deposits[0].PersonName)
	require.NotNil(t, deposits[0].AddedBy)
	assert.Equal(t, userID, *deposits[0].AddedBy)
	assert.Nil(t, deposits[1].AddedBy)

	byShare, err := s.DepositsByShare(ctx)
	require.NoError(t, err)
	assert.Len(t, byShare[shareID], 2)

	dep := deposits[1]
	dep.Ignore = true
	require.NoError(t, s.UpdateDeposit(ctx, dep))
	got, err := s.GetDeposit(ctx, dep.ID)
	require.NoError(t, err)
	assert.True(t, got.Ignore)

	_, err = s.GetDeposit(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers_PasswordChange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, "kasse@example.org", "hash1")
	require.NoError(t, err)
	u, err := s.GetUserByEmail(ctx, "kasse@example.org")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Nil(t, u.PasswordChangedAt)

	changed := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetPassword(ctx, id, "hash2", changed))
	u, err = s.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hash2", u.PasswordHash)
	require.NotNil(t, u.PasswordChangedAt)
	assert.True(t, u.PasswordChangedAt.Equal(changed))

	_, err = s.CreateUser(ctx, "kasse@example.org", "dup")
	assert.Error(t, err, "email must be unique")

	assert.ErrorIs(t, s.SetPassword(ctx, 999, "x", changed), ErrNotFound)
}

// TestInTx_RollbackOnError verifies that a failing callback leaves no writes behind.
func TestInTx_RollbackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *Tx) error {
		if _, err := tx.CreateShare(ctx, models.Share{Name: "temp"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	shares, err := s.ListShares(ctx)
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestMoveAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.CreateShare(ctx, models.Share{})
	require.NoError(t, err)
	b, err := s.CreateShare(ctx, models.Share{})
	require.NoError(t, err)
	_, err = s.CreateMember(ctx, models.Member{Name: "M", ShareID: b})
	require.NoError(t, err)
	_, err = s.CreatePerson(ctx, models.Person{Name: "P", ShareID: b})
	require.NoError(t, err)
	betID, err := s.CreateBet(ctx, models.Bet{ShareID: b, Value: decimal.NewFromInt(1), StartDate: models.NewDate(2024, time.January, 1)})
	require.NoError(t, err)

	require.NoError(t, s.MoveMembers(ctx, b, a))
	require.NoError(t, s.MovePersons(ctx, b, a))
	require.NoError(t, s.MoveBets(ctx, b, a))
	require.NoError(t, s.DeleteShare(ctx, b))

	share, err := s.GetShare(ctx, a)
	require.NoError(t, err)
	assert.Len(t, share.Members, 1)
	assert.Len(t, share.Bets, 1)
	p, err := s.FindPersonByName(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, a, p.ShareID)

	require.NoError(t, s.DeleteBet(ctx, betID))
	assert.ErrorIs(t, s.DeleteBet(ctx, betID), ErrNotFound)
	assert.ErrorIs(t, s.DeleteShare(ctx, b), ErrNotFound)
}
