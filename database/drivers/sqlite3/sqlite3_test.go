package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukit/osukit/database"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, Connect(nil), database.ErrNilInstance)

	i, err := database.NewInstance(&database.Config{Enabled: true})
	require.NoError(t, err)
	assert.ErrorIs(t, Connect(i), database.ErrNoDatabaseProvided)

	i, err = database.NewInstance(&database.Config{
		Enabled:  true,
		Database: "index.db",
		DataPath: t.TempDir(),
	})
	require.NoError(t, err)
	require.NoError(t, Connect(i))
	assert.True(t, i.IsConnected())

	conn, err := i.GetSQL()
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE t (v TEXT)`)
	assert.NoError(t, err)
	assert.NoError(t, i.CloseConnection())
}
