package freq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/dictkit/pkg/db"
)

func TestImporterReplaceAndStoreOracle(t *testing.T) {
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	im := NewImporter(conn, nil)
	n, err := im.Replace("en", map[string]int64{"the": 400, "apple": 2, "zebra": 98})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// A second import replaces rather than merges.
	n, err = im.Replace("en", map[string]int64{"the": 800, "apple": 200})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	o := NewStoreOracle(conn)
	f, err := o.Frequency("The", "en")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, f, 1e-12)

	f, err = o.Frequency("zebra", "en")
	require.NoError(t, err)
	assert.Zero(t, f)

	_, err = o.Frequency("the", "fr")
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
}

func TestImporterRejectsEmpty(t *testing.T) {
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	_, err = NewImporter(conn, nil).Replace("en", nil)
	assert.Error(t, err)
}
