package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirAndEmbeddedFiles(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres"} {
		dir, err := Dir(driver)
		require.NoError(t, err)

		entries, err := fs.ReadDir(files, dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, driver)
	}

	_, err := Dir("sqlite")
	assert.Error(t, err)
}
