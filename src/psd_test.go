package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportMissingFile(t *testing.T) {
	storage, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)

	p := newPSDImporter(storage, testLogger())
	_, err = p.Import(filepath.Join(t.TempDir(), "missing.psd"))
	require.Error(t, err)
	assert.Equal(t, KindNotFound, errKind(err))
}

func TestImportRejectsNonPSD(t *testing.T) {
	storage, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte("not a psd"), 0o644))

	p := newPSDImporter(storage, testLogger())
	_, err = p.Import(path)
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, errKind(err))
}

func TestImportRejectsCorruptPSD(t *testing.T) {
	storage, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "broken.psd")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a psd"), 0o644))

	p := newPSDImporter(storage, testLogger())
	_, err = p.Import(path)
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, errKind(err))
}
