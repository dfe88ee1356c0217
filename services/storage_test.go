package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"psgc_api_go/config"

	"github.com/stretchr/testify/assert"
)

func TestLocalStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage := NewLocalStorage(tempDir)
	ctx := context.Background()
	content := "code,name\n0100000000,Ilocos Region\n"
	key := "exports/20250701T000000Z/regions.csv"
	size := int64(len(content))

	t.Run("UploadReader creates file", func(t *testing.T) {
		result, err := storage.UploadReader(ctx, strings.NewReader(content), key, contentTypeFor(key), size)
		assert.NoError(t, err)
		assert.Equal(t, key, result.Key)
		assert.Equal(t, "regions.csv", result.FileName)
		assert.Equal(t, size, result.FileSize)

		_, err = os.Stat(filepath.Join(tempDir, filepath.FromSlash(key)))
		assert.NoError(t, err)
	})

	t.Run("UploadReader overwrites an existing key", func(t *testing.T) {
		replaced := "code,name\n"
		_, err := storage.UploadReader(ctx, strings.NewReader(replaced), key, contentTypeFor(key), int64(len(replaced)))
		assert.NoError(t, err)

		got, err := os.ReadFile(filepath.Join(tempDir, filepath.FromSlash(key)))
		assert.NoError(t, err)
		assert.Equal(t, replaced, string(got))
	})

	t.Run("URLs and paths", func(t *testing.T) {
		expected := "/" + filepath.ToSlash(filepath.Join(tempDir, "some/key"))
		assert.Equal(t, expected, storage.GetPublicURL("some/key"))
	})
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", contentTypeFor("a/regions.CSV"))
	assert.Equal(t, "application/json", contentTypeFor("regions.json"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", contentTypeFor("psgc.xlsx"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("notes.txt"))
}

func TestExportStorageKey(t *testing.T) {
	at := time.Date(2025, 10, 6, 4, 47, 6, 0, time.FixedZone("PHT", 8*3600))
	assert.Equal(t, "exports/20251005T204706Z/barangays.json", ExportStorageKey(at, "barangays.json"))
}

func TestInitializeStorageFallsBackToLocal(t *testing.T) {
	prev := Storage
	defer func() { Storage = prev }()

	InitializeStorage(&config.Config{StorageDir: t.TempDir()})
	_, ok := Storage.(*LocalStorage)
	assert.True(t, ok)
}

func TestR2StorageGetPublicURL(t *testing.T) {
	r2 := &R2Storage{bucket: "psgc", publicURL: "https://cdn.example.com/"}
	assert.Equal(t, "https://cdn.example.com/exports/x/regions.csv", r2.GetPublicURL("exports/x/regions.csv"))

	r2.publicURL = ""
	assert.Equal(t, "", r2.GetPublicURL("exports/x/regions.csv"))
}
