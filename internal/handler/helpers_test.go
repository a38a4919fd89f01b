package handler

import (
	"path/filepath"
	"testing"

	"mental-care-go/internal/config"
	"mental-care-go/pkg/hash"

	"github.com/stretchr/testify/require"
)

func configLocal(dir string) config.LocalStorageConfig {
	return config.LocalStorageConfig{
		Dir:            dir,
		UsersFile:      "users.json",
		ScoresFile:     "scores.json",
		ChatStoreFile:  "chat_store.json",
		VectorIndexDir: filepath.Join(dir, "index_storage"),
	}
}

func mustHash(t *testing.T) string {
	t.Helper()
	h, err := hash.HashPassword("Secret1")
	require.NoError(t, err)
	return h
}
