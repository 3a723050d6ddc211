package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "imap.gmail.com", cfg.IMAP.Host)
	assert.Equal(t, "993", cfg.IMAP.Port)
	assert.True(t, cfg.IMAP.TLS)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 50, cfg.Sync.MaxResults)
	assert.Equal(t, 50, cfg.View.CapPerCategory)
	assert.Equal(t, DefaultCategories, cfg.CategoryNames())
	assert.Equal(t, "INBOX", cfg.FolderMap()[CategoryInbox])
	assert.Equal(t, "", cfg.FolderMap()[CategoryPromotions])
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
user: alice
imap:
  host: mail.example.com
  username: alice@example.com
categories:
  - name: Inbox
    folder: INBOX
  - name: Newsletters
    folder: Lists/News
view:
  timezone: UTC
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, "mail.example.com", cfg.IMAP.Host)
	assert.Equal(t, "993", cfg.IMAP.Port)
	assert.Equal(t, "alice@example.com", cfg.SMTP.Username)
	assert.Equal(t, "alice@example.com", cfg.SMTP.From)
	assert.Equal(t, []Category{CategoryInbox, "Newsletters"}, cfg.CategoryNames())
	assert.Equal(t, "Lists/News", cfg.FolderMap()["Newsletters"])

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("MAILCACHE_IMAP_HOST", "imap.env.test")
	t.Setenv("MAILCACHE_SYNC_MAX_RESULTS", "7")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "imap.env.test", cfg.IMAP.Host)
	assert.Equal(t, 7, cfg.Sync.MaxResults)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("imap: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.User = "bob"
	cfg.IMAP.Host = "imap.bob.test"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bob", loaded.User)
	assert.Equal(t, "imap.bob.test", loaded.IMAP.Host)
	assert.Equal(t, cfg.CategoryNames(), loaded.CategoryNames())
}

func TestLocationInvalid(t *testing.T) {
	cfg := &AppConfig{View: ViewConfig{Timezone: "Not/AZone"}}
	_, err := cfg.Location()
	assert.Error(t, err)
}
