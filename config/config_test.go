package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SMTP_USERNAME", "")
	t.Setenv("EMAIL_USER", "ops@medhive.health")
	t.Setenv("EMAIL_PASS", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.SMTPUsername, "explicitly empty SMTP_USERNAME wins over EMAIL_USER")
	assert.Equal(t, "secret", cfg.SMTPPassword)
	assert.Equal(t, 15*time.Second, cfg.MailSendTimeout)
	assert.Equal(t, cfg.CORSAllowedOrigins, cfg.FunctionCORSAllowedOrigins)
}

func TestLoadConfigCredentialFallback(t *testing.T) {
	// Setenv registers the restore; Unsetenv makes the key absent for this test
	for _, key := range []string{"SMTP_USERNAME", "SMTP_FROM_EMAIL", "CONTACT_EMAIL_TO"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("EMAIL_USER", "ops@medhive.health")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ops@medhive.health", cfg.SMTPUsername)
	assert.Equal(t, "ops@medhive.health", cfg.SMTPFromEmail)
	assert.Equal(t, "ops@medhive.health", cfg.ContactEmailTo)
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_ORIGINS", " https://a.example/ , ,http://localhost:3000")
	assert.Equal(t, []string{"https://a.example", "http://localhost:3000"}, getEnvList("TEST_ORIGINS", nil))

	t.Setenv("TEST_ORIGINS", " , ")
	assert.Equal(t, []string{"x"}, getEnvList("TEST_ORIGINS", []string{"x"}))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_TIMEOUT", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("TEST_TIMEOUT", time.Second))

	t.Setenv("TEST_TIMEOUT", "7")
	assert.Equal(t, 7*time.Second, getEnvDuration("TEST_TIMEOUT", time.Second))

	t.Setenv("TEST_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getEnvDuration("TEST_TIMEOUT", time.Second))
}
