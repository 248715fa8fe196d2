package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  name: soulcare
  environment: test
server:
  port: 9091
llm:
  api_key: sk-test
  model: gpt-4o-mini
store:
  backend: excel
  excel_path: /tmp/appointments.xlsx
smtp:
  host: smtp.example.com
  username: bot@example.com
  password: secret
clinic:
  therapist_name: Ava
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "soulcare", cfg.App.Name)
	assert.Equal(t, 9091, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "excel", cfg.Store.Backend)
	assert.Equal(t, "Ava", cfg.Clinic.TherapistName)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")

	path := writeConfig(t, `
llm:
  api_key: ${TEST_OPENAI_KEY}
store:
  backend: excel
  excel_path: /tmp/appointments.xlsx
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: sk-test
store:
  excel_path: /tmp/appointments.xlsx
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.ShutdownSeconds)
	assert.Equal(t, "gpt-4", cfg.LLM.Model)
	assert.Equal(t, "excel", cfg.Store.Backend)
	assert.Equal(t, "Appointments", cfg.Store.SheetName)
	assert.Equal(t, 3, cfg.Store.ReadRetries)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 30, cfg.RateLimit.Requests)
	assert.Equal(t, 60, cfg.RateLimit.WindowSeconds)
	assert.Equal(t, "Mizo", cfg.Clinic.TherapistName)
	assert.Equal(t, "SoulCare Therapy Center", cfg.Clinic.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.LLM.APIKey = "sk-test"
		c.Store.Backend = "excel"
		c.Store.ExcelPath = "/tmp/appointments.xlsx"
		return c
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing api key", func(t *testing.T) {
		c := base()
		c.LLM.APIKey = ""
		assert.Error(t, c.Validate())
	})

	t.Run("placeholder api key", func(t *testing.T) {
		c := base()
		c.LLM.APIKey = "YOUR_API_KEY_HERE"
		assert.Error(t, c.Validate())
	})

	t.Run("sheets backend needs credentials", func(t *testing.T) {
		c := base()
		c.Store.Backend = "sheets"
		assert.Error(t, c.Validate())

		c.Google.CredentialsFile = "/etc/soulcare/sa.json"
		c.Google.SpreadsheetID = "sheet-id"
		assert.NoError(t, c.Validate())
	})

	t.Run("excel backend needs path", func(t *testing.T) {
		c := base()
		c.Store.ExcelPath = ""
		assert.Error(t, c.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		c := base()
		c.Store.Backend = "postgres"
		assert.Error(t, c.Validate())
	})

	t.Run("smtp host without username", func(t *testing.T) {
		c := base()
		c.SMTP.Host = "smtp.example.com"
		assert.Error(t, c.Validate())
	})
}
