package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[store]
backend = "dynamodb"

[dynamodb]
region = "eu-north-1"
orders_table = "farm-orders"

[http]
port = "9090"
allowed_origins = ["https://admin.farm.shop"]

[digest]
recipients = ["owner@farm.shop"]

[reports]
timezone = "Europe/Riga"
top_n = 7

[reports.assumptions]
profit_margin = 0.3
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("HTTP_GENERATE_LIMIT", "4")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	c, err := LoadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, BackendDynamoDB, c.Store.Backend)
	assert.Equal(t, "eu-north-1", c.DynamoDB.Region)
	assert.Equal(t, "farm-orders", c.DynamoDB.OrdersTable)
	assert.Equal(t, "9090", c.HTTP.Port)
	assert.Equal(t, []string{"https://admin.farm.shop"}, c.HTTP.AllowedOrigins)
	assert.Equal(t, 4, c.HTTP.GenerateLimit)
	assert.Equal(t, "localhost:6379", c.Redis.Addr)
	assert.Equal(t, 5*time.Minute, c.Redis.TTL)
	assert.Equal(t, []string{"owner@farm.shop"}, c.Digest.Recipients)
	assert.Equal(t, 24*time.Hour, c.Digest.WorkerInterval)
	assert.Equal(t, "sales", c.Digest.ReportType)
	assert.Equal(t, "Europe/Riga", c.Reports.Timezone)
	assert.Equal(t, 7, c.Reports.TopN)
	assert.InDelta(t, 0.3, c.Reports.Assumptions.ProfitMargin, 1e-9)
	assert.Equal(t, 30*time.Second, c.Reports.FetchTimeout)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("MYSQL_HOST", "db.internal")
	t.Setenv("MYSQL_USER", "reports")
	t.Setenv("MYSQL_PASSWORD", "secret")
	t.Setenv("MYSQL_DATABASE", "farm")

	c, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, BackendMySQL, c.Store.Backend)
	assert.Equal(t, "8081", c.HTTP.Port)
	assert.Equal(t, "reports:secret@tcp(db.internal:3306)/farm?charset=utf8&parseTime=true", c.DB.DSN)
	assert.False(t, c.Auth.Enabled())
	assert.False(t, c.Digest.Enabled())
}

func TestLoadConfigUnknownBackend(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[store]\nbackend = \"mongo\"\n"))
	assert.ErrorContains(t, err, "mongo")
}
