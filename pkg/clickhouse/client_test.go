package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := ClientConfig{Host: "ch", Port: 9000, Database: "retail", User: "u", Password: "p"}
	assert.Equal(t, "clickhouse://u:p@ch:9000/retail", buildDSN(cfg))

	cfg.UseHTTP = true
	cfg.Port = 8123
	cfg.DialTimeout = 5 * time.Second
	cfg.MaxExecTime = time.Minute
	cfg.Readonly = true
	assert.Equal(t,
		"clickhouse+http://u:p@ch:8123/retail?dial_timeout=5s&max_execution_time=60&readonly=2",
		buildDSN(cfg))
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(WithAddress("", 9000))
	assert.Error(t, err)
}

func TestBuildDSNEscapesCredentials(t *testing.T) {
	cfg := ClientConfig{Host: "ch", Port: 9000, Database: "retail", User: "reader", Password: "p@ss/word"}
	assert.Equal(t, "clickhouse://reader:p%40ss%2Fword@ch:9000/retail", buildDSN(cfg))
}

func TestOptions(t *testing.T) {
	var cfg ClientConfig
	for _, opt := range []ClientOption{
		WithAddress("ch", 0),
		WithDatabase("retail"),
		WithPool(4, 2, 0),
		WithReadonly(true),
		WithMaxExecutionTime(30 * time.Second),
	} {
		opt(&cfg)
	}
	assert.Equal(t, "ch", cfg.Host)
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.Zero(t, cfg.ConnMaxLifetime)
	assert.True(t, cfg.Readonly)
	assert.Equal(t, "clickhouse://:@ch:0/retail?max_execution_time=30&readonly=2", buildDSN(cfg))
}
