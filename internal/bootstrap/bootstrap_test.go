package bootstrap

import (
	"context"
	"testing"

	"LotterySync/internal/config"
	"LotterySync/internal/queue"
	"LotterySync/internal/repository/testdb"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(source string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, Mode: "test"},
		Lottery: config.LotteryConfig{
			API: config.APIConfig{
				Provider:      "caixa",
				BaseURL:       "https://loteriascaixa-api.herokuapp.com/api",
				Timeout:       5,
				RetryAttempts: 3,
				NumbersMode:   "int",
			},
			Performance: config.PerformanceConfig{
				CacheTTL:    60,
				WorkerCount: 1,
				QueueName:   "lottery-import",
				QueueSize:   8,
			},
			Generator: config.GeneratorConfig{SessionLimit: 20, MaxPerRequest: 20},
			Games: config.GamesConfig{
				Source:  source,
				Catalog: []config.GameEntry{{Slug: "megasena", Name: "Mega-Sena"}, {Slug: "quina", Name: "Quina"}},
				Shapes:  config.DefaultShapes(),
			},
		},
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestBuildWithDatabaseCatalogAndRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	app, err := Build(ctx, testConfig("database"), testdb.New(t), rdb, quietLogger())
	require.NoError(t, err)

	games, err := app.Catalog.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"megasena", "quina"}, games)

	ok, err := app.Catalog.Exists(ctx, "quina")
	require.NoError(t, err)
	assert.True(t, ok)

	_, isRedis := app.Queue.(*queue.RedisQueue)
	assert.True(t, isRedis)
	assert.Equal(t, []string{"megasena", "lotofacil", "quina"}, app.Generator.SupportedGames())
}

func TestBuildWithStaticCatalogInMemory(t *testing.T) {
	ctx := context.Background()
	app, err := Build(ctx, testConfig("static"), testdb.New(t), nil, quietLogger())
	require.NoError(t, err)

	_, isMemory := app.Queue.(*queue.MemoryQueue)
	assert.True(t, isMemory)

	ok, err := app.Store.GameExists(ctx, "megasena")
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := app.Catalog.Exists(ctx, "megasena")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBuildUnknownProvider(t *testing.T) {
	cfg := testConfig("static")
	cfg.Lottery.API.Provider = "sorteonline"
	_, err := Build(context.Background(), cfg, testdb.New(t), nil, quietLogger())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("release").GetLevel())
}
