package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"LotterySync/internal/adapter/caixa"
	"LotterySync/internal/cache"
	"LotterySync/internal/config"
	"LotterySync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShapes() []config.GameShape {
	return []config.GameShape{
		{Slug: "megasena", TotalNumbers: 60, PickCount: 6, MinNumber: 1, MaxNumber: 60},
		{Slug: "lotofacil", TotalNumbers: 25, PickCount: 15, MinNumber: 1, MaxNumber: 25},
		{Slug: "quina", TotalNumbers: 80, PickCount: 5, MinNumber: 1, MaxNumber: 80},
	}
}

func newGenerator(t *testing.T, f *fixture) *GeneratorService {
	t.Helper()
	mem := cache.NewMemoryCache()
	return NewGeneratorService(
		testShapes(),
		f.repo,
		mem,
		mem,
		config.GeneratorConfig{SessionLimit: 20, MaxPerRequest: 10},
		rand.New(rand.NewSource(42)),
		quietLogger(),
	)
}

func TestGenerateSmartGamesShape(t *testing.T) {
	f := newFixture(t, caixa.NumbersModeInt, nil)
	g := newGenerator(t, f)

	for _, sh := range testShapes() {
		games, err := g.GenerateSmartGames(context.Background(), sh.Slug, 20)
		require.NoError(t, err)
		require.Len(t, games, 20)
		for _, pick := range games {
			require.Len(t, pick, sh.PickCount)
			assert.True(t, sort.IntsAreSorted(pick))
			seen := map[int]bool{}
			for _, n := range pick {
				assert.GreaterOrEqual(t, n, sh.MinNumber)
				assert.LessOrEqual(t, n, sh.MaxNumber)
				assert.False(t, seen[n], "duplicated %d in %v", n, pick)
				seen[n] = true
			}
			assert.True(t, g.ValidateGame(sh.Slug, pick).Valid)
		}
	}
}

func TestNewGeneratorServiceIgnoresUndersizedPool(t *testing.T) {
	f := newFixture(t, caixa.NumbersModeInt, nil)
	shapes := append(testShapes(), config.GameShape{Slug: "duplasena", TotalNumbers: 60, PickCount: 6, MinNumber: 1, MaxNumber: 3})
	mem := cache.NewMemoryCache()
	g := NewGeneratorService(shapes, f.repo, mem, mem, config.GeneratorConfig{SessionLimit: 20, MaxPerRequest: 10},
		rand.New(rand.NewSource(1)), quietLogger())

	assert.Equal(t, []string{"megasena", "lotofacil", "quina"}, g.SupportedGames())
	_, ok := g.GameConfig("duplasena")
	assert.False(t, ok)

	_, err := g.GenerateSmartGames(context.Background(), "duplasena", 1)
	var unknown *model.UnknownGameError
	assert.True(t, errors.As(err, &unknown))
}

func TestGenerateSmartGamesUnknownGame(t *testing.T) {
	f := newFixture(t, caixa.NumbersModeInt, nil)
	g := newGenerator(t, f)

	_, err := g.GenerateSmartGames(context.Background(), "powerball", 1)
	var unknown *model.UnknownGameError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"megasena", "lotofacil", "quina"}, unknown.Available)
}

func TestGenerateSmartGamesAvoidsRecentNumbers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, caixa.NumbersModeInt, nil)
	f.client.latest["megasena"] = 10
	recent := make(model.NumberList, 0, 30)
	for n := 1; n <= 30; n++ {
		recent = append(recent, fmt.Sprintf("%02d", n))
	}
	f.client.dezenas = recent
	_, err := f.svc.ImportAllContests(ctx, "megasena", RangeOptions{})
	require.NoError(t, err)

	g := newGenerator(t, f)
	games, err := g.GenerateSmartGames(ctx, "megasena", 50)
	require.NoError(t, err)
	limit := MaxOverlap(6)
	assert.Equal(t, 3, limit)
	for _, pick := range games {
		overlap := 0
		for _, n := range pick {
			if n <= 30 {
				overlap++
			}
		}
		assert.LessOrEqual(t, overlap, limit, "pick %v", pick)
	}
}

func TestMaxOverlap(t *testing.T) {
	assert.Equal(t, 2, MaxOverlap(5))
	assert.Equal(t, 3, MaxOverlap(6))
	assert.Equal(t, 6, MaxOverlap(15))
	assert.Equal(t, 8, MaxOverlap(20))
}

func TestRecentWinningNumbersIsCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, caixa.NumbersModeString, nil)
	f.client.latest["quina"] = 3
	f.client.dezenas = model.NumberList{"10", "02", "33", "41", "07"}
	_, err := f.svc.ImportContest(ctx, "quina", 1)
	require.NoError(t, err)

	g := newGenerator(t, f)
	first, err := g.RecentWinningNumbers(ctx, "quina")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 7, 10, 33, 41}, first)

	f.client.dezenas = model.NumberList{"70", "71", "72", "73", "74"}
	_, err = f.svc.ImportContest(ctx, "quina", 2)
	require.NoError(t, err)

	second, err := g.RecentWinningNumbers(ctx, "quina")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidateGame(t *testing.T) {
	f := newFixture(t, caixa.NumbersModeInt, nil)
	g := newGenerator(t, f)

	tests := []struct {
		name    string
		game    string
		numbers []int
		errs    []string
	}{
		{"valid", "megasena", []int{1, 2, 3, 4, 5, 60}, nil},
		{"wrong count", "megasena", []int{1, 2, 3}, []string{"O jogo deve ter exatamente 6 números"}},
		{"out of range", "megasena", []int{0, 2, 3, 4, 5, 61}, []string{"Números devem estar entre 1 e 60"}},
		{"duplicated", "quina", []int{1, 1, 2, 3, 4}, []string{"Não é permitido números duplicados"}},
		{"everything wrong", "quina", []int{90, 90}, []string{
			"O jogo deve ter exatamente 5 números",
			"Números devem estar entre 1 e 80",
			"Não é permitido números duplicados",
		}},
		{"unsupported", "powerball", []int{1}, []string{"Jogo 'powerball' não suportado"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.ValidateGame(tt.game, tt.numbers)
			assert.Equal(t, len(tt.errs) == 0, res.Valid)
			if len(tt.errs) == 0 {
				assert.Empty(t, res.Errors)
				return
			}
			assert.Equal(t, tt.errs, res.Errors)
		})
	}
}

func TestGenerateForClientEnforcesDailyQuota(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, caixa.NumbersModeInt, nil)
	g := newGenerator(t, f)

	res, err := g.GenerateForClient(ctx, "megasena", 10, "10.0.0.1")
	require.NoError(t, err)
	assert.Len(t, res.Games, 10)
	assert.Equal(t, 10, res.SessionStats.GeneratedToday)
	assert.Equal(t, 6, res.Config.PickCount)

	_, err = g.GenerateForClient(ctx, "megasena", 5, "10.0.0.1")
	require.NoError(t, err)

	_, err = g.GenerateForClient(ctx, "megasena", 6, "10.0.0.1")
	var quota *model.QuotaExceededError
	require.True(t, errors.As(err, &quota))
	assert.Equal(t, 15, quota.Generated)
	assert.Equal(t, 5, quota.Remaining())
	assert.Equal(t, "Limite de 20 jogos por sessão excedido", quota.Error())

	stats, err := g.SessionStats(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStats{GeneratedToday: 15, Remaining: 5, DailyLimit: 20}, stats)

	other, err := g.SessionStats(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.Zero(t, other.GeneratedToday)

	g.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	tomorrow, err := g.SessionStats(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Zero(t, tomorrow.GeneratedToday)
}

func TestGenerateForClientRejectsBadCount(t *testing.T) {
	f := newFixture(t, caixa.NumbersModeInt, nil)
	g := newGenerator(t, f)

	for _, count := range []int{0, -1, 11} {
		_, err := g.GenerateForClient(context.Background(), "quina", count, "127.0.0.1")
		var verr *model.ValidationError
		assert.True(t, errors.As(err, &verr), "count %d", count)
	}
}
