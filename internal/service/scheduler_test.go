package service

import (
	"context"
	"errors"
	"testing"

	"LotterySync/internal/adapter/caixa"
	"LotterySync/internal/config"
	"LotterySync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRegister(t *testing.T) {
	f := newFixture(t, caixa.NumbersModeInt, nil)

	s := NewScheduler(f.svc, config.SchedulingConfig{
		DailyImport:        "0 22 * * *",
		WeeklyGapFill:      "0 3 * * 0",
		MiddayPopular:      "0 12 * * *",
		GapFillMaxContests: 50,
		PopularGames:       []string{"megasena"},
	}, quietLogger())
	require.NoError(t, s.Register(context.Background()))
	assert.Equal(t, 3, s.Entries())

	partial := NewScheduler(f.svc, config.SchedulingConfig{DailyImport: "0 22 * * *"}, quietLogger())
	require.NoError(t, partial.Register(context.Background()))
	assert.Equal(t, 1, partial.Entries())

	bad := NewScheduler(f.svc, config.SchedulingConfig{DailyImport: "every day"}, quietLogger())
	assert.Error(t, bad.Register(context.Background()))
}

func TestSchedulerRunJobImportsPopularGames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, caixa.NumbersModeInt, nil)
	f.client.latest["megasena"] = 7
	s := NewScheduler(f.svc, config.SchedulingConfig{PopularGames: []string{"megasena"}}, quietLogger())

	s.runJob(ctx, "popular-games-midday", func(ctx context.Context) ([]model.GameOutcome, error) {
		return s.importer.ImportGames(ctx, s.cfg.PopularGames), nil
	})
	exists, err := f.repo.DrawExists(ctx, "megasena", 7)
	require.NoError(t, err)
	assert.True(t, exists)

	s.runJob(ctx, "broken", func(context.Context) ([]model.GameOutcome, error) {
		return nil, errors.New("boom")
	})
}
