package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"LotterySync/internal/model"
	"LotterySync/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImporter struct {
	rangeResult *model.RangeResult
	rangeOpts   service.RangeOptions
	outcomes    []model.GameOutcome
	gapGames    []string
	gapMax      int
	err         error
}

func (f *fakeImporter) ImportContest(_ context.Context, game string, n int) (*model.ContestResult, error) {
	return &model.ContestResult{Success: true, LotteryGame: game, ContestNumber: n, PrizesCount: 6}, f.err
}

func (f *fakeImporter) ImportGame(_ context.Context, game string) (*model.ContestResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.ContestResult{Success: true, LotteryGame: game, ContestNumber: 2900, PrizesCount: 6}, nil
}

func (f *fakeImporter) ImportAllContests(_ context.Context, _ string, opts service.RangeOptions) (*model.RangeResult, error) {
	f.rangeOpts = opts
	return f.rangeResult, f.err
}

func (f *fakeImporter) ImportMissingContests(context.Context, string, *int, *int) (*model.MissingResult, error) {
	return &model.MissingResult{Success: true, Message: "Nenhum concurso faltando"}, f.err
}

func (f *fakeImporter) ImportAllGames(context.Context) ([]model.GameOutcome, error) {
	return f.outcomes, f.err
}

func (f *fakeImporter) ImportGames(context.Context, []string) []model.GameOutcome {
	return f.outcomes
}

func (f *fakeImporter) ImportAllGamesAllContests(context.Context, service.RangeOptions) ([]model.GameOutcome, error) {
	return f.outcomes, f.err
}

func (f *fakeImporter) ImportGapFill(_ context.Context, games []string, max int) ([]model.GameOutcome, error) {
	f.gapGames, f.gapMax = games, max
	return f.outcomes, f.err
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--game", "megasena", "--history", "--from", "100"})
	require.NoError(t, err)
	assert.Equal(t, "megasena", opts.game)
	assert.True(t, opts.history)
	require.NotNil(t, opts.from)
	assert.Equal(t, 100, *opts.from)
	assert.Nil(t, opts.to)

	opts, err = parseFlags([]string{"--type", "gap-fill", "--games", "megasena,quina", "--max", "20"})
	require.NoError(t, err)
	assert.Equal(t, []string{"megasena", "quina"}, opts.games)
	assert.Equal(t, 20, opts.maxContests)

	_, err = parseFlags([]string{"--type", "weekly"})
	assert.Error(t, err)
	_, err = parseFlags([]string{"--missing"})
	assert.Error(t, err)
}

func TestRunHistoryPrintsCappedErrors(t *testing.T) {
	errs := make([]string, 0, 8)
	for i := 1; i <= 8; i++ {
		errs = append(errs, fmt.Sprintf("Concurso %d: timeout", i))
	}
	imp := &fakeImporter{rangeResult: &model.RangeResult{
		Success: true, LotteryGame: "quina", TotalContests: 20,
		RangeStart: 1, RangeEnd: 20, RangeTotal: 20,
		Imported: 10, Skipped: 2, Failed: 8, Errors: errs,
	}}
	opts, err := parseFlags([]string{"-g", "quina", "--history"})
	require.NoError(t, err)

	var out bytes.Buffer
	code := run(context.Background(), imp, opts, &out)
	assert.Equal(t, 1, code)
	assert.NotNil(t, imp.rangeOpts.Progress)
	assert.Contains(t, out.String(), "Concurso 5: timeout")
	assert.NotContains(t, out.String(), "Concurso 6: timeout")
	assert.Contains(t, out.String(), "... e mais 3 erros")
	assert.Contains(t, out.String(), "Taxa de sucesso: 60.00%")
}

func TestRunHistorySuccess(t *testing.T) {
	imp := &fakeImporter{rangeResult: &model.RangeResult{
		Success: true, LotteryGame: "quina", RangeStart: 1, RangeEnd: 3, RangeTotal: 3, Imported: 3, Errors: []string{},
	}}
	var out bytes.Buffer
	code := run(context.Background(), imp, &options{game: "quina", history: true}, &out)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Range importado: 1 até 3 (3 concursos)")
}

func TestRunScheduledLatestExitCode(t *testing.T) {
	imp := &fakeImporter{outcomes: []model.GameOutcome{
		{Game: "megasena", Contest: &model.ContestResult{Success: true, ContestNumber: 2900}},
		{Game: "quina", Error: "request failed"},
	}}
	var out bytes.Buffer
	code := run(context.Background(), imp, &options{importType: "latest"}, &out)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Falha ao importar quina")
	assert.Contains(t, out.String(), "Jogos com falha: 1")

	imp.outcomes = imp.outcomes[:1]
	out.Reset()
	assert.Equal(t, 0, run(context.Background(), imp, &options{importType: "latest", games: []string{"megasena"}}, &out))
}

func TestRunGapFill(t *testing.T) {
	imp := &fakeImporter{outcomes: []model.GameOutcome{
		{Game: "megasena", Range: &model.RangeResult{Success: true, RangeTotal: 11, Imported: 1, Skipped: 10}},
	}}
	var out bytes.Buffer
	code := run(context.Background(), imp, &options{importType: "gap-fill", games: []string{"megasena"}, maxContests: 10}, &out)
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"megasena"}, imp.gapGames)
	assert.Equal(t, 10, imp.gapMax)
}

func TestRunUnknownGame(t *testing.T) {
	imp := &fakeImporter{err: &model.UnknownGameError{Slug: "powerball", Available: []string{"megasena", "quina"}}}
	var out bytes.Buffer
	code := run(context.Background(), imp, &options{game: "powerball"}, &out)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Jogos disponíveis: megasena, quina")

	imp.err = errors.New("boom")
	out.Reset()
	assert.Equal(t, 1, run(context.Background(), imp, &options{all: true}, &out))
}
