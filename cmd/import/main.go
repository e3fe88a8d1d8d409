package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"LotterySync/internal/bootstrap"
	"LotterySync/internal/config"
	"LotterySync/internal/model"
	"LotterySync/internal/service"

	"github.com/spf13/pflag"
)

// importer 命令行用到的导入操作
type importer interface {
	ImportContest(ctx context.Context, game string, drawNumber int) (*model.ContestResult, error)
	ImportGame(ctx context.Context, game string) (*model.ContestResult, error)
	ImportAllContests(ctx context.Context, game string, opts service.RangeOptions) (*model.RangeResult, error)
	ImportMissingContests(ctx context.Context, game string, from, to *int) (*model.MissingResult, error)
	ImportAllGames(ctx context.Context) ([]model.GameOutcome, error)
	ImportGames(ctx context.Context, games []string) []model.GameOutcome
	ImportAllGamesAllContests(ctx context.Context, opts service.RangeOptions) ([]model.GameOutcome, error)
	ImportGapFill(ctx context.Context, games []string, maxContests int) ([]model.GameOutcome, error)
}

type options struct {
	configPath  string
	game        string
	all         bool
	history     bool
	missing     bool
	contest     int
	from        *int
	to          *int
	importType  string
	games       []string
	maxContests int
}

func parseFlags(args []string) (*options, error) {
	fs := pflag.NewFlagSet("import", pflag.ContinueOnError)
	opts := &options{}
	var from, to int
	fs.StringVar(&opts.configPath, "config", "", "配置文件路径（默认 ./config/config.yaml）")
	fs.StringVarP(&opts.game, "game", "g", "", "游戏，如 megasena、lotofacil")
	fs.BoolVar(&opts.all, "all", false, "导入全部游戏的全部历史")
	fs.BoolVar(&opts.history, "history", false, "导入 --game 的历史开奖（配合 --from/--to）")
	fs.BoolVar(&opts.missing, "missing", false, "只导入 --game 缺失的期次")
	fs.IntVar(&opts.contest, "contest", 0, "只导入 --game 的指定一期")
	fs.IntVar(&from, "from", 1, "起始期号")
	fs.IntVar(&to, "to", 0, "结束期号（默认最新一期）")
	fs.StringVar(&opts.importType, "type", "latest", "定时导入类型：latest | gap-fill")
	fs.StringSliceVar(&opts.games, "games", nil, "限定游戏，逗号分隔")
	fs.IntVar(&opts.maxContests, "max", 10, "gap-fill 回看的期数")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.Changed("from") {
		opts.from = &from
	}
	if fs.Changed("to") {
		opts.to = &to
	}
	if opts.importType != "latest" && opts.importType != "gap-fill" {
		return nil, fmt.Errorf("Tipo de importação inválido: %s", opts.importType)
	}
	if (opts.history || opts.missing || opts.contest > 0) && opts.game == "" {
		return nil, errors.New("--history/--missing/--contest 需要同时指定 --game")
	}
	return opts, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadConfig()
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}
	// 没有 Redis 时进程内队列无人消费，缺失期次改为直接导入
	if !cfg.Redis.Enabled {
		cfg.Lottery.Performance.BackgroundProcessing = false
	}
	logger := bootstrap.NewLogger(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		stop()
		logger.Fatalf("初始化失败: %v", err)
	}

	code := run(ctx, app.Importer, opts, os.Stdout)
	app.Close()
	stop()
	os.Exit(code)
}

// run 执行导入并输出汇总，返回退出码：全部成功 0，否则 1
func run(ctx context.Context, imp importer, opts *options, out io.Writer) int {
	switch {
	case opts.all:
		fmt.Fprintln(out, "🎯 Importando TODOS os jogos...")
		outcomes, err := imp.ImportAllGamesAllContests(ctx, service.RangeOptions{
			From:     opts.from,
			To:       opts.to,
			Progress: lineProgress(out),
		})
		if err != nil {
			return fatal(out, err)
		}
		return printOutcomes(out, outcomes)

	case opts.game != "" && opts.missing:
		res, err := imp.ImportMissingContests(ctx, opts.game, opts.from, opts.to)
		if err != nil {
			return fatal(out, err)
		}
		fmt.Fprintf(out, "🔎 %s: %d faltando, %d já existiam\n", opts.game, res.MissingCount, res.ExistingCount)
		fmt.Fprintln(out, res.Message)
		if res.JobID != "" {
			fmt.Fprintf(out, "🧾 Lote: %s\n", res.JobID)
		}
		if res.Range != nil {
			return printRange(out, res.Range)
		}
		return exitCode(res.Success)

	case opts.game != "" && opts.history:
		res, err := imp.ImportAllContests(ctx, opts.game, service.RangeOptions{
			From:     opts.from,
			To:       opts.to,
			Progress: lineProgress(out),
		})
		if err != nil {
			return fatal(out, err)
		}
		return printRange(out, res)

	case opts.game != "" && opts.contest > 0:
		res, err := imp.ImportContest(ctx, opts.game, opts.contest)
		return printContest(out, res, err)

	case opts.game != "":
		res, err := imp.ImportGame(ctx, opts.game)
		return printContest(out, res, err)
	}

	fmt.Fprintf(out, "🤖 Importação automática iniciada - Tipo: %s\n", opts.importType)
	var (
		outcomes []model.GameOutcome
		err      error
	)
	switch {
	case opts.importType == "gap-fill":
		outcomes, err = imp.ImportGapFill(ctx, opts.games, opts.maxContests)
	case len(opts.games) > 0:
		fmt.Fprintf(out, "📈 Importando últimos resultados dos jogos: %s\n", strings.Join(opts.games, ", "))
		outcomes = imp.ImportGames(ctx, opts.games)
	default:
		fmt.Fprintln(out, "📈 Importando últimos resultados de todos os jogos...")
		outcomes, err = imp.ImportAllGames(ctx)
	}
	if err != nil {
		return fatal(out, err)
	}
	return printOutcomes(out, outcomes)
}

func lineProgress(out io.Writer) model.ProgressFunc {
	return func(current, total int, r *model.ContestResult) {
		status := "✅"
		switch {
		case r == nil || !r.Success:
			status = "❌"
		case r.Skipped:
			status = "⏭️"
		}
		fmt.Fprintf(out, "  └─ %s Concurso %d/%d (%.1f%%)\n", status, current, total, float64(current)/float64(total)*100)
	}
}

func printContest(out io.Writer, res *model.ContestResult, err error) int {
	if err != nil {
		return fatal(out, err)
	}
	if res.AlreadyExisted {
		fmt.Fprintf(out, "⏭️ %s concurso %d já existe (%d faixas)\n", res.LotteryGame, res.ContestNumber, res.PrizesCount)
		return 0
	}
	fmt.Fprintf(out, "✅ %s concurso %d importado (%d faixas)\n", res.LotteryGame, res.ContestNumber, res.PrizesCount)
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  ⚠️ %s\n", w)
	}
	return 0
}

func printRange(out io.Writer, res *model.RangeResult) int {
	fmt.Fprintln(out, "✅ Importação concluída!")
	fmt.Fprintf(out, "🏆 Jogo: %s\n", res.LotteryGame)
	fmt.Fprintf(out, "📊 Range importado: %d até %d (%d concursos)\n", res.RangeStart, res.RangeEnd, res.RangeTotal)
	fmt.Fprintf(out, "📈 Total de concursos do jogo: %d\n", res.TotalContests)
	fmt.Fprintf(out, "✅ Importados com sucesso: %d\n", res.Imported)
	if res.Skipped > 0 {
		fmt.Fprintf(out, "⏭️ Já existiam: %d\n", res.Skipped)
	}
	if res.Failed > 0 {
		fmt.Fprintf(out, "❌ Falharam: %d\n", res.Failed)
		shown, more := res.SummaryErrors()
		if len(shown) > 0 {
			fmt.Fprintln(out, "Erros encontrados:")
			for _, e := range shown {
				fmt.Fprintf(out, "  • %s\n", e)
			}
			if more > 0 {
				fmt.Fprintf(out, "  • ... e mais %d erros\n", more)
			}
		}
	}
	if res.RangeTotal > 0 {
		rate := float64(res.Imported+res.Skipped) / float64(res.RangeTotal) * 100
		fmt.Fprintf(out, "📈 Taxa de sucesso: %.2f%%\n", rate)
	}
	return exitCode(res.Success && res.Failed == 0)
}

func printOutcomes(out io.Writer, outcomes []model.GameOutcome) int {
	for _, o := range outcomes {
		switch {
		case o.Error != "":
			fmt.Fprintf(out, "❌ Falha ao importar %s: %s\n", o.Game, o.Error)
		case o.Range != nil:
			fmt.Fprintf(out, "✅ %s: %d/%d concursos importados, %d já existiam\n", o.Game, o.Range.Imported, o.Range.RangeTotal, o.Range.Skipped)
			if o.Range.Failed > 0 {
				fmt.Fprintf(out, "⚠️ %d concursos falharam para %s\n", o.Range.Failed, o.Game)
			}
		case o.Contest != nil:
			fmt.Fprintf(out, "✅ %s: concurso %d\n", o.Game, o.Contest.ContestNumber)
		}
	}
	succeeded, failed := service.SummarizeOutcomes(outcomes)
	fmt.Fprintln(out, "📊 RELATÓRIO FINAL DA IMPORTAÇÃO:")
	fmt.Fprintf(out, "  Jogos processados: %d\n", len(outcomes))
	fmt.Fprintf(out, "  Jogos bem-sucedidos: %d\n", succeeded)
	fmt.Fprintf(out, "  Jogos com falha: %d\n", failed)
	return exitCode(failed == 0)
}

func fatal(out io.Writer, err error) int {
	var unknown *model.UnknownGameError
	if errors.As(err, &unknown) && len(unknown.Available) > 0 {
		fmt.Fprintf(out, "❌ Jogo '%s' não disponível. Jogos disponíveis: %s\n", unknown.Slug, strings.Join(unknown.Available, ", "))
		return 1
	}
	fmt.Fprintf(out, "❌ Falha na importação: %v\n", err)
	return 1
}

func exitCode(ok bool) int {
	if ok {
		return 0
	}
	return 1
}
