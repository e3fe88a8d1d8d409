package service

import (
	"context"
	"fmt"
	"time"

	"LotterySync/internal/config"
	"LotterySync/internal/interfaces"
	"LotterySync/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RangeOptions 区间导入参数，From/To 为空表示 1 与最新期
type RangeOptions struct {
	From *int
	To   *int
	// LastN 大于 0 时导入 [latest-LastN, latest]，忽略 From
	LastN int
	// Progress 每处理一期（含跳过）同步回调一次
	Progress model.ProgressFunc
	// Events 非空时每期发送一个进度事件，调用方负责消费
	Events chan<- model.ProgressEvent
}

// ImportService 开奖导入编排：单期、区间、全部游戏、缺失补齐
type ImportService struct {
	client     interfaces.LotteryClient
	normalizer interfaces.DrawNormalizer
	store      interfaces.LotteryStore
	catalog    interfaces.GameCatalog
	queue      interfaces.TaskQueue
	perf       config.PerformanceConfig
	logger     *logrus.Logger

	sleep    func(ctx context.Context, d time.Duration)
	newJobID func() string
}

var _ interfaces.ContestImporter = (*ImportService)(nil)

func NewImportService(
	client interfaces.LotteryClient,
	normalizer interfaces.DrawNormalizer,
	store interfaces.LotteryStore,
	catalog interfaces.GameCatalog,
	queue interfaces.TaskQueue,
	perf config.PerformanceConfig,
	logger *logrus.Logger,
) *ImportService {
	return &ImportService{
		client:     client,
		normalizer: normalizer,
		store:      store,
		catalog:    catalog,
		queue:      queue,
		perf:       perf,
		logger:     logger,
		sleep:      sleepCtx,
		newJobID:   uuid.NewString,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// AvailableGames 当前目录中的全部游戏
func (s *ImportService) AvailableGames(ctx context.Context) ([]string, error) {
	return s.catalog.List(ctx)
}

func (s *ImportService) ensureGame(ctx context.Context, game string) error {
	ok, err := s.catalog.Exists(ctx, game)
	if err != nil {
		return fmt.Errorf("查询游戏%s失败: %w", game, err)
	}
	if ok {
		return nil
	}
	available, err := s.catalog.List(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("获取游戏列表失败")
	}
	return &model.UnknownGameError{Slug: game, Available: available}
}

// ImportContest 导入单期；已存在则直接返回，不重新拉取也不重写
func (s *ImportService) ImportContest(ctx context.Context, game string, drawNumber int) (*model.ContestResult, error) {
	entry := s.logger.WithFields(logrus.Fields{"game": game, "contest": drawNumber})
	entry.Debug("Validating")
	if err := s.ensureGame(ctx, game); err != nil {
		return nil, err
	}

	existing, err := s.store.FindDraw(ctx, game, drawNumber)
	if err != nil {
		return nil, fmt.Errorf("查询开奖%s/%d失败: %w", game, drawNumber, err)
	}
	if existing != nil {
		count, err := s.store.CountPrizes(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("统计奖级失败: %w", err)
		}
		entry.Debug("开奖已存在，跳过拉取")
		return &model.ContestResult{
			Success:        true,
			LotteryGame:    game,
			ContestNumber:  drawNumber,
			PrizesCount:    count,
			AlreadyExisted: true,
			Message:        "Concurso já existe",
		}, nil
	}

	return s.fetchAndStore(ctx, game, drawNumber)
}

// fetchAndStore 拉取指定期并在一个事务内写入游戏、开奖与奖级
func (s *ImportService) fetchAndStore(ctx context.Context, game string, drawNumber int) (*model.ContestResult, error) {
	result := &model.ContestResult{LotteryGame: game, ContestNumber: drawNumber}
	entry := s.logger.WithFields(logrus.Fields{"game": game, "contest": drawNumber})

	entry.Debug("Importing")
	raw, err := s.client.FetchByNumber(ctx, game, drawNumber)
	if err != nil {
		return fail(entry, result, err)
	}
	got, err := concursoOf(raw)
	if err != nil {
		return fail(entry, result, err)
	}
	if got != drawNumber {
		return fail(entry, result, &model.MalformedPayloadError{
			Reason: fmt.Sprintf("concurso %d returned for request %d", got, drawNumber),
		})
	}
	return s.persist(ctx, entry, result, game, raw)
}

func (s *ImportService) persist(ctx context.Context, entry *logrus.Entry, result *model.ContestResult, game string, raw *model.RawDraw) (*model.ContestResult, error) {
	converted, err := s.normalizer.ConvertToDBModel(raw)
	if err != nil {
		return fail(entry, result, err)
	}
	if converted.Game.Slug != game {
		entry.WithField("loteria", raw.Loteria).Warn("数据源返回的游戏与请求不一致，按请求的游戏入库")
	}

	err = s.store.Transaction(ctx, func(tx interfaces.LotteryStore) error {
		g, err := tx.UpsertGame(ctx, game, converted.Game.Name)
		if err != nil {
			return err
		}
		converted.Draw.GameID = g.ID
		if err := tx.UpsertDraw(ctx, converted.Draw); err != nil {
			return err
		}
		return tx.ReplacePrizes(ctx, converted.Draw.ID, converted.Prizes)
	})
	if err != nil {
		return fail(entry, result, fmt.Errorf("保存开奖失败: %w", err))
	}

	result.Success = true
	result.ContestNumber = converted.Draw.DrawNumber
	result.PrizesCount = int64(len(converted.Prizes))
	result.Message = "Concurso importado com sucesso"
	for _, w := range converted.Warnings {
		result.Warnings = append(result.Warnings, w.Error())
	}
	entry.WithField("prizes", result.PrizesCount).Info("Success")
	return result, nil
}

func fail(entry *logrus.Entry, result *model.ContestResult, err error) (*model.ContestResult, error) {
	result.Success = false
	result.Error = err.Error()
	entry.WithError(err).Warn("Failed")
	return result, err
}

// ImportGame 导入数据源最新一期，已存在时覆盖为最新数据
func (s *ImportService) ImportGame(ctx context.Context, game string) (*model.ContestResult, error) {
	if err := s.ensureGame(ctx, game); err != nil {
		return nil, err
	}
	entry := s.logger.WithField("game", game)
	entry.Debug("FetchingLatest")
	result := &model.ContestResult{LotteryGame: game}
	raw, err := s.client.FetchLatest(ctx, game)
	if err != nil {
		return fail(entry, result, err)
	}
	n, err := concursoOf(raw)
	if err != nil {
		return fail(entry, result, err)
	}
	result.ContestNumber = n
	return s.persist(ctx, entry.WithField("contest", n), result, game, raw)
}

// ImportAllContests 按区间导入历史，只有获取最新期失败才中止
func (s *ImportService) ImportAllContests(ctx context.Context, game string, opts RangeOptions) (*model.RangeResult, error) {
	if err := s.ensureGame(ctx, game); err != nil {
		return nil, err
	}
	latest, err := s.latestNumber(ctx, game)
	if err != nil {
		return nil, err
	}
	from, to, err := clampRange(opts, latest)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.ExistingDrawNumbers(ctx, game, from, to)
	if err != nil {
		return nil, fmt.Errorf("查询已存在期号失败: %w", err)
	}
	return s.importRange(ctx, game, latest, from, to, existing, opts)
}

func (s *ImportService) latestNumber(ctx context.Context, game string) (int, error) {
	s.logger.WithField("game", game).Debug("FetchingLatest")
	raw, err := s.client.FetchLatest(ctx, game)
	if err != nil {
		return 0, fmt.Errorf("获取%s最新期号失败: %w", game, err)
	}
	n, err := concursoOf(raw)
	if err != nil {
		return 0, fmt.Errorf("获取%s最新期号失败: %w", game, err)
	}
	return n, nil
}

func concursoOf(raw *model.RawDraw) (int, error) {
	if raw == nil || raw.Concurso == nil {
		return 0, &model.MalformedPayloadError{Reason: "missing field concurso"}
	}
	return *raw.Concurso, nil
}

// clampRange 将请求区间截断到 [1, latest]
func clampRange(opts RangeOptions, latest int) (int, int, error) {
	from, to := 1, latest
	if opts.LastN > 0 {
		from = latest - opts.LastN
	} else if opts.From != nil {
		from = *opts.From
	}
	if opts.To != nil {
		to = *opts.To
	}
	if from < 1 {
		from = 1
	}
	if to > latest {
		to = latest
	}
	if from > to {
		return 0, 0, &model.InvalidRangeError{From: from, To: to}
	}
	return from, to, nil
}

func (s *ImportService) importRange(ctx context.Context, game string, latest, from, to int, existing map[int]struct{}, opts RangeOptions) (*model.RangeResult, error) {
	total := to - from + 1
	res := &model.RangeResult{
		LotteryGame:   game,
		TotalContests: latest,
		RangeStart:    from,
		RangeEnd:      to,
		RangeTotal:    total,
		Errors:        []string{},
	}
	entry := s.logger.WithField("game", game)
	entry.WithFields(logrus.Fields{
		"from":     from,
		"to":       to,
		"existing": len(existing),
	}).Info("ComputingRange")

	delay := s.perf.RequestDelayDuration()
	for n := from; n <= to; n++ {
		if err := ctx.Err(); err != nil {
			entry.WithField("contest", n).Warn("区间导入被取消")
			return res, err
		}
		current := n - from + 1

		if _, ok := existing[n]; ok {
			res.Skipped++
			s.report(ctx, opts, game, current, total, &model.ContestResult{
				Success:        true,
				LotteryGame:    game,
				ContestNumber:  n,
				AlreadyExisted: true,
				Skipped:        true,
				Message:        "Concurso já existe",
			})
			continue
		}

		cr, err := s.fetchAndStore(ctx, game, n)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("Concurso %d: %v", n, err))
		} else {
			res.Imported++
		}
		s.report(ctx, opts, game, current, total, cr)
		// 最后一期后不再限速等待
		if n < to {
			s.sleep(ctx, delay)
		}
	}

	res.Success = true
	entry.WithFields(logrus.Fields{
		"imported": res.Imported,
		"skipped":  res.Skipped,
		"failed":   res.Failed,
	}).Info("区间导入完成")
	return res, nil
}

func (s *ImportService) report(ctx context.Context, opts RangeOptions, game string, current, total int, cr *model.ContestResult) {
	if opts.Progress != nil {
		opts.Progress(current, total, cr)
	}
	if opts.Events != nil {
		select {
		case opts.Events <- model.ProgressEvent{Game: game, Current: current, Total: total, Result: cr}:
		case <-ctx.Done():
		}
	}
}

// ImportAllGames 每个游戏导入最新一期，单个游戏失败不影响其余
func (s *ImportService) ImportAllGames(ctx context.Context) ([]model.GameOutcome, error) {
	games, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取游戏列表失败: %w", err)
	}
	return s.ImportGames(ctx, games), nil
}

// ImportGames 指定游戏各导入最新一期
func (s *ImportService) ImportGames(ctx context.Context, games []string) []model.GameOutcome {
	return s.eachGame(ctx, games, func(game string, out *model.GameOutcome) error {
		cr, err := s.ImportGame(ctx, game)
		out.Contest = cr
		return err
	})
}

// ImportAllGamesAllContests 每个游戏导入全部历史
func (s *ImportService) ImportAllGamesAllContests(ctx context.Context, opts RangeOptions) ([]model.GameOutcome, error) {
	games, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取游戏列表失败: %w", err)
	}
	return s.eachGame(ctx, games, func(game string, out *model.GameOutcome) error {
		rr, err := s.ImportAllContests(ctx, game, opts)
		out.Range = rr
		return err
	}), nil
}

// ImportGapFill 每个游戏补齐 [latest-maxContests, latest]，已存在的期直接跳过；games 为空时取全部游戏
func (s *ImportService) ImportGapFill(ctx context.Context, games []string, maxContests int) ([]model.GameOutcome, error) {
	if maxContests <= 0 {
		maxContests = 10
	}
	if len(games) == 0 {
		list, err := s.catalog.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("获取游戏列表失败: %w", err)
		}
		games = list
	}
	return s.eachGame(ctx, games, func(game string, out *model.GameOutcome) error {
		rr, err := s.ImportAllContests(ctx, game, RangeOptions{LastN: maxContests})
		out.Range = rr
		return err
	}), nil
}

// eachGame 逐个游戏执行，错误与 panic 都记为该游戏失败
func (s *ImportService) eachGame(ctx context.Context, games []string, run func(game string, out *model.GameOutcome) error) []model.GameOutcome {
	outcomes := make([]model.GameOutcome, 0, len(games))
	for _, game := range games {
		if ctx.Err() != nil {
			outcomes = append(outcomes, model.GameOutcome{Game: game, Error: ctx.Err().Error()})
			continue
		}
		out := model.GameOutcome{Game: game}
		func() {
			defer func() {
				if p := recover(); p != nil {
					out.Error = fmt.Sprintf("panic: %v", p)
					s.logger.WithField("game", game).Errorf("导入游戏panic: %v", p)
				}
			}()
			if err := run(game, &out); err != nil {
				out.Error = err.Error()
				s.logger.WithError(err).WithField("game", game).Warn("游戏导入失败，继续下一个")
			}
		}()
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// ImportMissingContests 计算缺失期号；超过阈值且开启后台处理时入队并立即返回批次号
func (s *ImportService) ImportMissingContests(ctx context.Context, game string, from, to *int) (*model.MissingResult, error) {
	if err := s.ensureGame(ctx, game); err != nil {
		return nil, err
	}
	latest, err := s.latestNumber(ctx, game)
	if err != nil {
		return nil, err
	}
	start, end, err := clampRange(RangeOptions{From: from, To: to}, latest)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.ExistingDrawNumbers(ctx, game, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询已存在期号失败: %w", err)
	}

	missing := make([]int, 0, end-start+1-len(existing))
	for n := start; n <= end; n++ {
		if _, ok := existing[n]; !ok {
			missing = append(missing, n)
		}
	}
	res := &model.MissingResult{MissingCount: len(missing), ExistingCount: len(existing)}
	if len(missing) == 0 {
		res.Success = true
		res.Message = "Nenhum concurso faltando"
		return res, nil
	}

	if s.perf.BackgroundProcessing && s.queue != nil && len(missing) > s.perf.BackgroundThreshold {
		jobID := s.newJobID()
		tasks := make([]model.ImportTask, 0, len(missing))
		for _, n := range missing {
			tasks = append(tasks, model.ImportTask{JobID: jobID, Game: game, ContestNumber: n})
		}
		if err := s.queue.Enqueue(ctx, tasks...); err != nil {
			return nil, fmt.Errorf("提交后台导入任务失败: %w", err)
		}
		s.logger.WithFields(logrus.Fields{
			"game":    game,
			"job_id":  jobID,
			"missing": len(missing),
		}).Info("缺失期次已提交后台处理")
		res.Success = true
		res.JobID = jobID
		res.Message = fmt.Sprintf("%d concursos enviados para processamento em segundo plano", len(missing))
		return res, nil
	}

	rr, err := s.importRange(ctx, game, latest, start, end, existing, RangeOptions{})
	res.Range = rr
	if err != nil {
		return res, err
	}
	res.Success = rr.Failed == 0
	res.Message = fmt.Sprintf("%d importados, %d falharam", rr.Imported, rr.Failed)
	return res, nil
}
