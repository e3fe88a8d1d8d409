package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"LotterySync/internal/config"
	"LotterySync/internal/interfaces"
	"LotterySync/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	recentDrawsWindow  = 10
	recentNumbersTTL   = time.Hour
	maxOverlapRatio    = 0.4
	maxGenerateAttempt = 100
)

// GeneratorService 智能选号：随机生成并尽量避开最近开出的号码
type GeneratorService struct {
	shapes  map[string]model.GameShape
	order   []string
	store   interfaces.LotteryStore
	cache   interfaces.Cache
	counter interfaces.Counter
	limits  config.GeneratorConfig
	logger  *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewGeneratorService rng 为空时使用当前时间做种子
func NewGeneratorService(
	shapes []config.GameShape,
	store interfaces.LotteryStore,
	cache interfaces.Cache,
	counter interfaces.Counter,
	limits config.GeneratorConfig,
	rng *rand.Rand,
	logger *logrus.Logger,
) *GeneratorService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &GeneratorService{
		shapes:  make(map[string]model.GameShape, len(shapes)),
		store:   store,
		cache:   cache,
		counter: counter,
		limits:  limits,
		logger:  logger,
		rng:     rng,
		now:     time.Now,
	}
	for _, sh := range shapes {
		if _, dup := s.shapes[sh.Slug]; dup {
			continue
		}
		if sh.PickCount < 1 || sh.MaxNumber-sh.MinNumber+1 < sh.PickCount {
			logger.WithFields(logrus.Fields{
				"game":       sh.Slug,
				"pick_count": sh.PickCount,
				"min_number": sh.MinNumber,
				"max_number": sh.MaxNumber,
			}).Error("号码池不足以选出 pick_count 个号码，忽略该游戏")
			continue
		}
		s.order = append(s.order, sh.Slug)
		s.shapes[sh.Slug] = model.GameShape{
			Slug:         sh.Slug,
			TotalNumbers: sh.TotalNumbers,
			PickCount:    sh.PickCount,
			MinNumber:    sh.MinNumber,
			MaxNumber:    sh.MaxNumber,
		}
	}
	return s
}

// SupportedGames 支持选号的游戏，按配置顺序
func (s *GeneratorService) SupportedGames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *GeneratorService) GameConfig(game string) (model.GameShape, bool) {
	sh, ok := s.shapes[game]
	return sh, ok
}

// DailyLimit 每个客户端每天可生成的数量
func (s *GeneratorService) DailyLimit() int {
	return s.limits.SessionLimit
}

// ValidateGame 返回全部违规项；范围检查遇到第一个越界号码即停止
func (s *GeneratorService) ValidateGame(game string, numbers []int) model.ValidationResult {
	sh, ok := s.shapes[game]
	if !ok {
		return model.ValidationResult{Valid: false, Errors: []string{fmt.Sprintf("Jogo '%s' não suportado", game)}}
	}
	errs := make([]string, 0)
	if len(numbers) != sh.PickCount {
		errs = append(errs, fmt.Sprintf("O jogo deve ter exatamente %d números", sh.PickCount))
	}
	for _, n := range numbers {
		if n < sh.MinNumber || n > sh.MaxNumber {
			errs = append(errs, fmt.Sprintf("Números devem estar entre %d e %d", sh.MinNumber, sh.MaxNumber))
			break
		}
	}
	seen := make(map[int]struct{}, len(numbers))
	for _, n := range numbers {
		if _, dup := seen[n]; dup {
			errs = append(errs, "Não é permitido números duplicados")
			break
		}
		seen[n] = struct{}{}
	}
	return model.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// GenerateSmartGames 生成 count 注号码，每注升序
func (s *GeneratorService) GenerateSmartGames(ctx context.Context, game string, count int) ([][]int, error) {
	sh, ok := s.shapes[game]
	if !ok {
		return nil, &model.UnknownGameError{Slug: game, Available: s.SupportedGames()}
	}
	if count < 1 {
		count = 1
	}
	recent, err := s.RecentWinningNumbers(ctx, game)
	if err != nil {
		return nil, err
	}
	recentSet := make(map[int]struct{}, len(recent))
	for _, n := range recent {
		recentSet[n] = struct{}{}
	}

	games := make([][]int, 0, count)
	for i := 0; i < count; i++ {
		games = append(games, s.generateSingle(sh, recentSet))
	}
	return games, nil
}

// MaxOverlap 与最近号码的最大重合数：ceil(pick_count * 0.4)
func MaxOverlap(pickCount int) int {
	return int(math.Ceil(float64(pickCount) * maxOverlapRatio))
}

// generateSingle 重合过多则重试，100 次后接受最后一注
func (s *GeneratorService) generateSingle(sh model.GameShape, recent map[int]struct{}) []int {
	limit := MaxOverlap(sh.PickCount)
	var pick []int
	for attempt := 1; attempt <= maxGenerateAttempt; attempt++ {
		pick = s.randomPick(sh)
		overlap := 0
		for _, n := range pick {
			if _, ok := recent[n]; ok {
				overlap++
			}
		}
		if overlap <= limit {
			break
		}
	}
	sort.Ints(pick)
	return pick
}

func (s *GeneratorService) randomPick(sh model.GameShape) []int {
	pool := make([]int, 0, sh.MaxNumber-sh.MinNumber+1)
	for n := sh.MinNumber; n <= sh.MaxNumber; n++ {
		pool = append(pool, n)
	}
	s.mu.Lock()
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	s.mu.Unlock()
	pick := make([]int, sh.PickCount)
	copy(pick, pool[:sh.PickCount])
	return pick
}

func recentNumbersKey(game string) string {
	return "recent_winning_numbers_" + game
}

// RecentWinningNumbers 最近 10 期开出号码的并集，缓存 1 小时
func (s *GeneratorService) RecentWinningNumbers(ctx context.Context, game string) ([]int, error) {
	var numbers []int
	err := s.cache.GetOrCompute(ctx, recentNumbersKey(game), recentNumbersTTL, &numbers, func(ctx context.Context) (any, error) {
		draws, err := s.store.RecentDraws(ctx, game, recentDrawsWindow)
		if err != nil {
			return nil, err
		}
		set := make(map[int]struct{})
		for _, d := range draws {
			nums, err := model.ParseNumbers(d.Numbers)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"game":    game,
					"contest": d.DrawNumber,
				}).Warn("开奖号码无法解析，忽略")
				continue
			}
			for _, n := range nums {
				set[n] = struct{}{}
			}
		}
		out := make([]int, 0, len(set))
		for n := range set {
			out = append(out, n)
		}
		sort.Ints(out)
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("获取%s最近开奖号码失败: %w", game, err)
	}
	return numbers, nil
}

func (s *GeneratorService) sessionKey(clientIP string) string {
	return fmt.Sprintf("lottery_games_generated:%s:%s", clientIP, s.now().Format("2006-01-02"))
}

func (s *GeneratorService) endOfDay() time.Time {
	now := s.now()
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// SessionStats 客户端当日已生成数量
func (s *GeneratorService) SessionStats(ctx context.Context, clientIP string) (model.SessionStats, error) {
	generated, err := s.counter.Get(ctx, s.sessionKey(clientIP))
	if err != nil {
		return model.SessionStats{}, err
	}
	return s.stats(int(generated)), nil
}

func (s *GeneratorService) stats(generated int) model.SessionStats {
	remaining := s.limits.SessionLimit - generated
	if remaining < 0 {
		remaining = 0
	}
	return model.SessionStats{GeneratedToday: generated, Remaining: remaining, DailyLimit: s.limits.SessionLimit}
}

// GenerateForClient 校验数量与当日额度，生成后累加计数
func (s *GeneratorService) GenerateForClient(ctx context.Context, game string, count int, clientIP string) (*model.GenerateResult, error) {
	sh, ok := s.shapes[game]
	if !ok {
		return nil, &model.UnknownGameError{Slug: game, Available: s.SupportedGames()}
	}
	if count < 1 || count > s.limits.MaxPerRequest {
		return nil, &model.ValidationError{Errors: []string{
			fmt.Sprintf("count deve estar entre 1 e %d", s.limits.MaxPerRequest),
		}}
	}

	key := s.sessionKey(clientIP)
	generated, err := s.counter.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("读取选号计数失败: %w", err)
	}
	if int(generated)+count > s.limits.SessionLimit {
		return nil, &model.QuotaExceededError{Limit: s.limits.SessionLimit, Generated: int(generated), Requested: count}
	}

	games, err := s.GenerateSmartGames(ctx, game, count)
	if err != nil {
		return nil, err
	}
	total, err := s.counter.IncrBy(ctx, key, int64(count), s.endOfDay())
	if err != nil {
		return nil, fmt.Errorf("更新选号计数失败: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"game":  game,
		"count": count,
		"ip":    clientIP,
	}).Info("生成智能选号")
	return &model.GenerateResult{
		Game:         game,
		Games:        games,
		Count:        count,
		SessionStats: s.stats(int(total)),
		Config:       sh,
	}, nil
}
