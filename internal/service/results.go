package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"LotterySync/internal/interfaces"
	"LotterySync/internal/model"
	"LotterySync/internal/repository"

	"github.com/sirupsen/logrus"
)

// ErrNoDraws 游戏存在但还没有任何开奖
var ErrNoDraws = errors.New("Nenhum concurso encontrado para este jogo")

// ResultsService 开奖查询：最新一期、历史分页、号码比对
type ResultsService struct {
	store     interfaces.LotteryStore
	query     repository.DrawQueryRepository
	catalog   interfaces.GameCatalog
	generator *GeneratorService
	logger    *logrus.Logger
}

func NewResultsService(
	store interfaces.LotteryStore,
	query repository.DrawQueryRepository,
	catalog interfaces.GameCatalog,
	generator *GeneratorService,
	logger *logrus.Logger,
) *ResultsService {
	return &ResultsService{store: store, query: query, catalog: catalog, generator: generator, logger: logger}
}

func (s *ResultsService) gameOrUnknown(ctx context.Context, slug string) (*model.Game, error) {
	game, err := s.store.GetGameBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if game == nil {
		available, lerr := s.catalog.List(ctx)
		if lerr != nil {
			s.logger.WithError(lerr).Warn("获取游戏列表失败")
		}
		return nil, &model.UnknownGameError{Slug: slug, Available: available}
	}
	return game, nil
}

// Latest 某游戏期号最大的一期
func (s *ResultsService) Latest(ctx context.Context, slug string) (*model.LatestDraw, error) {
	game, err := s.gameOrUnknown(ctx, slug)
	if err != nil {
		return nil, err
	}
	draw, err := s.store.LatestDraw(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	if draw == nil {
		return nil, ErrNoDraws
	}
	return &model.LatestDraw{
		Game:    model.GameView{Name: game.Name, Slug: game.Slug},
		Contest: toDrawView(draw),
	}, nil
}

// LatestAll 每个游戏最新一期，没有开奖的游戏不返回
func (s *ResultsService) LatestAll(ctx context.Context) ([]model.LatestDraw, error) {
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.LatestDraw, 0, len(games))
	for _, g := range games {
		draw, err := s.store.LatestDraw(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("查询%s最新开奖失败: %w", g.Slug, err)
		}
		if draw == nil {
			continue
		}
		out = append(out, model.LatestDraw{
			Game:    model.GameView{Name: g.Name, Slug: g.Slug},
			Contest: toDrawView(draw),
		})
	}
	return out, nil
}

// History 分页查询历史开奖及奖级
func (s *ResultsService) History(ctx context.Context, filter repository.DrawFilter, page, pageSize int) (*model.DrawPage, error) {
	if _, err := s.gameOrUnknown(ctx, filter.GameSlug); err != nil {
		return nil, err
	}
	draws, total, err := s.query.ListDraws(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(draws))
	for _, d := range draws {
		ids = append(ids, d.ID)
	}
	prizes, err := s.query.GetPrizesByDrawIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byDraw := make(map[uint64][]model.PrizeView, len(draws))
	for _, p := range prizes {
		byDraw[p.DrawID] = append(byDraw[p.DrawID], model.PrizeView{
			Tier:        p.Tier,
			Description: p.Description,
			Winners:     p.Winners,
			PrizeAmount: p.PrizeAmount,
		})
	}

	items := make([]model.DrawDetail, 0, len(draws))
	for _, d := range draws {
		detail := model.DrawDetail{
			DrawView:               toDrawView(d),
			HasAccumulated:         d.HasAccumulated,
			NextDrawNumber:         d.NextDrawNumber,
			NextDrawDate:           formatDate(d.NextDrawDate),
			EstimatedPrizeNextDraw: d.EstimatedPrizeNextDraw,
			Prizes:                 byDraw[d.ID],
		}
		if detail.Prizes == nil {
			detail.Prizes = []model.PrizeView{}
		}
		items = append(items, detail)
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &model.DrawPage{Game: filter.GameSlug, Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// CheckNumbers 查找开奖号码与用户号码完全一致的期次
func (s *ResultsService) CheckNumbers(ctx context.Context, slug string, numbers []int) (*model.CheckResult, error) {
	game, err := s.gameOrUnknown(ctx, slug)
	if err != nil {
		return nil, err
	}
	user := append([]int(nil), numbers...)
	sort.Ints(user)
	if v := s.generator.ValidateGame(slug, user); !v.Valid {
		return nil, &model.ValidationError{Errors: v.Errors}
	}

	draws, err := s.store.ListDraws(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	var matches []model.DrawView
	for _, d := range draws {
		nums, err := model.ParseNumbers(d.Numbers)
		if err != nil {
			continue
		}
		sort.Ints(nums)
		if reflect.DeepEqual(nums, user) {
			matches = append(matches, toDrawView(d))
		}
	}

	if len(matches) > 0 {
		return &model.CheckResult{
			Winner:      true,
			Message:     "Esses números já foram sorteados!",
			UserNumbers: user,
			Contests:    matches,
			TotalWins:   len(matches),
		}, nil
	}
	return &model.CheckResult{
		Winner:      false,
		Message:     "Esses números ainda não foram sorteados.",
		UserNumbers: user,
		Suggestion:  "Continue jogando, você pode ser o próximo ganhador!",
	}, nil
}

// toDrawView numbers 按库中原样输出
func toDrawView(d *model.Draw) model.DrawView {
	numbers := json.RawMessage(d.Numbers)
	if len(numbers) == 0 {
		numbers = json.RawMessage("[]")
	}
	return model.DrawView{
		DrawNumber: d.DrawNumber,
		DrawDate:   formatDate(d.DrawDate),
		Location:   d.Location,
		Numbers:    numbers,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format("2006-01-02")
	return &v
}
