package caixa

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"LotterySync/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/datatypes"
)

const (
	// NumbersModeInt ["04","05"] 存为 [4,5]
	NumbersModeInt = "int"
	// NumbersModeString 号码原样存为字符串
	NumbersModeString = "string"

	dateLayout = "2/1/2006"
)

// Normalizer 将 loteriascaixa-api 的原始数据转换为 Game/Draw/Prize
type Normalizer struct {
	numbersMode string
	logger      *logrus.Logger
}

func NewNormalizer(numbersMode string, logger *logrus.Logger) *Normalizer {
	if numbersMode != NumbersModeString {
		numbersMode = NumbersModeInt
	}
	return &Normalizer{numbersMode: numbersMode, logger: logger}
}

// ConvertToDBModel 只有 loteria、concurso 为必填，其余字段尽量解析，失败记入 Warnings
func (n *Normalizer) ConvertToDBModel(raw *model.RawDraw) (*model.ConvertedDraw, error) {
	if raw == nil {
		return nil, &model.MalformedPayloadError{Reason: "nil draw"}
	}
	loteria := strings.TrimSpace(raw.Loteria)
	if loteria == "" {
		return nil, &model.MalformedPayloadError{Reason: "missing field loteria"}
	}
	if raw.Concurso == nil || *raw.Concurso <= 0 {
		return nil, &model.MalformedPayloadError{Reason: "missing field concurso"}
	}
	slug := Slugify(loteria)
	if slug == "" {
		return nil, &model.MalformedPayloadError{Reason: fmt.Sprintf("loteria %q has no usable characters", loteria)}
	}

	out := &model.ConvertedDraw{
		Game:     &model.Game{Slug: slug, Name: DisplayName(loteria)},
		Warnings: append([]error(nil), raw.FieldErrors...),
	}

	drawDate, err := parseDate("data", raw.Data)
	if err != nil {
		out.Warnings = append(out.Warnings, err)
	}
	nextDate, err := parseDate("dataProximoConcurso", raw.DataProximoConcurso)
	if err != nil && strings.TrimSpace(raw.DataProximoConcurso) != "" {
		out.Warnings = append(out.Warnings, err)
	}

	numbers, err := n.encodeNumbers(raw.Dezenas)
	if err != nil {
		out.Warnings = append(out.Warnings, err)
	}

	draw := &model.Draw{
		DrawNumber:             *raw.Concurso,
		DrawDate:               drawDate,
		Numbers:                numbers,
		HasAccumulated:         raw.Acumulou,
		NextDrawNumber:         raw.ProximoConcurso,
		NextDrawDate:           nextDate,
		EstimatedPrizeNextDraw: raw.ValorEstimadoProximoConcurso,
		ExtraData:              n.buildExtraData(raw.Extra),
	}
	if loc := strings.TrimSpace(raw.Local); loc != "" {
		loc = n.truncateString(loc, 256, "location")
		draw.Location = &loc
	}
	out.Draw = draw
	out.Prizes = buildPrizes(raw.Premiacoes)

	for _, w := range out.Warnings {
		n.logger.WithFields(logrus.Fields{
			"game":    slug,
			"contest": draw.DrawNumber,
		}).Warn(w.Error())
	}
	return out, nil
}

// encodeNumbers int 模式下解析失败则退回字符串原样保存
func (n *Normalizer) encodeNumbers(list model.NumberList) (datatypes.JSON, error) {
	if list == nil {
		list = model.NumberList{}
	}
	if n.numbersMode == NumbersModeInt {
		ints := make([]int, 0, len(list))
		var parseErr error
		for _, s := range list {
			v, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				parseErr = fmt.Errorf("dezena %q não é um número, mantida como texto", s)
				break
			}
			ints = append(ints, v)
		}
		if parseErr == nil {
			b, err := json.Marshal(ints)
			if err != nil {
				return datatypes.JSON("[]"), err
			}
			return b, nil
		}
		b, err := json.Marshal([]string(list))
		if err != nil {
			return datatypes.JSON("[]"), err
		}
		return b, parseErr
	}

	b, err := json.Marshal([]string(list))
	if err != nil {
		return datatypes.JSON("[]"), err
	}
	return b, nil
}

func (n *Normalizer) buildExtraData(extra map[string]json.RawMessage) datatypes.JSON {
	if len(extra) == 0 {
		return nil
	}
	b, err := json.Marshal(extra)
	if err != nil {
		n.logger.WithError(err).Error("extra_data 序列化失败，忽略扩展字段")
		return nil
	}
	return b
}

// buildPrizes 奖级优先取 faixa，其次 index，都没有按顺序编号；出现重复奖级时整体按顺序编号
func buildPrizes(items []model.RawPrize) []*model.Prize {
	prizes := make([]*model.Prize, 0, len(items))
	seen := make(map[int]struct{}, len(items))
	duplicated := false
	for i, p := range items {
		tier := i + 1
		switch {
		case p.Faixa != nil && *p.Faixa > 0:
			tier = *p.Faixa
		case p.Index != nil && *p.Index > 0:
			tier = *p.Index
		}
		if _, ok := seen[tier]; ok {
			duplicated = true
		}
		seen[tier] = struct{}{}

		winners := p.Ganhadores
		if winners < 0 {
			winners = 0
		}
		amount := p.ValorPremio
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		prizes = append(prizes, &model.Prize{
			Tier:        tier,
			Description: strings.TrimSpace(p.Descricao),
			Winners:     winners,
			PrizeAmount: amount,
		})
	}
	if duplicated {
		for i, p := range prizes {
			p.Tier = i + 1
		}
	}
	for _, p := range prizes {
		if p.Description == "" {
			p.Description = fmt.Sprintf("%d acertos", p.Tier)
		}
	}
	return prizes
}

// parseDate dd/mm/yyyy；空串与格式错误都返回 MalformedDateError，日期置空
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, &model.MalformedDateError{Field: field, Value: value}
	}
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return nil, &model.MalformedDateError{Field: field, Value: value}
	}
	return &t, nil
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify 小写、去重音、非字母数字替换为 -
func Slugify(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// DisplayName 首字母大写：megasena -> Megasena
func DisplayName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// 工具函数：截断超长字符串
func (n *Normalizer) truncateString(s string, maxLen int, fieldName string) string {
	if len(s) <= maxLen {
		return s
	}
	n.logger.Warnf("字段[%s]超长（长度%d），截断为%d字符", fieldName, len(s), maxLen)
	return strings.ToValidUTF8(s[:maxLen], "")
}
