package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RawDraw 开奖接口返回的原始结构（loteriascaixa-api）
type RawDraw struct {
	Loteria                      string              `json:"loteria"`
	Concurso                     *int                `json:"concurso"`
	Data                         string              `json:"data"`
	Local                        string              `json:"local"`
	Dezenas                      NumberList          `json:"dezenas"`
	Premiacoes                   []RawPrize          `json:"premiacoes"`
	Acumulou                     bool                `json:"acumulou"`
	ProximoConcurso              *int                `json:"proximoConcurso"`
	DataProximoConcurso          string              `json:"dataProximoConcurso"`
	ValorEstimadoProximoConcurso decimal.NullDecimal `json:"valorEstimadoProximoConcurso"`

	// Extra 未建模的平台字段（dezenasOrdemSorteio、trevos、localGanhadores 等）
	Extra map[string]json.RawMessage `json:"-"`
	// FieldErrors 无法识别的可选字段，已按默认值处理
	FieldErrors []error `json:"-"`
}

// RawPrize 原始奖级
type RawPrize struct {
	Descricao   string          `json:"descricao"`
	Faixa       *int            `json:"faixa"`
	Index       *int            `json:"index"`
	Ganhadores  int             `json:"ganhadores"`
	ValorPremio decimal.Decimal `json:"valorPremio"`
}

// UnmarshalJSON loteria、concurso 严格解析；其余字段宽松解析（"2901"、"true"、"1.234,56" 均可），
// 无法识别时取默认值并记入 FieldErrors；未知字段收集到 Extra
func (r *RawDraw) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*r = RawDraw{Extra: make(map[string]json.RawMessage)}
	d := &fieldDecoder{}
	for _, k := range slices.Sorted(maps.Keys(all)) {
		v := all[k]
		switch k {
		case "loteria":
			if isNull(v) {
				continue
			}
			if err := json.Unmarshal(v, &r.Loteria); err != nil {
				return fmt.Errorf("loteria: %w", err)
			}
		case "concurso":
			if isNull(v) {
				continue
			}
			n, ok := flexInt(v)
			if !ok {
				return fmt.Errorf("concurso inválido: %s", string(v))
			}
			r.Concurso = &n
		case "data":
			r.Data = d.str(k, v)
		case "local":
			r.Local = d.str(k, v)
		case "dataProximoConcurso":
			r.DataProximoConcurso = d.str(k, v)
		case "dezenas":
			if err := json.Unmarshal(v, &r.Dezenas); err != nil {
				r.Dezenas = nil
				d.invalid(k, v)
			}
		case "premiacoes":
			r.Premiacoes = d.prizes(k, v)
		case "acumulou":
			r.Acumulou = d.boolean(k, v)
		case "proximoConcurso":
			r.ProximoConcurso = d.intPtr(k, v)
		case "valorEstimadoProximoConcurso":
			r.ValorEstimadoProximoConcurso = d.nullDecimal(k, v)
		default:
			r.Extra[k] = v
		}
	}
	r.FieldErrors = d.errs
	return nil
}

// fieldDecoder 逐字段宽松解析，失败记录 InvalidFieldError
type fieldDecoder struct {
	errs []error
}

func (d *fieldDecoder) invalid(field string, v json.RawMessage) {
	d.errs = append(d.errs, &InvalidFieldError{Field: field, Value: string(bytes.TrimSpace(v))})
}

func (d *fieldDecoder) str(field string, v json.RawMessage) string {
	if isNull(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var num json.Number
	if err := json.Unmarshal(v, &num); err == nil {
		return num.String()
	}
	d.invalid(field, v)
	return ""
}

func (d *fieldDecoder) intPtr(field string, v json.RawMessage) *int {
	if isNull(v) {
		return nil
	}
	n, ok := flexInt(v)
	if !ok {
		d.invalid(field, v)
		return nil
	}
	return &n
}

func (d *fieldDecoder) boolean(field string, v json.RawMessage) bool {
	if isNull(v) {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	if b, err := strconv.ParseBool(strings.TrimSpace(rawText(v))); err == nil {
		return b
	}
	d.invalid(field, v)
	return false
}

func (d *fieldDecoder) decimal(field string, v json.RawMessage) decimal.Decimal {
	if isNull(v) {
		return decimal.Zero
	}
	if dec, ok := flexDecimal(v); ok {
		return dec
	}
	d.invalid(field, v)
	return decimal.Zero
}

func (d *fieldDecoder) nullDecimal(field string, v json.RawMessage) decimal.NullDecimal {
	if isNull(v) {
		return decimal.NullDecimal{}
	}
	if dec, ok := flexDecimal(v); ok {
		return decimal.NewNullDecimal(dec)
	}
	d.invalid(field, v)
	return decimal.NullDecimal{}
}

// prizes 单个奖级不是对象时整条丢弃，字段错误记为 premiacoes[i].campo
func (d *fieldDecoder) prizes(field string, v json.RawMessage) []RawPrize {
	if isNull(v) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		d.invalid(field, v)
		return nil
	}
	out := make([]RawPrize, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("%s[%d]", field, i)
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			d.invalid(prefix, item)
			continue
		}
		var p RawPrize
		for _, k := range slices.Sorted(maps.Keys(obj)) {
			fv := obj[k]
			name := prefix + "." + k
			switch k {
			case "descricao":
				p.Descricao = d.str(name, fv)
			case "faixa":
				p.Faixa = d.intPtr(name, fv)
			case "index":
				p.Index = d.intPtr(name, fv)
			case "ganhadores":
				if n := d.intPtr(name, fv); n != nil {
					p.Ganhadores = *n
				}
			case "valorPremio":
				p.ValorPremio = d.decimal(name, fv)
			}
		}
		out = append(out, p)
	}
	return out
}

func isNull(v json.RawMessage) bool {
	t := bytes.TrimSpace(v)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// rawText JSON 字符串去引号，其余原样
func rawText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(v))
}

// flexInt 接受 2901、"2901"、2901.0
func flexInt(v json.RawMessage) (int, bool) {
	s := strings.TrimSpace(rawText(v))
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 {
		return int(f), true
	}
	return 0, false
}

// flexDecimal 接受数字、"1234.56" 以及巴西格式 "R$ 1.234,56"
func flexDecimal(v json.RawMessage) (decimal.Decimal, bool) {
	s := strings.TrimSpace(rawText(v))
	if s == "" {
		return decimal.Decimal{}, false
	}
	if dec, err := decimal.NewFromString(s); err == nil {
		return dec, true
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return dec, true
}

// NumberList 号码列表，兼容 ["04","05"] 与 [4,5] 两种写法，统一保留为字符串
type NumberList []string

func (n *NumberList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = nil
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("dezenas 不是数组: %w", err)
	}
	out := make(NumberList, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var num json.Number
		if err := json.Unmarshal(item, &num); err != nil {
			return fmt.Errorf("无法识别的号码 %s", string(item))
		}
		out = append(out, num.String())
	}
	*n = out
	return nil
}

// ParseNumbers 读取 draws.numbers（整数或字符串数组）为整数，用于比对与选号
func ParseNumbers(raw []byte) ([]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		var n int
		if err := json.Unmarshal(item, &n); err == nil {
			out = append(out, n)
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, fmt.Errorf("无法识别的号码 %s", string(item))
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("号码 %q 不是整数", s)
		}
		out = append(out, v)
	}
	return out, nil
}

// ConvertedDraw 归一化后的一期数据；Warnings 为非致命问题（如日期格式错误）
type ConvertedDraw struct {
	Game     *Game
	Draw     *Draw
	Prizes   []*Prize
	Warnings []error
}
