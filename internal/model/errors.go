package model

import (
	"fmt"
	"strings"
)

// UnknownGameError 游戏未注册，不重试
type UnknownGameError struct {
	Slug      string
	Available []string
}

func (e *UnknownGameError) Error() string {
	return fmt.Sprintf("jogo '%s' não está disponível", e.Slug)
}

// TransportError 网络/超时错误（客户端已按配置重试）
type TransportError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamStatusError 非 2xx 响应
type UpstreamStatusError struct {
	URL        string
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("request %s returned status %d", e.URL, e.StatusCode)
}

// MalformedPayloadError 响应体为空、非 JSON 或缺少必填字段
type MalformedPayloadError struct {
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return "malformed payload: " + e.Reason
}

// MalformedDateError 日期不是 dd/mm/yyyy，仅记录不中断导入
type MalformedDateError struct {
	Field string
	Value string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("campo %s com data inválida: %q", e.Field, e.Value)
}

// InvalidFieldError 可选字段类型或格式不符，按默认值处理，仅记录不中断导入
type InvalidFieldError struct {
	Field string
	Value string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("campo %s com valor inválido: %s", e.Field, e.Value)
}

// InvalidRangeError 区间截断后 from > to
type InvalidRangeError struct {
	From int
	To   int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("concurso inicial (%d) não pode ser maior que o final (%d)", e.From, e.To)
}

// ValidationError 用户提交的号码不符合游戏规则
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

// QuotaExceededError 当日选号数量超过上限
type QuotaExceededError struct {
	Limit     int
	Generated int
	Requested int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("Limite de %d jogos por sessão excedido", e.Limit)
}

// Remaining 今日剩余可生成数量
func (e *QuotaExceededError) Remaining() int {
	if r := e.Limit - e.Generated; r > 0 {
		return r
	}
	return 0
}
