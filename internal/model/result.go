package model

// MaxSummaryErrors 汇总中展示的错误条数上限
const MaxSummaryErrors = 5

// ContestResult 单期导入结果
type ContestResult struct {
	Success        bool     `json:"success"`
	LotteryGame    string   `json:"lottery_game,omitempty"`
	ContestNumber  int      `json:"contest_number"`
	PrizesCount    int64    `json:"prizes_count"`
	AlreadyExisted bool     `json:"already_existed,omitempty"`
	Skipped        bool     `json:"skipped,omitempty"`
	Message        string   `json:"message,omitempty"`
	Error          string   `json:"error,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// RangeResult 区间导入结果；Imported + Skipped + Failed == RangeTotal
type RangeResult struct {
	Success       bool     `json:"success"`
	LotteryGame   string   `json:"lottery_game"`
	TotalContests int      `json:"total_contests"`
	RangeStart    int      `json:"range_start"`
	RangeEnd      int      `json:"range_end"`
	RangeTotal    int      `json:"range_total"`
	Imported      int      `json:"imported"`
	Failed        int      `json:"failed"`
	Skipped       int      `json:"skipped"`
	Errors        []string `json:"errors"`
}

// SummaryErrors 前 MaxSummaryErrors 条错误及剩余条数
func (r *RangeResult) SummaryErrors() ([]string, int) {
	if len(r.Errors) <= MaxSummaryErrors {
		return r.Errors, 0
	}
	return r.Errors[:MaxSummaryErrors], len(r.Errors) - MaxSummaryErrors
}

// MissingResult 缺失期次导入结果；JobID 非空表示已转后台
type MissingResult struct {
	Success       bool         `json:"success"`
	Message       string       `json:"message"`
	JobID         string       `json:"job_id,omitempty"`
	MissingCount  int          `json:"missing_count"`
	ExistingCount int          `json:"existing_count"`
	Range         *RangeResult `json:"range,omitempty"`
}

// GameOutcome 批量导入中单个游戏的结果
type GameOutcome struct {
	Game    string         `json:"game"`
	Contest *ContestResult `json:"contest,omitempty"`
	Range   *RangeResult   `json:"range,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Succeeded 该游戏是否整体成功
func (o GameOutcome) Succeeded() bool {
	if o.Error != "" {
		return false
	}
	if o.Range != nil {
		return o.Range.Success && o.Range.Failed == 0
	}
	return o.Contest != nil && o.Contest.Success
}

// ProgressEvent 区间导入进度，每处理一期恰好发送一次（含跳过）
type ProgressEvent struct {
	Game    string         `json:"game"`
	Current int            `json:"current"`
	Total   int            `json:"total"`
	Result  *ContestResult `json:"result"`
}

// ProgressFunc 同步进度回调
type ProgressFunc func(current, total int, result *ContestResult)

// ImportTask 后台导入任务，一期一个
type ImportTask struct {
	JobID         string `json:"job_id"`
	Game          string `json:"game"`
	ContestNumber int    `json:"contest_number"`
}
