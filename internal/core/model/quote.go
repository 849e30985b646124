// Package model 定义网关对外输出的领域记录。
// 所有记录都是扁平的值类型，JSON 字段名即对外契约。
package model

// FuturesQuote 期货实时行情
type FuturesQuote struct {
	// Symbol 合约代码（大写）
	Symbol string `json:"symbol"`
	// Name 合约名称
	Name string `json:"name"`
	// CurrentPrice 最新价
	CurrentPrice float64 `json:"current_price"`
	// Change 涨跌额 = 最新价 - 昨结算
	Change float64 `json:"change"`
	// ChangePercent 涨跌幅（百分比单位）
	ChangePercent float64 `json:"change_percent"`
	// Volume 成交量
	Volume uint64 `json:"volume"`
	// Open 开盘价
	Open float64 `json:"open"`
	// High 最高价
	High float64 `json:"high"`
	// Low 最低价
	Low float64 `json:"low"`
	// Settlement 结算价
	Settlement *float64 `json:"settlement"`
	// PrevSettlement 昨结算价
	PrevSettlement *float64 `json:"prev_settlement"`
	// OpenInterest 持仓量
	OpenInterest *uint64 `json:"open_interest"`
	// UpdatedAt 更新时间（RFC3339，+08:00）
	UpdatedAt string `json:"updated_at"`
}

// FuturesBar 期货 K 线
// 日线、分钟线共用，分钟线没有结算价
type FuturesBar struct {
	Symbol       string   `json:"symbol"`
	Date         string   `json:"date"`
	Open         float64  `json:"open"`
	High         float64  `json:"high"`
	Low          float64  `json:"low"`
	Close        float64  `json:"close"`
	Volume       uint64   `json:"volume"`
	Settlement   *float64 `json:"settlement"`
	OpenInterest *uint64  `json:"open_interest"`
}

// MainDailyBar 主力连续日线
// Hold 为持仓量，必填
type MainDailyBar struct {
	Date   string   `json:"date"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume uint64   `json:"volume"`
	Hold   uint64   `json:"hold"`
	Settle *float64 `json:"settle"`
}

// StockQuote 股票实时行情
// 列表接口只提供部分字段，其余保持零值
type StockQuote struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	CurrentPrice  float64  `json:"current_price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"change_percent"`
	Open          float64  `json:"open"`
	High          float64  `json:"high"`
	Low           float64  `json:"low"`
	PrevClose     float64  `json:"prev_close"`
	Volume        uint64   `json:"volume"`
	Amount        float64  `json:"amount"`
	MarketCap     *float64 `json:"market_cap"`
	UpdatedAt     string   `json:"updated_at"`
}

// StockBar 股票日线
type StockBar struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume uint64  `json:"volume"`
}

// ComputeChange 计算涨跌额与涨跌幅
// 参数 current: 最新价
// 参数 prev: 昨结算（或昨收）
// 返回: 涨跌额与百分比涨跌幅；prev 非正时涨跌幅为 0
func ComputeChange(current, prev float64) (change, percent float64) {
	change = current - prev
	if prev > 0 {
		percent = change / prev * 100
	}
	return change, percent
}

// ForeignSymbol 外盘期货品种
type ForeignSymbol struct {
	// Symbol 中文名称
	Symbol string `json:"symbol"`
	// Code 新浪代码，如 CL、GC
	Code string `json:"code"`
}

// ForeignBar 外盘期货日线
type ForeignBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume uint64  `json:"volume"`
}

// DetailItem 名称/值对
type DetailItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ForeignDetail 外盘合约详情
type ForeignDetail struct {
	Items []DetailItem `json:"items"`
}
