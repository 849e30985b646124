package model

// SymbolMark 新浪品种映射项
type SymbolMark struct {
	// Exchange 交易所中文名称
	Exchange string `json:"exchange"`
	// Symbol 品种中文名称，如 "沪铜"
	Symbol string `json:"symbol"`
	// Mark 新浪节点标记，如 "tong_qh"
	Mark string `json:"mark"`
}

// MainContract 主力合约
type MainContract struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// ContractDetail 合约详情（新浪合约页）
type ContractDetail struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Exchange        string `json:"exchange"`
	TradingUnit     string `json:"trading_unit"`
	QuoteUnit       string `json:"quote_unit"`
	MinPriceChange  string `json:"min_price_change"`
	PriceLimit      string `json:"price_limit"`
	ContractMonths  string `json:"contract_months"`
	TradingHours    string `json:"trading_hours"`
	LastTradingDay  string `json:"last_trading_day"`
	LastDeliveryDay string `json:"last_delivery_day"`
	DeliveryGrade   string `json:"delivery_grade"`
	Margin          string `json:"margin"`
	DeliveryMethod  string `json:"delivery_method"`
}

// HoldPosition 新浪成交持仓排名行
type HoldPosition struct {
	Rank    int    `json:"rank"`
	Company string `json:"company"`
	Value   int64  `json:"value"`
	Change  int64  `json:"change"`
}

// HoldPosType 持仓排名类型
type HoldPosType int

const (
	// HoldPosVolume 成交量
	HoldPosVolume HoldPosType = iota
	// HoldPosLong 多单持仓
	HoldPosLong
	// HoldPosShort 空单持仓
	HoldPosShort
)

// ParseHoldPosType 解析持仓排名类型
func ParseHoldPosType(s string) (HoldPosType, bool) {
	switch s {
	case "成交量", "volume", "vol":
		return HoldPosVolume, true
	case "多单持仓", "多单", "long":
		return HoldPosLong, true
	case "空单持仓", "空单", "short":
		return HoldPosShort, true
	}
	return 0, false
}

// TableIndex 新浪页面中对应表格的下标
func (t HoldPosType) TableIndex() int {
	switch t {
	case HoldPosLong:
		return 3
	case HoldPosShort:
		return 4
	default:
		return 2
	}
}
