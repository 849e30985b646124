package model

// CommInfo 九期网手续费与保证金
type CommInfo struct {
	Exchange               string   `json:"exchange"`
	ContractName           string   `json:"contract_name"`
	ContractCode           string   `json:"contract_code"`
	CurrentPrice           *float64 `json:"current_price"`
	LimitUp                *float64 `json:"limit_up"`
	LimitDown              *float64 `json:"limit_down"`
	MarginBuy              *float64 `json:"margin_buy"`
	MarginSell             *float64 `json:"margin_sell"`
	MarginPerLot           *float64 `json:"margin_per_lot"`
	FeeOpenRatio           *float64 `json:"fee_open_ratio"`
	FeeOpenYuan            *float64 `json:"fee_open_yuan"`
	FeeCloseYesterdayRatio *float64 `json:"fee_close_yesterday_ratio"`
	FeeCloseYesterdayYuan  *float64 `json:"fee_close_yesterday_yuan"`
	FeeCloseTodayRatio     *float64 `json:"fee_close_today_ratio"`
	FeeCloseTodayYuan      *float64 `json:"fee_close_today_yuan"`
	ProfitPerTick          *float64 `json:"profit_per_tick"`
	FeeTotal               *float64 `json:"fee_total"`
	NetProfitPerTick       *float64 `json:"net_profit_per_tick"`
	Remark                 *string  `json:"remark"`
}

// FeeInfo OpenCTP 手续费快照，全部保持原始文本
type FeeInfo struct {
	Exchange          string `json:"exchange"`
	ContractCode      string `json:"contract_code"`
	ContractName      string `json:"contract_name"`
	ProductCode       string `json:"product_code"`
	ProductName       string `json:"product_name"`
	ContractSize      string `json:"contract_size"`
	PriceTick         string `json:"price_tick"`
	OpenFeeRate       string `json:"open_fee_rate"`
	OpenFee           string `json:"open_fee"`
	CloseFeeRate      string `json:"close_fee_rate"`
	CloseFee          string `json:"close_fee"`
	CloseTodayFeeRate string `json:"close_today_fee_rate"`
	CloseTodayFee     string `json:"close_today_fee"`
	LongMarginRate    string `json:"long_margin_rate"`
	ShortMarginRate   string `json:"short_margin_rate"`
	// UpdatedAt 页面生成时间
	UpdatedAt string `json:"updated_at"`
}

// Rule 国泰君安交易规则
type Rule struct {
	Exchange     string   `json:"exchange"`
	Product      string   `json:"product"`
	Code         string   `json:"code"`
	MarginRate   *float64 `json:"margin_rate"`
	PriceLimit   *float64 `json:"price_limit"`
	ContractSize *float64 `json:"contract_size"`
	PriceTick    *float64 `json:"price_tick"`
	MaxOrderSize *uint64  `json:"max_order_size"`
	SpecialNote  *string  `json:"special_note"`
	Remark       *string  `json:"remark"`
}

// Product99 99期货网品种
type Product99 struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
}

// Inventory99 99期货网库存走势点
type Inventory99 struct {
	Date       string   `json:"date"`
	ClosePrice *float64 `json:"close_price"`
	Inventory  *float64 `json:"inventory"`
}

// SpotPrice 现货价格与基差
// 基差 = 期货价 - 现货价；基差率 = 期货价/现货价 - 1
type SpotPrice struct {
	// Date 交易日 YYYYMMDD
	Date                  string  `json:"date"`
	Symbol                string  `json:"symbol"`
	SpotPrice             float64 `json:"spot_price"`
	NearContract          string  `json:"near_contract"`
	NearContractPrice     float64 `json:"near_contract_price"`
	DominantContract      string  `json:"dominant_contract"`
	DominantContractPrice float64 `json:"dominant_contract_price"`
	NearBasis             float64 `json:"near_basis"`
	DomBasis              float64 `json:"dom_basis"`
	NearBasisRate         float64 `json:"near_basis_rate"`
	DomBasisRate          float64 `json:"dom_basis_rate"`
}

// SpotPricePrevious 现货与主力基差（含 180 日统计）
type SpotPricePrevious struct {
	Commodity        string   `json:"commodity"`
	SpotPrice        float64  `json:"spot_price"`
	DominantContract string   `json:"dominant_contract"`
	DominantPrice    float64  `json:"dominant_price"`
	Basis            float64  `json:"basis"`
	BasisRate        float64  `json:"basis_rate"`
	Basis180dHigh    *float64 `json:"basis_180d_high"`
	Basis180dLow     *float64 `json:"basis_180d_low"`
	Basis180dAvg     *float64 `json:"basis_180d_avg"`
}
