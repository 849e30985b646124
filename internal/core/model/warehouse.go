package model

// CZCEReceipt 郑商所仓单
type CZCEReceipt struct {
	Warehouse        string `json:"warehouse"`
	WarehouseReceipt *int64 `json:"warehouse_receipt"`
	ValidForecast    *int64 `json:"valid_forecast"`
	Change           *int64 `json:"change"`
}

// CZCEReceipts 按品种分组的郑商所仓单
type CZCEReceipts struct {
	Symbol string        `json:"symbol"`
	Data   []CZCEReceipt `json:"data"`
}

// DCEReceipt 大商所仓单
type DCEReceipt struct {
	VarietyCode      string  `json:"variety_code"`
	VarietyName      string  `json:"variety_name"`
	Warehouse        string  `json:"warehouse"`
	DeliveryLocation *string `json:"delivery_location"`
	LastReceipt      int64   `json:"last_receipt"`
	TodayReceipt     int64   `json:"today_receipt"`
	Change           int64   `json:"change"`
}

// SHFEReceipt 上期所仓单
type SHFEReceipt struct {
	Variety      string `json:"variety"`
	Region       string `json:"region"`
	Warehouse    string `json:"warehouse"`
	LastReceipt  int64  `json:"last_receipt"`
	TodayReceipt int64  `json:"today_receipt"`
	Change       int64  `json:"change"`
	Unit         string `json:"unit"`
}

// SHFEReceipts 按品种分组的上期所仓单
type SHFEReceipts struct {
	Symbol string        `json:"symbol"`
	Data   []SHFEReceipt `json:"data"`
}

// GFEXReceipt 广期所仓单
type GFEXReceipt struct {
	Variety      string `json:"variety"`
	Warehouse    string `json:"warehouse"`
	LastReceipt  int64  `json:"last_receipt"`
	TodayReceipt int64  `json:"today_receipt"`
	Change       int64  `json:"change"`
}

// GFEXReceipts 按品种分组的广期所仓单
type GFEXReceipts struct {
	Symbol string        `json:"symbol"`
	Data   []GFEXReceipt `json:"data"`
}
