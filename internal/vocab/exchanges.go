package vocab

import "strings"

// Exchange 交易所信息
type Exchange struct {
	// Code 交易所代码
	Code string `json:"code"`
	// Name 交易所中文名称
	Name string `json:"name"`
	// Description 交易所英文名称
	Description string `json:"description"`
}

// Exchanges 支持的交易所名录
var Exchanges = []Exchange{
	{Code: "DCE", Name: "大连商品交易所", Description: "Dalian Commodity Exchange"},
	{Code: "CZCE", Name: "郑州商品交易所", Description: "Zhengzhou Commodity Exchange"},
	{Code: "SHFE", Name: "上海期货交易所", Description: "Shanghai Futures Exchange"},
	{Code: "INE", Name: "上海国际能源交易中心", Description: "Shanghai International Energy Exchange"},
	{Code: "CFFEX", Name: "中国金融期货交易所", Description: "China Financial Futures Exchange"},
	{Code: "GFEX", Name: "广州期货交易所", Description: "Guangzhou Futures Exchange"},
}

// SinaExchangeName 新浪品种映射中使用的交易所中文名
// INE 品种在新浪页面中归入上期所
func SinaExchangeName(code string) (string, bool) {
	switch strings.ToUpper(code) {
	case "CZCE":
		return "郑州商品交易所", true
	case "DCE":
		return "大连商品交易所", true
	case "SHFE", "INE":
		return "上海期货交易所", true
	case "CFFEX":
		return "中国金融期货交易所", true
	case "GFEX":
		return "广州期货交易所", true
	}
	return "", false
}

// SinaNodeKeys 新浪品种映射 JS 中的交易所键，按输出顺序
var SinaNodeKeys = []string{"czce", "dce", "shfe", "cffex", "gfex"}

// 持仓排名各交易所品种集合
var (
	DCEVarieties = []string{
		"C", "CS", "A", "B", "M", "Y", "P", "FB", "BB", "JD", "L", "V", "PP", "J", "JM", "I", "EG",
		"RR", "EB", "PG", "LH", "LG", "BZ",
	}
	SHFEVarieties = []string{
		"CU", "AL", "ZN", "PB", "NI", "SN", "AU", "AG", "RB", "WR", "HC", "FU", "BU", "RU", "SC",
		"NR", "SP", "SS", "LU", "BC", "AO", "BR", "EC", "AD",
	}
	CZCEVarieties = []string{
		"WH", "PM", "CF", "SR", "TA", "OI", "RI", "MA", "ME", "FG", "RS", "RM", "ZC", "JR", "LR",
		"SF", "SM", "WT", "TC", "GN", "RO", "ER", "SRX", "SRY", "WSX", "WSY", "CY", "AP", "UR",
		"CJ", "SA", "PK", "PF", "PX", "SH", "PR",
	}
	CFFEXVarieties = []string{"IF", "IC", "IM", "IH", "T", "TF", "TS", "TL"}
	GFEXVarieties  = []string{"SI", "LC", "PS"}
)

// IsCFFEXProduct 判断品种是否属于中金所
// 新浪实时行情对中金所合约使用 CFF_ 前缀
func IsCFFEXProduct(variety string) bool {
	return Contains(CFFEXVarieties, variety)
}

// Contains 忽略大小写判断 list 是否包含 v
func Contains(list []string, v string) bool {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

// FilterVarieties 按请求过滤某交易所的品种集合
// 参数 all: 交易所全部品种
// 参数 wanted: 请求的品种，为空表示全部
// 返回: all 中被请求的品种（保持 all 的顺序与大小写）
func FilterVarieties(all, wanted []string) []string {
	if len(wanted) == 0 {
		return append([]string(nil), all...)
	}
	var out []string
	for _, v := range all {
		if Contains(wanted, v) {
			out = append(out, v)
		}
	}
	return out
}

// SplitList 切分逗号分隔的查询参数，去掉空白与空项
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
