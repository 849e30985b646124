package vocab

import "strings"

// chineseNames 中文品种名到品种代码
var chineseNames = map[string]string{
	// 上海期货交易所
	"铜":     "CU",
	"螺纹钢":   "RB",
	"锌":     "ZN",
	"铝":     "AL",
	"黄金":    "AU",
	"线材":    "WR",
	"天然橡胶":  "RU",
	"橡胶":    "RU",
	"铅":     "PB",
	"白银":    "AG",
	"沥青":    "BU",
	"石油沥青":  "BU",
	"热轧卷板":  "HC",
	"镍":     "NI",
	"锡":     "SN",
	"燃料油":   "FU",
	"不锈钢":   "SS",
	"纸浆":    "SP",
	"漂针浆":   "SP",
	"氧化铝":   "AO",
	"丁二烯橡胶": "BR",
	"合成橡胶":  "BR",
	"铸造铝合金": "AD",
	// 大连商品交易所
	"豆一":    "A",
	"黄大豆1号": "A",
	"豆二":    "B",
	"黄大豆2号": "B",
	"豆粕":    "M",
	"豆油":    "Y",
	"玉米":    "C",
	"玉米淀粉":  "CS",
	"棕榈油":   "P",
	"鸡蛋":    "JD",
	"聚乙烯":   "L",
	"LLDPE": "L",
	"聚氯乙烯":  "V",
	"PVC":   "V",
	"聚丙烯":   "PP",
	"PP":    "PP",
	"焦炭":    "J",
	"焦煤":    "JM",
	"铁矿石":   "I",
	"乙二醇":   "EG",
	"苯乙烯":   "EB",
	"液化石油气": "PG",
	"LPG":   "PG",
	"生猪":    "LH",
	"粳米":    "RR",
	"纤维板":   "FB",
	"胶合板":   "BB",
	"原木":    "LG",
	"纯苯":    "BZ",
	// 郑州商品交易所
	"白糖":    "SR",
	"棉花":    "CF",
	"PTA":   "TA",
	"菜籽油":   "OI",
	"菜油":    "OI",
	"菜籽油OI": "OI",
	"菜籽粕":   "RM",
	"菜粕":    "RM",
	"甲醇":    "MA",
	"甲醇MA":  "MA",
	"玻璃":    "FG",
	"动力煤":   "ZC",
	"硅铁":    "SF",
	"锰硅":    "SM",
	"苹果":    "AP",
	"红枣":    "CJ",
	"尿素":    "UR",
	"纯碱":    "SA",
	"短纤":    "PF",
	"涤纶短纤":  "PF",
	"花生":    "PK",
	"菜籽":    "RS",
	"棉纱":    "CY",
	"粳稻":    "JR",
	"晚籼稻":   "LR",
	"早籼稻":   "RI",
	"强麦":    "WH",
	"强麦WH":  "WH",
	"普麦":    "PM",
	"烧碱":    "SH",
	"对二甲苯":  "PX",
	"PX":    "PX",
	"瓶片":    "PR",
	// 上海国际能源交易中心
	"原油":    "SC",
	"20号胶":  "NR",
	"低硫燃料油": "LU",
	"国际铜":   "BC",
	"集运指数":  "EC",
	// 广州期货交易所
	"工业硅":   "SI",
	"碳酸锂":   "LC",
	"多晶硅":   "PS",
	// 中国金融期货交易所
	"沪深300":  "IF",
	"上证50":   "IH",
	"中证500":  "IC",
	"中证1000": "IM",
	"2年期国债":  "TS",
	"5年期国债":  "TF",
	"10年期国债": "T",
	"30年期国债": "TL",
}

// fuzzyNames 模糊匹配规则，按顺序检查名称是否包含关键字
var fuzzyNames = []struct {
	keyword string
	code    string
}{
	{"菜籽油", "OI"},
	{"甲醇", "MA"},
	{"强麦", "WH"},
	{"棉纱", "CY"},
	{"低硫燃料油", "LU"},
	{"螺纹", "RB"},
	{"热卷", "HC"},
}

// ChineseToEnglish 中文品种名映射为品种代码
// 先精确匹配，再按关键字模糊匹配
// 返回: 品种代码；未识别时 ok=false
func ChineseToEnglish(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if code, ok := chineseNames[name]; ok {
		return code, true
	}
	for _, f := range fuzzyNames {
		if strings.Contains(name, f.keyword) {
			return f.code, true
		}
	}
	return "", false
}

// englishNames 品种代码到首选中文名
var englishNames = buildEnglishNames()

func buildEnglishNames() map[string]string {
	// 同一代码有多个中文名时取最短者，使结果稳定
	out := make(map[string]string, len(chineseNames))
	for name, code := range chineseNames {
		if prev, ok := out[code]; !ok || len([]rune(name)) < len([]rune(prev)) ||
			(len([]rune(name)) == len([]rune(prev)) && name < prev) {
			out[code] = name
		}
	}
	return out
}

// EnglishToChinese 品种代码映射为中文名
func EnglishToChinese(code string) (string, bool) {
	name, ok := englishNames[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}
