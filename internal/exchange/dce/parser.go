package dce

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/util/fastparse"
	"market-data-gateway/internal/vocab"
)

// ParseBatchZip 解析批量下载的 ZIP
// 文件名形如 <date>_<contract>_...，只处理以交易日开头的条目
// 非 ZIP 响应（上游返回错误页）归为解析错误
func ParseBatchZip(b []byte, date string, vars []string, logger *zap.Logger) (model.RankTables, error) {
	if !codec.IsZip(b) {
		return nil, apperr.Parse("大商所批量下载返回的不是ZIP文件，可能是非交易日或数据不存在", b)
	}
	entries, err := codec.ReadZip(b, func(name string) bool { return strings.HasPrefix(name, date) })
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "读取大商所ZIP失败")
	}

	tables := make(model.RankTables)
	for _, e := range entries {
		parts := strings.Split(e.Name, "_")
		if len(parts) < 2 {
			continue
		}
		symbol := strings.ToUpper(parts[1])
		variety := vocab.ExtractVariety(symbol)
		if len(vars) > 0 && !vocab.Contains(vars, variety) {
			continue
		}
		rows, err := ParseRankFile(e.Text, symbol)
		if err != nil {
			if logger != nil {
				logger.Warn("解析大商所排名文件失败", zap.String("file", e.Name), zap.Error(err))
			}
			continue
		}
		if len(rows) > 0 {
			tables[symbol] = rows
		}
	}
	return tables, nil
}

// entry 排名段中的一行
type entry struct {
	name   string
	value  int64
	change int64
}

// ParseRankFile 解析单个合约的排名文本
// 文件依次包含成交量、持买单量、持卖单量三段，每段以 "名次" 表头开始、以 "总计/合计" 结束；
// 三段按行号对齐合并，名次为行号
func ParseRankFile(text, symbol string) ([]model.RankRow, error) {
	lines := codec.SplitLines(text)
	// 带会员类别的文件末尾 6 行为说明
	if strings.Contains(text, "会员类别") && len(lines) > 6 {
		lines = lines[:len(lines)-6]
	}

	var starts []int
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "名次") || strings.Contains(line, "\t名次") {
			starts = append(starts, i)
		}
	}
	if len(starts) < 3 {
		return nil, apperr.New(apperr.KindParse, "未找到完整的三个表格")
	}
	// 成交量段为空（无成交）的文件没有排名
	if starts[1]-starts[0] < 5 {
		return nil, nil
	}

	sections := make([][]entry, 3)
	for k := 0; k < 3; k++ {
		limit := len(lines)
		if k < 2 {
			limit = starts[k+1]
		}
		sections[k] = parseSection(lines, starts[k]+1, limit)
	}

	n := max(len(sections[0]), len(sections[1]), len(sections[2]))
	variety := vocab.ExtractVariety(symbol)
	rows := make([]model.RankRow, 0, n)
	for i := 0; i < n; i++ {
		vol, long, short := at(sections[0], i), at(sections[1], i), at(sections[2], i)
		rows = append(rows, model.RankRow{
			Rank:                 i + 1,
			VolPartyName:         vol.name,
			Vol:                  vol.value,
			VolChg:               vol.change,
			LongPartyName:        long.name,
			LongOpenInterest:     long.value,
			LongOpenInterestChg:  long.change,
			ShortPartyName:       short.name,
			ShortOpenInterest:    short.value,
			ShortOpenInterestChg: short.change,
			Symbol:               symbol,
			Variety:              variety,
		})
	}
	return rows, nil
}

// parseSection 解析一段排名，遇到合计行结束
// 字段: 名次, 会员简称, 数量, 增减
func parseSection(lines []string, begin, end int) []entry {
	var out []entry
	for _, line := range lines[begin:end] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if model.IsSubtotal(line) {
			break
		}
		var f []string
		for _, p := range codec.SplitFields(line) {
			if p != "" {
				f = append(f, p)
			}
		}
		if len(f) < 4 {
			continue
		}
		name := strings.TrimSpace(f[1])
		if name == "" || fastparse.IsPlaceholder(name) {
			continue
		}
		out = append(out, entry{
			name:   name,
			value:  fastparse.MustParseInt(f[2]),
			change: fastparse.MustParseInt(f[3]),
		})
	}
	return out
}

func at(s []entry, i int) entry {
	if i < len(s) {
		return s[i]
	}
	return entry{}
}

var (
	varietyRe  = regexp.MustCompile(`setVariety\(\s*['"]?([^'")]+)['"]?\s*\)`)
	contractRe = regexp.MustCompile(`setContract_id\(\s*['"]([^'"]+)['"]`)
	digits4Re  = regexp.MustCompile(`^\d{4}$`)
)

// ParseVarietyList 从查询页的品种按钮中提取品种代码
func ParseVarietyList(page []byte) ([]string, error) {
	doc, err := codec.ParseHTML(page)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "解析大商所品种列表失败")
	}
	var out []string
	seen := map[string]bool{}
	doc.Find("input.selBox, .selBox input").Each(func(_ int, s *goquery.Selection) {
		onclick, _ := s.Attr("onclick")
		m := varietyRe.FindStringSubmatch(onclick)
		if m == nil {
			return
		}
		v := strings.TrimSpace(m[1])
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	})
	return out, nil
}

// ParseContractList 从查询页提取合约列表
// 按钮只给出四位月份时补上品种前缀
func ParseContractList(page []byte, variety string) ([]string, error) {
	doc, err := codec.ParseHTML(page)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "解析大商所合约列表失败")
	}
	var out []string
	doc.Find("input[name='contract']").Each(func(_ int, s *goquery.Selection) {
		onclick, _ := s.Attr("onclick")
		m := contractRe.FindStringSubmatch(onclick)
		if m == nil {
			return
		}
		contract := m[1]
		if digits4Re.MatchString(contract) {
			contract = variety + contract
		}
		out = append(out, contract)
	})
	return out, nil
}

// ParseRankHTML 解析单个合约的 HTML 排名表（第二个表格）
// 每行 12 列：名次、会员、成交量、增减、名次、会员、持买、增减、名次、会员、持卖、增减
func ParseRankHTML(page []byte, contract, variety string) ([]model.RankRow, error) {
	doc, err := codec.ParseHTML(page)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "解析大商所排名页面失败")
	}
	table, ok := codec.TableAt(doc, 1)
	if !ok {
		return nil, apperr.New(apperr.KindParse, "未找到数据表格")
	}

	symbol := strings.ToUpper(contract)
	var rows []model.RankRow
	for _, c := range codec.Rows(table, "td") {
		if len(c) < 12 {
			continue
		}
		if c[0] == "" || strings.Contains(c[0], "名次") || model.IsSubtotal(c[0]) {
			continue
		}
		rank, err := strconv.Atoi(c[0])
		if err != nil || rank <= 0 {
			continue
		}
		rows = append(rows, model.RankRow{
			Rank:                 rank,
			VolPartyName:         c[1],
			Vol:                  fastparse.MustParseInt(c[2]),
			VolChg:               fastparse.MustParseInt(c[3]),
			LongPartyName:        c[5],
			LongOpenInterest:     fastparse.MustParseInt(c[6]),
			LongOpenInterestChg:  fastparse.MustParseInt(c[7]),
			ShortPartyName:       c[9],
			ShortOpenInterest:    fastparse.MustParseInt(c[10]),
			ShortOpenInterestChg: fastparse.MustParseInt(c[11]),
			Symbol:               symbol,
			Variety:              strings.ToUpper(variety),
		})
	}
	return rows, nil
}

// ParseWarehouse 解析仓单日报 JSON 的 data.entityList
func ParseWarehouse(body []byte) ([]model.DCEReceipt, error) {
	list := gjson.GetBytes(body, "data.entityList")
	if !list.IsArray() {
		return nil, apperr.Parse("未找到entityList数据", body)
	}
	out := []model.DCEReceipt{}
	list.ForEach(func(_, item gjson.Result) bool {
		r := model.DCEReceipt{
			VarietyCode:  strings.ToUpper(item.Get("varietyOrder").String()),
			VarietyName:  item.Get("variety").String(),
			Warehouse:    item.Get("whAbbr").String(),
			LastReceipt:  intOf(item.Get("lastWbillQty")),
			TodayReceipt: intOf(item.Get("wbillQty")),
			Change:       intOf(item.Get("diff")),
		}
		if loc := item.Get("deliveryAbbr").String(); loc != "" {
			r.DeliveryLocation = &loc
		}
		out = append(out, r)
		return true
	})
	return out, nil
}

// intOf 兼容数字与字符串两种编码
func intOf(v gjson.Result) int64 {
	if v.Type == gjson.Number {
		return v.Int()
	}
	return fastparse.MustParseInt(v.String())
}
