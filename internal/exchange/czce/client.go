// Package czce 郑州商品交易所适配器
// 持仓排名与仓单日报以 Excel 文件发布，文件格式在切换日之后由 .xls 改为 .xlsx。
package czce

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
	"market-data-gateway/internal/util/timeutil"
	"market-data-gateway/internal/vocab"
)

// Endpoints 郑商所文件目录
type Endpoints struct {
	// Future 文件目录，文件为 <YYYY>/<YYYYMMDD>/<name>.xls(x)
	Future string
}

// DefaultEndpoints 线上地址
func DefaultEndpoints() Endpoints {
	return Endpoints{Future: "http://www.czce.com.cn/cn/DFSStaticFiles/Future"}
}

// Client 郑商所适配器
type Client struct {
	http *transport.Client
	ep   Endpoints
	// cutover 首个发布 .xlsx 的交易日 YYYYMMDD
	cutover string
	logger  *zap.Logger
}

// NewClient 创建郑商所适配器
// 参数 cutover: .xls 切换为 .xlsx 的首个交易日
func NewClient(http *transport.Client, ep Endpoints, cutover string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, ep: ep, cutover: cutover, logger: logger.Named("czce")}
}

// fetchWorkbook 下载并读取工作簿第一个工作表
// 按切换日选择扩展名，非 2xx 时再尝试另一种扩展名
func (c *Client) fetchWorkbook(ctx context.Context, source, name, date string) ([][]string, error) {
	if err := timeutil.CheckDate(date); err != nil {
		return nil, err
	}
	exts := []string{".xls", ".xlsx"}
	if date >= c.cutover {
		exts[0], exts[1] = exts[1], exts[0]
	}

	var lastErr error
	for _, ext := range exts {
		url := c.ep.Future + "/" + date[:4] + "/" + date + "/" + name + ext
		resp, err := c.http.Do(ctx, &transport.Request{Source: source, URL: url})
		if err != nil {
			lastErr = err
			if apperr.Is(err, apperr.KindUpstreamStatus) || apperr.Is(err, apperr.KindNotFound) {
				c.logger.Debug("郑商所文件不可用，尝试另一种格式", zap.String("url", url), zap.Error(err))
				continue
			}
			return nil, err
		}
		rows, err := codec.ReadFirstSheet(resp.Body)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindParse, err, "读取郑商所 %s 失败", name)
		}
		return rows, nil
	}
	return nil, apperr.AsNotFound(lastErr, "郑商所 %s 无数据，可能是非交易日", date)
}

// Rank 获取会员持仓排名
// 参数 vars: 品种过滤，为空表示全部
func (c *Client) Rank(ctx context.Context, date string, vars []string) (model.RankTables, error) {
	rows, err := c.fetchWorkbook(ctx, "czce_rank", "FutureDataHolding", date)
	if err != nil {
		return nil, err
	}
	tables := ParseRank(rows)
	if len(vars) > 0 {
		for sym, rs := range tables {
			if len(rs) == 0 || !vocab.Contains(vars, rs[0].Variety) {
				delete(tables, sym)
			}
		}
	}
	return tables, nil
}

// contractRe 标题行中的合约代码，只有品种字母的标题行不匹配
var contractRe = regexp.MustCompile(`[A-Za-z]+\d+`)

// ParseRank 解析持仓排名工作表
// "品种/合约" 开头的行切换当前合约；数据行为 名次 + 成交量/多头/空头 各三列
func ParseRank(rows [][]string) model.RankTables {
	tables := make(model.RankTables)
	current := ""
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		first := strings.TrimSpace(row[0])
		if strings.Contains(first, "品种") || strings.Contains(first, "合约") {
			// 品种级标题行没有合约代码，其后数据行丢弃
			current = strings.ToUpper(contractRe.FindString(first))
			continue
		}
		if first == "" || strings.Contains(first, "名次") || model.IsSubtotal(first) {
			continue
		}
		if len(row) < 10 || current == "" {
			continue
		}
		rank, err := strconv.Atoi(first)
		if err != nil || rank <= 0 {
			continue
		}
		tables[current] = append(tables[current], model.RankRow{
			Rank:                 rank,
			VolPartyName:         strings.TrimSpace(row[1]),
			Vol:                  fastparse.MustParseInt(row[2]),
			VolChg:               fastparse.MustParseInt(row[3]),
			LongPartyName:        strings.TrimSpace(row[4]),
			LongOpenInterest:     fastparse.MustParseInt(row[5]),
			LongOpenInterestChg:  fastparse.MustParseInt(row[6]),
			ShortPartyName:       strings.TrimSpace(row[7]),
			ShortOpenInterest:    fastparse.MustParseInt(row[8]),
			ShortOpenInterestChg: fastparse.MustParseInt(row[9]),
			Symbol:               current,
			Variety:              vocab.ExtractVariety(current),
		})
	}
	return tables
}

// Warehouse 获取仓单日报
func (c *Client) Warehouse(ctx context.Context, date string) ([]model.CZCEReceipts, error) {
	rows, err := c.fetchWorkbook(ctx, "czce_warehouse", "FutureDataWhsheet", date)
	if err != nil {
		return nil, err
	}
	return ParseWarehouse(rows), nil
}

// ParseWarehouse 解析仓单日报工作表
// 以 "品种" 开头的行划分区段，区段内 "仓库/简称" 表头之后为数据行
func ParseWarehouse(rows [][]string) []model.CZCEReceipts {
	var starts []int
	for i, row := range rows {
		if len(row) > 0 && strings.HasPrefix(strings.TrimSpace(row[0]), "品种") {
			starts = append(starts, i)
		}
	}
	starts = append(starts, len(rows))

	var out []model.CZCEReceipts
	for i := 0; i+1 < len(starts); i++ {
		begin, end := starts[i], starts[i+1]
		symbol := vocab.ExtractLetters(rows[begin][0])
		if symbol == "" {
			continue
		}

		header := begin + 1
		for header < end {
			if r := rows[header]; len(r) > 0 && (strings.Contains(r[0], "仓库") || strings.Contains(r[0], "简称")) {
				break
			}
			header++
		}
		if header >= end {
			continue
		}

		var data []model.CZCEReceipt
		for _, row := range rows[header+1 : end] {
			if len(row) == 0 {
				continue
			}
			warehouse := strings.TrimSpace(row[0])
			if warehouse == "" || model.IsSubtotal(warehouse) {
				continue
			}
			data = append(data, model.CZCEReceipt{
				Warehouse:        warehouse,
				WarehouseReceipt: cellInt(row, 1),
				ValidForecast:    cellInt(row, 2),
				Change:           cellInt(row, 3),
			})
		}
		if len(data) > 0 {
			out = append(out, model.CZCEReceipts{Symbol: symbol, Data: data})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func cellInt(row []string, i int) *int64 {
	if i >= len(row) {
		return nil
	}
	return fastparse.OptInt(row[i])
}
