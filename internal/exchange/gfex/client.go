// Package gfex 广州期货交易所适配器
// 持仓排名需要三步查询：品种列表、品种合约列表、逐合约按成交量/持买/持卖三类数据。
package gfex

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
	"market-data-gateway/internal/util/timeutil"
)

// Endpoints 广期所接口地址
type Endpoints struct {
	// Varieties 品种列表
	Varieties string
	// Contracts 品种合约列表
	Contracts string
	// Rank 合约排名数据
	Rank string
	// Warehouse 仓单日报
	Warehouse string
}

// DefaultEndpoints 线上地址
func DefaultEndpoints() Endpoints {
	const base = "http://www.gfex.com.cn/u"
	return Endpoints{
		Varieties: base + "/interfacesWebVariety/loadList",
		Contracts: base + "/interfacesWebTiMemberDealPosiQuotes/loadListContract_id",
		Rank:      base + "/interfacesWebTiMemberDealPosiQuotes/loadList",
		Warehouse: base + "/interfacesWebTdWbillWeeklyQuotes/loadList",
	}
}

// Client 广期所适配器
type Client struct {
	http *transport.Client
	ep   Endpoints
	// fallback 品种列表接口不可用时使用的品种
	fallback []string
	logger   *zap.Logger
}

// NewClient 创建广期所适配器
// 参数 fallback: 兜底品种，如 ["si", "lc", "ps"]
func NewClient(http *transport.Client, ep Endpoints, fallback []string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, ep: ep, fallback: fallback, logger: logger.Named("gfex")}
}

func (c *Client) post(ctx context.Context, source, rawURL string, form url.Values) ([]byte, error) {
	resp, err := c.http.Do(ctx, &transport.Request{
		Source: source,
		Method: http.MethodPost,
		URL:    rawURL,
		Form:   form,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Varieties 获取品种列表（小写品种代码）
func (c *Client) Varieties(ctx context.Context) ([]string, error) {
	body, err := c.post(ctx, "gfex_varieties", c.ep.Varieties, url.Values{})
	if err != nil {
		return nil, err
	}
	return ParseVarieties(body)
}

// Rank 获取会员持仓排名
// 参数 vars: 品种过滤，为空时查询品种列表，失败则使用兜底品种
func (c *Client) Rank(ctx context.Context, date string, vars []string) (model.RankTables, error) {
	if err := timeutil.CheckDate(date); err != nil {
		return nil, err
	}

	targets := make([]string, 0, len(vars))
	for _, v := range vars {
		targets = append(targets, strings.ToLower(v))
	}
	if len(targets) == 0 {
		list, err := c.Varieties(ctx)
		if err != nil || len(list) == 0 {
			c.logger.Warn("获取广期所品种列表失败，使用兜底品种", zap.Strings("fallback", c.fallback), zap.Error(err))
			list = c.fallback
		}
		targets = list
	}

	var (
		mu     sync.Mutex
		tables = make(model.RankTables)
	)
	for _, v := range targets {
		contracts, err := c.contracts(ctx, v, date)
		if err != nil {
			if apperr.Is(err, apperr.KindUpstreamBlocked) {
				return nil, err
			}
			c.logger.Warn("获取广期所合约列表失败", zap.String("variety", v), zap.Error(err))
			continue
		}
		if len(contracts) == 0 {
			c.logger.Debug("广期所品种无合约数据", zap.String("variety", v), zap.String("date", date))
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(2)
		for _, contract := range contracts {
			g.Go(func() error {
				rows, err := c.contractRank(gctx, v, contract, date)
				if err != nil {
					if apperr.Is(err, apperr.KindUpstreamBlocked) {
						return err
					}
					c.logger.Warn("获取广期所合约排名失败", zap.String("contract", contract), zap.Error(err))
					return nil
				}
				if len(rows) > 0 {
					mu.Lock()
					tables[strings.ToUpper(contract)] = rows
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func (c *Client) contracts(ctx context.Context, variety, date string) ([]string, error) {
	body, err := c.post(ctx, "gfex_contracts", c.ep.Contracts, url.Values{
		"variety":    {variety},
		"trade_date": {date},
	})
	if err != nil {
		return nil, err
	}
	return ParseContracts(body), nil
}

// contractRank 依次查询成交量、持买、持卖三类数据并按行号对齐
// 单类数据请求失败时该列留空
func (c *Client) contractRank(ctx context.Context, variety, contract, date string) ([]model.RankRow, error) {
	var sections [3][]Entry
	for i := range sections {
		body, err := c.post(ctx, "gfex_rank", c.ep.Rank, url.Values{
			"trade_date":  {date},
			"trade_type":  {"0"},
			"variety":     {variety},
			"contract_id": {contract},
			"data_type":   {strconv.Itoa(i + 1)},
		})
		if err != nil {
			if apperr.Is(err, apperr.KindUpstreamBlocked) {
				return nil, err
			}
			c.logger.Debug("广期所排名数据请求失败", zap.String("contract", contract), zap.Int("data_type", i+1), zap.Error(err))
			continue
		}
		sections[i] = ParseEntries(body)
	}
	return MergeSections(sections, contract, variety), nil
}

// ParseVarieties 解析品种列表 data[].varietyId
func ParseVarieties(body []byte) ([]string, error) {
	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, apperr.Parse("未找到data数组", body)
	}
	var out []string
	data.ForEach(func(_, item gjson.Result) bool {
		if v := item.Get("varietyId").String(); v != "" {
			out = append(out, v)
		}
		return true
	})
	return out, nil
}

// ParseContracts 解析合约列表
// data 元素可能是字符串、数组（取首元素）或对象（取首个值）
func ParseContracts(body []byte) []string {
	var out []string
	gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
		var s string
		switch {
		case item.IsArray():
			s = item.Get("0").String()
		case item.IsObject():
			item.ForEach(func(_, v gjson.Result) bool {
				s = v.String()
				return false
			})
		default:
			s = item.String()
		}
		if s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

// Entry 单类排名中的一行
type Entry struct {
	Name   string
	Qty    int64
	Change int64
}

// ParseEntries 解析单类排名 data[]
// 变化量字段在不同日期为 qtySub 或 todayQtyChg
func ParseEntries(body []byte) []Entry {
	var out []Entry
	gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
		name := strings.TrimSpace(item.Get("abbr").String())
		if name == "" || model.IsSubtotal(name) {
			return true
		}
		chg := item.Get("qtySub")
		if !chg.Exists() {
			chg = item.Get("todayQtyChg")
		}
		out = append(out, Entry{Name: name, Qty: intOf(item.Get("todayQty")), Change: intOf(chg)})
		return true
	})
	return out
}

// MergeSections 将成交量、持买、持卖三段按行号合并为排名行
func MergeSections(sections [3][]Entry, contract, variety string) []model.RankRow {
	n := max(len(sections[0]), len(sections[1]), len(sections[2]))
	symbol := strings.ToUpper(contract)
	rows := make([]model.RankRow, 0, n)
	for i := 0; i < n; i++ {
		vol, long, short := at(sections[0], i), at(sections[1], i), at(sections[2], i)
		rows = append(rows, model.RankRow{
			Rank:                 i + 1,
			VolPartyName:         vol.Name,
			Vol:                  vol.Qty,
			VolChg:               vol.Change,
			LongPartyName:        long.Name,
			LongOpenInterest:     long.Qty,
			LongOpenInterestChg:  long.Change,
			ShortPartyName:       short.Name,
			ShortOpenInterest:    short.Qty,
			ShortOpenInterestChg: short.Change,
			Symbol:               symbol,
			Variety:              strings.ToUpper(variety),
		})
	}
	return rows
}

func at(s []Entry, i int) Entry {
	if i < len(s) {
		return s[i]
	}
	return Entry{}
}

// Warehouse 获取仓单日报
func (c *Client) Warehouse(ctx context.Context, date string) ([]model.GFEXReceipts, error) {
	if err := timeutil.CheckDate(date); err != nil {
		return nil, err
	}
	body, err := c.post(ctx, "gfex_warehouse", c.ep.Warehouse, url.Values{"gen_date": {date}})
	if err != nil {
		return nil, apperr.AsNotFound(err, "广期所 %s 仓单日报无数据，可能是非交易日", date)
	}
	return ParseWarehouse(body)
}

// ParseWarehouse 解析仓单日报并按 varietyOrder 分组
// 没有 whType 的行是品种小计，跳过
func ParseWarehouse(body []byte) ([]model.GFEXReceipts, error) {
	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, apperr.Parse("未找到data数组", body)
	}
	groups := map[string][]model.GFEXReceipt{}
	data.ForEach(func(_, item gjson.Result) bool {
		symbol := strings.ToUpper(item.Get("varietyOrder").String())
		if symbol == "" {
			return true
		}
		if wt := item.Get("whType"); !wt.Exists() || wt.Type == gjson.Null {
			return true
		}
		groups[symbol] = append(groups[symbol], model.GFEXReceipt{
			Variety:      item.Get("variety").String(),
			Warehouse:    item.Get("whAbbr").String(),
			LastReceipt:  intOf(item.Get("lastWbillQty")),
			TodayReceipt: intOf(item.Get("wbillQty")),
			Change:       intOf(item.Get("regWbillQty")),
		})
		return true
	})

	out := make([]model.GFEXReceipts, 0, len(groups))
	for symbol, rows := range groups {
		out = append(out, model.GFEXReceipts{Symbol: symbol, Data: rows})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func intOf(v gjson.Result) int64 {
	if v.Type == gjson.Number {
		return v.Int()
	}
	return fastparse.MustParseInt(v.String())
}
