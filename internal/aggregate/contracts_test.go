package aggregate

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
)

func u64(v uint64) *uint64 { return &v }

// fakeSina 品种映射与节点列表
type fakeSina struct {
	mu     sync.Mutex
	marks  map[string][]model.SymbolMark
	nodes  map[string][]model.FuturesQuote
	limits map[string]int
}

func (f *fakeSina) ByExchange(_ context.Context, name string) ([]model.SymbolMark, error) {
	return f.marks[name], nil
}

func (f *fakeSina) ByNode(_ context.Context, node string, limit int) ([]model.FuturesQuote, error) {
	f.mu.Lock()
	f.limits[node] = limit
	f.mu.Unlock()
	quotes, ok := f.nodes[node]
	if !ok {
		return nil, apperr.Status("sina_list", 500)
	}
	if limit > 0 && limit < len(quotes) {
		quotes = quotes[:limit]
	}
	return quotes, nil
}

func newFakeSina() *fakeSina {
	return &fakeSina{
		marks: map[string][]model.SymbolMark{
			"上海期货交易所": {
				{Exchange: "上海期货交易所", Symbol: "沪铜", Mark: "tong_qh"},
				{Exchange: "上海期货交易所", Symbol: "沪铝", Mark: "lv_qh"},
				{Exchange: "上海期货交易所", Symbol: "沪锌", Mark: "xin_qh"},
			},
			"大连商品交易所": {
				{Exchange: "大连商品交易所", Symbol: "豆一", Mark: "dou1_qh"},
			},
		},
		nodes: map[string][]model.FuturesQuote{
			"tong_qh": {
				{Symbol: "CU0", Name: "沪铜连续", OpenInterest: u64(10)},
				{Symbol: "CU2405", Name: "沪铜2405", OpenInterest: u64(300)},
				{Symbol: "CU2406", Name: "沪铜2406", OpenInterest: u64(500)},
			},
			"lv_qh": {
				{Symbol: "AL2405", Name: "沪铝2405", OpenInterest: u64(200)},
				{Symbol: "AL0", Name: "沪铝连续", OpenInterest: nil},
			},
			"dou1_qh": {
				{Symbol: "A2405", Name: "豆一2405", OpenInterest: u64(900)},
			},
		},
		limits: map[string]int{},
	}
}

func TestContracts_Main(t *testing.T) {
	f := newFakeSina()
	c := NewContracts(f, f, nil)

	got, err := c.Main(context.Background(), "shfe")
	require.NoError(t, err)
	// 沪锌节点失败被跳过，其余保持映射顺序
	assert.Equal(t, []string{"CU2406", "AL2405"}, got)
	assert.Equal(t, mainScanLimit, f.limits["tong_qh"])

	_, err = c.Main(context.Background(), "XYZ")
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))
}

func TestContracts_ListMain(t *testing.T) {
	f := newFakeSina()
	c := NewContracts(f, f, nil)

	got, err := c.ListMain(context.Background(), "", 0)
	require.NoError(t, err)
	// 上期所前 2 个品种 + 大商所 1 个品种，各取 1 个合约，按持仓量降序
	require.Len(t, got, 3)
	assert.Equal(t, "A2405", got[0].Symbol)
	assert.Equal(t, "AL2405", got[1].Symbol)
	assert.Equal(t, "CU0", got[2].Symbol)
	_, scanned := f.limits["xin_qh"]
	assert.False(t, scanned)

	got, err = c.ListMain(context.Background(), "SHFE", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AL2405", got[0].Symbol)
}

func TestContracts_Display(t *testing.T) {
	f := newFakeSina()
	c := NewContracts(f, f, nil)

	got, err := c.Display(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.MainContract{Symbol: "CU0", Name: "沪铜连续", Exchange: "SHFE"}, got[0])
	assert.Equal(t, "AL0", got[1].Symbol)
	assert.Equal(t, 0, f.limits["tong_qh"])
}
