// Package aggregate 组合查询测试
package aggregate

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/exchange/ppi"
	"market-data-gateway/internal/exchange/shfe"
	"market-data-gateway/internal/transport"
)

func testHTTP() *transport.Client {
	opts := transport.DefaultOptions()
	opts.MaxRetries = 0
	return transport.New(opts, nil)
}

// rankFunc 以函数实现 RankSource
type rankFunc func(ctx context.Context, date string, vars []string) (model.RankTables, error)

func (f rankFunc) Rank(ctx context.Context, date string, vars []string) (model.RankTables, error) {
	return f(ctx, date, vars)
}

const shfeRank = `{"o_cursor":[
 {"INSTRUMENTID":"cu2405","RANK":1,"PARTICIPANTABBR1":"中信期货","CJ1":1000,"CJ1_CHG":10,"CJ2":500,"CJ3":400},
 {"INSTRUMENTID":"cu2405","RANK":2,"PARTICIPANTABBR1":"国泰君安","CJ1":900,"CJ1_CHG":-5,"CJ2":450,"CJ3":390},
 {"INSTRUMENTID":"cu2405","RANK":3,"PARTICIPANTABBR1":"永安期货","CJ1":800,"CJ1_CHG":0,"CJ2":300,"CJ3":380},
 {"INSTRUMENTID":"cu2405","RANK":4,"PARTICIPANTABBR1":"华泰期货","CJ1":700,"CJ1_CHG":3,"CJ2":200,"CJ3":370},
 {"INSTRUMENTID":"cu2405","RANK":5,"PARTICIPANTABBR1":"海通期货","CJ1":600,"CJ1_CHG":1,"CJ2":100,"CJ3":360},
 {"INSTRUMENTID":"cu2405","RANK":6,"PARTICIPANTABBR1":"银河期货","CJ1":500,"CJ1_CHG":1,"CJ2":90,"CJ3":350},
 {"INSTRUMENTID":"cu2405","RANK":999,"PARTICIPANTABBR1":"期货公司合计","CJ1":4500},
 {"INSTRUMENTID":"cu2406","RANK":1,"PARTICIPANTABBR1":"中信期货","CJ1":50,"CJ2":20,"CJ3":10},
 {"INSTRUMENTID":"al2405","RANK":1,"PARTICIPANTABBR1":"中信期货","CJ1":300}
]}`

// 端到端：上期所排名经汇总后 top5 等于 rank 1..5 的成交量之和
func TestRanker_SumSHFEAndFailingCFFEX(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/pm20240315.dat"), r.URL.Path)
		w.Write([]byte(shfeRank))
	}))
	defer srv.Close()

	var dceCalls, cffexCalls int32
	dce := rankFunc(func(context.Context, string, []string) (model.RankTables, error) {
		atomic.AddInt32(&dceCalls, 1)
		return nil, nil
	})
	cffex := rankFunc(func(_ context.Context, _ string, vars []string) (model.RankTables, error) {
		atomic.AddInt32(&cffexCalls, 1)
		assert.Equal(t, []string{"IF"}, vars)
		return nil, apperr.Blocked("中金所拒绝访问")
	})
	shfeClient := shfe.NewClient(testHTTP(), shfe.Endpoints{DailyData: srv.URL}, nil)

	r := NewRanker(RankExchanges(dce, shfeClient, nil, cffex, nil), nil)
	got, err := r.Sum(context.Background(), "20240315", []string{"cu", "IF"})
	require.NoError(t, err)

	assert.Equal(t, int32(0), atomic.LoadInt32(&dceCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&cffexCalls))

	// al2405 被品种过滤，CU 合计行排在合约行之前
	require.Len(t, got, 3)
	assert.Equal(t, "CU", got[0].Symbol)
	assert.Equal(t, "CU2405", got[1].Symbol)
	assert.Equal(t, "CU2406", got[2].Symbol)

	cu := got[1]
	assert.Equal(t, "CU", cu.Variety)
	assert.Equal(t, "20240315", cu.Date)
	assert.Equal(t, int64(1000+900+800+700+600), cu.VolTop5)
	assert.Equal(t, int64(9), cu.VolChgTop5)
	assert.Equal(t, int64(1000+900+800+700+600+500), cu.VolTop10)
	assert.Equal(t, int64(1550), cu.LongOpenInterestTop5)

	assert.Equal(t, cu.VolTop5+got[2].VolTop5, got[0].VolTop5)
	assert.Equal(t, "CU", got[0].Variety)
}

func TestRanker_BadDate(t *testing.T) {
	r := NewRanker(nil, nil)
	_, err := r.Sum(context.Background(), "2024-03-15", nil)
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))

	_, err = r.SumDaily(context.Background(), "20240310", "20240301", nil)
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))

	// 超长区间在请求上游之前被拒绝
	_, err = r.SumDaily(context.Background(), "19000101", "29991231", nil)
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))
}

func TestRanker_SumDailySkipsFailedDays(t *testing.T) {
	src := rankFunc(func(_ context.Context, date string, _ []string) (model.RankTables, error) {
		if date == "20240316" {
			return nil, apperr.NotFound("上期所 %s 无数据", date)
		}
		return model.RankTables{"RB2410": {{Rank: 1, Vol: 10, Symbol: "RB2410", Variety: "RB"}}}, nil
	})
	r := NewRanker([]RankExchange{{Code: "SHFE", Varieties: []string{"RB"}, Source: src}}, nil)

	got, err := r.SumDaily(context.Background(), "20240315", "20240317", nil)
	require.NoError(t, err)
	// 每个交易日一行合约、一行品种合计
	require.Len(t, got, 4)
	assert.Equal(t, "20240315", got[0].Date)
	assert.Equal(t, "20240317", got[3].Date)
}

func TestRanker_CancelledContext(t *testing.T) {
	src := rankFunc(func(ctx context.Context, _ string, _ []string) (model.RankTables, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	r := NewRanker([]RankExchange{{Code: "SHFE", Varieties: []string{"CU"}, Source: src}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Sum(ctx, "20240315", nil)
	assert.Equal(t, apperr.KindUpstreamTimeout, apperr.KindOf(err))
}

// **Feature: market-data-gateway, Property 14: Variety Total Consistency**

// TestSumTables_VarietyTotal 测试品种合计行等于其各合约汇总之和
func TestSumTables_VarietyTotal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("品种合计 = 各合约 top5 之和，郑商所品种无合计行", prop.ForAll(
		func(a, b, c []int64) bool {
			rows := func(vols []int64) []model.RankRow {
				out := make([]model.RankRow, len(vols))
				for i, v := range vols {
					out[i] = model.RankRow{Rank: i + 1, Vol: v}
				}
				return out
			}
			tables := model.RankTables{
				"CU2405": rows(a),
				"CU2406": rows(b),
				"AP405":  rows(c),
			}
			sums := SumTables(tables, "20240315")
			bySymbol := make(map[string]model.RankSum, len(sums))
			for _, s := range sums {
				bySymbol[s.Symbol] = s
			}
			_, hasAP := bySymbol["AP"]
			return len(sums) == 4 && !hasAP &&
				bySymbol["CU"].VolTop5 == bySymbol["CU2405"].VolTop5+bySymbol["CU2406"].VolTop5 &&
				bySymbol["CU"].VolTop20 == bySymbol["CU2405"].VolTop20+bySymbol["CU2406"].VolTop20
		},
		gen.SliceOf(gen.Int64Range(0, 1_000_000)),
		gen.SliceOf(gen.Int64Range(0, 1_000_000)),
		gen.SliceOf(gen.Int64Range(0, 1_000_000)),
	))

	properties.TestingRun(t)
}

const spotDay = `<html><body><table id="fdata">
<tr><td>商品</td><td>现货价格</td><td>最近合约代码</td><td>最近合约价格</td><td>基差</td><td>基差率</td><td>180日</td><td>主力合约代码</td><td>主力合约价格</td><td>基差</td></tr>
<tr><td>铜</td><td>70000</td><td>2403</td><td>70350</td><td>350</td><td>0.5%</td><td>-</td><td>2405</td><td>70700</td><td>700</td></tr>
</table></body></html>`

// 端到端：节假日返回 404，结果只包含其余两个交易日
func TestSpot_DailySkipsHoliday(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "day-2024-01-01.html") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(spotDay))
	}))
	defer srv.Close()

	src := ppi.NewClient(testHTTP(), ppi.Endpoints{Spot: srv.URL + "/sf", SpotPrevious: srv.URL + "/sf2"}, nil)
	got, err := NewSpot(src, nil).Daily(context.Background(), "20240101", "20240103", nil)
	require.NoError(t, err)

	assert.Len(t, paths, 3)
	require.Len(t, got, 2)
	assert.Equal(t, "20240102", got[0].Date)
	assert.Equal(t, "20240103", got[1].Date)
	for _, p := range got {
		assert.True(t, math.Abs(p.NearBasis-(p.NearContractPrice-p.SpotPrice)) < 1e-9)
		assert.True(t, math.Abs(p.DomBasis-(p.DominantContractPrice-p.SpotPrice)) < 1e-9)
	}
}

// spotFunc 以函数实现 SpotSource
type spotFunc func(ctx context.Context, date string, symbols []string) ([]model.SpotPrice, error)

func (f spotFunc) SpotPrice(ctx context.Context, date string, symbols []string) ([]model.SpotPrice, error) {
	return f(ctx, date, symbols)
}

func TestSpot_DailyBadRange(t *testing.T) {
	s := NewSpot(spotFunc(func(context.Context, string, []string) ([]model.SpotPrice, error) {
		t.Fatal("不应请求上游")
		return nil, nil
	}), nil)
	_, err := s.Daily(context.Background(), "20240105", "20240101", nil)
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))

	_, err = s.Daily(context.Background(), "19000101", "29991231", nil)
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))
}

func TestSpot_DailyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s := NewSpot(spotFunc(func(ctx context.Context, _ string, _ []string) ([]model.SpotPrice, error) {
		calls++
		cancel()
		return nil, ctx.Err()
	}), nil)
	_, err := s.Daily(ctx, "20240101", "20240110", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}
