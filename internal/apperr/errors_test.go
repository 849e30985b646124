// Package apperr 错误分类测试
package apperr

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestStatus_BlockedCodes(t *testing.T) {
	for _, code := range []int{403, 412, 456} {
		if k := KindOf(Status("大商所", code)); k != KindUpstreamBlocked {
			t.Fatalf("状态码 %d 应为 UpstreamBlocked，实际 %s", code, k)
		}
	}
	if k := KindOf(Status("上期所", 500)); k != KindUpstreamStatus {
		t.Fatalf("500 应为 UpstreamStatus，实际 %s", k)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindBadInput:        http.StatusBadRequest,
		KindNotFound:        http.StatusNotFound,
		KindUpstreamBlocked: http.StatusServiceUnavailable,
		KindParse:           http.StatusInternalServerError,
		KindUpstreamStatus:  http.StatusInternalServerError,
		KindUpstreamTimeout: http.StatusInternalServerError,
		KindInternal:        http.StatusInternalServerError,
	}
	for k, want := range cases {
		if got := HTTPStatus(k); got != want {
			t.Fatalf("%s: 期望 %d，实际 %d", k, want, got)
		}
	}
}

func TestKindOf_WrappedChain(t *testing.T) {
	base := Parse("API返回空数据", nil)
	wrapped := fmt.Errorf("获取行情失败: %w", base)
	if KindOf(wrapped) != KindParse {
		t.Fatalf("包装后应保留 ParseError 类型")
	}
	if KindOf(fmt.Errorf("plain")) != KindInternal {
		t.Fatalf("普通错误应视为 Internal")
	}
	if base.Error() != "API返回空数据" {
		t.Fatalf("无片段时消息应保持原样: %q", base.Error())
	}
}

func TestTransport_Timeout(t *testing.T) {
	err := Transport("新浪", context.DeadlineExceeded)
	if err.Kind != KindUpstreamTimeout {
		t.Fatalf("DeadlineExceeded 应为 UpstreamTimeout，实际 %s", err.Kind)
	}
}

// **Feature: market-data-gateway, Property 1: Excerpt Truncation**

// TestTruncate_Bounded 测试上游片段截断
// 属性: 截断结果是合法 UTF-8，且长度不超过上限加省略号
func TestTruncate_Bounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("截断结果合法且有界", prop.ForAll(
		func(s string, repeat int) bool {
			in := strings.Repeat(s+"合约", repeat)
			out := Truncate([]byte(in))
			if !utf8.ValidString(out) {
				return false
			}
			return len(out) <= maxExcerptLen+len("...")
		},
		gen.AnyString(),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

func TestAsNotFound(t *testing.T) {
	err := AsNotFound(Status("shfe", 404), "上期所 %s 无数据", "20240101")
	if KindOf(err) != KindNotFound || err.Error() != "上期所 20240101 无数据" {
		t.Fatalf("404 应转为 NotFound，实际 %v (%v)", KindOf(err), err)
	}
	if KindOf(AsNotFound(Status("shfe", 500), "x")) != KindUpstreamStatus {
		t.Fatalf("500 不应被转换")
	}
	if AsNotFound(nil, "x") != nil {
		t.Fatalf("nil 应原样返回")
	}
}
