package codec

import (
	"bytes"
	"errors"
	"regexp"

	"github.com/tidwall/gjson"
)

// ErrNoEnvelope 响应中找不到 JSONP 括号
var ErrNoEnvelope = errors.New("未找到 JSONP 括号")

// UnwrapJSONP 剥离 JSONP 外壳
// 支持 prefix(<json>);、var _x=(<json>)、...=[<json>]; 三种形式：
// 以第一个 "(" 或 "[" 为起点做括号配对，"(" 返回括号内的内容，"[" 返回包含外层方括号的数组。
// 字符串字面量内的括号不参与配对。
func UnwrapJSONP(body []byte) ([]byte, error) {
	start := bytes.IndexAny(body, "([")
	if start < 0 {
		return nil, ErrNoEnvelope
	}
	end := matchBracket(body, start)
	if end < 0 {
		// 外壳被截断时退化为最后一个同类闭括号
		closer := byte(')')
		if body[start] == '[' {
			closer = ']'
		}
		end = bytes.LastIndexByte(body, closer)
		if end <= start {
			return nil, ErrNoEnvelope
		}
	}
	if body[start] == '(' {
		return bytes.TrimSpace(body[start+1 : end]), nil
	}
	return body[start : end+1], nil
}

// matchBracket 返回与 body[start] 配对的闭括号下标，未找到返回 -1
func matchBracket(body []byte, start int) int {
	depth := 0
	var quote byte
	escaped := false
	for i := start; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var bareKeyRe = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

// NormalizeJSON 将 JS 对象字面量规整为合法 JSON
// 新浪部分接口返回 {day:"2024-01-02"} 这类未加引号的键
func NormalizeJSON(b []byte) []byte {
	if gjson.ValidBytes(b) {
		return b
	}
	return bareKeyRe.ReplaceAll(b, []byte(`$1"$2":`))
}

// JSONPArray 剥离外壳并返回数组解析结果
// 返回: gjson 数组；外壳缺失或内容不是合法 JSON 时返回错误
func JSONPArray(body []byte) (gjson.Result, error) {
	inner, err := UnwrapJSONP(body)
	if err != nil {
		return gjson.Result{}, err
	}
	inner = NormalizeJSON(inner)
	if !gjson.ValidBytes(inner) {
		return gjson.Result{}, errors.New("JSONP 内容不是合法 JSON")
	}
	return gjson.ParseBytes(inner), nil
}
