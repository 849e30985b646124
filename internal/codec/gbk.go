// Package codec 提供上游报文的解码工具。
// 覆盖 GBK 转码、JSONP 外壳剥离、ZIP 展开、Excel 读取与 HTML 表格遍历，
// 各适配器只组合这些步骤，不直接处理字符集与容器格式。
package codec

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DecodeGBK 将 GBK/GB18030 字节转为 UTF-8 字符串
// 无法映射的字节替换为 U+FFFD，不返回错误
func DecodeGBK(b []byte) string {
	r := transform.NewReader(bytes.NewReader(b), simplifiedchinese.GB18030.NewDecoder())
	out, err := io.ReadAll(r)
	if err != nil {
		// GB18030 解码器对非法序列输出替换字符，这里仅在读流异常时兜底
		return string(bytes.ToValidUTF8(b, []byte("\uFFFD")))
	}
	return string(out)
}

// DecodeUTF8OrGBK 优先按 UTF-8 解码，非法时回退 GBK
// 交易所 ZIP 内的文本文件两种编码都有
func DecodeUTF8OrGBK(b []byte) string {
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	if utf8.Valid(b) {
		return string(b)
	}
	return DecodeGBK(b)
}
