// Package decoder 为 CSV 输入挑选最合理的字符编码。
//
// 生产方不会声明编码，而所有传统单字节编码解码时都不会报错，
// 所以只能按语言合理性打分：正常文字加分、替换字符重罚。
package decoder

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode/utf32"

	xunicode "golang.org/x/text/encoding/unicode"
)

// candidate 候选编码（顺序即打分平局时的优先级）
type candidate struct {
	name string
	enc  encoding.Encoding
}

var candidates = []candidate{
	{"UTF-8", xunicode.UTF8},
	{"EUC-KR", korean.EUCKR},
	{"UTF-16LE", xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)},
	{"UTF-16BE", xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM)},
	{"GBK", simplifiedchinese.GBK},
	{"Shift_JIS", japanese.ShiftJIS},
	{"Windows-1252", charmap.Windows1252},
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeText 解码 CSV 字节流，返回文本与所用编码名
//
// 有 BOM 时剥掉 BOM 直接按对应编码解码，不进入打分流程。
func DecodeText(data []byte) (string, string) {
	if bytes.HasPrefix(data, bomUTF8) {
		text, _ := decodeWith(xunicode.UTF8, data[len(bomUTF8):])
		return text, "UTF-8"
	}
	// UTF-32 BOM 是 FF FE 00 00，要在 UTF-16LE 之前判
	if len(data) >= 4 && data[0] == 0xFF && data[1] == 0xFE && data[2] == 0x00 && data[3] == 0x00 {
		text, _ := decodeWith(utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), data[4:])
		return text, "UTF-32LE"
	}
	if bytes.HasPrefix(data, bomUTF16LE) {
		text, _ := decodeWith(xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM), data[len(bomUTF16LE):])
		return text, "UTF-16LE"
	}
	if bytes.HasPrefix(data, bomUTF16BE) {
		text, _ := decodeWith(xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM), data[len(bomUTF16BE):])
		return text, "UTF-16BE"
	}

	bestText := ""
	bestName := ""
	bestScore := 0
	for _, c := range candidates {
		text, ok := decodeWith(c.enc, data)
		if !ok {
			continue
		}
		// 严格大于：平局保留先尝试的候选
		if score := scoreText(text); bestName == "" || score > bestScore {
			bestText = text
			bestName = c.name
			bestScore = score
		}
	}

	// 所有候选都打不出正分时，问一次 chardet 的弱先验
	if bestScore <= 0 {
		if name, enc := detectFallback(data); enc != nil {
			if text, ok := decodeWith(enc, data); ok {
				return text, name
			}
		}
	}

	return bestText, bestName
}

// decodeWith 用指定编码解码全部字节
func decodeWith(enc encoding.Encoding, data []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// scoreText 语言合理性打分
//
// score = 常用文字数 − 10 × 替换字符数。常用文字取谚文、汉字、
// 假名与 ASCII 字母数字，覆盖订单文件的实际语料。
func scoreText(text string) int {
	score := 0
	for _, r := range text {
		switch {
		case r == utf8.RuneError:
			score -= 10
		case unicode.Is(unicode.Hangul, r),
			unicode.Is(unicode.Han, r),
			unicode.Is(unicode.Hiragana, r),
			unicode.Is(unicode.Katakana, r):
			score++
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			score++
		}
	}
	return score
}

// detectFallback 把 chardet 的判定映射回候选表
func detectFallback(data []byte) (string, encoding.Encoding) {
	det, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || det == nil {
		return "", nil
	}
	name := strings.ToUpper(det.Charset)
	for _, c := range candidates {
		if strings.EqualFold(c.name, name) {
			return c.name, c.enc
		}
	}
	switch name {
	case "EUC-KR", "CP949", "KS_C_5601-1987":
		return "EUC-KR", korean.EUCKR
	case "GB18030", "GB-18030":
		return "GBK", simplifiedchinese.GBK
	case "ISO-8859-1":
		return "Windows-1252", charmap.Windows1252
	default:
		return "", nil
	}
}
