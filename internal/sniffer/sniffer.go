// Package sniffer 通过文件头字节识别上传文件的真实格式。
//
// 扩展名只作为弱先验，字节证据永远优先：命名为 .xls 但实际是
// ZIP 容器的文件必须按 ZIP 处理。
package sniffer

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"orderbridge/internal/model"
)

// OLE2 复合文档签名（传统二进制工作簿）
var ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ZIP 本地文件头版本字节：标准 / 空档案 / 分卷
var zipVersionBytes = []byte{0x03, 0x05, 0x07}

// Classify 识别文件格式
//
// 不足 4 字节时返回 FormatUnknown（不报错），由调用方映射为
// "不支持的格式" 错误。
func Classify(data []byte) model.FileFormat {
	if len(data) < 4 {
		return model.FormatUnknown
	}

	if data[0] == 'P' && data[1] == 'K' && bytes.IndexByte(zipVersionBytes, data[2]) >= 0 {
		return model.FormatZipBased
	}

	if len(data) >= len(ole2Magic) && bytes.Equal(data[:len(ole2Magic)], ole2Magic) {
		return model.FormatLegacyBinary
	}

	if looksLikeText(data) {
		return model.FormatCSV
	}

	return model.FormatUnknown
}

// ClassifyWithName 结合文件名识别格式
//
// 字节能判定时以字节为准；只有字节判定为 Unknown 且扩展名
// 明确时才采信扩展名。
func ClassifyWithName(data []byte, fileName string) model.FileFormat {
	format := Classify(data)
	if format != model.FormatUnknown {
		return format
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return model.FormatCSV
	case ".xls":
		return model.FormatLegacyBinary
	case ".xlsx":
		return model.FormatZipBased
	default:
		return model.FormatUnknown
	}
}

// CheckLegacySize 受限部署下的传统格式大小闸门
//
// 超限是策略性硬拒绝而非格式问题，单独错误码便于前端提示
// "请另存为新版格式"。maxBytes <= 0 表示不限制。
func CheckLegacySize(data []byte, maxBytes int64) error {
	if maxBytes <= 0 {
		return nil
	}
	if int64(len(data)) > maxBytes {
		return model.NewConvertError(model.CodeLegacyFileTooLarge,
			fmt.Sprintf("传统格式文件过大 (%d 字节，上限 %d)，请另存为 xlsx 后重试", len(data), maxBytes))
	}
	return nil
}

// looksLikeText 粗判是否为文本内容（CSV 路径）
func looksLikeText(data []byte) bool {
	limit := len(data)
	if limit > 512 {
		limit = 512
	}
	for i := 0; i < limit; i++ {
		b := data[i]
		if b == 0x09 || b == 0x0A || b == 0x0D {
			continue
		}
		if b < 0x20 && b != 0x1B {
			// UTF-16 文本会含 NUL，BOM 开头的单独放行
			if b == 0x00 && hasUTF16BOM(data) {
				continue
			}
			return false
		}
	}
	return true
}

func hasUTF16BOM(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	return (data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)
}
