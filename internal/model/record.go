package model

// FileFormat 输入文件格式
type FileFormat string

const (
	FormatCSV          FileFormat = "csv"
	FormatLegacyBinary FileFormat = "legacy_binary"
	FormatZipBased     FileFormat = "zip_based"
	FormatUnknown      FileFormat = "unknown"
)

// HeaderSelection 表头识别结果
//
// RowIndex 为得分最高的候选行中最靠前的一行；
// Columns 与 Fields 一一对应，记录字段所在的原始列偏移。
type HeaderSelection struct {
	RowIndex int
	Fields   []string
	Columns  []int
}

// SourceRecord 规整化后的源记录（字段名 → 单元格值）
//
// 键严格等于 HeaderSelection.Fields；重复表头后写覆盖先写。
type SourceRecord map[string]CellValue

// TargetRecord 映射引擎产出的目标记录（目标字段 → 已解析标量）
type TargetRecord map[string]string

// RowError 单行转换失败记录（整体请求继续）
type RowError struct {
	RowIndex int    `json:"rowIndex"`
	Message  string `json:"message"`
}

// ConvertResult 一次转换请求的结果
type ConvertResult struct {
	FileName          string     `json:"fileName"`
	Format            FileFormat `json:"format"`
	SheetName         string     `json:"sheetName,omitempty"`
	Encoding          string     `json:"encoding,omitempty"`
	ProcessedRowCount int        `json:"processedRowCount"`
	Errors            []RowError `json:"errors"`
	Output            []byte     `json:"-"`
}
