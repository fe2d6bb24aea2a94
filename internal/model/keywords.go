package model

import "strings"

// 多语言关键词表（韩/英/中）
//
// 订单文件来自不同地区的办公套件导出，字段名没有统一口径，
// 只能按关键词做大小写不敏感的子串匹配。
var (
	productKeywords = []string{
		"상품명", "제품명", "품명", "품목", "상품", "제품",
		"product", "item", "goods", "sku",
		"商品", "品名", "产品", "货品",
	}
	quantityKeywords = []string{
		"수량", "개수", "갯수", "주문수량",
		"qty", "quantity", "count", "pcs",
		"数量", "件数",
	}
	priceKeywords = []string{
		"가격", "단가", "금액", "합계", "총액", "판매가", "공급가",
		"price", "amount", "total", "cost", "fee",
		"价格", "单价", "金额", "合计", "总额",
	}
	customerKeywords = []string{
		"고객명", "주문자", "수취인", "받는사람", "받는분", "구매자",
		"customer", "buyer", "recipient", "receiver",
		"客户", "买家", "收件人", "姓名",
	}
	phoneKeywords = []string{
		"전화", "연락처", "휴대폰", "핸드폰",
		"phone", "tel", "mobile",
		"电话", "手机", "联系方式",
	}
	addressKeywords = []string{
		"주소", "배송지", "수령지",
		"address", "addr",
		"地址", "收货地址",
	}
	emailKeywords = []string{
		"이메일", "메일",
		"email", "e-mail",
		"邮箱", "邮件",
	}
	dateTimeKeywords = []string{
		"날짜", "일자", "일시", "시간", "주문일", "결제일", "발송일", "납기",
		"date", "time", "datetime",
		"日期", "时间", "订单日",
	}
)

func containsAnyFold(text string, keywords []string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsProductField 判断字段名是否属于商品/品目类
func IsProductField(name string) bool {
	return containsAnyFold(name, productKeywords)
}

// IsQuantityField 判断字段名是否属于数量类
func IsQuantityField(name string) bool {
	return containsAnyFold(name, quantityKeywords)
}

// IsPriceField 判断字段名是否属于价格/金额类
func IsPriceField(name string) bool {
	return containsAnyFold(name, priceKeywords)
}

// IsCustomerField 判断字段名是否属于客户姓名类
func IsCustomerField(name string) bool {
	return containsAnyFold(name, customerKeywords)
}

// IsPhoneField 判断字段名是否属于电话类
func IsPhoneField(name string) bool {
	return containsAnyFold(name, phoneKeywords)
}

// IsAddressField 判断字段名是否属于地址类
func IsAddressField(name string) bool {
	return containsAnyFold(name, addressKeywords)
}

// IsEmailField 判断字段名是否属于邮箱类
func IsEmailField(name string) bool {
	return containsAnyFold(name, emailKeywords)
}

// IsDateTimeField 判断字段名是否属于日期/时间类
func IsDateTimeField(name string) bool {
	return containsAnyFold(name, dateTimeKeywords)
}
