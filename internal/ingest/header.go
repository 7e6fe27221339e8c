package ingest

// header.go resolves human-authored column headers to the canonical
// product schema. Supplier exports label the same column many ways
// ("平台价", "采购价", "成本", ...), so each canonical field carries an
// ordered list of accepted labels and resolution runs two passes: exact
// case-insensitive equality first, then substring containment.

import "strings"

// Field is a canonical product column name.
type Field string

const (
	FieldSKU           Field = "sku"
	FieldName          Field = "name"
	FieldSpec          Field = "spec"
	FieldUnit          Field = "unit"
	FieldPlatformPrice Field = "platformPrice"
	FieldChannelPrice  Field = "channelPrice"
	FieldRetailPrice   Field = "retailPrice"
	FieldImage         Field = "image"
	FieldManufacturer  Field = "manufacturer"
	FieldCategory      Field = "category"
)

// Fields lists every canonical field in import order.
var Fields = []Field{
	FieldSKU,
	FieldName,
	FieldSpec,
	FieldUnit,
	FieldPlatformPrice,
	FieldChannelPrice,
	FieldRetailPrice,
	FieldImage,
	FieldManufacturer,
	FieldCategory,
}

// Synonyms maps each canonical field to the header labels accepted for it,
// in priority order. Matching is case-insensitive.
var Synonyms = map[Field][]string{
	FieldSKU:           {"SKU编码", "sku", "编号", "SKU"},
	FieldName:          {"产品名称", "品名", "名称", "选品名称"},
	FieldSpec:          {"规格", "尺寸", "参数"},
	FieldUnit:          {"单位", "量词"},
	FieldPlatformPrice: {"平台价", "采购价", "成本", "采购单价"},
	FieldChannelPrice:  {"渠道价", "分销价", "结算价"},
	FieldRetailPrice:   {"零售价", "市场价", "市场零售价"},
	FieldImage:         {"素材CDN", "图片", "链接", "图片URL"},
	FieldManufacturer:  {"厂商名称", "厂家", "品牌"},
	FieldCategory:      {"电商分类", "分类", "类目"},
}

// ColumnNotFound marks a canonical field with no matching header column.
const ColumnNotFound = -1

// ResolveHeader maps each canonical field to its column index in the
// header row, or ColumnNotFound. Resolution is deterministic: columns are
// scanned left to right and the lowest matching index wins. Header columns
// outside the synonym table are ignored.
func ResolveHeader(header []string) map[Field]int {
	resolved := make(map[Field]int, len(Fields))
	for _, f := range Fields {
		resolved[f] = resolveField(header, Synonyms[f])
	}
	return resolved
}

// resolveField finds the first column matching any synonym: an exact
// case-insensitive pass over all columns, then a containment pass.
func resolveField(header []string, synonyms []string) int {
	for i, cell := range header {
		cell = strings.TrimSpace(cell)
		for _, syn := range synonyms {
			if strings.EqualFold(cell, syn) {
				return i
			}
		}
	}
	for i, cell := range header {
		lower := strings.ToLower(cell)
		for _, syn := range synonyms {
			if strings.Contains(lower, strings.ToLower(syn)) {
				return i
			}
		}
	}
	return ColumnNotFound
}
