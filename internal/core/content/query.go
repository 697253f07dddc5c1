package content

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Op Strapi 篩選運算子
type Op string

const (
	OpEq  Op = "$eq"
	OpEqI Op = "$eqi" // 不分大小寫
)

// Filter 單一篩選條件，Path 可跨關聯，例如 ["owner", "id"]
type Filter struct {
	Path  []string
	Op    Op
	Value string
}

// Eq 建立等值篩選
func Eq(value string, path ...string) Filter {
	return Filter{Path: path, Op: OpEq, Value: value}
}

// EqI 建立不分大小寫的等值篩選
func EqI(value string, path ...string) Filter {
	return Filter{Path: path, Op: OpEqI, Value: value}
}

// Query 集合查詢條件
type Query struct {
	Filters  []Filter
	Populate []string
	Sort     []string
	PageSize int
	// Page 從 1 起算，0 表示不指定
	Page int
}

// Values 轉換為 Strapi 查詢參數
func (q Query) Values() url.Values {
	values := url.Values{}
	for _, f := range q.Filters {
		values.Add(f.key(), f.Value)
	}
	for i, p := range q.Populate {
		values.Add(fmt.Sprintf("populate[%d]", i), p)
	}
	if len(q.Sort) > 0 {
		values.Set("sort", strings.Join(q.Sort, ","))
	}
	if q.PageSize > 0 {
		values.Set("pagination[pageSize]", strconv.Itoa(q.PageSize))
	}
	if q.Page > 0 {
		values.Set("pagination[page]", strconv.Itoa(q.Page))
	}
	return values
}

func (f Filter) key() string {
	var b strings.Builder
	b.WriteString("filters")
	for _, p := range f.Path {
		b.WriteString("[")
		b.WriteString(p)
		b.WriteString("]")
	}
	op := f.Op
	if op == "" {
		op = OpEq
	}
	b.WriteString("[")
	b.WriteString(string(op))
	b.WriteString("]")
	return b.String()
}
