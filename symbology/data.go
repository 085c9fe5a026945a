package symbology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// FIDField 是每个要素隐含的编号字段。
const FIDField = "FID"

// ColumnKind 是从数据推断出的字段类型。
type ColumnKind int

const (
	KindUnknown ColumnKind = iota
	KindString
	KindNumber
	KindBool
)

func (k ColumnKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Column 描述属性表中的一列。
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// DataTable 是要素属性表。列顺序与数据中首次出现的顺序一致，FID 总在第一列。
type DataTable struct {
	Columns []Column         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// NewDataTable builds a table from rows, adding FID and inferring columns.
// keyOrder lists column names in the order they should appear; names missing
// from it are appended in sorted order.
func NewDataTable(rows []map[string]any, keyOrder []string) *DataTable {
	t := &DataTable{Rows: rows}
	kinds := map[string]ColumnKind{}
	var names []string
	add := func(name string) {
		if _, ok := kinds[name]; ok {
			return
		}
		kinds[name] = KindUnknown
		names = append(names, name)
	}
	add(FIDField)
	for _, k := range keyOrder {
		add(k)
	}
	var extra []string
	for i, row := range rows {
		if _, ok := row[FIDField]; !ok {
			row[FIDField] = i
		}
		for k := range row {
			if _, ok := kinds[k]; !ok && !slices.Contains(extra, k) {
				extra = append(extra, k)
			}
		}
	}
	slices.Sort(extra)
	for _, k := range extra {
		add(k)
	}
	for _, row := range rows {
		for _, name := range names {
			kinds[name] = mergeKind(kinds[name], kindOf(row[name]))
		}
	}
	t.Columns = make([]Column, len(names))
	for i, n := range names {
		t.Columns[i] = Column{Name: n, Kind: kinds[n]}
	}
	return t
}

func kindOf(v any) ColumnKind {
	switch v.(type) {
	case string:
		return KindString
	case float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return KindNumber
	case bool:
		return KindBool
	}
	return KindUnknown
}

func mergeKind(a, b ColumnKind) ColumnKind {
	switch {
	case a == KindUnknown:
		return b
	case b == KindUnknown || a == b:
		return a
	}
	// 混合类型按字符串处理。
	return KindString
}

// FieldNames returns the column names.
func (t *DataTable) FieldNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the column with the given name.
func (t *DataTable) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t *DataTable) Len() int { return len(t.Rows) }

func (t *DataTable) Row(i int) map[string]any { return t.Rows[i] }

// decodeRows reads a JSON array of objects and keeps the key order of the
// objects as they appear.
func decodeRows(raw []json.RawMessage) ([]map[string]any, []string, error) {
	rows := make([]map[string]any, 0, len(raw))
	var order []string
	for i, r := range raw {
		row, keys, err := decodeObject(r)
		if err != nil {
			return nil, nil, fmt.Errorf("第 %d 行: %w", i+1, err)
		}
		for _, k := range keys {
			if !slices.Contains(order, k) {
				order = append(order, k)
			}
		}
		rows = append(rows, row)
	}
	return rows, order, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, []string, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return map[string]any{}, nil, nil
	}
	row := map[string]any{}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	var keys []string
	depth := 0
	expectKey := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				depth++
				expectKey = v == '{' && depth == 1
			case '}', ']':
				depth--
				expectKey = depth == 1
			}
			continue
		case string:
			if depth == 1 && expectKey {
				keys = append(keys, v)
				expectKey = false
				continue
			}
		}
		if depth == 1 {
			expectKey = true
		}
	}
	return row, keys, nil
}
