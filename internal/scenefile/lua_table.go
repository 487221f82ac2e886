package scenefile

import (
	"strings"

	rt "github.com/arnodel/golua/runtime"
)

// getTableBool retrieves a boolean from a Lua table. The strings "true",
// "yes" and "1" count as true. Returns nil if the key is absent.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if b, ok := val.TryBool(); ok {
		return &b
	}
	if s, ok := val.TryString(); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "1":
			b := true
			return &b
		}
		b := false
		return &b
	}
	return nil
}

// getTableString retrieves a string from a Lua table.
func getTableString(table *rt.Table, key string) *string {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if s, ok := val.TryString(); ok {
		return &s
	}
	return nil
}

// getTableFloat retrieves a number from a Lua table.
func getTableFloat(table *rt.Table, key string) *float64 {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if n, ok := val.TryFloat(); ok {
		return &n
	}
	if n, ok := val.TryInt(); ok {
		f := float64(n)
		return &f
	}
	return nil
}

// getTableInt retrieves an integer from a Lua table, truncating floats.
func getTableInt(table *rt.Table, key string) *int {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}
	if n, ok := val.TryInt(); ok {
		i := int(n)
		return &i
	}
	if f, ok := val.TryFloat(); ok {
		i := int(f)
		return &i
	}
	return nil
}

// getTableTable retrieves a nested table.
func getTableTable(table *rt.Table, key string) *rt.Table {
	val := table.Get(rt.StringValue(key))
	if t, ok := val.TryTable(); ok {
		return t
	}
	return nil
}

// floatOr returns the number stored under key, or def.
func floatOr(table *rt.Table, key string, def float64) float64 {
	if v := getTableFloat(table, key); v != nil {
		return *v
	}
	return def
}

// arrayTables returns the table elements of the array part of table,
// stopping at the first nil. Non-table elements are reported by index.
func arrayTables(table *rt.Table) ([]*rt.Table, int) {
	var out []*rt.Table
	for i := int64(1); ; i++ {
		val := table.Get(rt.IntValue(i))
		if val == rt.NilValue {
			return out, 0
		}
		t, ok := val.TryTable()
		if !ok {
			return out, int(i)
		}
		out = append(out, t)
	}
}

// arrayFloats returns the numbers of the array part of table.
func arrayFloats(table *rt.Table) []float64 {
	var out []float64
	for i := int64(1); ; i++ {
		val := table.Get(rt.IntValue(i))
		if f, ok := val.TryFloat(); ok {
			out = append(out, f)
			continue
		}
		if n, ok := val.TryInt(); ok {
			out = append(out, float64(n))
			continue
		}
		return out
	}
}

// arrayStrings returns the strings of the array part of table.
func arrayStrings(table *rt.Table) []string {
	var out []string
	for i := int64(1); ; i++ {
		s, ok := table.Get(rt.IntValue(i)).TryString()
		if !ok {
			return out
		}
		out = append(out, s)
	}
}
