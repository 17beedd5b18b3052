package luaengine

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// toGo converts a Lua value into nil, bool, float64, string, []any or
// map[string]any. Sequences (keys 1..n) become slices. Functions and
// userdata are described by their string form. Cyclic tables are cut at the
// repeated reference.
func toGo(v lua.LValue) any {
	return toGoSeen(v, map[*lua.LTable]struct{}{})
}

func toGoSeen(v lua.LValue, seen map[*lua.LTable]struct{}) any {
	switch lv := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(lv)
	case lua.LNumber:
		return float64(lv)
	case lua.LString:
		return string(lv)
	case *lua.LTable:
		if _, ok := seen[lv]; ok {
			return nil
		}
		seen[lv] = struct{}{}
		defer delete(seen, lv)

		count := 0
		lv.ForEach(func(lua.LValue, lua.LValue) { count++ })
		if n := lv.MaxN(); n > 0 && n == count {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, toGoSeen(lv.RawGetInt(i), seen))
			}
			return out
		}
		out := make(map[string]any, count)
		lv.ForEach(func(k, val lua.LValue) {
			out[k.String()] = toGoSeen(val, seen)
		})
		return out
	default:
		return v.String()
	}
}

// toLua converts a Go value into a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []any:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(toLua(L, item))
		}
		return tbl
	case []string:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(lua.LString(item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			tbl.RawSetString(k, toLua(L, val[k]))
		}
		return tbl
	case error:
		return lua.LString(val.Error())
	default:
		return lua.LString(fmt.Sprint(val))
	}
}
