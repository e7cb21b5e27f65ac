package docxtpl

import (
	"sort"
	"strconv"
	"strings"

	"github.com/docxmerge/docxtemplate/value"
)

// operatorFunc is the registry's extension point: a name maps to a
// function over (operand, args, context).
type operatorFunc func(operand value.Value, args []string, ctx *Context) (value.Value, error)

var operators = map[string]operatorFunc{
	"sort":   opSort,
	"take":   opTake,
	"first":  opFirst,
	"last":   opLast,
	"nth":    opNth,
	"at":     opAt,
	"maxby":  opMaxBy,
	"minby":  opMinBy,
	"get":    opGet,
	"pick":   opGet,
	"count":  opCount,
	"if":     opIf,
	"format": opFormat,
}

func opSort(operand value.Value, args []string, _ *Context) (value.Value, error) {
	arr, ok := operand.AsArray()
	if !ok {
		return operand, nil
	}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return value.Null, &OpArgError{Operator: "sort", Msg: "missing sort key"}
	}
	key := strings.TrimSpace(args[0])
	desc := len(args) > 1 && strings.EqualFold(strings.TrimSpace(args[1]), "desc")

	cloned := make([]value.Value, len(arr))
	for i, item := range arr {
		cloned[i] = value.Clone(item)
	}
	sort.SliceStable(cloned, func(i, j int) bool {
		vi, _ := ResolveFrom(cloned[i], key)
		vj, _ := ResolveFrom(cloned[j], key)
		return value.Compare(vi, vj) < 0
	})
	if desc {
		for l, r := 0, len(cloned)-1; l < r; l, r = l+1, r-1 {
			cloned[l], cloned[r] = cloned[r], cloned[l]
		}
	}
	return value.Array(cloned), nil
}

func opTake(operand value.Value, args []string, _ *Context) (value.Value, error) {
	arr, ok := operand.AsArray()
	if !ok {
		return operand, nil
	}
	if len(args) == 0 {
		return value.Null, &OpArgError{Operator: "take", Msg: "missing count"}
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return value.Null, &OpArgError{Operator: "take", Msg: "count must be an integer"}
	}
	if n <= 0 {
		return value.Array(nil), nil
	}
	if n > len(arr) {
		n = len(arr)
	}
	out := make([]value.Value, n)
	for i := 0; i < n; i++ {
		out[i] = value.Clone(arr[i])
	}
	return value.Array(out), nil
}

func opFirst(operand value.Value, _ []string, _ *Context) (value.Value, error) {
	arr, ok := operand.AsArray()
	if !ok || len(arr) == 0 {
		return value.Null, nil
	}
	return arr[0], nil
}

func opLast(operand value.Value, _ []string, _ *Context) (value.Value, error) {
	arr, ok := operand.AsArray()
	if !ok || len(arr) == 0 {
		return value.Null, nil
	}
	return arr[len(arr)-1], nil
}

func opNth(operand value.Value, args []string, _ *Context) (value.Value, error) {
	arr, ok := operand.AsArray()
	if !ok {
		return value.Null, nil
	}
	if len(args) == 0 {
		return value.Null, &OpArgError{Operator: "nth", Msg: "missing index"}
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return value.Null, &OpArgError{Operator: "nth", Msg: "index must be an integer"}
	}
	idx := n - 1
	if idx < 0 || idx >= len(arr) {
		return value.Null, nil
	}
	return arr[idx], nil
}

func opAt(operand value.Value, args []string, _ *Context) (value.Value, error) {
	arr, ok := operand.AsArray()
	if !ok {
		return value.Null, nil
	}
	if len(args) == 0 {
		return value.Null, &OpArgError{Operator: "at", Msg: "missing index"}
	}
	i, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return value.Null, &OpArgError{Operator: "at", Msg: "index must be an integer"}
	}
	if i < 0 {
		i += len(arr)
	}
	if i < 0 || i >= len(arr) {
		return value.Null, nil
	}
	return arr[i], nil
}

func opMaxBy(operand value.Value, args []string, ctx *Context) (value.Value, error) {
	return extremeBy(operand, args, "maxby", 1)
}

func opMinBy(operand value.Value, args []string, ctx *Context) (value.Value, error) {
	return extremeBy(operand, args, "minby", -1)
}

// extremeBy picks the array element whose ResolveFrom(item, key) is most
// extreme under value.Compare; ties keep the first occurrence.
func extremeBy(operand value.Value, args []string, opName string, want int) (value.Value, error) {
	arr, ok := operand.AsArray()
	if !ok || len(arr) == 0 {
		return value.Null, nil
	}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return value.Null, &OpArgError{Operator: opName, Msg: "missing key"}
	}
	key := strings.TrimSpace(args[0])
	best := arr[0]
	bestKey, _ := ResolveFrom(best, key)
	for _, item := range arr[1:] {
		k, _ := ResolveFrom(item, key)
		if value.Compare(k, bestKey) == want {
			best, bestKey = item, k
		}
	}
	return best, nil
}

func opGet(operand value.Value, args []string, _ *Context) (value.Value, error) {
	if len(args) == 0 {
		return value.Null, nil
	}
	path := strings.TrimSpace(strings.Join(args, ":"))
	return ResolveFrom(operand, path)
}

func opCount(operand value.Value, _ []string, _ *Context) (value.Value, error) {
	switch operand.Kind() {
	case value.KindNull:
		return value.Integer(0), nil
	case value.KindArray, value.KindObject, value.KindString:
		return value.Integer(int64(operand.Len())), nil
	default:
		return value.Integer(1), nil
	}
}

func opIf(operand value.Value, args []string, _ *Context) (value.Value, error) {
	trueText, falseText := "", ""
	if len(args) > 0 {
		trueText = args[0]
	}
	if len(args) > 1 {
		falseText = strings.Join(args[1:], ":")
	}
	if value.Truthy(operand) {
		return value.String(trueText), nil
	}
	return value.String(falseText), nil
}

func opFormat(operand value.Value, args []string, _ *Context) (value.Value, error) {
	if len(args) == 0 {
		return value.Null, &OpArgError{Operator: "format", Msg: "missing kind"}
	}
	kind := strings.TrimSpace(args[0])
	pattern := strings.Join(args[1:], ":")
	return FormatValue(kind, pattern, operand)
}
