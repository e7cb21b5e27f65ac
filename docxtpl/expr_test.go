package docxtpl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docxmerge/docxtemplate/value"
)

func TestExpressionEvaluator_SortTakeFormat(t *testing.T) {
	root := mustParse(t, `{"orders":[
		{"id":"ORD-001","amount":12.5},
		{"id":"ORD-002","amount":100},
		{"id":"ORD-003","amount":66.2}
	]}`)
	ctx := NewRootContext(root)
	eval := NewExpressionEvaluator()

	v, err := eval.Evaluate(ctx, "orders|sort:amount:desc|take:2")
	require.NoError(t, err)
	arr, ok := v.AsArray()
	require.True(t, ok)
	require.Len(t, arr, 2)
	require.Equal(t, "ORD-002", value.ToText(arr[0].Get("id")))
	require.Equal(t, "ORD-003", value.ToText(arr[1].Get("id")))
}

func TestExpressionEvaluator_SortStabilityRoundTrip(t *testing.T) {
	root := mustParse(t, `{"items":[{"k":1,"n":"a"},{"k":2,"n":"b"},{"k":1,"n":"c"}]}`)
	ctx := NewRootContext(root)
	eval := NewExpressionEvaluator()

	asc, err := eval.Evaluate(ctx, "items|sort:k:asc")
	require.NoError(t, err)
	ascArr, _ := asc.AsArray()

	desc, err := eval.Evaluate(ctx, "items|sort:k:desc")
	require.NoError(t, err)
	descArr, _ := desc.AsArray()

	require.Len(t, descArr, len(ascArr))
	for i := range ascArr {
		require.Equal(t, value.ToText(ascArr[i].Get("n")), value.ToText(descArr[len(descArr)-1-i].Get("n")))
	}
}

func TestExpressionEvaluator_MaxByGetFormat(t *testing.T) {
	root := mustParse(t, `{"m":[
		{"month":"2025-01-01T00:00:00Z","revenue":10000},
		{"month":"2025-05-01T00:00:00Z","revenue":100000},
		{"month":"2025-07-01T00:00:00Z","revenue":40000}
	]}`)
	ctx := NewRootContext(root)
	eval := NewExpressionEvaluator()

	v, err := eval.Evaluate(ctx, "m|maxby:revenue|get:month|format:date:M月")
	require.NoError(t, err)
	require.Equal(t, "5月", value.ToText(v))

	v, err = eval.Evaluate(ctx, "m|maxby:revenue|get:revenue|format:number:#,##0")
	require.NoError(t, err)
	require.Equal(t, "100,000", value.ToText(v))
}

func TestExpressionEvaluator_UnsupportedOperator(t *testing.T) {
	ctx := NewRootContext(mustParse(t, `{}`))
	eval := NewExpressionEvaluator()
	_, err := eval.Evaluate(ctx, "x|bogus")
	require.Error(t, err)
	var unsupported *UnsupportedOperatorError
	require.ErrorAs(t, err, &unsupported)
}

func TestExpressionEvaluator_IfOperator(t *testing.T) {
	ctx := NewRootContext(mustParse(t, `{"flag":true}`))
	eval := NewExpressionEvaluator()
	v, err := eval.Evaluate(ctx, "flag|if:Yes:No")
	require.NoError(t, err)
	require.Equal(t, "Yes", value.ToText(v))
}
