package docxtpl

import (
	"strings"

	"github.com/docxmerge/docxtemplate/value"
)

// ExpressionEvaluator evaluates a directive expression: a path head
// followed by zero or more `|`-separated operators, each optionally
// carrying `:`-separated arguments.
type ExpressionEvaluator struct {
	resolver PathResolver
}

func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

// Evaluate resolves expression's path head against ctx, then threads the
// result through each operator left to right.
func (e *ExpressionEvaluator) Evaluate(ctx *Context, expression string) (value.Value, error) {
	segments := splitPipeline(expression)
	if len(segments) == 0 {
		return value.Null, nil
	}

	operand, err := e.resolver.Resolve(ctx, strings.TrimSpace(segments[0]))
	if err != nil {
		return value.Null, err
	}

	for _, seg := range segments[1:] {
		name, args := splitOperator(seg)
		fn, ok := operators[strings.ToLower(name)]
		if !ok {
			return value.Null, &UnsupportedOperatorError{Name: name}
		}
		operand, err = fn(operand, args, ctx)
		if err != nil {
			return value.Null, err
		}
	}
	return operand, nil
}

// splitPipeline splits on '|', discarding empty segments.
func splitPipeline(expr string) []string {
	parts := strings.Split(expr, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// splitOperator splits "name:arg1:arg2" into its name and argument list.
func splitOperator(seg string) (string, []string) {
	parts := strings.Split(strings.TrimSpace(seg), ":")
	name := strings.TrimSpace(parts[0])
	return name, parts[1:]
}
