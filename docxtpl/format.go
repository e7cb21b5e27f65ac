package docxtpl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/docxmerge/docxtemplate/value"
)

// FormatValue implements the `format:kind:pattern` operator: kind selects
// number/percent/permille/date rendering, and pattern is a .NET-style
// custom format string ("#,##0.00", "yyyy年M月").
func FormatValue(kind, pattern string, operand value.Value) (value.Value, error) {
	switch strings.ToLower(kind) {
	case "number", "numeric":
		return formatNumberKind(pattern, operand), nil
	case "percent":
		return formatScaledKind(pattern, operand, 100, "%"), nil
	case "permille":
		return formatScaledKind(pattern, operand, 1000, "‰"), nil
	case "date", "datetime", "time":
		return formatDateKind(pattern, operand), nil
	default:
		return value.Null, &OpArgError{Operator: "format", Msg: fmt.Sprintf("unknown format kind %q", kind)}
	}
}

func numericOperand(operand value.Value) (float64, bool) {
	if f, ok := operand.AsFloat(); ok {
		return f, true
	}
	if s, ok := operand.AsString(); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func formatNumberKind(pattern string, operand value.Value) value.Value {
	f, ok := numericOperand(operand)
	if !ok {
		return value.String(value.ToText(operand))
	}
	marker := ""
	scale := 1.0
	switch {
	case strings.HasSuffix(pattern, "%"):
		marker, scale = "%", 100
		pattern = strings.TrimSuffix(pattern, "%")
	case strings.HasSuffix(pattern, "‰"):
		marker, scale = "‰", 1000
		pattern = strings.TrimSuffix(pattern, "‰")
	}
	return value.String(formatNumberPattern(f*scale, pattern) + marker)
}

func formatScaledKind(pattern string, operand value.Value, scale float64, marker string) value.Value {
	f, ok := numericOperand(operand)
	if !ok {
		return value.String(value.ToText(operand))
	}
	return value.String(formatNumberPattern(f*scale, pattern) + marker)
}

func formatDateKind(pattern string, operand value.Value) value.Value {
	t, ok := value.ParseTime(operand)
	if !ok {
		return value.String(value.ToText(operand))
	}
	return value.String(formatDatePattern(t, pattern))
}

// formatNumberPattern renders f using a .NET-style custom numeric pattern:
// digits before '.' control thousands grouping (',') and minimum integer
// digits (count of '0'); digits after '.' fix the decimal precision.
func formatNumberPattern(f float64, pattern string) string {
	neg := f < 0
	af := math.Abs(f)

	intPat, fracPat := pattern, ""
	if dot := strings.IndexByte(pattern, '.'); dot >= 0 {
		intPat, fracPat = pattern[:dot], pattern[dot+1:]
	}
	fracDigits := len(fracPat)
	scale := math.Pow(10, float64(fracDigits))

	scaledInt := int64(math.Round(af * scale))
	digits := strconv.FormatInt(scaledInt, 10)
	for len(digits) <= fracDigits {
		digits = "0" + digits
	}

	intDigits, fracDigitsStr := digits, ""
	if fracDigits > 0 {
		intDigits = digits[:len(digits)-fracDigits]
		fracDigitsStr = digits[len(digits)-fracDigits:]
	}

	minIntDigits := strings.Count(strings.ReplaceAll(intPat, ",", ""), "0")
	for len(intDigits) < minIntDigits {
		intDigits = "0" + intDigits
	}
	if strings.Contains(intPat, ",") {
		intDigits = groupThousands(intDigits)
	}

	out := intDigits
	if fracDigits > 0 {
		out += "." + fracDigitsStr
	}
	if neg {
		out = "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var parts []string
	for n > 3 {
		parts = append([]string{digits[n-3:]}, parts...)
		digits = digits[:n-3]
		n = len(digits)
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, ",")
}

// formatDatePattern substitutes the token set yyyy, MM, dd, HH, mm, ss, plus
// the unpadded month "M", leaving any other literal run, including
// non-ASCII text such as "年月日", untouched. Longer tokens are substituted
// before shorter ones that could be a substring of them (MM before M).
func formatDatePattern(t time.Time, pattern string) string {
	pattern = strings.ReplaceAll(pattern, "yyyy", fmt.Sprintf("%04d", t.Year()))
	pattern = strings.ReplaceAll(pattern, "MM", fmt.Sprintf("%02d", int(t.Month())))
	pattern = strings.ReplaceAll(pattern, "dd", fmt.Sprintf("%02d", t.Day()))
	pattern = strings.ReplaceAll(pattern, "HH", fmt.Sprintf("%02d", t.Hour()))
	pattern = strings.ReplaceAll(pattern, "mm", fmt.Sprintf("%02d", t.Minute()))
	pattern = strings.ReplaceAll(pattern, "ss", fmt.Sprintf("%02d", t.Second()))
	pattern = strings.ReplaceAll(pattern, "M", strconv.Itoa(int(t.Month())))
	return pattern
}
