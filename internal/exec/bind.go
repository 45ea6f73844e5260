package exec

import "golang.org/x/text/unicode/norm"

// normalizeArgs prepares bound values for the driver. String
// parameters are folded to NFC so that equality and ordering behave
// the same whichever target evaluates them.
func normalizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if s, ok := a.(string); ok {
			out[i] = norm.NFC.String(s)
			continue
		}
		out[i] = a
	}
	return out
}

// normalizeRow folds driver-specific scan results into plain Go
// values: byte slices become strings so rows compare the same across
// drivers.
func normalizeRow(vals []any) []any {
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			vals[i] = string(b)
		}
	}
	return vals
}
