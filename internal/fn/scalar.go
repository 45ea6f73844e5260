package fn

import (
	"github.com/roach88/trellis/internal/rel"
	"github.com/roach88/trellis/internal/sqlgen"
)

// Random yields a uniform float in [0, 1). The expression is volatile:
// every row it touches draws its own value.
func (c *Compiler) Random() rel.Expr {
	return rel.Expr{
		Code:  sqlgen.Raw(c.prof.Random),
		Type:  rel.FloatType{},
		State: rel.StateScalar,
	}
}

// Now yields the current timestamp.
func (c *Compiler) Now() rel.Expr {
	return rel.Expr{
		Code:  sqlgen.Raw(c.prof.Now),
		Type:  rel.TimestampType{},
		State: rel.StateScalar,
	}
}

// Pi yields the circle constant.
func (c *Compiler) Pi() rel.Expr {
	return rel.Expr{
		Code:  sqlgen.Raw(c.prof.Pi),
		Type:  rel.FloatType{},
		State: rel.StateScalar,
	}
}

// StrIndex locates needle inside haystack, zero-based, -1 when absent.
func (c *Compiler) StrIndex(needle, haystack rel.Expr) (rel.Expr, error) {
	if err := wantString("str_index", needle); err != nil {
		return rel.Expr{}, err
	}
	if err := wantString("str_index", haystack); err != nil {
		return rel.Expr{}, err
	}
	code, err := sqlgen.Interp(c.prof.StrIndex, map[string]sqlgen.Fragment{
		"substring": needle.Code,
		"string":    haystack.Code,
	})
	if err != nil {
		return rel.Expr{}, err
	}
	return rel.Expr{Code: code, Type: rel.IntType{}, State: combineState(needle, haystack)}, nil
}

// Char turns a code point into a one-character string.
func (c *Compiler) Char(code rel.Expr) (rel.Expr, error) {
	if err := wantInt("char", code); err != nil {
		return rel.Expr{}, err
	}
	out, err := sqlgen.Interp(c.prof.Char, map[string]sqlgen.Fragment{"code": code.Code})
	if err != nil {
		return rel.Expr{}, err
	}
	return rel.Expr{Code: out, Type: rel.StringType{}, State: combineState(code)}, nil
}

// CharOrd is the inverse of Char: the code point of the first character.
func (c *Compiler) CharOrd(s rel.Expr) (rel.Expr, error) {
	if err := wantString("char_ord", s); err != nil {
		return rel.Expr{}, err
	}
	out, err := sqlgen.Interp(c.prof.CharOrd, map[string]sqlgen.Fragment{"string": s.Code})
	if err != nil {
		return rel.Expr{}, err
	}
	return rel.Expr{Code: out, Type: rel.IntType{}, State: combineState(s)}, nil
}

// Repeat concatenates count copies of s.
func (c *Compiler) Repeat(s, count rel.Expr) (rel.Expr, error) {
	if err := wantString("repeat", s); err != nil {
		return rel.Expr{}, err
	}
	if err := wantInt("repeat", count); err != nil {
		return rel.Expr{}, err
	}
	out, err := sqlgen.Interp(c.prof.Repeat, map[string]sqlgen.Fragment{
		"string": s.Code,
		"count":  count.Code,
	})
	if err != nil {
		return rel.Expr{}, err
	}
	return rel.Expr{Code: out, Type: rel.StringType{}, State: combineState(s, count)}, nil
}

// Upper folds a string to upper case.
func (c *Compiler) Upper(s rel.Expr) (rel.Expr, error) {
	return stringFunc("upper", s)
}

// Lower folds a string to lower case.
func (c *Compiler) Lower(s rel.Expr) (rel.Expr, error) {
	return stringFunc("lower", s)
}

func stringFunc(name string, s rel.Expr) (rel.Expr, error) {
	if err := wantString(name, s); err != nil {
		return rel.Expr{}, err
	}
	code := sqlgen.Join("", sqlgen.Raw(name+"("), s.Code, sqlgen.Raw(")"))
	return rel.Expr{Code: code, Type: rel.StringType{}, State: combineState(s)}, nil
}

// Length counts the characters of a string.
func (c *Compiler) Length(s rel.Expr) (rel.Expr, error) {
	if err := wantString("length", s); err != nil {
		return rel.Expr{}, err
	}
	code := sqlgen.Join("", sqlgen.Raw("length("), s.Code, sqlgen.Raw(")"))
	return rel.Expr{Code: code, Type: rel.IntType{}, State: combineState(s)}, nil
}

// Round rounds x, optionally to a number of decimal digits.
func (c *Compiler) Round(x rel.Expr, precision ...rel.Expr) (rel.Expr, error) {
	if err := wantNumeric("round", x); err != nil {
		return rel.Expr{}, err
	}
	switch len(precision) {
	case 0:
		code := sqlgen.Join("", sqlgen.Raw("round("), x.Code, sqlgen.Raw(")"))
		return rel.Expr{Code: code, Type: rel.FloatType{}, State: combineState(x)}, nil
	case 1:
		p := precision[0]
		if err := wantInt("round", p); err != nil {
			return rel.Expr{}, err
		}
		code := sqlgen.Join("",
			sqlgen.Raw("round("), x.Code, sqlgen.Raw(", "), p.Code, sqlgen.Raw(")"))
		return rel.Expr{Code: code, Type: rel.FloatType{}, State: combineState(x, p)}, nil
	}
	return rel.Expr{}, rel.NewValueError("round accepts at most one precision argument, got %d", len(precision))
}

// Year extracts the calendar year of a timestamp.
func (c *Compiler) Year(d rel.Expr) (rel.Expr, error) {
	return c.datePart("year", c.prof.Year, d)
}

// Month extracts the month, 1 through 12.
func (c *Compiler) Month(d rel.Expr) (rel.Expr, error) {
	return c.datePart("month", c.prof.Month, d)
}

// Day extracts the day of the month.
func (c *Compiler) Day(d rel.Expr) (rel.Expr, error) {
	return c.datePart("day", c.prof.Day, d)
}

// Hour extracts the hour, 0 through 23.
func (c *Compiler) Hour(d rel.Expr) (rel.Expr, error) {
	return c.datePart("hour", c.prof.Hour, d)
}

// Minute extracts the minute, 0 through 59.
func (c *Compiler) Minute(d rel.Expr) (rel.Expr, error) {
	return c.datePart("minute", c.prof.Minute, d)
}

// DayOfWeek extracts the weekday with Sunday as 0, whatever the
// target's native convention.
func (c *Compiler) DayOfWeek(d rel.Expr) (rel.Expr, error) {
	return c.datePart("day_of_week", c.prof.DayOfWeek, d)
}

// WeekOfYear extracts the week number of the year.
func (c *Compiler) WeekOfYear(d rel.Expr) (rel.Expr, error) {
	return c.datePart("week_of_year", c.prof.WeekOfYear, d)
}

func (c *Compiler) datePart(name, tpl string, d rel.Expr) (rel.Expr, error) {
	if !isTimestamp(d.Type) {
		return rel.Expr{}, typeMismatch(name, d.Type)
	}
	code, err := sqlgen.Interp(tpl, map[string]sqlgen.Fragment{"date": d.Code})
	if err != nil {
		return rel.Expr{}, err
	}
	return rel.Expr{Code: code, Type: rel.IntType{}, State: combineState(d)}, nil
}

func wantString(name string, e rel.Expr) error {
	if !isString(e.Type) {
		return typeMismatch(name, e.Type)
	}
	return nil
}

func wantInt(name string, e rel.Expr) error {
	if !isInt(e.Type) {
		return typeMismatch(name, e.Type)
	}
	return nil
}

func wantNumeric(name string, e rel.Expr) error {
	if !isNumeric(e.Type) {
		return typeMismatch(name, e.Type)
	}
	return nil
}

func typeMismatch(name string, t rel.Type) error {
	return rel.NewTypeError("%s doesn't support object of type '%s'", name, typeName(t))
}

func checkNumericElem(name string, t rel.Type) error {
	if !isNumeric(t) {
		return rel.NewTypeError("%s expects numeric elements", name)
	}
	return nil
}

func typeName(t rel.Type) string {
	if t == nil {
		return "nulltype"
	}
	return t.String()
}

func isString(t rel.Type) bool {
	switch t.(type) {
	case rel.StringType, rel.UnknownType:
		return true
	}
	return false
}

func isInt(t rel.Type) bool {
	switch t.(type) {
	case rel.IntType, rel.UnknownType:
		return true
	}
	return false
}

func isNumeric(t rel.Type) bool {
	if t == nil {
		return false
	}
	if _, ok := t.(rel.UnknownType); ok {
		return true
	}
	return t.Numeric()
}

func isTimestamp(t rel.Type) bool {
	switch t.(type) {
	case rel.TimestampType, rel.UnknownType:
		return true
	}
	return false
}

// combineState keeps the aggregation tag honest when scalar functions
// wrap column expressions: an input already inside an aggregation
// context marks the whole expression aggregated.
func combineState(args ...rel.Expr) rel.AggState {
	for _, a := range args {
		if a.State == rel.StateAggregate {
			return rel.StateAggregate
		}
	}
	return rel.StateScalar
}
