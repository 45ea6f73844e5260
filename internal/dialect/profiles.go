package dialect

// defaults is the shared template set. Dialect blocks override only the
// primitives whose SQL genuinely differs; anything left untouched falls
// back to these.
func defaults() Profile {
	return Profile{
		QuoteChar:     `"`,
		Random:        "random()",
		StrIndex:      "instr($string, $substring) - 1",
		Char:          "char($code)",
		CharOrd:       "ascii($string)",
		Repeat:        "repeat($string, $count)",
		Now:           "now()",
		Pi:            "pi()",
		CastInt:       "int",
		FullOuterJoin: true,
	}
}

func applyPostgres(p *Profile) {
	p.Numbered = true
	p.StrIndex = "strpos($string, $substring) - 1"
	p.Char = "chr($code)"
	p.Year = "CAST(date_part('year', $date) AS int)"
	p.Month = "CAST(date_part('month', $date) AS int)"
	p.Day = "CAST(date_part('day', $date) AS int)"
	p.Hour = "CAST(date_part('hour', $date) AS int)"
	p.Minute = "CAST(date_part('minute', $date) AS int)"
	p.DayOfWeek = "CAST(date_part('dow', $date) AS int)"
	p.WeekOfYear = "CAST(date_part('week', $date) AS int)"
}

func applySqlite(p *Profile) {
	// random() yields a signed 64-bit integer here, not a float;
	// dividing its magnitude by 2^63 lands in [0, 1).
	p.Random = "abs(CAST(random() AS real)) / 9223372036854775808"
	p.CharOrd = "unicode($string)"
	// No native repeat. Zeroblob yields n zero bytes, hex doubles them
	// into "0000..", and each "00" then becomes one copy of the string.
	p.Repeat = "replace(hex(zeroblob($count)), '00', $string)"
	p.Now = "datetime('now')"
	p.Pi = "3.141592653589793"
	p.CountDistinct = "count(distinct $value)"
	p.Year = "CAST(strftime('%Y', $date) AS int)"
	p.Month = "CAST(strftime('%m', $date) AS int)"
	p.Day = "CAST(strftime('%d', $date) AS int)"
	p.Hour = "CAST(strftime('%H', $date) AS int)"
	p.Minute = "CAST(strftime('%M', $date) AS int)"
	p.DayOfWeek = "CAST(strftime('%w', $date) AS int)"
	p.WeekOfYear = "CAST(strftime('%W', $date) AS int)"
}

// applyDuck rebases the SqliteLike profile on the embedded-analytics
// engine's own scalar library: its random() is already a unit float, it
// has real repeat/chr/now/pi, and its strftime takes arguments in the
// opposite order, so date parts go through date_part instead.
func applyDuck(p *Profile) {
	p.Random = "random()"
	p.Char = "chr($code)"
	p.Repeat = "repeat($string, $count)"
	p.Now = "now()"
	p.Pi = "pi()"
	p.Year = "CAST(date_part('year', $date) AS int)"
	p.Month = "CAST(date_part('month', $date) AS int)"
	p.Day = "CAST(date_part('day', $date) AS int)"
	p.Hour = "CAST(date_part('hour', $date) AS int)"
	p.Minute = "CAST(date_part('minute', $date) AS int)"
	p.DayOfWeek = "CAST(date_part('dow', $date) AS int)"
	p.WeekOfYear = "CAST(date_part('week', $date) AS int)"
}

func applyMySql(p *Profile) {
	p.QuoteChar = "`"
	p.Random = "rand()"
	p.CastInt = "signed integer"
	p.Year = "year($date)"
	p.Month = "month($date)"
	p.Day = "day($date)"
	p.Hour = "hour($date)"
	p.Minute = "minute($date)"
	// dayofweek counts from 1 = Sunday.
	p.DayOfWeek = "dayofweek($date) - 1"
	p.WeekOfYear = "week($date)"
	p.FullOuterJoin = false
}
