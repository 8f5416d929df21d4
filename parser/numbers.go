package parser

// Numeric literals may be ASCII digits or kanji numerals (一〜九 with 十
// and 百 composition), matching the surface grammar of the chat commands.

var kanjiDigits = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9,
}

// number reads an ASCII or kanji numeral. ASCII numerals are limited to
// three digits and values up to 255, like the original command grammar.
func (s *scanner) number() (int, bool) {
	if n, ok := s.asciiNumber(3); ok {
		if n > 255 {
			return 0, false
		}
		return n, true
	}
	return s.kanjiNumber()
}

// asciiNumber reads 1..maxDigits decimal digits.
func (s *scanner) asciiNumber(maxDigits int) (int, bool) {
	start := s.pos
	n := 0
	for s.pos < len(s.in) && s.pos-start < maxDigits {
		r := s.in[s.pos]
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		s.pos++
	}
	if s.pos == start {
		return 0, false
	}
	return n, true
}

func (s *scanner) kanjiDigit() (int, bool) {
	if s.pos < len(s.in) {
		if d, ok := kanjiDigits[s.in[s.pos]]; ok {
			s.pos++
			return d, true
		}
	}
	return 0, false
}

// kanjiNumber reads numerals like 三, 十五, 二十, 九十九, 百二十.
func (s *scanner) kanjiNumber() (int, bool) {
	if n, ok := s.kanjiTail(1); ok {
		return n, true
	}
	d, ok := s.kanjiDigit()
	if !ok {
		return 0, false
	}
	if n, ok := s.kanjiTail(d); ok {
		return n, true
	}
	return d, true
}

// kanjiTail handles the 十/百 multiplier following a leading digit (or an
// implicit 1 for bare 十/百).
func (s *scanner) kanjiTail(x int) (int, bool) {
	if s.lit("十") {
		d, _ := s.kanjiDigit()
		return x*10 + d, true
	}
	if s.lit("百") {
		save := s.pos
		if d, ok := s.kanjiNumber(); ok && d < 100 {
			return x*100 + d, true
		}
		s.pos = save
		return x * 100, true
	}
	return 0, false
}
