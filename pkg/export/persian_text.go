package export

import "unicode"

// joiningForms holds the Arabic Presentation Forms of a letter. Letters that never join the
// following letter have no initial or medial form.
type joiningForms struct {
	isolated, final, initial, medial rune
}

var presentationForms = map[rune]joiningForms{
	'ء': {0xFE80, 0, 0, 0},
	'آ': {0xFE81, 0xFE82, 0, 0},
	'أ': {0xFE83, 0xFE84, 0, 0},
	'ؤ': {0xFE85, 0xFE86, 0, 0},
	'إ': {0xFE87, 0xFE88, 0, 0},
	'ئ': {0xFE89, 0xFE8A, 0xFE8B, 0xFE8C},
	'ا': {0xFE8D, 0xFE8E, 0, 0},
	'ب': {0xFE8F, 0xFE90, 0xFE91, 0xFE92},
	'ة': {0xFE93, 0xFE94, 0, 0},
	'ت': {0xFE95, 0xFE96, 0xFE97, 0xFE98},
	'ث': {0xFE99, 0xFE9A, 0xFE9B, 0xFE9C},
	'ج': {0xFE9D, 0xFE9E, 0xFE9F, 0xFEA0},
	'ح': {0xFEA1, 0xFEA2, 0xFEA3, 0xFEA4},
	'خ': {0xFEA5, 0xFEA6, 0xFEA7, 0xFEA8},
	'د': {0xFEA9, 0xFEAA, 0, 0},
	'ذ': {0xFEAB, 0xFEAC, 0, 0},
	'ر': {0xFEAD, 0xFEAE, 0, 0},
	'ز': {0xFEAF, 0xFEB0, 0, 0},
	'س': {0xFEB1, 0xFEB2, 0xFEB3, 0xFEB4},
	'ش': {0xFEB5, 0xFEB6, 0xFEB7, 0xFEB8},
	'ص': {0xFEB9, 0xFEBA, 0xFEBB, 0xFEBC},
	'ض': {0xFEBD, 0xFEBE, 0xFEBF, 0xFEC0},
	'ط': {0xFEC1, 0xFEC2, 0xFEC3, 0xFEC4},
	'ظ': {0xFEC5, 0xFEC6, 0xFEC7, 0xFEC8},
	'ع': {0xFEC9, 0xFECA, 0xFECB, 0xFECC},
	'غ': {0xFECD, 0xFECE, 0xFECF, 0xFED0},
	'ف': {0xFED1, 0xFED2, 0xFED3, 0xFED4},
	'ق': {0xFED5, 0xFED6, 0xFED7, 0xFED8},
	'ك': {0xFED9, 0xFEDA, 0xFEDB, 0xFEDC},
	'ل': {0xFEDD, 0xFEDE, 0xFEDF, 0xFEE0},
	'م': {0xFEE1, 0xFEE2, 0xFEE3, 0xFEE4},
	'ن': {0xFEE5, 0xFEE6, 0xFEE7, 0xFEE8},
	'ه': {0xFEE9, 0xFEEA, 0xFEEB, 0xFEEC},
	'و': {0xFEED, 0xFEEE, 0, 0},
	'ى': {0xFEEF, 0xFEF0, 0, 0},
	'ي': {0xFEF1, 0xFEF2, 0xFEF3, 0xFEF4},
	'پ': {0xFB56, 0xFB57, 0xFB58, 0xFB59},
	'چ': {0xFB7A, 0xFB7B, 0xFB7C, 0xFB7D},
	'ژ': {0xFB8A, 0xFB8B, 0, 0},
	'ک': {0xFB8E, 0xFB8F, 0xFB90, 0xFB91},
	'گ': {0xFB92, 0xFB93, 0xFB94, 0xFB95},
	'ی': {0xFBFC, 0xFBFD, 0xFBFE, 0xFBFF},
}

// lamAlef maps the letter after lam to the isolated and final forms of the ligature.
var lamAlef = map[rune][2]rune{
	'آ': {0xFEF5, 0xFEF6},
	'أ': {0xFEF7, 0xFEF8},
	'إ': {0xFEF9, 0xFEFA},
	'ا': {0xFEFB, 0xFEFC},
}

const (
	lam     = 'ل'
	tatweel = '\u0640'
	zwnj    = '\u200c'
	zwj     = '\u200d'
)

var mirrored = map[rune]rune{
	'(': ')', ')': '(',
	'[': ']', ']': '[',
	'{': '}', '}': '{',
	'<': '>', '>': '<',
	'«': '»', '»': '«',
}

// shapePersian replaces Persian and Arabic letters with the presentation form that fits their
// neighbours, so a PDF font draws them joined. The text stays in logical order. Joiner controls
// are consumed.
func shapePersian(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		forms, ok := presentationForms[r]
		if !ok {
			if r != zwnj && r != zwj {
				out = append(out, r)
			}
			continue
		}

		prev, next := neighbour(runes, i, -1), neighbour(runes, i, 1)
		joinsPrev := prev >= 0 && joinsFollowing(runes[prev])

		if r == lam && next >= 0 {
			if ligature, ok := lamAlef[runes[next]]; ok {
				if joinsPrev {
					out = append(out, ligature[1])
				} else {
					out = append(out, ligature[0])
				}
				out = append(out, runes[i+1:next]...)
				i = next
				continue
			}
		}

		joinsNext := forms.initial != 0 && next >= 0 && joinsPreceding(runes[next])
		switch {
		case joinsPrev && joinsNext:
			out = append(out, forms.medial)
		case joinsPrev:
			out = append(out, forms.final)
		case joinsNext:
			out = append(out, forms.initial)
		default:
			out = append(out, forms.isolated)
		}
	}
	return string(out)
}

// neighbour skips combining marks in direction step; -1 when there is no neighbour.
func neighbour(runes []rune, i, step int) int {
	for j := i + step; j >= 0 && j < len(runes); j += step {
		if !unicode.Is(unicode.Mn, runes[j]) {
			return j
		}
	}
	return -1
}

func joinsFollowing(r rune) bool {
	return r == tatweel || r == zwj || presentationForms[r].initial != 0
}

func joinsPreceding(r rune) bool {
	if r == tatweel || r == zwj {
		return true
	}
	_, ok := presentationForms[r]
	return ok
}

// visualOrder lays out one line of right-to-left text for a renderer that draws left to right.
// Runs of digits and Latin text keep their order; brackets outside them are mirrored. A line
// without right-to-left letters is returned unchanged.
func visualOrder(s string) string {
	runes := []rune(s)
	if !containsRTL(runes) {
		return s
	}

	var tokens [][]rune
	for i := 0; i < len(runes); {
		if isLeftToRight(runes[i]) {
			last := i
			for j := i; j < len(runes) && !isRTL(runes[j]); j++ {
				if isLeftToRight(runes[j]) {
					last = j
				}
			}
			tokens = append(tokens, runes[i:last+1])
			i = last + 1
			continue
		}
		r := runes[i]
		if m, ok := mirrored[r]; ok {
			r = m
		}
		tokens = append(tokens, []rune{r})
		i++
	}

	out := make([]rune, 0, len(runes))
	for i := len(tokens) - 1; i >= 0; i-- {
		out = append(out, tokens[i]...)
	}
	return string(out)
}

// persianLine shapes and orders a single line for drawing.
func persianLine(s string) string {
	return visualOrder(shapePersian(s))
}

func containsRTL(runes []rune) bool {
	for _, r := range runes {
		if isRTL(r) {
			return true
		}
	}
	return false
}

func isRTL(r rune) bool {
	switch {
	case r >= 0x0660 && r <= 0x0669, r >= 0x06F0 && r <= 0x06F9:
		return false
	case r >= 0x0600 && r <= 0x06FF, r >= 0xFB50 && r <= 0xFDFF, r >= 0xFE70 && r <= 0xFEFF:
		return true
	}
	return false
}

func isLeftToRight(r rune) bool {
	return unicode.IsDigit(r) || (unicode.IsLetter(r) && !isRTL(r))
}
