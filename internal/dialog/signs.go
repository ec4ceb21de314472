package dialog

import "strings"

// Canonical zodiac sign identifiers, as the horoscope APIs expect them.
var Signs = []string{
	"aries", "taurus", "gemini", "cancer", "leo", "virgo",
	"libra", "scorpio", "sagittarius", "capricorn", "aquarius", "pisces",
}

// Alias lookup keyed by folded input. Covers English and Russian names plus
// the common declined Russian forms users actually type.
var signAliases = map[string]string{
	"aries": "aries", "овен": "aries", "овна": "aries",
	"taurus": "taurus", "телец": "taurus", "тельца": "taurus",
	"gemini": "gemini", "близнецы": "gemini", "близнецов": "gemini", "близнец": "gemini",
	"cancer": "cancer", "рак": "cancer", "рака": "cancer",
	"leo": "leo", "лев": "leo", "льва": "leo",
	"virgo": "virgo", "дева": "virgo", "девы": "virgo",
	"libra": "libra", "весы": "libra", "весов": "libra",
	"scorpio": "scorpio", "скорпион": "scorpio", "скорпиона": "scorpio",
	"sagittarius": "sagittarius", "стрелец": "sagittarius", "стрельца": "sagittarius",
	"capricorn": "capricorn", "козерог": "capricorn", "козерога": "capricorn",
	"aquarius": "aquarius", "водолей": "aquarius", "водолея": "aquarius",
	"pisces": "pisces", "рыбы": "pisces", "рыб": "pisces",
}

// NormalizeSign resolves free-form input to a canonical sign. Matching is
// case-insensitive and folds the usual diacritics so "Býci" ~ "byci".
func NormalizeSign(input string) (string, bool) {
	sign, ok := signAliases[foldSign(input)]
	return sign, ok
}

func foldSign(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(foldRune(r))
	}
	return b.String()
}

func foldRune(r rune) rune {
	switch r {
	case 'ё':
		return 'е'
	case 'à', 'á', 'â', 'ä', 'ã', 'å':
		return 'a'
	case 'è', 'é', 'ê', 'ë':
		return 'e'
	case 'ì', 'í', 'î', 'ï':
		return 'i'
	case 'ò', 'ó', 'ô', 'ö', 'õ':
		return 'o'
	case 'ù', 'ú', 'û', 'ü':
		return 'u'
	case 'ý', 'ÿ':
		return 'y'
	case 'č':
		return 'c'
	case 'š':
		return 's'
	case 'ž':
		return 'z'
	}
	return r
}
