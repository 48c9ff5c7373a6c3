package convert

import (
	"os"
	"strings"
	"unicode"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// mondayLocales maps "lang" and "lang_REGION" keys to monday locales.
var mondayLocales = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_US": monday.LocaleEnUS,
	"en_GB": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"de_DE": monday.LocaleDeDE,
	"de_AT": monday.LocaleDeDE,
	"de_CH": monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_FR": monday.LocaleFrFR,
	"fr_CA": monday.LocaleFrCA,
	"es":    monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_BR": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"nl_BE": monday.LocaleNlBE,
	"ru":    monday.LocaleRuRU,
	"pl":    monday.LocalePlPL,
	"cs":    monday.LocaleCsCZ,
	"da":    monday.LocaleDaDK,
	"fi":    monday.LocaleFiFI,
	"sv":    monday.LocaleSvSE,
	"nb":    monday.LocaleNbNO,
}

// DecimalSeparator returns the CLDR decimal separator for tag.
// Only '.' and ',' are reported; anything else falls back to '.'.
func DecimalSeparator(tag language.Tag) rune {
	formatted := message.NewPrinter(tag).Sprintf("%v", number.Decimal(1.5))
	for _, r := range formatted {
		if unicode.IsDigit(r) {
			continue
		}
		if r == ',' {
			return ','
		}
		break
	}
	return '.'
}

// MondayLocale returns the monday locale used for month names under tag.
func MondayLocale(tag language.Tag) monday.Locale {
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf != language.No {
		if l, ok := mondayLocales[base.String()+"_"+region.String()]; ok {
			return l
		}
	}
	if l, ok := mondayLocales[base.String()]; ok {
		return l
	}
	return monday.LocaleEnUS
}

// FromEnvironment reads the numeric locale from LC_ALL, LC_NUMERIC or LANG,
// in that order. "C", "POSIX" and unparsable values map to American English.
func FromEnvironment() language.Tag {
	for _, key := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return ParseLocale(v)
		}
	}
	return language.AmericanEnglish
}

// ParseLocale parses POSIX ("de_DE.UTF-8") and BCP 47 ("de-DE") locale names.
func ParseLocale(s string) language.Tag {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "C" || s == "POSIX" {
		return language.AmericanEnglish
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}
