package parser

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var (
	yearMonthDayPattern = regexp.MustCompile(`^(\d{4})\s*[-/.年]\s*(\d{1,2})\s*[-/.月]\s*(\d{1,2})\s*日?(?:[\sT].*)?$`)
	monthDayPattern     = regexp.MustCompile(`^(\d{1,2})\s*[/月]\s*(\d{1,2})\s*日?$`)
	dayPattern          = regexp.MustCompile(`^(\d{1,2})\s*日?$`)
	yearMonthPattern    = regexp.MustCompile(`(\d{4})\s*[-/.年]\s*0?(\d{1,2})`)
	timePattern         = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
	spacesPattern       = regexp.MustCompile(`\s+`)
)

// ExtractYearMonth 日付文字列から年月を取り出す
// 対応形式: "2024-05-10" / "2024/5/10" / "2024年5月10日" / "2024年5月"
func ExtractYearMonth(text string) (year, month int, found bool) {
	matches := yearMonthPattern.FindStringSubmatch(narrow(text))
	if len(matches) < 3 {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(matches[1])
	month, _ = strconv.Atoi(matches[2])
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

// ParseDay 日付列から日（1-31）を取り出す
// 年月日・月日・日のみのいずれにも対応する。時刻が続いていても無視する
func ParseDay(text string) (int, bool) {
	s := strings.TrimSpace(narrow(text))
	if s == "" {
		return 0, false
	}

	var raw string
	if m := yearMonthDayPattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return 0, false
		}
		raw = m[3]
	} else if m := monthDayPattern.FindStringSubmatch(s); m != nil {
		raw = m[2]
	} else if m := dayPattern.FindStringSubmatch(s); m != nil {
		raw = m[1]
	} else {
		return 0, false
	}

	day, err := strconv.Atoi(raw)
	if err != nil || day < 1 || day > 31 {
		return 0, false
	}
	return day, true
}

// NormalizeTime 時刻を "HH:MM" に揃える
// "9:00" / "09:00" / "09:00:00" / 全角 "０９：００" を受け付ける
func NormalizeTime(text string) (string, bool) {
	s := strings.TrimSpace(narrow(text))
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return "", false
	}
	return twoDigits(hour) + ":" + twoDigits(minute), true
}

// NormalizeColumnName 列名・設定値を比較用に正規化する（空白除去・小文字化）
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	name = spacesPattern.ReplaceAllString(name, "")
	return strings.ToLower(name)
}

// trimCell セルの前後の空白（全角スペース・BOM を含む）を除去する
func trimCell(s string) string {
	return strings.Trim(s, " \t\r\n\u3000\ufeff")
}

func narrow(s string) string {
	return width.Narrow.String(s)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
