package util

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NewJapaneseCollator 日本語の照合順序で比較する Collator
// collate.Collator は並行利用できないため呼び出しごとに作る
func NewJapaneseCollator() *collate.Collator {
	return collate.New(language.Japanese)
}

// CompareJapanese 日本語の照合順序で a と b を比較する
func CompareJapanese(a, b string) int {
	return NewJapaneseCollator().CompareString(a, b)
}

// SortJapanese 名前を日本語の照合順序で並べ替える
// 照合順序で同順位の名前はバイト順にする
func SortJapanese(names []string) {
	c := NewJapaneseCollator()
	sort.SliceStable(names, func(i, j int) bool {
		return Less(c, names[i], names[j])
	})
}

// Less 照合順序で a が b より前か。同順位ならバイト順
func Less(c *collate.Collator, a, b string) bool {
	if r := c.CompareString(a, b); r != 0 {
		return r < 0
	}
	return a < b
}

// UniqueSortedJapanese 重複を除いて日本語順に並べた新しいスライス
func UniqueSortedJapanese(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	SortJapanese(out)
	return out
}
