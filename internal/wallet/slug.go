package wallet

import "strings"

// Slugify は文字列を識別子用のスラッグに変換する。
// 小文字化した上で [a-z0-9] 以外の連続を1つのハイフンに置き換え、前後のハイフンを除く。
// 非ASCII文字はハイフン扱いとなる。
func Slugify(s string) string {
	lower := strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(lower))
	pendingHyphen := false
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteByte(c)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
