package bank

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// 帳號範圍：9 位數，[MinAccountNumber, MaxAccountNumber)。
const (
	MinAccountNumber int64 = 100000000
	MaxAccountNumber int64 = 999999999
)

// holderNamePattern：一個以上字母、一個空白、一個字母。
var holderNamePattern = regexp.MustCompile(`^\p{L}+ \p{L}$`)

// NormalizeHolderName 驗證並重整戶名：
// 姓氏首字大寫其餘小寫，縮寫大寫，中間單一空白。例如 "ivANov i" → "Ivanov I"。
func NormalizeHolderName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if !holderNamePattern.MatchString(trimmed) {
		return "", &FormatError{Field: "holder name", Value: name, Err: ErrHolderName}
	}
	surname, initial, _ := strings.Cut(trimmed, " ")
	return capitalize(surname) + " " + strings.ToUpper(initial), nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// ValidateAccountNumber 檢查帳號是否落在允許範圍內。
func ValidateAccountNumber(n int64) error {
	if n < MinAccountNumber || n >= MaxAccountNumber {
		return &FormatError{Field: "account number", Value: strconv.FormatInt(n, 10), Err: ErrAccountNumber}
	}
	return nil
}

// ParseAccountNumber 解析十進位帳號字串並檢查範圍。
func ParseAccountNumber(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &FormatError{Field: "account number", Value: s, Err: ErrAccountNumber}
	}
	if err := ValidateAccountNumber(n); err != nil {
		return 0, err
	}
	return n, nil
}

// generateAccountNumber 在範圍內均勻抽樣。不檢查碰撞，唯一性由 Bank 負責。
func generateAccountNumber() int64 {
	return MinAccountNumber + rand.Int64N(MaxAccountNumber-MinAccountNumber)
}
