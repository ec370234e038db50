// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// FormatRow renders a row as a parenthesised, comma separated tuple, e.g. (1, 'alice', NULL).
func FormatRow(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = FormatValue(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FormatValue renders one driver value. Text is single-quoted, NULL is spelled out,
// timestamps use RFC 3339 and non-text bytes are shown as \x hex. Quotes are
// doubled the way SQL literals escape them.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteText(x)
	case []byte:
		if isPrintable(x) {
			return quoteText(string(x))
		}
		return fmt.Sprintf("'\\x%x'", x)
	case [16]byte:
		return quoteText(uuid.UUID(x).String())
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return quoteText(x.Format(time.RFC3339))
	case fmt.Stringer:
		return quoteText(x.String())
	default:
		return fmt.Sprint(x)
	}
}

func quoteText(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func isPrintable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
