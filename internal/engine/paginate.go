package engine

import (
	"encoding/base64"
	"encoding/json"

	"github.com/duggasco/CET/internal/models"
)

// cursorToken is the decoded form of an opaque pagination cursor. The key is
// the sort key of the last row on the previous page; the dimension tag keeps
// a cursor from being replayed against a different table.
type cursorToken struct {
	Dimension models.Dimension `json:"d"`
	Key       string           `json:"k"`
}

// EncodeCursor produces an opaque cursor for the given dimension and sort key.
func EncodeCursor(dim models.Dimension, key string) string {
	b, _ := json.Marshal(cursorToken{Dimension: dim, Key: key})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor returns the sort key carried by a cursor. A malformed cursor,
// or one minted for another dimension, decodes to the start of the list
// rather than an error.
func DecodeCursor(token string, dim models.Dimension) (string, bool) {
	if token == "" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", false
	}
	var c cursorToken
	if err := json.Unmarshal(raw, &c); err != nil || c.Dimension != dim {
		return "", false
	}
	return c.Key, true
}

// Sort keys mirror each table's ordering. The client key joins name and id
// with a NUL so the compound ordering survives as a single byte-comparable
// string.
func clientSortKey(c models.ClientBalance) string { return c.ClientName + "\x00" + c.ClientID }
func fundSortKey(f models.FundBalance) string     { return f.FundName }
func accountSortKey(a models.AccountDetail) string { return a.AccountID }

// paginate slices a fully sorted list at the row after the cursor key and
// returns at most pageSize rows with the next-page state. pageSize <= 0
// returns the whole remainder.
func paginate[T any](items []T, key func(T) string, dim models.Dimension, pageSize int, token string) ([]T, models.PageInfo) {
	start := 0
	if after, ok := DecodeCursor(token, dim); ok {
		for start < len(items) && key(items[start]) <= after {
			start++
		}
	}
	rest := items[start:]
	if pageSize <= 0 || len(rest) <= pageSize {
		return rest, models.PageInfo{}
	}
	page := rest[:pageSize]
	return page, models.PageInfo{
		HasMore:    true,
		NextCursor: EncodeCursor(dim, key(page[len(page)-1])),
	}
}
