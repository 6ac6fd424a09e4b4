package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const tokenPrefix = "off"

// EncodeOffsetToken creates an opaque cursor pointing at offset.
func EncodeOffsetToken(offset int) string {
	return EncodeMultiFieldToken(tokenPrefix, strconv.Itoa(offset))
}

// DecodeOffsetToken parses a cursor created by EncodeOffsetToken.
func DecodeOffsetToken(token string) (int, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return 0, err
	}
	if len(parts) != 2 || parts[0] != tokenPrefix {
		return 0, fmt.Errorf("invalid pagination token format (fields)")
	}
	offset, err := strconv.Atoi(parts[1])
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid pagination token format (offset)")
	}
	return offset, nil
}

// EncodeMultiFieldToken creates a token with any number of string fields.
func EncodeMultiFieldToken(fields ...string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(fields, "|")))
}

// DecodeMultiFieldToken decodes a token into its component fields.
func DecodeMultiFieldToken(token string) ([]string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decoded), "|"), nil
}

// Window is a resolved limit/offset pair.
type Window struct {
	Limit  int
	Offset int
}

// Resolve clamps the requested window. A non-empty token wins over offset;
// limit <= 0 takes defaultLimit and anything above maxLimit is capped.
func Resolve(limit, offset int, token string, defaultLimit, maxLimit int) (Window, error) {
	if token != "" {
		o, err := DecodeOffsetToken(token)
		if err != nil {
			return Window{}, err
		}
		offset = o
	}
	if offset < 0 {
		return Window{}, fmt.Errorf("offset must not be negative")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Window{Limit: limit, Offset: offset}, nil
}

// Next returns the offset and token of the following page, or nil and "" on the last page.
func (w Window) Next(returned, total int) (*int, string) {
	next := w.Offset + returned
	if returned == 0 || next >= total {
		return nil, ""
	}
	return &next, EncodeOffsetToken(next)
}
