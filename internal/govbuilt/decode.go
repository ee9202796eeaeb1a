package govbuilt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	appErr "github.com/govbuilder/engine/pkg/errors"
)

// DecodeContent parses an escaped Content payload. Octal (\NNN) and \uXXXX
// escapes and doubled backslashes are resolved in one pass before parsing; if
// that result is not valid JSON the raw string is tried as-is.
func DecodeContent(s string) (map[string]any, error) {
	var out map[string]any
	unescaped := unescape(s)
	errDecoded := json.Unmarshal([]byte(unescaped), &out)
	if errDecoded == nil {
		return out, nil
	}
	out = nil
	errRaw := json.Unmarshal([]byte(s), &out)
	if errRaw == nil {
		return out, nil
	}
	return nil, appErr.Wrap(errors.Join(errDecoded, errRaw), appErr.CodeDecode, "content payload is not decodable JSON")
}

// unescape resolves provider escapes. Control characters produced by an escape
// are re-emitted as JSON \u escapes so string literals stay valid.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}
		next := s[i+1]
		switch {
		case next == '\\':
			b.WriteByte('\\')
			i += 2
		case next == 'u' && i+6 <= len(s) && isHex(s[i+2:i+6]):
			n, _ := strconv.ParseUint(s[i+2:i+6], 16, 32)
			r := rune(n)
			i += 6
			if utf16.IsSurrogate(r) {
				if low, ok := lowSurrogate(s, i); ok {
					if pair := utf16.DecodeRune(r, low); pair != utf8.RuneError {
						b.WriteRune(pair)
						i += 6
						continue
					}
				}
				// A lone surrogate is left to the JSON decoder.
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			writeRune(&b, r)
		case isOctal(next):
			j := i + 1
			for j < len(s) && j < i+4 && isOctal(s[j]) {
				j++
			}
			n, _ := strconv.ParseUint(s[i+1:j], 8, 32)
			writeRune(&b, rune(n))
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func writeRune(b *strings.Builder, r rune) {
	if r < 0x20 {
		fmt.Fprintf(b, `\u%04x`, r)
		return
	}
	if !utf8.ValidRune(r) {
		r = utf8.RuneError
	}
	b.WriteRune(r)
}

// lowSurrogate reads a \uDC00-\uDFFF escape at s[i:].
func lowSurrogate(s string, i int) (rune, bool) {
	if i+6 > len(s) || s[i] != '\\' || s[i+1] != 'u' || !isHex(s[i+2:i+6]) {
		return 0, false
	}
	n, _ := strconv.ParseUint(s[i+2:i+6], 16, 32)
	if n < 0xDC00 || n > 0xDFFF {
		return 0, false
	}
	return rune(n), true
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

func isOctal(c byte) bool { return '0' <= c && c <= '7' }

// ParseItems decodes a query response for contentType. The body is either an
// array or an object wrapping it under "data" or "items". Elements without a
// string ContentItemId and DisplayText are skipped. A payload that cannot be
// decoded fails the whole content type with CodeDecode.
func ParseItems(contentType ContentType, body []byte) ([]ContentItem, error) {
	var top any
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeDecode, "response is not valid JSON").WithMeta("content_type", string(contentType))
	}
	if obj, ok := top.(map[string]any); ok {
		if arr, ok := obj["data"].([]any); ok {
			top = arr
		} else if arr, ok := obj["items"].([]any); ok {
			top = arr
		}
	}
	arr, ok := top.([]any)
	if !ok {
		return nil, appErr.New(appErr.CodeDecode, "invalid response format: expected array").WithMeta("content_type", string(contentType))
	}

	items := make([]ContentItem, 0, len(arr))
	for _, el := range arr {
		raw, ok := el.(map[string]any)
		if !ok {
			continue
		}
		id, idOK := raw["ContentItemId"].(string)
		text, textOK := raw["DisplayText"].(string)
		if !idOK || !textOK {
			continue
		}
		fields, err := extractFields(contentType, raw)
		if err != nil {
			return nil, appErr.Wrap(err, appErr.CodeDecode, "failed to decode content of "+id).
				WithMeta("content_type", string(contentType)).
				WithMeta("content_item_id", id)
		}
		items = append(items, ContentItem{ContentItemID: id, DisplayText: text, Fields: fields})
	}
	return items, nil
}

// extractFields prefers item[contentType]; otherwise it decodes item.Content
// and takes parsed[contentType].
func extractFields(contentType ContentType, item map[string]any) (Fields, error) {
	if part, ok := item[string(contentType)].(map[string]any); ok {
		return part, nil
	}
	content, ok := item["Content"].(string)
	if !ok || content == "" {
		return nil, nil
	}
	parsed, err := DecodeContent(content)
	if err != nil {
		return nil, err
	}
	part, _ := parsed[string(contentType)].(map[string]any)
	return part, nil
}
