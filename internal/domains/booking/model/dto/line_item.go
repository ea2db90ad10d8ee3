package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	itemKeyID       = "id"
	itemKeyQuantity = "quantity"
)

// Item is one normalized line item selection.
type Item struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// NormalizeItems accepts a JSON array, a single object or scalar, or a JSON string holding
// either, and returns one Item per distinct id. Entries without an id are skipped. Repeated
// ids are merged by summing quantities and a missing or non-positive quantity counts as 1.
// aliases are extra object keys that may carry the id, such as "add_on_id".
func NormalizeItems(raw json.RawMessage, aliases ...string) []Item {
	values := decodeValues(raw, true)

	items := make([]Item, 0, len(values))
	index := make(map[string]int, len(values))

	for _, value := range values {
		item, ok := toItem(value, aliases)
		if !ok {
			continue
		}

		if idx, seen := index[item.ID]; seen {
			items[idx].Quantity += item.Quantity

			continue
		}

		index[item.ID] = len(items)
		items = append(items, item)
	}

	return items
}

func decodeValues(raw []byte, unwrapString bool) []any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil
	}

	switch typed := value.(type) {
	case nil:
		return nil
	case []any:
		return typed
	case string:
		serialized := strings.TrimSpace(typed)
		if unwrapString && (strings.HasPrefix(serialized, "[") || strings.HasPrefix(serialized, "{")) {
			return decodeValues([]byte(serialized), false)
		}

		return []any{typed}
	default:
		return []any{typed}
	}
}

func toItem(value any, aliases []string) (Item, bool) {
	switch typed := value.(type) {
	case string, json.Number:
		id := scalarString(typed)
		if id == "" {
			return Item{}, false
		}

		return Item{ID: id, Quantity: 1}, true
	case map[string]any:
		id := ""
		for _, key := range append([]string{itemKeyID}, aliases...) {
			if id = scalarString(typed[key]); id != "" {
				break
			}
		}

		if id == "" {
			return Item{}, false
		}

		return Item{ID: id, Quantity: quantity(typed[itemKeyQuantity])}, true
	default:
		return Item{}, false
	}
}

func scalarString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	default:
		return ""
	}
}

func quantity(value any) int {
	var qty int64

	switch typed := value.(type) {
	case json.Number:
		if parsed, err := typed.Int64(); err == nil {
			qty = parsed
		} else if parsed, err := typed.Float64(); err == nil {
			qty = int64(parsed)
		}
	case string:
		qty, _ = strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
	}

	if qty <= 0 {
		return 1
	}

	return int(qty)
}
