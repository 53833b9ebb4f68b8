package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// storedLine is the persisted shape of a LineItem. unitPrice is written as a
// JSON number; Decode accepts numbers and quoted strings.
type storedLine struct {
	ProductID     string      `json:"productId"`
	Name          string      `json:"name"`
	UnitPrice     json.Number `json:"unitPrice"`
	ImageURL      string      `json:"imageUrl"`
	Brand         string      `json:"brand"`
	SelectedSize  string      `json:"selectedSize"`
	SelectedColor string      `json:"selectedColor"`
	Quantity      int         `json:"quantity"`
}

// Encode serializes items as a bare JSON array. An empty cart encodes as [].
func Encode(items []LineItem) ([]byte, error) {
	out := make([]storedLine, 0, len(items))
	for _, item := range items {
		out = append(out, storedLine{
			ProductID:     item.ProductID,
			Name:          item.Name,
			UnitPrice:     json.Number(item.UnitPrice.String()),
			ImageURL:      item.ImageURL,
			Brand:         item.Brand,
			SelectedSize:  item.SelectedSize,
			SelectedColor: item.SelectedColor,
			Quantity:      item.Quantity,
		})
	}
	return json.Marshal(out)
}

// Decode parses a stored payload. Entries sharing a LineKey are merged additively
// in first-seen order. Any invalid entry rejects the whole payload.
func Decode(payload []byte) ([]LineItem, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []LineItem{}, nil
	}

	var raw []LineItem
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	out := make([]LineItem, 0, len(raw))
	seen := make(map[LineKey]int, len(raw))
	for i, item := range raw {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, fmt.Errorf("%w: entry %d has no productId", ErrMalformedSnapshot, i)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: entry %d has quantity %d", ErrMalformedSnapshot, i, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: entry %d has a negative price", ErrMalformedSnapshot, i)
		}
		if idx, ok := seen[item.Key()]; ok {
			out[idx].Quantity += item.Quantity
			continue
		}
		seen[item.Key()] = len(out)
		out = append(out, item)
	}
	return out, nil
}
