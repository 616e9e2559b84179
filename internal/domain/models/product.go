package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryTops        Category = "Tops"
	CategoryDresses     Category = "Dresses"
	CategoryEthnicWear  Category = "Ethnic Wear"
	CategoryBottoms     Category = "Bottoms"
	CategoryAccessories Category = "Accessories"
)

// Categories lists every valid product category in display order.
var Categories = []Category{
	CategoryTops,
	CategoryDresses,
	CategoryEthnicWear,
	CategoryBottoms,
	CategoryAccessories,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MediaPair holds the two derived variants of one uploaded asset. Both are
// self-contained data URIs and never reference an external file.
type MediaPair struct {
	Thumbnail string `json:"thumbnail"`
	Full      string `json:"full"`
}

// MediaList is the ordered media of a product, first item = cover image.
type MediaList []MediaPair

// Product представляет одну позицию каталога
type Product struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	Category        Category  `json:"category" db:"category"`
	Sizes           []string  `json:"sizes" db:"sizes"`
	Colors          []string  `json:"colors" db:"colors"`
	Tags            []string  `json:"tags" db:"tags"`
	Media           MediaList `json:"media" db:"media"`
	IsNewCollection bool      `json:"isNewCollection" db:"is_new_collection"`
	SoldOut         bool      `json:"soldOut" db:"sold_out"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// Value реализует интерфейс driver.Valuer для сериализации MediaList в JSONB
func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(MediaList{})
	}
	return json.Marshal(m)
}

// Scan реализует интерфейс sql.Scanner для десериализации JSONB в MediaList
func (m *MediaList) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported media column type %T", value)
	}

	list, err := DecodeMediaList(raw)
	if err != nil {
		return err
	}

	*m = list
	return nil
}

// DecodeMediaList normalizes the media column across the encodings it has
// been written with over time: a structured jsonb array, or a jsonb string
// holding JSON-encoded text of the same array. A structured value decodes
// as-is; a string value is parsed a second time.
func DecodeMediaList(raw []byte) (MediaList, error) {
	var list MediaList
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, fmt.Errorf("media column is neither an array nor a string: %s", truncate(raw, 64))
	}

	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, fmt.Errorf("media column text does not parse as an array: %s", truncate([]byte(text), 64))
	}

	return list, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// NormalizeTags lowercases tags and drops duplicates, preserving the order
// of first appearance.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	return out
}

// Validate проверяет корректность данных продукта перед сохранением
func (p *Product) Validate() error {
	var validationErrors []string

	if strings.TrimSpace(p.Name) == "" {
		validationErrors = append(validationErrors, "name is required")
	}
	if len(p.Name) > 255 {
		validationErrors = append(validationErrors, "name must be 255 characters or less")
	}
	if !p.Category.Valid() {
		validationErrors = append(validationErrors,
			fmt.Sprintf("invalid category '%s', must be one of: %v", p.Category, Categories))
	}
	for i, pair := range p.Media {
		if pair.Thumbnail == "" || pair.Full == "" {
			validationErrors = append(validationErrors,
				fmt.Sprintf("media item %d is missing a variant", i))
		}
	}

	if len(validationErrors) > 0 {
		return &ProductValidationError{Errors: validationErrors}
	}

	return nil
}

// ProductValidationError кастомный тип ошибки для валидации
type ProductValidationError struct {
	Errors []string
}

func (e *ProductValidationError) Error() string {
	return fmt.Sprintf("product validation failed: %s", strings.Join(e.Errors, "; "))
}

// IsProductValidationError проверяет, является ли ошибка ошибкой валидации
func IsProductValidationError(err error) bool {
	var ve *ProductValidationError
	return errors.As(err, &ve)
}
