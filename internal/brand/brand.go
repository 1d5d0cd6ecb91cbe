// Package brand manages the brands shown in the admin screen.
package brand

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"storefront/internal/upstream"
)

type Brand struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Country     string `json:"country"`
	FoundedYear int    `json:"founded_year"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Input is the editable part of a brand as submitted by the admin form.
type Input struct {
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	FoundedYear YearText `json:"founded_year"`
	Description string   `json:"description"`
}

// YearText keeps the year as typed; it accepts a JSON string or number.
type YearText string

func (y *YearText) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*y = YearText(s)
		return nil
	}
	if string(b) == "null" {
		*y = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*y = YearText(n.String())
	return nil
}

type Store interface {
	List(ctx context.Context) ([]Brand, error)
	Create(ctx context.Context, in Valid) error
	Update(ctx context.Context, id int64, in Valid) error
	Delete(ctx context.Context, id int64) error
}

// Valid is an Input that passed Validate, in the shape the remote API takes.
type Valid struct {
	Name        string `json:"nombre"`
	Country     string `json:"pais_origen"`
	FoundedYear int    `json:"año_fundacion"`
	Description string `json:"descripcion"`
}

const minFoundedYear = 1800

// ErrNotFound is the upstream not-found error so both stores report it alike.
var ErrNotFound = upstream.ErrNotFound

// FieldErrors maps a form field to its message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid brand: " + strings.Join(keys, ", ")
}

// Validate trims the input and checks every field. now supplies the upper
// bound for the founding year.
func Validate(in Input, now time.Time) (Valid, error) {
	v := Valid{
		Name:        strings.TrimSpace(in.Name),
		Country:     strings.TrimSpace(in.Country),
		Description: strings.TrimSpace(in.Description),
	}
	errs := FieldErrors{}

	if v.Name == "" {
		errs["name"] = "El nombre es requerido"
	}
	if v.Country == "" {
		errs["country"] = "El país de origen es requerido"
	}

	year := strings.TrimSpace(string(in.FoundedYear))
	if year == "" {
		errs["founded_year"] = "El año de fundación es requerido"
	} else {
		n, err := strconv.Atoi(year)
		if err != nil || n < minFoundedYear || n > now.Year() {
			errs["founded_year"] = "Ingrese un año válido"
		}
		v.FoundedYear = n
	}

	if v.Description == "" {
		errs["description"] = "La descripción es requerida"
	}

	if len(errs) > 0 {
		return Valid{}, errs
	}
	return v, nil
}

// Filter keeps brands whose name or country contains q, ignoring case.
func Filter(brands []Brand, q string) []Brand {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return brands
	}

	out := make([]Brand, 0, len(brands))
	for _, b := range brands {
		if strings.Contains(strings.ToLower(b.Name), q) || strings.Contains(strings.ToLower(b.Country), q) {
			out = append(out, b)
		}
	}
	return out
}
