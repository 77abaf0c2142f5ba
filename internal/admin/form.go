package admin

import (
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	FieldName  = "name"
	FieldPrice = "price"
	FieldStock = "stock"
	FieldImage = "image"
)

// Form is the new-product form exactly as typed.
type Form struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock string `json:"stock"`
	Image string `json:"image"`
}

func (f *Form) set(field, value string) error {
	switch field {
	case FieldName:
		f.Name = value
	case FieldPrice:
		f.Price = value
	case FieldStock:
		f.Stock = value
	case FieldImage:
		f.Image = value
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown form field").
			WithDetails(map[string]string{field: "is not a form field"})
	}
	return nil
}

// Input parses the numeric fields. Required-field checks happen in the API
// client so both paths report the same details.
func (f Form) Input() (types.ProductInput, error) {
	details := map[string]string{}

	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil {
		details[FieldPrice] = "must be a number"
	}
	stock, err := strconv.Atoi(strings.TrimSpace(f.Stock))
	if err != nil {
		details[FieldStock] = "must be a whole number"
	}
	if len(details) > 0 {
		return types.ProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	return types.ProductInput{
		Name:  f.Name,
		Price: price,
		Stock: stock,
		Image: f.Image,
	}, nil
}
