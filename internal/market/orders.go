package market

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/model"
)

// OrderAPI creates custom orders.
type OrderAPI interface {
	CreateCustomOrder(ctx context.Context, o model.CustomOrder) (model.CustomOrder, error)
}

// CustomOrderForm asks a creator for a modified version of a product.
type CustomOrderForm struct {
	ProductID   int64   `json:"product_id" form:"product_id"`
	Name        string  `json:"name" form:"name"`
	Email       string  `json:"email" form:"email"`
	Phone       string  `json:"phone" form:"phone"`
	Description string  `json:"description" form:"description"`
	Budget      float64 `json:"budget" form:"budget"`
}

func (f CustomOrderForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.ProductID, validation.Required),
		validation.Field(&f.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&f.Email, validation.Required.When(strings.TrimSpace(f.Phone) == "").Error("ইমেইল অথবা মোবাইল নম্বর দিন"), is.EmailFormat),
		validation.Field(&f.Phone, forms.Phone),
		validation.Field(&f.Description, validation.Required, validation.Length(10, 2000)),
		validation.Field(&f.Budget, validation.Min(0.0)),
	)
}

// PlaceOrder validates f and submits it.
func PlaceOrder(ctx context.Context, a OrderAPI, f CustomOrderForm) (model.CustomOrder, error) {
	if err := forms.Check(f, "CUSTOM_ORDER_INVALID"); err != nil {
		return model.CustomOrder{}, err
	}
	return a.CreateCustomOrder(ctx, model.CustomOrder{
		ProductID:   f.ProductID,
		Name:        strings.TrimSpace(f.Name),
		Email:       strings.TrimSpace(f.Email),
		Phone:       strings.TrimSpace(f.Phone),
		Description: strings.TrimSpace(f.Description),
		Budget:      f.Budget,
	})
}
