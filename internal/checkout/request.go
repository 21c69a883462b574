package checkout

import (
	"errors"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/go-playground/validator/v10"
	"reflect"
	"regexp"
	"strings"
)

type Values struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Phone   string `json:"phone" validate:"required,vnphone"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"required,min=10,max=300"`
}

type Item struct {
	VariantID string `json:"variant_id" validate:"required"`
	Name      string `json:"name"`
	Price     int64  `json:"price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type Request struct {
	Values    Values `json:"values"`
	CartItems []Item `json:"cartItems" validate:"required,min=1,dive"`
	CartTotal int64  `json:"cartTotal"`
}

// FromCart builds a checkout request from a server-side cart.
func FromCart(v Values, c *cart.Cart) Request {
	items := make([]Item, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, Item{VariantID: l.VariantID, Name: l.DisplayName(), Price: l.Price, Quantity: l.Quantity})
	}
	return Request{Values: v, CartItems: items, CartTotal: c.Total()}
}

func (r *Request) normalize() {
	r.Values.Name = strings.TrimSpace(r.Values.Name)
	r.Values.Phone = strings.TrimSpace(r.Values.Phone)
	r.Values.Email = strings.TrimSpace(r.Values.Email)
	r.Values.Address = strings.TrimSpace(r.Values.Address)
}

func (r Request) customer() orders.Customer {
	return orders.Customer{
		Name:    r.Values.Name,
		Phone:   NormalizePhone(r.Values.Phone),
		Email:   strings.ToLower(r.Values.Email),
		Address: r.Values.Address,
	}
}

const MsgMissingInfo = "Thiếu thông tin"

// ValidationError lists the rejected fields with a message for each. Error()
// is the message of the first field in form order.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
	first  string
}

func (e *ValidationError) Error() string {
	if e.first == "" {
		return MsgMissingInfo
	}
	return e.Fields[e.first]
}

var fieldMessages = map[string]string{
	"name":      "Vui lòng nhập họ tên (ít nhất 2 ký tự).",
	"phone":     "Số điện thoại không hợp lệ.",
	"email":     "Email không hợp lệ.",
	"address":   "Vui lòng nhập địa chỉ giao hàng (ít nhất 10 ký tự).",
	"cartItems": "Giỏ hàng đang trống.",
	"item":      "Sản phẩm trong giỏ hàng không hợp lệ.",
}

var fieldOrder = []string{"name", "phone", "email", "address", "cartItems", "item"}

var phoneRe = regexp.MustCompile(`^0(3|5|7|8|9)\d{8}$`)

// NormalizePhone strips separators and rewrites +84/84 to a leading 0.
func NormalizePhone(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '-', '(', ')':
			return -1
		}
		return r
	}, s)
	switch {
	case strings.HasPrefix(s, "+84"):
		s = "0" + s[3:]
	case strings.HasPrefix(s, "84") && len(s) == 11:
		s = "0" + s[2:]
	}
	return s
}

// ValidPhone accepts Vietnamese mobile numbers in local or +84 form.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(NormalizePhone(s))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("vnphone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// Validate trims r in place and checks it. The returned error is nil or a
// *ValidationError.
func Validate(r *Request) error {
	r.normalize()
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{}}
	}

	ve := &ValidationError{Fields: map[string]string{}}
	for _, fe := range verrs {
		key := fe.Field()
		if strings.HasPrefix(fe.Namespace(), "Request.cartItems[") {
			key = "item"
		}
		if msg, ok := fieldMessages[key]; ok {
			ve.Fields[key] = msg
		}
	}
	for _, k := range fieldOrder {
		if _, ok := ve.Fields[k]; ok {
			ve.first = k
			break
		}
	}
	return ve
}
