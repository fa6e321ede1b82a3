package adapter

// Options carries the recognized per-call inputs. Zero values mean "not given".
type Options struct {
	// Payload is a raw request override. It is deep-copied into the request
	// before any action-specific field is added.
	Payload map[string]any `json:"payload,omitempty"`

	Customer       *Customer `json:"customer,omitempty"`
	Order          *Order    `json:"order,omitempty"`
	BillingAddress *Address  `json:"billing_address,omitempty"`
	Address        *Address  `json:"address,omitempty"` // Shipping address
	Currency       string    `json:"currency,omitempty"`
	Card           *CardData `json:"card,omitempty"`

	ThreeDSecure      bool   `json:"three_d_secure,omitempty"`
	ThreeDCallbackURL string `json:"three_d_callback_url,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	SaveCreditCard    *bool  `json:"save_credit_card,omitempty"`

	// MerchantID seeds the top-level merchantId of store requests when the
	// payload override does not carry one.
	MerchantID string `json:"merchant_id,omitempty"`

	// Alternative payment method options.
	PaymentMethod string `json:"payment_method,omitempty"`
	CallbackURL   string `json:"callback_url,omitempty"`
	SaveToken     bool   `json:"save_token,omitempty"`
}

// Customer identifies the payer. A customer with neither first nor last name
// is sent as email only.
type Customer struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Named reports whether the customer carries a name.
func (c *Customer) Named() bool {
	return c.FirstName != "" || c.LastName != ""
}

// Order describes the cart being paid for.
type Order struct {
	Number    string     `json:"number,omitempty"`
	Date      string     `json:"date,omitempty"`
	LineItems []LineItem `json:"line_items,omitempty"`
}

// LineItem is one cart entry. Price is in minor units; Quantity defaults to 1
// and Type to "sale".
type LineItem struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
	Price       int64  `json:"price"`
	Type        string `json:"type,omitempty"`
}

// Address is a billing or shipping address.
type Address struct {
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Zip      string `json:"zip,omitempty"`
	State    string `json:"state,omitempty"`
}

// Blank reports whether no field is set.
func (a *Address) Blank() bool {
	return a == nil || *a == Address{}
}

// CardData is the plain cardholder data sent when requesting a card token.
type CardData struct {
	Name  string `json:"name,omitempty"`
	Month int    `json:"month,omitempty"`
	Year  int    `json:"year,omitempty"`
}
