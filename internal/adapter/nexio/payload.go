package nexio

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourorg/nexio-gateway/internal/adapter"
	"github.com/yourorg/nexio-gateway/internal/card"
)

// addressFields maps customer key suffixes to address fields, in request order.
var addressFields = []struct {
	suffix string
	value  func(*adapter.Address) string
}{
	{"AddressOne", func(a *adapter.Address) string { return a.Address1 }},
	{"AddressTwo", func(a *adapter.Address) string { return a.Address2 }},
	{"City", func(a *adapter.Address) string { return a.City }},
	{"Country", func(a *adapter.Address) string { return a.Country }},
	{"Phone", func(a *adapter.Address) string { return a.Phone }},
	{"Postal", func(a *adapter.Address) string { return a.Zip }},
	{"State", func(a *adapter.Address) string { return a.State }},
}

// formatAmount renders minor units as a major-unit number with two decimals.
func formatAmount(cents int64) json.Number {
	return json.Number(decimal.New(cents, -2).StringFixed(2))
}

// buildPayload starts every request from a private copy of the caller's
// payload override, then makes sure the sections other helpers write into exist.
func (b *base) buildPayload(opts adapter.Options) map[string]any {
	post := cloneMap(opts.Payload)
	data := section(post, "data")
	section(data, "customer")
	processing := section(post, "processingOptions")
	setIfAbsent(processing, "merchantId", b.cfg.MerchantID)
	if b.cfg.Test {
		processing["verboseResponse"] = true
	}
	return post
}

func addInvoice(post map[string]any, money int64, opts adapter.Options) {
	section(post, "data")["amount"] = formatAmount(money)
	addCurrency(post, opts)
}

func addCurrency(post map[string]any, opts adapter.Options) {
	if opts.Currency != "" {
		section(post, "data")["currency"] = opts.Currency
	}
}

func addOrderData(post map[string]any, opts adapter.Options) {
	customer := section(section(post, "data"), "customer")

	if c := opts.Customer; c != nil {
		if c.Named() {
			customer["firstName"] = c.FirstName
			customer["lastName"] = c.LastName
		}
		if c.Email != "" {
			customer["email"] = c.Email
			customer["customerRef"] = c.Email
		}
	}

	if o := opts.Order; o != nil {
		if len(o.LineItems) > 0 {
			addCart(post, o.LineItems)
		}
		if o.Number != "" {
			customer["orderNumber"] = o.Number
		}
		if o.Date != "" {
			customer["orderDate"] = o.Date
		}
	}

	addAddress(customer, opts.BillingAddress, "billTo")
	addAddress(customer, opts.Address, "shipTo")

	// The shipping address wins whenever one is given.
	phoneSource := opts.Address
	if phoneSource == nil {
		phoneSource = opts.BillingAddress
	}
	if phoneSource != nil && phoneSource.Phone != "" {
		customer["phone"] = phoneSource.Phone
	}
}

func addCart(post map[string]any, list []adapter.LineItem) {
	items := make([]any, 0, len(list))
	for _, li := range list {
		quantity := li.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		kind := li.Type
		if kind == "" {
			kind = "sale"
		}
		items = append(items, map[string]any{
			"item":        li.ID,
			"description": li.Description,
			"quantity":    quantity,
			"price":       formatAmount(li.Price),
			"type":        kind,
		})
	}
	section(post, "data")["cart"] = map[string]any{"items": items}
}

// addAddress writes one prefixed key per present field. A blank address is a no-op.
func addAddress(customer map[string]any, addr *adapter.Address, prefix string) {
	if addr.Blank() {
		return
	}
	for _, f := range addressFields {
		if v := f.value(addr); v != "" {
			customer[prefix+f.suffix] = v
		}
	}
}

// addCardData writes the plain cardholder data used by card token requests.
func addCardData(post map[string]any, opts adapter.Options) {
	c := opts.Card
	if c == nil {
		return
	}
	data := map[string]any{}
	if c.Name != "" {
		data["cardHolderName"] = c.Name
	}
	if c.Month != 0 {
		data["expirationMonth"] = c.Month
	}
	if c.Year != 0 {
		data["expirationYear"] = c.Year
	}
	post["card"] = data
}

// addCardDetails writes an encrypted card for saveCard. Anything other than a
// valid encrypted card is rejected before a request is made.
func addCardDetails(post map[string]any, source adapter.PaymentSource) error {
	ec, ok := source.(*card.EncryptedCard)
	if !ok || ec == nil {
		return fmt.Errorf("%w: only encrypted cards can be stored, got %s", ErrUnsupportedPaymentSource, sourceType(source))
	}
	if errs := ec.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCard, errs)
	}

	details := map[string]any{
		"cardHolderName":  ec.Name,
		"encryptedNumber": ec.EncryptedNumber,
		"cardType":        ec.Brand,
		"securityCode":    ec.VerificationValue,
	}
	if ec.Month != 0 {
		details["expirationMonth"] = ec.Month
	}
	if year, ok := ec.ShortYear(); ok {
		details["expirationYear"] = year
	}
	post["card"] = details
	post["token"] = ec.OneTimeToken
	return nil
}

// addPayment writes a card token source for process requests.
func addPayment(post map[string]any, source adapter.PaymentSource, opts adapter.Options) error {
	switch s := source.(type) {
	case adapter.Token:
		post["tokenex"] = map[string]any{"token": string(s)}
	case adapter.StoredCard:
		addStoredCard(post, &s)
	case *adapter.StoredCard:
		addStoredCard(post, s)
	default:
		return fmt.Errorf("%w: %s cannot be used for card payments", ErrUnsupportedPaymentSource, sourceType(source))
	}

	processing := section(post, "processingOptions")
	if opts.SaveCreditCard != nil {
		processing["saveCardToken"] = *opts.SaveCreditCard
	}
	if opts.ThreeDCallbackURL != "" {
		processing["customerRedirectUrl"] = opts.ThreeDCallbackURL
	}
	processing["check3ds"] = opts.ThreeDSecure
	if opts.PaymentType != "" {
		processing["paymentType"] = opts.PaymentType
	}
	return nil
}

// addStoredCard keeps any card keys the caller already put in the payload.
func addStoredCard(post map[string]any, sc *adapter.StoredCard) {
	post["tokenex"] = map[string]any{
		"token":    sc.ProfileID,
		"lastFour": sc.LastDigits,
		"cardType": sc.Brand,
	}
	details := section(post, "card")
	setIfAbsent(details, "cardHolderName", sc.Name)
	setIfAbsent(details, "cardType", sc.Brand)
}

// addAPMPayment writes an alternative payment method token for process requests.
func addAPMPayment(post map[string]any, source adapter.PaymentSource, _ adapter.Options) error {
	var token string
	switch s := source.(type) {
	case adapter.Token:
		token = string(s)
	case adapter.StoredCard:
		token = s.ProfileID
	case *adapter.StoredCard:
		token = s.ProfileID
	default:
		return fmt.Errorf("%w: %s cannot be used for APM payments", ErrUnsupportedPaymentSource, sourceType(source))
	}
	post["apm"] = map[string]any{"token": token}
	return nil
}

func sourceType(source adapter.PaymentSource) string {
	if source == nil {
		return "nil source"
	}
	return source.SourceType()
}

// section returns m[key] as a map, replacing anything that is not one.
func section(m map[string]any, key string) map[string]any {
	if s, ok := m[key].(map[string]any); ok {
		return s
	}
	s := map[string]any{}
	m[key] = s
	return s
}

func setIfAbsent(m map[string]any, key string, v any) {
	if existing, ok := m[key]; !ok || existing == nil {
		m[key] = v
	}
}

// cloneMap deep-copies nested maps and slices so requests never alias the
// caller's payload override.
func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
