package paymentprofile

import "github.com/commercekit/service-layer/internal/app/domain/audit"

// Method selects the payment data variant.
type Method string

const (
	MethodCard  Method = "CARD_PAYMENT"
	MethodPhone Method = "PHONE_PAYMENT"
)

// Methods lists every valid payment method.
var Methods = []Method{MethodCard, MethodPhone}

// Card data keys. Number and cvv hold hashes once persisted; firstSix and
// lastFour are derived from the raw number before hashing.
const (
	DataType        = "type"
	DataBrand       = "brand"
	DataHolderName  = "holderName"
	DataNumber      = "number"
	DataCVV         = "cvv"
	DataFirstSix    = "firstSix"
	DataLastFour    = "lastFour"
	DataExpiryMonth = "expiryMonth"
	DataExpiryYear  = "expiryYear"
	DataCountryCode = "countryCode"
	DataAreaCode    = "areaCode"
)

// Profile is the internal record shape; Data is the method-dependent payload
// persisted as JSON.
type Profile struct {
	audit.Fields
	UserID        string         `json:"userId"`
	PaymentMethod Method         `json:"paymentMethod"`
	Data          map[string]any `json:"data"`
}

// External is the outward response shape: card numbers and cvv hashes are
// structurally excluded from its data payload.
type External struct {
	audit.Fields
	UserID        string         `json:"userId"`
	PaymentMethod Method         `json:"paymentMethod"`
	Data          map[string]any `json:"data"`
}

// externalDataKeys lists what each variant exposes outward.
var externalDataKeys = map[Method][]string{
	MethodCard:  {DataType, DataBrand, DataHolderName, DataFirstSix, DataLastFour, DataExpiryMonth, DataExpiryYear},
	MethodPhone: {DataCountryCode, DataAreaCode, DataNumber},
}

// External converts the record to its outward shape.
func (p Profile) External() External {
	data := make(map[string]any, len(p.Data))
	for _, key := range externalDataKeys[p.PaymentMethod] {
		if value, ok := p.Data[key]; ok {
			data[key] = value
		}
	}
	return External{Fields: p.Fields, UserID: p.UserID, PaymentMethod: p.PaymentMethod, Data: data}
}

// Reference renders the record for unique/exists checks. Data is exposed
// without the hashed secrets so uniqueness never compares raw card numbers.
func (p Profile) Reference() map[string]any {
	data := make(map[string]any, len(p.Data))
	for key, value := range p.Data {
		if p.PaymentMethod == MethodCard && (key == DataNumber || key == DataCVV) {
			continue
		}
		data[key] = value
	}
	ref := p.Fields.Reference()
	ref["userId"] = p.UserID
	ref["paymentMethod"] = string(p.PaymentMethod)
	ref["data"] = data
	return ref
}
