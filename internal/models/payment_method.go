package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethodType string
type CardBrand string

const (
	PaymentMethodCard PaymentMethodType = "card"
	PaymentMethodUPI  PaymentMethodType = "upi"

	CardBrandVisa       CardBrand = "visa"
	CardBrandMastercard CardBrand = "mastercard"
	CardBrandAmex       CardBrand = "amex"
	CardBrandDiscover   CardBrand = "discover"
)

// PaymentMethod is an opaque payment record. Only the last four digits of a
// card are ever stored.
type PaymentMethod struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"user_id" bson:"user_id"`
	MethodType     PaymentMethodType  `json:"method_type" bson:"method_type"`
	CardBrand      CardBrand          `json:"card_brand,omitempty" bson:"card_brand,omitempty"`
	CardLast4      string             `json:"card_last4,omitempty" bson:"card_last4,omitempty"`
	CardholderName string             `json:"cardholder_name,omitempty" bson:"cardholder_name,omitempty"`
	ExpiryDate     string             `json:"expiry_date,omitempty" bson:"expiry_date,omitempty"`
	UPIID          string             `json:"upi_id,omitempty" bson:"upi_id,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

func (p *PaymentMethod) String() string {
	if p.MethodType == PaymentMethodUPI {
		return fmt.Sprintf("upi %s", p.UPIID)
	}
	return fmt.Sprintf("%s ending in %s", p.CardBrand, p.CardLast4)
}
