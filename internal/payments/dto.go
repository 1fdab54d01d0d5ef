package payments

import (
	"encoding/json"
	"strings"

	"github.com/angelmondragon/vitalflex-backend/pkg/db/models"
	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitalflex-backend/pkg/errors"
)

// routingCodeLength is the length of an IFSC bank routing code.
const routingCodeLength = 11

// MethodDetails is the funding details submitted with a payment attempt, one
// variant per payment method. ParseMethodDetails selects the variant.
type MethodDetails interface {
	Method() enums.PaymentMethod
	validate(details map[string]string)
}

// UPIDetails funds a payment through a UPI handle.
type UPIDetails struct {
	Phone string `json:"phone"`
	UPIID string `json:"upi_id"`
}

func (UPIDetails) Method() enums.PaymentMethod { return enums.PaymentMethodUPI }

func (d UPIDetails) validate(details map[string]string) {
	if strings.TrimSpace(d.Phone) == "" {
		details["phone"] = "is required"
	}
	if !strings.Contains(d.UPIID, "@") {
		details["upi_id"] = "must be a valid UPI handle"
	}
}

// BankDetails funds a payment through a bank transfer.
type BankDetails struct {
	Phone         string `json:"phone"`
	AccountNumber string `json:"account_number"`
	RoutingCode   string `json:"routing_code"`
	HolderName    string `json:"holder_name"`
}

func (BankDetails) Method() enums.PaymentMethod { return enums.PaymentMethodBank }

func (d BankDetails) validate(details map[string]string) {
	if strings.TrimSpace(d.Phone) == "" {
		details["phone"] = "is required"
	}
	if strings.TrimSpace(d.AccountNumber) == "" {
		details["account_number"] = "is required"
	}
	if len(d.RoutingCode) != routingCodeLength {
		details["routing_code"] = "must be an 11 character IFSC code"
	}
	if strings.TrimSpace(d.HolderName) == "" {
		details["holder_name"] = "is required"
	}
}

// ParseMethodDetails decodes the detail variant the method selects.
func ParseMethodDetails(method enums.PaymentMethod, raw json.RawMessage) (MethodDetails, error) {
	if len(raw) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment details are required")
	}
	switch method {
	case enums.PaymentMethodUPI:
		var d UPIDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upi details")
		}
		return d, nil
	case enums.PaymentMethodBank:
		var d BankDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bank details")
		}
		return d, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
		WithDetails(map[string]string{"method": string(method)})
}

// ProcessRequest is the input to a payment attempt.
type ProcessRequest struct {
	UserID    string
	UserEmail string
	Plan      enums.Plan
	Method    enums.PaymentMethod
	Details   MethodDetails
}

// Result is the outcome of a successful payment attempt: the completed payment
// row and the subscription record it activated.
type Result struct {
	Payment      *models.Payment      `json:"payment"`
	Subscription *models.Subscription `json:"subscription"`
}

// Validate enforces the request-level rules plus the per-variant detail rules.
// It must reject bad input before any store write happens.
func (r ProcessRequest) Validate() error {
	details := map[string]string{}

	if strings.TrimSpace(r.UserID) == "" {
		details["user_id"] = "is required"
	}
	if !r.Plan.IsValid() {
		details["plan"] = "is not a known plan"
	} else if r.Plan == enums.PlanFree {
		details["plan"] = "is not purchasable"
	}
	if !r.Method.IsValid() {
		details["method"] = "is not a supported payment method"
	}

	switch {
	case r.Details == nil:
		details["details"] = "are required"
	case r.Details.Method() != r.Method:
		details["details"] = "do not match the payment method"
	default:
		r.Details.validate(details)
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment request rejected").WithDetails(details)
	}
	return nil
}
