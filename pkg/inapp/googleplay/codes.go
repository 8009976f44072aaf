package googleplay

import "fmt"

// Billing response codes as returned by the Google Play billing service.
const (
	ResponseOK                 = 0
	ResponseUserCanceled       = 1
	ResponseServiceUnavailable = 2
	ResponseBillingUnavailable = 3
	ResponseItemUnavailable    = 4
	ResponseDeveloperError     = 5
	ResponseError              = 6
	ResponseItemAlreadyOwned   = 7
	ResponseItemNotOwned       = 8
)

// ResultOK is the activity result code for a completed store dialog.
const ResultOK = -1

// BuyIntentRequestCode tags buy-flow activity results so unrelated
// results can be ignored.
const BuyIntentRequestCode = 1104389

var responseDescriptions = map[int]string{
	ResponseOK:                 "ok",
	ResponseUserCanceled:       "user canceled the purchase",
	ResponseServiceUnavailable: "billing service unavailable",
	ResponseBillingUnavailable: "billing api version not supported",
	ResponseItemUnavailable:    "requested product is not available for purchase",
	ResponseDeveloperError:     "invalid arguments provided to the billing api",
	ResponseError:              "fatal error during the billing api action",
	ResponseItemAlreadyOwned:   "item is already owned",
	ResponseItemNotOwned:       "item is not owned",
}

// ResponseDescription returns a readable description of a billing
// response code.
func ResponseDescription(code int) string {
	if desc, ok := responseDescriptions[code]; ok {
		return desc
	}
	return fmt.Sprintf("unknown billing response %d", code)
}

// BillingError is a billing service failure carrying the vendor response
// code.
type BillingError struct {
	Code int
}

func (e *BillingError) Error() string {
	return ResponseDescription(e.Code)
}

// NewBillingError builds a BillingError from a vendor response code.
func NewBillingError(code int) *BillingError {
	return &BillingError{Code: code}
}

func responseCodeOf(err error) int {
	if be, ok := err.(*BillingError); ok {
		return be.Code
	}
	return ResponseError
}
