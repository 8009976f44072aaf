package inapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultVerifyURL = "https://cloud.ludei.com/api/v2/verify-purchases/"
	defaultAPIKey    = "quohToh1pieF7ohmUieile6Koodae9ak6L0EeteeYiedaor8iCh5oowa"
)

type verifyRequest struct {
	OS       int    `json:"os"`
	APIKey   string `json:"api_key"`
	Debug    bool   `json:"debug"`
	BundleID string `json:"bundleId"`
	Data     string `json:"data"`
}

type verifyResponse struct {
	Status       int           `json:"status"`
	ErrorMessage string        `json:"errorMessage"`
	Orders       []verifyOrder `json:"orders"`
}

type verifyOrder struct {
	ProductID string `json:"productId"`
}

// osCode is the platform discriminator understood by the verification
// service, which only distinguishes the Apple receipt format from the
// Android-style signed payloads.
func (p Platform) osCode() int {
	if p == PlatformAppStore {
		return 0
	}
	return 1
}

// remoteValidation posts raw receipts to the hosted verification service
// and accepts the purchase only when the service confirms an order for
// the expected product.
type remoteValidation struct {
	core *Core
}

var _ ValidationHandler = (*remoteValidation)(nil)

func newRemoteValidation(c *Core) *remoteValidation {
	return &remoteValidation{core: c}
}

// Validate runs the network round trip on a background goroutine and
// finishes the completion with the service's verdict. Any transport,
// decode or service failure rejects the receipt.
func (v *remoteValidation) Validate(receipt, productID string, completion *ValidationCompletion) {
	c := v.core
	c.RunBackground(func() {
		completion.Finish(v.verify(receipt, productID))
	})
}

func (v *remoteValidation) verify(receipt, productID string) *Error {
	c := v.core
	body, err := json.Marshal(verifyRequest{
		OS:       c.platform.osCode(),
		APIKey:   c.config.APIKey,
		Debug:    c.config.Debug,
		BundleID: c.config.BundleID,
		Data:     receipt,
	})
	if err != nil {
		return WrapError(err)
	}

	req, err := http.NewRequestWithContext(c.Context(), http.MethodPost, c.config.VerifyURL, bytes.NewReader(body))
	if err != nil {
		return WrapError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient().Do(req)
	if err != nil {
		c.log.Warn("receipt verification request failed", Field{Key: "error", Value: err.Error()})
		return WrapError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return WrapError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return NewError(resp.StatusCode, fmt.Sprintf("verification service returned HTTP %d", resp.StatusCode))
	}

	var result verifyResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return WrapError(err)
	}
	if result.Status != 0 {
		msg := result.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("verification rejected with status %d", result.Status)
		}
		return NewError(result.Status, msg)
	}
	if len(result.Orders) == 0 {
		return NewError(0, "verification returned no orders")
	}
	if result.Orders[0].ProductID != productID {
		return NewError(0, fmt.Sprintf("verified order is for product %q, expected %q", result.Orders[0].ProductID, productID))
	}
	return nil
}
