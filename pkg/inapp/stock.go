package inapp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const stockKey = "inappservice_stock"

const (
	stockKDFIterations = 4096
	stockKDFKeyLen     = 32
)

// stockCipherKey derives the snapshot key from the device identity. The
// cipher deters casual edits of the stored stock; it is not a security
// boundary, since the key material lives on the same device.
func stockCipherKey(device DeviceIdentity) []byte {
	return pbkdf2.Key([]byte(device.PseudoID()), device.Salt(), stockKDFIterations, stockKDFKeyLen, sha256.New)
}

func sealStock(device DeviceIdentity, stock map[string]int) (string, error) {
	plain, err := json.Marshal(stock)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(stockCipherKey(device))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func openStock(device DeviceIdentity, value string) (map[string]int, error) {
	sealed, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(stockCipherKey(device))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, NewError(0, "stock snapshot too short")
	}
	plain, err := gcm.Open(nil, sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():], nil)
	if err != nil {
		return nil, err
	}
	stock := make(map[string]int)
	if err := json.Unmarshal(plain, &stock); err != nil {
		return nil, err
	}
	return stock, nil
}

// loadStock restores the ciphered stock snapshot. An absent, corrupt or
// foreign-device snapshot loads as empty stock.
func (c *Core) loadStock() {
	started := time.Now()
	value, ok, err := c.kv.Get(c.Context(), stockKey)
	c.metrics.RecordStoreOperation("get", time.Since(started), err)
	if err != nil {
		c.log.Warn("stock snapshot load failed", Field{Key: "error", Value: err.Error()})
		return
	}
	if !ok {
		return
	}
	stock, err := openStock(c.device, value)
	if err != nil {
		c.log.Warn("stock snapshot unreadable, starting empty", Field{Key: "error", Value: err.Error()})
		return
	}
	c.stock = stock
}

// saveStock writes the whole stock map as one ciphered snapshot.
func (c *Core) saveStock() {
	c.stateMu.RLock()
	snapshot := make(map[string]int, len(c.stock))
	for id, qty := range c.stock {
		snapshot[id] = qty
	}
	c.stateMu.RUnlock()

	value, err := sealStock(c.device, snapshot)
	if err != nil {
		c.log.Error("stock snapshot seal failed", Field{Key: "error", Value: err.Error()})
		return
	}
	started := time.Now()
	err = c.kv.Set(c.Context(), stockKey, value)
	c.metrics.RecordStoreOperation("set", time.Since(started), err)
	if err != nil {
		c.log.Error("stock snapshot save failed", Field{Key: "error", Value: err.Error()})
	}
}
