package inapp

import (
	"encoding/json"
	"time"
)

const productsKey = "inappservice_products"

// loadProducts restores the product cache. An absent or corrupt cache
// loads as empty.
func (c *Core) loadProducts() {
	started := time.Now()
	value, ok, err := c.kv.Get(c.Context(), productsKey)
	c.metrics.RecordStoreOperation("get", time.Since(started), err)
	if err != nil {
		c.log.Warn("product cache load failed", Field{Key: "error", Value: err.Error()})
		return
	}
	if !ok {
		return
	}
	var products []Product
	if err := json.Unmarshal([]byte(value), &products); err != nil {
		c.log.Warn("product cache unreadable, starting empty", Field{Key: "error", Value: err.Error()})
		return
	}
	c.products = products
}

func (c *Core) saveProducts() {
	c.stateMu.RLock()
	value, err := json.Marshal(c.products)
	c.stateMu.RUnlock()
	if err != nil {
		c.log.Error("product cache marshal failed", Field{Key: "error", Value: err.Error()})
		return
	}
	started := time.Now()
	setErr := c.kv.Set(c.Context(), productsKey, string(value))
	c.metrics.RecordStoreOperation("set", time.Since(started), setErr)
	if setErr != nil {
		c.log.Error("product cache save failed", Field{Key: "error", Value: setErr.Error()})
	}
}
