package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// AuditAttributes tags the New Relic transaction started by nrgin with the
// trip being audited and any idempotency key. Without an active transaction
// it does nothing.
func AuditAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if id := c.Param("id"); id != "" {
			txn.AddAttribute("trip.id", id)
		}
		if key := c.GetHeader(idempotencyHeader); key != "" {
			txn.AddAttribute("request.idempotencyKey", key)
		}

		c.Next()

		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				txn.NoticeError(err.Err)
			}
		}
	}
}
