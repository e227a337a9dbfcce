package passport

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// IDGenerator issues passport IDs. IDs are globally unique; idempotency is
// not required since a failed submission is retried as a whole.
type IDGenerator struct{}

func (IDGenerator) GeneratePassportID(ctx context.Context) (string, error) {
	return "PP-" + strings.ToUpper(uuid.New().String()[:8]), nil
}
