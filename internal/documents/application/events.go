package application

import (
	"context"
	"time"
)

// DocumentIssued is emitted after a successful document commit. Downstream
// consumers (notification feeds, reporting pipelines) key on DocumentID.
type DocumentIssued struct {
	Kind        string    `json:"kind"` // challan or invoice
	DocumentID  string    `json:"documentId"`
	EntityName  string    `json:"entityName"`
	Date        string    `json:"date"`
	TotalAmount int64     `json:"totalAmount"`
	AmountPaid  int64     `json:"amountPaid"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher delivers DocumentIssued events. Delivery is best effort: a
// publish failure is logged and never fails the issuance that already
// committed.
type Publisher interface {
	PublishDocumentIssued(ctx context.Context, event DocumentIssued) error
}
