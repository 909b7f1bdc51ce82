// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the consumer of catalog change events.
package queue

// Catalog change actions.
const (
	ActionCreated        = "catalog.created"
	ActionRenamed        = "catalog.renamed"
	ActionSectionCreated = "section.created"
	ActionSectionRenamed = "section.renamed"
	ActionSectionDeleted = "section.deleted"
	ActionSectionMoved   = "section.moved"
	ActionItemPushed     = "item.pushed"
	ActionItemRemoved    = "item.removed"
	ActionItemToggled    = "item.toggled"
)

// CatalogChangedEvent is published after a catalog has been saved. It
// carries enough for consumers to evict cached public menus without
// querying the primary database.
type CatalogChangedEvent struct {
	CatalogID   uint64 `json:"catalog_id"`
	BranchID    uint64 `json:"branch_id"`
	CompanyID   uint64 `json:"company_id"`
	CompanyName string `json:"company_name"`
	Action      string `json:"action"`
	UserID      uint64 `json:"user_id"`
	Version     int64  `json:"version"`
	ChangedAt   string `json:"changed_at"`
}
