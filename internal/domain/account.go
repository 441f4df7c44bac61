package domain

// Account is a user-curated profile for a counterparty account, keyed by the
// reference token that appears in notification messages (typically the masked
// tail of an account or card number). The registry is read-only from the
// ingestion pipeline's point of view; create/edit operations belong to the
// UI collaborator.
type Account struct {
	AccountID           string `json:"account_id" yaml:"account_id"`
	Name                string `json:"name" yaml:"name"`
	DefaultTitle        string `json:"default_title" yaml:"default_title"`
	DefaultCategoryName string `json:"default_category_name" yaml:"default_category_name"`
}
