package models

// SearchResult is a transient projection returned by search. Similarity is
// set only for semantic-origin results; keyword-origin results leave it nil
// so the UI never renders a false "0% match".
type SearchResult struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Creators        string   `json:"creators"`
	ProductCategory *string  `json:"product_category,omitempty"`
	Description     string   `json:"description"`
	Similarity      *float64 `json:"similarity,omitempty"`
}
