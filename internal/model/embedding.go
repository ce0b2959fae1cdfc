package model

type Embedding struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"doc_id"`
	Content    string    `json:"content"`
	Vector     []float32 `json:"embedding"`
}

// SearchResult is one ranked neighbour. Score is cosine similarity in
// [-1, 1]: 1 is the same direction, 0 orthogonal, -1 opposite.
type SearchResult struct {
	ID            int64   `json:"id"`
	DocumentID    int64   `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
}
