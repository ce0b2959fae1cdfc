package model

type Stats struct {
	Users      int64 `json:"users"`
	Documents  int64 `json:"documents"`
	Embeddings int64 `json:"embeddings"`
}
