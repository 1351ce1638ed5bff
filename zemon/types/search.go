package types

type SearchResult struct {
	Title   string `json:"title" bson:"title"`
	Link    string `json:"link" bson:"link"`
	Snippet string `json:"snippet" bson:"snippet"`
}
