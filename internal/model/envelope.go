package model

// Envelope wraps every backend response.
type Envelope[T any] struct {
	Content T        `json:"content"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// Page is the content of list endpoints.
type Page[T any] struct {
	Entries   []T `json:"entries"`
	TotalData int `json:"totalData"`
	TotalPage int `json:"totalPage"`
}
