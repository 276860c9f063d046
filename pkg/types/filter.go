package types

// Filter represents query parameters for searching and pagination.
type Filter struct {
	Search         string `json:"search,omitempty"`
	Limit          int    `json:"limit"`
	Offset         int    `json:"offset"`
	Page           int    `json:"page"`
	WithPagination bool   `json:"with_pagination"`
}

// http://localhost:8080/users?q=sarad&page=2&size=10
