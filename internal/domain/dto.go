package domain

// CreateSnippetRequestDTO represents the expected request body for creating a snippet.
type CreateSnippetRequestDTO struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Description *string  `json:"description"`
	Code        string   `json:"code" binding:"required"`
	Language    string   `json:"language" binding:"required,max=50"`
	IsFavorite  bool     `json:"is_favorite"`
	Tags        []string `json:"tags" binding:"omitempty,dive,max=50"`
}

// Input converts the request into a service input.
func (r CreateSnippetRequestDTO) Input() SnippetInput {
	title, code, lang, fav := r.Title, r.Code, r.Language, r.IsFavorite
	return SnippetInput{
		Patch: SnippetPatch{Title: &title, Description: r.Description, Code: &code, Language: &lang, IsFavorite: &fav},
		Tags:  r.Tags,
	}
}

// UpdateSnippetRequestDTO represents the expected request body for updating a
// snippet. Omitted fields keep their stored values.
type UpdateSnippetRequestDTO struct {
	Title       *string  `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string  `json:"description"`
	Code        *string  `json:"code" binding:"omitempty,min=1"`
	Language    *string  `json:"language" binding:"omitempty,min=1,max=50"`
	IsFavorite  *bool    `json:"is_favorite"`
	Tags        []string `json:"tags" binding:"omitempty,dive,max=50"`
}

// Input converts the request into a service input.
func (r UpdateSnippetRequestDTO) Input() SnippetInput {
	return SnippetInput{
		Patch: SnippetPatch{Title: r.Title, Description: r.Description, Code: r.Code, Language: r.Language, IsFavorite: r.IsFavorite},
		Tags:  r.Tags,
	}
}

// TagRequestDTO is the body for creating or renaming a tag.
type TagRequestDTO struct {
	Name string `json:"name" binding:"required,max=50"`
}

// TagResponseDTO represents a tag in responses.
type TagResponseDTO struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SnippetsCount *int   `json:"snippets_count,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// SnippetResponseDTO represents the response for a single snippet.
type SnippetResponseDTO struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Code        string           `json:"code"`
	Language    string           `json:"language"`
	IsFavorite  bool             `json:"is_favorite"`
	Tags        []TagResponseDTO `json:"tags"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

// ListSnippetsResponseDTO represents the response for listing snippets.
type ListSnippetsResponseDTO struct {
	Items       []SnippetResponseDTO `json:"items"`
	CurrentPage int                  `json:"current_page"`
	LastPage    int                  `json:"last_page"`
	PerPage     int                  `json:"per_page"`
	Total       int                  `json:"total"`
}

// FavoriteResponseDTO is returned after toggling the favorite flag.
type FavoriteResponseDTO struct {
	Message    string             `json:"message"`
	IsFavorite bool               `json:"is_favorite"`
	Snippet    SnippetResponseDTO `json:"snippet"`
}

// MessageResponseDTO carries a human readable outcome.
type MessageResponseDTO struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}
