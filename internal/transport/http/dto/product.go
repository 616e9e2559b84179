package dto

const (
	DefaultPageSize = 12
	MaxPageSize     = 48
)

// UploadFile is one uploaded blob with its declared content type, already
// read into memory by the transport layer.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ProductCreateInput struct {
	Name            string       `json:"name" form:"name" validate:"required,max=255"`
	Description     string       `json:"description" form:"description"`
	Category        string       `json:"category" form:"category" validate:"required"`
	Sizes           []string     `json:"sizes"`
	Colors          []string     `json:"colors"`
	Tags            []string     `json:"tags"`
	IsNewCollection bool         `json:"isNewCollection" form:"is_new_collection"`
	Files           []UploadFile `json:"-"`
}

type ProductUpdateInput struct {
	SoldOut *bool `json:"soldOut" validate:"required"`
}

// ListQuery carries the shared pagination parameters of every read path.
type ListQuery struct {
	Page     int `query:"page"`
	PageSize int `query:"page_size"`
}

// Normalize applies the pagination policy: page starts at 1, page size
// defaults to DefaultPageSize and never exceeds MaxPageSize.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}
