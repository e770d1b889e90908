package dto

type CreateNcfSequenceRequest struct {
	StoreID    string  `json:"store_id"    validate:"required,uuid"`
	TypeCode   string  `json:"type_code"   validate:"required,len=3"`
	Prefix     *string `json:"prefix"`
	NextNumber int64   `json:"next_number" validate:"min=0"`
	EndNumber  *int64  `json:"end_number"`
	PadLength  int     `json:"pad_length"  validate:"min=0,max=12"`
}

type UpdateNcfSequenceRequest struct {
	Prefix     *string `json:"prefix"`
	NextNumber *int64  `json:"next_number"`
	EndNumber  *int64  `json:"end_number"`
	Active     *bool   `json:"active"`
}

type NcfSequenceResponse struct {
	ID         string  `json:"id"`
	StoreID    string  `json:"store_id"`
	TypeCode   string  `json:"type_code"`
	Prefix     *string `json:"prefix,omitempty"`
	NextNumber int64   `json:"next_number"`
	EndNumber  *int64  `json:"end_number,omitempty"`
	PadLength  int     `json:"pad_length"`
	Active     bool    `json:"active"`
}
