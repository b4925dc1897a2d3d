package types

type Review struct {
	ID            int    `json:"id"`
	ProductID     int    `json:"product_id"`
	Reviewer      string `json:"reviewer"`
	ReviewerEmail string `json:"reviewer_email"`
	Review        string `json:"review"`
	Rating        int    `json:"rating"`
	Verified      bool   `json:"verified"`
	DateCreated   string `json:"date_created"`
}

// ReviewInput is the payload for POST /products/{id}/reviews.
type ReviewInput struct {
	Reviewer      string `json:"reviewer" validate:"required,max=100"`
	ReviewerEmail string `json:"reviewer_email" validate:"required,email"`
	Review        string `json:"review" validate:"required"`
	Rating        int    `json:"rating" validate:"required,min=1,max=5"`
}

type Coupon struct {
	ID           int    `json:"id"`
	Code         string `json:"code"`
	DiscountType string `json:"discount_type"`
	Amount       string `json:"amount"`
	Description  string `json:"description"`
}
