package dto

// RecordPaymentRequest 登记付款
type RecordPaymentRequest struct {
	MemberID       int64   `json:"member_id" binding:"required"`
	SubscriptionID *int64  `json:"subscription_id,omitempty"`
	Amount         float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethod  string  `json:"payment_method" binding:"required"`
	Notes          string  `json:"notes"`
}

// CreateIntentRequest 创建在线支付
type CreateIntentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// CreateIntentResponse 在线支付凭证
type CreateIntentResponse struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url,omitempty"`
}
