package dto

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=64"`
	FirstName   string `json:"first_name" binding:"required,max=100"`
	LastName    string `json:"last_name" binding:"required,max=100"`
	FathersName string `json:"fathers_name" binding:"max=100"`
	NationalID  string `json:"national_id" binding:"max=50"`
	Phone       string `json:"phone" binding:"max=30"`
	Address     string `json:"address" binding:"max=255"`
	MemberType  string `json:"member_type" binding:"required,oneof=regular supporter"`

	// 注册时选择付费方案，生成待确认的付款记录
	DurationMonths int     `json:"duration_months,omitempty" binding:"omitempty,min=1"`
	Amount         float64 `json:"amount,omitempty" binding:"omitempty,min=0"`
	PaymentMethod  string  `json:"payment_method,omitempty"`
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	Member *MemberInfo `json:"member"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token  string      `json:"token"`
	Member *MemberInfo `json:"member"`
}
