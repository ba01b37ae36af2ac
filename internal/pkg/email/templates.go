package email

import (
	"fmt"
	"html"
	"time"

	"github.com/qs3c/members_server/internal/pkg/notify"
)

const dateLayout = "02/01/2006"

// layout 统一的邮件外框
func layout(title, content string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">%s</h2>
        %s
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This is an automated message, please do not reply.</p>
    </div>
</body>
</html>
`, title, content)
}

// ExpiryReminder 订阅即将到期提醒
func ExpiryReminder(to, name string, endDate time.Time) *notify.Message {
	return &notify.Message{
		To:      to,
		Subject: "Subscription Expiring Soon",
		HTML: layout("Subscription Expiring Soon", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>Your subscription is expiring on %s.</p>
        <p>Please renew to maintain your status.</p>`,
			html.EscapeString(name), endDate.UTC().Format(dateLayout))),
	}
}

// SubscriptionExpired 订阅过期并自动降级
func SubscriptionExpired(to, name, newType string) *notify.Message {
	return &notify.Message{
		To:      to,
		Subject: "Subscription Expired",
		HTML: layout("Subscription Expired", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>Your subscription has expired. Your membership has been converted to %s.</p>`,
			html.EscapeString(name), html.EscapeString(newType))),
	}
}

// SubscriptionConfirmed 订阅或升级成功
func SubscriptionConfirmed(to, name, memberType string, endDate time.Time, amount float64) *notify.Message {
	return &notify.Message{
		To:      to,
		Subject: "Subscription Confirmed",
		HTML: layout("Subscription Confirmed", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>Your %s membership is active until %s.</p>
        <p>Amount received: %.2f</p>`,
			html.EscapeString(name), html.EscapeString(memberType), endDate.UTC().Format(dateLayout), amount)),
	}
}

// RegistrationReceived 注册成功，等待审核
func RegistrationReceived(to, name string) *notify.Message {
	return &notify.Message{
		To:      to,
		Subject: "Registration Received - Pending Approval",
		HTML: layout("Registration Received", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>Thank you for registering. Your account is currently under review.</p>
        <p>You will receive another email once your account has been approved.</p>`,
			html.EscapeString(name))),
	}
}

// NewRegistration 通知管理员有新注册
func NewRegistration(adminEmail, name, memberEmail, memberType string) *notify.Message {
	return &notify.Message{
		To:      adminEmail,
		Subject: "New Member Registration",
		HTML: layout("New Member Registration", fmt.Sprintf(`
        <p>A new member has registered and is pending approval.</p>
        <p><strong>Name:</strong> %s</p>
        <p><strong>Email:</strong> %s</p>
        <p><strong>Member Type:</strong> %s</p>
        <p>Please log in to the admin dashboard to approve or deny this request.</p>`,
			html.EscapeString(name), html.EscapeString(memberEmail), html.EscapeString(memberType))),
	}
}

// Approved 审核通过
func Approved(to, name string) *notify.Message {
	return &notify.Message{
		To:      to,
		Subject: "Membership Approved",
		HTML: layout("Membership Approved", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>Your membership has been approved. You can now log in.</p>`,
			html.EscapeString(name))),
	}
}

// Denied 审核拒绝
func Denied(to, name string) *notify.Message {
	return &notify.Message{
		To:      to,
		Subject: "Membership Application Update",
		HTML: layout("Membership Application Update", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>We regret to inform you that your membership application was not approved.</p>`,
			html.EscapeString(name))),
	}
}

// Welcome 管理员创建的账号，附带临时密码
func Welcome(to, name, temporaryPassword string) *notify.Message {
	return &notify.Message{
		To:      to,
		Subject: "Welcome",
		HTML: layout("Welcome", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>An account has been created for you.</p>
        <p><strong>Email:</strong> %s</p>
        <p><strong>Temporary password:</strong> %s</p>
        <p>Please change your password after the first login.</p>`,
			html.EscapeString(name), html.EscapeString(to), html.EscapeString(temporaryPassword))),
	}
}

// RoleChanged 角色变更
func RoleChanged(to, name, role string) *notify.Message {
	return &notify.Message{
		To:      to,
		Subject: "Role Updated",
		HTML: layout("Role Updated", fmt.Sprintf(`
        <p>Hello %s,</p>
        <p>Your role has been changed to %s.</p>`,
			html.EscapeString(name), html.EscapeString(role))),
	}
}
