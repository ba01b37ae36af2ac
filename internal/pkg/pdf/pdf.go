package pdf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/qs3c/members_server/internal/model"
)

const (
	fontFamily = "Helvetica"
	lineHeight = 6.0
	dateLayout = "02/01/2006"
)

// Column 报表列
type Column struct {
	Key    string
	Header string
	Width  float64
	value  func(m *model.Member) string
}

var columns = []Column{
	{Key: "name", Header: "Name", Width: 45, value: func(m *model.Member) string { return m.FullName() }},
	{Key: "email", Header: "Email", Width: 55, value: func(m *model.Member) string { return m.Email }},
	{Key: "phone", Header: "Phone", Width: 30, value: func(m *model.Member) string { return m.Phone }},
	{Key: "member_type", Header: "Type", Width: 22, value: func(m *model.Member) string { return m.MemberType }},
	{Key: "status", Header: "Status", Width: 22, value: func(m *model.Member) string { return m.Status }},
	{Key: "national_id", Header: "National ID", Width: 30, value: func(m *model.Member) string {
		if m.NationalID == nil {
			return ""
		}
		return *m.NationalID
	}},
	{Key: "address", Header: "Address", Width: 60, value: func(m *model.Member) string { return m.Address }},
	{Key: "created_at", Header: "Registered", Width: 25, value: func(m *model.Member) string { return m.CreatedAt.UTC().Format(dateLayout) }},
}

// DefaultColumns 未指定列时使用
var DefaultColumns = []string{"name", "email", "member_type", "status", "created_at"}

// Columns 按 key 取列定义，未知的 key 返回错误
func Columns(keys []string) ([]Column, error) {
	if len(keys) == 0 {
		keys = DefaultColumns
	}
	result := make([]Column, 0, len(keys))
	for _, key := range keys {
		found := false
		for _, c := range columns {
			if c.Key == key {
				result = append(result, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown column %q", key)
		}
	}
	return result, nil
}

// MemberHistory 单个会员的资料、支付与操作记录
func MemberHistory(w io.Writer, member *model.Member, history []*model.ActionHistory, payments []*model.Payment, generatedAt time.Time) error {
	doc := newDocument("P")
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.AddPage()
	title(doc, tr("Member history: "+member.FullName()), generatedAt)

	section(doc, "Profile")
	field(doc, tr, "Email", member.Email)
	field(doc, tr, "Phone", member.Phone)
	field(doc, tr, "Address", member.Address)
	field(doc, tr, "Member type", member.MemberType)
	field(doc, tr, "Status", member.Status)
	field(doc, tr, "Registered", member.CreatedAt.UTC().Format(dateLayout))
	doc.Ln(lineHeight)

	section(doc, "Payments")
	if len(payments) == 0 {
		doc.CellFormat(0, lineHeight, "No payments", "", 1, "L", false, 0, "")
	}
	for _, p := range payments {
		line := fmt.Sprintf("%s  %.2f  %s  %s", p.PaymentDate.UTC().Format(dateLayout), p.Amount, p.PaymentMethod, p.PaymentStatus)
		doc.CellFormat(0, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}
	doc.Ln(lineHeight)

	section(doc, "History")
	if len(history) == 0 {
		doc.CellFormat(0, lineHeight, "No history", "", 1, "L", false, 0, "")
	}
	for _, h := range history {
		doc.SetFont(fontFamily, "B", 9)
		doc.CellFormat(0, lineHeight, tr(h.CreatedAt.UTC().Format(dateLayout)+"  "+h.ActionType), "", 1, "L", false, 0, "")
		doc.SetFont(fontFamily, "", 9)
		doc.MultiCell(0, lineHeight-1, tr(h.ActionDescription), "", "L", false)
	}

	return doc.Output(w)
}

// MembersReport 会员列表，横向排版
func MembersReport(w io.Writer, heading string, cols []Column, members []*model.Member, generatedAt time.Time) error {
	doc := newDocument("L")
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.AddPage()
	title(doc, tr(heading), generatedAt)

	doc.SetFont(fontFamily, "B", 9)
	doc.SetFillColor(230, 230, 230)
	for _, c := range cols {
		doc.CellFormat(c.Width, lineHeight+1, c.Header, "1", 0, "L", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont(fontFamily, "", 8)
	for _, m := range members {
		for _, c := range cols {
			doc.CellFormat(c.Width, lineHeight, tr(truncate(c.value(m), c.Width)), "1", 0, "L", false, 0, "")
		}
		doc.Ln(-1)
	}

	doc.Ln(lineHeight)
	doc.SetFont(fontFamily, "I", 8)
	doc.CellFormat(0, lineHeight, fmt.Sprintf("Total: %d", len(members)), "", 1, "L", false, 0, "")

	return doc.Output(w)
}

func newDocument(orientation string) *fpdf.Fpdf {
	doc := fpdf.New(orientation, "mm", "A4", "")
	doc.SetMargins(12, 12, 12)
	doc.SetAutoPageBreak(true, 12)
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetY(-10)
		doc.SetFont(fontFamily, "I", 7)
		doc.CellFormat(0, 5, fmt.Sprintf("%d/{nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})
	return doc
}

func title(doc *fpdf.Fpdf, text string, generatedAt time.Time) {
	doc.SetFont(fontFamily, "B", 14)
	doc.CellFormat(0, lineHeight+2, text, "", 1, "L", false, 0, "")
	doc.SetFont(fontFamily, "", 8)
	doc.CellFormat(0, lineHeight, "Generated "+generatedAt.UTC().Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	doc.Ln(lineHeight / 2)
}

func section(doc *fpdf.Fpdf, text string) {
	doc.SetFont(fontFamily, "B", 11)
	doc.CellFormat(0, lineHeight+1, text, "B", 1, "L", false, 0, "")
	doc.SetFont(fontFamily, "", 9)
}

func field(doc *fpdf.Fpdf, tr func(string) string, label, value string) {
	if value == "" {
		return
	}
	doc.SetFont(fontFamily, "B", 9)
	doc.CellFormat(35, lineHeight, label, "", 0, "L", false, 0, "")
	doc.SetFont(fontFamily, "", 9)
	doc.CellFormat(0, lineHeight, tr(value), "", 1, "L", false, 0, "")
}

// truncate 按列宽粗略截断，约 2mm 一个字符
func truncate(s string, width float64) string {
	limit := int(width / 2)
	r := []rune(strings.TrimSpace(s))
	if len(r) <= limit || limit < 2 {
		return string(r)
	}
	return string(r[:limit-1]) + "."
}
