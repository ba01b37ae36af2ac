package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/pkg/response"
	"github.com/qs3c/members_server/internal/service"
)

const pdfContentType = "application/pdf"

type ExportHandler struct {
	exportService *service.ExportService
}

func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// MemberHistory 导出会员历史 PDF
// GET /api/v1/export/member/:id/history
func (h *ExportHandler) MemberHistory(c *gin.Context) {
	memberID, ok := requireSelfOrAdmin(c)
	if !ok {
		return
	}

	result, err := h.exportService.RenderMemberHistory(c.Request.Context(), memberID)
	if err != nil {
		handleError(c, err)
		return
	}

	h.write(c, result)
}

// MembersReport 导出会员报表
// GET /api/v1/export/members?member_type=regular&active_members=true&columns=name&columns=email
func (h *ExportHandler) MembersReport(c *gin.Context) {
	var req dto.MembersReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.exportService.MembersReport(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	h.write(c, result)
}

// write 已归档时返回地址，否则直接下载
func (h *ExportHandler) write(c *gin.Context, result *dto.ExportResult) {
	if result.URL != "" {
		response.Success(c, result)
		return
	}
	response.Attachment(c, result.Filename, pdfContentType, result.Data)
}
