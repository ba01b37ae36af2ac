package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/members_server/internal/api/middleware"
	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/pkg/response"
	"github.com/qs3c/members_server/internal/repository"
	"github.com/qs3c/members_server/internal/service"
)

type MemberHandler struct {
	memberService     *service.MemberService
	lifecycleService  *service.LifecycleService
	duplicateService  *service.DuplicateService
	defaultWindowDays int
}

func NewMemberHandler(
	memberService *service.MemberService,
	lifecycleService *service.LifecycleService,
	duplicateService *service.DuplicateService,
	defaultWindowDays int,
) *MemberHandler {
	return &MemberHandler{
		memberService:     memberService,
		lifecycleService:  lifecycleService,
		duplicateService:  duplicateService,
		defaultWindowDays: defaultWindowDays,
	}
}

// List 会员列表
// GET /api/v1/members
func (h *MemberHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := repository.MemberFilter{
		Status:     c.Query("status"),
		MemberType: c.Query("member_type"),
		Role:       c.Query("role"),
		Search:     c.Query("search"),
		Page:       page,
		PageSize:   pageSize,
	}

	items, total, err := h.memberService.List(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Create 管理员添加会员
// POST /api/v1/members
func (h *MemberHandler) Create(c *gin.Context) {
	var req dto.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.memberService.Create(c.Request.Context(), &req, middleware.Actor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "会员已添加", resp)
}

// Get 会员详情
// GET /api/v1/members/:id
func (h *MemberHandler) Get(c *gin.Context) {
	id, ok := requireSelfOrAdmin(c)
	if !ok {
		return
	}

	info, err := h.memberService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, info)
}

// Update 更新会员资料，普通会员只能改自己的资料且不能改会员类型
// PUT /api/v1/members/:id
func (h *MemberHandler) Update(c *gin.Context) {
	id, ok := requireSelfOrAdmin(c)
	if !ok {
		return
	}

	var req dto.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if req.MemberType != nil && !middleware.IsSuperAdmin(c) {
		response.PermissionError(c, "只有管理员可以修改会员类型")
		return
	}

	info, err := h.memberService.Update(c.Request.Context(), id, &req, middleware.Actor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", info)
}

// Delete 删除会员
// DELETE /api/v1/members/:id
func (h *MemberHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.memberService.Delete(c.Request.Context(), id, middleware.Actor(c)); err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// History 会员操作记录
// GET /api/v1/members/:id/history
func (h *MemberHandler) History(c *gin.Context) {
	id, ok := requireSelfOrAdmin(c)
	if !ok {
		return
	}

	entries, err := h.memberService.History(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, entries)
}

// Approve 审核通过
// POST /api/v1/members/:id/approve
func (h *MemberHandler) Approve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	info, err := h.memberService.Approve(c.Request.Context(), id, middleware.Actor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已通过审核", info)
}

// Deny 拒绝申请
// POST /api/v1/members/:id/deny
func (h *MemberHandler) Deny(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	info, err := h.memberService.Deny(c.Request.Context(), id, middleware.Actor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已拒绝申请", info)
}

// ChangeRole 修改角色
// PUT /api/v1/members/:id/role
func (h *MemberHandler) ChangeRole(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.memberService.ChangeRole(c.Request.Context(), id, req.Role, middleware.Actor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "角色已更新", info)
}

// Expiry 会员到期日
// GET /api/v1/members/:id/expiry
func (h *MemberHandler) Expiry(c *gin.Context) {
	id, ok := requireSelfOrAdmin(c)
	if !ok {
		return
	}

	expiry, err := h.lifecycleService.ComputeExpiry(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, expiry)
}

// Expiring 即将到期的会员
// GET /api/v1/members/expiring?days=30
func (h *MemberHandler) Expiring(c *gin.Context) {
	days := h.defaultWindowDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.ParamError(c, "days 必须是整数")
			return
		}
		days = n
	}

	items, err := h.lifecycleService.ListExpiringSoon(c.Request.Context(), days)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, items)
}

// Duplicates 疑似重复的会员
// GET /api/v1/members/duplicates?type=email|name|national_id|all
func (h *MemberHandler) Duplicates(c *gin.Context) {
	resp, err := h.duplicateService.FindDuplicates(c.Request.Context(), c.Query("type"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, resp)
}

// Merge 合并重复会员
// POST /api/v1/members/merge
func (h *MemberHandler) Merge(c *gin.Context) {
	var req dto.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.duplicateService.MergeGroup(c.Request.Context(), req.TargetMemberID, req.SourceMemberIDs, middleware.Actor(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "合并成功", resp)
}
