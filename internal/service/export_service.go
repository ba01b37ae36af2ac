package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/pkg/pdf"
	"github.com/qs3c/members_server/internal/repository"
)

// Archiver 导出文件归档，oss.Client 实现
type Archiver interface {
	UploadReport(name string, data []byte) (string, error)
}

type ExportService struct {
	memberRepo  *repository.MemberRepository
	paymentRepo *repository.PaymentRepository
	audit       *AuditService
	archiver    Archiver
	now         func() time.Time
}

func NewExportService(
	memberRepo *repository.MemberRepository,
	paymentRepo *repository.PaymentRepository,
	audit *AuditService,
	archiver Archiver,
) *ExportService {
	return &ExportService{
		memberRepo:  memberRepo,
		paymentRepo: paymentRepo,
		audit:       audit,
		archiver:    archiver,
		now:         time.Now,
	}
}

// MemberHistory 会员资料、操作记录与支付
func (s *ExportService) MemberHistory(ctx context.Context, memberID int64) (*dto.MemberHistorySnapshot, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, notFoundOr(err, ErrMemberNotFound)
	}
	history, err := s.audit.ListForMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, internalError(err)
	}
	return &dto.MemberHistorySnapshot{Member: member, History: history, Payments: payments}, nil
}

// RenderMemberHistory 会员历史 PDF
func (s *ExportService) RenderMemberHistory(ctx context.Context, memberID int64) (*dto.ExportResult, error) {
	snapshot, err := s.MemberHistory(ctx, memberID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.MemberHistory(&buf, snapshot.Member, snapshot.History, snapshot.Payments, s.now()); err != nil {
		return nil, internalError(err)
	}

	return s.finish(fmt.Sprintf("member_%d_history.pdf", memberID), buf.Bytes()), nil
}

// MembersReport 按条件导出会员列表
func (s *ExportService) MembersReport(ctx context.Context, req *dto.MembersReportRequest) (*dto.ExportResult, error) {
	if req.MemberType != "" && !model.IsValidMemberType(req.MemberType) {
		return nil, ErrInvalidMemberType
	}
	cols, err := pdf.Columns(req.Columns)
	if err != nil {
		return nil, newError(ErrInvalidArgument, "无效的导出列")
	}

	filter := repository.MemberFilter{MemberType: req.MemberType}
	if req.ActiveMembers {
		filter.Status = model.MemberStatusApproved
	}
	members, _, err := s.memberRepo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err)
	}

	heading := "Members"
	if req.ActiveMembers {
		heading = "Active members"
	}
	if req.MemberType != "" {
		heading += " (" + req.MemberType + ")"
	}

	var buf bytes.Buffer
	if err := pdf.MembersReport(&buf, heading, cols, members, s.now()); err != nil {
		return nil, internalError(err)
	}

	name := "members"
	if req.MemberType != "" {
		name += "_" + req.MemberType
	}
	return s.finish(strings.ToLower(name)+".pdf", buf.Bytes()), nil
}

// finish 归档失败不影响下载
func (s *ExportService) finish(filename string, data []byte) *dto.ExportResult {
	result := &dto.ExportResult{Filename: filename, Data: data}
	if s.archiver == nil {
		return result
	}
	url, err := s.archiver.UploadReport(filename, data)
	if err != nil {
		log.Printf("[export] failed to archive %s: %v", filename, err)
		return result
	}
	result.URL = url
	return result
}
