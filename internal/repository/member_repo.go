package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/members_server/internal/model"
)

// MemberFilter 会员列表筛选条件
type MemberFilter struct {
	Status     string
	MemberType string
	Role       string
	Search     string
	Page       int
	PageSize   int
}

// DuplicateRow 重复检测的原始行
type DuplicateRow struct {
	ID         int64
	Email      string
	FirstName  string
	LastName   string
	NationalID *string
}

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Create(ctx context.Context, member *model.Member) error {
	return conn(ctx, r.db).Create(member).Error
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	var member model.Member
	err := conn(ctx, r.db).Where("id = ?", id).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByEmail 邮箱不区分大小写
func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*model.Member, error) {
	var member model.Member
	err := conn(ctx, r.db).Where("LOWER(email) = ?", strings.ToLower(email)).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ExistsByEmail excludeID 非 0 时排除该会员自身
func (r *MemberRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	var count int64
	q := conn(ctx, r.db).Model(&model.Member{}).Where("LOWER(email) = ?", strings.ToLower(email))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *MemberRepository) Update(ctx context.Context, member *model.Member) error {
	return conn(ctx, r.db).Save(member).Error
}

func (r *MemberRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return conn(ctx, r.db).Model(&model.Member{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateMemberType 返回受影响行数，类型未变化时为 0
func (r *MemberRepository) UpdateMemberType(ctx context.Context, id int64, memberType string) (int64, error) {
	result := conn(ctx, r.db).Model(&model.Member{}).
		Where("id = ? AND member_type <> ?", id, memberType).
		Update("member_type", memberType)
	return result.RowsAffected, result.Error
}

// Delete 级联删除订阅、支付和操作记录
func (r *MemberRepository) Delete(ctx context.Context, id int64) error {
	db := conn(ctx, r.db)
	if err := db.Where("member_id = ?", id).Delete(&model.Payment{}).Error; err != nil {
		return err
	}
	if err := db.Where("member_id = ?", id).Delete(&model.Subscription{}).Error; err != nil {
		return err
	}
	if err := db.Where("member_id = ?", id).Delete(&model.ActionHistory{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Member{}).Error
}

// DeleteByIDs 删除会员行，调用方需先迁移其关联数据
func (r *MemberRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	result := conn(ctx, r.db).Where("id IN ?", ids).Delete(&model.Member{})
	return result.RowsAffected, result.Error
}

func (r *MemberRepository) List(ctx context.Context, filter MemberFilter) ([]*model.Member, int64, error) {
	var members []*model.Member
	var total int64

	q := conn(ctx, r.db).Model(&model.Member{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.MemberType != "" {
		q = q.Where("member_type = ?", filter.MemberType)
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("created_at DESC, id DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	err := q.Find(&members).Error
	return members, total, err
}

// ListApprovedByType 已审核的指定类型会员
func (r *MemberRepository) ListApprovedByType(ctx context.Context, memberType string) ([]*model.Member, error) {
	var members []*model.Member
	err := conn(ctx, r.db).
		Where("status = ? AND member_type = ?", model.MemberStatusApproved, memberType).
		Order("id ASC").
		Find(&members).Error
	return members, err
}

func (r *MemberRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Member, error) {
	var members []*model.Member
	if len(ids) == 0 {
		return members, nil
	}
	err := conn(ctx, r.db).Where("id IN ?", ids).Order("id ASC").Find(&members).Error
	return members, err
}

// LockByIDs 按 id 升序加行锁，必须在事务中调用
func (r *MemberRepository) LockByIDs(ctx context.Context, ids []int64) ([]*model.Member, error) {
	var members []*model.Member
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&members).Error
	return members, err
}

func (r *MemberRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.Member{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// LockByRole 锁住指定角色的全部行并返回数量
func (r *MemberRepository) LockByRole(ctx context.Context, role string) (int64, error) {
	var ids []int64
	err := conn(ctx, r.db).Model(&model.Member{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ?", role).
		Order("id ASC").
		Pluck("id", &ids).Error
	return int64(len(ids)), err
}

func (r *MemberRepository) CountByStatus(ctx context.Context, role, status string) (int64, error) {
	var count int64
	q := conn(ctx, r.db).Model(&model.Member{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&count).Error
	return count, err
}

// DuplicateEmailRows 与其他会员邮箱（忽略大小写）相同的行
func (r *MemberRepository) DuplicateEmailRows(ctx context.Context) ([]DuplicateRow, error) {
	var rows []DuplicateRow
	db := conn(ctx, r.db)
	sub := db.Model(&model.Member{}).
		Select("LOWER(email)").
		Group("LOWER(email)").
		Having("COUNT(*) > 1")
	err := db.Model(&model.Member{}).
		Select("id, email, first_name, last_name, national_id").
		Where("LOWER(email) IN (?)", sub).
		Order("id ASC").
		Scan(&rows).Error
	return rows, err
}

// DuplicateNationalIDRows 身份证号相同的行，NULL 与空串不参与比较
func (r *MemberRepository) DuplicateNationalIDRows(ctx context.Context) ([]DuplicateRow, error) {
	var rows []DuplicateRow
	db := conn(ctx, r.db)
	sub := db.Model(&model.Member{}).
		Select("national_id").
		Where("national_id IS NOT NULL AND national_id <> ''").
		Group("national_id").
		Having("COUNT(*) > 1")
	err := db.Model(&model.Member{}).
		Select("id, email, first_name, last_name, national_id").
		Where("national_id IN (?)", sub).
		Order("id ASC").
		Scan(&rows).Error
	return rows, err
}

// NameRows 全部会员的姓名，名字归一化在 service 层完成
func (r *MemberRepository) NameRows(ctx context.Context) ([]DuplicateRow, error) {
	var rows []DuplicateRow
	err := conn(ctx, r.db).Model(&model.Member{}).
		Select("id, email, first_name, last_name, national_id").
		Order("id ASC").
		Scan(&rows).Error
	return rows, err
}

// CreatedSince 指定时间之后注册的会员的注册时间
func (r *MemberRepository) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := conn(ctx, r.db).Model(&model.Member{}).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	return times, err
}
