package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cetep-lnab/ouvidoria/database/model"
	"github.com/cetep-lnab/ouvidoria/util/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordStore persists users, reports, responses and sessions. Lookups return
// (nil, nil) when nothing matches. Every mutation is durable when it returns.
type RecordStore interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByMatricula(ctx context.Context, matricula string) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	InsertUser(ctx context.Context, user *model.User) error
	UpdateUserEmail(ctx context.Context, id string, email string) error

	InsertReport(ctx context.Context, report *model.Report) error
	GetReport(ctx context.Context, id string) (*model.Report, error)
	ListReportsByUser(ctx context.Context, userId string) ([]*model.Report, error)
	ListAllReports(ctx context.Context) ([]*model.Report, error)
	DeleteReport(ctx context.Context, id string) (bool, error)

	InsertResponse(ctx context.Context, resp *model.Response) error
	GetResponseByReport(ctx context.Context, reportId string) (*model.Response, error)
	ResponsesByReports(ctx context.Context, reportIds []string) (map[string]*model.Response, error)
	DeleteResponsesByReport(ctx context.Context, reportId string) error

	CreateSession(ctx context.Context, s *model.Session) error
	GetSessionUser(ctx context.Context, token string) (*model.User, error)
	DestroySession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore returns the gorm backed RecordStore. A nil conn uses the package
// level database opened by InitDB.
func NewStore(conn *gorm.DB) RecordStore {
	if conn == nil {
		conn = GetDB()
	}
	return &gormStore{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *gormStore) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func first[T any](q *gorm.DB) (*T, error) {
	var out T
	err := q.Take(&out).Error
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *gormStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return first[model.User](s.db.WithContext(ctx).Where("email = ?", email))
}

func (s *gormStore) FindUserByMatricula(ctx context.Context, matricula string) (*model.User, error) {
	matricula = strings.TrimSpace(matricula)
	if matricula == "" {
		return nil, nil
	}
	return first[model.User](s.db.WithContext(ctx).Where("matricula = ?", matricula))
}

func (s *gormStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return first[model.User](s.db.WithContext(ctx).Where("id = ?", id))
}

// InsertUser stores a new user with a lower-cased e-mail. A clash on e-mail or
// matricula yields a ConflictError naming the field.
func (s *gormStore) InsertUser(ctx context.Context, user *model.User) error {
	user.Email = normalizeEmail(user.Email)
	if user.Id == "" {
		user.Id = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	return s.withTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return common.NewConflictError("email")
		}
		if user.Matricula != nil {
			if err := tx.Model(&model.User{}).Where("matricula = ?", *user.Matricula).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return common.NewConflictError("matricula")
			}
		}
		err := tx.Create(user).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.NewConflictError("email")
		}
		return err
	})
}

func (s *gormStore) UpdateUserEmail(ctx context.Context, id string, email string) error {
	email = normalizeEmail(email)
	return s.withTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return common.NewConflictError("email")
		}
		res := tx.Model(&model.User{}).Where("id = ?", id).Update("email", email)
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return common.NewConflictError("email")
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.ErrNotFound
		}
		return nil
	})
}

func (s *gormStore) InsertReport(ctx context.Context, report *model.Report) error {
	if report.Id == "" {
		report.Id = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = s.now()
	}
	return s.db.WithContext(ctx).Create(report).Error
}

func (s *gormStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	return first[model.Report](s.db.WithContext(ctx).Where("id = ?", id))
}

// newest first; rowid breaks ties between reports created in the same instant
const reportOrder = "created_at DESC, rowid DESC"

func (s *gormStore) ListReportsByUser(ctx context.Context, userId string) ([]*model.Report, error) {
	reports := make([]*model.Report, 0)
	err := s.db.WithContext(ctx).Where("user_id = ?", userId).Order(reportOrder).Find(&reports).Error
	return reports, err
}

func (s *gormStore) ListAllReports(ctx context.Context) ([]*model.Report, error) {
	reports := make([]*model.Report, 0)
	err := s.db.WithContext(ctx).Order(reportOrder).Find(&reports).Error
	return reports, err
}

// DeleteReport removes the report and its responses in one transaction and
// reports whether the report existed.
func (s *gormStore) DeleteReport(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&model.Response{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Report{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// InsertResponse fails with ErrNotFound when the report no longer exists.
func (s *gormStore) InsertResponse(ctx context.Context, resp *model.Response) error {
	if resp.Id == "" {
		resp.Id = uuid.NewString()
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = s.now()
	}
	return s.withTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Report{}).Where("id = ?", resp.ReportId).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return common.ErrNotFound
		}
		return tx.Create(resp).Error
	})
}

func (s *gormStore) GetResponseByReport(ctx context.Context, reportId string) (*model.Response, error) {
	return first[model.Response](s.db.WithContext(ctx).
		Where("report_id = ?", reportId).
		Order("created_at DESC, rowid DESC"))
}

// ResponsesByReports returns the latest response of each listed report that
// has one.
func (s *gormStore) ResponsesByReports(ctx context.Context, reportIds []string) (map[string]*model.Response, error) {
	out := make(map[string]*model.Response, len(reportIds))
	if len(reportIds) == 0 {
		return out, nil
	}
	var rows []*model.Response
	err := s.db.WithContext(ctx).
		Where("report_id IN ?", reportIds).
		Order("created_at ASC, rowid ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ReportId] = r
	}
	return out, nil
}

func (s *gormStore) DeleteResponsesByReport(ctx context.Context, reportId string) error {
	return s.db.WithContext(ctx).Where("report_id = ?", reportId).Delete(&model.Response{}).Error
}

func (s *gormStore) CreateSession(ctx context.Context, session *model.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now()
	}
	return s.db.WithContext(ctx).Create(session).Error
}

// GetSessionUser resolves a token to its user. Unknown and expired tokens
// resolve to nil.
func (s *gormStore) GetSessionUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	session, err := first[model.Session](s.db.WithContext(ctx).Where("token = ?", token))
	if err != nil || session == nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, nil
	}
	return s.GetUser(ctx, session.UserId)
}

func (s *gormStore) DestroySession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&model.Session{}).Error
}

func (s *gormStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now.UTC()).
		Delete(&model.Session{})
	return res.RowsAffected, res.Error
}
