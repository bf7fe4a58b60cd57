package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
)

// EventFormStatusUpdate 表单状态流转的出站事件名。
const EventFormStatusUpdate = "formStatusUpdate"

// FormService 负责数字表单和条目的生命周期管理。
// 状态流转成功后向表单所在生产线的房间广播 formStatusUpdate。
type FormService struct {
	formRepo    repository.FormRepository
	entryRepo   repository.EntryRepository
	broadcaster ProductionBroadcaster
}

// NewFormService 创建 FormService 实例。broadcaster 允许为 nil (纯 REST 部署)。
func NewFormService(formRepo repository.FormRepository, entryRepo repository.EntryRepository, broadcaster ProductionBroadcaster) *FormService {
	if formRepo == nil || entryRepo == nil {
		panic("form and entry repositories must be non-nil for FormService")
	}
	return &FormService{
		formRepo:    formRepo,
		entryRepo:   entryRepo,
		broadcaster: broadcaster,
	}
}

// CreateFormInput 是创建表单的输入。
type CreateFormInput struct {
	FactoryID uint      `json:"factoryId"`
	LineID    uint      `json:"lineId"`
	TeamID    uint      `json:"teamId"`
	GroupID   uint      `json:"groupId"`
	Date      time.Time `json:"date"`
	ShiftType string    `json:"shiftType"`
}

// CreateForm 创建一张 DRAFT 状态的新表单。
func (s *FormService) CreateForm(ctx context.Context, creatorID uint, in CreateFormInput) (*domain.DigitalForm, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"line_id": in.LineID,
		"user_id": creatorID,
	})

	if in.FactoryID == 0 || in.LineID == 0 || in.TeamID == 0 || in.GroupID == 0 {
		return nil, fmt.Errorf("factory, line, team and group are all required")
	}
	if in.ShiftType == "" {
		in.ShiftType = "REGULAR"
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	form := &domain.DigitalForm{
		FactoryID: in.FactoryID,
		LineID:    in.LineID,
		TeamID:    in.TeamID,
		GroupID:   in.GroupID,
		Date:      in.Date,
		ShiftType: in.ShiftType,
		Status:    domain.FormStatusDraft,
		CreatedBy: creatorID,
	}
	if err := s.formRepo.Save(ctx, form); err != nil {
		logCtx.WithError(err).Error("Failed to create form")
		return nil, ErrInternalServer
	}

	logCtx.WithField("form_id", form.ID).Info("Form created")
	return form, nil
}

// GetFormWithEntries 获取表单及其全部条目 (含问题列表)。
func (s *FormService) GetFormWithEntries(ctx context.Context, formID uint) (*domain.DigitalForm, error) {
	form, err := s.formRepo.FindByIDWithEntries(ctx, formID)
	if err != nil {
		if errors.Is(err, repository.ErrFormNotFound) {
			return nil, ErrFormNotFound
		}
		logrus.WithError(err).WithField("form_id", formID).Error("Failed to load form with entries")
		return nil, ErrInternalServer
	}
	return form, nil
}

// ListByLineAndDate 列出某条生产线某天的表单。
func (s *FormService) ListByLineAndDate(ctx context.Context, lineID uint, date time.Time) ([]domain.DigitalForm, error) {
	forms, err := s.formRepo.ListByLineAndDate(ctx, lineID, date)
	if err != nil {
		logrus.WithError(err).WithField("line_id", lineID).Error("Failed to list forms")
		return nil, ErrInternalServer
	}
	return forms, nil
}

// CreateEntryInput 是在表单下新建条目的输入。
type CreateEntryInput struct {
	WorkerID      uint `json:"workerId"`
	HandBagID     uint `json:"handBagId"`
	BagColorID    uint `json:"bagColorId"`
	ProcessID     uint `json:"processId"`
	PlannedOutput int  `json:"plannedOutput"`
}

// CreateEntry 在表单下创建一个工人条目。表单进入终态后不再可添加。
func (s *FormService) CreateEntry(ctx context.Context, formID uint, in CreateEntryInput) (*domain.ProductionEntry, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"form_id":   formID,
		"worker_id": in.WorkerID,
	})

	form, err := s.formRepo.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repository.ErrFormNotFound) {
			return nil, ErrFormNotFound
		}
		logCtx.WithError(err).Error("Failed to load form")
		return nil, ErrInternalServer
	}
	if form.Status.IsTerminal() {
		return nil, ErrEntryLocked
	}

	entry := &domain.ProductionEntry{
		FormID:           formID,
		WorkerID:         in.WorkerID,
		HandBagID:        in.HandBagID,
		BagColorID:       in.BagColorID,
		ProcessID:        in.ProcessID,
		PlannedOutput:    in.PlannedOutput,
		AttendanceStatus: domain.AttendancePresent,
	}
	if err := entry.SetHourlyData(domain.HourMap{}); err != nil {
		logCtx.WithError(err).Error("Failed to initialize hourly data")
		return nil, ErrInternalServer
	}
	if err := s.entryRepo.Save(ctx, entry); err != nil {
		logCtx.WithError(err).Error("Failed to create entry")
		return nil, ErrInternalServer
	}

	logCtx.WithField("entry_id", entry.ID).Info("Entry created")
	return entry, nil
}

// TransitionStatus 执行一次表单状态流转并广播 formStatusUpdate。
// 进入 APPROVED / REJECTED 时记录审批者。
func (s *FormService) TransitionStatus(ctx context.Context, formID uint, actorID uint, next domain.FormStatus) (*domain.DigitalForm, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"form_id": formID,
		"user_id": actorID,
		"next":    next,
	})

	form, err := s.formRepo.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repository.ErrFormNotFound) {
			return nil, ErrFormNotFound
		}
		logCtx.WithError(err).Error("Failed to load form")
		return nil, ErrInternalServer
	}

	previous := form.Status
	if err := form.Transition(next); err != nil {
		logCtx.WithError(err).Warn("Rejected form status transition")
		return nil, ErrInvalidTransition
	}

	var approvedBy *uint
	if next == domain.FormStatusApproved || next == domain.FormStatusRejected {
		approvedBy = &actorID
		form.ApprovedBy = approvedBy
	}

	if err := s.formRepo.UpdateStatus(ctx, formID, next, approvedBy); err != nil {
		if errors.Is(err, repository.ErrFormNotFound) {
			return nil, ErrFormNotFound
		}
		logCtx.WithError(err).Error("Failed to persist form status")
		return nil, ErrInternalServer
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToLevel("line", form.LineID, EventFormStatusUpdate, map[string]interface{}{
			"formId":    form.ID,
			"from":      previous,
			"status":    next,
			"actorId":   actorID,
			"date":      form.Date,
			"shift":     form.ShiftType,
			"groupId":   form.GroupID,
			"teamId":    form.TeamID,
			"lineId":    form.LineID,
			"factoryId": form.FactoryID,
		})
	}

	logCtx.WithField("from", previous).Info("Form status updated")
	return form, nil
}
