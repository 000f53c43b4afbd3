package service

import (
	"context"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/repository"
)

type HistoryService interface {
	GetHistory(ctx context.Context, eventID string) ([]*model.HistoryEntry, error)
	GetAttempts(ctx context.Context, attendanceID string) (*model.CertificateAttempts, error)
}

type historyService struct {
	eventRepo      repository.EventRepository
	attendanceRepo repository.AttendanceRepository
	ledger         repository.CertificateRepository
}

func NewHistoryService(eventRepo repository.EventRepository, attendanceRepo repository.AttendanceRepository, ledger repository.CertificateRepository) HistoryService {
	return &historyService{eventRepo: eventRepo, attendanceRepo: attendanceRepo, ledger: ledger}
}

// GetHistory event tanpa peserta menghasilkan list kosong, bukan error
func (s *historyService) GetHistory(ctx context.Context, eventID string) ([]*model.HistoryEntry, error) {
	uid, err := parseID(eventID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	entries, err := s.ledger.History(ctx, uid)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*model.HistoryEntry{}
	}
	return entries, nil
}

func (s *historyService) GetAttempts(ctx context.Context, attendanceID string) (*model.CertificateAttempts, error) {
	uid, err := parseID(attendanceID)
	if err != nil {
		return nil, err
	}
	att, err := s.attendanceRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, ErrAttendanceNotFound
	}

	issuances, err := s.ledger.IssuancesByAttendance(ctx, uid)
	if err != nil {
		return nil, err
	}
	deliveries, err := s.ledger.DeliveriesByAttendance(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &model.CertificateAttempts{AttendanceID: uid, Issuances: issuances, Deliveries: deliveries}, nil
}
