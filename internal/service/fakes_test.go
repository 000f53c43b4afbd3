package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/repository"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/google/uuid"
)

// memStore meniru tabel events, attendances dan ledger sertifikat di memori.
// Admit dijalankan di bawah satu mutex, setara dengan row lock di Postgres.
type memStore struct {
	mu          sync.Mutex
	events      map[uuid.UUID]*model.Event
	attendances map[uuid.UUID]*model.Attendance
	issuances   []*model.IssuanceRecord
	deliveries  []*model.DeliveryRecord

	// beforeAdmit dipanggil di dalam Admit sebelum counter dinaikkan
	beforeAdmit func(e *model.Event)
	// markDeliveredErr dikembalikan MarkDelivered bila diisi
	markDeliveredErr error
}

func newMemStore() *memStore {
	return &memStore{
		events:      map[uuid.UUID]*model.Event{},
		attendances: map[uuid.UUID]*model.Attendance{},
	}
}

func (s *memStore) addEvent(e *model.Event) *model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	s.events[e.ID] = &cp
	return e
}

func (s *memStore) attendance(id uuid.UUID) *model.Attendance {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attendances[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

func (s *memStore) event(id uuid.UUID) *model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil
	}
	cp := *e
	return &cp
}

// ── events ──────────────────────────────────────────

type fakeEventRepo struct{ s *memStore }

func (r fakeEventRepo) FindAll(_ context.Context, filter model.EventFilter) ([]*model.Event, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Event
	for _, e := range r.s.events {
		if filter.Status == "" || string(e.Status) == filter.Status {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r fakeEventRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Event, error) {
	return r.s.event(id), nil
}

func (r fakeEventRepo) FindByNomorSurat(_ context.Context, nomor string) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.events {
		if e.NomorSurat == nomor {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeEventRepo) Create(_ context.Context, e *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.events {
		if other.NomorSurat == e.NomorSurat {
			return repository.ErrDuplicateNomorSurat
		}
	}
	cp := *e
	cp.AttendanceSeq = 0
	r.s.events[e.ID] = &cp
	return nil
}

func (r fakeEventRepo) Update(_ context.Context, e *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.events[e.ID]
	if !ok {
		return nil
	}
	cp := *e
	cp.AttendanceSeq = cur.AttendanceSeq
	cp.Status = cur.Status
	r.s.events[e.ID] = &cp
	return nil
}

func (r fakeEventRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.EventStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := r.s.events[id]; ok {
		e.Status = status
	}
	return nil
}

func (r fakeEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.events, id)
	for aid, a := range r.s.attendances {
		if a.EventID == id {
			delete(r.s.attendances, aid)
		}
	}
	return nil
}

// ── attendances ─────────────────────────────────────

type fakeAttendanceRepo struct{ s *memStore }

func (r fakeAttendanceRepo) Admit(_ context.Context, att *model.Attendance, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[att.EventID]
	if !ok {
		return repository.ErrAdmissionClosed
	}
	if r.s.beforeAdmit != nil {
		r.s.beforeAdmit(e)
	}
	if e.Status != model.EventActive || now.After(e.BatasWaktuAbsensi) {
		return repository.ErrAdmissionClosed
	}
	if email := att.EmailAddress(); email != "" {
		for _, other := range r.s.attendances {
			if other.EventID == att.EventID && other.EmailAddress() == email {
				return repository.ErrDuplicateEmail
			}
		}
	}

	e.AttendanceSeq++
	att.UrutanAbsensi = e.AttendanceSeq
	att.NomorSertifikat = utils.FormatCertificateNumber(e.AttendanceSeq, e.NomorSurat)
	att.DeliveryStatus = model.DeliveryPending
	cp := *att
	r.s.attendances[att.ID] = &cp
	return nil
}

func (r fakeAttendanceRepo) FindAll(_ context.Context, filter model.AttendanceFilter) ([]*model.Attendance, int64, error) {
	list, _ := r.ListByEvent(context.Background(), filter.EventID)
	var out []*model.Attendance
	for _, a := range list {
		if filter.DeliveryStatus == "" || string(a.DeliveryStatus) == filter.DeliveryStatus {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (r fakeAttendanceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Attendance, error) {
	return r.s.attendance(id), nil
}

func (r fakeAttendanceRepo) FindByEventAndEmail(_ context.Context, eventID uuid.UUID, email string) (*model.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.attendances {
		if a.EventID == eventID && a.EmailAddress() == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeAttendanceRepo) FindByNomorSertifikat(_ context.Context, nomor string) (*model.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.attendances {
		if a.NomorSertifikat == nomor {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeAttendanceRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]*model.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Attendance{}
	for _, a := range r.s.attendances {
		if a.EventID == eventID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UrutanAbsensi < out[j].UrutanAbsensi })
	return out, nil
}

func (r fakeAttendanceRepo) Update(_ context.Context, att *model.Attendance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.attendances[att.ID]
	if !ok {
		return nil
	}
	if email := att.EmailAddress(); email != "" {
		for _, other := range r.s.attendances {
			if other.ID != att.ID && other.EventID == att.EventID && other.EmailAddress() == email {
				return repository.ErrDuplicateEmail
			}
		}
	}
	cp := *att
	cp.UrutanAbsensi = cur.UrutanAbsensi
	cp.NomorSertifikat = cur.NomorSertifikat
	r.s.attendances[att.ID] = &cp
	return nil
}

func (r fakeAttendanceRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.attendances, id)
	return nil
}

func (r fakeAttendanceRepo) UpdateCertificate(_ context.Context, id uuid.UUID, url string, generatedAt time.Time) (*string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attendances[id]
	if !ok {
		return nil, nil
	}
	previous := a.CertificateURL
	a.CertificateURL = &url
	a.GeneratedAt = &generatedAt
	return previous, nil
}

func (r fakeAttendanceRepo) AcquireDeliveryLock(_ context.Context, id uuid.UUID, now, until time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attendances[id]
	if !ok || a.CertificateURL == nil {
		return false, nil
	}
	if a.DeliveryLockUntil != nil && !a.DeliveryLockUntil.Before(now) {
		return false, nil
	}
	a.DeliveryLockUntil = &until
	return true, nil
}

func (r fakeAttendanceRepo) MarkDelivered(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.markDeliveredErr != nil {
		return r.s.markDeliveredErr
	}
	if a, ok := r.s.attendances[id]; ok {
		a.DeliveryStatus = model.DeliveryDelivered
		a.DeliveredAt = &at
		a.DeliveryLockUntil = nil
	}
	return nil
}

func (r fakeAttendanceRepo) ReleaseDeliveryLock(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.s.attendances[id]; ok {
		a.DeliveryLockUntil = nil
	}
	return nil
}

// ── ledger ──────────────────────────────────────────

type fakeLedger struct{ s *memStore }

func (l fakeLedger) RecordIssuance(_ context.Context, rec *model.IssuanceRecord) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	cp := *rec
	l.s.issuances = append(l.s.issuances, &cp)
	return nil
}

func (l fakeLedger) RecordDelivery(_ context.Context, rec *model.DeliveryRecord) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	cp := *rec
	l.s.deliveries = append(l.s.deliveries, &cp)
	return nil
}

func (l fakeLedger) History(ctx context.Context, eventID uuid.UUID) ([]*model.HistoryEntry, error) {
	list, _ := fakeAttendanceRepo{l.s}.ListByEvent(ctx, eventID)
	out := []*model.HistoryEntry{}
	for _, a := range list {
		out = append(out, &model.HistoryEntry{
			AttendanceID:    a.ID,
			UrutanAbsensi:   a.UrutanAbsensi,
			NamaLengkap:     a.NamaLengkap,
			Email:           a.Email,
			NomorSertifikat: a.NomorSertifikat,
			CertificateURL:  a.CertificateURL,
			DeliveryStatus:  a.DeliveryStatus,
			GeneratedAt:     a.GeneratedAt,
			DeliveredAt:     a.DeliveredAt,
		})
	}
	return out, nil
}

// IssuancesByAttendance terbaru dulu, sama seperti repository
func (l fakeLedger) IssuancesByAttendance(_ context.Context, id uuid.UUID) ([]*model.IssuanceRecord, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	out := []*model.IssuanceRecord{}
	for i := len(l.s.issuances) - 1; i >= 0; i-- {
		if r := l.s.issuances[i]; r.AttendanceID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l fakeLedger) DeliveriesByAttendance(_ context.Context, id uuid.UUID) ([]*model.DeliveryRecord, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	out := []*model.DeliveryRecord{}
	for i := len(l.s.deliveries) - 1; i >= 0; i-- {
		if r := l.s.deliveries[i]; r.AttendanceID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

// ── storage / renderer / mailer ─────────────────────

type storedObject struct {
	data        []byte
	contentType string
}

type fakeStorage struct {
	mu      sync.Mutex
	seq     int
	objects map[string]storedObject
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]storedObject{}}
}

func (f *fakeStorage) put(folder, name string, data []byte, contentType string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	url := fmt.Sprintf("mem://%s/%s-%d", folder, utils.Slugify(name), f.seq)
	f.objects[url] = storedObject{data: data, contentType: contentType}
	return url
}

func (f *fakeStorage) UploadImage(_ context.Context, folder, prefix string, data []byte, contentType string) (string, error) {
	return f.put(folder, prefix, data, contentType), nil
}

func (f *fakeStorage) UploadPDF(_ context.Context, folder string, data []byte, name string) (string, error) {
	return f.put(folder, name, data, "application/pdf"), nil
}

func (f *fakeStorage) Download(_ context.Context, url string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[url]
	if !ok {
		return nil, "", fmt.Errorf("object %s not found", url)
	}
	return obj.data, obj.contentType, nil
}

func (f *fakeStorage) DeleteFile(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, url)
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeStorage) count(folder string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for url := range f.objects {
		if strings.HasPrefix(url, "mem://"+folder+"/") {
			n++
		}
	}
	return n
}

// fakeRenderer gagal untuk nama peserta yang ada di failFor
type fakeRenderer struct {
	failFor map[string]bool
}

func (r fakeRenderer) Render(data utils.CertificatePDFData) ([]byte, error) {
	if len(data.TemplateImage) == 0 {
		return nil, utils.ErrTemplateMissing
	}
	if r.failFor[data.NamaLengkap] {
		return nil, errors.New("font tidak tersedia")
	}
	return []byte("%PDF-" + data.NomorSertifikat), nil
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []utils.CertificateMail
	failFor map[string]bool
	// onSend dipanggil saat SMTP sedang mengirim
	onSend func()
}

func (m *fakeMailer) SendCertificate(_ context.Context, mail utils.CertificateMail) error {
	if m.onSend != nil {
		m.onSend()
	}
	if m.failFor[mail.To] {
		return errors.New("550 mailbox unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	return nil
}

func (m *fakeMailer) sentTo(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.To == email {
			n++
		}
	}
	return n
}

// ── fixtures ────────────────────────────────────────

var testNow = time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func activeEvent(t *testing.T, s *memStore, nomorSurat string) *model.Event {
	t.Helper()
	return s.addEvent(&model.Event{
		NamaKegiatan:      "Bimtek Pengelolaan Arsip",
		NomorSurat:        nomorSurat,
		TanggalMulai:      testNow,
		TanggalSelesai:    testNow,
		BatasWaktuAbsensi: testNow.Add(2 * time.Hour),
		FormConfig:        model.DefaultFormConfig(),
		Status:            model.EventActive,
	})
}

func validSubmission(name, email string) model.SubmitAttendanceRequest {
	return model.SubmitAttendanceRequest{
		NamaLengkap:     name,
		UnitKerja:       "Dinas Kominfo",
		Provinsi:        "Jawa Barat",
		KabupatenKota:   "Kota Bandung",
		TanggalLahir:    "1990-01-31",
		NomorHP:         "081234567890",
		Email:           email,
		EmailKonfirmasi: email,
		Pernyataan:      "on",
		Signature:       &model.UploadedFile{Data: []byte("\x89PNG"), ContentType: "image/png"},
	}
}

// admitted simpan absensi langsung ke store lewat Admit
func admitted(t *testing.T, s *memStore, eventID uuid.UUID, name, email string) *model.Attendance {
	t.Helper()
	att := &model.Attendance{ID: uuid.New(), EventID: eventID, NamaLengkap: name}
	if email != "" {
		att.Email = &email
	}
	if err := (fakeAttendanceRepo{s}).Admit(context.Background(), att, testNow); err != nil {
		t.Fatalf("admit %s: %v", name, err)
	}
	return att
}

func withTemplate(s *memStore, storage *fakeStorage, eventID uuid.UUID) {
	url := storage.put(utils.FolderTemplates, "template", []byte("template-bytes"), "image/png")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[eventID].TemplateSertifikat = &url
}
