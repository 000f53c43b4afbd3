package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/google/uuid"
)

func newAdmission(s *memStore, storage *fakeStorage) AdmissionService {
	return NewAdmissionService(fakeEventRepo{s}, fakeAttendanceRepo{s}, storage, fixedClock)
}

func TestSubmit_AssignsSequenceAndCertificateNumber(t *testing.T) {
	s := newMemStore()
	storage := newFakeStorage()
	event := activeEvent(t, s, "010/ABC/2025")
	svc := newAdmission(s, storage)

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		res, err := svc.Submit(context.Background(), event.ID.String(), validSubmission("Peserta", email))
		if err != nil {
			t.Fatalf("submit %s: %v", email, err)
		}
		want := fmt.Sprintf("%d/010/ABC/2025", i+1)
		if res.UrutanAbsensi != i+1 || res.NomorSertifikat != want {
			t.Errorf("submit %d = (%d, %q), want (%d, %q)", i, res.UrutanAbsensi, res.NomorSertifikat, i+1, want)
		}
	}

	if got := storage.count(utils.FolderSignatures); got != 3 {
		t.Errorf("stored signatures = %d, want 3", got)
	}
}

func TestSubmit_ConcurrentSubmissionsAreGapless(t *testing.T) {
	const n = 50
	s := newMemStore()
	event := activeEvent(t, s, "010/ABC/2025")
	svc := newAdmission(s, newFakeStorage())

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seqs = map[int]string{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("peserta%02d@example.com", i)
			res, err := svc.Submit(context.Background(), event.ID.String(), validSubmission("Peserta", email))
			if err != nil {
				t.Errorf("submit %s: %v", email, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if _, dup := seqs[res.UrutanAbsensi]; dup {
				t.Errorf("sequence %d assigned twice", res.UrutanAbsensi)
			}
			seqs[res.UrutanAbsensi] = res.NomorSertifikat
		}(i)
	}
	wg.Wait()

	if len(seqs) != n {
		t.Fatalf("got %d distinct sequences, want %d", len(seqs), n)
	}
	for i := 1; i <= n; i++ {
		want := fmt.Sprintf("%d/010/ABC/2025", i)
		if seqs[i] != want {
			t.Errorf("seq %d nomor = %q, want %q", i, seqs[i], want)
		}
	}
}

func TestSubmit_SequencesArePerEvent(t *testing.T) {
	s := newMemStore()
	a := activeEvent(t, s, "001/A/2025")
	b := activeEvent(t, s, "002/B/2025")
	svc := newAdmission(s, newFakeStorage())

	ctx := context.Background()
	if _, err := svc.Submit(ctx, a.ID.String(), validSubmission("X", "x@example.com")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(ctx, a.ID.String(), validSubmission("Y", "y@example.com")); err != nil {
		t.Fatal(err)
	}
	// email yang sama boleh absen di event lain
	res, err := svc.Submit(ctx, b.ID.String(), validSubmission("X", "x@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if res.UrutanAbsensi != 1 || res.NomorSertifikat != "1/002/B/2025" {
		t.Errorf("event b first submission = (%d, %q)", res.UrutanAbsensi, res.NomorSertifikat)
	}
}

func TestSubmit_DuplicateEmail(t *testing.T) {
	s := newMemStore()
	storage := newFakeStorage()
	event := activeEvent(t, s, "010/ABC/2025")
	svc := newAdmission(s, storage)
	ctx := context.Background()

	first, err := svc.Submit(ctx, event.ID.String(), validSubmission("Budi", "budi@example.com"))
	if err != nil {
		t.Fatal(err)
	}

	// beda huruf besar kecil tetap dianggap email yang sama
	_, err = svc.Submit(ctx, event.ID.String(), validSubmission("Budi Lagi", "BUDI@example.com"))
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("err = %v, want ErrDuplicateSubmission", err)
	}

	stored := s.attendance(first.ID)
	if stored.NamaLengkap != "Budi" || stored.UrutanAbsensi != 1 {
		t.Errorf("first record changed: %+v", stored)
	}
	if got := s.event(event.ID).AttendanceSeq; got != 1 {
		t.Errorf("counter = %d, want 1", got)
	}
	if got := storage.count(utils.FolderSignatures); got != 1 {
		t.Errorf("stored signatures = %d, want 1", got)
	}
}

func TestSubmit_DuplicateDetectedInsideTransaction(t *testing.T) {
	s := newMemStore()
	storage := newFakeStorage()
	event := activeEvent(t, s, "010/ABC/2025")
	svc := newAdmission(s, storage)

	// peserta lain dengan email sama masuk tepat sebelum transaksi
	s.beforeAdmit = func(e *model.Event) {
		s.beforeAdmit = nil
		email := "sama@example.com"
		e.AttendanceSeq++
		s.attendances[uuid.New()] = &model.Attendance{EventID: e.ID, Email: &email, UrutanAbsensi: e.AttendanceSeq}
	}

	_, err := svc.Submit(context.Background(), event.ID.String(), validSubmission("Kedua", "sama@example.com"))
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("err = %v, want ErrDuplicateSubmission", err)
	}
	if got := storage.count(utils.FolderSignatures); got != 0 {
		t.Errorf("orphan signature left behind: %d objects", got)
	}
}

func TestSubmit_ClosedBetweenCheckAndAdmit(t *testing.T) {
	s := newMemStore()
	storage := newFakeStorage()
	event := activeEvent(t, s, "010/ABC/2025")
	svc := newAdmission(s, storage)

	s.beforeAdmit = func(e *model.Event) { e.Status = model.EventClosed }

	_, err := svc.Submit(context.Background(), event.ID.String(), validSubmission("Telat", "telat@example.com"))
	if !errors.Is(err, ErrEventNotActive) {
		t.Fatalf("err = %v, want ErrEventNotActive", err)
	}
	if got := s.event(event.ID).AttendanceSeq; got != 0 {
		t.Errorf("counter = %d, want 0", got)
	}
	if got := storage.count(utils.FolderSignatures); got != 0 {
		t.Errorf("orphan signature left behind: %d objects", got)
	}
}

func TestSubmit_AdmissionWindow(t *testing.T) {
	tests := []struct {
		name     string
		status   model.EventStatus
		deadline time.Time
		want     error
	}{
		{"draft", model.EventDraft, testNow.Add(time.Hour), ErrEventNotActive},
		{"closed", model.EventClosed, testNow.Add(time.Hour), ErrEventNotActive},
		{"closed and expired reports status first", model.EventClosed, testNow.Add(-time.Hour), ErrEventNotActive},
		{"active but expired", model.EventActive, testNow.Add(-time.Second), ErrDeadlinePassed},
		{"deadline equal to now is still open", model.EventActive, testNow, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemStore()
			event := s.addEvent(&model.Event{
				NomorSurat:        "001/X/2025",
				BatasWaktuAbsensi: tt.deadline,
				FormConfig:        model.DefaultFormConfig(),
				Status:            tt.status,
			})
			svc := newAdmission(s, newFakeStorage())

			_, err := svc.Submit(context.Background(), event.ID.String(), validSubmission("A", "a@example.com"))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.want != nil && s.event(event.ID).AttendanceSeq != 0 {
				t.Errorf("counter advanced on rejected submission")
			}
		})
	}
}

func TestSubmit_UnknownEvent(t *testing.T) {
	svc := newAdmission(newMemStore(), newFakeStorage())

	for _, id := range []string{uuid.NewString(), "bukan-uuid"} {
		if _, err := svc.Submit(context.Background(), id, validSubmission("A", "a@example.com")); !errors.Is(err, ErrEventNotFound) {
			t.Errorf("Submit(%q) err = %v, want ErrEventNotFound", id, err)
		}
	}
}

func TestSubmit_UnreadableSignatureReportedAfterEventChecks(t *testing.T) {
	s := newMemStore()
	closed := s.addEvent(&model.Event{
		NomorSurat:        "002/X/2025",
		BatasWaktuAbsensi: testNow.Add(time.Hour),
		FormConfig:        model.DefaultFormConfig(),
		Status:            model.EventClosed,
	})
	svc := newAdmission(s, newFakeStorage())

	req := validSubmission("A", "a@example.com")
	req.Signature = nil
	req.SignatureError = "ukuran tanda tangan terlalu besar"

	if _, err := svc.Submit(context.Background(), uuid.NewString(), req); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("missing event err = %v, want ErrEventNotFound", err)
	}
	if _, err := svc.Submit(context.Background(), closed.ID.String(), req); !errors.Is(err, ErrEventNotActive) {
		t.Errorf("closed event err = %v, want ErrEventNotActive", err)
	}
}

func TestSubmit_EventPassword(t *testing.T) {
	s := newMemStore()
	event := activeEvent(t, s, "010/ABC/2025")
	s.mu.Lock()
	s.events[event.ID].FormConfig.EventPassword = "rahasia"
	s.mu.Unlock()
	svc := newAdmission(s, newFakeStorage())
	ctx := context.Background()

	req := validSubmission("A", "a@example.com")
	req.EventPassword = "salah"
	if _, err := svc.Submit(ctx, event.ID.String(), req); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("wrong password err = %v, want ErrAccessDenied", err)
	}

	if err := svc.CheckAccess(ctx, event.ID.String(), ""); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("CheckAccess empty err = %v, want ErrAccessDenied", err)
	}
	if err := svc.CheckAccess(ctx, event.ID.String(), "rahasia"); err != nil {
		t.Errorf("CheckAccess correct password: %v", err)
	}

	req.EventPassword = "rahasia"
	if _, err := svc.Submit(ctx, event.ID.String(), req); err != nil {
		t.Fatalf("correct password: %v", err)
	}
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.SubmitAttendanceRequest)
		field  string
	}{
		{"missing name", func(r *model.SubmitAttendanceRequest) { r.NamaLengkap = "  " }, "nama_lengkap"},
		{"name checked before unit", func(r *model.SubmitAttendanceRequest) { r.NamaLengkap = ""; r.UnitKerja = "" }, "nama_lengkap"},
		{"missing unit", func(r *model.SubmitAttendanceRequest) { r.UnitKerja = "" }, "unit_kerja"},
		{"bad nip format", func(r *model.SubmitAttendanceRequest) { r.NIP = "12ab" }, "nip"},
		{"missing province", func(r *model.SubmitAttendanceRequest) { r.Provinsi = "" }, "provinsi"},
		{"missing city", func(r *model.SubmitAttendanceRequest) { r.KabupatenKota = "" }, "kabupaten_kota"},
		{"bad dob", func(r *model.SubmitAttendanceRequest) { r.TanggalLahir = "31-01-1990" }, "tanggal_lahir"},
		{"bad phone", func(r *model.SubmitAttendanceRequest) { r.NomorHP = "08-12" }, "nomor_hp"},
		{"missing email", func(r *model.SubmitAttendanceRequest) { r.Email = ""; r.EmailKonfirmasi = "" }, "email"},
		{"confirmation mismatch", func(r *model.SubmitAttendanceRequest) { r.EmailKonfirmasi = "lain@example.com" }, "email_konfirmasi"},
		{"bad email", func(r *model.SubmitAttendanceRequest) { r.Email = "bukan-email"; r.EmailKonfirmasi = "bukan-email" }, "email"},
		{"unchecked statement", func(r *model.SubmitAttendanceRequest) { r.Pernyataan = "" }, "pernyataan"},
		{"missing signature", func(r *model.SubmitAttendanceRequest) { r.Signature = nil }, "signature"},
		{"empty signature", func(r *model.SubmitAttendanceRequest) { r.Signature = &model.UploadedFile{ContentType: "image/png"} }, "signature"},
		{"signature not an image", func(r *model.SubmitAttendanceRequest) {
			r.Signature = &model.UploadedFile{Data: []byte("%PDF"), ContentType: "application/pdf"}
		}, "signature"},
		{"unreadable signature", func(r *model.SubmitAttendanceRequest) {
			r.Signature = nil
			r.SignatureError = "tanda tangan tidak valid"
		}, "signature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemStore()
			storage := newFakeStorage()
			event := activeEvent(t, s, "010/ABC/2025")
			svc := newAdmission(s, storage)

			req := validSubmission("Peserta", "peserta@example.com")
			tt.mutate(&req)
			_, err := svc.Submit(context.Background(), event.ID.String(), req)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q (%s)", verr.Field, tt.field, verr.Message)
			}
			if s.event(event.ID).AttendanceSeq != 0 || storage.count(utils.FolderSignatures) != 0 {
				t.Error("rejected submission left state behind")
			}
		})
	}
}

func TestSubmit_OptionalFieldsFollowFormConfig(t *testing.T) {
	s := newMemStore()
	event := activeEvent(t, s, "010/ABC/2025")
	s.mu.Lock()
	s.events[event.ID].FormConfig = model.FormConfig{RequireName: true}
	s.mu.Unlock()
	svc := newAdmission(s, newFakeStorage())

	res, err := svc.Submit(context.Background(), event.ID.String(), model.SubmitAttendanceRequest{NamaLengkap: "Tanpa Email"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	stored := s.attendance(res.ID)
	if stored.Email != nil || stored.SignatureURL != nil || stored.TanggalLahir != nil {
		t.Errorf("optional fields should stay empty: %+v", stored)
	}

	// tanpa email tidak ada pengecekan duplikat
	if _, err := svc.Submit(context.Background(), event.ID.String(), model.SubmitAttendanceRequest{NamaLengkap: "Tanpa Email 2"}); err != nil {
		t.Fatalf("second submit without email: %v", err)
	}
}

func TestSubmit_StoresNormalizedEmail(t *testing.T) {
	s := newMemStore()
	event := activeEvent(t, s, "010/ABC/2025")
	svc := newAdmission(s, newFakeStorage())

	res, err := svc.Submit(context.Background(), event.ID.String(), validSubmission("A", " Ani@Example.COM "))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.attendance(res.ID).EmailAddress(); got != "ani@example.com" {
		t.Errorf("email = %q, want ani@example.com", got)
	}
}
