//go:build integration

package integration

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/postop/postop/internal/domain/dashboard"
	"github.com/postop/postop/internal/domain/followup"
	"github.com/postop/postop/internal/domain/intake"
	"github.com/postop/postop/internal/platform/db"
	"github.com/postop/postop/internal/triage"
)

func ptrFloat(f float64) *float64 { return &f }

func registerPatient(t *testing.T, pool *pgxpool.Pool, name string, weight, height *float64) *intake.Patient {
	t.Helper()
	p := &intake.Patient{
		FullName:   name,
		NationalID: "30111222",
		Phone:      "555-0100",
		Surgery:    "Cholecystectomy",
		WeightKg:   weight,
		HeightM:    height,
	}
	p.SurgeryDate, _ = intake.ParseSurgeryDate("2026-03-01")
	if err := intake.NewPatientRepoPG(pool).Create(context.Background(), p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}

func submit(t *testing.T, pool *pgxpool.Pool, patientID int64, a triage.Answers) *followup.Response {
	t.Helper()
	r := &followup.Response{PatientID: patientID, Answers: a}
	if err := followup.NewResponseRepoPG(pool).Create(context.Background(), r); err != nil {
		t.Fatalf("create response: %v", err)
	}
	return r
}

func TestPatient_BMIDerivedByStore(t *testing.T) {
	pool := newSchema(t)

	withVitals := registerPatient(t, pool, "Ana", ptrFloat(80), ptrFloat(1.8))
	if withVitals.BMI == nil {
		t.Fatal("expected BMI to be derived")
	}
	if want := triage.ComputeBMI(withVitals.WeightKg, withVitals.HeightM); math.Abs(*withVitals.BMI-*want) > 0.05 {
		t.Errorf("store BMI %.2f disagrees with %.2f", *withVitals.BMI, *want)
	}

	noHeight := registerPatient(t, pool, "Luis", ptrFloat(80), nil)
	if noHeight.BMI != nil {
		t.Errorf("expected no BMI without height, got %v", *noHeight.BMI)
	}

	fetched, err := intake.NewPatientRepoPG(pool).GetByID(context.Background(), withVitals.ID)
	if err != nil {
		t.Fatalf("get patient: %v", err)
	}
	if fetched.FullName != "Ana" || fetched.BMI == nil {
		t.Errorf("unexpected patient %+v", fetched)
	}
}

func TestResponse_Constraints(t *testing.T) {
	pool := newSchema(t)
	repo := followup.NewResponseRepoPG(pool)
	ctx := context.Background()

	err := repo.Create(ctx, &followup.Response{PatientID: 999})
	if !errors.Is(err, intake.ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound for orphan response, got %v", err)
	}

	p := registerPatient(t, pool, "Ana", nil, nil)
	err = repo.Create(ctx, &followup.Response{PatientID: p.ID, Answers: triage.Answers{Pain6h: 11}})
	if !errors.Is(err, intake.ErrStoreWrite) {
		t.Errorf("expected ErrStoreWrite for out-of-range pain, got %v", err)
	}
}

func TestDashboard_PageAndBulkDelete(t *testing.T) {
	pool := newSchema(t)
	ctx := context.Background()

	patients := make([]*intake.Patient, 4)
	for i := range patients {
		patients[i] = registerPatient(t, pool, "Patient", ptrFloat(70), ptrFloat(1.7))
	}
	submit(t, pool, patients[0].ID, triage.Answers{Pain6h: 9})
	submit(t, pool, patients[1].ID, triage.Answers{Nausea: true})
	submit(t, pool, patients[2].ID, triage.Answers{})
	submit(t, pool, patients[0].ID, triage.Answers{Pain24h: 2})
	submit(t, pool, patients[3].ID, triage.Answers{Vomiting: true})

	patientRepo := intake.NewPatientRepoPG(pool)
	responseRepo := followup.NewResponseRepoPG(pool)
	svc := dashboard.NewService(responseRepo, patientRepo, dashboard.NewDeletionStorePG(pool), zerolog.Nop())

	page, err := svc.Page(ctx, dashboard.Query{Limit: 10})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if page.Total != 5 || len(page.Rows) != 5 {
		t.Fatalf("expected 5 rows, got %d of %d", len(page.Rows), page.Total)
	}
	if page.Rows[0].Response.PatientID != patients[3].ID {
		t.Error("expected newest response first")
	}
	if page.Counts[triage.LevelCritical] != 1 || page.Counts[triage.LevelMildConcern] != 2 {
		t.Errorf("unexpected counts %v", page.Counts)
	}

	deleted := []int64{patients[0].ID, patients[2].ID}
	res, err := svc.DeletePatients(ctx, deleted, true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.DeletedPatients != 2 || res.DeletedResponses != 3 {
		t.Errorf("unexpected result %+v", res)
	}

	var orphans int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM followup_responses WHERE patient_id = ANY($1)`, deleted).Scan(&orphans); err != nil {
		t.Fatalf("count: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected no responses for deleted patients, found %d", orphans)
	}
	for _, id := range deleted {
		if _, err := patientRepo.GetByID(ctx, id); !errors.Is(err, intake.ErrPatientNotFound) {
			t.Errorf("patient %d still present: %v", id, err)
		}
	}
	if _, total, _ := responseRepo.ListPage(ctx, 10, 0); total != 2 {
		t.Errorf("expected 2 responses for other patients, got %d", total)
	}
}

func TestBulkDelete_RollsBackOnFailure(t *testing.T) {
	pool := newSchema(t)
	ctx := context.Background()

	p := registerPatient(t, pool, "Ana", nil, nil)
	submit(t, pool, p.ID, triage.Answers{})

	failure := errors.New("abort after delete")
	err := db.InTx(ctx, pool, func(ctx context.Context) error {
		if _, err := dashboard.NewDeletionStorePG(pool).DeletePatients(ctx, []int64{p.ID}); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected injected failure, got %v", err)
	}

	if _, err := intake.NewPatientRepoPG(pool).GetByID(ctx, p.ID); err != nil {
		t.Errorf("patient should survive the rolled back delete: %v", err)
	}
	if _, total, _ := followup.NewResponseRepoPG(pool).ListPage(ctx, 10, 0); total != 1 {
		t.Errorf("response should survive the rolled back delete, total %d", total)
	}
}
