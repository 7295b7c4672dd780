package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/feebill/internal/bill"
	"github.com/mmynk/feebill/internal/form"
	"github.com/mmynk/feebill/internal/layout"
	"github.com/mmynk/feebill/internal/metrics"
	"github.com/mmynk/feebill/internal/models"
	"github.com/mmynk/feebill/internal/schedule"
)

type testClients struct {
	listClasses     *connect.Client[ListClassesRequest, ListClassesResponse]
	resolveSchedule *connect.Client[ResolveScheduleRequest, ResolveScheduleResponse]
	adjustFee       *connect.Client[AdjustFeeRequest, AdjustFeeResponse]
	composeBill     *connect.Client[ComposeBillRequest, ComposeBillResponse]
	getLayout       *connect.Client[GetLayoutRequest, GetLayoutResponse]
}

// setupTestServer serves BillService over httptest with the default schedule.
func setupTestServer(t *testing.T) (*testClients, *metrics.Metrics, func()) {
	t.Helper()

	sched := schedule.Default()
	engine, err := layout.New(1, 2, 4)
	if err != nil {
		t.Fatalf("failed to create layout engine: %v", err)
	}
	m := metrics.New()
	composer := bill.NewComposer(sched, engine, bill.Options{
		Institution: bill.Institution{Name: "Tagsol Education Institute"},
		Now:         func() time.Time { return time.Date(2024, time.October, 18, 0, 0, 0, 0, time.UTC) },
		Metrics:     m,
	})

	svc := NewBillService(sched, composer, form.NewValidator(sched), m)
	path, handler := NewBillServiceHandler(svc)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	codec := connect.WithCodec(JSONCodec{})
	clients := &testClients{
		listClasses:     connect.NewClient[ListClassesRequest, ListClassesResponse](http.DefaultClient, server.URL+ListClassesProcedure, codec),
		resolveSchedule: connect.NewClient[ResolveScheduleRequest, ResolveScheduleResponse](http.DefaultClient, server.URL+ResolveScheduleProcedure, codec),
		adjustFee:       connect.NewClient[AdjustFeeRequest, AdjustFeeResponse](http.DefaultClient, server.URL+AdjustFeeProcedure, codec),
		composeBill:     connect.NewClient[ComposeBillRequest, ComposeBillResponse](http.DefaultClient, server.URL+ComposeBillProcedure, codec),
		getLayout:       connect.NewClient[GetLayoutRequest, GetLayoutResponse](http.DefaultClient, server.URL+GetLayoutProcedure, codec),
	}
	return clients, m, server.Close
}

func TestListClasses(t *testing.T) {
	clients, _, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := clients.listClasses.CallUnary(context.Background(), connect.NewRequest(&ListClassesRequest{}))
	if err != nil {
		t.Fatalf("ListClasses failed: %v", err)
	}

	if len(resp.Msg.Classes) != 12 {
		t.Errorf("expected 12 classes, got %d", len(resp.Msg.Classes))
	}
	if resp.Msg.DefaultClass != "Class 1" {
		t.Errorf("expected default class 'Class 1', got '%s'", resp.Msg.DefaultClass)
	}
	if len(resp.Msg.BillTypes) != len(models.BillTypes) {
		t.Errorf("expected %d bill types, got %d", len(models.BillTypes), len(resp.Msg.BillTypes))
	}
	if len(resp.Msg.Copies) != 3 || resp.Msg.Copies[2] != 4 {
		t.Errorf("expected copies [1 2 4], got %v", resp.Msg.Copies)
	}
}

func TestResolveSchedule(t *testing.T) {
	clients, _, cleanup := setupTestServer(t)
	defer cleanup()

	tests := []struct {
		name      string
		class     string
		wantClass string
	}{
		{name: "exact name", class: "Class 6", wantClass: "Class 6"},
		{name: "alias", class: "grade 6", wantClass: "Class 6"},
		{name: "unknown falls back to default", class: "Class 99", wantClass: "Class 1"},
		{name: "empty falls back to default", class: "", wantClass: "Class 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := clients.resolveSchedule.CallUnary(context.Background(), connect.NewRequest(&ResolveScheduleRequest{Class: tt.class}))
			if err != nil {
				t.Fatalf("ResolveSchedule failed: %v", err)
			}
			if resp.Msg.Class != tt.wantClass {
				t.Errorf("expected class '%s', got '%s'", tt.wantClass, resp.Msg.Class)
			}
			want := schedule.Default().Resolve(tt.wantClass)
			if resp.Msg.Fees != want {
				t.Errorf("expected fees %+v, got %+v", want, resp.Msg.Fees)
			}
		})
	}
}

func TestAdjustFee(t *testing.T) {
	clients, m, cleanup := setupTestServer(t)
	defer cleanup()

	baseline := schedule.Default().Resolve("Class 1")

	tests := []struct {
		name      string
		component string
		amount    string
		wantFinal float64
		wantClamp string
	}{
		{name: "reduce", component: "academic", amount: "3000", wantFinal: 3000, wantClamp: "none"},
		{name: "form field name", component: "academicFee", amount: "2500.5", wantFinal: 2500.5, wantClamp: "none"},
		{name: "above baseline", component: "uniform", amount: "5000", wantFinal: 1000, wantClamp: "ceiling"},
		{name: "negative", component: "book", amount: "-10", wantFinal: 0, wantClamp: "floor"},
		{name: "not a number", component: "lab", amount: "abc", wantFinal: 0, wantClamp: "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := clients.adjustFee.CallUnary(context.Background(), connect.NewRequest(&AdjustFeeRequest{
				Class:     "Class 1",
				Fees:      baseline,
				Component: tt.component,
				Amount:    tt.amount,
			}))
			if err != nil {
				t.Fatalf("AdjustFee failed: %v", err)
			}
			if resp.Msg.Final != tt.wantFinal {
				t.Errorf("expected final %.2f, got %.2f", tt.wantFinal, resp.Msg.Final)
			}
			if resp.Msg.Clamp != tt.wantClamp {
				t.Errorf("expected clamp '%s', got '%s'", tt.wantClamp, resp.Msg.Clamp)
			}
		})
	}

	// academic/none twice, uniform/ceiling, book/floor, lab/none
	series, err := testutil.GatherAndCount(m.Registry(), "feebill_fee_adjustments_total")
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if series != 4 {
		t.Errorf("expected 4 adjustment series, got %d", series)
	}
}

func TestAdjustFeeUnknownComponent(t *testing.T) {
	clients, _, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := clients.adjustFee.CallUnary(context.Background(), connect.NewRequest(&AdjustFeeRequest{
		Class:     "Class 1",
		Component: "parking",
		Amount:    "100",
	}))
	if err == nil {
		t.Fatal("expected error for unknown component")
	}
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", connect.CodeOf(err))
	}
}

func TestComposeBill(t *testing.T) {
	clients, _, cleanup := setupTestServer(t)
	defer cleanup()

	fees := schedule.Default().Resolve("Class 1").With(models.Academic, 3000)
	resp, err := clients.composeBill.CallUnary(context.Background(), connect.NewRequest(&ComposeBillRequest{
		Student: form.StudentForm{Name: "Asha Rao", Class: "Class 1", RollNumber: "17", BillType: "3-part"},
		Fees:    &fees,
		Copies:  2,
	}))
	if err != nil {
		t.Fatalf("ComposeBill failed: %v", err)
	}

	doc := resp.Msg.Document
	if doc == nil {
		t.Fatal("expected a document")
	}
	if len(doc.Summary.Items) != 3 {
		t.Fatalf("expected 3 line items, got %d", len(doc.Summary.Items))
	}

	want := []struct {
		label    string
		amount   float64
		original float64
	}{
		{"Academic Fee", 3000, 4000},
		{"Uniform Fee", 1000, 1000},
		{"Books & Other Charges", 2250, 2250},
	}
	for i, w := range want {
		got := doc.Summary.Items[i]
		if got.Label != w.label || got.Amount != w.amount || got.OriginalAmount != w.original {
			t.Errorf("item %d: expected %+v, got %+v", i, w, got)
		}
	}
	if doc.Summary.Total != 6250 {
		t.Errorf("expected total 6250, got %.2f", doc.Summary.Total)
	}
	if doc.Summary.Due != 1000 {
		t.Errorf("expected due 1000, got %.2f", doc.Summary.Due)
	}
	if len(doc.Copies) != 2 || doc.Layout.Copies != 2 {
		t.Errorf("expected 2 copies, got %d (layout %d)", len(doc.Copies), doc.Layout.Copies)
	}
}

func TestComposeBillDefaultsToBaseline(t *testing.T) {
	clients, _, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := clients.composeBill.CallUnary(context.Background(), connect.NewRequest(&ComposeBillRequest{
		Student: form.StudentForm{Name: "Asha Rao", Class: "grade 1", RollNumber: "17", BillType: "academic-only"},
		Copies:  3,
	}))
	if err != nil {
		t.Fatalf("ComposeBill failed: %v", err)
	}

	doc := resp.Msg.Document
	if doc.Student.Class != "Class 1" {
		t.Errorf("expected canonical class 'Class 1', got '%s'", doc.Student.Class)
	}
	if doc.Student.BillType != models.BillTypeTwoPart {
		t.Errorf("expected bill type 2-part, got '%s'", doc.Student.BillType)
	}
	if doc.Summary.Due != 0 {
		t.Errorf("expected no due amount, got %.2f", doc.Summary.Due)
	}
	// 3 is not offered; ties go to the smaller count.
	if doc.Layout.Copies != 2 {
		t.Errorf("expected layout for 2 copies, got %d", doc.Layout.Copies)
	}
}

func TestComposeBillValidation(t *testing.T) {
	clients, _, cleanup := setupTestServer(t)
	defer cleanup()

	tests := []struct {
		name    string
		student form.StudentForm
	}{
		{name: "missing name", student: form.StudentForm{Class: "Class 1", RollNumber: "1", BillType: "flat"}},
		{name: "digits in name", student: form.StudentForm{Name: "R2D2", Class: "Class 1", RollNumber: "1", BillType: "flat"}},
		{name: "unknown class", student: form.StudentForm{Name: "Asha", Class: "Class 99", RollNumber: "1", BillType: "flat"}},
		{name: "blank roll number", student: form.StudentForm{Name: "Asha", Class: "Class 1", RollNumber: "   ", BillType: "flat"}},
		{name: "unknown bill type", student: form.StudentForm{Name: "Asha", Class: "Class 1", RollNumber: "1", BillType: "7-part"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := clients.composeBill.CallUnary(context.Background(), connect.NewRequest(&ComposeBillRequest{Student: tt.student}))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if connect.CodeOf(err) != connect.CodeInvalidArgument {
				t.Errorf("expected InvalidArgument, got %v", connect.CodeOf(err))
			}
		})
	}
}

func TestGetLayout(t *testing.T) {
	clients, _, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := clients.getLayout.CallUnary(context.Background(), connect.NewRequest(&GetLayoutRequest{Copies: 4}))
	if err != nil {
		t.Fatalf("GetLayout failed: %v", err)
	}
	if resp.Msg.Layout.Copies != 4 || resp.Msg.Layout.Columns != 2 || resp.Msg.Layout.Scale != 0.45 {
		t.Errorf("unexpected layout: %+v", resp.Msg.Layout)
	}

	_, err = clients.getLayout.CallUnary(context.Background(), connect.NewRequest(&GetLayoutRequest{Copies: -1}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("expected InvalidArgument for negative copies, got %v", connect.CodeOf(err))
	}
}
