package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/feebill/internal/bill"
	"github.com/mmynk/feebill/internal/calculator"
	"github.com/mmynk/feebill/internal/form"
	"github.com/mmynk/feebill/internal/layout"
	"github.com/mmynk/feebill/internal/metrics"
	"github.com/mmynk/feebill/internal/models"
	"github.com/mmynk/feebill/internal/schedule"
)

// BillServiceName is the fully-qualified name of the bill service.
const BillServiceName = "feebill.v1.BillService"

// Procedure paths of BillService.
const (
	ListClassesProcedure     = "/" + BillServiceName + "/ListClasses"
	ResolveScheduleProcedure = "/" + BillServiceName + "/ResolveSchedule"
	AdjustFeeProcedure       = "/" + BillServiceName + "/AdjustFee"
	ComposeBillProcedure     = "/" + BillServiceName + "/ComposeBill"
	GetLayoutProcedure       = "/" + BillServiceName + "/GetLayout"
)

type ListClassesRequest struct{}

type ListClassesResponse struct {
	Classes         []string `json:"classes"`
	DefaultClass    string   `json:"defaultClass"`
	ScheduleVersion string   `json:"scheduleVersion"`
	BillTypes       []string `json:"billTypes"`
	Copies          []int    `json:"copies"`
}

type ResolveScheduleRequest struct {
	Class string `json:"class"`
}

type ResolveScheduleResponse struct {
	// Class is the canonical class name; the default class when the
	// requested one is unknown.
	Class string         `json:"class"`
	Fees  models.FeeData `json:"fees"`
}

type AdjustFeeRequest struct {
	Class     string         `json:"class"`
	Fees      models.FeeData `json:"fees"`
	Component string         `json:"component"`
	Amount    string         `json:"amount"` // raw input; non-numeric is zero
}

type AdjustFeeResponse struct {
	Fees     models.FeeData `json:"fees"`
	Final    float64        `json:"final"`
	Clamp    string         `json:"clamp"`
	Baseline float64        `json:"baseline"`
}

type ComposeBillRequest struct {
	Student form.StudentForm `json:"student"`
	// Fees defaults to the class baseline when omitted.
	Fees   *models.FeeData `json:"fees,omitempty"`
	Copies int             `json:"copies"`
}

type ComposeBillResponse struct {
	Document *bill.Document `json:"document"`
}

type GetLayoutRequest struct {
	Copies int `json:"copies"`
}

type GetLayoutResponse struct {
	Layout layout.Spec `json:"layout"`
}

// BillService implements the Connect BillService.
type BillService struct {
	schedule  *schedule.Schedule
	composer  *bill.Composer
	validator *form.Validator
	metrics   *metrics.Metrics
}

// NewBillService creates a BillService over a schedule and composer.
func NewBillService(sched *schedule.Schedule, composer *bill.Composer, validator *form.Validator, m *metrics.Metrics) *BillService {
	return &BillService{schedule: sched, composer: composer, validator: validator, metrics: m}
}

// NewBillServiceHandler builds an HTTP handler serving every BillService
// procedure. It returns the path to mount it on.
func NewBillServiceHandler(svc *BillService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ListClassesProcedure, connect.NewUnaryHandler(ListClassesProcedure, svc.ListClasses, opts...))
	mux.Handle(ResolveScheduleProcedure, connect.NewUnaryHandler(ResolveScheduleProcedure, svc.ResolveSchedule, opts...))
	mux.Handle(AdjustFeeProcedure, connect.NewUnaryHandler(AdjustFeeProcedure, svc.AdjustFee, opts...))
	mux.Handle(ComposeBillProcedure, connect.NewUnaryHandler(ComposeBillProcedure, svc.ComposeBill, opts...))
	mux.Handle(GetLayoutProcedure, connect.NewUnaryHandler(GetLayoutProcedure, svc.GetLayout, opts...))
	return "/" + BillServiceName + "/", mux
}

// ListClasses returns the selectable classes, bill types and copy counts.
func (s *BillService) ListClasses(ctx context.Context, req *connect.Request[ListClassesRequest]) (*connect.Response[ListClassesResponse], error) {
	types := make([]string, len(models.BillTypes))
	for i, t := range models.BillTypes {
		types[i] = string(t)
	}
	return connect.NewResponse(&ListClassesResponse{
		Classes:         s.schedule.Classes(),
		DefaultClass:    s.schedule.DefaultClass(),
		ScheduleVersion: s.schedule.Version(),
		BillTypes:       types,
		Copies:          s.composer.Layout().Supported(),
	}), nil
}

// ResolveSchedule returns the baseline fees of a class.
func (s *BillService) ResolveSchedule(ctx context.Context, req *connect.Request[ResolveScheduleRequest]) (*connect.Response[ResolveScheduleResponse], error) {
	class := req.Msg.Class
	if !s.schedule.Has(class) {
		slog.Debug("Unknown class, using default schedule", "class", class)
		class = s.schedule.DefaultClass()
	}
	return connect.NewResponse(&ResolveScheduleResponse{
		Class: s.schedule.Canonical(class),
		Fees:  s.schedule.Resolve(class),
	}), nil
}

// AdjustFee applies one fee edit against the class baseline.
func (s *BillService) AdjustFee(ctx context.Context, req *connect.Request[AdjustFeeRequest]) (*connect.Response[AdjustFeeResponse], error) {
	baseline := s.schedule.Resolve(req.Msg.Class)

	fees, adj, err := calculator.AdjustByName(req.Msg.Fees, req.Msg.Component, req.Msg.Amount, baseline)
	if err != nil {
		slog.Warn("AdjustFee rejected", "component", req.Msg.Component, "error", err)
		if errors.Is(err, models.ErrUnknownComponent) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	s.metrics.FeeAdjusted(string(adj.Component), string(adj.Clamp))
	if adj.Clamped() {
		slog.Debug("Fee clamped",
			"component", string(adj.Component),
			"proposed", adj.Proposed,
			"final", adj.Final,
			"clamp", string(adj.Clamp),
		)
	}

	return connect.NewResponse(&AdjustFeeResponse{
		Fees:     fees,
		Final:    adj.Final,
		Clamp:    string(adj.Clamp),
		Baseline: baseline.Get(adj.Component),
	}), nil
}

// ComposeBill validates the student and composes the bill document.
func (s *BillService) ComposeBill(ctx context.Context, req *connect.Request[ComposeBillRequest]) (*connect.Response[ComposeBillResponse], error) {
	student, err := s.validator.Submit(req.Msg.Student)
	if err != nil {
		slog.Warn("ComposeBill rejected", "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	fees := s.schedule.Resolve(student.Class)
	if req.Msg.Fees != nil {
		fees = *req.Msg.Fees
	}
	copies := req.Msg.Copies
	if copies == 0 {
		copies = 1
	}

	doc, err := s.composer.Compose(student, fees, copies)
	if err != nil {
		slog.Error("ComposeBill failed", "error", err)
		if errors.Is(err, bill.ErrIncompleteStudent) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ComposeBillResponse{Document: doc}), nil
}

// GetLayout returns the page arrangement for a copy count.
func (s *BillService) GetLayout(ctx context.Context, req *connect.Request[GetLayoutRequest]) (*connect.Response[GetLayoutResponse], error) {
	if req.Msg.Copies < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("copies must not be negative"))
	}
	return connect.NewResponse(&GetLayoutResponse{Layout: s.composer.Layout().Layout(req.Msg.Copies)}), nil
}
