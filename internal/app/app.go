// Package app assembles the bill pipeline from configuration. The server and
// the command line tool share it.
package app

import (
	"fmt"
	"log/slog"

	"github.com/mmynk/feebill/internal/bill"
	"github.com/mmynk/feebill/internal/config"
	"github.com/mmynk/feebill/internal/form"
	"github.com/mmynk/feebill/internal/layout"
	"github.com/mmynk/feebill/internal/metrics"
	"github.com/mmynk/feebill/internal/models"
	"github.com/mmynk/feebill/internal/render"
	"github.com/mmynk/feebill/internal/schedule"
)

// App holds the immutable collaborators built from a Config.
type App struct {
	Config          *config.Config
	Schedule        *schedule.Schedule
	Layout          *layout.Engine
	Metrics         *metrics.Metrics
	Composer        *bill.Composer
	Renderer        *render.Renderer
	Validator       *form.Validator
	DefaultBillType models.BillType
}

// New builds an App. m may be nil when metrics are not served.
func New(cfg *config.Config, m *metrics.Metrics) (*App, error) {
	sched := schedule.Default()
	if cfg.Schedule.Path != "" {
		var err error
		sched, err = schedule.LoadFile(cfg.Schedule.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load fee schedule: %w", err)
		}
	}
	slog.Info("Fee schedule loaded",
		"version", sched.Version(),
		"classes", len(sched.Classes()),
		"path", cfg.Schedule.Path,
	)

	engine, err := layout.New(cfg.Layout.Copies...)
	if err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}

	billType, err := models.ParseBillType(cfg.Bill.DefaultType)
	if err != nil {
		return nil, fmt.Errorf("invalid default bill type: %w", err)
	}

	renderer, err := render.New(render.Options{
		CurrencySymbol: cfg.Bill.CurrencySymbol,
		Locale:         cfg.Bill.Locale,
		AutoPrint:      cfg.Bill.AutoPrint,
	})
	if err != nil {
		return nil, err
	}

	composer := bill.NewComposer(sched, engine, bill.Options{
		Institution: bill.Institution{
			Name:    cfg.Institution.Name,
			Address: cfg.Institution.Address,
			Phone:   cfg.Institution.Phone,
			Email:   cfg.Institution.Email,
		},
		DueDays:      cfg.Bill.DueDays,
		AcademicYear: cfg.Bill.AcademicYear,
		Metrics:      m,
	})

	return &App{
		Config:          cfg,
		Schedule:        sched,
		Layout:          engine,
		Metrics:         m,
		Composer:        composer,
		Renderer:        renderer,
		Validator:       form.NewValidator(sched),
		DefaultBillType: billType,
	}, nil
}
