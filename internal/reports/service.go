package reports

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/shared"
)

// Repository is the ledger capability the reports read.
type Repository interface {
	ListApplicantPaymentFiles(ctx context.Context) ([]ledger.ApplicantPaymentFile, error)
	ListUnits(ctx context.Context, filter ledger.UnitFilter) ([]ledger.Property, error)
	ledger.Resolver
}

// Service builds the sales reports.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type bookingRefs struct {
	project       dataloader.Thunk[*ledger.Project]
	client        dataloader.Thunk[*ledger.Client]
	property      dataloader.Thunk[*ledger.Property]
	broker        dataloader.Thunk[*ledger.Broker]
	salesEmployee dataloader.Thunk[*ledger.SalesEmployee]
	paymentPlan   dataloader.Thunk[*ledger.PaymentPlan]
}

// ApplicantPaymentReport joins every applicant payment file with its booking
// and the booking's references, in file order. Rows are kept when a
// reference is null or dangling; a store failure fails the report.
func (s *Service) ApplicantPaymentReport(ctx context.Context) ([]BookingView, error) {
	files, err := s.repo.ListApplicantPaymentFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("reports: applicant payment files: %w", shared.StoreFailure("list files", err))
	}

	l := newLoaders(s.repo)

	bookingThunks := make([]dataloader.Thunk[*ledger.Booking], len(files))
	for i, f := range files {
		bookingThunks[i] = load(ctx, l.bookings, f.BookingID)
	}
	bookings := make([]*ledger.Booking, len(files))
	for i, thunk := range bookingThunks {
		if bookings[i], err = thunk(); err != nil {
			return nil, fmt.Errorf("reports: resolve bookings: %w", shared.StoreFailure("bookings", err))
		}
	}

	refs := make([]bookingRefs, len(files))
	for i, b := range bookings {
		if b == nil {
			continue
		}
		refs[i] = bookingRefs{
			project:       load(ctx, l.projects, b.ProjectID),
			client:        load(ctx, l.clients, b.ClientID),
			property:      load(ctx, l.properties, b.PropertyID),
			broker:        load(ctx, l.brokers, b.BrokerID),
			salesEmployee: load(ctx, l.salesEmployees, b.SalesEmployeeID),
			paymentPlan:   load(ctx, l.paymentPlans, b.PaymentPlanID),
		}
	}

	views := make([]BookingView, len(files))
	for i, f := range files {
		view := BookingView{
			ID:         f.ID,
			FileNumber: f.FileNumber,
			Status:     f.Status,
			CreatedAt:  f.CreatedAt,
			Booking:    bookings[i],
		}
		if bookings[i] != nil {
			if err := refs[i].resolve(&view); err != nil {
				return nil, fmt.Errorf("reports: resolve booking %d: %w", bookings[i].ID, shared.StoreFailure("references", err))
			}
		}
		views[i] = view
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

func (r bookingRefs) resolve(view *BookingView) error {
	var err error
	if view.Project, err = r.project(); err != nil {
		return err
	}
	if view.Client, err = r.client(); err != nil {
		return err
	}
	if view.Property, err = r.property(); err != nil {
		return err
	}
	if view.Broker, err = r.broker(); err != nil {
		return err
	}
	if view.SalesEmployee, err = r.salesEmployee(); err != nil {
		return err
	}
	view.PaymentPlan, err = r.paymentPlan()
	return err
}

// UnitStatus lists units matching filter, each joined with its project.
func (s *Service) UnitStatus(ctx context.Context, filter UnitStatusFilter) ([]UnitStatusView, error) {
	if filter.ProjectID < 0 {
		return nil, fmt.Errorf("project id must not be negative: %w", shared.ErrInvalidArgument)
	}
	units, err := s.repo.ListUnits(ctx, ledger.UnitFilter{ProjectID: filter.ProjectID, Status: filter.Status})
	if err != nil {
		return nil, fmt.Errorf("reports: unit status: %w", shared.StoreFailure("list units", err))
	}

	l := newLoaders(s.repo)
	thunks := make([]dataloader.Thunk[*ledger.Project], len(units))
	for i, u := range units {
		projectID := u.ProjectID
		thunks[i] = load(ctx, l.projects, &projectID)
	}
	views := make([]UnitStatusView, len(units))
	for i, u := range units {
		project, err := thunks[i]()
		if err != nil {
			return nil, fmt.Errorf("reports: unit status projects: %w", shared.StoreFailure("projects", err))
		}
		views[i] = UnitStatusView{Property: u, Project: project}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return views, nil
}
