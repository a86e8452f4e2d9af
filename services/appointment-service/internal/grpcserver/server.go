package grpcserver

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/appointmed/libs/access"
	"github.com/md-rashed-zaman/appointmed/libs/appointments"
	"github.com/md-rashed-zaman/appointmed/libs/viewrpc"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Lister is the slice of the appointment repository the summary needs.
type Lister interface {
	List(ctx context.Context, s storage.Scope) ([]appointments.Appointment, error)
}

type server struct {
	appts Lister
	now   func() time.Time
}

func Register(grpcServer grpc.ServiceRegistrar, appts Lister, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	viewrpc.RegisterViewServer(grpcServer, &server{appts: appts, now: now})
}

func (s *server) Summary(ctx context.Context, req *viewrpc.SummaryRequest) (*viewrpc.SummaryResponse, error) {
	role, err := access.ParseRole(req.Role)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var scope storage.Scope
	switch role {
	case access.RoleUser:
		scope.UserID = req.ActorID
	case access.RoleProvider:
		scope.ProviderID = req.ActorID
	}
	if role != access.RoleAdmin && req.ActorID == "" {
		return nil, status.Error(codes.InvalidArgument, "actor_id is required")
	}

	all, err := s.appts.List(ctx, scope)
	if err != nil {
		return nil, status.Error(codes.Internal, "list appointments failed")
	}
	view, _ := appointments.ParseView(req.View)
	now := s.now()
	return &viewrpc.SummaryResponse{
		View:         view,
		Appointments: appointments.Classify(all, view, now),
		Counts:       appointments.CountByCategory(all, now),
	}, nil
}
