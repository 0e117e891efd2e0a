package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/web"
)

// Registrar exposes the same dependency check over HTTP (GET /health) and
// the standard grpc.health.v1.Health service.
type Registrar struct {
	appCtx *app.AppContext
	svc    *Service
	grpc   *grpchealth.Server
}

// NewRegistrar creates a new Registrar for the health service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{
		appCtx: appCtx,
		svc:    NewService(appCtx),
		grpc:   grpchealth.NewServer(),
	}
}

// Register attaches the health service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, r.grpc)
}

// RegisterRoutes mounts GET /health on the public router.
func (r *Registrar) RegisterRoutes(public, _ *mux.Router) {
	public.HandleFunc("/health", r.health).Methods(http.MethodGet)
}

func (r *Registrar) health(w http.ResponseWriter, req *http.Request) {
	rep := r.Refresh(req.Context())
	status := http.StatusOK
	if !rep.Healthy() {
		status = http.StatusServiceUnavailable
	}
	web.JSON(w, status, rep)
}

// Refresh runs the check and publishes the result as the overall ("")
// gRPC serving status.
func (r *Registrar) Refresh(ctx context.Context) Report {
	rep := r.svc.Check(ctx)
	st := healthpb.HealthCheckResponse_SERVING
	if !rep.Healthy() {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.grpc.SetServingStatus("", st)
	return rep
}

// Monitor refreshes the gRPC status every interval until ctx is done, then
// marks the service as shutting down.
func (r *Registrar) Monitor(ctx context.Context, interval time.Duration) {
	r.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.grpc.Shutdown()
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}
