package server

import (
	"github.com/gorilla/mux"
	"google.golang.org/grpc"
)

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// RouteRegistrar is the HTTP counterpart of Registrar. public is the bare
// router; protected already runs the bearer-token middleware.
type RouteRegistrar interface {
	RegisterRoutes(public, protected *mux.Router)
}
