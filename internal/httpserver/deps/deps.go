package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/readmehub/internal/auth"
	"github.com/MrSnakeDoc/readmehub/internal/index"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
	"github.com/MrSnakeDoc/readmehub/internal/optimizer"
	"github.com/MrSnakeDoc/readmehub/internal/syncer"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time     // for testing, defaults to time.Now
	AllowedHosts   []string             // Host headers allowed to access the server
	AllowedCIDRS   []string             // IPs allowed to access healthz/readyz/infra endpoints
	TrustProxy     bool                 // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins    []string             // browser origins allowed to call the API
	RequestTimeout time.Duration        // per-request deadline
	Sync           *syncer.Synchronizer // every document operation goes through here
	Index          *index.DocumentIndex // in-process read view for public pages
	Sessions       *auth.Manager        // admin login and session checks
	Optimizer      *optimizer.Service   // content rewriting
	Redis          Pinger               // nil when running without Redis
	ReloadTrigger  chan struct{}        // Channel to trigger a manual document reload
	SecureCookies  bool                 // set Secure on the session cookie
}

// Now returns the injected clock or time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
