package main

import (
	"net/http"
	"time"

	"github.com/hashmine/miner-rewards/cmd/rewardsd/handlers"
	"github.com/hashmine/miner-rewards/internal/mid"
	"github.com/hashmine/miner-rewards/internal/platform/db"
	"github.com/hashmine/miner-rewards/internal/platform/web"
)

// API returns a handler for a set of routes.
func API(config *web.Config, masterDB *db.DB) http.Handler {

	app := web.New(config, mid.ErrorHandler, mid.CORS)

	// Register OPTIONS fallback handler for preflight requests.
	app.HandleOptions(mid.CORSHandler)

	hh := handlers.Health{MasterDB: masterDB}
	app.Handle("GET", "/health", hh.Health)

	// We don't need to log health requests, so add this middleware after the health request.
	app.AddMiddleWare(mid.RequestLogger)

	ah := handlers.Auth{
		Config:   config,
		MasterDB: masterDB,
	}
	app.Handle("POST", "/api/auth", ah.Authenticate)

	mh := handlers.Mining{MasterDB: masterDB}
	app.Handle("POST", "/api/user/:id/mining", mh.Read)
	app.Handle("PUT", "/api/user/:id/mining", mh.Replace)

	wh := handlers.Withdrawals{MasterDB: masterDB}
	app.Handle("POST", "/api/withdrawal/approval/:id", wh.Approval)
	app.Handle("POST", "/api/withdraw/history/:id", wh.History)

	dh := handlers.Dashboard{MasterDB: masterDB}
	app.Handle("GET", "/", dh.List)

	adh := handlers.Admin{
		MasterDB: masterDB,
		Now:      time.Now,
	}
	app.Handle("POST", "/admin/approve/:id", adh.Approve)
	app.Handle("POST", "/admin/revoke/:id", adh.Revoke)
	app.Handle("POST", "/admin/approve/withdrawal/:id", adh.ApproveWithdrawal)
	app.Handle("POST", "/admin/revoke/withdrawal/:id", adh.RevokeWithdrawal)
	app.Handle("DELETE", "/admin/hidden/:accessCode/user/:id", adh.Delete)
	app.Handle("POST", "/admin/:accessCode/create/license", adh.CreateLicense)

	return app
}
