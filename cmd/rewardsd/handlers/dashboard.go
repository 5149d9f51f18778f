package handlers

import (
	"bytes"
	"context"
	"html/template"
	"net/http"

	"github.com/hashmine/miner-rewards/internal/platform/db"
	"github.com/hashmine/miner-rewards/internal/platform/web"
	"github.com/hashmine/miner-rewards/internal/rewards"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Dashboard renders the operator user list.
type Dashboard struct {
	MasterDB *db.DB
}

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Miner Rewards Admin</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #999; padding: 4px 10px; }
form { display: inline; }
</style>
</head>
<body>
<h1>Users</h1>
<table>
<tr>
<th>ID</th><th>Email</th><th>License</th><th>Approved</th><th>Withdraw</th>
<th>Total Withdrawn</th><th>Actions</th>
</tr>
{{range .Users}}
<tr>
<td>{{.ID}}</td>
<td>{{.Email}}</td>
<td>{{if .License}}{{.License}}{{end}}</td>
<td>{{.Approved}}</td>
<td>{{.AllowWithdraw}}</td>
<td>{{.TotalWithdrawn}}</td>
<td>
{{if .Approved}}
<form method="POST" action="/admin/revoke/{{.ID}}"><button>Revoke</button></form>
{{else}}
<form method="POST" action="/admin/approve/{{.ID}}"><button>Approve</button></form>
{{end}}
{{if .AllowWithdraw}}
<form method="POST" action="/admin/revoke/withdrawal/{{.ID}}"><button>Revoke Withdraw</button></form>
{{else}}
<form method="POST" action="/admin/approve/withdrawal/{{.ID}}"><button>Allow Withdraw</button></form>
{{end}}
</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

// List renders every account as HTML.
func (d *Dashboard) List(ctx context.Context, w http.ResponseWriter,
	r *http.Request, params map[string]string) error {

	ctx, span := trace.StartSpan(ctx, "handlers.Dashboard.List")
	defer span.End()

	dbConn := d.MasterDB.Copy()
	defer dbConn.Close()

	users, err := rewards.ListUsers(ctx, dbConn)
	if err != nil {
		return errors.Wrap(err, "list users")
	}

	data := struct {
		Users []rewards.User
	}{
		Users: users,
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, data); err != nil {
		return errors.Wrap(err, "render dashboard")
	}

	web.RespondHTML(ctx, w, buf.Bytes(), http.StatusOK)
	return nil
}
