package scandb

import (
	"log"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// AttachDebugRoutes mounts a tailSQL console on the mux's debug handler so
// stored sessions can be queried live while a capture investigation is
// running.
func (db *DB) AttachDebugRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://"+db.path, db.DB, &tailsql.DBOptions{
		Label: "framesift scan DB",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
}
