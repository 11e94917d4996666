// Package server implements the BootMaster web console.
//
// The console serves an embedded single-page front end and a JSON API over
// isolated workspaces. Each browser tab creates its own workspace, so two
// visitors never share a provisioning run, a device list or an advisor
// conversation.
//
// # Routes
//
//	GET    /health
//	GET    /api/messages?lang=en
//	POST   /api/sessions                  {"lang":"en"}
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	PUT    /api/sessions/{id}/language    {"lang":"fr"}
//	PUT    /api/sessions/{id}/settings    {"deviceId":"usb-2","imagePath":"Win11.iso",...}
//	POST   /api/sessions/{id}/start       {"confirm":true}
//	POST   /api/sessions/{id}/restart
//	POST   /api/sessions/{id}/abort       {"reason":"..."}
//	GET    /api/sessions/{id}/devices
//	POST   /api/sessions/{id}/rescan
//	POST   /api/sessions/{id}/ask         {"text":"..."}
//	POST   /api/sessions/{id}/reset
//	GET    /api/sessions/{id}/events      (WebSocket)
//
// Errors are returned as {"error": "<status text>", "message": "..."}.
// Validation failures are 400, a refused erase prompt is 428, operations
// that collide with a run, a scan or a pending reply are 409.
//
// # Event Stream
//
// The events endpoint upgrades to a WebSocket. The first message carries the
// full workspace state ({"type":"state","state":{...}}); every later message
// is one workspace.Notification (provisioning, catalog, advisor or language).
// A client that falls more than 256 notifications behind is disconnected.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{
//	    Host:      "127.0.0.1",
//	    Port:      8089,
//	    Advertise: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until SIGINT/SIGTERM, then closes every workspace.
//
// # mDNS
//
// With Advertise set the console registers itself as "_bootmaster._tcp" so
// `bootmaster consoles` can find it on the local network.
package server
