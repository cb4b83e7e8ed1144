package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"

	"shiftops/internal/response"
)

// serverConfig holds the active configuration; tests swap it as needed.
var serverConfig = defaultConfig()

func main() {
	configPath := flag.String("config", "shiftops.yaml", "Path to YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("Config load failed: ", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	serverConfig = cfg

	if err := initDB(cfg.DBPath); err != nil {
		log.Fatal("DB init failed: ", err)
	}
	seedDB()

	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), newServer()))
}

// newServer assembles the route mux with the middleware chain applied.
func newServer() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResp(w, map[string]string{"status": "ok", "company": serverConfig.CompanyName})
	})

	mux.HandleFunc("/ws", handleWebSocket)

	// Auth routes
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogin(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogout(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/me", handleMe)

	// API routes - simple path-segment router
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.Split(path, "/")

		switch {
		// Machines
		case parts[0] == "machines" && len(parts) == 1 && r.Method == "GET":
			handleListMachines(w, r)
		case parts[0] == "machines" && len(parts) == 1 && r.Method == "POST":
			handleCreateMachine(w, r)
		case parts[0] == "machines" && len(parts) == 2 && r.Method == "GET":
			handleGetMachine(w, r, parts[1])
		case parts[0] == "machines" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateMachine(w, r, parts[1])

		// Work Orders
		case parts[0] == "workorders" && len(parts) == 1 && r.Method == "GET":
			handleListWorkOrders(w, r)
		case parts[0] == "workorders" && len(parts) == 1 && r.Method == "POST":
			handleCreateWorkOrder(w, r)
		case parts[0] == "workorders" && len(parts) == 2 && r.Method == "GET":
			handleGetWorkOrder(w, r, parts[1])
		case parts[0] == "workorders" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateWorkOrder(w, r, parts[1])

		// Shift production entries
		case parts[0] == "shifts" && len(parts) == 2 && parts[1] == "export" && r.Method == "GET":
			handleExportShifts(w, r)
		case parts[0] == "shifts" && len(parts) == 1 && r.Method == "GET":
			handleListShifts(w, r)
		case parts[0] == "shifts" && len(parts) == 1 && r.Method == "POST":
			handleCreateShift(w, r)
		case parts[0] == "shifts" && len(parts) == 2 && r.Method == "GET":
			handleGetShift(w, r, parts[1])
		case parts[0] == "shifts" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteShift(w, r, parts[1])

		// Setup activities
		case parts[0] == "setups" && len(parts) == 1 && r.Method == "GET":
			handleListSetups(w, r)
		case parts[0] == "setups" && len(parts) == 1 && r.Method == "POST":
			handleCreateSetup(w, r)
		case parts[0] == "setups" && len(parts) == 2 && r.Method == "GET":
			handleGetSetup(w, r, parts[1])
		case parts[0] == "setups" && len(parts) == 3 && parts[2] == "end" && r.Method == "PUT":
			handleEndSetup(w, r, parts[1])
		case parts[0] == "setups" && len(parts) == 3 && parts[2] == "approve-first-piece" && r.Method == "PUT":
			handleApproveFirstPiece(w, r, parts[1])
		case parts[0] == "setups" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteSetup(w, r, parts[1])

		// Reports
		case parts[0] == "reports" && len(parts) == 2 && parts[1] == "shift-metrics" && r.Method == "GET":
			handleReportShiftMetrics(w, r)
		case parts[0] == "reports" && len(parts) == 2 && parts[1] == "setter-performance" && r.Method == "GET":
			handleReportSetterPerformance(w, r)
		case parts[0] == "reports" && len(parts) == 3 && parts[1] == "setter-performance" && parts[2] == "export" && r.Method == "GET":
			handleExportSetterPerformance(w, r)
		case parts[0] == "reports" && len(parts) == 2 && parts[1] == "formulas" && r.Method == "GET":
			handleReportFormulas(w, r)

		// Users (admin)
		case parts[0] == "users" && len(parts) == 1 && r.Method == "GET":
			handleListUsers(w, r)
		case parts[0] == "users" && len(parts) == 1 && r.Method == "POST":
			handleCreateUser(w, r)
		case parts[0] == "users" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateUser(w, r, parts[1])

		// Audit
		case parts[0] == "audit" && len(parts) == 1 && r.Method == "GET":
			handleAuditLog(w, r)

		default:
			jsonErr(w, "not found", 404)
		}
	})

	return logging(requireAuth(requireRBAC(mux)))
}

func jsonResp(w http.ResponseWriter, data interface{}) {
	response.JSON(w, data)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	response.Err(w, msg, code)
}

func decodeBody(r *http.Request, v interface{}) error {
	return response.DecodeBody(r, v)
}
