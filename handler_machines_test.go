package main

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMachineCRUD(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)

	body := `{"name":"Hydraulic Press 250T","plant":"Plant-1","location":"Bay 3"}`
	w := httptest.NewRecorder()
	handleCreateMachine(w, authedRequest("POST", "/api/v1/machines", body, cookie))
	if w.Code != 200 {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data Machine `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	m := resp.Data
	if !strings.HasPrefix(m.ID, "MC-") {
		t.Errorf("machine id = %q, want MC- prefix", m.ID)
	}
	if m.Status != "active" {
		t.Errorf("default status = %q, want active", m.Status)
	}

	w2 := httptest.NewRecorder()
	handleUpdateMachine(w2, authedRequest("PUT", "/api/v1/machines/"+m.ID,
		`{"name":"Hydraulic Press 250T","status":"maintenance"}`, cookie), m.ID)
	if w2.Code != 200 {
		t.Fatalf("update failed: %d %s", w2.Code, w2.Body.String())
	}

	w3 := httptest.NewRecorder()
	handleGetMachine(w3, authedRequest("GET", "/api/v1/machines/"+m.ID, "", cookie), m.ID)
	json.Unmarshal(w3.Body.Bytes(), &resp)
	if resp.Data.Status != "maintenance" {
		t.Errorf("status after update = %q", resp.Data.Status)
	}

	// Unknown status rejected
	w4 := httptest.NewRecorder()
	handleUpdateMachine(w4, authedRequest("PUT", "/api/v1/machines/"+m.ID,
		`{"name":"x","status":"broken"}`, cookie), m.ID)
	if w4.Code != 400 {
		t.Errorf("bad status update = %d, want 400", w4.Code)
	}
}

func TestWorkOrderCRUD(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)

	body := `{"item_code":"ITEM-100","item_name":"Bracket","qty":5000,"cycle_time_seconds":28.5}`
	w := httptest.NewRecorder()
	handleCreateWorkOrder(w, authedRequest("POST", "/api/v1/workorders", body, cookie))
	if w.Code != 200 {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data WorkOrder `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	wo := resp.Data
	if !strings.HasPrefix(wo.ID, "WO-") {
		t.Errorf("work order id = %q, want WO- prefix", wo.ID)
	}
	if wo.CycleTimeSeconds != 28.5 {
		t.Errorf("cycle time = %v, want 28.5", wo.CycleTimeSeconds)
	}

	// Negative cycle time rejected
	w2 := httptest.NewRecorder()
	handleCreateWorkOrder(w2, authedRequest("POST", "/api/v1/workorders",
		`{"item_code":"ITEM-101","qty":10,"cycle_time_seconds":-3}`, cookie))
	if w2.Code != 400 {
		t.Errorf("negative cycle time = %d, want 400", w2.Code)
	}

	// Missing item code rejected
	w3 := httptest.NewRecorder()
	handleCreateWorkOrder(w3, authedRequest("POST", "/api/v1/workorders", `{"qty":10}`, cookie))
	if w3.Code != 400 {
		t.Errorf("missing item code = %d, want 400", w3.Code)
	}
}
