package main

import "net/http"

func handleListMachines(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT id,name,plant,location,status,notes,created_at FROM machines ORDER BY id")
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	items := []Machine{}
	for rows.Next() {
		var m Machine
		rows.Scan(&m.ID, &m.Name, &m.Plant, &m.Location, &m.Status, &m.Notes, &m.CreatedAt)
		items = append(items, m)
	}
	jsonResp(w, items)
}

func handleGetMachine(w http.ResponseWriter, r *http.Request, id string) {
	var m Machine
	err := db.QueryRow("SELECT id,name,plant,location,status,notes,created_at FROM machines WHERE id=?", id).
		Scan(&m.ID, &m.Name, &m.Plant, &m.Location, &m.Status, &m.Notes, &m.CreatedAt)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, m)
}

func handleCreateMachine(w http.ResponseWriter, r *http.Request) {
	var m Machine
	if err := decodeBody(r, &m); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &ValidationErrors{}
	requireField(ve, "name", m.Name)
	validateMaxLength(ve, "name", m.Name, 100)
	validateEnum(ve, "status", m.Status, validMachineStatuses)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	if m.ID == "" {
		m.ID = nextID("MC", "machines", 3)
	}
	if m.Status == "" {
		m.Status = "active"
	}
	_, err := db.Exec("INSERT INTO machines (id,name,plant,location,status,notes) VALUES (?,?,?,?,?,?)",
		m.ID, m.Name, m.Plant, m.Location, m.Status, m.Notes)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUsername(r), AuditActionCreate, "machines", m.ID, "Created machine "+m.ID+" ("+m.Name+")")
	broadcast("machines", "create", m.ID)
	handleGetMachine(w, r, m.ID)
}

func handleUpdateMachine(w http.ResponseWriter, r *http.Request, id string) {
	var m Machine
	if err := decodeBody(r, &m); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &ValidationErrors{}
	requireField(ve, "name", m.Name)
	validateEnum(ve, "status", m.Status, validMachineStatuses)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	res, err := db.Exec("UPDATE machines SET name=?,plant=?,location=?,status=?,notes=? WHERE id=?",
		m.Name, m.Plant, m.Location, m.Status, m.Notes, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "machines", id, "Updated machine "+id)
	broadcast("machines", "update", id)
	handleGetMachine(w, r, id)
}

func handleListWorkOrders(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT id,item_code,item_name,qty,cycle_time_seconds,status,notes,created_at FROM work_orders ORDER BY created_at DESC")
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	items := []WorkOrder{}
	for rows.Next() {
		var wo WorkOrder
		rows.Scan(&wo.ID, &wo.ItemCode, &wo.ItemName, &wo.Qty, &wo.CycleTimeSeconds, &wo.Status, &wo.Notes, &wo.CreatedAt)
		items = append(items, wo)
	}
	jsonResp(w, items)
}

func handleGetWorkOrder(w http.ResponseWriter, r *http.Request, id string) {
	var wo WorkOrder
	err := db.QueryRow("SELECT id,item_code,item_name,qty,cycle_time_seconds,status,notes,created_at FROM work_orders WHERE id=?", id).
		Scan(&wo.ID, &wo.ItemCode, &wo.ItemName, &wo.Qty, &wo.CycleTimeSeconds, &wo.Status, &wo.Notes, &wo.CreatedAt)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, wo)
}

func handleCreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var wo WorkOrder
	if err := decodeBody(r, &wo); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &ValidationErrors{}
	requireField(ve, "item_code", wo.ItemCode)
	validateMaxLength(ve, "item_code", wo.ItemCode, 100)
	validateEnum(ve, "status", wo.Status, validWOStatuses)
	if wo.CycleTimeSeconds < 0 {
		ve.Add("cycle_time_seconds", "must be non-negative")
	}
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	if wo.ID == "" {
		wo.ID = nextID("WO", "work_orders", 4)
	}
	if wo.Status == "" {
		wo.Status = "open"
	}
	if wo.Qty == 0 {
		wo.Qty = 1
	}
	_, err := db.Exec("INSERT INTO work_orders (id,item_code,item_name,qty,cycle_time_seconds,status,notes) VALUES (?,?,?,?,?,?,?)",
		wo.ID, wo.ItemCode, wo.ItemName, wo.Qty, wo.CycleTimeSeconds, wo.Status, wo.Notes)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUsername(r), AuditActionCreate, "work_orders", wo.ID, "Created WO "+wo.ID+" for "+wo.ItemCode)
	broadcast("workorders", "create", wo.ID)
	handleGetWorkOrder(w, r, wo.ID)
}

func handleUpdateWorkOrder(w http.ResponseWriter, r *http.Request, id string) {
	var wo WorkOrder
	if err := decodeBody(r, &wo); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &ValidationErrors{}
	requireField(ve, "item_code", wo.ItemCode)
	validateEnum(ve, "status", wo.Status, validWOStatuses)
	if wo.CycleTimeSeconds < 0 {
		ve.Add("cycle_time_seconds", "must be non-negative")
	}
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	res, err := db.Exec("UPDATE work_orders SET item_code=?,item_name=?,qty=?,cycle_time_seconds=?,status=?,notes=? WHERE id=?",
		wo.ItemCode, wo.ItemName, wo.Qty, wo.CycleTimeSeconds, wo.Status, wo.Notes, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "work_orders", id, "Updated WO "+id)
	broadcast("workorders", "update", id)
	handleGetWorkOrder(w, r, id)
}
