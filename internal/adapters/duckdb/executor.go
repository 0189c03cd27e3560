package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talentops/hragent/internal/core/domain"
	"github.com/talentops/hragent/internal/core/ports"
)

// HRExecutor routes structured actions to SQL handlers over the shared
// repository. Deletes are soft (deleted_at), successful deletes expose the
// affected row's id so the guardrail can restore it, and every mutation is
// audit-logged.
type HRExecutor struct {
	logger *slog.Logger
	repo   *Repository
}

var _ ports.Executor = (*HRExecutor)(nil)

func NewHRExecutor(logger *slog.Logger, repo *Repository) *HRExecutor {
	return &HRExecutor{logger: logger, repo: repo}
}

// restorableTables guards Restore against arbitrary table names.
var restorableTables = map[string]struct{}{
	"documents": {},
	"employees": {},
	"tasks":     {},
	"meetings":  {},
}

// hrOnlyActions and leaderActions gate report-style actions by actor role.
var hrOnlyActions = map[string]struct{}{
	"attendance_report": {},
	"tasks_report":      {},
	"leave_report":      {},
	"employee_overview": {},
}

var leaderActions = map[string]struct{}{
	"tasks_log":        {},
	"attendance_stats": {},
}

// unsupportedActions exist in the action vocabulary but need subsystems
// (embeddings, document QA) this deployment does not ship.
var unsupportedActions = map[string]struct{}{
	"vector_search":    {},
	"company_docs_qa":  {},
	"ingest_documents": {},
}

type handlerFunc func(ctx context.Context, args map[string]string) (domain.ExecResult, error)

// Execute routes a single action. Unknown action types fail here, not at
// parse time.
func (e *HRExecutor) Execute(ctx context.Context, actionType string, args map[string]string) (domain.ExecResult, error) {
	actor := args["actor"]
	if actor == "" {
		actor = "system"
	}

	if !checkPermission(actor, actionType) {
		return domain.ExecResult{Error: fmt.Sprintf("Permission denied for action: %s", actionType)}, nil
	}
	if _, ok := unsupportedActions[actionType]; ok {
		return domain.ExecResult{Error: fmt.Sprintf("Action not supported by this deployment: %s", actionType)}, nil
	}

	handlers := map[string]handlerFunc{
		"attendance_mark":       e.attendanceMark,
		"attendance_my_summary": e.attendanceMySummary,
		"attendance_report":     e.attendanceReport,
		"attendance_stats":      e.attendanceStats,
		"leave_report":          e.leaveReport,
		"visualize":             e.visualize,
		"tasks_log":             e.tasksLog,
		"tasks_my_recent":       e.tasksMyRecent,
		"tasks_report":          e.tasksReport,
		"meet_create":           e.meetCreate,
		"meet_list":             e.meetList,
		"employee_overview":     e.employeeOverview,
		"employee_emails":       e.employeeEmails,
		"delete_employee":       e.deleteEmployee,
		"remove_employee":       e.deleteEmployee,
		"terminate_employee":    e.deleteEmployee,
		"delete_task":           e.deleteTask,
		"remove_task":           e.deleteTask,
		"delete_meeting":        e.deleteMeeting,
		"cancel_meeting":        e.deleteMeeting,
		"delete_document":       e.deleteDocument,
	}

	handler, ok := handlers[actionType]
	if !ok {
		return domain.ExecResult{Error: fmt.Sprintf("Unknown action type: %s", actionType)}, nil
	}

	result, err := handler(ctx, args)
	if err != nil {
		e.logger.Error("action handler failed", "action", actionType, "error", err)
		return domain.ExecResult{}, fmt.Errorf("%s: %w", actionType, err)
	}
	return result, nil
}

// Restore reactivates a soft-deleted record. Idempotent: restoring an
// already-active record reports false.
func (e *HRExecutor) Restore(ctx context.Context, table string, id string) (bool, error) {
	if _, ok := restorableTables[table]; !ok {
		return false, fmt.Errorf("table not restorable: %s", table)
	}

	result, err := e.repo.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL`, table), id)
	if err != nil {
		return false, fmt.Errorf("restore %s: %w", table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("restore %s rows affected: %w", table, err)
	}
	if affected > 0 {
		e.repo.logAction(ctx, "system", "restore_"+table, map[string]any{"id": id})
		return true, nil
	}
	return false, nil
}

// checkPermission applies the actor-role heuristic from the HR action
// router: hr/admin actors get report actions, leaders/managers additionally
// get team actions, everything else is open.
func checkPermission(actor, actionType string) bool {
	lower := strings.ToLower(actor)
	if _, ok := hrOnlyActions[actionType]; ok {
		return strings.Contains(lower, "hr") || strings.Contains(lower, "admin")
	}
	if _, ok := leaderActions[actionType]; ok {
		for _, role := range []string{"hr", "admin", "leader", "manager"} {
			if strings.Contains(lower, role) {
				return true
			}
		}
		return false
	}
	return true
}

func (e *HRExecutor) attendanceMark(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	employeeID := args["employee_id"]
	if employeeID == "" {
		return domain.ExecResult{Error: "employee_id is required"}, nil
	}
	action := args["action"]
	if action == "" {
		action = "check_in"
	}
	if action != "check_in" && action != "check_out" {
		return domain.ExecResult{Error: fmt.Sprintf("invalid attendance action: %s", action)}, nil
	}

	// One attendance row per employee per day: check_in upserts today's
	// row, check_out only fills in an existing one.
	var rowID string
	err := e.repo.db.QueryRowContext(ctx,
		`SELECT id FROM attendance WHERE employee_id = ? AND date = CURRENT_DATE AND deleted_at IS NULL`,
		employeeID).Scan(&rowID)
	if err != nil && err != sql.ErrNoRows {
		return domain.ExecResult{}, fmt.Errorf("lookup attendance: %w", err)
	}

	now := time.Now()
	if action == "check_in" {
		if rowID == "" {
			rowID = uuid.NewString()
			_, err = e.repo.db.ExecContext(ctx,
				`INSERT INTO attendance (id, employee_id, date, check_in, status, created_at)
				 VALUES (?, ?, CURRENT_DATE, ?, 'present', ?)`,
				rowID, employeeID, now, now)
		} else {
			_, err = e.repo.db.ExecContext(ctx,
				`UPDATE attendance SET check_in = ?, status = 'present' WHERE id = ?`, now, rowID)
		}
		if err != nil {
			return domain.ExecResult{}, fmt.Errorf("record check-in: %w", err)
		}
	} else {
		if rowID == "" {
			return domain.ExecResult{Error: fmt.Sprintf("no check-in recorded today for %s", employeeID)}, nil
		}
		if _, err = e.repo.db.ExecContext(ctx,
			`UPDATE attendance SET check_out = ? WHERE id = ?`, now, rowID); err != nil {
			return domain.ExecResult{}, fmt.Errorf("record check-out: %w", err)
		}
	}

	e.repo.logAction(ctx, args["actor"], "attendance_mark", map[string]any{"id": rowID, "employee_id": employeeID, "action": action})
	return domain.ExecResult{Success: true, Data: map[string]any{
		"id":          rowID,
		"employee_id": employeeID,
		"action":      action,
		"time":        now.Format(time.RFC3339),
	}}, nil
}

func (e *HRExecutor) attendanceMySummary(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	employeeID := args["employee_id"]
	if employeeID == "" {
		return domain.ExecResult{Error: "employee_id is required"}, nil
	}

	var totalDays, presentDays, lateDays int64
	var avgHours sql.NullFloat64
	err := e.repo.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'present'),
		        COUNT(*) FILTER (WHERE check_in IS NOT NULL AND CAST(check_in AS TIME) > TIME '09:00:00'),
		        AVG(date_diff('minute', check_in, check_out) / 60.0)
		 FROM attendance
		 WHERE employee_id = ? AND deleted_at IS NULL
		   AND date >= CURRENT_DATE - INTERVAL '30 days'`, employeeID).
		Scan(&totalDays, &presentDays, &lateDays, &avgHours)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("attendance summary: %w", err)
	}

	summary := map[string]any{
		"employee_id":  employeeID,
		"total_days":   totalDays,
		"present_days": presentDays,
		"late_days":    lateDays,
	}
	if avgHours.Valid {
		summary["avg_hours_per_day"] = avgHours.Float64
	}
	return domain.ExecResult{Success: true, Data: summary}, nil
}

// attendanceReport lists per-day attendance rows joined with employee names,
// optionally bounded by start_date/end_date (YYYY-MM-DD).
func (e *HRExecutor) attendanceReport(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	query := `SELECT e.name, a.employee_id, a.date, a.check_in, a.check_out, a.status
		 FROM attendance a
		 LEFT JOIN employees e ON e.employee_id = a.employee_id AND e.deleted_at IS NULL
		 WHERE a.deleted_at IS NULL`
	params := []any{}
	for _, bound := range []struct{ arg, op string }{{"start_date", ">="}, {"end_date", "<="}} {
		raw := args[bound.arg]
		if raw == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return domain.ExecResult{Error: fmt.Sprintf("invalid %s: %s", bound.arg, raw)}, nil
		}
		query += fmt.Sprintf(" AND a.date %s ?", bound.op)
		params = append(params, raw)
	}
	query += ` ORDER BY a.date DESC, e.name`

	rows, err := e.repo.db.QueryContext(ctx, query, params...)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("attendance report: %w", err)
	}
	defer rows.Close()

	records := []map[string]any{}
	for rows.Next() {
		var name, status sql.NullString
		var employeeID string
		var date time.Time
		var checkIn, checkOut sql.NullTime
		if err := rows.Scan(&name, &employeeID, &date, &checkIn, &checkOut, &status); err != nil {
			return domain.ExecResult{}, fmt.Errorf("scan attendance: %w", err)
		}
		record := map[string]any{
			"employee_id": employeeID,
			"date":        date.Format("2006-01-02"),
		}
		if name.Valid {
			record["name"] = name.String
		}
		if checkIn.Valid {
			record["check_in"] = checkIn.Time.Format(time.RFC3339)
		}
		if checkOut.Valid {
			record["check_out"] = checkOut.Time.Format(time.RFC3339)
		}
		if status.Valid {
			record["status"] = status.String
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return domain.ExecResult{}, err
	}
	return domain.ExecResult{Success: true, Data: map[string]any{"records": records}}, nil
}

// attendanceStats aggregates the last 30 days of attendance by status.
func (e *HRExecutor) attendanceStats(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	var total, present, absent, late int64
	err := e.repo.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'present'),
		        COUNT(*) FILTER (WHERE status = 'absent'),
		        COUNT(*) FILTER (WHERE status = 'late')
		 FROM attendance
		 WHERE deleted_at IS NULL AND date >= CURRENT_DATE - INTERVAL '30 days'`).
		Scan(&total, &present, &absent, &late)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("attendance stats: %w", err)
	}
	return domain.ExecResult{Success: true, Data: map[string]any{
		"period":        "last 30 days",
		"total_records": total,
		"present_count": present,
		"absent_count":  absent,
		"late_count":    late,
	}}, nil
}

func (e *HRExecutor) leaveReport(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	rows, err := e.repo.db.QueryContext(ctx,
		`SELECT l.id, l.type, l.start_date, l.end_date, l.reason, l.status, e.name, l.employee_id
		 FROM leave_requests l
		 LEFT JOIN employees e ON e.employee_id = l.employee_id AND e.deleted_at IS NULL
		 WHERE l.deleted_at IS NULL
		 ORDER BY l.created_at DESC`)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("leave report: %w", err)
	}
	defer rows.Close()

	requests := []map[string]any{}
	for rows.Next() {
		var id, leaveType, status, employeeID string
		var startDate, endDate sql.NullTime
		var reason, name sql.NullString
		if err := rows.Scan(&id, &leaveType, &startDate, &endDate, &reason, &status, &name, &employeeID); err != nil {
			return domain.ExecResult{}, fmt.Errorf("scan leave request: %w", err)
		}
		request := map[string]any{
			"id":          id,
			"type":        leaveType,
			"status":      status,
			"employee_id": employeeID,
		}
		if startDate.Valid {
			request["start_date"] = startDate.Time.Format("2006-01-02")
		}
		if endDate.Valid {
			request["end_date"] = endDate.Time.Format("2006-01-02")
		}
		if reason.Valid {
			request["reason"] = reason.String
		}
		if name.Valid {
			request["employee_name"] = name.String
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return domain.ExecResult{}, err
	}
	return domain.ExecResult{Success: true, Data: map[string]any{"requests": requests}}, nil
}

// visualize builds a Chart.js configuration for the requested dataset:
// attendance status distribution as a pie, task status counts as a bar.
func (e *HRExecutor) visualize(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	dataset := firstArg(args, "data", "dataset")
	switch dataset {
	case "attendance":
		labels, counts, err := e.statusCounts(ctx,
			`SELECT status, COUNT(*) FROM attendance
			 WHERE deleted_at IS NULL AND status IS NOT NULL
			   AND date >= CURRENT_DATE - INTERVAL '30 days'
			 GROUP BY status ORDER BY status`)
		if err != nil {
			return domain.ExecResult{}, fmt.Errorf("visualize attendance: %w", err)
		}
		return domain.ExecResult{Success: true, Data: map[string]any{
			"chart_config": map[string]any{
				"type": "pie",
				"data": map[string]any{
					"labels": labels,
					"datasets": []map[string]any{{
						"data":            counts,
						"backgroundColor": []string{"#36A2EB", "#FF6384", "#FFCE56", "#4BC0C0"},
					}},
				},
				"options": map[string]any{
					"plugins": map[string]any{
						"title": map[string]any{"display": true, "text": "Attendance Distribution (Last 30 Days)"},
					},
				},
			},
		}}, nil
	case "tasks":
		labels, counts, err := e.statusCounts(ctx,
			`SELECT status, COUNT(*) FROM tasks
			 WHERE deleted_at IS NULL
			 GROUP BY status ORDER BY status`)
		if err != nil {
			return domain.ExecResult{}, fmt.Errorf("visualize tasks: %w", err)
		}
		return domain.ExecResult{Success: true, Data: map[string]any{
			"chart_config": map[string]any{
				"type": "bar",
				"data": map[string]any{
					"labels": labels,
					"datasets": []map[string]any{{
						"label":           "Tasks",
						"data":            counts,
						"backgroundColor": "#36A2EB",
					}},
				},
				"options": map[string]any{
					"plugins": map[string]any{
						"title": map[string]any{"display": true, "text": "Tasks by Status"},
					},
					"scales": map[string]any{
						"y": map[string]any{"beginAtZero": true},
					},
				},
			},
		}}, nil
	default:
		return domain.ExecResult{Error: fmt.Sprintf("unsupported visualization dataset: %s", dataset)}, nil
	}
}

func (e *HRExecutor) statusCounts(ctx context.Context, query string) ([]string, []int64, error) {
	rows, err := e.repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	labels := []string{}
	counts := []int64{}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, nil, err
		}
		labels = append(labels, status)
		counts = append(counts, count)
	}
	return labels, counts, rows.Err()
}

// tasksLog creates a task, or updates an existing one when task_id is
// present. status=deleted on an update is a soft delete and returns the
// affected id like the named delete actions do.
func (e *HRExecutor) tasksLog(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	if taskID := args["task_id"]; taskID != "" {
		status := args["status"]
		if status == "" {
			return domain.ExecResult{Error: "status is required when updating a task"}, nil
		}
		if status == "deleted" {
			return e.softDelete(ctx, "tasks", taskID, args["actor"])
		}

		result, err := e.repo.db.ExecContext(ctx,
			`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
			status, time.Now(), taskID)
		if err != nil {
			return domain.ExecResult{}, fmt.Errorf("update task: %w", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return domain.ExecResult{Error: fmt.Sprintf("task not found: %s", taskID)}, nil
		}
		e.repo.logAction(ctx, args["actor"], "tasks_log_update", map[string]any{"id": taskID, "status": status})
		return domain.ExecResult{Success: true, Data: map[string]any{"id": taskID, "status": status}}, nil
	}

	employeeID := args["employee_id"]
	title := args["title"]
	if employeeID == "" || title == "" {
		return domain.ExecResult{Error: "employee_id and title are required"}, nil
	}
	status := args["status"]
	if status == "" {
		status = "open"
	}

	id := uuid.NewString()
	now := time.Now()
	_, err := e.repo.db.ExecContext(ctx,
		`INSERT INTO tasks (id, employee_id, title, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, employeeID, title, status, now, now)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("insert task: %w", err)
	}

	e.repo.logAction(ctx, args["actor"], "tasks_log_create", map[string]any{"id": id, "employee_id": employeeID})
	return domain.ExecResult{Success: true, Data: map[string]any{
		"id":          id,
		"employee_id": employeeID,
		"title":       title,
		"status":      status,
	}}, nil
}

func (e *HRExecutor) tasksMyRecent(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	employeeID := args["employee_id"]
	if employeeID == "" {
		return domain.ExecResult{Error: "employee_id is required"}, nil
	}
	limit := 10
	if raw := args["limit"]; raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	rows, err := e.repo.db.QueryContext(ctx,
		`SELECT id, title, status, created_at FROM tasks
		 WHERE employee_id = ? AND deleted_at IS NULL
		 ORDER BY created_at DESC LIMIT ?`, employeeID, limit)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("recent tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTaskRows(rows)
	if err != nil {
		return domain.ExecResult{}, err
	}
	return domain.ExecResult{Success: true, Data: map[string]any{
		"employee_id": employeeID,
		"tasks":       tasks,
	}}, nil
}

func (e *HRExecutor) tasksReport(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	rows, err := e.repo.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE deleted_at IS NULL GROUP BY status`)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("tasks report: %w", err)
	}
	defer rows.Close()

	byStatus := map[string]any{}
	total := int64(0)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return domain.ExecResult{}, fmt.Errorf("scan report: %w", err)
		}
		byStatus[status] = count
		total += count
	}
	if err := rows.Err(); err != nil {
		return domain.ExecResult{}, err
	}
	return domain.ExecResult{Success: true, Data: map[string]any{
		"total":     total,
		"by_status": byStatus,
	}}, nil
}

func (e *HRExecutor) meetCreate(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	title := args["title"]
	if title == "" {
		return domain.ExecResult{Error: "title is required"}, nil
	}

	var scheduledAt any
	if raw := args["scheduled_at"]; raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.ExecResult{Error: fmt.Sprintf("invalid scheduled_at: %s", raw)}, nil
		}
		scheduledAt = parsed
	}

	id := uuid.NewString()
	_, err := e.repo.db.ExecContext(ctx,
		`INSERT INTO meetings (id, title, organizer, scheduled_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, title, args["organizer"], scheduledAt, time.Now())
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("insert meeting: %w", err)
	}

	e.repo.logAction(ctx, args["actor"], "meet_create", map[string]any{"id": id, "title": title})
	return domain.ExecResult{Success: true, Data: map[string]any{"id": id, "title": title}}, nil
}

func (e *HRExecutor) meetList(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	rows, err := e.repo.db.QueryContext(ctx,
		`SELECT id, title, organizer, scheduled_at FROM meetings
		 WHERE deleted_at IS NULL AND (scheduled_at IS NULL OR scheduled_at >= CURRENT_TIMESTAMP)
		 ORDER BY scheduled_at ASC`)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	meetings := []map[string]any{}
	for rows.Next() {
		var id, title string
		var organizer sql.NullString
		var scheduledAt sql.NullTime
		if err := rows.Scan(&id, &title, &organizer, &scheduledAt); err != nil {
			return domain.ExecResult{}, fmt.Errorf("scan meeting: %w", err)
		}
		meeting := map[string]any{"id": id, "title": title}
		if organizer.Valid {
			meeting["organizer"] = organizer.String
		}
		if scheduledAt.Valid {
			meeting["scheduled_at"] = scheduledAt.Time.Format(time.RFC3339)
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return domain.ExecResult{}, err
	}
	return domain.ExecResult{Success: true, Data: map[string]any{"meetings": meetings}}, nil
}

func (e *HRExecutor) employeeOverview(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	rows, err := e.repo.db.QueryContext(ctx,
		`SELECT e.employee_id, e.name, e.department,
		        (SELECT COUNT(*) FROM tasks t WHERE t.employee_id = e.employee_id AND t.deleted_at IS NULL) AS task_count
		 FROM employees e
		 WHERE e.deleted_at IS NULL
		 ORDER BY e.name`)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("employee overview: %w", err)
	}
	defer rows.Close()

	employees := []map[string]any{}
	for rows.Next() {
		var employeeID, name string
		var department sql.NullString
		var taskCount int64
		if err := rows.Scan(&employeeID, &name, &department, &taskCount); err != nil {
			return domain.ExecResult{}, fmt.Errorf("scan employee: %w", err)
		}
		entry := map[string]any{
			"employee_id": employeeID,
			"name":        name,
			"task_count":  taskCount,
		}
		if department.Valid {
			entry["department"] = department.String
		}
		employees = append(employees, entry)
	}
	if err := rows.Err(); err != nil {
		return domain.ExecResult{}, err
	}
	return domain.ExecResult{Success: true, Data: map[string]any{"employees": employees}}, nil
}

func (e *HRExecutor) employeeEmails(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	rows, err := e.repo.db.QueryContext(ctx,
		`SELECT employee_id, name, email FROM employees WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("employee emails: %w", err)
	}
	defer rows.Close()

	emails := []map[string]any{}
	for rows.Next() {
		var employeeID, name string
		var email sql.NullString
		if err := rows.Scan(&employeeID, &name, &email); err != nil {
			return domain.ExecResult{}, fmt.Errorf("scan email: %w", err)
		}
		entry := map[string]any{"employee_id": employeeID, "name": name}
		if email.Valid {
			entry["email"] = email.String
		}
		emails = append(emails, entry)
	}
	if err := rows.Err(); err != nil {
		return domain.ExecResult{}, err
	}
	return domain.ExecResult{Success: true, Data: map[string]any{"emails": emails}}, nil
}

func (e *HRExecutor) deleteEmployee(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	ref := firstArg(args, "employee_id", "id")
	if ref == "" {
		return domain.ExecResult{Error: "employee_id is required"}, nil
	}

	var rowID string
	err := e.repo.db.QueryRowContext(ctx,
		`SELECT id FROM employees WHERE (employee_id = ? OR id = ?) AND deleted_at IS NULL`, ref, ref).
		Scan(&rowID)
	if err == sql.ErrNoRows {
		return domain.ExecResult{Error: fmt.Sprintf("employee not found: %s", ref)}, nil
	}
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("lookup employee: %w", err)
	}
	return e.softDelete(ctx, "employees", rowID, args["actor"])
}

func (e *HRExecutor) deleteTask(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	id := firstArg(args, "task_id", "id")
	if id == "" {
		return domain.ExecResult{Error: "task_id is required"}, nil
	}
	return e.softDelete(ctx, "tasks", id, args["actor"])
}

func (e *HRExecutor) deleteMeeting(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	id := firstArg(args, "meeting_id", "id")
	if id == "" {
		return domain.ExecResult{Error: "meeting_id is required"}, nil
	}
	return e.softDelete(ctx, "meetings", id, args["actor"])
}

func (e *HRExecutor) deleteDocument(ctx context.Context, args map[string]string) (domain.ExecResult, error) {
	id := firstArg(args, "document_id", "id")
	if id == "" {
		return domain.ExecResult{Error: "document_id is required"}, nil
	}
	return e.softDelete(ctx, "documents", id, args["actor"])
}

// softDelete marks a record deleted and returns its id in the result data,
// which is the contract the guardrail restore path depends on.
func (e *HRExecutor) softDelete(ctx context.Context, table, id, actor string) (domain.ExecResult, error) {
	if _, ok := restorableTables[table]; !ok {
		return domain.ExecResult{}, fmt.Errorf("table not deletable: %s", table)
	}
	if actor == "" {
		actor = "system"
	}

	result, err := e.repo.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, table),
		time.Now(), id)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("soft delete %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("soft delete %s rows affected: %w", table, err)
	}
	if affected == 0 {
		return domain.ExecResult{Error: fmt.Sprintf("record not found in %s: %s", table, id)}, nil
	}

	e.repo.logAction(ctx, actor, "soft_delete_"+table, map[string]any{"id": id})
	return domain.ExecResult{Success: true, Data: map[string]any{"id": id, "table": table}}, nil
}

func scanTaskRows(rows *sql.Rows) ([]map[string]any, error) {
	tasks := []map[string]any{}
	for rows.Next() {
		var id, title, status string
		var createdAt time.Time
		if err := rows.Scan(&id, &title, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, map[string]any{
			"id":         id,
			"title":      title,
			"status":     status,
			"created_at": createdAt.Format(time.RFC3339),
		})
	}
	return tasks, rows.Err()
}

func firstArg(args map[string]string, keys ...string) string {
	for _, key := range keys {
		if args[key] != "" {
			return args[key]
		}
	}
	return ""
}
