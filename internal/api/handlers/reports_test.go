package handlers_test

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/hugh/go-attend/internal/api/dto"
	"github.com/hugh/go-attend/internal/database/models"
	"github.com/hugh/go-attend/internal/tasks"
	"github.com/hugh/go-attend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, body string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestReportHandler_Company(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateTestAttendance(t, srv.DB, srv.Employee, "2025-01-08", models.ChannelNFC)
	testutil.CreateTestAttendance(t, srv.DB, srv.Admin, "2025-01-09", models.ChannelQR)
	testutil.CreateTestAttendance(t, srv.DB, srv.OtherEmployee, "2025-01-09", models.ChannelQR)

	rr := srv.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/reports/company", nil, srv.AdminToken))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attendance_report_20250110_090000.csv"`, rr.Header().Get("Content-Disposition"))

	rows := readCSV(t, rr.Body.String())
	require.Len(t, rows, 3)
	assert.Equal(t, "date", rows[0][0])
	for _, row := range rows[1:] {
		assert.NotEqual(t, srv.OtherEmployee.ID.String(), row[1])
	}

	t.Run("date filter", func(t *testing.T) {
		rr := srv.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/reports/company?date=2025-01-08", nil, srv.AdminToken))
		testutil.AssertStatus(t, rr, http.StatusOK)
		rows := readCSV(t, rr.Body.String())
		require.Len(t, rows, 2)
		assert.Equal(t, "2025-01-08", rows[1][0])
	})

	t.Run("employee forbidden", func(t *testing.T) {
		rr := srv.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/reports/company", nil, srv.EmployeeToken))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("inverted range", func(t *testing.T) {
		rr := srv.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/reports/company?from_date=2025-01-09&to_date=2025-01-01", nil, srv.AdminToken))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestReportHandler_Employee(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateTestAttendance(t, srv.DB, srv.Employee, "2025-01-08", models.ChannelNFC)
	testutil.CreateTestAttendance(t, srv.DB, srv.Admin, "2025-01-08", models.ChannelQR)

	rr := srv.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/reports/employees/"+srv.Employee.ID.String(), nil, srv.AdminToken))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, `attachment; filename="attendance_Eve_Employee_20250110_090000.csv"`, rr.Header().Get("Content-Disposition"))

	rows := readCSV(t, rr.Body.String())
	require.Len(t, rows, 2)
	assert.Equal(t, srv.Employee.ID.String(), rows[1][1])

	rr = srv.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/reports/employees/"+srv.OtherEmployee.ID.String(), nil, srv.AdminToken))
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = srv.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/reports/employees/not-a-uuid", nil, srv.AdminToken))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestReportHandler_Mine(t *testing.T) {
	srv := newTestServer(t)
	testutil.CreateTestAttendance(t, srv.DB, srv.Employee, "2025-01-08", models.ChannelNFC)
	testutil.CreateTestAttendance(t, srv.DB, srv.Employee, "2025-01-09", models.ChannelQR)
	testutil.CreateTestAttendance(t, srv.DB, srv.Admin, "2025-01-09", models.ChannelQR)

	rr := srv.do(testutil.AuthenticatedRequest(t, "GET", "/api/v1/reports/mine", nil, srv.EmployeeToken))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, `attachment; filename="my_attendance_20250110_090000.csv"`, rr.Header().Get("Content-Disposition"))

	rows := readCSV(t, rr.Body.String())
	require.Len(t, rows, 3)
	for _, row := range rows[1:] {
		assert.Equal(t, srv.Employee.ID.String(), row[1])
	}

	rr = srv.do(testutil.UnauthenticatedRequest(t, "GET", "/api/v1/reports/mine", nil))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestReportHandler_Archive(t *testing.T) {
	t.Run("queues task", func(t *testing.T) {
		srv := newTestServer(t)

		rr := srv.do(testutil.AuthenticatedRequest(t, "POST", "/api/v1/reports/company/archive?date=2025-01-08", nil, srv.AdminToken))
		testutil.AssertStatus(t, rr, http.StatusAccepted)

		var resp dto.ArchiveResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "task-1", resp.TaskID)
		assert.Equal(t, tasks.QueueLow, resp.Queue)

		require.Len(t, srv.Enqueuer.tasks, 1)
		task := srv.Enqueuer.tasks[0]
		assert.Equal(t, tasks.TypeReportArchive, task.Type())

		var payload tasks.ReportArchivePayload
		require.NoError(t, json.Unmarshal(task.Payload(), &payload))
		assert.Equal(t, srv.Company.ID, payload.CompanyID)
		require.NotNil(t, payload.FromDate)
		require.NotNil(t, payload.ToDate)
		assert.Equal(t, "2025-01-08", payload.FromDate.String())
		assert.Equal(t, "2025-01-08", payload.ToDate.String())
	})

	t.Run("employee forbidden", func(t *testing.T) {
		srv := newTestServer(t)
		rr := srv.do(testutil.AuthenticatedRequest(t, "POST", "/api/v1/reports/company/archive", nil, srv.EmployeeToken))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
		assert.Empty(t, srv.Enqueuer.tasks)
	})

	t.Run("no queue configured", func(t *testing.T) {
		srv := newTestServer(t, withoutEnqueuer())
		rr := srv.do(testutil.AuthenticatedRequest(t, "POST", "/api/v1/reports/company/archive", nil, srv.AdminToken))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	})
}
